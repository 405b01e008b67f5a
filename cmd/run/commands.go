package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "ascmem",
		Short:         "Inspect and drive guests that keep strings on a garbage-collected heap",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	a.addFlags(root)

	root.AddCommand(
		newExportsCmd(a),
		newCallCmd(a),
		newReadCmd(a),
		newConsoleCmd(a),
	)
	return root
}

func newExportsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exports <file.wasm>",
		Short: "List exported functions and whether the managed runtime is present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, args[0], a.runtimeOptions()...)
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			out := cmd.OutOrStdout()
			for _, exp := range s.mod.Exports() {
				fmt.Fprintf(out, "  %s\n", exp.Name)
			}
			runtimeState := "no"
			if s.mod.HasRuntime() {
				runtimeState = "yes"
			}
			fmt.Fprintf(out, "managed runtime: %s\n", runtimeState)
			fmt.Fprintf(out, "pointer width: %d\n", s.inst.Heap().PointerWidth())
			return nil
		},
	}
}

func newCallCmd(a *app) *cobra.Command {
	var asText, asBytes bool
	cmd := &cobra.Command{
		Use:   "call <file.wasm> <func> [args...]",
		Short: "Call an export with raw integers, Strings (--text) or hex ArrayBuffers (--bytes)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if asText && asBytes {
				return fmt.Errorf("--text and --bytes are mutually exclusive")
			}
			ctx := cmd.Context()
			s, err := openSession(ctx, args[0], a.runtimeOptions()...)
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			name, rest := args[1], args[2:]
			out := cmd.OutOrStdout()

			switch {
			case asText:
				res, err := s.inst.CallText(ctx, name, rest...)
				if err != nil {
					return fmt.Errorf("call %s: %w", name, err)
				}
				fmt.Fprintln(out, res)

			case asBytes:
				bufs := make([][]byte, len(rest))
				for i, arg := range rest {
					if bufs[i], err = hex.DecodeString(arg); err != nil {
						return fmt.Errorf("argument %d: %w", i, err)
					}
				}
				res, err := s.inst.CallBytes(ctx, name, bufs...)
				if err != nil {
					return fmt.Errorf("call %s: %w", name, err)
				}
				fmt.Fprintln(out, hex.EncodeToString(res))

			default:
				params := make([]uint64, len(rest))
				for i, arg := range rest {
					if params[i], err = strconv.ParseUint(arg, 0, 64); err != nil {
						return fmt.Errorf("argument %d: %w", i, err)
					}
				}
				res, err := s.inst.Call(ctx, name, params...)
				if err != nil {
					return fmt.Errorf("call %s: %w", name, err)
				}
				fmt.Fprintln(out, res)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asText, "text", false, "pass arguments and decode the result as Strings")
	cmd.Flags().BoolVar(&asBytes, "bytes", false, "pass hex arguments and decode the result as ArrayBuffers")
	return cmd
}

func newReadCmd(a *app) *cobra.Command {
	var (
		ptr     uint64
		call    string
		asBytes bool
	)
	cmd := &cobra.Command{
		Use:   "read <file.wasm>",
		Short: "Decode the String or ArrayBuffer at --ptr, or at the pointer a --call export returns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if call == "" && !cmd.Flags().Changed("ptr") {
				return fmt.Errorf("one of --ptr or --call is required")
			}
			ctx := cmd.Context()
			s, err := openSession(ctx, args[0], a.runtimeOptions()...)
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			if call != "" {
				res, err := s.inst.Call(ctx, call)
				if err != nil {
					return fmt.Errorf("call %s: %w", call, err)
				}
				if len(res) == 0 {
					return fmt.Errorf("%s returned no value", call)
				}
				ptr = res[0]
			}

			what := "text"
			if asBytes {
				what = "bytes"
			}
			hdr, err := describe(s.inst.Heap(), "header", ptr)
			if err != nil {
				return err
			}
			val, err := describe(s.inst.Heap(), what, ptr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "0x%x %s\n%s\n", ptr, hdr, val)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&ptr, "ptr", 0, "payload address of the object")
	cmd.Flags().StringVar(&call, "call", "", "zero-argument export whose result is the pointer to read")
	cmd.Flags().BoolVar(&asBytes, "bytes", false, "read an ArrayBuffer instead of a String")
	return cmd
}

func newConsoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "console <file.wasm>",
		Short: "Interactive console for allocating, pinning and reading guest objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd.Context(), args[0], a.runtimeOptions()...)
		},
	}
}
