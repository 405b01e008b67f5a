package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/wippyai/ascmem/managed"
	"github.com/wippyai/ascmem/runtime"
)

// session owns one guest instance and the objects allocated on its heap
// from the command line. exec and Close are serialized.
type session struct {
	mu      sync.Mutex
	rt      *runtime.Runtime
	mod     *runtime.Module
	inst    *runtime.Instance
	handles []*managed.Object
	closed  bool
}

func openSession(ctx context.Context, path string, opts ...runtime.Option) (*session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return newSession(ctx, data, opts...)
}

func newSession(ctx context.Context, wasm []byte, opts ...runtime.Option) (*session, error) {
	rt, err := runtime.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}
	mod, err := rt.Load(ctx, wasm)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("load module: %w", err)
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiate: %w", err)
	}
	return &session{rt: rt, mod: mod, inst: inst}, nil
}

// Close releases every live handle, then tears down the instance and runtime.
func (s *session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for _, obj := range s.handles {
		if obj != nil {
			obj.Release(ctx)
		}
	}
	s.handles = nil
	if err := s.inst.Close(ctx); err != nil {
		s.rt.Close(ctx)
		return err
	}
	return s.rt.Close(ctx)
}

const consoleHelp = `commands:
  new <text>              allocate a String, prints its handle
  newbytes <hex>          allocate an ArrayBuffer
  text <ptr>              decode the String at ptr
  bytes <ptr>             dump the ArrayBuffer at ptr as hex
  header <ptr>            show the rtId/rtSize header in front of ptr
  pin <#h> | unpin <#h>   pin or unpin a handle
  release <#h>            unpin if pinned and forget the handle
  handles                 list live handles
  collect                 run the guest collector
  call <fn> [args]        call with raw integers or #handles
  calltext <fn> [args]    call with String arguments, decode a String result
  quit                    release all handles and exit
<ptr> is a number (0x.. for hex) or a #handle.`

// exec runs one console command and returns its output.
func (s *session) exec(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := fields[0], fields[1:]

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", fmt.Errorf("session closed")
	}
	heap := s.inst.Heap()

	switch cmd {
	case "help", "?":
		return consoleHelp, nil

	case "new":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), cmd))
		obj, err := heap.NewText(ctx, text)
		if err != nil {
			return "", err
		}
		return s.track(obj), nil

	case "newbytes":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: newbytes <hex>")
		}
		data, err := hex.DecodeString(args[0])
		if err != nil {
			return "", fmt.Errorf("decode hex: %w", err)
		}
		obj, err := heap.NewBytes(ctx, data)
		if err != nil {
			return "", err
		}
		return s.track(obj), nil

	case "text", "bytes", "header":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: %s <ptr>", cmd)
		}
		ptr, err := s.pointer(args[0])
		if err != nil {
			return "", err
		}
		return describe(heap, cmd, ptr)

	case "pin", "unpin", "release":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: %s <#handle>", cmd)
		}
		id, obj, err := s.handle(args[0])
		if err != nil {
			return "", err
		}
		switch cmd {
		case "pin":
			_, err = obj.Pin(ctx)
		case "unpin":
			_, err = obj.Unpin(ctx)
		default:
			obj.Release(ctx)
			s.handles[id] = nil
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("#%d %s", id, pastTense[cmd]), nil

	case "handles":
		var b strings.Builder
		for id, obj := range s.handles {
			if obj == nil {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(formatHandle(id, obj))
		}
		if b.Len() == 0 {
			return "no live handles", nil
		}
		return b.String(), nil

	case "collect":
		if err := s.inst.Collect(ctx); err != nil {
			return "", err
		}
		return "collected", nil

	case "call":
		if len(args) == 0 {
			return "", fmt.Errorf("usage: call <fn> [args]")
		}
		params := make([]uint64, len(args)-1)
		for i, arg := range args[1:] {
			v, err := s.pointer(arg)
			if err != nil {
				return "", err
			}
			params[i] = v
		}
		res, err := s.inst.Call(ctx, args[0], params...)
		if err != nil {
			return "", err
		}
		return fmt.Sprint(res), nil

	case "calltext":
		if len(args) == 0 {
			return "", fmt.Errorf("usage: calltext <fn> [args]")
		}
		res, err := s.inst.CallText(ctx, args[0], args[1:]...)
		if err != nil {
			return "", err
		}
		return strconv.Quote(res), nil
	}

	return "", fmt.Errorf("unknown command %q (try help)", cmd)
}

var pastTense = map[string]string{
	"pin":     "pinned",
	"unpin":   "unpinned",
	"release": "released",
}

func (s *session) track(obj *managed.Object) string {
	s.handles = append(s.handles, obj)
	return formatHandle(len(s.handles)-1, obj)
}

func formatHandle(id int, obj *managed.Object) string {
	state := "unpinned"
	if obj.IsPinned() {
		state = "pinned"
	}
	return fmt.Sprintf("#%d %s @0x%x %s", id, obj.Tag(), obj.Pointer(), state)
}

func (s *session) handle(ref string) (int, *managed.Object, error) {
	if !strings.HasPrefix(ref, "#") {
		return 0, nil, fmt.Errorf("expected a #handle, got %q", ref)
	}
	id, err := strconv.Atoi(ref[1:])
	if err != nil || id < 0 || id >= len(s.handles) || s.handles[id] == nil {
		return 0, nil, fmt.Errorf("no live handle %s", ref)
	}
	return id, s.handles[id], nil
}

// pointer resolves a #handle to its address or parses a number.
func (s *session) pointer(ref string) (uint64, error) {
	if strings.HasPrefix(ref, "#") {
		_, obj, err := s.handle(ref)
		if err != nil {
			return 0, err
		}
		return obj.Pointer(), nil
	}
	v, err := strconv.ParseUint(ref, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", ref, err)
	}
	return v, nil
}

// describe renders the object at ptr as text, hex bytes or its header.
func describe(heap *managed.Heap, what string, ptr uint64) (string, error) {
	switch what {
	case "text":
		s, err := heap.ReadText(ptr)
		if err != nil {
			return "", err
		}
		return strconv.Quote(s), nil
	case "bytes":
		b, err := heap.ReadBytes(ptr)
		if err != nil {
			return "", err
		}
		return hex.EncodeToString(b), nil
	default:
		hdr, err := heap.Header(ptr)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s size=%d", hdr.Tag, hdr.Size), nil
	}
}
