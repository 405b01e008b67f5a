package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/ascmem/managed"
	"github.com/wippyai/ascmem/runtime"
)

const (
	// Environment variables are named ASCMEM_<FLAG>, e.g. ASCMEM_LOG_LEVEL.
	envPrefix = "ASCMEM"

	keyConfig            = "config"
	flagLogLevel         = "log-level"
	flagMemoryLimitPages = "memory-limit-pages"
	flagPointerWidth     = "pointer-width"
	flagWASI             = "wasi"
)

type config struct {
	LogLevel         string `validate:"oneof=debug info warn error"`
	MemoryLimitPages uint32 `validate:"lte=65536"`
	PointerWidth     uint   `validate:"oneof=0 32 64"`
	WASI             bool
}

var validate = validator.New()

// app carries state shared by every subcommand.
type app struct {
	cfgFile string
	cfg     config
	logger  *zap.Logger
}

func (a *app) addFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, keyConfig, "", "YAML config file; keys match flag names")
	pf.String(flagLogLevel, "warn", "logging level, one of: debug, info, warn, error")
	pf.Uint32(flagMemoryLimitPages, 0, "max linear memory per instance in 64KiB pages (0 = engine default)")
	pf.Uint(flagPointerWidth, 0, "guest pointer width, 32 or 64 (0 = detect from __new)")
	pf.Bool(flagWASI, false, "provide wasi_snapshot_preview1 to the guest")
}

func (a *app) initialize(cmd *cobra.Command) error {
	if err := a.initializeConfig(cmd); err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}
	logger, err := newLogger(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	a.logger = logger
	return nil
}

// initializeConfig layers flags over environment over the config file and
// validates the result.
func (a *app) initializeConfig(cmd *cobra.Command) error {
	v := viper.New()

	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := bindFlags(cmd, v); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	cfg, err := configFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if err := validate.Struct(&cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	return nil
}

// bindFlags applies config file and environment values to every flag the
// user did not set on the command line.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindFlagErr []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == keyConfig {
			return
		}

		// --log-level binds to ASCMEM_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				bindFlagErr = append(bindFlagErr, fmt.Errorf("binding env to flag %q: %w", f.Name, err))
				return
			}
		}

		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				bindFlagErr = append(bindFlagErr, fmt.Errorf("setting flag %q value: %w", f.Name, err))
				return
			}
		}
	})

	return errors.Join(bindFlagErr...)
}

func configFromFlags(flags *pflag.FlagSet) (config, error) {
	var (
		cfg  config
		errs []error
		err  error
	)
	if cfg.LogLevel, err = flags.GetString(flagLogLevel); err != nil {
		errs = append(errs, err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.MemoryLimitPages, err = flags.GetUint32(flagMemoryLimitPages); err != nil {
		errs = append(errs, err)
	}
	if cfg.PointerWidth, err = flags.GetUint(flagPointerWidth); err != nil {
		errs = append(errs, err)
	}
	if cfg.WASI, err = flags.GetBool(flagWASI); err != nil {
		errs = append(errs, err)
	}
	return cfg, errors.Join(errs...)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.DisableStacktrace = true
	return zcfg.Build()
}

func (a *app) runtimeOptions() []runtime.Option {
	opts := []runtime.Option{
		runtime.WithMemoryLimitPages(a.cfg.MemoryLimitPages),
		runtime.WithPointerWidth(managed.PointerWidth(a.cfg.PointerWidth)),
	}
	if a.logger != nil {
		opts = append(opts, runtime.WithLogger(a.logger))
	}
	if a.cfg.WASI {
		opts = append(opts, runtime.WithWASI())
	}
	return opts
}
