package runtime

import (
	"context"
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/wippyai/ascmem/engine"
	"github.com/wippyai/ascmem/errors"
	"github.com/wippyai/ascmem/managed"
)

type Runtime struct {
	engine *engine.WazeroEngine
}

type options struct {
	logger           *zap.Logger
	memoryLimitPages uint32
	pointerWidth     managed.PointerWidth
	wasi             bool
}

// Option configures a Runtime.
type Option func(*options)

// WithMemoryLimitPages caps linear memory per instance, in 64KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(o *options) { o.memoryLimitPages = pages }
}

// WithPointerWidth forces the guest address width instead of detecting it
// from the guest's __new export.
func WithPointerWidth(w managed.PointerWidth) Option {
	return func(o *options) { o.pointerWidth = w }
}

// WithLogger routes guest trace/abort output and release diagnostics to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithWASI makes wasi_snapshot_preview1 available to guests.
func WithWASI() Option {
	return func(o *options) { o.wasi = true }
}

func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	eng, err := engine.NewWazeroEngineWithConfig(ctx, &engine.Config{
		Logger:           o.logger,
		MemoryLimitPages: o.memoryLimitPages,
		PointerWidth:     o.pointerWidth,
		EnableWASI:       o.wasi,
	})
	if err != nil {
		return nil, err
	}

	return &Runtime{engine: eng}, nil
}

// Close releases all runtime resources.
// All instances must be closed before calling this.
func (r *Runtime) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}

// Load compiles a core WebAssembly module. Component binaries are rejected.
func (r *Runtime) Load(ctx context.Context, wasm []byte) (*Module, error) {
	if isComponent(wasm) {
		return nil, errors.InvalidInput(errors.PhaseLoad, "component binaries are not supported; load a core module")
	}

	wazeroModule, err := r.engine.LoadModule(ctx, wasm)
	if err != nil {
		return nil, err
	}

	return &Module{wazeroModule: wazeroModule}, nil
}

func isComponent(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	if data[0] != 0x00 || data[1] != 0x61 || data[2] != 0x73 || data[3] != 0x6D {
		return false
	}
	return binary.LittleEndian.Uint32(data[4:8]) > 1
}
