package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/ascmem"
	"github.com/wippyai/ascmem/errors"
	"github.com/wippyai/ascmem/managed"
)

// WazeroEngine compiles and instantiates guests on one wazero runtime.
type WazeroEngine struct {
	runtime     wazero.Runtime
	logger      *zap.Logger
	cfg         Config
	hostInitMu  sync.Mutex
	hostInitted atomic.Bool
}

// Config holds configuration for engine creation
type Config struct {
	// Logger receives guest trace/abort output and release diagnostics.
	// nil uses Logger().
	Logger *zap.Logger

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// PointerWidth overrides the guest address width. 0 detects it from the
	// signature of the guest's __new export and falls back to 32.
	PointerWidth managed.PointerWidth

	// EnableWASI instantiates wasi_snapshot_preview1 for guests built
	// against WASI.
	EnableWASI bool
}

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	e := &WazeroEngine{}
	if cfg != nil {
		e.cfg = *cfg
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
	}
	if e.cfg.PointerWidth != 0 && e.cfg.PointerWidth != managed.Width32 && e.cfg.PointerWidth != managed.Width64 {
		return nil, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("pointer width must be 32 or 64, got %d", e.cfg.PointerWidth))
	}
	e.logger = e.cfg.Logger
	if e.logger == nil {
		e.logger = Logger()
	}

	e.runtime = wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return e, nil
}

// LoadModule compiles a core WebAssembly module.
func (e *WazeroEngine) LoadModule(ctx context.Context, wasmBytes []byte) (*WazeroModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}
	return &WazeroModule{engine: e, compiled: compiled}, nil
}

func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// initHostModules instantiates the env module (and WASI when enabled) once
// per runtime. Safe for concurrent calls.
func (e *WazeroEngine) initHostModules(ctx context.Context) error {
	if e.hostInitted.Load() {
		return nil
	}

	e.hostInitMu.Lock()
	defer e.hostInitMu.Unlock()

	if e.hostInitted.Load() {
		return nil
	}

	if e.runtime.Module(EnvModule) == nil {
		if err := instantiateEnv(ctx, e.runtime, e.logger); err != nil {
			return errors.Instantiation(fmt.Errorf("env host module: %w", err))
		}
	}
	if e.cfg.EnableWASI && e.runtime.Module(wasi_snapshot_preview1.ModuleName) == nil {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, e.runtime); err != nil {
			return errors.Instantiation(fmt.Errorf("WASI: %w", err))
		}
	}

	e.hostInitted.Store(true)
	return nil
}

// WazeroModule is a compiled WASM module
type WazeroModule struct {
	engine   *WazeroEngine
	compiled wazero.CompiledModule
}

// InstanceConfig holds configuration for module instantiation
type InstanceConfig struct {
	Name string
}

// ExportNames returns the names of the exported functions.
func (m *WazeroModule) ExportNames() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	return names
}

// HasRuntime reports whether the module exports every managed runtime entry point.
func (m *WazeroModule) HasRuntime() bool {
	defs := m.compiled.ExportedFunctions()
	for _, name := range managed.RuntimeExports {
		if _, ok := defs[name]; !ok {
			return false
		}
	}
	return true
}

func (m *WazeroModule) Instantiate(ctx context.Context) (*WazeroInstance, error) {
	return m.InstantiateWithConfig(ctx, nil)
}

// InstantiateWithConfig creates an instance with custom configuration
func (m *WazeroModule) InstantiateWithConfig(ctx context.Context, cfg *InstanceConfig) (*WazeroInstance, error) {
	if err := m.engine.initHostModules(ctx); err != nil {
		return nil, err
	}
	if len(m.compiled.ExportedMemories()) == 0 {
		return nil, errors.NotFound(errors.PhaseRuntime, "exported memory", "memory")
	}

	modConfig := wazero.NewModuleConfig()
	if cfg != nil && cfg.Name != "" {
		modConfig = modConfig.WithName(cfg.Name)
	} else {
		modConfig = modConfig.WithName("") // anonymous for parallel instantiation
	}

	instance, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modConfig)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	mem := exportedMemory(instance)
	if mem == nil {
		_ = instance.Close(ctx)
		return nil, errors.NotFound(errors.PhaseRuntime, "exported memory", "memory")
	}

	exports := make(map[string]ascmem.Function, len(managed.RuntimeExports))
	for _, name := range managed.RuntimeExports {
		if fn := instance.ExportedFunction(name); fn != nil {
			exports[name] = fn
		}
	}

	width := m.engine.cfg.PointerWidth
	if width == 0 {
		width = detectPointerWidth(instance.ExportedFunctionDefinitions()[managed.ExportNew])
	}

	heap, err := managed.NewHeap(NewWazeroMemory(mem), 0,
		managed.WithExports(exports),
		managed.WithPointerWidth(width),
		managed.WithLogger(m.engine.logger),
	)
	if err != nil {
		_ = instance.Close(ctx)
		return nil, err
	}
	if len(exports) < len(managed.RuntimeExports) {
		debugf(m.engine.logger, "guest exports %d of %d runtime entry points; allocation may be unavailable", len(exports), len(managed.RuntimeExports))
	}

	return &WazeroInstance{
		instance: instance,
		memory:   mem,
		heap:     heap,
	}, nil
}

// exportedMemory returns the memory exported as "memory", or the first
// exported memory by name. It returns a nil interface when there is none;
// api.Module.Memory cannot be compared against nil for that.
func exportedMemory(mod api.Module) api.Memory {
	defs := mod.ExportedMemoryDefinitions()
	if len(defs) == 0 {
		return nil
	}
	if _, ok := defs["memory"]; ok {
		return mod.ExportedMemory("memory")
	}
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return mod.ExportedMemory(names[0])
}

// detectPointerWidth reads the guest's address width off the size
// parameter of __new.
func detectPointerWidth(def api.FunctionDefinition) managed.PointerWidth {
	if def == nil {
		return managed.Width32
	}
	return pointerWidthOf(def.ParamTypes())
}

func pointerWidthOf(params []api.ValueType) managed.PointerWidth {
	if len(params) > 0 && params[0] == api.ValueTypeI64 {
		return managed.Width64
	}
	return managed.Width32
}

// WazeroInstance is a running guest with its Heap.
// It is not safe for concurrent use.
type WazeroInstance struct {
	instance api.Module
	memory   api.Memory
	heap     *managed.Heap
}

// Heap returns the Heap bound to this instance's linear memory and runtime exports.
func (i *WazeroInstance) Heap() *managed.Heap {
	return i.heap
}

// GetExportedFunction returns an exported function by name, or nil.
func (i *WazeroInstance) GetExportedFunction(name string) api.Function {
	return i.instance.ExportedFunction(name)
}

// Call invokes an exported function with raw core values.
func (i *WazeroInstance) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn := i.instance.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "export", name)
	}
	res, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, errors.GuestCall(errors.PhaseRuntime, name, err)
	}
	return res, nil
}

// MemorySize returns the current linear memory size in bytes.
func (i *WazeroInstance) MemorySize() uint32 {
	return i.memory.Size()
}

func (i *WazeroInstance) Close(ctx context.Context) error {
	if i.instance == nil {
		return nil
	}
	err := i.instance.Close(ctx)
	i.instance = nil
	return err
}
