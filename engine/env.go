package engine

import (
	"context"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/ascmem/errors"
	"github.com/wippyai/ascmem/managed"
)

// EnvModule is the import namespace the guest toolchain uses for its
// runtime hooks.
const EnvModule = "env"

// instantiateEnv registers abort, trace and seed.
func instantiateEnv(ctx context.Context, rt wazero.Runtime, log *zap.Logger) error {
	_, err := rt.NewHostModuleBuilder(EnvModule).
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, msg, file, line, col uint32) {
			text := readGuestText(log, m, msg)
			where := readGuestText(log, m, file)
			log.Error("guest abort",
				zap.String("message", text),
				zap.String("file", where),
				zap.Uint32("line", line),
				zap.Uint32("column", col))
			panic(errors.GuestAbort(text, where, line, col))
		}).
		WithParameterNames("message", "fileName", "lineNumber", "columnNumber").
		Export("abort").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, msg uint32, n int32, a0, a1, a2, a3, a4 float64) {
			args := []float64{a0, a1, a2, a3, a4}
			if n < 0 {
				n = 0
			}
			if int(n) < len(args) {
				args = args[:n]
			}
			log.Info("guest trace",
				zap.String("message", readGuestText(log, m, msg)),
				zap.Float64s("args", args))
		}).
		WithParameterNames("message", "n", "a0", "a1", "a2", "a3", "a4").
		Export("trace").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context) float64 {
			return float64(time.Now().UnixNano())
		}).
		Export("seed").
		Instantiate(ctx)
	return err
}

// readGuestText decodes a String for diagnostics. Host functions only see
// the calling module, so a read-only Heap is built over its memory.
func readGuestText(log *zap.Logger, m api.Module, ptr uint32) string {
	if ptr == 0 {
		return "<null>"
	}
	mem := exportedMemory(m)
	if mem == nil {
		return "<no memory>"
	}
	heap, err := managed.NewHeap(NewWazeroMemory(mem), 0)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	s, err := heap.ReadText(uint64(ptr))
	if err != nil {
		debugf(log, "read guest text at 0x%x: %v", ptr, err)
		return "<unreadable>"
	}
	return s
}
