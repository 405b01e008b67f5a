package managed

import (
	"go.uber.org/zap"

	"github.com/wippyai/ascmem"
)

// Option configures a Heap.
type Option func(*Heap)

// WithExports supplies the guest's export table. Only the runtime entry
// points __new, __pin, __unpin and __collect are kept; nil entries count as
// absent.
func WithExports(exports map[string]ascmem.Function) Option {
	return func(h *Heap) {
		h.exports = selectExports(exports)
	}
}

// WithPointerWidth sets the guest address width. Defaults to Width32.
func WithPointerWidth(w PointerWidth) Option {
	return func(h *Heap) {
		h.width = w
	}
}

// WithLogger sets the logger for release-time diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(h *Heap) {
		h.logger = l
	}
}

func selectExports(exports map[string]ascmem.Function) runtimeExports {
	var re runtimeExports
	for _, name := range RuntimeExports {
		fn, ok := exports[name]
		if !ok || fn == nil {
			continue
		}
		switch name {
		case ExportNew:
			re.alloc = fn
		case ExportPin:
			re.pin = fn
		case ExportUnpin:
			re.unpin = fn
		case ExportCollect:
			re.collect = fn
		}
	}
	return re
}
