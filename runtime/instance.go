package runtime

import (
	"context"
	"fmt"

	"github.com/wippyai/ascmem/engine"
	"github.com/wippyai/ascmem/errors"
	"github.com/wippyai/ascmem/managed"
)

// Instance is a running guest. It is not safe for concurrent use.
type Instance struct {
	wazeroInstance *engine.WazeroInstance
}

// Heap returns the managed heap of this instance.
func (i *Instance) Heap() *managed.Heap {
	return i.wazeroInstance.Heap()
}

// Call invokes an exported function with raw core values.
func (i *Instance) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	return i.wazeroInstance.Call(ctx, name, params...)
}

// CallText passes each argument as a guest String and decodes the String
// the export returns. A null result decodes to "".
func (i *Instance) CallText(ctx context.Context, name string, args ...string) (string, error) {
	heap := i.Heap()
	return callManaged(ctx, i, name, args, heap.NewText, heap.ReadText)
}

// CallBytes passes each argument as a guest ArrayBuffer and returns a copy
// of the ArrayBuffer the export returns. A null result decodes to nil.
func (i *Instance) CallBytes(ctx context.Context, name string, args ...[]byte) ([]byte, error) {
	heap := i.Heap()
	return callManaged(ctx, i, name, args, heap.NewBytes, heap.ReadBytes)
}

// callManaged allocates every argument, keeps each pinned until the call
// returns so later allocations cannot collect earlier ones, and releases
// all of them on every exit path.
func callManaged[T any](
	ctx context.Context,
	i *Instance,
	name string,
	args []T,
	alloc func(context.Context, T) (*managed.Object, error),
	read func(uint64) (T, error),
) (T, error) {
	var zero T

	objs := make([]*managed.Object, 0, len(args))
	defer func() {
		for _, obj := range objs {
			obj.Release(ctx)
		}
	}()

	params := make([]uint64, 0, len(args))
	for n, arg := range args {
		obj, err := alloc(ctx, arg)
		if err != nil {
			return zero, errors.New(errors.PhaseRuntime, errors.KindGuestCall).
				Export(name).
				Detail("argument %d", n).
				Cause(err).
				Build()
		}
		objs = append(objs, obj)
		if _, err := obj.Pin(ctx); err != nil {
			return zero, err
		}
		params = append(params, obj.Pointer())
	}

	res, err := i.Call(ctx, name, params...)
	if err != nil {
		return zero, err
	}
	if len(res) == 0 {
		return zero, errors.InvalidInput(errors.PhaseRuntime, fmt.Sprintf("export %q returned no value", name))
	}
	if res[0] == 0 {
		return zero, nil
	}
	return read(res[0])
}

// Collect asks the guest to run a full garbage collection.
func (i *Instance) Collect(ctx context.Context) error {
	return i.Heap().RunCollect(ctx)
}

// MemorySize returns the current linear memory size in bytes.
func (i *Instance) MemorySize() uint32 {
	return i.wazeroInstance.MemorySize()
}

func (i *Instance) Close(ctx context.Context) error {
	return i.wazeroInstance.Close(ctx)
}
