package managed

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/ascmem/errors"
)

// Object is a host handle to a guest object allocated through a Heap.
// The Heap must outlive every Object it returned.
type Object struct {
	heap   *Heap
	ptr    uint64
	tag    Tag
	pinned bool
}

// Pointer returns the object's guest-relative address.
func (o *Object) Pointer() uint64 { return o.ptr }

// Tag returns the runtime id the object was allocated with.
func (o *Object) Tag() Tag { return o.tag }

// IsPinned reports the last pin state set through this handle.
func (o *Object) IsPinned() bool { return o.pinned }

// Pin marks the object as a collector root. Pinning twice is an error.
func (o *Object) Pin(ctx context.Context) (*Object, error) {
	if o.pinned {
		return nil, errors.PinState(o.ptr, true)
	}
	if err := o.heap.pin(ctx, o.ptr); err != nil {
		return nil, err
	}
	o.pinned = true
	return o, nil
}

// Unpin removes the root added by Pin. Unpinning an unpinned object is an error.
func (o *Object) Unpin(ctx context.Context) (*Object, error) {
	if !o.pinned {
		return nil, errors.PinState(o.ptr, false)
	}
	if err := o.heap.unpin(ctx, o.ptr); err != nil {
		return nil, err
	}
	o.pinned = false
	return o, nil
}

// Release unpins the object if it is pinned. It never fails: an unpin
// error is logged and dropped. Safe to call more than once.
func (o *Object) Release(ctx context.Context) {
	if !o.pinned {
		return
	}
	o.pinned = false
	if err := o.heap.unpin(ctx, o.ptr); err != nil {
		o.heap.logger.Warn("release: unpin failed",
			zap.Uint64("ptr", o.ptr),
			zap.Stringer("tag", o.tag),
			zap.Error(err))
	}
}

// Close releases the object with a background context. It always returns nil.
func (o *Object) Close() error {
	o.Release(context.Background())
	return nil
}
