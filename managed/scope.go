package managed

import "context"

// WithText allocates s, pins it for the duration of fn and releases it on
// every exit path, panics included.
func (h *Heap) WithText(ctx context.Context, s string, fn func(*Object) error) error {
	obj, err := h.NewText(ctx, s)
	if err != nil {
		return err
	}
	return Pinned(ctx, obj, fn)
}

// WithBytes is WithText for byte buffers.
func (h *Heap) WithBytes(ctx context.Context, b []byte, fn func(*Object) error) error {
	obj, err := h.NewBytes(ctx, b)
	if err != nil {
		return err
	}
	return Pinned(ctx, obj, fn)
}

// Pinned pins obj, runs fn and releases obj afterwards.
func Pinned(ctx context.Context, obj *Object, fn func(*Object) error) error {
	if _, err := obj.Pin(ctx); err != nil {
		return err
	}
	defer obj.Release(ctx)
	return fn(obj)
}
