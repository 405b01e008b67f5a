// Package managed reads and allocates garbage-collected guest objects.
//
// A Heap wraps one guest instance: the host address of its linear memory
// and, optionally, the runtime exports __new, __pin, __unpin and __collect.
// Without the exports only reads work.
//
// # Object Layout
//
//	        ptr-8        ptr-4         ptr
//	... | rtId (u32) | rtSize (u32) | payload (rtSize bytes) ...
//
// rtId 0 is an ArrayBuffer and rtId 1 a String stored as UTF-16LE.
//
// # Object Lifecycle
//
// Heap.NewText and Heap.NewBytes call __new and copy the payload in. The
// returned Object starts unpinned; the guest collector may free it at the
// next collection unless it is pinned or referenced from guest memory.
//
//	obj, err := heap.NewText(ctx, "hello")
//	if err != nil {
//	    return err
//	}
//	if _, err := obj.Pin(ctx); err != nil {
//	    return err
//	}
//	defer obj.Release(ctx)
//
// Release unpins a pinned object and never fails. Heap.WithText and
// Heap.WithBytes combine the three steps.
//
// An Object only tracks its own last pin call. If the guest runtime drops
// pins on its own, IsPinned does not notice.
package managed
