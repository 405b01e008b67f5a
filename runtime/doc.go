// Package runtime provides the high-level API for hosting guests whose
// strings and byte buffers live on a garbage-collected heap.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.Load(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	greeting, err := inst.CallText(ctx, "greet", "World")
//
// # Calling Exports
//
//	Call(ctx, name, raw...)       - core values in and out
//	CallText(ctx, name, s...)     - String arguments and result
//	CallBytes(ctx, name, b...)    - ArrayBuffer arguments and result
//
// The text and bytes helpers pin every argument for the duration of the
// call and unpin them afterwards, including when the call traps.
//
// For finer control use Instance.Heap directly:
//
//	err := inst.Heap().WithText(ctx, "payload", func(obj *managed.Object) error {
//	    _, err := inst.Call(ctx, "consume", obj.Pointer())
//	    return err
//	})
//
// # Guest Runtime Hooks
//
// Guests built by the managed toolchain import env.abort, env.trace and
// env.seed. The runtime provides all three; abort fails the current call
// with an error matching errors.ErrGuestAbort. Pass WithWASI for guests
// built against WASI preview1.
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. You can call
// Module.Instantiate() from multiple goroutines concurrently.
//
// Instance is NOT thread-safe. Each goroutine should have its own
// Instance, or access must be synchronized externally.
//
// # Resource Management
//
// Always close instances when done. Objects obtained from an instance's
// heap must be released before the instance is closed.
package runtime
