// Package ascmem lets a Go host exchange strings and byte buffers with a
// running WebAssembly guest whose memory is managed by a garbage collector
// that prefixes every object with a runtime header.
//
// # Architecture Overview
//
//	ascmem/           Root package with the Memory and Function contracts
//	├── managed/      Guest object headers, Heap (read/allocate) and Object (pin/unpin)
//	├── engine/       wazero integration: engine, instance, memory adapter, env host module
//	├── runtime/      High-level API for loading guests and calling string exports
//	├── errors/       Structured error types
//	└── cmd/run/      Command line tool and interactive console
//
// # Guest Object Header
//
// Every managed allocation is preceded by two little-endian u32 fields:
//
//	ptr-8  rtId    0 = ArrayBuffer, 1 = String (UTF-16LE)
//	ptr-4  rtSize  payload length in bytes
//
// # Quick Start
//
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
// # Pinning
//
// Objects allocated by the host are unreachable from the guest until the
// guest stores them somewhere. Pin them before any call that may trigger a
// collection and release them when done:
//
//	err := heap.WithText(ctx, "hello", func(obj *managed.Object) error {
//	    _, err := inst.Call(ctx, "consume", obj.Pointer())
//	    return err
//	})
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. Instance, Heap and Object
// are NOT thread-safe: a guest instance executes one call at a time and
// callers must serialize access.
package ascmem
