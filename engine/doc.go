// Package engine runs managed-memory guests on wazero.
//
// # Architecture
//
//	WazeroEngine   - owns a wazero runtime and the env host module
//	WazeroModule   - a compiled core module
//	WazeroInstance - a running guest with a managed.Heap bound to its memory
//
// # Instantiation Flow
//
//  1. WazeroEngine.LoadModule() compiles the binary
//  2. WazeroModule.Instantiate() instantiates env (once per runtime) and the guest
//  3. The instance looks up memory and the __new, __pin, __unpin and __collect
//     exports and builds a managed.Heap with base 0
//
// # Pointer Width
//
// The guest's address width comes from Config.PointerWidth or, when unset,
// from the first parameter type of __new: i64 means a 64-bit guest. The host
// process width plays no part.
//
// # Host Functions
//
// The env module provides what the guest toolchain imports by default:
//
//	abort(message, fileName, line, column)  decodes both strings and fails the call
//	trace(message, n, a0..a4)               logs the message and n numeric args
//	seed() f64                              time-based seed for Math.random
//
// abort surfaces to the caller as an error matching errors.ErrGuestAbort.
package engine
