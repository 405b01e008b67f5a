package ascmem

import "context"

// Memory is the host's raw view of a guest instance's linear memory.
// Addresses are host addresses: the guest's memory base plus a relative pointer.
type Memory interface {
	Read(addr uint64, length uint32) ([]byte, error)
	Write(addr uint64, data []byte) error
}

// Function is a callable guest export.
// wazero's api.Function satisfies it.
type Function interface {
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

// FunctionFunc adapts a plain Go function to Function.
type FunctionFunc func(ctx context.Context, params ...uint64) ([]uint64, error)

func (f FunctionFunc) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	return f(ctx, params...)
}
