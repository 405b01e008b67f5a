package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/ascmem"
)

// WazeroMemory exposes wazero linear memory as ascmem.Memory. Host
// addresses equal guest offsets, so a Heap over it uses base 0.
// A WazeroMemory without an underlying memory fails every access.
var errNoMemory = errors.New("guest has no exported memory")

type WazeroMemory struct {
	mem api.Memory
}

func NewWazeroMemory(mem api.Memory) *WazeroMemory {
	return &WazeroMemory{mem: mem}
}

func (m *WazeroMemory) Read(addr uint64, length uint32) ([]byte, error) {
	if m.mem == nil {
		return nil, errNoMemory
	}
	if addr > math.MaxUint32 {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", addr, length)
	}
	data, ok := m.mem.Read(uint32(addr), length)
	if !ok {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", addr, length)
	}
	return data, nil
}

func (m *WazeroMemory) Write(addr uint64, data []byte) error {
	if m.mem == nil {
		return errNoMemory
	}
	if addr > math.MaxUint32 {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", addr, len(data))
	}
	if !m.mem.Write(uint32(addr), data) {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", addr, len(data))
	}
	return nil
}

func (m *WazeroMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Compile-time check that WazeroMemory implements ascmem.Memory
var _ ascmem.Memory = (*WazeroMemory)(nil)

// Compile-time check that wazero exports satisfy ascmem.Function
var _ ascmem.Function = (api.Function)(nil)
