package managed

import (
	"context"
	"fmt"

	"github.com/wippyai/ascmem"
)

// flatMemory is a host memory region starting at base.
type flatMemory struct {
	data   []byte
	base   uint64
	writes int
}

func newFlatMemory(base uint64, size int) *flatMemory {
	return &flatMemory{base: base, data: make([]byte, size)}
}

func (m *flatMemory) span(addr uint64, n uint32) (uint64, error) {
	if addr < m.base || addr-m.base+uint64(n) > uint64(len(m.data)) {
		return 0, fmt.Errorf("address 0x%x+%d outside [0x%x, 0x%x)", addr, n, m.base, m.base+uint64(len(m.data)))
	}
	return addr - m.base, nil
}

func (m *flatMemory) Read(addr uint64, length uint32) ([]byte, error) {
	off, err := m.span(addr, length)
	if err != nil {
		return nil, err
	}
	return m.data[off : off+uint64(length)], nil
}

func (m *flatMemory) Write(addr uint64, data []byte) error {
	off, err := m.span(addr, uint32(len(data)))
	if err != nil {
		return err
	}
	m.writes++
	copy(m.data[off:], data)
	return nil
}

// place lays out an object at guest offset ptr without counting as a host write.
func (m *flatMemory) place(ptr uint64, tag Tag, payload []byte) {
	copy(m.data[ptr-HeaderSize:], EncodeHeader(Header{Tag: tag, Size: uint32(len(payload))}))
	copy(m.data[ptr:], payload)
}

// fakeGuest implements the runtime exports over a flatMemory with a bump
// allocator, recording every call.
type fakeGuest struct {
	mem      *flatMemory
	calls    []string
	pins     map[uint64]int
	next     uint64
	allocErr error
	unpinErr error
	nullPtr  bool
}

func newFakeGuest(mem *flatMemory) *fakeGuest {
	return &fakeGuest{mem: mem, next: 64, pins: make(map[uint64]int)}
}

func (g *fakeGuest) exports() map[string]ascmem.Function {
	return map[string]ascmem.Function{
		ExportNew:     ascmem.FunctionFunc(g.alloc),
		ExportPin:     ascmem.FunctionFunc(g.pin),
		ExportUnpin:   ascmem.FunctionFunc(g.unpin),
		ExportCollect: ascmem.FunctionFunc(g.collect),
		"memory":      ascmem.FunctionFunc(g.unexpected),
		"main":        ascmem.FunctionFunc(g.unexpected),
	}
}

func (g *fakeGuest) record(name string, params ...uint64) {
	g.calls = append(g.calls, fmt.Sprintf("%s%v", name, params))
}

func (g *fakeGuest) count(name string) int {
	n := 0
	prefix := name + "["
	for _, c := range g.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (g *fakeGuest) alloc(_ context.Context, params ...uint64) ([]uint64, error) {
	g.record(ExportNew, params...)
	if g.allocErr != nil {
		return nil, g.allocErr
	}
	if g.nullPtr {
		return []uint64{0}, nil
	}
	size, id := params[0], params[1]
	ptr := g.next + HeaderSize
	copy(g.mem.data[ptr-HeaderSize:], EncodeHeader(Header{Tag: Tag(id), Size: uint32(size)}))
	g.next = (ptr + size + 7) &^ 7
	return []uint64{ptr}, nil
}

func (g *fakeGuest) pin(_ context.Context, params ...uint64) ([]uint64, error) {
	g.record(ExportPin, params...)
	g.pins[params[0]]++
	return []uint64{params[0]}, nil
}

func (g *fakeGuest) unpin(_ context.Context, params ...uint64) ([]uint64, error) {
	g.record(ExportUnpin, params...)
	if g.unpinErr != nil {
		return nil, g.unpinErr
	}
	g.pins[params[0]]--
	return nil, nil
}

func (g *fakeGuest) collect(_ context.Context, params ...uint64) ([]uint64, error) {
	g.record(ExportCollect, params...)
	return nil, nil
}

func (g *fakeGuest) unexpected(_ context.Context, params ...uint64) ([]uint64, error) {
	panic("non-runtime export called")
}
