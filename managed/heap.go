package managed

import (
	"bytes"
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/ascmem"
	"github.com/wippyai/ascmem/errors"
)

// Runtime exports a guest provides when built with its runtime exported.
const (
	ExportNew     = "__new"
	ExportPin     = "__pin"
	ExportUnpin   = "__unpin"
	ExportCollect = "__collect"
)

// RuntimeExports lists the export names a Heap picks from an export table.
var RuntimeExports = []string{ExportNew, ExportPin, ExportUnpin, ExportCollect}

type runtimeExports struct {
	alloc   ascmem.Function
	pin     ascmem.Function
	unpin   ascmem.Function
	collect ascmem.Function
}

// Heap reads and allocates objects in one guest instance.
// It is not safe for concurrent use.
type Heap struct {
	mem     ascmem.Memory
	logger  *zap.Logger
	exports runtimeExports
	base    uint64
	width   PointerWidth
}

// NewHeap creates a Heap over mem, where base is the host address of guest
// offset 0.
func NewHeap(mem ascmem.Memory, base uint64, opts ...Option) (*Heap, error) {
	if mem == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "memory is nil")
	}
	h := &Heap{
		mem:   mem,
		base:  base,
		width: Width32,
	}
	for _, opt := range opts {
		opt(h)
	}
	if !h.width.valid() {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(h.width).
			Detail("pointer width must be 32 or 64, got %d", h.width).
			Build()
	}
	if !h.width.fits(base) {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(base).
			Detail("memory base 0x%x exceeds %d-bit address space", base, h.width).
			Build()
	}
	if h.logger == nil {
		h.logger = Logger()
	}
	return h, nil
}

// Base returns the host address of guest offset 0.
func (h *Heap) Base() uint64 { return h.base }

// PointerWidth returns the guest address width.
func (h *Heap) PointerWidth() PointerWidth { return h.width }

// HasExport reports whether the named runtime export is available.
func (h *Heap) HasExport(name string) bool {
	return h.export(name) != nil
}

func (h *Heap) export(name string) ascmem.Function {
	switch name {
	case ExportNew:
		return h.exports.alloc
	case ExportPin:
		return h.exports.pin
	case ExportUnpin:
		return h.exports.unpin
	case ExportCollect:
		return h.exports.collect
	}
	return nil
}

func (h *Heap) addr(ptr uint64) uint64 {
	return h.width.wrap(h.base + ptr)
}

// Header decodes the header of the object at ptr without checking its tag.
func (h *Heap) Header(ptr uint64) (Header, error) {
	hdr, _, err := h.header(ptr)
	return hdr, err
}

func (h *Heap) header(ptr uint64) (Header, uint64, error) {
	if !h.width.fits(ptr) {
		return Header{}, 0, errors.New(errors.PhaseRead, errors.KindOutOfBounds).
			Value(ptr).
			Detail("pointer 0x%x does not fit a %d-bit guest", ptr, h.width).
			Build()
	}
	if ptr < HeaderSize {
		return Header{}, 0, errors.New(errors.PhaseRead, errors.KindOutOfBounds).
			Value(ptr).
			Detail("pointer 0x%x leaves no room for an object header", ptr).
			Build()
	}
	addr := h.addr(ptr)
	hdrAddr := h.addr(ptr - HeaderSize)
	raw, err := h.mem.Read(hdrAddr, HeaderSize)
	if err != nil {
		return Header{}, 0, errors.OutOfBounds(errors.PhaseRead, hdrAddr, HeaderSize, err)
	}
	return decodeHeader(raw), addr, nil
}

// payload validates the header tag and returns a view of the payload bytes.
func (h *Heap) payload(ptr uint64, want Tag) ([]byte, error) {
	hdr, addr, err := h.header(ptr)
	if err != nil {
		return nil, err
	}
	if hdr.Tag != want {
		return nil, errors.HeaderMismatch(addr, uint32(hdr.Tag), uint32(want))
	}
	if hdr.Size == 0 {
		return []byte{}, nil
	}
	data, err := h.mem.Read(addr, hdr.Size)
	if err != nil {
		return nil, errors.OutOfBounds(errors.PhaseRead, addr, hdr.Size, err)
	}
	return data, nil
}

// ReadText decodes the String object at ptr.
func (h *Heap) ReadText(ptr uint64) (string, error) {
	data, err := h.payload(ptr, TagText)
	if err != nil {
		return "", err
	}
	return decodeText(data)
}

// ReadBytes returns a copy of the ArrayBuffer object at ptr.
func (h *Heap) ReadBytes(ptr uint64) ([]byte, error) {
	data, err := h.payload(ptr, TagBuffer)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

// NewText allocates a String object holding s.
func (h *Heap) NewText(ctx context.Context, s string) (*Object, error) {
	if h.exports.alloc == nil {
		return nil, errors.MissingExport(errors.PhaseAlloc, ExportNew)
	}
	data, err := encodeText(s)
	if err != nil {
		return nil, err
	}
	return h.allocate(ctx, data, TagText)
}

// NewBytes allocates an ArrayBuffer object holding a copy of b.
func (h *Heap) NewBytes(ctx context.Context, b []byte) (*Object, error) {
	return h.allocate(ctx, b, TagBuffer)
}

func (h *Heap) allocate(ctx context.Context, data []byte, tag Tag) (*Object, error) {
	if h.exports.alloc == nil {
		return nil, errors.MissingExport(errors.PhaseAlloc, ExportNew)
	}
	if uint64(len(data)) > math.MaxUint32 {
		return nil, errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Value(len(data)).
			Detail("payload of %d bytes exceeds u32 size field", len(data)).
			Build()
	}

	res, err := h.exports.alloc.Call(ctx, uint64(len(data)), uint64(tag))
	if err != nil {
		return nil, errors.GuestCall(errors.PhaseAlloc, ExportNew, err)
	}
	if len(res) == 0 {
		return nil, errors.New(errors.PhaseAlloc, errors.KindGuestCall).
			Export(ExportNew).
			Detail("allocator returned no result").
			Build()
	}
	ptr := h.width.wrap(res[0])
	if ptr == 0 {
		return nil, errors.New(errors.PhaseAlloc, errors.KindGuestCall).
			Export(ExportNew).
			Value(len(data)).
			Detail("allocator returned null for %d bytes", len(data)).
			Build()
	}

	if len(data) > 0 {
		addr := h.addr(ptr)
		if err := h.mem.Write(addr, data); err != nil {
			return nil, errors.OutOfBounds(errors.PhaseAlloc, addr, uint32(len(data)), err)
		}
	}
	return &Object{heap: h, ptr: ptr, tag: tag}, nil
}

// RunCollect runs a full guest garbage collection.
func (h *Heap) RunCollect(ctx context.Context) error {
	if h.exports.collect == nil {
		return errors.MissingExport(errors.PhaseCollect, ExportCollect)
	}
	if _, err := h.exports.collect.Call(ctx); err != nil {
		return errors.GuestCall(errors.PhaseCollect, ExportCollect, err)
	}
	return nil
}

func (h *Heap) pin(ctx context.Context, ptr uint64) error {
	if h.exports.pin == nil {
		return errors.MissingExport(errors.PhasePin, ExportPin)
	}
	if _, err := h.exports.pin.Call(ctx, ptr); err != nil {
		return errors.GuestCall(errors.PhasePin, ExportPin, err)
	}
	return nil
}

func (h *Heap) unpin(ctx context.Context, ptr uint64) error {
	if h.exports.unpin == nil {
		return errors.MissingExport(errors.PhasePin, ExportUnpin)
	}
	if _, err := h.exports.unpin.Call(ctx, ptr); err != nil {
		return errors.GuestCall(errors.PhasePin, ExportUnpin, err)
	}
	return nil
}
