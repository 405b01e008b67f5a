package managed

import (
	"bytes"
	"testing"
)

func TestHeader_Wire(t *testing.T) {
	tests := []struct {
		name string
		hdr  Header
		wire []byte
	}{
		{"text", Header{Tag: TagText, Size: 4}, []byte{1, 0, 0, 0, 4, 0, 0, 0}},
		{"buffer", Header{Tag: TagBuffer, Size: 0x01020304}, []byte{0, 0, 0, 0, 4, 3, 2, 1}},
		{"custom class", Header{Tag: 42, Size: 0}, []byte{42, 0, 0, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeHeader(tt.hdr); !bytes.Equal(got, tt.wire) {
				t.Errorf("EncodeHeader() = %x, want %x", got, tt.wire)
			}
			if got := decodeHeader(tt.wire); got != tt.hdr {
				t.Errorf("decodeHeader() = %+v, want %+v", got, tt.hdr)
			}
		})
	}
}

func TestTag_String(t *testing.T) {
	if TagBuffer.String() != "buffer" || TagText.String() != "text" {
		t.Errorf("unexpected names %q %q", TagBuffer, TagText)
	}
}

func TestPointerWidth(t *testing.T) {
	if !Width32.fits(0xFFFF_FFFF) || Width32.fits(1<<32) {
		t.Error("Width32.fits boundary")
	}
	if !Width64.fits(1 << 63) {
		t.Error("Width64 fits everything")
	}
	if got := Width32.wrap(0x1_0000_0010); got != 0x10 {
		t.Errorf("Width32.wrap = 0x%x, want 0x10", got)
	}
	if got := Width64.wrap(0x1_0000_0010); got != 0x1_0000_0010 {
		t.Errorf("Width64.wrap = 0x%x", got)
	}
	if PointerWidth(16).valid() {
		t.Error("16-bit pointers are not a wasm target")
	}
}
