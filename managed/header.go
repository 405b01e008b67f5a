package managed

import (
	"encoding/binary"
	"fmt"
)

// Tag is the runtime id stored in an object header.
type Tag uint32

const (
	TagBuffer Tag = 0 // ArrayBuffer
	TagText   Tag = 1 // String, UTF-16LE
)

func (t Tag) String() string {
	switch t {
	case TagBuffer:
		return "buffer"
	case TagText:
		return "text"
	default:
		return fmt.Sprintf("rtId(%d)", uint32(t))
	}
}

// HeaderSize is the number of header bytes read in front of a payload.
const HeaderSize = 8

// Field offsets relative to the start of the header (ptr - HeaderSize).
const (
	idField   = 0
	sizeField = 4
)

// Header is the decoded runtime header of a guest object.
type Header struct {
	Tag  Tag
	Size uint32
}

func decodeHeader(b []byte) Header {
	return Header{
		Tag:  Tag(binary.LittleEndian.Uint32(b[idField:])),
		Size: binary.LittleEndian.Uint32(b[sizeField:]),
	}
}

// EncodeHeader returns the wire form of h.
func EncodeHeader(h Header) []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[idField:], uint32(h.Tag))
	binary.LittleEndian.PutUint32(b[sizeField:], h.Size)
	return b
}
