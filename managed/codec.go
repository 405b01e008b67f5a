package managed

import (
	"encoding/binary"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/wippyai/ascmem/errors"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeText strictly decodes UTF-16LE. The x/text decoder substitutes
// U+FFFD for broken input, so the code units are validated first.
func decodeText(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", errors.DecodeFailure(errors.PhaseRead, "odd UTF-16 byte length", b)
	}
	if err := validateUTF16(b); err != nil {
		return "", err
	}
	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Wrap(errors.PhaseRead, errors.KindDecodeFailure, err, "decode UTF-16LE")
	}
	return string(out), nil
}

func validateUTF16(b []byte) error {
	for i := 0; i < len(b); i += 2 {
		u := binary.LittleEndian.Uint16(b[i:])
		switch {
		case u >= 0xDC00 && u <= 0xDFFF:
			return errors.DecodeFailure(errors.PhaseRead, "unpaired low surrogate", b[i:])
		case u >= 0xD800 && u <= 0xDBFF:
			if i+4 > len(b) {
				return errors.DecodeFailure(errors.PhaseRead, "truncated surrogate pair", b[i:])
			}
			lo := binary.LittleEndian.Uint16(b[i+2:])
			if lo < 0xDC00 || lo > 0xDFFF {
				return errors.DecodeFailure(errors.PhaseRead, "unpaired high surrogate", b[i:])
			}
			i += 2
		}
	}
	return nil
}

func encodeText(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, errors.DecodeFailure(errors.PhaseEncode, "invalid UTF-8 input", []byte(s))
	}
	out, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindDecodeFailure, err, "encode UTF-16LE")
	}
	return out, nil
}
