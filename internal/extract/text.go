package extract

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeText returns content as a string. A byte-order mark selects UTF-16 and
// is dropped; everything else must be valid UTF-8.
func decodeText(content []byte) (string, error) {
	if bytes.HasPrefix(content, bomUTF16LE) || bytes.HasPrefix(content, bomUTF16BE) {
		if !validUTF16(content) {
			return "", ErrInvalidEncoding
		}
		decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), content)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}
	content = bytes.TrimPrefix(content, bomUTF8)
	if !utf8.Valid(content) {
		return "", ErrInvalidEncoding
	}
	return string(content), nil
}

// validUTF16 reports whether content, BOM included, is a whole number of code
// units with every surrogate correctly paired. The decoder would otherwise
// substitute U+FFFD silently.
func validUTF16(content []byte) bool {
	var order binary.ByteOrder = binary.BigEndian
	if bytes.HasPrefix(content, bomUTF16LE) {
		order = binary.LittleEndian
	}
	body := content[2:]
	if len(body)%2 != 0 {
		return false
	}
	for i := 0; i < len(body); i += 2 {
		u := order.Uint16(body[i:])
		switch {
		case u >= 0xDC00 && u <= 0xDFFF:
			return false
		case u >= 0xD800 && u <= 0xDBFF:
			if i+4 > len(body) {
				return false
			}
			next := order.Uint16(body[i+2:])
			if next < 0xDC00 || next > 0xDFFF {
				return false
			}
			i += 2
		}
	}
	return true
}
