// Package typedstream extracts the plain text from the NSAttributedString
// archives stored in the Messages attributedBody column. Newer macOS releases
// leave message.text NULL and only populate this blob.
package typedstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"unicode/utf8"
)

// ErrNoString is returned when a blob carries no recognizable NSString payload.
var ErrNoString = errors.New("typedstream: no string payload")

var (
	// stringStart precedes the length-prefixed bytes of the archived NSString.
	stringStart = []byte{0x01, 0x2b}
	// stringEnd follows the string bytes and opens the attribute run table.
	stringEnd = []byte{0x86, 0x84}
)

const (
	tagInt16 = 0x81
	tagInt32 = 0x82
)

// Decode returns the string payload of an attributedBody blob.
func Decode(blob []byte) (string, error) {
	i := bytes.Index(blob, stringStart)
	if i < 0 {
		return "", ErrNoString
	}
	rest := blob[i+len(stringStart):]

	if s, ok := lengthPrefixed(rest); ok {
		return s, nil
	}
	return terminated(rest)
}

// lengthPrefixed reads a typedstream integer length followed by that many bytes.
func lengthPrefixed(b []byte) (string, bool) {
	if len(b) == 0 {
		return "", false
	}
	var n, hdr int
	switch b[0] {
	case tagInt16:
		if len(b) < 3 {
			return "", false
		}
		n, hdr = int(binary.LittleEndian.Uint16(b[1:3])), 3
	case tagInt32:
		if len(b) < 5 {
			return "", false
		}
		n, hdr = int(binary.LittleEndian.Uint32(b[1:5])), 5
	default:
		if b[0] >= 0x80 {
			return "", false
		}
		n, hdr = int(b[0]), 1
	}
	if n < 0 || hdr+n > len(b) {
		return "", false
	}
	s := b[hdr : hdr+n]
	if !utf8.Valid(s) {
		return "", false
	}
	return string(s), true
}

// terminated slices up to the attribute table marker and drops the length
// prefix by character count: one rune when the slice is valid UTF-8,
// otherwise three.
func terminated(b []byte) (string, error) {
	end := bytes.Index(b, stringEnd)
	if end < 0 {
		return "", ErrNoString
	}
	b = b[:end]

	drop := 1
	if !utf8.Valid(b) {
		drop = 3
	}
	for range drop {
		_, size := utf8.DecodeRune(b)
		if size == 0 {
			return "", ErrNoString
		}
		b = b[size:]
	}
	return string(b), nil
}
