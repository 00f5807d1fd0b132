// Package charset decodes raw resource bytes into text.
package charset

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// Default is used when no charset name is given.
const Default = "UTF-8"

var (
	// ErrUnsupported reports a charset name neither index knows.
	ErrUnsupported = errors.New("unsupported charset")
	// ErrInvalid reports bytes that are not valid in the declared charset.
	ErrInvalid = errors.New("invalid byte sequence")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode converts data to a Go string. UTF-8 input is validated strictly and a
// leading byte order mark is dropped; other charsets are looked up in the
// WHATWG index first and the IANA registry second.
func Decode(data []byte, name string) (string, error) {
	if isUTF8(name) {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: not %s at byte %d", ErrInvalid, Default, invalidAt(data))
		}
		return string(data), nil
	}
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalid, name, err)
	}
	return string(out), nil
}

// Lookup resolves name to an encoding.
func Lookup(name string) (encoding.Encoding, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		n = Default
	}
	if enc, err := htmlindex.Get(n); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := ianaindex.IANA.Encoding(n); err == nil && enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, name)
}

// Supported reports whether Decode accepts name.
func Supported(name string) bool {
	if isUTF8(name) {
		return true
	}
	_, err := Lookup(name)
	return err == nil
}

func isUTF8(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "", "_", "").Replace(n)
	return n == "" || n == "utf8"
}

func invalidAt(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}
