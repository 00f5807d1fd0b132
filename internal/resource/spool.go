package resource

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Spool copies r into a new file under dir and returns its path. The file name
// keeps the extension of name so that the copy classifies like the original.
// When limit > 0 and r holds more than limit bytes the copy is removed and
// ErrTooLarge is returned.
func Spool(dir, name string, r io.Reader, limit int64) (string, int64, error) {
	fh, err := os.CreateTemp(dir, spoolPattern(name))
	if err != nil {
		return "", 0, err
	}
	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(fh, src)
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	if err == nil && limit > 0 && n > limit {
		err = fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	if err != nil {
		os.Remove(fh.Name())
		return "", 0, err
	}
	return fh.Name(), n, nil
}

func spoolPattern(name string) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '*':
			return '_'
		}
		return r
	}, name)
	if base == "" {
		base = "stream"
	}
	// CreateTemp replaces the last "*"; put it before the extension.
	if i := strings.LastIndex(base, "."); i > 0 {
		return "commentx-" + base[:i] + "-*" + base[i:]
	}
	return "commentx-" + base + "-*"
}
