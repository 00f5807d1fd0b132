package charset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUTF8(t *testing.T) {
	for _, name := range []string{"", "UTF-8", "utf8", "utf_8", " Utf-8 "} {
		got, err := Decode([]byte("// héllo"), name)
		require.NoError(t, err, name)
		assert.Equal(t, "// héllo", got)
	}
}

func TestDecodeUTF8DropsBOM(t *testing.T) {
	got, err := Decode([]byte("\xEF\xBB\xBF# top"), "UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "# top", got)
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	_, err := Decode([]byte("ok \xff\xfe"), "UTF-8")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), "byte 3")
}

func TestDecodeLatin1(t *testing.T) {
	got, err := Decode([]byte{'#', ' ', 'c', 'a', 'f', 0xE9}, "ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "# café", got)
}

func TestDecodeShiftJIS(t *testing.T) {
	// "// 日本" in Shift_JIS
	got, err := Decode([]byte{'/', '/', ' ', 0x93, 0xfa, 0x96, 0x7b}, "Shift_JIS")
	require.NoError(t, err)
	assert.Equal(t, "// 日本", got)
}

func TestDecodeUnknownCharset(t *testing.T) {
	_, err := Decode([]byte("x"), "klingon-8")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.False(t, Supported("klingon-8"))
	assert.True(t, Supported("windows-1252"))
	assert.True(t, Supported(""))
}
