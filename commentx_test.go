package commentx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phyten/commentx"
)

func TestExtractComments(t *testing.T) {
	got, err := commentx.ExtractComments(strings.NewReader("a = \"//not a comment\"; // real"), "app.js")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 23, got[0].Offset)
	assert.Equal(t, "// real", got[0].Text)
	assert.Equal(t, "stream:app.js", got[0].URI)
}

func TestExtractCommentsUnknownExtension(t *testing.T) {
	got, err := commentx.ExtractComments(strings.NewReader("# not a comment here"), "notes.txt")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractCommentsWithLanguageAndCharset(t *testing.T) {
	got, err := commentx.ExtractComments(
		strings.NewReader("# caf\xe9"),
		"stdin",
		commentx.WithLanguage("python"),
		commentx.WithCharset("latin1"),
	)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "# café", got[0].Text)
}

func TestExtractCommentsLanguageOverrideEdges(t *testing.T) {
	got, err := commentx.ExtractComments(strings.NewReader("// hidden"), "a.go", commentx.WithLanguage("etc"))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = commentx.ExtractComments(strings.NewReader("// shown"), "a.go", commentx.WithLanguage(""))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = commentx.ExtractComments(strings.NewReader("// a"), "a.go", commentx.WithLanguage("cobol"))
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown language")

	_, err = commentx.ExtractCommentsFromURI(context.Background(), "unused.go", "", commentx.WithLanguage("cobol"))
	assert.ErrorContains(t, err, "unknown language")
}

func TestExtractCommentsDecodeError(t *testing.T) {
	got, err := commentx.ExtractComments(strings.NewReader("// \xff"), "a.go")
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, commentx.ErrDecode))
}

func TestExtractCommentsWithTempDir(t *testing.T) {
	dir := t.TempDir()
	got, err := commentx.ExtractComments(strings.NewReader("/* kept */"), "k.c", commentx.WithTempDir(dir))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0].URI, "file://"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExtractCommentsFromURI(t *testing.T) {
	p := filepath.Join(t.TempDir(), "hello.rb")
	require.NoError(t, os.WriteFile(p, []byte("=begin\ndoc\n=end\nputs 1 # hi\n"), 0o644))

	got, err := commentx.ExtractCommentsFromURI(context.Background(), p, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "=begin\ndoc\n=end", got[0].Text)
	assert.Equal(t, "# hi", got[1].Text)
	assert.Equal(t, 0, got[0].Offset)
	assert.Equal(t, 23, got[1].Offset)
}

func TestExtractCommentsFromURIOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<!-- remote -->"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	got, err := commentx.ExtractCommentsFromURI(context.Background(), srv.URL+"/index.html", "", commentx.WithTempDir(dir))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0].URI, "file://"+filepath.ToSlash(dir)))
}

func TestExtractCommentsFromURIMissing(t *testing.T) {
	got, err := commentx.ExtractCommentsFromURI(context.Background(), filepath.Join(t.TempDir(), "nope.go"), "")
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, commentx.ErrAcquire))
}

func TestLanguages(t *testing.T) {
	ids := commentx.Languages()
	assert.Contains(t, ids, "GO")
	assert.Contains(t, ids, "CPP_HEADER")
	assert.Contains(t, ids, "ETC")
	assert.Len(t, ids, 17)
}
