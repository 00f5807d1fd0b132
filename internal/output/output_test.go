package output

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phyten/commentx/internal/engine"
	"github.com/phyten/commentx/internal/model"
	"github.com/phyten/commentx/internal/textutil"
)

var sampleItems = []engine.Item{
	{
		Comment: model.Comment{
			Offset: 42,
			Text:   `// parse "quoted", values`,
			URI:    "file:///repo/internal/app/main.go",
			Lang:   "GO",
			Kind:   model.KindLine,
			Span:   model.Span{StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 30, ByteStart: 44, ByteEnd: 69},
		},
		File: "internal/app/main.go",
	},
	{
		Comment: model.Comment{
			Offset: 7,
			Text:   "<!-- a | b\nsecond -->",
			URI:    "https://example.com/index.html",
			Lang:   "HTML",
			Kind:   model.KindBlock,
			Span:   model.Span{StartLine: 1, StartCol: 8, EndLine: 2, EndCol: 11, ByteStart: 7, ByteEnd: 28},
		},
		File: "web/index.html",
	},
}

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
}

func setNarrowAmbiguous(t *testing.T) {
	t.Helper()
	prev := runewidth.EastAsianWidth
	runewidth.EastAsianWidth = false
	runewidth.DefaultCondition = runewidth.NewCondition()
	t.Cleanup(func() {
		runewidth.EastAsianWidth = prev
		runewidth.DefaultCondition = runewidth.NewCondition()
	})
}

func TestResolveFields(t *testing.T) {
	sel, err := ResolveFields("")
	require.NoError(t, err)
	assert.Equal(t, []string{"FILE", "LINE", "COL", "KIND", "LANG", "COMMENT"}, Headers(sel.Fields))
	assert.True(t, sel.ShowComment)

	sel, err = ResolveFields(" Start-Line , language,path ")
	require.NoError(t, err)
	assert.Equal(t, []string{"LINE", "LANG", "FILE"}, Headers(sel.Fields))
	assert.False(t, sel.ShowComment)

	_, err = ResolveFields("file,,line")
	assert.Error(t, err)
	_, err = ResolveFields("author")
	assert.ErrorContains(t, err, "unknown field")

	for _, key := range FieldKeys() {
		_, err := ResolveFields(key)
		assert.NoError(t, err, key)
	}
}

func TestRowValues(t *testing.T) {
	sel, err := ResolveFields("uri,offset,location,end_line,end_col,kind")
	require.NoError(t, err)
	got := RowValues(sampleItems[0], sel.Fields)
	assert.Equal(t, []string{"file:///repo/internal/app/main.go", "42", "internal/app/main.go:3:5", "3", "30", "line"}, got)
}

func TestWriteCSV(t *testing.T) {
	sel, err := ResolveFields("")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleItems, sel))
	assert.Contains(t, buf.String(), "\r\n", "CSV output should use CRLF line endings")
	newGoldie(t).Assert(t, "csv", buf.Bytes())
}

func TestWriteTSV(t *testing.T) {
	sel, err := ResolveFields("uri,offset,end_line,end_col,comment")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteTSV(&buf, sampleItems, sel))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, len(sampleItems)+1, "multi-line comments must stay on one line")
	newGoldie(t).Assert(t, "tsv", buf.Bytes())
}

func TestWriteNDJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(&buf, sampleItems))
	output := buf.String()
	lines := strings.Split(strings.TrimSuffix(output, "\n"), "\n")
	require.Len(t, lines, len(sampleItems))
	for i, line := range lines {
		var item engine.Item
		require.NoErrorf(t, json.Unmarshal([]byte(line), &item), "line %d", i)
		assert.Equal(t, sampleItems[i].Text, item.Text)
	}
	assert.NotContains(t, output, "\\u003c", "HTML characters should not be escaped in NDJSON output")
	newGoldie(t).Assert(t, "ndjson", buf.Bytes())
}

func TestWriteJSON(t *testing.T) {
	res := &engine.Result{
		Items:     sampleItems,
		Files:     2,
		Total:     2,
		Languages: map[string]int{"HTML": 1, "GO": 1},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, res))
	newGoldie(t).Assert(t, "json", buf.Bytes())
}

func TestWriteMarkdownTable(t *testing.T) {
	sel, err := ResolveFields("location,kind,comment")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdownTable(&buf, sampleItems, sel))
	output := buf.String()
	assert.Contains(t, output, "b<br>second", "expected newline conversion to <br> in markdown output")
	assert.Contains(t, output, "a \\| b", "expected pipe characters to be escaped in markdown output")
	newGoldie(t).Assert(t, "markdown", buf.Bytes())

	sel, err = ResolveFields("file,line,col,comment")
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, WriteMarkdownTable(&buf, sampleItems[:1], sel))
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "| --- | ---: | ---: | --- |", lines[1], "numeric columns should be right-aligned")
}

func TestWriteTable(t *testing.T) {
	setNarrowAmbiguous(t)
	sel, err := ResolveFields("")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleItems, sel, TableOptions{Truncate: 20}))
	newGoldie(t).Assert(t, "table", buf.Bytes())
}

func TestWriteTableColorKeepsAlignment(t *testing.T) {
	setNarrowAmbiguous(t)
	items := append([]engine.Item{}, sampleItems...)
	items = append(items, engine.Item{
		Comment: model.Comment{Text: "# 日本語のコメント", Lang: "PY", Kind: model.KindLine, Span: model.Span{StartLine: 10, StartCol: 1}},
		File:    "scripts/日本.py",
	})
	sel, err := ResolveFields("file,kind,comment")
	require.NoError(t, err)

	var plain, colored bytes.Buffer
	require.NoError(t, WriteTable(&plain, items, sel, TableOptions{}))
	require.NoError(t, WriteTable(&colored, items, sel, TableOptions{Color: true}))

	assert.Contains(t, colored.String(), "\x1b[")
	plainLines := strings.Split(plain.String(), "\n")
	coloredLines := strings.Split(colored.String(), "\n")
	require.Equal(t, len(plainLines), len(coloredLines))
	for i := range plainLines {
		assert.Equal(t, plainLines[i], textutil.StripANSI(coloredLines[i]))
	}
	// KIND 列の開始位置が全行で揃っていること
	start := -1
	for _, line := range plainLines[:len(plainLines)-1] {
		idx := strings.Index(line, "  ")
		for idx >= 0 && idx+2 < len(line) && line[idx+2] == ' ' {
			idx++
		}
		w := textutil.VisibleWidth(line[:idx+2])
		if start < 0 {
			start = w
		}
		assert.Equal(t, start, w, "line %q", line)
	}
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "2 comments in 2 files", Summary(&engine.Result{Total: 2, Files: 2}))
	assert.Equal(t, "0 comments in 1 files, 1 errors", Summary(&engine.Result{Files: 1, ErrorCount: 1}))
}

func TestWriteSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "comments.db")
	require.NoError(t, WriteSQLite(ctx, path, sampleItems))
	require.NoError(t, WriteSQLite(ctx, path, sampleItems[:1]))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var versions, version int
	require.NoError(t, db.QueryRow("SELECT COUNT(*), MAX(version) FROM schema_version").Scan(&versions, &version))
	assert.Equal(t, 1, versions)
	assert.Equal(t, SQLiteSchemaVersion, version)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM comments").Scan(&count))
	assert.Equal(t, 3, count)

	var text, kind string
	var line, col int
	err = db.QueryRow("SELECT comment, kind, start_line, start_col FROM comments WHERE file = ? LIMIT 1", "web/index.html").
		Scan(&text, &kind, &line, &col)
	require.NoError(t, err)
	assert.Equal(t, "<!-- a | b\nsecond -->", text)
	assert.Equal(t, "block", kind)
	assert.Equal(t, 1, line)
	assert.Equal(t, 8, col)
}

func TestWriteSQLiteBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "comments.db")
	assert.Error(t, WriteSQLite(context.Background(), path, sampleItems))
}
