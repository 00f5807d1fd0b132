package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phyten/commentx/internal/engine"
)

// DefaultFields は --fields 未指定時の列
const DefaultFields = "file,line,col,kind,lang,comment"

type Field struct {
	Key    string
	Header string
}

type FieldSelection struct {
	Fields []Field
	// ShowComment は comment 列を含むかどうか（表示幅の切り詰め対象）
	ShowComment bool
}

var fieldRegistry = map[string]string{
	"uri":      "URI",
	"file":     "FILE",
	"lang":     "LANG",
	"kind":     "KIND",
	"offset":   "OFFSET",
	"line":     "LINE",
	"col":      "COL",
	"end_line": "END_LINE",
	"end_col":  "END_COL",
	"location": "LOCATION",
	"comment":  "COMMENT",
}

var fieldOrder = []string{"uri", "file", "lang", "kind", "offset", "line", "col", "end_line", "end_col", "location", "comment"}

// FieldKeys returns every selectable field key in display order.
func FieldKeys() []string {
	return append([]string(nil), fieldOrder...)
}

var fieldAliases = map[string]string{
	"start_offset": "offset",
	"start_line":   "line",
	"start_col":    "col",
	"column":       "col",
	"language":     "lang",
	"path":         "file",
	"text":         "comment",
}

// ResolveFields は "file,line,comment" 形式の指定を解釈する。空なら DefaultFields。
func ResolveFields(raw string) (FieldSelection, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = DefaultFields
	}
	parts := strings.Split(raw, ",")
	sel := FieldSelection{Fields: make([]Field, 0, len(parts))}
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			return FieldSelection{}, fmt.Errorf("invalid fields: empty entry")
		}
		key := strings.ReplaceAll(strings.ToLower(name), "-", "_")
		if alias, ok := fieldAliases[key]; ok {
			key = alias
		}
		header, ok := fieldRegistry[key]
		if !ok {
			return FieldSelection{}, fmt.Errorf("unknown field: %s", name)
		}
		sel.Fields = append(sel.Fields, Field{Key: key, Header: header})
		if key == "comment" {
			sel.ShowComment = true
		}
	}
	return sel, nil
}

// Headers returns the column titles of fields in order.
func Headers(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Header
	}
	return out
}

// RowValues formats one item; the comment cell keeps its raw text.
func RowValues(it engine.Item, fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = formatFieldValue(it, f.Key)
	}
	return out
}

func formatFieldValue(it engine.Item, key string) string {
	switch key {
	case "uri":
		return it.URI
	case "file":
		return it.File
	case "lang":
		return it.Lang
	case "kind":
		return string(it.Kind)
	case "offset":
		return strconv.Itoa(it.Offset)
	case "line":
		return strconv.Itoa(it.Span.StartLine)
	case "col":
		return strconv.Itoa(it.Span.StartCol)
	case "end_line":
		return strconv.Itoa(it.Span.EndLine)
	case "end_col":
		return strconv.Itoa(it.Span.EndCol)
	case "location":
		return fmt.Sprintf("%s:%d:%d", it.File, it.Span.StartLine, it.Span.StartCol)
	case "comment":
		return it.Text
	default:
		return ""
	}
}

// eachRecord passes the header row and then one row per item to emit.
func eachRecord(items []engine.Item, sel FieldSelection, emit func([]string) error) error {
	if err := emit(Headers(sel.Fields)); err != nil {
		return err
	}
	for _, it := range items {
		if err := emit(RowValues(it, sel.Fields)); err != nil {
			return err
		}
	}
	return nil
}

func numericField(key string) bool {
	switch key {
	case "offset", "line", "col", "end_line", "end_col":
		return true
	}
	return false
}
