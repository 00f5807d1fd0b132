// Package lang holds the comment grammars of every supported language and
// maps resource names to language identifiers.
package lang

import (
	"fmt"
	"strings"
)

// ID identifies one supported language.
type ID string

const (
	JAVA      ID = "JAVA"
	PY        ID = "PY"
	C         ID = "C"
	CPP       ID = "CPP"
	CHeader   ID = "C_HEADER"
	CPPHeader ID = "CPP_HEADER"
	SCALA     ID = "SCALA"
	RUBY      ID = "RUBY"
	GO        ID = "GO"
	JS        ID = "JS"
	HTML      ID = "HTML"
	BAT       ID = "BAT"
	SH        ID = "SH"
	XML       ID = "XML"
	TEXT      ID = "TEXT"
	MD        ID = "MD"
	ETC       ID = "ETC"
)

var allIDs = []ID{JAVA, PY, C, CPP, CHeader, CPPHeader, SCALA, RUBY, GO, JS, HTML, BAT, SH, XML, TEXT, MD, ETC}

// IDs returns every supported identifier in declaration order.
func IDs() []ID {
	out := make([]ID, len(allIDs))
	copy(out, allIDs)
	return out
}

func (id ID) String() string { return string(id) }

var idAliases = map[string]ID{
	"java":       JAVA,
	"py":         PY,
	"python":     PY,
	"c":          C,
	"cpp":        CPP,
	"c++":        CPP,
	"cc":         CPP,
	"cxx":        CPP,
	"c_header":   CHeader,
	"h":          CHeader,
	"cpp_header": CPPHeader,
	"hpp":        CPPHeader,
	"hh":         CPPHeader,
	"scala":      SCALA,
	"ruby":       RUBY,
	"rb":         RUBY,
	"go":         GO,
	"golang":     GO,
	"js":         JS,
	"javascript": JS,
	"html":       HTML,
	"htm":        HTML,
	"bat":        BAT,
	"batch":      BAT,
	"cmd":        BAT,
	"sh":         SH,
	"shell":      SH,
	"bash":       SH,
	"zsh":        SH,
	"xml":        XML,
	"text":       TEXT,
	"txt":        TEXT,
	"md":         MD,
	"markdown":   MD,
	"etc":        ETC,
}

// ParseID resolves a canonical name or a common alias (case-insensitive).
func ParseID(name string) (ID, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "_")
	if n == "" {
		return "", fmt.Errorf("empty language name")
	}
	if id, ok := idAliases[n]; ok {
		return id, nil
	}
	return "", fmt.Errorf("unknown language: %s", name)
}

// Known reports whether id is one of the supported identifiers.
func Known(id ID) bool {
	for _, v := range allIDs {
		if v == id {
			return true
		}
	}
	return false
}
