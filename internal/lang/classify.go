package lang

import (
	"path"
	"sort"
	"strings"
)

// Classifier maps resource names to language identifiers. The zero value uses
// the built-in tables only.
type Classifier struct {
	basenames  map[string]ID
	extensions map[string]ID
}

// NewClassifier layers overrides on top of the built-in tables. Keys starting
// with a dot are extensions, anything else is a full base name. Unknown
// identifiers are ignored.
func NewClassifier(overrides map[string]ID) *Classifier {
	c := &Classifier{}
	for raw, id := range overrides {
		key := strings.ToLower(strings.TrimSpace(raw))
		if key == "" || !Known(id) {
			continue
		}
		if strings.HasPrefix(key, ".") {
			if c.extensions == nil {
				c.extensions = make(map[string]ID)
			}
			c.extensions[key] = id
			continue
		}
		if c.basenames == nil {
			c.basenames = make(map[string]ID)
		}
		c.basenames[key] = id
	}
	return c
}

// Classify returns the language of name using the default tables.
func Classify(name string) ID {
	var c Classifier
	return c.Classify(name)
}

// Classify never fails: names without a known base name or extension map to ETC.
func (c *Classifier) Classify(name string) ID {
	base := strings.ToLower(baseName(name))
	if base == "" {
		return ETC
	}
	if c != nil {
		if id, ok := c.basenames[base]; ok {
			return id
		}
	}
	if id, ok := basenameLanguages[base]; ok {
		return id
	}
	ext := path.Ext(base)
	if ext == "" || ext == base {
		return ETC
	}
	if c != nil {
		if id, ok := c.extensions[ext]; ok {
			return id
		}
	}
	if id, ok := extensionLanguages[ext]; ok {
		return id
	}
	return ETC
}

// baseName strips URL query/fragment parts and any directory prefix, accepting
// both slash and backslash separators.
func baseName(name string) string {
	n := strings.TrimSpace(name)
	if i := strings.IndexAny(n, "?#"); i >= 0 && strings.Contains(n, "://") {
		n = n[:i]
	}
	n = strings.TrimRight(n, "/\\")
	if i := strings.LastIndexAny(n, "/\\"); i >= 0 {
		n = n[i+1:]
	}
	return n
}

var basenameLanguages = map[string]ID{
	"gemfile":     RUBY,
	"rakefile":    RUBY,
	"podfile":     RUBY,
	"vagrantfile": RUBY,
	"berksfile":   RUBY,
	"config.ru":   RUBY,
	"pom.xml":     XML,
	"readme":      MD,
	"gradlew.bat": BAT,
	"gradlew":     SH,
}

var extensionLanguages = map[string]ID{
	".java":     JAVA,
	".py":       PY,
	".pyw":      PY,
	".pyi":      PY,
	".c":        C,
	".h":        CHeader,
	".cpp":      CPP,
	".cc":       CPP,
	".cxx":      CPP,
	".c++":      CPP,
	".hpp":      CPPHeader,
	".hh":       CPPHeader,
	".hxx":      CPPHeader,
	".h++":      CPPHeader,
	".scala":    SCALA,
	".sc":       SCALA,
	".rb":       RUBY,
	".rake":     RUBY,
	".gemspec":  RUBY,
	".go":       GO,
	".js":       JS,
	".mjs":      JS,
	".cjs":      JS,
	".jsx":      JS,
	".html":     HTML,
	".htm":      HTML,
	".xhtml":    HTML,
	".bat":      BAT,
	".cmd":      BAT,
	".sh":       SH,
	".bash":     SH,
	".zsh":      SH,
	".ksh":      SH,
	".xml":      XML,
	".xsd":      XML,
	".xsl":      XML,
	".svg":      XML,
	".pom":      XML,
	".txt":      TEXT,
	".text":     TEXT,
	".md":       MD,
	".markdown": MD,
}

// Extensions lists the built-in extensions mapped to id, sorted.
func Extensions(id ID) []string {
	var out []string
	for ext, v := range extensionLanguages {
		if v == id {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}
