package lang

import (
	"sort"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// BlockRule is a paired comment delimiter such as /* and */.
type BlockRule struct {
	Open  string
	Close string
	// AtLineStart restricts both delimiters to the first column (Ruby =begin/=end).
	AtLineStart bool
}

// StringRule describes a literal region in which comment markers are inert.
type StringRule struct {
	Open   string
	Close  string
	Escape byte // 0 when the literal has no escape character
	// Multiline literals may span line feeds; the others end at the next one.
	Multiline bool
	// Nest is the opening bracket of a bracket-delimited literal. Each
	// unescaped Nest inside the body must be balanced by Close before the
	// literal ends, as in Ruby's %q(a (b) c).
	Nest byte
}

// Grammar holds the lexical rules of one language. Grammars are built once and
// shared by every scan; callers must not modify the slices.
//
// WordMarkers are line markers that form a whole word, such as batch REM. They
// match regardless of ASCII case and only when a blank or the end of the line
// follows.
type Grammar struct {
	ID                ID
	LineMarkers       []string
	WordMarkers       []string
	Blocks            []BlockRule
	Strings           []StringRule
	Nested            bool
	MarkerAtWordStart bool

	firsts [256]bool
	filter *prefilter
}

// HasComments reports whether the grammar recognizes any comment at all.
func (g *Grammar) HasComments() bool {
	return len(g.LineMarkers) > 0 || len(g.WordMarkers) > 0 || len(g.Blocks) > 0
}

// LineMarkerLen returns the length of the longest line marker text starts
// with, or 0. It does not check what precedes text.
func (g *Grammar) LineMarkerLen(text string) int {
	n := 0
	for _, m := range g.LineMarkers {
		if strings.HasPrefix(text, m) {
			n = len(m)
			break
		}
	}
	for _, w := range g.WordMarkers {
		if len(w) > n && hasWordPrefix(text, w) {
			return len(w)
		}
	}
	return n
}

func hasWordPrefix(text, w string) bool {
	if len(text) < len(w) || !strings.EqualFold(text[:len(w)], w) {
		return false
	}
	if len(text) == len(w) {
		return true
	}
	switch text[len(w)] {
	case ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

// MayStartToken reports whether some marker or string opener begins with b.
func (g *Grammar) MayStartToken(b byte) bool {
	return g.firsts[b]
}

// MayContainComments reports whether text contains at least one comment opener.
// A false result is definitive; a true result only means scanning is needed.
func (g *Grammar) MayContainComments(text string) bool {
	if g.filter == nil {
		return false
	}
	return g.filter.match(text)
}

var (
	styleCLike = Grammar{
		LineMarkers: []string{"//"},
		Blocks:      []BlockRule{{Open: "/*", Close: "*/"}},
		Strings: []StringRule{
			{Open: "\"", Close: "\"", Escape: '\\'},
			{Open: "'", Close: "'", Escape: '\\'},
		},
	}
	styleCPP = Grammar{
		LineMarkers: []string{"//"},
		Blocks:      []BlockRule{{Open: "/*", Close: "*/"}},
		Strings: []StringRule{
			{Open: "R\"(", Close: ")\"", Multiline: true},
			{Open: "\"", Close: "\"", Escape: '\\'},
			{Open: "'", Close: "'", Escape: '\\'},
		},
	}
	styleJava = Grammar{
		LineMarkers: []string{"//"},
		Blocks:      []BlockRule{{Open: "/*", Close: "*/"}},
		Strings: []StringRule{
			{Open: "\"\"\"", Close: "\"\"\"", Escape: '\\', Multiline: true},
			{Open: "\"", Close: "\"", Escape: '\\'},
			{Open: "'", Close: "'", Escape: '\\'},
		},
	}
	styleScala = Grammar{
		LineMarkers: []string{"//"},
		Blocks:      []BlockRule{{Open: "/*", Close: "*/"}},
		Strings: []StringRule{
			{Open: "\"\"\"", Close: "\"\"\"", Multiline: true},
			{Open: "\"", Close: "\"", Escape: '\\'},
			{Open: "'", Close: "'", Escape: '\\'},
		},
		Nested: true,
	}
	styleGo = Grammar{
		LineMarkers: []string{"//"},
		Blocks:      []BlockRule{{Open: "/*", Close: "*/"}},
		Strings: []StringRule{
			{Open: "`", Close: "`", Multiline: true},
			{Open: "\"", Close: "\"", Escape: '\\'},
			{Open: "'", Close: "'", Escape: '\\'},
		},
	}
	styleJS = Grammar{
		LineMarkers: []string{"//"},
		Blocks:      []BlockRule{{Open: "/*", Close: "*/"}},
		Strings: []StringRule{
			{Open: "`", Close: "`", Escape: '\\', Multiline: true},
			{Open: "\"", Close: "\"", Escape: '\\'},
			{Open: "'", Close: "'", Escape: '\\'},
		},
	}
	stylePython = Grammar{
		LineMarkers: []string{"#"},
		Strings: []StringRule{
			{Open: "\"\"\"", Close: "\"\"\"", Escape: '\\', Multiline: true},
			{Open: "'''", Close: "'''", Escape: '\\', Multiline: true},
			{Open: "\"", Close: "\"", Escape: '\\'},
			{Open: "'", Close: "'", Escape: '\\'},
		},
	}
	styleRuby = Grammar{
		LineMarkers: []string{"#"},
		Blocks:      []BlockRule{{Open: "=begin", Close: "=end", AtLineStart: true}},
		Strings: append(rubyPercentLiterals(),
			StringRule{Open: "\"", Close: "\"", Escape: '\\', Multiline: true},
			StringRule{Open: "'", Close: "'", Escape: '\\', Multiline: true},
		),
	}
	styleShell = Grammar{
		LineMarkers: []string{"#"},
		Strings: []StringRule{
			{Open: "\"", Close: "\"", Escape: '\\', Multiline: true},
			{Open: "'", Close: "'", Multiline: true},
			{Open: "`", Close: "`", Escape: '\\', Multiline: true},
		},
		MarkerAtWordStart: true,
	}
	styleBatch = Grammar{
		LineMarkers: []string{"::"},
		WordMarkers: []string{"REM", "@REM"},
		Strings: []StringRule{
			{Open: "\"", Close: "\""},
		},
		MarkerAtWordStart: true,
	}
	styleHTML = Grammar{
		Blocks: []BlockRule{{Open: "<!--", Close: "-->"}},
	}
	styleXML = Grammar{
		Blocks: []BlockRule{{Open: "<!--", Close: "-->"}},
		Strings: []StringRule{
			{Open: "<![CDATA[", Close: "]]>", Multiline: true},
		},
	}
	styleMarkdown = Grammar{
		Blocks: []BlockRule{{Open: "<!--", Close: "-->"}},
		Strings: []StringRule{
			{Open: "```", Close: "```", Multiline: true},
			{Open: "`", Close: "`"},
		},
	}
	stylePlain = Grammar{}
)

// rubyPercentLiterals declares %q %Q %w %W %i %I and bare % literals for every
// bracket pair Ruby balances.
func rubyPercentLiterals() []StringRule {
	brackets := []struct{ open, close byte }{{'(', ')'}, {'[', ']'}, {'{', '}'}, {'<', '>'}}
	var rules []StringRule
	for _, prefix := range []string{"%q", "%Q", "%w", "%W", "%i", "%I", "%"} {
		for _, b := range brackets {
			rules = append(rules, StringRule{
				Open:      prefix + string(b.open),
				Close:     string(b.close),
				Escape:    '\\',
				Multiline: true,
				Nest:      b.open,
			})
		}
	}
	return rules
}

var registry = buildRegistry(map[ID]Grammar{
	JAVA:      styleJava,
	PY:        stylePython,
	C:         styleCLike,
	CHeader:   styleCLike,
	CPP:       styleCPP,
	CPPHeader: styleCPP,
	SCALA:     styleScala,
	RUBY:      styleRuby,
	GO:        styleGo,
	JS:        styleJS,
	HTML:      styleHTML,
	BAT:       styleBatch,
	SH:        styleShell,
	XML:       styleXML,
	TEXT:      stylePlain,
	MD:        styleMarkdown,
	ETC:       stylePlain,
})

// GrammarFor returns the grammar of id. Identifiers outside the supported set
// get the ETC grammar, which recognizes no comments.
func GrammarFor(id ID) *Grammar {
	if g, ok := registry[id]; ok {
		return g
	}
	return registry[ETC]
}

func buildRegistry(defs map[ID]Grammar) map[ID]*Grammar {
	out := make(map[ID]*Grammar, len(defs))
	for id, def := range defs {
		out[id] = newGrammar(id, def)
	}
	return out
}

// newGrammar copies def and orders every token list longest first so that a
// scan can take the first hit as the longest match.
func newGrammar(id ID, def Grammar) *Grammar {
	g := &Grammar{
		ID:                id,
		LineMarkers:       append([]string(nil), def.LineMarkers...),
		WordMarkers:       append([]string(nil), def.WordMarkers...),
		Blocks:            append([]BlockRule(nil), def.Blocks...),
		Strings:           append([]StringRule(nil), def.Strings...),
		Nested:            def.Nested,
		MarkerAtWordStart: def.MarkerAtWordStart,
	}
	sort.SliceStable(g.LineMarkers, func(i, j int) bool {
		return len(g.LineMarkers[i]) > len(g.LineMarkers[j])
	})
	sort.SliceStable(g.WordMarkers, func(i, j int) bool {
		return len(g.WordMarkers[i]) > len(g.WordMarkers[j])
	})
	sort.SliceStable(g.Blocks, func(i, j int) bool {
		return len(g.Blocks[i].Open) > len(g.Blocks[j].Open)
	})
	sort.SliceStable(g.Strings, func(i, j int) bool {
		return len(g.Strings[i].Open) > len(g.Strings[j].Open)
	})

	openers := make([]string, 0, len(g.LineMarkers)+len(g.Blocks))
	for _, m := range g.LineMarkers {
		g.firsts[m[0]] = true
		openers = append(openers, m)
	}
	for _, w := range g.WordMarkers {
		for _, v := range caseVariants(w) {
			g.firsts[v[0]] = true
			openers = append(openers, v)
		}
	}
	for _, b := range g.Blocks {
		g.firsts[b.Open[0]] = true
		openers = append(openers, b.Open)
	}
	for _, s := range g.Strings {
		g.firsts[s.Open[0]] = true
	}
	g.filter = newPrefilter(openers)
	return g
}

// caseVariants spells w in every combination of ASCII upper and lower case so
// that the case-sensitive prefilter still sees word markers.
func caseVariants(w string) []string {
	out := []string{""}
	for i := 0; i < len(w); i++ {
		lower, upper := strings.ToLower(w[i:i+1]), strings.ToUpper(w[i:i+1])
		next := make([]string, 0, 2*len(out))
		for _, p := range out {
			next = append(next, p+lower)
			if upper != lower {
				next = append(next, p+upper)
			}
		}
		out = next
	}
	return out
}

// prefilter answers "does any comment opener occur in this text" with one
// Aho-Corasick pass. Matchers keep per-call counters, so each goroutine
// borrows its own from the pool.
type prefilter struct {
	pool sync.Pool
}

func newPrefilter(keywords []string) *prefilter {
	if len(keywords) == 0 {
		return nil
	}
	dict := append([]string(nil), keywords...)
	pf := &prefilter{}
	pf.pool.New = func() any {
		return ahocorasick.NewStringMatcher(dict)
	}
	return pf
}

func (pf *prefilter) match(text string) bool {
	if text == "" {
		return false
	}
	m := pf.pool.Get().(*ahocorasick.Matcher)
	defer pf.pool.Put(m)
	return len(m.Match([]byte(text))) > 0
}
