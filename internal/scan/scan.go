// Package scan walks decoded source text once and reports every comment
// recognized by a language grammar.
package scan

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/phyten/commentx/internal/lang"
	"github.com/phyten/commentx/internal/model"
)

type tokenKind int

const (
	tokenNone tokenKind = iota
	tokenString
	tokenLine
	tokenBlock
)

type candidate struct {
	kind  tokenKind
	index int
	width int
}

// Scan returns the comments of text in ascending offset order. The result is
// never nil; text without comments yields an empty slice. Unterminated block
// comments run to the end of text, unterminated strings produce nothing.
func Scan(text string, g *lang.Grammar) []model.Comment {
	out := []model.Comment{}
	if g == nil || !g.HasComments() || !g.MayContainComments(text) {
		return out
	}
	s := &scanner{text: text, g: g, pos: positions{text: text}, out: out}
	s.run()
	return s.out
}

type scanner struct {
	text string
	g    *lang.Grammar
	pos  positions
	out  []model.Comment
}

func (s *scanner) run() {
	text := s.text
	n := len(text)
	for i := 0; i < n; {
		if !s.g.MayStartToken(text[i]) {
			i++
			continue
		}
		c := s.match(i)
		switch c.kind {
		case tokenString:
			i = s.skipString(i+c.width, s.g.Strings[c.index])
		case tokenLine:
			end := lineEnd(text, i+c.width)
			s.emit(i, end, model.KindLine)
			i = end
		case tokenBlock:
			end := s.blockEnd(i+c.width, s.g.Blocks[c.index])
			s.emit(i, end, model.KindBlock)
			i = end
		default:
			i++
		}
	}
}

// match picks the longest token starting at i. Equal widths prefer strings,
// then line markers, then block openers.
func (s *scanner) match(i int) candidate {
	rest := s.text[i:]
	var best candidate
	for idx, r := range s.g.Strings {
		if strings.HasPrefix(rest, r.Open) {
			best = candidate{kind: tokenString, index: idx, width: len(r.Open)}
			break
		}
	}
	if s.markerAllowed(i) {
		if w := s.g.LineMarkerLen(rest); w > best.width {
			best = candidate{kind: tokenLine, width: w}
		}
	}
	for idx, b := range s.g.Blocks {
		if b.AtLineStart && !atLineStart(s.text, i) {
			continue
		}
		if strings.HasPrefix(rest, b.Open) {
			if len(b.Open) > best.width {
				best = candidate{kind: tokenBlock, index: idx, width: len(b.Open)}
			}
			break
		}
	}
	return best
}

func (s *scanner) markerAllowed(i int) bool {
	if !s.g.MarkerAtWordStart || i == 0 {
		return true
	}
	switch s.text[i-1] {
	case ' ', '\t', '\n', '\r', ';', '&', '|', '(', ')':
		return true
	}
	return false
}

// skipString returns the index just past the literal body starting at j.
func (s *scanner) skipString(j int, r lang.StringRule) int {
	text := s.text
	n := len(text)
	depth := 0
	for j < n {
		c := text[j]
		if r.Escape != 0 && c == r.Escape {
			j += 2
			continue
		}
		if r.Nest != 0 && c == r.Nest {
			depth++
			j++
			continue
		}
		if strings.HasPrefix(text[j:], r.Close) {
			if depth > 0 {
				depth--
				j += len(r.Close)
				continue
			}
			return j + len(r.Close)
		}
		if !r.Multiline && c == '\n' {
			return j
		}
		j++
	}
	return n
}

func (s *scanner) blockEnd(j int, r lang.BlockRule) int {
	text := s.text
	n := len(text)
	depth := 1
	for j < n {
		rest := text[j:]
		if strings.HasPrefix(rest, r.Close) && (!r.AtLineStart || atLineStart(text, j)) {
			depth--
			j += len(r.Close)
			if depth == 0 {
				return j
			}
			continue
		}
		if s.g.Nested && strings.HasPrefix(rest, r.Open) && (!r.AtLineStart || atLineStart(text, j)) {
			depth++
			j += len(r.Open)
			continue
		}
		j++
	}
	return n
}

func (s *scanner) emit(start, end int, kind model.Kind) {
	offset := s.pos.runeOffset(start)
	startLine, startCol := s.pos.lineCol(start)
	endLine, endCol := s.pos.lineCol(end)
	s.out = append(s.out, model.Comment{
		Offset: offset,
		Text:   s.text[start:end],
		Lang:   string(s.g.ID),
		Kind:   kind,
		Span: model.Span{
			StartLine: startLine,
			StartCol:  startCol,
			EndLine:   endLine,
			EndCol:    endCol,
			ByteStart: start,
			ByteEnd:   end,
		},
	})
}

func lineEnd(text string, j int) int {
	if idx := strings.IndexAny(text[j:], "\r\n"); idx >= 0 {
		return j + idx
	}
	return len(text)
}

func atLineStart(text string, i int) bool {
	return i == 0 || text[i-1] == '\n'
}

// positions converts byte offsets into rune offsets and line/column pairs.
// Offsets must be requested in non-decreasing order.
type positions struct {
	text     string
	byteMark int
	runeMark int
	lines    []int
}

func (p *positions) runeOffset(b int) int {
	p.runeMark += utf8.RuneCountInString(p.text[p.byteMark:b])
	p.byteMark = b
	return p.runeMark
}

func (p *positions) lineCol(b int) (line, col int) {
	if p.lines == nil {
		p.lines = computeLineStarts(p.text)
	}
	idx := sort.Search(len(p.lines), func(i int) bool { return p.lines[i] > b })
	start := p.lines[idx-1]
	return idx, utf8.RuneCountInString(p.text[start:b]) + 1
}

func computeLineStarts(text string) []int {
	starts := make([]int, 0, strings.Count(text, "\n")+1)
	starts = append(starts, 0)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
