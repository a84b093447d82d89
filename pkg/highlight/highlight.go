// Package highlight derives colored display markup for single lines of source code
package highlight

import (
	"sort"
	"strings"
)

// Class is the classification of a span of source text
type Class int

const (
	Plain Class = iota
	Keyword
	BuiltinFunction
	UserFunction
	StringLiteral
	Comment
)

// String returns the string representation of Class
func (c Class) String() string {
	names := []string{"plain", "keyword", "builtin", "function", "string", "comment"}
	if int(c) >= 0 && int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

// Span is a classified half-open byte range [Start, End) of a line
type Span struct {
	Start int
	End   int
	Class Class
}

// DefaultCaret is the glyph inserted at the caret position
const DefaultCaret = "|"

// Keywords of the scripting language
var Keywords = []string{
	"and", "as", "assert", "break", "class", "continue", "def", "del", "elif",
	"else", "except", "False", "finally", "for", "from", "global", "if", "import",
	"in", "is", "lambda", "None", "nonlocal", "not", "or", "pass", "raise",
	"return", "True", "try", "while", "with", "yield",
}

// Builtins of the scripting language
var Builtins = []string{
	"abs", "all", "any", "bool", "chr", "dict", "enumerate", "filter", "float",
	"input", "int", "isinstance", "len", "list", "map", "max", "min", "ord",
	"print", "range", "reversed", "round", "set", "sorted", "str", "sum",
	"tuple", "type", "zip",
}

// Highlighter classifies lines and renders them as markup
type Highlighter struct {
	Functions *FunctionRegistry
	Palette   Palette
	Caret     string

	keywords []string
	builtins []string
}

// NewHighlighter creates a highlighter over the given function registry
func NewHighlighter(functions *FunctionRegistry, palette Palette) *Highlighter {
	if functions == nil {
		functions = NewFunctionRegistry()
	}
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Highlighter{
		Functions: functions,
		Palette:   palette,
		Caret:     DefaultCaret,
		keywords:  Keywords,
		builtins:  Builtins,
	}
}

// Spans classifies a line. Only classified spans are returned, ordered and
// non-overlapping; everything else is plain text.
func (h *Highlighter) Spans(line string) []Span {
	s := &scanner{h: h, line: line}
	s.run()
	sort.Slice(s.spans, func(i, j int) bool { return s.spans[i].Start < s.spans[j].Start })
	return s.spans
}

// Markup renders a line with color tags. caret is the caret column within
// this line, or a negative value when the caret is elsewhere.
func (h *Highlighter) Markup(line string, caret int) string {
	var sb strings.Builder
	pos := 0
	for _, sp := range h.Spans(line) {
		h.writeText(&sb, line, pos, sp.Start, caret)
		sb.WriteString("<color=")
		sb.WriteString(h.Palette.Color(sp.Class))
		sb.WriteString(">")
		h.writeText(&sb, line, sp.Start, sp.End, caret)
		sb.WriteString("</color>")
		pos = sp.End
	}
	h.writeText(&sb, line, pos, len(line), caret)
	if caret == len(line) {
		sb.WriteString(h.Caret)
	}
	return sb.String()
}

// Render returns the display string of a line: Markup with a single leading
// space, preceded by a blank line when it is the first line of the surface.
func (h *Highlighter) Render(line string, caret int, first bool) string {
	prefix := " "
	if first {
		prefix = "\n "
	}
	return prefix + h.Markup(line, caret)
}

// writeText writes line[from:to], inserting the caret glyph when it falls in that range
func (h *Highlighter) writeText(sb *strings.Builder, line string, from, to, caret int) {
	if caret >= from && caret < to {
		sb.WriteString(line[from:caret])
		sb.WriteString(h.Caret)
		sb.WriteString(line[caret:to])
		return
	}
	sb.WriteString(line[from:to])
}

// match finds the best known name inside seg. The longest name wins; on equal
// length user functions beat builtins, which beat keywords.
func (h *Highlighter) match(seg string) (start int, name string, class Class) {
	start = -1
	try := func(names []string, c Class) {
		for _, n := range names {
			if len(n) < len(name) || (len(n) == len(name) && class >= c) {
				continue
			}
			if i := strings.Index(seg, n); i >= 0 {
				start, name, class = i, n, c
			}
		}
	}
	try(h.Functions.Names(), UserFunction)
	try(h.builtins, BuiltinFunction)
	try(h.keywords, Keyword)
	return start, name, class
}

// scanner walks one line token by token
type scanner struct {
	h     *Highlighter
	line  string
	spans []Span

	inString  bool
	quote     byte
	stringOff int
	commentAt int
}

func (s *scanner) emit(start, end int, class Class) {
	if end > start {
		s.spans = append(s.spans, Span{Start: start, End: end, Class: class})
	}
}

func (s *scanner) run() {
	i := 0
	for i < len(s.line) {
		if isSpace(s.line[i]) {
			i++
			continue
		}
		j := i
		for j < len(s.line) && !isSpace(s.line[j]) {
			j++
		}
		if s.token(i, s.line[i:j]) {
			// Comment: the rest of the line is done.
			s.emit(i+s.commentAt, len(s.line), Comment)
			return
		}
		i = j
	}
	if s.inString {
		s.emit(s.stringOff, len(s.line), StringLiteral)
	}
}

// token classifies one whitespace-delimited token and reports whether a
// comment starts in it; commentAt then holds its offset from the token start.
func (s *scanner) token(off int, tok string) bool {
	s.commentAt = 0
	return s.segment(off, tok, off)
}

// segment classifies tok (a suffix of the token starting at tokOff) and
// reports whether a comment starts in it.
func (s *scanner) segment(off int, tok string, tokOff int) bool {
	if tok == "" {
		return false
	}

	if s.inString {
		k := strings.IndexByte(tok, s.quote)
		if k < 0 {
			return false
		}
		s.emit(s.stringOff, off+k+1, StringLiteral)
		s.inString = false
		return s.segment(off+k+1, tok[k+1:], tokOff)
	}

	q := strings.IndexAny(tok, `'"`)
	hash := strings.IndexByte(tok, '#')

	if hash >= 0 && (q < 0 || hash < q) {
		s.names(off, tok[:hash])
		s.commentAt = off + hash - tokOff
		return true
	}

	if q >= 0 {
		s.names(off, tok[:q])
		quote := tok[q]
		if m := strings.IndexByte(tok[q+1:], quote); m >= 0 {
			end := q + 1 + m + 1
			s.emit(off+q, off+end, StringLiteral)
			return s.segment(off+end, tok[end:], tokOff)
		}
		s.inString = true
		s.quote = quote
		s.stringOff = off + q
		return false
	}

	s.names(off, tok)
	return false
}

// names classifies a quote- and comment-free segment
func (s *scanner) names(off int, seg string) {
	if seg == "" {
		return
	}
	if i, name, class := s.h.match(seg); i >= 0 {
		s.emit(off+i, off+i+len(name), class)
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
