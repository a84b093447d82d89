// Package buffer provides the line buffer shared by every editing surface
package buffer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Position is a caret position expressed as (line index, column index).
// Columns are byte offsets into the line and always fall on a rune boundary.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String returns the string representation of Position
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// LineBuffer is an ordered sequence of text lines plus a single caret.
// The buffer is never empty: it always holds at least one (possibly blank) line.
type LineBuffer struct {
	lines []string
	caret Position
}

// New creates an empty buffer with one blank line and the caret at the origin
func New() *LineBuffer {
	return &LineBuffer{lines: []string{""}}
}

// NewFromText creates a buffer holding text, with the caret at the origin
func NewFromText(text string) *LineBuffer {
	b := New()
	b.SetText(text)
	return b
}

// SetText replaces the whole content of the buffer and moves the caret to the origin
func (b *LineBuffer) SetText(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	b.lines = strings.Split(text, "\n")
	b.caret = Position{}
}

// Reset empties the buffer
func (b *LineBuffer) Reset() {
	b.lines = []string{""}
	b.caret = Position{}
}

// Text returns the buffer content joined with newlines
func (b *LineBuffer) Text() string {
	return strings.Join(b.lines, "\n")
}

// Lines returns a copy of the buffer lines
func (b *LineBuffer) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Line returns the line at index i, or "" when i is out of range
func (b *LineBuffer) Line(i int) string {
	if i < 0 || i >= len(b.lines) {
		return ""
	}
	return b.lines[i]
}

// LineCount returns the number of lines in the buffer
func (b *LineBuffer) LineCount() int {
	return len(b.lines)
}

// Caret returns the current caret position
func (b *LineBuffer) Caret() Position {
	return b.caret
}

// CurrentLine returns the line the caret is on
func (b *LineBuffer) CurrentLine() string {
	return b.lines[b.caret.Line]
}

// SetCaret moves the caret, clamping it into the buffer
func (b *LineBuffer) SetCaret(pos Position) {
	if pos.Line < 0 {
		pos.Line = 0
	}
	if pos.Line >= len(b.lines) {
		pos.Line = len(b.lines) - 1
	}
	b.caret.Line = pos.Line
	b.caret.Column = pos.Column
	b.clampColumn()
}

// AppendLine appends a line at the end of the buffer and moves the caret to its end.
// Used by append-only surfaces such as the terminal scrollback.
func (b *LineBuffer) AppendLine(line string) {
	if len(b.lines) == 1 && b.lines[0] == "" {
		b.lines[0] = line
	} else {
		b.lines = append(b.lines, line)
	}
	b.caret = Position{Line: len(b.lines) - 1, Column: len(line)}
}

// InsertChar inserts a rune at the caret and advances the caret past it
func (b *LineBuffer) InsertChar(r rune) {
	line := b.lines[b.caret.Line]
	col := b.caret.Column
	s := string(r)
	b.lines[b.caret.Line] = line[:col] + s + line[col:]
	b.caret.Column += len(s)
}

// InsertString inserts s at the caret; newlines in s split lines like Newline
func (b *LineBuffer) InsertString(s string) {
	for _, r := range s {
		switch r {
		case '\n':
			b.Newline()
		case '\r':
		default:
			b.InsertChar(r)
		}
	}
}

// InsertTab inserts a tab character at the caret
func (b *LineBuffer) InsertTab() {
	b.InsertChar('\t')
}

// Newline splits the current line at the caret, carrying the leading tab
// indentation of the current line over to the new line.
func (b *LineBuffer) Newline() {
	line := b.lines[b.caret.Line]
	indent := leadingTabs(line)
	left, right := line[:b.caret.Column], line[b.caret.Column:]

	b.lines[b.caret.Line] = left
	b.insertLine(b.caret.Line+1, indent+right)

	b.caret = Position{Line: b.caret.Line + 1, Column: len(indent)}
}

// Backspace deletes the rune left of the caret. At column 0 it merges the
// current line onto the previous one; at the origin it does nothing.
func (b *LineBuffer) Backspace() {
	if b.caret.Column > 0 {
		line := b.lines[b.caret.Line]
		_, size := utf8.DecodeLastRuneInString(line[:b.caret.Column])
		b.lines[b.caret.Line] = line[:b.caret.Column-size] + line[b.caret.Column:]
		b.caret.Column -= size
		return
	}
	if b.caret.Line == 0 {
		return
	}

	prev := b.caret.Line - 1
	prevLen := len(b.lines[prev])
	b.lines[prev] += b.lines[b.caret.Line]
	b.deleteLine(b.caret.Line)
	b.caret = Position{Line: prev, Column: prevLen}
}

// Delete deletes the rune right of the caret, merging the next line at end of line
func (b *LineBuffer) Delete() {
	line := b.lines[b.caret.Line]
	if b.caret.Column < len(line) {
		_, size := utf8.DecodeRuneInString(line[b.caret.Column:])
		b.lines[b.caret.Line] = line[:b.caret.Column] + line[b.caret.Column+size:]
		return
	}
	if b.caret.Line == len(b.lines)-1 {
		return
	}
	b.lines[b.caret.Line] += b.lines[b.caret.Line+1]
	b.deleteLine(b.caret.Line + 1)
}

// WordBackspace deletes from the caret back to the nearest preceding space
// (exclusive), or to the line start when there is none. The character directly
// left of the caret is always deleted, so repeated calls make progress.
func (b *LineBuffer) WordBackspace() {
	if b.caret.Column == 0 {
		b.Backspace()
		return
	}

	line := b.lines[b.caret.Line]
	_, size := utf8.DecodeLastRuneInString(line[:b.caret.Column])
	start := strings.LastIndexByte(line[:b.caret.Column-size], ' ') + 1

	b.lines[b.caret.Line] = line[:start] + line[b.caret.Column:]
	b.caret.Column = start
}

// MoveLeft moves the caret one rune left, wrapping to the end of the previous line
func (b *LineBuffer) MoveLeft() {
	if b.caret.Column > 0 {
		_, size := utf8.DecodeLastRuneInString(b.lines[b.caret.Line][:b.caret.Column])
		b.caret.Column -= size
		return
	}
	if b.caret.Line > 0 {
		b.caret.Line--
		b.caret.Column = len(b.lines[b.caret.Line])
	}
}

// MoveRight moves the caret one rune right, wrapping to the start of the next line
func (b *LineBuffer) MoveRight() {
	line := b.lines[b.caret.Line]
	if b.caret.Column < len(line) {
		_, size := utf8.DecodeRuneInString(line[b.caret.Column:])
		b.caret.Column += size
		return
	}
	if b.caret.Line < len(b.lines)-1 {
		b.caret.Line++
		b.caret.Column = 0
	}
}

// WordLeft jumps onto the nearest space or tab left of the caret, falling
// back to the line start, and wrapping to the previous line from column 0.
func (b *LineBuffer) WordLeft() {
	if b.caret.Column == 0 {
		b.MoveLeft()
		return
	}

	line := b.lines[b.caret.Line]
	_, size := utf8.DecodeLastRuneInString(line[:b.caret.Column])
	i := strings.LastIndexAny(line[:b.caret.Column-size], " \t")
	if i < 0 {
		i = 0
	}
	b.caret.Column = i
}

// WordRight jumps onto the nearest space or tab right of the caret, falling
// back to the line end, and wrapping to the next line from end of line.
func (b *LineBuffer) WordRight() {
	line := b.lines[b.caret.Line]
	if b.caret.Column == len(line) {
		b.MoveRight()
		return
	}

	_, size := utf8.DecodeRuneInString(line[b.caret.Column:])
	from := b.caret.Column + size
	i := strings.IndexAny(line[from:], " \t")
	if i < 0 {
		b.caret.Column = len(line)
		return
	}
	b.caret.Column = from + i
}

// MoveUp moves the caret one line up, clamping the column to the new line
func (b *LineBuffer) MoveUp() {
	if b.caret.Line == 0 {
		return
	}
	b.caret.Line--
	b.clampColumn()
}

// MoveDown moves the caret one line down, clamping the column to the new line
func (b *LineBuffer) MoveDown() {
	if b.caret.Line >= len(b.lines)-1 {
		return
	}
	b.caret.Line++
	b.clampColumn()
}

// Home moves the caret to the start of the current line
func (b *LineBuffer) Home() {
	b.caret.Column = 0
}

// End moves the caret to the end of the current line
func (b *LineBuffer) End() {
	b.caret.Column = len(b.lines[b.caret.Line])
}

// DuplicateLine inserts a copy of the current line below it and moves the
// caret onto the copy, keeping the column.
func (b *LineBuffer) DuplicateLine() {
	b.insertLine(b.caret.Line+1, b.lines[b.caret.Line])
	b.caret.Line++
}

// SwapWithAbove exchanges the current line with the one above; the caret follows its line
func (b *LineBuffer) SwapWithAbove() {
	if b.caret.Line == 0 {
		return
	}
	i := b.caret.Line
	b.lines[i-1], b.lines[i] = b.lines[i], b.lines[i-1]
	b.caret.Line = i - 1
	b.clampColumn()
}

// SwapWithBelow exchanges the current line with the one below; the caret follows its line
func (b *LineBuffer) SwapWithBelow() {
	if b.caret.Line >= len(b.lines)-1 {
		return
	}
	i := b.caret.Line
	b.lines[i+1], b.lines[i] = b.lines[i], b.lines[i+1]
	b.caret.Line = i + 1
	b.clampColumn()
}

// Indent returns the leading tab indentation of line i
func (b *LineBuffer) Indent(i int) string {
	return leadingTabs(b.Line(i))
}

func (b *LineBuffer) insertLine(at int, s string) {
	b.lines = append(b.lines, "")
	copy(b.lines[at+1:], b.lines[at:])
	b.lines[at] = s
}

func (b *LineBuffer) deleteLine(at int) {
	b.lines = append(b.lines[:at], b.lines[at+1:]...)
	if len(b.lines) == 0 {
		b.lines = []string{""}
	}
}

// clampColumn keeps the caret column inside the current line and on a rune boundary
func (b *LineBuffer) clampColumn() {
	line := b.lines[b.caret.Line]
	if b.caret.Column > len(line) {
		b.caret.Column = len(line)
	}
	if b.caret.Column < 0 {
		b.caret.Column = 0
	}
	for b.caret.Column > 0 && b.caret.Column < len(line) && !utf8.RuneStart(line[b.caret.Column]) {
		b.caret.Column--
	}
}

func leadingTabs(line string) string {
	n := 0
	for n < len(line) && line[n] == '\t' {
		n++
	}
	return line[:n]
}
