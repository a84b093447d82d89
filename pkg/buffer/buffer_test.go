package buffer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// bufferAt builds a buffer from text with the caret at pos
func bufferAt(text string, pos Position) *LineBuffer {
	b := NewFromText(text)
	b.SetCaret(pos)
	return b
}

func TestNew(t *testing.T) {
	b := New()

	if b.LineCount() != 1 {
		t.Errorf("LineCount() = %d, want 1", b.LineCount())
	}
	if b.Caret() != (Position{}) {
		t.Errorf("Caret() = %v, want 0:0", b.Caret())
	}
	if b.Text() != "" {
		t.Errorf("Text() = %q, want empty", b.Text())
	}
}

func TestLineBuffer_Edits(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		caret     Position
		edit      func(b *LineBuffer)
		wantLines []string
		wantCaret Position
	}{
		{
			name:      "insert char mid line",
			text:      "hllo",
			caret:     Position{0, 1},
			edit:      func(b *LineBuffer) { b.InsertChar('e') },
			wantLines: []string{"hello"},
			wantCaret: Position{0, 2},
		},
		{
			name:      "insert tab",
			text:      "x",
			caret:     Position{0, 0},
			edit:      func(b *LineBuffer) { b.InsertTab() },
			wantLines: []string{"\tx"},
			wantCaret: Position{0, 1},
		},
		{
			name:      "newline splits and keeps tab indent",
			text:      "\t\tfoo(bar)",
			caret:     Position{0, 6},
			edit:      func(b *LineBuffer) { b.Newline() },
			wantLines: []string{"\t\tfoo(", "\t\tbar)"},
			wantCaret: Position{1, 2},
		},
		{
			name:      "newline at end of line yields indent only",
			text:      "\tif x:",
			caret:     Position{0, 6},
			edit:      func(b *LineBuffer) { b.Newline() },
			wantLines: []string{"\tif x:", "\t"},
			wantCaret: Position{1, 1},
		},
		{
			name:      "newline ignores space indentation",
			text:      "    x",
			caret:     Position{0, 5},
			edit:      func(b *LineBuffer) { b.Newline() },
			wantLines: []string{"    x", ""},
			wantCaret: Position{1, 0},
		},
		{
			name:      "backspace mid line",
			text:      "abc",
			caret:     Position{0, 2},
			edit:      func(b *LineBuffer) { b.Backspace() },
			wantLines: []string{"ac"},
			wantCaret: Position{0, 1},
		},
		{
			name:      "backspace at column zero merges lines",
			text:      "foo\nbar",
			caret:     Position{1, 0},
			edit:      func(b *LineBuffer) { b.Backspace() },
			wantLines: []string{"foobar"},
			wantCaret: Position{0, 3},
		},
		{
			name:      "backspace at origin is a no-op",
			text:      "foo",
			caret:     Position{0, 0},
			edit:      func(b *LineBuffer) { b.Backspace() },
			wantLines: []string{"foo"},
			wantCaret: Position{0, 0},
		},
		{
			name:      "backspace removes a whole multibyte rune",
			text:      "aé",
			caret:     Position{0, 3},
			edit:      func(b *LineBuffer) { b.Backspace() },
			wantLines: []string{"a"},
			wantCaret: Position{0, 1},
		},
		{
			name:      "word backspace to previous space",
			text:      "print hello",
			caret:     Position{0, 11},
			edit:      func(b *LineBuffer) { b.WordBackspace() },
			wantLines: []string{"print "},
			wantCaret: Position{0, 6},
		},
		{
			name:      "word backspace after trailing space",
			text:      "foo bar ",
			caret:     Position{0, 8},
			edit:      func(b *LineBuffer) { b.WordBackspace() },
			wantLines: []string{"foo "},
			wantCaret: Position{0, 4},
		},
		{
			name:      "word backspace without space clears to line start",
			text:      "x = 1\nabc",
			caret:     Position{1, 2},
			edit:      func(b *LineBuffer) { b.WordBackspace() },
			wantLines: []string{"x = 1", "c"},
			wantCaret: Position{1, 0},
		},
		{
			name:      "word backspace at column zero degrades to backspace",
			text:      "a\nb",
			caret:     Position{1, 0},
			edit:      func(b *LineBuffer) { b.WordBackspace() },
			wantLines: []string{"ab"},
			wantCaret: Position{0, 1},
		},
		{
			name:      "delete merges next line at end of line",
			text:      "ab\ncd",
			caret:     Position{0, 2},
			edit:      func(b *LineBuffer) { b.Delete() },
			wantLines: []string{"abcd"},
			wantCaret: Position{0, 2},
		},
		{
			name:      "duplicate line",
			text:      "one\ntwo",
			caret:     Position{0, 2},
			edit:      func(b *LineBuffer) { b.DuplicateLine() },
			wantLines: []string{"one", "one", "two"},
			wantCaret: Position{1, 2},
		},
		{
			name:      "swap with above",
			text:      "a\nbbb",
			caret:     Position{1, 3},
			edit:      func(b *LineBuffer) { b.SwapWithAbove() },
			wantLines: []string{"bbb", "a"},
			wantCaret: Position{0, 3},
		},
		{
			name:      "swap with above on first line is a no-op",
			text:      "a\nb",
			caret:     Position{0, 1},
			edit:      func(b *LineBuffer) { b.SwapWithAbove() },
			wantLines: []string{"a", "b"},
			wantCaret: Position{0, 1},
		},
		{
			name:      "swap with below",
			text:      "x\ny\nz",
			caret:     Position{1, 1},
			edit:      func(b *LineBuffer) { b.SwapWithBelow() },
			wantLines: []string{"x", "z", "y"},
			wantCaret: Position{2, 1},
		},
		{
			name:      "swap with below on last line is a no-op",
			text:      "x\ny",
			caret:     Position{1, 0},
			edit:      func(b *LineBuffer) { b.SwapWithBelow() },
			wantLines: []string{"x", "y"},
			wantCaret: Position{1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bufferAt(tt.text, tt.caret)
			tt.edit(b)

			if diff := cmp.Diff(tt.wantLines, b.Lines()); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}
			if b.Caret() != tt.wantCaret {
				t.Errorf("Caret() = %v, want %v", b.Caret(), tt.wantCaret)
			}
		})
	}
}

func TestLineBuffer_Movement(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		caret Position
		move  func(b *LineBuffer)
		want  Position
	}{
		{"left within line", "abc", Position{0, 2}, (*LineBuffer).MoveLeft, Position{0, 1}},
		{"left wraps to previous line end", "abc\nde", Position{1, 0}, (*LineBuffer).MoveLeft, Position{0, 3}},
		{"left at origin", "abc", Position{0, 0}, (*LineBuffer).MoveLeft, Position{0, 0}},
		{"right within line", "abc", Position{0, 1}, (*LineBuffer).MoveRight, Position{0, 2}},
		{"right wraps to next line start", "ab\ncd", Position{0, 2}, (*LineBuffer).MoveRight, Position{1, 0}},
		{"right at end of last line", "ab", Position{0, 2}, (*LineBuffer).MoveRight, Position{0, 2}},
		{"up clamps column", "ab\nlonger", Position{1, 6}, (*LineBuffer).MoveUp, Position{0, 2}},
		{"up on first line", "ab", Position{0, 1}, (*LineBuffer).MoveUp, Position{0, 1}},
		{"down clamps column to empty line", "abc\n", Position{0, 3}, (*LineBuffer).MoveDown, Position{1, 0}},
		{"down on last line", "ab", Position{0, 1}, (*LineBuffer).MoveDown, Position{0, 1}},
		{"word left to space", "foo bar baz", Position{0, 11}, (*LineBuffer).WordLeft, Position{0, 7}},
		{"word left from after space", "foo bar", Position{0, 4}, (*LineBuffer).WordLeft, Position{0, 0}},
		{"word left to tab", "\tfoo", Position{0, 4}, (*LineBuffer).WordLeft, Position{0, 0}},
		{"word left wraps at column zero", "ab\ncd", Position{1, 0}, (*LineBuffer).WordLeft, Position{0, 2}},
		{"word right to space", "foo bar", Position{0, 0}, (*LineBuffer).WordRight, Position{0, 3}},
		{"word right falls back to line end", "foo bar", Position{0, 3}, (*LineBuffer).WordRight, Position{0, 7}},
		{"word right wraps at line end", "foo\nbar", Position{0, 3}, (*LineBuffer).WordRight, Position{1, 0}},
		{"home", "\tfoo", Position{0, 3}, (*LineBuffer).Home, Position{0, 0}},
		{"end", "\tfoo", Position{0, 1}, (*LineBuffer).End, Position{0, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bufferAt(tt.text, tt.caret)
			tt.move(b)
			if b.Caret() != tt.want {
				t.Errorf("Caret() = %v, want %v", b.Caret(), tt.want)
			}
		})
	}
}

func TestLineBuffer_EmptyBufferIsSafe(t *testing.T) {
	ops := map[string]func(b *LineBuffer){
		"Backspace":     (*LineBuffer).Backspace,
		"WordBackspace": (*LineBuffer).WordBackspace,
		"Delete":        (*LineBuffer).Delete,
		"MoveLeft":      (*LineBuffer).MoveLeft,
		"MoveRight":     (*LineBuffer).MoveRight,
		"WordLeft":      (*LineBuffer).WordLeft,
		"WordRight":     (*LineBuffer).WordRight,
		"MoveUp":        (*LineBuffer).MoveUp,
		"MoveDown":      (*LineBuffer).MoveDown,
		"SwapWithAbove": (*LineBuffer).SwapWithAbove,
		"SwapWithBelow": (*LineBuffer).SwapWithBelow,
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			b := New()
			op(b)
			if b.LineCount() != 1 || b.Text() != "" {
				t.Errorf("%s on empty buffer changed content: %q", name, b.Lines())
			}
			if b.Caret() != (Position{}) {
				t.Errorf("%s on empty buffer moved caret to %v", name, b.Caret())
			}
		})
	}
}

func TestLineBuffer_InsertBackspaceInverse(t *testing.T) {
	texts := []string{"", "def f(x):\n\treturn x", "a\n\nb", "naïve"}
	inserts := "hello, wörld\t#!"

	for _, text := range texts {
		for line := 0; line < len(NewFromText(text).Lines()); line++ {
			b := NewFromText(text)
			b.SetCaret(Position{Line: line, Column: len(b.Line(line))})
			start := b.Caret()

			for _, r := range inserts {
				b.InsertChar(r)
			}
			for range inserts {
				b.Backspace()
				if b.LineCount() == 0 {
					t.Fatalf("buffer became empty")
				}
			}

			if b.Text() != text {
				t.Errorf("Text() = %q, want %q", b.Text(), text)
			}
			if b.Caret() != start {
				t.Errorf("Caret() = %v, want %v", b.Caret(), start)
			}
		}
	}
}

func TestLineBuffer_NewlineBackspaceRestores(t *testing.T) {
	for col := 0; col <= len("return value"); col++ {
		b := bufferAt("return value", Position{0, col})

		b.Newline()
		if b.Caret() != (Position{1, 0}) {
			t.Fatalf("after Newline caret = %v, want 1:0", b.Caret())
		}
		b.Backspace()

		if diff := cmp.Diff([]string{"return value"}, b.Lines()); diff != "" {
			t.Errorf("col %d: lines mismatch (-want +got):\n%s", col, diff)
		}
		if b.Caret() != (Position{0, col}) {
			t.Errorf("col %d: Caret() = %v, want %v", col, b.Caret(), Position{0, col})
		}
	}
}

func TestLineBuffer_AppendLine(t *testing.T) {
	b := New()
	b.AppendLine("first")
	b.AppendLine("second")

	if diff := cmp.Diff([]string{"first", "second"}, b.Lines()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	if b.Caret() != (Position{1, 6}) {
		t.Errorf("Caret() = %v, want 1:6", b.Caret())
	}
}

func TestLineBuffer_SetCaretClamps(t *testing.T) {
	b := NewFromText("ab\ncd")

	b.SetCaret(Position{Line: 5, Column: 9})
	if b.Caret() != (Position{1, 2}) {
		t.Errorf("Caret() = %v, want 1:2", b.Caret())
	}

	b.SetCaret(Position{Line: -1, Column: -3})
	if b.Caret() != (Position{0, 0}) {
		t.Errorf("Caret() = %v, want 0:0", b.Caret())
	}
}

func TestLineBuffer_InsertString(t *testing.T) {
	b := New()
	b.InsertString("\tif x:\r\nreturn")

	if diff := cmp.Diff([]string{"\tif x:", "\treturn"}, b.Lines()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}
