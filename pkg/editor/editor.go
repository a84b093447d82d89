// Package editor hosts a line buffer and its highlighter behind a render callback,
// shared by the code editor and the terminal input line.
package editor

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"codeterm/pkg/buffer"
	"codeterm/pkg/highlight"
)

// DefaultTabWidth is the display width of a tab stop
const DefaultTabWidth = 4

// Surface receives the display markup of every line joined by newlines, the
// caret line and the caret's display cell within that line.
type Surface interface {
	Render(display string, caretLine, caretCell int)
}

// SurfaceFunc adapts a function to Surface
type SurfaceFunc func(display string, caretLine, caretCell int)

// Render calls f
func (f SurfaceFunc) Render(display string, caretLine, caretCell int) {
	f(display, caretLine, caretCell)
}

type lineCache struct {
	text   string
	caret  int
	markup string
}

// Editor owns a LineBuffer and keeps the markup of each line current
type Editor struct {
	buf        *buffer.LineBuffer
	hl         *highlight.Highlighter
	surface    Surface
	keymap     *Keymap
	tabWidth   int
	singleLine bool
	showCaret  bool

	cache     []lineCache
	functions int
}

// New creates a multi-line editor
func New(hl *highlight.Highlighter, surface Surface) *Editor {
	if hl == nil {
		hl = highlight.NewHighlighter(nil, nil)
	}
	return &Editor{
		buf:       buffer.New(),
		hl:        hl,
		surface:   surface,
		keymap:    DefaultKeymap(),
		tabWidth:  DefaultTabWidth,
		showCaret: true,
	}
}

// NewSingleLine creates an editor that holds exactly one line. Newline and
// vertical actions are left to the host.
func NewSingleLine(hl *highlight.Highlighter, surface Surface) *Editor {
	e := New(hl, surface)
	e.singleLine = true
	return e
}

// Buffer returns the underlying buffer. Callers that mutate it directly must call Refresh.
func (e *Editor) Buffer() *buffer.LineBuffer {
	return e.buf
}

// Highlighter returns the highlighter
func (e *Editor) Highlighter() *highlight.Highlighter {
	return e.hl
}

// Keymap returns the key bindings
func (e *Editor) Keymap() *Keymap {
	return e.keymap
}

// SetKeymap replaces the key bindings
func (e *Editor) SetKeymap(k *Keymap) {
	if k != nil {
		e.keymap = k
	}
}

// SetSurface replaces the render callback
func (e *Editor) SetSurface(s Surface) {
	e.surface = s
}

// SetTabWidth sets the display width of a tab stop
func (e *Editor) SetTabWidth(n int) {
	if n > 0 {
		e.tabWidth = n
	}
}

// SetShowCaret controls whether the caret glyph is rendered, used to show focus
func (e *Editor) SetShowCaret(show bool) {
	if e.showCaret != show {
		e.showCaret = show
		e.Refresh()
	}
}

// Text returns the buffer content
func (e *Editor) Text() string {
	return e.buf.Text()
}

// SetText replaces the content and moves the caret to the end
func (e *Editor) SetText(text string) {
	if e.singleLine {
		text = strings.NewReplacer("\r\n", " ", "\n", " ").Replace(text)
	}
	e.buf.SetText(text)
	last := e.buf.LineCount() - 1
	e.buf.SetCaret(buffer.Position{Line: last, Column: len(e.buf.Line(last))})
	e.Refresh()
}

// Reset empties the buffer
func (e *Editor) Reset() {
	e.buf.Reset()
	e.Refresh()
}

// InsertRune inserts r at the caret
func (e *Editor) InsertRune(r rune) {
	if r == '\n' || r == '\r' {
		e.Apply(ActionNewline)
		return
	}
	e.buf.InsertChar(r)
	e.Refresh()
}

// Apply performs an edit action. It returns false for actions the editor
// does not handle, which are left to the host.
func (e *Editor) Apply(a Action) bool {
	if !a.IsEdit() {
		return false
	}
	if e.singleLine {
		switch a {
		case ActionNewline, ActionMoveUp, ActionMoveDown, ActionDuplicateLine, ActionSwapUp, ActionSwapDown:
			return false
		}
	}

	switch a {
	case ActionMoveLeft:
		e.buf.MoveLeft()
	case ActionMoveRight:
		e.buf.MoveRight()
	case ActionMoveUp:
		e.buf.MoveUp()
	case ActionMoveDown:
		e.buf.MoveDown()
	case ActionWordLeft:
		e.buf.WordLeft()
	case ActionWordRight:
		e.buf.WordRight()
	case ActionHome:
		e.buf.Home()
	case ActionEnd:
		e.buf.End()
	case ActionBackspace:
		e.buf.Backspace()
	case ActionWordBackspace:
		e.buf.WordBackspace()
	case ActionDelete:
		e.buf.Delete()
	case ActionNewline:
		e.buf.Newline()
	case ActionInsertTab:
		e.buf.InsertTab()
	case ActionDuplicateLine:
		e.buf.DuplicateLine()
	case ActionSwapUp:
		e.buf.SwapWithAbove()
	case ActionSwapDown:
		e.buf.SwapWithBelow()
	}
	e.Refresh()
	return true
}

// HandleKey applies a key event. Printable runes are inserted; bound edit
// actions are applied. The resolved action is returned with handled=false
// when the host must act on it.
func (e *Editor) HandleKey(ev *tcell.EventKey) (Action, bool) {
	if a, ok := e.keymap.Resolve(ev); ok {
		return a, e.Apply(a)
	}
	if ev.Key() == tcell.KeyRune && ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt) == 0 {
		e.InsertRune(ev.Rune())
		return ActionNone, true
	}
	return ActionNone, false
}

// Refresh recomputes the markup of lines whose text or caret changed and
// hands the display to the surface. New function definitions invalidate
// every line.
func (e *Editor) Refresh() {
	e.hl.Functions.Scan(e.buf.Text())
	if n := e.hl.Functions.Len(); n != e.functions {
		e.functions = n
		e.cache = nil
	}

	caret := e.buf.Caret()
	count := e.buf.LineCount()
	if len(e.cache) > count {
		e.cache = e.cache[:count]
	}
	for i := 0; i < count; i++ {
		text := e.buf.Line(i)
		col := -1
		if i == caret.Line && e.showCaret {
			col = caret.Column
		}
		if i < len(e.cache) && e.cache[i].text == text && e.cache[i].caret == col && e.cache[i].markup != "" {
			continue
		}
		entry := lineCache{text: text, caret: col, markup: e.hl.Render(text, col, i == 0)}
		if i < len(e.cache) {
			e.cache[i] = entry
		} else {
			e.cache = append(e.cache, entry)
		}
	}

	if e.surface != nil {
		e.surface.Render(e.Display(), caret.Line, e.CaretCell())
	}
}

// Display returns the markup of every line joined by newlines
func (e *Editor) Display() string {
	if len(e.cache) != e.buf.LineCount() {
		e.Refresh()
	}
	lines := make([]string, len(e.cache))
	for i, c := range e.cache {
		lines[i] = c.markup
	}
	return strings.Join(lines, "\n")
}

// LineMarkup returns the cached markup of line i, without the display prefix
func (e *Editor) LineMarkup(i int) string {
	if i < 0 || i >= e.buf.LineCount() {
		return ""
	}
	col := -1
	if c := e.buf.Caret(); c.Line == i && e.showCaret {
		col = c.Column
	}
	return e.hl.Markup(e.buf.Line(i), col)
}

// CaretCell returns the display cell of the caret within its line
func (e *Editor) CaretCell() int {
	c := e.buf.Caret()
	return DisplayWidth(e.buf.Line(c.Line)[:c.Column], e.tabWidth)
}

// DisplayWidth returns the number of terminal cells s occupies, expanding
// tabs to the next multiple of tabWidth.
func DisplayWidth(s string, tabWidth int) int {
	if tabWidth <= 0 {
		tabWidth = DefaultTabWidth
	}
	w := 0
	for _, r := range s {
		if r == '\t' {
			w += tabWidth - w%tabWidth
			continue
		}
		w += runewidth.RuneWidth(r)
	}
	return w
}

// ExpandTabs replaces tabs with spaces up to the next tab stop
func ExpandTabs(s string, tabWidth int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	if tabWidth <= 0 {
		tabWidth = DefaultTabWidth
	}
	var sb strings.Builder
	w := 0
	for _, r := range s {
		if r == '\t' {
			n := tabWidth - w%tabWidth
			sb.WriteString(strings.Repeat(" ", n))
			w += n
			continue
		}
		sb.WriteRune(r)
		w += runewidth.RuneWidth(r)
	}
	return sb.String()
}
