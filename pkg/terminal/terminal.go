// Package terminal provides the command terminal session: scrollback,
// input line, command history and the submit flow.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"codeterm/pkg/command"
	"codeterm/pkg/editor"
	"codeterm/pkg/highlight"
	"codeterm/pkg/history"
	"codeterm/pkg/persist"
	"codeterm/pkg/vfs"
)

// DefaultMaxScrollback bounds the scrollback of a session
const DefaultMaxScrollback = 2000

// PromptSuffix follows the working path in the prompt
const PromptSuffix = "> "

// Options configures a Session
type Options struct {
	Tree          *vfs.Tree
	Store         persist.Store
	Content       command.ContentSource
	Puzzles       command.PuzzleOpener
	History       history.HistoryManager
	Highlighter   *highlight.Highlighter
	Logger        *log.Logger
	MaxScrollback int
	Banner        []string
}

// Validate checks that the options can build a session
func (o Options) Validate() error {
	if o.Tree == nil {
		return fmt.Errorf("tree cannot be nil")
	}
	if o.MaxScrollback < 0 {
		return fmt.Errorf("max scrollback cannot be negative: %d", o.MaxScrollback)
	}
	return nil
}

// Session is one terminal: the lines printed so far, the line being typed
// and the state commands run against. It is driven from a single goroutine.
type Session struct {
	ID        string
	StartTime time.Time

	env        *command.Env
	dispatcher *command.Dispatcher
	input      *editor.Editor
	manager    history.HistoryManager
	cursor     *history.Cursor
	logger     *log.Logger

	scrollback    []string
	maxScrollback int
	offset        int
}

// NewSession creates a session positioned at the root of the tree. Commands
// already in the history manager are available for replay.
func NewSession(opts Options) (*Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid terminal options: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.History == nil {
		opts.History = history.NewMemoryHistoryManager(history.DefaultMaxEntries)
	}
	if opts.MaxScrollback == 0 {
		opts.MaxScrollback = DefaultMaxScrollback
	}

	commands, err := opts.History.Commands()
	if err != nil {
		return nil, fmt.Errorf("failed to load command history: %w", err)
	}

	s := &Session{
		ID:            uuid.NewString(),
		StartTime:     time.Now(),
		dispatcher:    command.NewDispatcher(),
		input:         editor.NewSingleLine(opts.Highlighter, nil),
		manager:       opts.History,
		cursor:        history.NewCursor(commands),
		logger:        opts.Logger,
		maxScrollback: opts.MaxScrollback,
	}

	env := command.NewEnv(opts.Tree, opts.Store, s)
	env.Content = opts.Content
	env.Puzzles = opts.Puzzles
	env.History = s
	env.Logger = opts.Logger
	s.env = env

	for _, line := range opts.Banner {
		s.Println(line)
	}
	s.logger.Debug("terminal session started", "id", s.ID, "history", len(commands))
	return s, nil
}

// Env returns the session's command environment
func (s *Session) Env() *command.Env {
	return s.env
}

// Dispatcher returns the command dispatcher, for registering extra commands
func (s *Session) Dispatcher() *command.Dispatcher {
	return s.dispatcher
}

// Input returns the input line editor
func (s *Session) Input() *editor.Editor {
	return s.input
}

// Prompt returns the prompt shown before the input line
func (s *Session) Prompt() string {
	return s.env.WorkingPath() + PromptSuffix
}

// Println appends text to the scrollback, one entry per line, and records
// it in the transcript.
func (s *Session) Println(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		s.appendLine(line)
		s.writeEntry(line, history.DirectionOutput)
	}
}

// Clear empties the scrollback. The transcript keeps everything.
func (s *Session) Clear() {
	s.scrollback = nil
	s.offset = 0
}

// Record adds a submitted line to the command history
func (s *Session) Record(line string) {
	s.cursor.Push(line)
	s.writeEntry(line, history.DirectionInput)
}

// Commands returns the command history, oldest first
func (s *Session) Commands() []string {
	return s.cursor.Commands()
}

// Scrollback returns a copy of the printed lines
func (s *Session) Scrollback() []string {
	return append([]string(nil), s.scrollback...)
}

// Submit echoes the input line after the prompt, empties it and executes
// it. Command failures have already been printed when they are returned.
func (s *Session) Submit() error {
	line := s.input.Text()
	s.appendLine(s.Prompt() + line)
	s.input.Reset()
	s.offset = 0
	return s.Execute(line)
}

// Execute runs a command line without echoing it
func (s *Session) Execute(line string) error {
	return s.dispatcher.Execute(s.env, line)
}

// HistoryPrev replaces the input line with the previous command
func (s *Session) HistoryPrev() bool {
	text, err := s.cursor.Prev(s.input.Text())
	if errors.Is(err, history.ErrEndOfHistory) {
		return false
	}
	s.input.SetText(text)
	return true
}

// HistoryNext replaces the input line with the next command, or the line
// that was being typed once past the newest one.
func (s *Session) HistoryNext() bool {
	text, err := s.cursor.Next()
	if errors.Is(err, history.ErrEndOfHistory) {
		return false
	}
	s.input.SetText(text)
	return true
}

// HandleKey applies a key to the input line. Enter submits, Up and Down
// walk the history. Actions the session does not handle are returned with
// handled=false.
func (s *Session) HandleKey(ev *tcell.EventKey) (editor.Action, bool) {
	a, handled := s.input.HandleKey(ev)
	if handled {
		return a, true
	}
	return a, s.Apply(a)
}

// Apply performs an action on the input line, including the ones a single
// line editor leaves to its host.
func (s *Session) Apply(a editor.Action) bool {
	if s.input.Apply(a) {
		return true
	}
	switch a {
	case editor.ActionNewline:
		_ = s.Submit()
	case editor.ActionMoveUp:
		s.HistoryPrev()
	case editor.ActionMoveDown:
		s.HistoryNext()
	default:
		return false
	}
	return true
}

// PuzzleSolved unlocks the directory a puzzle guards and reports it
func (s *Session) PuzzleSolved(name string) error {
	unlocked, err := s.env.PuzzleSolved(name)
	if err != nil {
		s.Println(err.Error())
		return err
	}
	if unlocked {
		s.Println(fmt.Sprintf("puzzle %s solved: %s/ unlocked", name, name))
	}
	return nil
}

// Scroll moves the view n lines back into the scrollback; negative n
// moves towards the newest line.
func (s *Session) Scroll(n int) {
	s.offset = max(0, s.offset+n)
}

// Visible returns the scrollback lines that fit in height rows at the
// current scroll position, oldest first.
func (s *Session) Visible(height int) []string {
	if height <= 0 {
		return nil
	}
	s.offset = min(s.offset, max(0, len(s.scrollback)-height))
	end := len(s.scrollback) - s.offset
	start := max(0, end-height)
	return append([]string(nil), s.scrollback[start:end]...)
}

// SaveTranscript writes the session transcript to filename
func (s *Session) SaveTranscript(filename string, format history.FileFormat) error {
	if err := history.SaveToFile(s.manager, filename, format); err != nil {
		return err
	}
	s.logger.Info("transcript saved", "file", filename, "format", format)
	return nil
}

func (s *Session) appendLine(line string) {
	s.scrollback = append(s.scrollback, line)
	if over := len(s.scrollback) - s.maxScrollback; over > 0 {
		s.scrollback = append([]string(nil), s.scrollback[over:]...)
	}
}

func (s *Session) writeEntry(text string, dir history.Direction) {
	if err := s.manager.Write(history.NewHistoryEntry(text, dir)); err != nil {
		s.logger.Error("failed to write history", "err", err)
	}
}
