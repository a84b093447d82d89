// Package app provides the main application controller
package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"codeterm/pkg/editor"
	"codeterm/pkg/highlight"
	"codeterm/pkg/history"
	"codeterm/pkg/input"
	"codeterm/pkg/puzzle"
	"codeterm/pkg/terminal"
)

// Pane is one of the two focusable areas of the screen
type Pane int

const (
	PaneTerminal Pane = iota
	PaneEditor
)

// String returns the string representation of Pane
func (p Pane) String() string {
	switch p {
	case PaneTerminal:
		return "terminal"
	case PaneEditor:
		return "editor"
	default:
		return "unknown"
	}
}

const stopTimeout = 2 * time.Second

// Options configures an Application
type Options struct {
	// Screen defaults to the real terminal
	Screen   tcell.Screen
	Terminal terminal.Options
	Catalog  *puzzle.Catalog
	Checker  *puzzle.Checker
	Keymap   *editor.Keymap
	Palette  highlight.Palette
	TabWidth int

	RepeatDelay    time.Duration
	RepeatInterval time.Duration

	// TranscriptPath names the file Ctrl+S writes; nil disables saving
	TranscriptPath   func() string
	TranscriptFormat history.FileFormat
	SaveOnExit       bool

	Logger    *log.Logger
	OnExtract func()
}

// Application hosts the terminal session and the code editor on a tcell
// screen. Every state change happens on the event loop goroutine.
type Application struct {
	screen   tcell.Screen
	session  *terminal.Session
	code     *editor.Editor
	codeView surface
	codeTop  int
	keymap   *editor.Keymap
	menu     *Menu
	logger   *log.Logger
	tabWidth int

	catalog  *puzzle.Catalog
	checker  *puzzle.Checker
	active   *puzzle.Puzzle
	drafts   map[string]string
	checking bool

	busy      *input.Busy
	repeater  *input.Repeater
	tracker   *input.KeyTracker
	repeatKey keyID

	focus  Pane
	status string

	transcriptPath   func() string
	transcriptFormat history.FileFormat
	saveOnExit       bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
	mu     sync.Mutex

	isRunning bool
}

type keyID struct {
	key  tcell.Key
	ch   rune
	mods tcell.ModMask
}

type repeatTick struct {
	pane   Pane
	action editor.Action
}

type checkDone struct {
	puzzle *puzzle.Puzzle
	report puzzle.Report
}

// surface keeps the last frame an editor rendered
type surface struct {
	lines     []string
	caretLine int
	caretCell int
}

func (s *surface) Render(display string, caretLine, caretCell int) {
	s.lines = strings.Split(strings.TrimPrefix(display, "\n"), "\n")
	s.caretLine = caretLine
	s.caretCell = caretCell
}

// NewApplication creates a new application instance
func NewApplication(opts Options) (*Application, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Keymap == nil {
		opts.Keymap = editor.DefaultKeymap()
	}
	if opts.Palette == nil {
		opts.Palette = highlight.DefaultPalette()
	}
	if opts.TabWidth <= 0 {
		opts.TabWidth = editor.DefaultTabWidth
	}
	if opts.RepeatDelay <= 0 {
		opts.RepeatDelay = input.DefaultInitialDelay
	}

	screen := opts.Screen
	if screen == nil {
		var err error
		if screen, err = tcell.NewScreen(); err != nil {
			return nil, fmt.Errorf("failed to create screen: %w", err)
		}
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorReset).Foreground(tcell.ColorReset))
	screen.HideCursor()

	ctx, cancel := context.WithCancel(context.Background())
	busy := &input.Busy{}
	app := &Application{
		screen:           screen,
		keymap:           opts.Keymap,
		tabWidth:         opts.TabWidth,
		logger:           opts.Logger,
		catalog:          opts.Catalog,
		checker:          opts.Checker,
		drafts:           make(map[string]string),
		busy:             busy,
		repeater:         input.NewRepeater(opts.RepeatDelay, opts.RepeatInterval, busy),
		tracker:          input.NewKeyTracker(opts.RepeatDelay * 9 / 10),
		transcriptPath:   opts.TranscriptPath,
		transcriptFormat: opts.TranscriptFormat,
		saveOnExit:       opts.SaveOnExit,
		ctx:              ctx,
		cancel:           cancel,
		done:             make(chan struct{}),
	}

	app.code = editor.New(highlight.NewHighlighter(nil, opts.Palette), &app.codeView)
	app.code.SetKeymap(opts.Keymap)
	app.code.SetTabWidth(opts.TabWidth)
	app.code.SetShowCaret(false)

	termOpts := opts.Terminal
	termOpts.Puzzles = app
	if termOpts.Highlighter == nil {
		termOpts.Highlighter = highlight.NewHighlighter(nil, opts.Palette)
	}
	if termOpts.Logger == nil {
		termOpts.Logger = opts.Logger
	}
	session, err := terminal.NewSession(termOpts)
	if err != nil {
		cancel()
		screen.Fini()
		return nil, fmt.Errorf("failed to create terminal session: %w", err)
	}
	session.Input().SetKeymap(opts.Keymap)
	session.Input().SetTabWidth(opts.TabWidth)
	session.Env().OnExtract = func() {
		app.status = "extraction complete"
		if opts.OnExtract != nil {
			opts.OnExtract()
		}
	}
	app.session = session

	app.setupMenu()
	return app, nil
}

func (app *Application) setupMenu() {
	app.menu = NewMenu("codeterm", app.screen)
	app.menu.AddItem("Run tests", "r", func() error { return app.runChecks() })
	app.menu.AddItem("Switch pane", "f", func() error { app.toggleFocus(); return nil })
	app.menu.AddItem("Save transcript", "s", func() error { return app.SaveTranscript() })
	app.menu.AddItem("Key help", "h", func() error { app.showHelp(); return nil })
	app.menu.AddSeparator()
	app.menu.AddItem("Quit", "q", func() error { app.cancel(); return nil })
	app.menu.SetOnError(func(err error) { app.session.Println(err.Error()) })
}

// Session returns the terminal session
func (app *Application) Session() *terminal.Session {
	return app.session
}

// Focus returns the focused pane
func (app *Application) Focus() Pane {
	return app.focus
}

// Done is closed when the event loop ends
func (app *Application) Done() <-chan struct{} {
	return app.done
}

// HasPuzzle reports whether a puzzle called name exists
func (app *Application) HasPuzzle(name string) bool {
	if app.catalog == nil {
		return false
	}
	_, ok := app.catalog.Get(name)
	return ok
}

// OpenPuzzle loads a puzzle into the code editor and focuses it. A draft
// left from an earlier attempt is restored.
func (app *Application) OpenPuzzle(name string) error {
	if app.catalog == nil {
		return fmt.Errorf("no puzzles loaded")
	}
	p, ok := app.catalog.Get(name)
	if !ok {
		return fmt.Errorf("no such puzzle: %s", name)
	}
	if app.active != nil {
		app.drafts[app.active.Name] = app.code.Text()
	}

	app.active = p
	text, ok := app.drafts[name]
	if !ok {
		text = p.Starter
	}
	app.code.SetText(text)
	app.codeTop = 0
	if p.Title != "" {
		app.session.Println(p.Title)
	}
	if p.Description != "" {
		app.session.Println(p.Description)
	}
	app.session.Println("F5 runs the tests, Esc closes the editor, F2 switches panes")
	app.setFocus(PaneEditor)
	app.logger.Info("puzzle opened", "puzzle", name)
	return nil
}

// Start starts the event loop
func (app *Application) Start() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.isRunning {
		return fmt.Errorf("application is already running")
	}
	if app.ctx.Err() != nil {
		return fmt.Errorf("application has been stopped")
	}
	app.isRunning = true
	app.draw()

	app.wg.Add(1)
	go app.handleUserInput()
	return nil
}

// Stop ends the event loop, restores the terminal and writes the transcript
// when configured to.
func (app *Application) Stop() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.cancel()
	if app.screen == nil {
		return nil
	}

	if app.isRunning {
		app.isRunning = false
		app.screen.PostEvent(tcell.NewEventInterrupt(nil))

		finished := make(chan struct{})
		go func() {
			app.wg.Wait()
			close(finished)
		}()
		select {
		case <-finished:
		case <-time.After(stopTimeout):
			app.logger.Warn("timeout waiting for goroutines to stop")
		}
	}

	app.screen.Fini()
	app.screen = nil

	if app.saveOnExit {
		if err := app.SaveTranscript(); err != nil {
			app.logger.Error("failed to save transcript", "err", err)
		}
	}
	app.logger.Info("application stopped", "session", app.session.ID, "duration", time.Since(app.session.StartTime))
	return nil
}

// IsRunning returns whether the application is running
func (app *Application) IsRunning() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.isRunning
}

// handleUserInput is the event loop
func (app *Application) handleUserInput() {
	defer app.wg.Done()
	defer close(app.done)

	for {
		ev := app.screen.PollEvent()
		if ev == nil || app.ctx.Err() != nil {
			return
		}
		app.handleEvent(ev)
		if app.ctx.Err() != nil {
			return
		}
	}
}

func (app *Application) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		app.handleKeyEvent(ev)
	case *tcell.EventResize:
		app.screen.Sync()
	case *tcell.EventInterrupt:
		switch data := ev.Data().(type) {
		case repeatTick:
			app.apply(data.pane, data.action)
		case checkDone:
			app.finishCheck(data)
		}
	}
	if app.ctx.Err() == nil {
		app.draw()
	}
}

// handleKeyEvent handles keyboard events
func (app *Application) handleKeyEvent(ev *tcell.EventKey) {
	if app.menu.IsVisible() {
		app.menu.HandleKey(ev)
		return
	}

	a, bound := app.keymap.Resolve(ev)
	if bound && !a.IsEdit() {
		app.hostAction(a)
		return
	}

	id := keyID{key: ev.Key(), ch: ev.Rune(), mods: ev.Modifiers()}
	if app.busy.Busy() {
		// a held key keeps its repeat loop alive; anything else is dropped
		if id == app.repeatKey {
			app.tracker.Press(id)
		}
		return
	}

	if bound && a.Repeats() {
		app.startRepeat(id, a)
		return
	}

	switch app.focus {
	case PaneEditor:
		app.code.HandleKey(ev)
	default:
		app.session.HandleKey(ev)
	}
}

func (app *Application) hostAction(a editor.Action) {
	app.logger.Debug("host action", "action", a)
	switch a {
	case editor.ActionQuit:
		app.cancel()
	case editor.ActionFocus:
		app.toggleFocus()
	case editor.ActionHelp:
		app.showHelp()
	case editor.ActionMenu:
		app.menu.Show()
	case editor.ActionSave:
		if err := app.SaveTranscript(); err != nil {
			app.session.Println(err.Error())
		}
	case editor.ActionRun:
		if err := app.runChecks(); err != nil {
			app.session.Println(err.Error())
		}
	case editor.ActionClose:
		app.closeEditor()
	case editor.ActionScrollUp:
		app.session.Scroll(app.page())
	case editor.ActionScrollDown:
		app.session.Scroll(-app.page())
	}
}

// startRepeat applies a once and keeps applying it while its key is held.
// Ticks come back through the event queue so edits stay on the loop.
func (app *Application) startRepeat(id keyID, a editor.Action) {
	pane := app.focus
	screen := app.screen
	app.tracker.Press(id)
	app.repeatKey = id
	app.repeater.Start(app.ctx, func() {
		screen.PostEvent(tcell.NewEventInterrupt(repeatTick{pane: pane, action: a}))
	}, func() bool {
		return app.tracker.Held(id)
	})
}

func (app *Application) apply(pane Pane, a editor.Action) {
	if pane == PaneEditor {
		if app.active != nil {
			app.code.Apply(a)
		}
		return
	}
	app.session.Apply(a)
}

func (app *Application) setFocus(p Pane) {
	if p == PaneEditor && app.active == nil {
		p = PaneTerminal
	}
	app.focus = p
	app.code.SetShowCaret(p == PaneEditor)
	app.session.Input().SetShowCaret(p == PaneTerminal)
}

func (app *Application) toggleFocus() {
	if app.focus == PaneTerminal {
		app.setFocus(PaneEditor)
	} else {
		app.setFocus(PaneTerminal)
	}
}

func (app *Application) closeEditor() {
	if app.active == nil {
		return
	}
	app.drafts[app.active.Name] = app.code.Text()
	app.active = nil
	app.setFocus(PaneTerminal)
}

func (app *Application) showHelp() {
	app.session.Println("keys:")
	for _, line := range app.keymap.Help() {
		app.session.Println(line)
	}
}

// SaveTranscript writes the session transcript to the configured path
func (app *Application) SaveTranscript() error {
	if app.transcriptPath == nil {
		return fmt.Errorf("transcript saving is not configured")
	}
	path := app.transcriptPath()
	if err := app.session.SaveTranscript(path, app.transcriptFormat); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	app.status = "transcript saved to " + path
	return nil
}

// runChecks tests the editor content against the open puzzle in the background
func (app *Application) runChecks() error {
	switch {
	case app.active == nil:
		return fmt.Errorf("no puzzle open; try solve <directory>")
	case app.checker == nil:
		return fmt.Errorf("no script runner configured")
	case app.checking:
		return fmt.Errorf("tests are already running")
	}

	p := app.active
	source := app.code.Text()
	screen := app.screen
	app.checking = true
	app.status = "running tests for " + p.Name
	app.session.Println(fmt.Sprintf("running %d test(s) for %s", len(p.Tests), p.Name))

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		report := app.checker.Check(app.ctx, p, source)
		screen.PostEvent(tcell.NewEventInterrupt(checkDone{puzzle: p, report: report}))
	}()
	return nil
}

func (app *Application) finishCheck(d checkDone) {
	app.checking = false
	app.status = ""
	for _, line := range d.report.Lines() {
		app.session.Println(line)
	}
	if !d.report.Passed() {
		return
	}

	app.logger.Info("puzzle solved", "puzzle", d.puzzle.Name)
	if err := app.session.PuzzleSolved(d.puzzle.Name); err != nil {
		return
	}
	delete(app.drafts, d.puzzle.Name)
	if app.active == d.puzzle {
		app.active = nil
		app.setFocus(PaneTerminal)
	}
}

func (app *Application) page() int {
	_, h := app.screen.Size()
	return max(1, h-3)
}

// draw repaints the whole screen
func (app *Application) draw() {
	app.screen.Clear()
	w, h := app.screen.Size()
	body := h - 1

	if app.active != nil {
		left := w / 2
		app.drawTerminal(0, 0, left, body)
		for y := 0; y < body; y++ {
			app.screen.SetContent(left, y, '│', nil, tcell.StyleDefault)
		}
		app.drawEditor(left+1, 0, w-left-1, body)
	} else {
		app.drawTerminal(0, 0, w, body)
	}
	app.drawStatus(h-1, w)
	app.menu.Draw()
	app.screen.Show()
}

func (app *Application) drawTerminal(x, y, w, h int) {
	if h < 2 {
		return
	}
	app.drawTitle(x, y, w, " terminal", app.focus == PaneTerminal)

	rows := h - 2
	for i, line := range app.session.Visible(rows) {
		drawText(app.screen, x, y+1+i, w, line, tcell.StyleDefault)
	}

	prompt := app.session.Prompt()
	col := drawText(app.screen, x, y+h-1, w, prompt, tcell.StyleDefault.Bold(true))
	drawMarkup(app.screen, x+col, y+h-1, w-col, app.session.Input().LineMarkup(0), app.tabWidth)
}

func (app *Application) drawEditor(x, y, w, h int) {
	if h < 2 || w < 1 {
		return
	}
	app.drawTitle(x, y, w, " "+app.active.Name+": "+app.active.Title, app.focus == PaneEditor)

	rows := h - 1
	caret := app.codeView.caretLine
	if caret < app.codeTop {
		app.codeTop = caret
	} else if caret >= app.codeTop+rows {
		app.codeTop = caret - rows + 1
	}

	gutter := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for row := 0; row < rows; row++ {
		i := app.codeTop + row
		if i >= len(app.codeView.lines) {
			break
		}
		n := drawText(app.screen, x, y+1+row, w, fmt.Sprintf("%3d", i+1), gutter)
		drawMarkup(app.screen, x+n, y+1+row, w-n, app.codeView.lines[i], app.tabWidth)
	}
}

func (app *Application) drawTitle(x, y, w int, title string, focused bool) {
	style := tcell.StyleDefault.Reverse(true)
	if focused {
		style = style.Bold(true)
	}
	for i := 0; i < w; i++ {
		app.screen.SetContent(x+i, y, ' ', nil, style)
	}
	drawText(app.screen, x, y, w, title, style)
}

func (app *Application) drawStatus(y, w int) {
	keys := " F1 keys  F2 focus  F5 run  F10 menu  Ctrl+S save  Ctrl+Q quit"
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	n := drawText(app.screen, 0, y, w, keys, style)
	if app.status != "" && n+2 < w {
		drawText(app.screen, n+2, y, w-n-2, app.status, style.Foreground(tcell.ColorYellow))
	}
}

// drawText draws s clipped to w cells and returns the cells used
func drawText(screen tcell.Screen, x, y, w int, s string, style tcell.Style) int {
	col := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if col+rw > w {
			break
		}
		screen.SetContent(x+col, y, r, nil, style)
		col += rw
	}
	return col
}

// drawMarkup draws highlighter markup clipped to w cells, expanding tabs
func drawMarkup(screen tcell.Screen, x, y, w int, markup string, tabWidth int) {
	col := 0
	for _, seg := range highlight.ParseMarkup(markup) {
		style := tcell.StyleDefault
		if seg.Color != "" {
			style = style.Foreground(tcell.GetColor(seg.Color))
		}
		for _, r := range seg.Text {
			if r == '\t' {
				n := tabWidth - col%tabWidth
				for i := 0; i < n && col < w; i++ {
					screen.SetContent(x+col, y, ' ', nil, style)
					col++
				}
				continue
			}
			rw := runewidth.RuneWidth(r)
			if col+rw > w {
				return
			}
			screen.SetContent(x+col, y, r, nil, style)
			col += rw
		}
	}
}
