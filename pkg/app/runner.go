package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"codeterm/pkg/config"
	"codeterm/pkg/highlight"
	"codeterm/pkg/history"
	"codeterm/pkg/logging"
	"codeterm/pkg/persist"
	"codeterm/pkg/puzzle"
	"codeterm/pkg/sandbox"
	"codeterm/pkg/terminal"
	"codeterm/pkg/vfs"
	"codeterm/pkg/world"
)

// Banner is printed when an interactive session starts
var Banner = []string{
	"codeterm: a locked filesystem and a python interpreter.",
	"type help to list the commands, F1 for the keys.",
}

// Resources are the long lived pieces a session is built from: the saved
// tree, the command history, file contents, puzzles and the logger.
type Resources struct {
	Config  config.AppConfig
	Logger  *log.Logger
	Store   persist.Store
	Tree    *vfs.Tree
	History history.HistoryManager
	Content *world.Content
	Catalog *puzzle.Catalog
	Checker *puzzle.Checker

	closers []func() error
}

// OpenResources opens everything cfg points at. The caller must Close the
// result.
func OpenResources(cfg config.AppConfig) (*Resources, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Resources{Config: cfg}
	logger, logFile, err := logging.Open(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	r.Logger = logger
	r.closers = append(r.closers, logFile.Close)

	if err := r.open(); err != nil {
		r.Close()
		return nil, err
	}
	logger.Info("resources opened", "data_dir", cfg.DataDir, "store", cfg.Store, "locked_files", r.Tree.LockedFiles())
	return r, nil
}

func (r *Resources) open() error {
	cfg := r.Config

	store, closeStore, err := persist.Open(cfg.Store, cfg.StorePath())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	r.Store = store
	r.closers = append(r.closers, closeStore)

	seed, err := world.Seed()
	if err != nil {
		return err
	}
	if r.Tree, err = persist.LoadTree(store, seed); err != nil {
		return fmt.Errorf("failed to load tree: %w", err)
	}

	hist, err := history.NewBoltHistoryManager(cfg.HistoryPath(), cfg.HistoryMax)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	r.History = hist
	r.closers = append(r.closers, hist.Close)

	if r.Catalog, err = world.Puzzles(); err != nil {
		return err
	}
	r.Content = world.DirContent(cfg.ContentDir)
	runner := sandbox.NewExecRunner(cfg.Interpreter, cfg.InterpreterArgs...)
	r.Checker = puzzle.NewChecker(runner, time.Duration(cfg.ScriptTimeout))
	return nil
}

// Close releases the resources in the reverse order they were opened
func (r *Resources) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// TerminalOptions returns the session options over these resources
func (r *Resources) TerminalOptions(banner []string) terminal.Options {
	return terminal.Options{
		Tree:    r.Tree,
		Store:   r.Store,
		Content: r.Content,
		History: r.History,
		Logger:  r.Logger,
		Banner:  banner,
	}
}

// Options returns the application options over these resources, drawing
// on screen; a nil screen means the real terminal.
func (r *Resources) Options() (Options, error) {
	cfg := r.Config
	keymap, err := cfg.Keymap()
	if err != nil {
		return Options{}, err
	}
	format, err := history.ParseFileFormat(cfg.HistoryFormat)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Terminal:       r.TerminalOptions(Banner),
		Catalog:        r.Catalog,
		Checker:        r.Checker,
		Keymap:         keymap,
		Palette:        highlight.PaletteFromStyle(cfg.Palette),
		TabWidth:       cfg.TabWidth,
		RepeatDelay:    time.Duration(cfg.RepeatDelay),
		RepeatInterval: time.Duration(cfg.RepeatInterval),
		TranscriptPath: func() string {
			return cfg.TranscriptPath(time.Now())
		},
		TranscriptFormat: format,
		Logger:           r.Logger,
	}, nil
}

// Runner provides a high-level interface to run the terminal application
type Runner struct {
	app       *Application
	resources *Resources
	extracted bool
}

// NewRunner creates a runner over opened resources
func NewRunner(resources *Resources) *Runner {
	return &Runner{resources: resources}
}

// Run starts the application and blocks until it's stopped
func (r *Runner) Run() error {
	opts, err := r.resources.Options()
	if err != nil {
		return err
	}
	opts.OnExtract = func() { r.extracted = true }

	app, err := NewApplication(opts)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	r.app = app

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	select {
	case sig := <-sigChan:
		r.resources.Logger.Info("received signal, shutting down", "signal", sig)
	case <-app.Done():
	}

	if err := app.Stop(); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}
	r.printSessionSummary(os.Stdout)
	return nil
}

// Stop stops the running application
func (r *Runner) Stop() error {
	if r.app != nil {
		return r.app.Stop()
	}
	return nil
}

func (r *Runner) printSessionSummary(w io.Writer) {
	if r.app == nil {
		return
	}
	s := r.app.Session()
	fmt.Fprintf(w, "\n=== Session Summary ===\n")
	fmt.Fprintf(w, "Session:  %s\n", s.ID)
	fmt.Fprintf(w, "Duration: %v\n", time.Since(s.StartTime).Round(time.Second))
	fmt.Fprintf(w, "Commands: %d\n", len(s.Commands()))
	fmt.Fprintf(w, "Locked:   %d file(s)\n", r.resources.Tree.LockedFiles())
	if r.extracted {
		fmt.Fprintf(w, "Extraction complete.\n")
	}
	fmt.Fprintf(w, "=======================\n")
}

// RunInteractive opens the resources of cfg and runs the application on
// the real terminal
func RunInteractive(cfg config.AppConfig) error {
	resources, err := OpenResources(cfg)
	if err != nil {
		return err
	}
	defer resources.Close()
	return NewRunner(resources).Run()
}

// headlessPuzzles refuses to open puzzles, which need the editor
type headlessPuzzles struct {
	catalog *puzzle.Catalog
}

func (h headlessPuzzles) HasPuzzle(name string) bool {
	_, ok := h.catalog.Get(name)
	return ok
}

func (h headlessPuzzles) OpenPuzzle(name string) error {
	return fmt.Errorf("puzzles need the editor; run codeterm play, or codeterm check %s <file>", name)
}

// RunHeadless executes command lines against the saved tree without a
// screen, writing what they print to out. It stops at the first line that
// fails.
func RunHeadless(resources *Resources, lines []string, out io.Writer) error {
	opts := resources.TerminalOptions(nil)
	if resources.Catalog != nil {
		opts.Puzzles = headlessPuzzles{catalog: resources.Catalog}
	}
	session, err := terminal.NewSession(opts)
	if err != nil {
		return err
	}

	for _, line := range lines {
		before := len(session.Scrollback())
		execErr := session.Execute(line)
		printed := session.Scrollback()
		for _, l := range printed[min(before, len(printed)):] {
			fmt.Fprintln(out, l)
		}
		if execErr != nil {
			return execErr
		}
	}
	return nil
}

// CheckSource runs the tests of the named puzzle against source, printing
// the report to out. A passing run unlocks the puzzle's directory.
func CheckSource(ctx context.Context, resources *Resources, name, source string, out io.Writer) (bool, error) {
	p, ok := resources.Catalog.Get(name)
	if !ok {
		return false, fmt.Errorf("no such puzzle: %s", name)
	}
	report := resources.Checker.Check(ctx, p, source)
	for _, line := range report.Lines() {
		fmt.Fprintln(out, line)
	}
	if !report.Passed() {
		return false, nil
	}

	session, err := terminal.NewSession(resources.TerminalOptions(nil))
	if err != nil {
		return true, err
	}
	if err := session.PuzzleSolved(name); err != nil {
		return true, err
	}
	for _, line := range session.Scrollback() {
		fmt.Fprintln(out, line)
	}
	return true, nil
}
