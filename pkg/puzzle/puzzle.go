// Package puzzle holds the coding puzzles that guard locked directories
package puzzle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"codeterm/pkg/sandbox"
)

// DefaultTimeout bounds a single test run
const DefaultTimeout = 3 * time.Second

// TestCase calls main with Args and expects Expected as its printed value
type TestCase struct {
	Args     []interface{} `yaml:"args"`
	Expected string        `yaml:"expected"`
}

// Puzzle is a coding task named after the directory it unlocks
type Puzzle struct {
	Name        string     `yaml:"name"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Starter     string     `yaml:"starter"`
	Tests       []TestCase `yaml:"tests"`
}

// Validate checks that the puzzle can be run
func (p *Puzzle) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("puzzle name cannot be empty")
	}
	if strings.ContainsAny(p.Name, " \t/") {
		return fmt.Errorf("puzzle name %q must be a single word", p.Name)
	}
	if len(p.Tests) == 0 {
		return fmt.Errorf("puzzle %s has no tests", p.Name)
	}
	return nil
}

// Catalog is the set of puzzles, in file order
type Catalog struct {
	puzzles map[string]*Puzzle
	order   []string
}

type catalogFile struct {
	Puzzles []*Puzzle `yaml:"puzzles"`
}

// ParseCatalog reads a YAML catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse puzzle catalog: %w", err)
	}

	c := &Catalog{puzzles: make(map[string]*Puzzle)}
	for _, p := range file.Puzzles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.puzzles[p.Name]; dup {
			return nil, fmt.Errorf("duplicate puzzle: %s", p.Name)
		}
		c.puzzles[p.Name] = p
		c.order = append(c.order, p.Name)
	}
	return c, nil
}

// LoadCatalog reads the catalog at path in fsys
func LoadCatalog(fsys fs.FS, path string) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read puzzle catalog: %w", err)
	}
	return ParseCatalog(data)
}

// Get returns the puzzle called name
func (c *Catalog) Get(name string) (*Puzzle, bool) {
	p, ok := c.puzzles[name]
	return p, ok
}

// Names returns the puzzle names in catalog order
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of puzzles
func (c *Catalog) Len() int {
	return len(c.order)
}

// CaseResult is the outcome of one test case
type CaseResult struct {
	Case   TestCase
	Got    string
	Err    error
	Passed bool
}

// Report collects the results of checking a solution
type Report struct {
	Puzzle  string
	Results []CaseResult
}

// Passed reports whether every case passed
func (r Report) Passed() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Lines renders the report for the terminal
func (r Report) Lines() []string {
	var lines []string
	passed := 0
	for i, res := range r.Results {
		args := make([]string, len(res.Case.Args))
		for j, a := range res.Case.Args {
			args[j] = sandbox.Literal(a)
		}
		call := fmt.Sprintf("main(%s)", strings.Join(args, ", "))

		switch {
		case res.Passed:
			passed++
			lines = append(lines, fmt.Sprintf("test %d: %s passed", i+1, call))
		case errors.Is(res.Err, sandbox.ErrTimeout):
			lines = append(lines, fmt.Sprintf("test %d: %s timed out", i+1, call))
		case res.Err != nil:
			lines = append(lines, fmt.Sprintf("test %d: %s error: %v", i+1, call, res.Err))
		default:
			lines = append(lines, fmt.Sprintf("test %d: %s expected %s, got %s", i+1, call, res.Case.Expected, res.Got))
		}
	}
	lines = append(lines, fmt.Sprintf("%d/%d tests passed", passed, len(r.Results)))
	return lines
}

// Checker runs solutions against a puzzle's tests through the sandbox
type Checker struct {
	Runner  sandbox.Runner
	Timeout time.Duration
}

// NewChecker creates a checker with the given runner and per-test timeout
func NewChecker(runner sandbox.Runner, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{Runner: runner, Timeout: timeout}
}

// Check runs every test case of p against source. A timed-out case does not
// stop the remaining ones; a cancelled context does.
func (c *Checker) Check(ctx context.Context, p *Puzzle, source string) Report {
	report := Report{Puzzle: p.Name}
	for _, tc := range p.Tests {
		if ctx.Err() != nil {
			report.Results = append(report.Results, CaseResult{Case: tc, Err: ctx.Err()})
			continue
		}
		out, err := sandbox.RunWithTimeout(ctx, c.Runner, sandbox.TestProgram(source, tc.Args...), c.Timeout)
		res := CaseResult{Case: tc, Got: strings.TrimSpace(out), Err: err}
		res.Passed = err == nil && res.Got == strings.TrimSpace(tc.Expected)
		report.Results = append(report.Results, res)
	}
	return report
}
