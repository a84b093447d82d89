package puzzle

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"codeterm/pkg/sandbox"
)

const catalogYAML = `
puzzles:
  - name: double
    title: Double it
    description: Return twice the input.
    starter: |
      def main(n):
          pass
    tests:
      - args: [1]
        expected: "2"
      - args: [21]
        expected: "42"
  - name: greet
    tests:
      - args: ["bob"]
        expected: hello bob
`

// doubler pretends to be an interpreter: it doubles the argument of the
// trailing main call when the program contains a correct solution.
var doubler = sandbox.RunnerFunc(func(ctx context.Context, source string) (string, error) {
	lines := strings.Split(strings.TrimSpace(source), "\n")
	call := lines[len(lines)-1]
	arg := strings.TrimSuffix(strings.TrimPrefix(call, "print(main("), "))")
	n, err := strconv.Atoi(arg)
	if err != nil {
		return "", err
	}
	if strings.Contains(source, "return n * 2") {
		return strconv.Itoa(n*2) + "\n", nil
	}
	if strings.Contains(source, "while True") {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return "None", nil
})

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(catalogYAML))
	if err != nil {
		t.Fatalf("ParseCatalog() error = %v", err)
	}
	if diff := cmp.Diff([]string{"double", "greet"}, c.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	p, ok := c.Get("double")
	if !ok {
		t.Fatal("Get(double) not found")
	}
	if p.Tests[1].Expected != "42" || p.Tests[1].Args[0] != 21 {
		t.Errorf("test case = %+v", p.Tests[1])
	}
	if !strings.HasPrefix(p.Starter, "def main(n):") {
		t.Errorf("Starter = %q", p.Starter)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "puzzles: ["},
		{"no name", "puzzles:\n  - tests: [{args: [], expected: x}]\n"},
		{"no tests", "puzzles:\n  - name: a\n"},
		{"spaced name", "puzzles:\n  - name: a b\n    tests: [{expected: x}]\n"},
		{"duplicate", "puzzles:\n  - name: a\n    tests: [{expected: x}]\n  - name: a\n    tests: [{expected: x}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(tt.yaml)); err == nil {
				t.Error("ParseCatalog() should fail")
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	fsys := fstest.MapFS{"puzzles.yaml": {Data: []byte(catalogYAML)}}
	c, err := LoadCatalog(fsys, "puzzles.yaml")
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if _, err := LoadCatalog(fsys, "nope.yaml"); err == nil {
		t.Error("LoadCatalog(nope.yaml) should fail")
	}
}

func TestChecker_Check(t *testing.T) {
	c, _ := ParseCatalog([]byte(catalogYAML))
	p, _ := c.Get("double")
	checker := NewChecker(doubler, 50*time.Millisecond)

	report := checker.Check(context.Background(), p, "def main(n):\n    return n * 2\n")
	if !report.Passed() {
		t.Errorf("correct solution failed: %v", report.Lines())
	}
	want := []string{"test 1: main(1) passed", "test 2: main(21) passed", "2/2 tests passed"}
	if diff := cmp.Diff(want, report.Lines()); diff != "" {
		t.Errorf("Lines() mismatch (-want +got):\n%s", diff)
	}

	report = checker.Check(context.Background(), p, "def main(n):\n    pass\n")
	if report.Passed() {
		t.Error("wrong solution passed")
	}
	if got := report.Lines()[0]; got != "test 1: main(1) expected 2, got None" {
		t.Errorf("Lines()[0] = %q", got)
	}

	report = checker.Check(context.Background(), p, "def main(n):\n    while True: pass\n")
	if report.Passed() {
		t.Error("looping solution passed")
	}
	for _, res := range report.Results {
		if !errors.Is(res.Err, sandbox.ErrTimeout) {
			t.Errorf("result error = %v, want ErrTimeout", res.Err)
		}
	}
	if got := report.Lines()[0]; got != "test 1: main(1) timed out" {
		t.Errorf("Lines()[0] = %q", got)
	}
}

func TestChecker_CancelledContext(t *testing.T) {
	c, _ := ParseCatalog([]byte(catalogYAML))
	p, _ := c.Get("double")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := NewChecker(doubler, 0).Check(ctx, p, "def main(n):\n    return n * 2\n")
	if report.Passed() {
		t.Error("cancelled check should not pass")
	}
	if len(report.Results) != 2 {
		t.Errorf("len(Results) = %d, want 2", len(report.Results))
	}
}

func TestReport_PassedEmpty(t *testing.T) {
	if (Report{}).Passed() {
		t.Error("empty report should not pass")
	}
}
