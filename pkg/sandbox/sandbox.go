// Package sandbox is the boundary to the external script interpreter that runs player code
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ErrTimeout is returned when a script does not finish before its deadline
var ErrTimeout = errors.New("script timed out")

// Runner executes program text and returns its stringified result
type Runner interface {
	Run(ctx context.Context, source string) (string, error)
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, source string) (string, error)

// Run calls f
func (f RunnerFunc) Run(ctx context.Context, source string) (string, error) {
	return f(ctx, source)
}

// ScriptError is a failure reported by the interpreter itself
type ScriptError struct {
	Message string
	Err     error
}

func (e *ScriptError) Error() string {
	return e.Message
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

type result struct {
	out string
	err error
}

// RunWithTimeout runs source on r with a deadline. At the deadline the run is
// abandoned and ErrTimeout returned; the runner sees its context cancelled but
// its eventual result is discarded.
func RunWithTimeout(ctx context.Context, r Runner, source string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		return "", fmt.Errorf("timeout must be positive, got: %v", timeout)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("script runner panicked: %v", p)}
			}
		}()
		out, err := r.Run(ctx, source)
		done <- result{out: out, err: err}
	}()

	select {
	case res := <-done:
		return res.out, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", ctx.Err()
	}
}

// TestProgram appends a call of main with the given literal arguments whose
// value is printed, so the interpreter's output is the stringified result.
func TestProgram(source string, args ...interface{}) string {
	lits := make([]string, len(args))
	for i, a := range args {
		lits[i] = Literal(a)
	}
	var b strings.Builder
	b.WriteString(strings.TrimRight(source, "\n"))
	b.WriteString("\n\nprint(main(")
	b.WriteString(strings.Join(lits, ", "))
	b.WriteString("))\n")
	return b.String()
}

// Literal renders v as a source literal of the scripting language
func Literal(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return strconv.Quote(x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = Literal(rv.Index(i).Interface())
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return strconv.Quote(fmt.Sprint(v))
	}
}

// ExecRunner pipes the program to an interpreter process on stdin
type ExecRunner struct {
	Interpreter string
	Args        []string
	Dir         string
}

// NewExecRunner creates a runner for interpreter, invoked with args
func NewExecRunner(interpreter string, args ...string) *ExecRunner {
	return &ExecRunner{Interpreter: interpreter, Args: args}
}

// Run executes source and returns its standard output without the trailing newline
func (r *ExecRunner) Run(ctx context.Context, source string) (string, error) {
	if r.Interpreter == "" {
		return "", fmt.Errorf("no interpreter configured")
	}
	cmd := exec.CommandContext(ctx, r.Interpreter, r.Args...)
	cmd.Dir = r.Dir
	cmd.Stdin = strings.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := lastLine(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", &ScriptError{Message: msg, Err: err}
	}
	return strings.TrimRight(stdout.String(), "\r\n"), nil
}

// lastLine returns the last non-blank line of s, which is where interpreters
// put the error summary after a traceback.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
