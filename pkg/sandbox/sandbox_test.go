package sandbox

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"
)

func TestRunWithTimeout(t *testing.T) {
	fast := RunnerFunc(func(ctx context.Context, source string) (string, error) {
		return "ran " + source, nil
	})
	failing := RunnerFunc(func(ctx context.Context, source string) (string, error) {
		return "", errors.New("NameError: x")
	})
	stuck := RunnerFunc(func(ctx context.Context, source string) (string, error) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return "too late", nil
	})
	panicking := RunnerFunc(func(ctx context.Context, source string) (string, error) {
		panic("interpreter crashed")
	})

	tests := []struct {
		name    string
		runner  Runner
		want    string
		wantErr bool
		timeout bool
	}{
		{"finishes", fast, "ran x", false, false},
		{"script error", failing, "", true, false},
		{"deadline", stuck, "", true, true},
		{"panic", panicking, "", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RunWithTimeout(context.Background(), tt.runner, "x", 50*time.Millisecond)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RunWithTimeout() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrTimeout) != tt.timeout {
				t.Errorf("RunWithTimeout() error = %v, timeout %v", err, tt.timeout)
			}
			if got != tt.want {
				t.Errorf("RunWithTimeout() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunWithTimeout_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stuck := RunnerFunc(func(ctx context.Context, source string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	_, err := RunWithTimeout(ctx, stuck, "", time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RunWithTimeout() error = %v, want context.Canceled", err)
	}
	if _, err := RunWithTimeout(context.Background(), stuck, "", 0); err == nil {
		t.Error("RunWithTimeout() with zero timeout should fail")
	}
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		value interface{}
		want  string
	}{
		{nil, "None"},
		{"hi", `"hi"`},
		{`a"b`, `"a\"b"`},
		{true, "True"},
		{false, "False"},
		{15, "15"},
		{-3, "-3"},
		{2.5, "2.5"},
		{[]int{1, 2, 3}, "[1, 2, 3]"},
		{[]interface{}{"a", 1, nil}, `["a", 1, None]`},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Literal(tt.value); got != tt.want {
				t.Errorf("Literal(%#v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestTestProgram(t *testing.T) {
	src := "def main(n):\n\treturn n * 2\n\n"
	want := "def main(n):\n\treturn n * 2\n\nprint(main(21))\n"
	if got := TestProgram(src, 21); got != want {
		t.Errorf("TestProgram() = %q, want %q", got, want)
	}
	if got := TestProgram("", "a", 1); got != "\n\nprint(main(\"a\", 1))\n" {
		t.Errorf("TestProgram() = %q", got)
	}
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := NewExecRunner("sh", "-s")

	out, err := r.Run(context.Background(), "echo hello\n")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "hello" {
		t.Errorf("Run() = %q, want hello", out)
	}

	_, err = r.Run(context.Background(), "echo first >&2\necho broken >&2\nexit 3\n")
	var serr *ScriptError
	if !errors.As(err, &serr) {
		t.Fatalf("Run() error = %v, want *ScriptError", err)
	}
	if serr.Message != "broken" {
		t.Errorf("ScriptError.Message = %q, want broken", serr.Message)
	}

	if _, err := (&ExecRunner{}).Run(context.Background(), ""); err == nil {
		t.Error("Run() without interpreter should fail")
	}
}

func TestExecRunner_Timeout(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	_, err := RunWithTimeout(context.Background(), NewExecRunner("sh", "-s"), "sleep 5\n", 100*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("RunWithTimeout() error = %v, want ErrTimeout", err)
	}
}
