package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantErr   bool
	}{
		{"", false, false},
		{"info", false, false},
		{"debug", true, false},
		{"loud", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(&buf, tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			logger.Debug("probe")
			if got := strings.Contains(buf.String(), "probe"); got != tt.wantDebug {
				t.Errorf("debug line written = %v, want %v (%q)", got, tt.wantDebug, buf.String())
			}
		})
	}
}

func TestOpen_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	for _, msg := range []string{"first", "second"} {
		logger, closer, err := Open(path, "info")
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		logger.Info(msg, "key", "value")
		closer.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	out := string(data)
	for _, want := range []string{"first", "second", "key=value", "codeterm"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestOpen_BadLevel(t *testing.T) {
	if _, _, err := Open(filepath.Join(t.TempDir(), "x.log"), "loud"); err == nil {
		t.Error("Open() with a bad level should fail")
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("dropped")
}
