// Package history records the terminal transcript and provides command replay
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ErrEndOfHistory is returned by a Cursor moved past either end of the history
var ErrEndOfHistory = errors.New("end of history")

// Direction tells whether an entry was typed by the player or printed by the terminal
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
)

// String returns the string representation of Direction
func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	default:
		return "unknown"
	}
}

// FileFormat represents different transcript export formats
type FileFormat int

const (
	FormatPlainText FileFormat = iota
	FormatTimestamped
	FormatJSON
)

// String returns the string representation of FileFormat
func (f FileFormat) String() string {
	switch f {
	case FormatPlainText:
		return "plain_text"
	case FormatTimestamped:
		return "timestamped"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFileFormat converts a format name to a FileFormat
func ParseFileFormat(name string) (FileFormat, error) {
	switch strings.ToLower(name) {
	case "plain", "plain_text", "text", "txt":
		return FormatPlainText, nil
	case "timestamped":
		return FormatTimestamped, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("unsupported format: %s", name)
	}
}

// HistoryManager stores transcript entries in order
type HistoryManager interface {
	Write(entry HistoryEntry) error
	Entries() ([]HistoryEntry, error)
	Commands() ([]string, error)
	Clear() error
}

// HistoryEntry is a single transcript line
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Direction Direction `json:"direction"`
	Text      string    `json:"text"`
}

// Validate checks if the history entry is valid
func (h HistoryEntry) Validate() error {
	if h.Timestamp.IsZero() {
		return fmt.Errorf("timestamp cannot be zero")
	}
	if h.Direction != DirectionInput && h.Direction != DirectionOutput {
		return fmt.Errorf("invalid direction: %d", h.Direction)
	}
	if strings.Contains(h.Text, "\n") {
		return fmt.Errorf("entry text must be a single line")
	}
	return nil
}

// NewHistoryEntry creates a new history entry with current timestamp
func NewHistoryEntry(text string, direction Direction) HistoryEntry {
	return HistoryEntry{
		Timestamp: time.Now(),
		Direction: direction,
		Text:      text,
	}
}

// commandsOf returns the text of the input entries
func commandsOf(entries []HistoryEntry) []string {
	var cmds []string
	for _, e := range entries {
		if e.Direction == DirectionInput {
			cmds = append(cmds, e.Text)
		}
	}
	return cmds
}

// Export writes entries to w in the given format
func Export(w io.Writer, entries []HistoryEntry, format FileFormat) error {
	switch format {
	case FormatPlainText:
		return exportPlainText(w, entries)
	case FormatTimestamped:
		return exportTimestamped(w, entries)
	case FormatJSON:
		return exportJSON(w, entries)
	default:
		return fmt.Errorf("unsupported format: %v", format)
	}
}

// SaveToFile exports the entries of manager into filename
func SaveToFile(manager HistoryManager, filename string, format FileFormat) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	entries, err := manager.Entries()
	if err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()
	return Export(file, entries, format)
}

func exportPlainText(w io.Writer, entries []HistoryEntry) error {
	for _, entry := range entries {
		line := entry.Text
		if entry.Direction == DirectionInput {
			line = "> " + line
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write data: %w", err)
		}
	}
	return nil
}

func exportTimestamped(w io.Writer, entries []HistoryEntry) error {
	for _, entry := range entries {
		direction := "<<"
		if entry.Direction == DirectionOutput {
			direction = ">>"
		}
		_, err := fmt.Fprintf(w, "[%s] %s %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05.000"),
			direction,
			entry.Text)
		if err != nil {
			return fmt.Errorf("failed to write timestamped data: %w", err)
		}
	}
	return nil
}

func exportJSON(w io.Writer, entries []HistoryEntry) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	data := struct {
		Entries []HistoryEntry `json:"entries"`
		Count   int            `json:"count"`
	}{
		Entries: entries,
		Count:   len(entries),
	}
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// MemoryHistoryManager keeps up to maxEntries entries in memory, dropping the oldest
type MemoryHistoryManager struct {
	entries    []HistoryEntry
	maxEntries int
}

// DefaultMaxEntries bounds a history manager created with a non-positive limit
const DefaultMaxEntries = 1000

// NewMemoryHistoryManager creates a new memory-based history manager
func NewMemoryHistoryManager(maxEntries int) *MemoryHistoryManager {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryHistoryManager{
		entries:    make([]HistoryEntry, 0),
		maxEntries: maxEntries,
	}
}

// Write appends an entry
func (mhm *MemoryHistoryManager) Write(entry HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if len(mhm.entries) >= mhm.maxEntries {
		removeCount := len(mhm.entries) - mhm.maxEntries + 1
		mhm.entries = mhm.entries[removeCount:]
	}
	mhm.entries = append(mhm.entries, entry)
	return nil
}

// Entries returns a copy of all entries
func (mhm *MemoryHistoryManager) Entries() ([]HistoryEntry, error) {
	result := make([]HistoryEntry, len(mhm.entries))
	copy(result, mhm.entries)
	return result, nil
}

// Commands returns the submitted command lines, oldest first
func (mhm *MemoryHistoryManager) Commands() ([]string, error) {
	return commandsOf(mhm.entries), nil
}

// Len returns the number of entries
func (mhm *MemoryHistoryManager) Len() int {
	return len(mhm.entries)
}

// Clear clears all entries
func (mhm *MemoryHistoryManager) Clear() error {
	mhm.entries = mhm.entries[:0]
	return nil
}

// SetMaxEntries changes the limit, dropping the oldest entries if needed
func (mhm *MemoryHistoryManager) SetMaxEntries(n int) error {
	if n <= 0 {
		return fmt.Errorf("max entries must be positive")
	}
	mhm.maxEntries = n
	if len(mhm.entries) > n {
		mhm.entries = mhm.entries[len(mhm.entries)-n:]
	}
	return nil
}
