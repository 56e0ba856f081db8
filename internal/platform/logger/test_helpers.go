package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
)

// LogBuffer collects JSON log lines written by concurrent goroutines.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entries decodes every buffered line, failing t on malformed JSON.
func (b *LogBuffer) Entries(t testing.TB) []map[string]any {
	t.Helper()

	b.mu.Lock()
	data := bytes.Clone(b.buf.Bytes())
	b.mu.Unlock()

	var entries []map[string]any
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("malformed log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

// Find returns the first entry with the given message, or nil.
func (b *LogBuffer) Find(t testing.TB, msg string) map[string]any {
	t.Helper()
	for _, entry := range b.Entries(t) {
		if entry[slog.MessageKey] == msg {
			return entry
		}
	}
	return nil
}

// NewTestLogger returns a debug-level JSON logger writing into a LogBuffer.
func NewTestLogger(t testing.TB) (*slog.Logger, *LogBuffer) {
	t.Helper()
	buf := &LogBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}
