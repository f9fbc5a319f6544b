package textsql

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

const (
	// DefaultHistoryMax is the line count above which the history file is trimmed
	DefaultHistoryMax = 1000
	// DefaultHistoryTrim is the number of newest entries kept after trimming
	DefaultHistoryTrim = 900

	historyFilePerm = 0o600
	historyDirPerm  = 0o750
)

// History is a flat query history file with one query per line.
//
// Appends go to the end of the file. Once the file holds more than max
// lines it is rewritten with only the newest trim entries, so the cost of
// rewriting is paid once per max-trim appends instead of on every append.
type History struct {
	mu   sync.Mutex
	path string
	max  int
	trim int
}

// NewHistory creates a History backed by path. Nonpositive limits take the
// defaults; trim is clamped to max.
func NewHistory(path string, maxEntries, trim int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultHistoryMax
	}
	if trim <= 0 {
		trim = DefaultHistoryTrim
	}
	if trim > maxEntries {
		trim = maxEntries
	}
	return &History{path: path, max: maxEntries, trim: trim}
}

// Path returns the history file path
func (h *History) Path() string {
	return h.path
}

// normalizeQuery joins a multi-line query into one line
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// Append records query. Blank queries and a repeat of the most recent entry
// are ignored; an earlier copy of query is moved to the end.
func (h *History) Append(query string) error {
	query = normalizeQuery(query)
	if query == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.read()
	if err != nil {
		return err
	}
	if len(entries) > 0 && entries[len(entries)-1] == query {
		return nil
	}

	if i := slices.Index(entries, query); i >= 0 {
		entries = append(slices.Delete(entries, i, i+1), query)
		if len(entries) > h.max {
			entries = entries[len(entries)-h.trim:]
		}
		return h.rewrite(entries)
	}

	entries = append(entries, query)
	if len(entries) > h.max {
		return h.rewrite(entries[len(entries)-h.trim:])
	}
	return h.appendLine(query)
}

// Entries returns all recorded queries, oldest first
func (h *History) Entries() ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.read()
}

func (h *History) read() ([]string, error) {
	f, err := os.Open(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			entries = append(entries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}

func (h *History) appendLine(query string) error {
	if err := os.MkdirAll(filepath.Dir(h.path), historyDirPerm); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, historyFilePerm)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	if _, err := f.WriteString(query + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	return f.Close()
}

// rewrite replaces the file atomically via a temp file and rename
func (h *History) rewrite(entries []string) error {
	dir := filepath.Dir(h.path)
	if err := os.MkdirAll(dir, historyDirPerm); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return fmt.Errorf("failed to create history: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // already renamed on success

	w := bufio.NewWriter(tmp)
	for _, entry := range entries {
		if _, err := w.WriteString(entry + "\n"); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("failed to write history: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp.Name(), h.path); err != nil {
		return fmt.Errorf("failed to replace history: %w", err)
	}
	return nil
}
