package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"ammPool/internal/model"
)

// Sink receives journal records for committed operations.
type Sink interface {
	Append(records ...model.LogRecord) error
}

// Writer appends journal records to a JSONL file and stamps each with the
// next sequence number, in file order. Appends hold an exclusive lock on
// path + ".lock" and re-read the last sequence first, so writers in other
// processes never stamp the same number.
type Writer struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
	last uint64
}

var _ Sink = (*Writer)(nil)

// NewWriter opens the journal at path, resuming after its last sequence.
func NewWriter(path string) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path required")
	}
	last, err := LastSequence(path)
	if err != nil {
		return nil, err
	}
	return &Writer{path: path, lock: flock.New(path + ".lock"), last: last}, nil
}

// Sequence returns the last sequence this writer wrote or saw on open.
func (w *Writer) Sequence() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Append writes records as JSON lines.
func (w *Writer) Append(records ...model.LogRecord) error {
	if len(records) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}
	if err := w.lock.Lock(); err != nil {
		return fmt.Errorf("lock journal: %w", err)
	}
	defer w.lock.Unlock()

	seq, err := LastSequence(w.path)
	if err != nil {
		return err
	}

	out, err := NewJSONLWriter(w.path, true)
	if err != nil {
		return err
	}

	for _, record := range records {
		seq++
		record.Sequence = seq
		if err := out.Write(record); err != nil {
			out.Close()
			return fmt.Errorf("write journal record: %w", err)
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	w.last = seq
	return nil
}

// JSONLWriter writes one JSON value per line.
type JSONLWriter struct {
	file   *os.File
	writer *bufio.Writer
}

// NewJSONLWriter opens path for writing, creating parent directories. In
// append mode existing content is kept; otherwise the file is truncated.
func NewJSONLWriter(path string, appendMode bool) (*JSONLWriter, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &JSONLWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *JSONLWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *JSONLWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// MemorySink keeps records in memory and stamps sequences like Writer.
type MemorySink struct {
	mu      sync.Mutex
	records []model.LogRecord
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(records ...model.LogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		record.Sequence = uint64(len(s.records)) + 1
		s.records = append(s.records, record)
	}
	return nil
}

// Records returns a copy of everything appended so far.
func (s *MemorySink) Records() []model.LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.LogRecord, len(s.records))
	copy(out, s.records)
	return out
}
