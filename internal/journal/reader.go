package journal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"ammPool/internal/model"
)

const maxLineSize = 10 * 1024 * 1024

// ScanLines calls fn for every non-empty line of r. It stops at the first
// error returned by fn or when ctx is done.
func ScanLines(ctx context.Context, r io.Reader, fn func(line []byte) error) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}

// ReadRecords streams journal records from r. A line that does not parse is
// handed to fn with a non-nil parseErr so the caller can record it and move on.
func ReadRecords(ctx context.Context, r io.Reader, fn func(record model.LogRecord, parseErr error) error) error {
	return ScanLines(ctx, r, func(line []byte) error {
		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return fn(model.LogRecord{}, err)
		}
		return fn(record, nil)
	})
}

// ReadFile streams the journal at path through ReadRecords.
func ReadFile(ctx context.Context, path string, fn func(record model.LogRecord, parseErr error) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()
	return ReadRecords(ctx, file, fn)
}

// LastSequence returns the highest sequence in the journal at path, or zero
// when the file does not exist.
func LastSequence(path string) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	var last uint64
	err = ReadRecords(context.Background(), file, func(record model.LogRecord, parseErr error) error {
		if parseErr != nil {
			return fmt.Errorf("parse journal: %w", parseErr)
		}
		if record.Sequence > last {
			last = record.Sequence
		}
		return nil
	})
	return last, err
}
