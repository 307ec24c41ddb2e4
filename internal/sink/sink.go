// Package sink writes generated records as JSON lines.
//
// Publications are written as one canonical JSON object per line and
// subscriptions as one canonical JSON array of [field, operator, value]
// triples per line.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/roach88/pubsubgen/internal/ir"
)

const (
	// PublicationsFile is the default publications output file name.
	PublicationsFile = "publications.txt"

	// SubscriptionsFile is the default subscriptions output file name.
	SubscriptionsFile = "subscriptions.txt"
)

// Writer encodes records into a buffered stream. Call Flush when done.
type Writer struct {
	buf   *bufio.Writer
	lines int
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{buf: bufio.NewWriterSize(w, 64*1024)}
}

// WritePublication appends one publication line.
func (w *Writer) WritePublication(p ir.Publication) error {
	return w.writeLine(ir.Object(p))
}

// WriteSubscription appends one subscription line.
func (w *Writer) WriteSubscription(s ir.Subscription) error {
	return w.writeLine(s.List())
}

func (w *Writer) writeLine(v ir.Value) error {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Errorf("line %d: %w", w.lines+1, err)
	}
	if _, err := w.buf.Write(data); err != nil {
		return err
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return err
	}
	w.lines++
	return nil
}

// Lines returns the number of lines written so far.
func (w *Writer) Lines() int {
	return w.lines
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

// WritePublications writes pubs to path, replacing any existing file.
func WritePublications(path string, pubs []ir.Publication) error {
	return writeFile(path, func(w *Writer) error {
		for _, p := range pubs {
			if err := w.WritePublication(p); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteSubscriptions writes subs to path, replacing any existing file.
func WriteSubscriptions(path string, subs []ir.Subscription) error {
	return writeFile(path, func(w *Writer) error {
		for _, s := range subs {
			if err := w.WriteSubscription(s); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeFile(path string, fill func(*Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w := NewWriter(f)
	if err := fill(w); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return w.Flush()
}
