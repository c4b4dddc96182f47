// Package sink serializes completed hash records to an output stream.
package sink

import (
	"bufio"
	"fmt"
	"io"
)

// Writer emits one record per file in the order records are handed to it.
// It is not safe for concurrent use: only the ordered collector writes.
type Writer struct {
	bw        *bufio.Writer
	sep       string
	hashFirst bool
}

// New creates a Writer. sep separates the path and digest fields; when
// hashFirst is set the digest is printed first, md5sum-style.
func New(w io.Writer, sep string, hashFirst bool) *Writer {
	return &Writer{
		bw:        bufio.NewWriter(w),
		sep:       sep,
		hashFirst: hashFirst,
	}
}

// WriteRecord emits a path/digest pair.
func (w *Writer) WriteRecord(path, digest string) error {
	return w.writeLine(path, digest)
}

// WriteError emits a failed file in its record slot, with the error cause
// in place of the digest.
func (w *Writer) WriteError(path string, err error) error {
	return w.writeLine(path, fmt.Sprintf("<ERROR: %v>", err))
}

func (w *Writer) writeLine(path, field string) error {
	var err error
	if w.hashFirst {
		_, err = fmt.Fprintf(w.bw, "%s%s%s\n", field, w.sep, path)
	} else {
		_, err = fmt.Fprintf(w.bw, "%s%s%s\n", path, w.sep, field)
	}
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Flush drains buffered output to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
