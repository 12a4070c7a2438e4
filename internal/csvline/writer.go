package csvline

import (
	"bufio"
	"io"
)

// Writer writes serialized rows separated by "\n" with no trailing newline,
// matching the layout of exported files.
type Writer struct {
	w    *bufio.Writer
	rows int
	err  error
}

// NewWriter returns a Writer buffering output to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteRow writes one row of already-serialized fields.
// After the first error every call is a no-op; Flush reports it.
func (w *Writer) WriteRow(fields []string) {
	if w.err != nil {
		return
	}
	if w.rows > 0 {
		if w.err = w.w.WriteByte('\n'); w.err != nil {
			return
		}
	}
	_, w.err = w.w.WriteString(Join(fields))
	w.rows++
}

// Rows returns how many rows have been written.
func (w *Writer) Rows() int {
	return w.rows
}

// Flush writes buffered data and returns the first error seen.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}
