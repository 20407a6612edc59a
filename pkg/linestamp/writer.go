package linestamp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"time"

	"rtss/pkg/durfmt"
)

const (
	StdoutSeparator = '|'
	StderrSeparator = '#'
)

// Writer is an io.Writer which prefixes all lines with relative timestamps.
// A Writer must not be used from more than one goroutine at a time.
type Writer struct {
	out       *bufio.Writer
	format    durfmt.Formatter
	separator rune
	start     time.Time
	last      time.Time
	atEOL     bool
	now       func() time.Time

	// scratch space for the two prefixes, reused across writes
	pfxFirst []byte
	pfxRest  []byte
}

var _ io.Writer = &Writer{}

// NewWriter returns a Writer that sends prefixed lines to w. start is the
// reference instant for the "since start" field; it is also the initial
// "previous line" instant.
func NewWriter(w io.Writer, format durfmt.Formatter, separator rune, start time.Time) *Writer {
	if format == nil {
		format = durfmt.Human
	}
	return &Writer{
		out:       bufio.NewWriter(w),
		format:    format,
		separator: separator,
		start:     start,
		last:      start,
		atEOL:     true,
		now:       time.Now,
	}
}

// Write writes p to the underlying writer, prefixing each line that starts
// in p. It always reports len(p) on success and flushes before returning.
func (lw *Writer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	now := lw.now()
	sinceStart := lw.format(now.Sub(lw.start))
	sinceLast := lw.format(now.Sub(lw.last))

	lw.pfxFirst = fmt.Appendf(lw.pfxFirst[:0], "%8s %8s %c ", sinceStart, sinceLast, lw.separator)
	lw.pfxRest = fmt.Appendf(lw.pfxRest[:0], "%8s %8s %c ", sinceStart, "", lw.separator)

	pos := 0
	sawEOL := false
	first := true

	for pos < len(p) {
		if lw.atEOL {
			pfx := lw.pfxRest
			if first {
				pfx = lw.pfxFirst
				first = false
			}
			if _, err := lw.out.Write(pfx); err != nil {
				return 0, err
			}
		}

		i := bytes.IndexByte(p[pos:], '\n')
		if i < 0 {
			lw.atEOL = false
			if _, err := lw.out.Write(p[pos:]); err != nil {
				return 0, err
			}
			break
		}

		sawEOL = true
		lw.atEOL = true
		if _, err := lw.out.Write(p[pos : pos+i+1]); err != nil {
			return 0, err
		}
		pos += i + 1
	}

	if err := lw.out.Flush(); err != nil {
		return 0, err
	}

	if sawEOL {
		lw.last = now
	}

	return len(p), nil
}

// Flush flushes the underlying buffered writer.
func (lw *Writer) Flush() error {
	return lw.out.Flush()
}
