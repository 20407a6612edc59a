package linestamp

import (
	"errors"
	"io"
	"syscall"
	"time"

	"rtss/pkg/durfmt"
)

// BufferSize is the size of the read buffer used by Copy.
const BufferSize = 32 * 1024

// Copy reads src until EOF or an error and writes each line to dst prefixed
// with the elapsed time since start and since the previous line. It returns
// the number of bytes read from src.
//
// Reads interrupted by a signal are retried. Any other read error, or any
// error writing to dst, stops the copy and is returned.
func Copy(dst io.Writer, src io.Reader, format durfmt.Formatter, separator rune, start time.Time) (int64, error) {
	return copyWith(NewWriter(dst, format, separator, start), src)
}

func copyWith(lw *Writer, src io.Reader) (int64, error) {
	buf := make([]byte, BufferSize)
	var written int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := lw.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return written, nil
			}
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return written, err
		}
	}
}
