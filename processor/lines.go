package processor

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// MaxLineSize is the longest line LineReader returns.
const MaxLineSize = 1024 * 1024

// ErrLineTooLong is returned by LineReader in place of a line longer than
// its limit. The line is skipped and reading can go on.
var ErrLineTooLong = errors.New("line too long")

// LineReader splits r into lines without the line ending.
type LineReader struct {
	r   *bufio.Reader
	max int
	// keep data after the last newline until the line is complete
	hold bool

	partial []byte
	tooLong bool
}

// NewLineReader creates a LineReader. With hold set, data after the last
// newline is kept until the rest of the line arrives, otherwise it is
// returned as the last line.
func NewLineReader(r io.Reader, hold bool) *LineReader {
	return newLineReader(r, hold, MaxLineSize)
}

func newLineReader(r io.Reader, hold bool, max int) *LineReader {
	return &LineReader{
		r:    bufio.NewReaderSize(r, 64*1024),
		max:  max,
		hold: hold,
	}
}

// Next returns the next line. io.EOF means there is no complete line left
// for now, a holding reader can be called again once r has grown.
func (lr *LineReader) Next() (string, error) {
	for {
		chunk, err := lr.r.ReadSlice('\n')
		lr.append(chunk)

		switch {
		case err == nil:
			return lr.flush()

		case errors.Is(err, bufio.ErrBufferFull):
			continue

		case errors.Is(err, io.EOF):
			if lr.hold || (len(lr.partial) == 0 && !lr.tooLong) {
				return "", io.EOF
			}

			return lr.flush()

		default:
			return "", err
		}
	}
}

func (lr *LineReader) append(chunk []byte) {
	if lr.tooLong {
		return
	}

	size := len(lr.partial) + len(chunk)
	if len(chunk) > 0 && chunk[len(chunk)-1] == '\n' {
		size--
	}

	if size > lr.max {
		lr.tooLong = true
		lr.partial = lr.partial[:0]

		return
	}

	lr.partial = append(lr.partial, chunk...)
}

func (lr *LineReader) flush() (string, error) {
	line := strings.TrimSuffix(strings.TrimSuffix(string(lr.partial), "\n"), "\r")
	tooLong := lr.tooLong

	lr.partial = lr.partial[:0]
	lr.tooLong = false

	if tooLong {
		return "", ErrLineTooLong
	}

	return line, nil
}
