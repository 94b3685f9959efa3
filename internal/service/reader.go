package service

import "io"

// countingReader tracks bytes read and fails with ErrFileTooLarge once more
// than limit bytes have been read. A non-positive limit disables the check.
type countingReader struct {
	r     io.Reader
	n     int64
	limit int64
}

func newCountingReader(r io.Reader, limit int64) *countingReader {
	return &countingReader{r: r, limit: limit}
}

func (c *countingReader) Read(p []byte) (int, error) {
	if c.limit > 0 {
		// Allow one byte past the limit so exactly-limit inputs still see EOF.
		rem := c.limit + 1 - c.n
		if rem <= 0 {
			return 0, ErrFileTooLarge
		}
		if int64(len(p)) > rem {
			p = p[:rem]
		}
	}
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.limit > 0 && c.n > c.limit {
		return n, ErrFileTooLarge
	}
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (c *countingReader) BytesRead() int64 {
	return c.n
}
