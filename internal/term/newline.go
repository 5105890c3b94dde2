package term

import (
	"bytes"
	"io"
)

// NewlineWriter translates "\n" into "\r\n" while Raw reports true, since a
// raw mode terminal no longer does output post processing.
type NewlineWriter struct {
	W   io.Writer
	Raw func() bool
}

var crlf = []byte("\r\n")

func (nw NewlineWriter) Write(p []byte) (int, error) {
	if nw.Raw == nil || !nw.Raw() {
		return nw.W.Write(p)
	}
	n := 0
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			m, err := nw.W.Write(p)
			return n + m, err
		}
		if i > 0 {
			m, err := nw.W.Write(p[:i])
			n += m
			if err != nil {
				return n, err
			}
		}
		if _, err := nw.W.Write(crlf); err != nil {
			return n, err
		}
		n++
		p = p[i+1:]
	}
	return n, nil
}
