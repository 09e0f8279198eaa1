// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package sidp

import (
	"time"

	"github.com/pkg/errors"
)

// readFull reads exactly len(buf) bytes from the stream. Every partial
// transfer updates the byte counter and the read timestamp; zero-byte
// progress before completion is a short read.
func (c *Conn) readFull(buf []byte) error {
	for off := 0; off != len(buf); {
		n, err := c.rw.Read(buf[off:])
		if n > 0 {
			c.bytesIn += uint64(n)
			c.lastRead = time.Now()
			off += n
			continue
		}
		if err != nil {
			return errors.Wrapf(ErrTransport, "read: %v", err)
		}
		return errors.Wrap(ErrTransport, "read: EOF short read")
	}
	return nil
}

// writeFull writes exactly len(buf) bytes to the stream, with the same
// accounting as readFull.
func (c *Conn) writeFull(buf []byte) error {
	for off := 0; off != len(buf); {
		n, err := c.rw.Write(buf[off:])
		if n > 0 {
			c.bytesOut += uint64(n)
			c.lastWrite = time.Now()
			off += n
			continue
		}
		if err != nil {
			return errors.Wrapf(ErrTransport, "write: %v", err)
		}
		return errors.Wrap(ErrTransport, "write: zero-byte write")
	}
	return nil
}
