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

// Package compress implements the compression-layer codecs.
//
// Every emitted payload starts with one status byte: 1 means the backend
// output follows, 0 means the backend did not shrink the data and the raw
// input was kept instead. Decompression honors the status byte, so incompressible
// input takes a plain copy both ways.
package compress

import (
	"bytes"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
	"github.com/rasky/go-lzo"
)

// Wire tags for the registered compressors.
const (
	TypeLZO    uint16 = 1
	TypeZlib   uint16 = 2
	TypeSnappy uint16 = 3
)

// Compressor is the compression-layer codec contract.
//
// CompressOutputLen bounds the emitted size (status byte included) for an
// input of n bytes. Compress writes into a caller buffer of at least that
// size. Decompress writes into a caller buffer of the expected inflated
// size and returns the actual inflated length.
type Compressor interface {
	Init() error
	CompressOutputLen(n int) int
	Compress(dst, src []byte) (int, error)
	Decompress(dst, src []byte) (int, error)
}

var errUnknownType = errors.New("compress: unknown compressor type")

// ByType resolves a registered compressor from its wire tag.
func ByType(t uint16) (Compressor, error) {
	switch t {
	case TypeLZO:
		return lzoCompressor{}, nil
	case TypeZlib:
		return zlibCompressor{}, nil
	case TypeSnappy:
		return snappyCompressor{}, nil
	}
	return nil, errors.Wrapf(errUnknownType, "type %d", t)
}

const (
	statusRaw        = 0
	statusCompressed = 1
)

// emit finishes a Compress call: keeps the backend output if it actually
// shrank the data, otherwise stores the raw input with status 0.
func emit(dst, src, comp []byte) (int, error) {
	if len(comp) >= len(src) {
		if len(dst) < len(src)+1 {
			return 0, errors.New("compress: output buffer too small")
		}
		dst[0] = statusRaw
		copy(dst[1:], src)
		return len(src) + 1, nil
	}
	if len(dst) < len(comp)+1 {
		return 0, errors.New("compress: output buffer too small")
	}
	dst[0] = statusCompressed
	copy(dst[1:], comp)
	return len(comp) + 1, nil
}

// rawBody handles the status-0 fast path shared by all backends. The second
// return value reports whether the path was taken.
func rawBody(dst, src []byte) (int, bool, error) {
	if len(src) < 1 {
		return 0, true, errors.New("compress: missing status byte")
	}
	if src[0] != statusRaw {
		return 0, false, nil
	}
	n := len(src) - 1
	if len(dst) < n {
		return 0, true, errors.New("compress: output buffer too small")
	}
	copy(dst, src[1:])
	return n, true, nil
}

// LZO1X via github.com/rasky/go-lzo.
type lzoCompressor struct{}

func (lzoCompressor) Init() error { return nil }

func (lzoCompressor) CompressOutputLen(n int) int {
	return n + n/16 + 64 + 4
}

func (lzoCompressor) Compress(dst, src []byte) (int, error) {
	if len(src) == 0 {
		return emit(dst, src, nil)
	}
	return emit(dst, src, lzo.Compress1X(src))
}

func (lzoCompressor) Decompress(dst, src []byte) (int, error) {
	if n, done, err := rawBody(dst, src); done {
		return n, err
	}
	out, err := lzo.Decompress1X(bytes.NewReader(src[1:]), len(src)-1, len(dst))
	if err != nil {
		return 0, errors.Wrap(err, "compress: lzo decompress")
	}
	if len(out) > len(dst) {
		return 0, errors.New("compress: lzo inflated size exceeds output buffer")
	}
	copy(dst, out)
	return len(out), nil
}

// zlib via github.com/klauspost/compress. The output bound follows zlib's
// documented worst case rather than the input size, so incompressible input
// stays within the buffer before the raw fallback kicks in.
type zlibCompressor struct{}

func (zlibCompressor) Init() error { return nil }

func (zlibCompressor) CompressOutputLen(n int) int {
	return n + n/1000 + 12 + 5
}

func (zlibCompressor) Compress(dst, src []byte) (int, error) {
	if len(src) == 0 {
		return emit(dst, src, nil)
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return 0, errors.Wrap(err, "compress: zlib write")
	}
	if err := zw.Close(); err != nil {
		return 0, errors.Wrap(err, "compress: zlib close")
	}
	return emit(dst, src, buf.Bytes())
}

func (zlibCompressor) Decompress(dst, src []byte) (int, error) {
	if n, done, err := rawBody(dst, src); done {
		return n, err
	}
	zr, err := zlib.NewReader(bytes.NewReader(src[1:]))
	if err != nil {
		return 0, errors.Wrap(err, "compress: zlib reader")
	}
	defer zr.Close()

	n, err := io.ReadFull(zr, dst)
	switch err {
	case nil:
		// the stream must end exactly at the expected inflated size
		var one [1]byte
		if _, err := zr.Read(one[:]); err != io.EOF {
			return 0, errors.New("compress: zlib inflated size exceeds output buffer")
		}
		return n, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return n, nil
	default:
		return 0, errors.Wrap(err, "compress: zlib decompress")
	}
}

// snappy block format via github.com/golang/snappy.
type snappyCompressor struct{}

func (snappyCompressor) Init() error { return nil }

func (snappyCompressor) CompressOutputLen(n int) int {
	return snappy.MaxEncodedLen(n) + 1
}

func (snappyCompressor) Compress(dst, src []byte) (int, error) {
	if len(src) == 0 {
		return emit(dst, src, nil)
	}
	return emit(dst, src, snappy.Encode(nil, src))
}

func (snappyCompressor) Decompress(dst, src []byte) (int, error) {
	if n, done, err := rawBody(dst, src); done {
		return n, err
	}
	out, err := snappy.Decode(nil, src[1:])
	if err != nil {
		return 0, errors.Wrap(err, "compress: snappy decompress")
	}
	if len(out) > len(dst) {
		return 0, errors.New("compress: snappy inflated size exceeds output buffer")
	}
	copy(dst, out)
	return len(out), nil
}
