// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package reader

import (
	"fmt"
	"io"
)

// DefaultBufferSize is the size of the refill buffer used when reading
// from a stream source.
const DefaultBufferSize = 128

// Reader is a small buffered byte source. It exposes the primitives a
// byte-oriented format parser needs (single bytes, little-endian words,
// exact reads, skips) over either an in-memory slice or an io.Reader
// refilled through an internal buffer.
type Reader struct {
	src io.Reader

	buf  []byte
	off  int // read offset in buf
	size int // number of valid bytes in buf

	n   uint64 // total bytes consumed
	eof bool   // src has been drained
}

// New returns a Reader drawing from src through a DefaultBufferSize buffer.
func New(src io.Reader) *Reader {
	return NewSize(src, DefaultBufferSize)
}

// NewSize returns a Reader drawing from src with a refill buffer of bufSize bytes.
func NewSize(src io.Reader, bufSize int) *Reader {
	return &Reader{
		src: src,
		buf: make([]byte, bufSize),
	}
}

// NewBytesReader returns a Reader over p without copying. The whole input
// acts as the buffer, so Skip with a negative count can unread up to the
// number of bytes consumed so far.
func NewBytesReader(p []byte) *Reader {
	return &Reader{
		buf:  p,
		size: len(p),
		eof:  true,
	}
}

func (r *Reader) fill() error {
	if r.src == nil || r.eof {
		return nil
	}

	// slide existing data to the beginning of the buffer
	copied := copy(r.buf, r.buf[r.off:r.size])
	r.off = 0
	r.size = copied

	n, err := r.src.Read(r.buf[copied:])
	if err != nil && err != io.EOF {
		return err
	}
	r.size += n
	if n == 0 || err == io.EOF {
		r.eof = true
	}
	return nil
}

// ReadByte consumes and returns the next byte. It returns io.EOF once the
// source is exhausted.
func (r *Reader) ReadByte() (byte, error) {
	if r.off >= r.size {
		if err := r.fill(); err != nil {
			return 0, err
		}
		if r.off >= r.size {
			return 0, io.EOF
		}
	}
	b := r.buf[r.off]
	r.off++
	r.n++
	return b, nil
}

// ReadUint16 consumes two bytes and returns them as a little-endian word.
func (r *Reader) ReadUint16() (uint16, error) {
	lo, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	hi, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// ReadFull reads exactly len(p) bytes into p. A short read surfaces as
// io.ErrUnexpectedEOF.
func (r *Reader) ReadFull(p []byte) error {
	readBytes := 0
	for readBytes < len(p) {
		if r.off >= r.size {
			if err := r.fill(); err != nil {
				return err
			}
			if r.off >= r.size {
				return io.ErrUnexpectedEOF
			}
		}
		n := copy(p[readBytes:], r.buf[r.off:r.size])
		r.off += n
		readBytes += n
	}
	r.n += uint64(len(p))
	return nil
}

// Skip discards the next n bytes. A negative n un-reads up to |n| bytes,
// limited to the data still held in the buffer; un-reading further is an
// error. Skipping past the end of the source returns io.ErrUnexpectedEOF.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		if r.off+n < 0 {
			return fmt.Errorf("reader: cannot unread %d bytes, only %d buffered", -n, r.off)
		}
		r.off += n
		r.n -= uint64(-n)
		return nil
	}

	for n > 0 {
		if r.off >= r.size {
			if err := r.fill(); err != nil {
				return err
			}
			if r.off >= r.size {
				return io.ErrUnexpectedEOF
			}
		}
		avail := r.size - r.off
		if avail > n {
			avail = n
		}
		r.off += avail
		r.n += uint64(avail)
		n -= avail
	}
	return nil
}

// AtEOF reports whether every byte of the source has been consumed.
func (r *Reader) AtEOF() bool {
	if r.off < r.size {
		return false
	}
	if r.eof {
		return true
	}
	// probe the source for one more byte
	if err := r.fill(); err != nil {
		return true
	}
	return r.off >= r.size
}

// Buffered returns the number of unread bytes currently held in the buffer.
func (r *Reader) Buffered() int {
	return r.size - r.off
}

// BytesRead returns the total number of bytes consumed so far.
func (r *Reader) BytesRead() uint64 {
	return r.n
}
