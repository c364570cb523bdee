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
package gif

import "fmt"

const (
	// maxCodes is a practical upper sentinel on dictionary growth. The
	// standard caps the dictionary at 4096 entries; anything past maxCodes
	// is treated as corruption.
	maxCodes = 8192

	// maxChain bounds the prefix chain of any emittable code. Every entry
	// links to a lower-numbered one, down to a literal. The code width
	// only passes 12 bits when the initial code size is 12, and then
	// dictionary entries start at 4098, so in every case no chain can be
	// longer than 4096 entries.
	maxChain = 4096
)

// lzwCode is one dictionary entry: a backward link to its prefix string,
// the first byte of the full string, and the final byte it appends.
type lzwCode struct {
	prefix int16
	first  uint8
	suffix uint8
}

// processRaster decompresses the LZW sub-block chain following an image
// descriptor, routing every decoded palette index through the raster writer.
// Codes are read LSB-first from a bit reservoir refilled one sub-block byte
// at a time.
func (d *decoder) processRaster() error {
	lzwCS, err := d.r.ReadByte()
	if err != nil {
		return eofErr(err)
	}
	if lzwCS > 12 {
		return fmt.Errorf("%w: %d", ErrPixelSize, lzwCS)
	}

	clearCode := int32(1) << lzwCS
	endCode := clearCode + 1
	codesize := int32(lzwCS) + 1
	codemask := (int32(1) << codesize) - 1

	for i := int32(0); i < clearCode; i++ {
		d.codes[i] = lzwCode{prefix: -1, first: uint8(i), suffix: uint8(i)}
	}

	var (
		avail     = clearCode + 2
		oldcode   = int32(-1)
		bits      int32
		validBits int32
		length    int32
		first     = true
	)

	for {
		if validBits < codesize {
			if length == 0 {
				b, err := d.r.ReadByte() // start new sub-block
				if err != nil {
					return eofErr(err)
				}
				if b == 0 {
					return nil // end of packed data
				}
				length = int32(b)
			}
			length--
			b, err := d.r.ReadByte()
			if err != nil {
				return eofErr(err)
			}
			bits |= int32(b) << validBits
			validBits += 8
			continue
		}

		code := bits & codemask
		bits >>= codesize
		validBits -= codesize

		switch {
		case code == clearCode:
			codesize = int32(lzwCS) + 1
			codemask = (int32(1) << codesize) - 1
			avail = clearCode + 2
			oldcode = -1
			first = false

		case code == endCode:
			// skip the rest of this sub-block, then drain the chain
			if err := d.r.Skip(int(length)); err != nil {
				return eofErr(err)
			}
			return d.drainBlocks()

		case code <= avail:
			if first {
				return ErrNoClearCode
			}

			if oldcode >= 0 {
				if avail >= maxCodes {
					return ErrTooManyCodes
				}
				p := &d.codes[avail]
				avail++
				p.prefix = int16(oldcode)
				p.first = d.codes[oldcode].first
				if code == avail-1 {
					// KwKwK: the code being emitted is the entry just
					// installed, so its suffix is its own first byte
					p.suffix = p.first
				} else {
					p.suffix = d.codes[code].first
				}
			} else if code == avail {
				return ErrBadCode
			}

			d.emitCode(code)

			if avail&codemask == 0 && avail <= 0x0FFF {
				codesize++
				codemask = (int32(1) << codesize) - 1
			}
			oldcode = code

		default:
			return ErrBadCode
		}
	}
}

// emitCode outputs the string a code stands for. The dictionary links each
// entry to its prefix, so the chain unrolls backwards onto a stack and the
// pixels come off it in forward order.
func (d *decoder) emitCode(code int32) {
	n := 0
	for c := code; c >= 0; c = int32(d.codes[c].prefix) {
		d.stack[n] = d.codes[c].suffix
		n++
	}
	for i := n - 1; i >= 0; i-- {
		d.writePixel(d.stack[i])
	}
}

// writePixel places one palette index at the raster cursor and advances it,
// wrapping across rows and interlace passes. Writes past the bottom of the
// sub-rectangle are dropped: over-tall rasters are tolerated by truncation.
func (d *decoder) writePixel(idx uint8) {
	if d.curY >= d.maxY {
		return
	}

	i := d.curX + d.curY
	d.history[i/4] = 1

	c := &d.colorTable[idx]
	if c[3] > 128 { // don't render transparent pixels
		copy(d.out[i:i+4], c[:])
	}
	d.curX += 4

	if d.curX >= d.maxX {
		d.curX = d.startX
		d.curY += d.step

		for d.curY >= d.maxY && d.parse > 0 {
			// next interlace pass: strides of 8, 4 then 2 rows, each
			// pass starting half a stride in
			d.step = (1 << d.parse) * d.lineSize
			d.curY = d.startY + d.step>>1
			d.parse--
		}
	}
}
