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

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotGIF is returned when the stream does not start with a GIF signature.
	ErrNotGIF = errors.New("gif: not a GIF file")

	// ErrBadVersion is returned when the signature carries an unknown version.
	ErrBadVersion = errors.New("gif: unsupported GIF version")

	// ErrTooLarge is returned when a screen dimension exceeds Options.MaxDimension.
	ErrTooLarge = errors.New("gif: very large image (corrupt?)")

	// ErrBadImageRect is returned when an image descriptor does not fit the
	// logical screen.
	ErrBadImageRect = errors.New("gif: frame bounds larger than image bounds")

	// ErrNoColorTable is returned when an image has neither a local nor a
	// global color table.
	ErrNoColorTable = errors.New("gif: no color table")

	// ErrMissingImageData is returned when the trailer is reached before any
	// image descriptor.
	ErrMissingImageData = errors.New("gif: missing image data")

	// ErrUnknownBlock is returned for an unrecognized block introducer.
	ErrUnknownBlock = errors.New("gif: unknown block type")

	// ErrNoClearCode is returned when raster data starts without a clear code.
	ErrNoClearCode = errors.New("gif: corrupt GIF: no clear code")

	// ErrBadCode is returned for an LZW code outside the dictionary.
	ErrBadCode = errors.New("gif: corrupt GIF: illegal code in raster")

	// ErrTooManyCodes is returned when the LZW dictionary overflows.
	ErrTooManyCodes = errors.New("gif: corrupt GIF: too many codes")

	// ErrPixelSize is returned for an out-of-range initial LZW code size.
	ErrPixelSize = errors.New("gif: corrupt GIF: pixel size out of range")
)

// eofErr maps a byte-source error to the decoder's error vocabulary: running
// dry mid-stream is always an unexpected EOF.
func eofErr(err error) error {
	if err == io.EOF {
		return fmt.Errorf("gif: %w", io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("gif: %w", err)
}
