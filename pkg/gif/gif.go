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

// Package gif implements an animated GIF decoder that composes every frame
// onto a persistent canvas and returns the whole animation as one contiguous
// buffer of equally-sized frames, together with per-frame display delays.
//
// The GIF specification is at https://www.w3.org/Graphics/GIF/spec-gif89a.txt.
package gif

import (
	"fmt"
	"io"
	"time"

	"github.com/ostafen/gifler/pkg/pixel"
	"github.com/ostafen/gifler/pkg/reader"
)

// Section indicators.
const (
	sExtension       = 0x21
	sImageDescriptor = 0x2C
	sTrailer         = 0x3B
)

// Extensions.
const (
	eText           = 0x01 // Plain Text
	eGraphicControl = 0xF9 // Graphic Control
	eComment        = 0xFE // Comment
	eApplication    = 0xFF // Application
)

// Fields.
const (
	fColorTable         = 1 << 7
	fInterlace          = 1 << 6
	fColorTableBitsMask = 7

	fTransparency = 1 << 0
	fDisposalMask = 0x1C // disposal method, bits 2-4 of the graphic control flags
)

// DefaultMaxDimension is the sanity limit applied to the logical screen
// width and height when Options.MaxDimension is zero.
const DefaultMaxDimension = 1 << 24

// Options configures a decode session.
type Options struct {
	// Channels selects the number of output channels per pixel (1 to 4).
	// Zero means 4 (RGBA).
	Channels int

	// FlipVertical flips every frame upside down after decoding.
	FlipVertical bool

	// MaxDimension overrides DefaultMaxDimension when positive.
	MaxDimension int
}

// Animation is a fully decoded GIF: all frames composed onto the logical
// screen and concatenated into a single buffer.
type Animation struct {
	Width    int
	Height   int
	Channels int

	// LoopCount is the NETSCAPE2.0 repetition count, or -1 when the stream
	// does not carry one. Zero means loop forever.
	LoopCount int

	// Pix holds Layers() frames of Width*Height*Channels bytes each.
	Pix []byte

	// Delays holds one display delay per frame, in milliseconds.
	Delays []int32
}

// Layers returns the number of frames in the animation.
func (a *Animation) Layers() int {
	return len(a.Delays)
}

// Frame returns the pixel data of frame i as a view into Pix.
func (a *Animation) Frame(i int) []byte {
	stride := a.Width * a.Height * a.Channels
	return a.Pix[i*stride : (i+1)*stride]
}

// Duration returns the total display time of one animation cycle.
func (a *Animation) Duration() time.Duration {
	var ms int64
	for _, d := range a.Delays {
		ms += int64(d)
	}
	return time.Duration(ms) * time.Millisecond
}

type decoder struct {
	r *reader.Reader

	width, height int
	flags         byte
	bgIndex       byte
	ratio         byte

	hasGlobalColorTable bool

	maxDim int

	// graphic control state for the upcoming image descriptor
	eflags byte
	delay  int32 // milliseconds

	// transparent is the active transparent palette index, or -1. Unlike
	// delay and disposal it persists until the next graphic control
	// extension rewrites it.
	transparent int

	loopCount int

	pal        [256][4]byte
	lpal       [256][4]byte
	colorTable *[256][4]byte

	out        []byte // composition canvas, width*height*4
	background []byte // canvas to restore to under disposal 2
	history    []byte // per-pixel mask of writes made by the current frame

	codes [maxCodes]lzwCode
	stack [maxChain]byte

	// raster cursor; x coordinates and lineSize are byte offsets
	// (pre-multiplied by 4) so that cur_x+cur_y indexes the canvas directly
	lineSize int
	startX   int
	startY   int
	maxX     int
	maxY     int
	curX     int
	curY     int
	step     int
	parse    int

	tmp [768]byte // large enough for a 256-entry color table
}

// DecodeAll reads a complete GIF stream from r and returns the decoded
// animation.
func DecodeAll(r io.Reader, opts *Options) (*Animation, error) {
	return decodeAll(reader.New(r), opts)
}

// DecodeAllBytes decodes a GIF held entirely in memory.
func DecodeAllBytes(data []byte, opts *Options) (*Animation, error) {
	return decodeAll(reader.NewBytesReader(data), opts)
}

func decodeAll(r *reader.Reader, opts *Options) (*Animation, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.Channels == 0 {
		o.Channels = 4
	}
	if o.Channels < 1 || o.Channels > 4 {
		return nil, fmt.Errorf("gif: invalid channel count: %d", o.Channels)
	}
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}

	d := &decoder{
		r:           r,
		transparent: -1,
		loopCount:   -1,
		maxDim:      o.MaxDimension,
	}
	if err := d.readHeaderAndScreenDescriptor(); err != nil {
		return nil, err
	}

	stride := d.width * d.height * 4

	var (
		out    []byte
		delays []int32
	)
	for {
		var twoBack []byte
		if len(delays) >= 2 {
			n := len(delays)
			twoBack = out[(n-2)*stride : (n-1)*stride]
		}

		frame, err := d.loadNext(twoBack)
		if err != nil {
			return nil, err
		}
		if frame == nil {
			break // trailer
		}
		out = append(out, frame...)
		delays = append(delays, d.delay)
	}
	if len(delays) == 0 {
		return nil, ErrMissingImageData
	}

	layers := len(delays)
	pix := out
	if o.Channels != 4 {
		// the stacked buffer converts as one image of height layers*height
		var err error
		pix, err = pixel.Convert(out, 4, o.Channels, d.width, layers*d.height)
		if err != nil {
			return nil, err
		}
	}
	if o.FlipVertical {
		pixel.FlipFrames(pix, d.width, d.height, layers, o.Channels)
	}

	return &Animation{
		Width:     d.width,
		Height:    d.height,
		Channels:  o.Channels,
		LoopCount: d.loopCount,
		Pix:       pix,
		Delays:    delays,
	}, nil
}

func (d *decoder) readHeaderAndScreenDescriptor() error {
	if err := d.r.ReadFull(d.tmp[:6]); err != nil {
		return fmt.Errorf("%w: reading signature: %v", ErrNotGIF, err)
	}
	version := string(d.tmp[:6])
	if version[:4] != "GIF8" || version[5] != 'a' {
		return fmt.Errorf("%w: %q", ErrNotGIF, version)
	}
	if version[4] != '7' && version[4] != '9' {
		return fmt.Errorf("%w: %q", ErrBadVersion, version)
	}

	w, err := d.r.ReadUint16()
	if err != nil {
		return eofErr(err)
	}
	h, err := d.r.ReadUint16()
	if err != nil {
		return eofErr(err)
	}
	d.width, d.height = int(w), int(h)

	if d.width > d.maxDim || d.height > d.maxDim {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, d.width, d.height)
	}

	if err := d.r.ReadFull(d.tmp[:3]); err != nil {
		return eofErr(err)
	}
	d.flags = d.tmp[0]
	d.bgIndex = d.tmp[1]
	d.ratio = d.tmp[2]

	if d.flags&fColorTable != 0 {
		d.hasGlobalColorTable = true
		if err := d.readColorTable(&d.pal, 2<<(d.flags&fColorTableBitsMask), -1); err != nil {
			return err
		}
	}
	return nil
}

// readColorTable reads n RGB triples and stores them as RGBA. The entry at
// transp, if any, gets alpha 0; every other entry gets alpha 255.
func (d *decoder) readColorTable(pal *[256][4]byte, n, transp int) error {
	if err := d.r.ReadFull(d.tmp[:3*n]); err != nil {
		return fmt.Errorf("gif: reading color table: %w", io.ErrUnexpectedEOF)
	}
	for i := 0; i < n; i++ {
		pal[i][0] = d.tmp[3*i]
		pal[i][1] = d.tmp[3*i+1]
		pal[i][2] = d.tmp[3*i+2]
		if i == transp {
			pal[i][3] = 0
		} else {
			pal[i][3] = 255
		}
	}
	return nil
}

// loadNext decodes the next frame onto the canvas and returns it, or
// (nil, nil) once the trailer is reached. twoBack is the frame two layers
// back in the accumulated output, used by disposal method 3.
func (d *decoder) loadNext(twoBack []byte) ([]byte, error) {
	firstFrame := d.out == nil
	pcount := d.width * d.height

	if firstFrame {
		// the canvas starts fully transparent; the background color is
		// applied only to pixels the first frame leaves untouched
		d.out = make([]byte, 4*pcount)
		d.background = make([]byte, 4*pcount)
		d.history = make([]byte, pcount)
	} else {
		dispose := (d.eflags & fDisposalMask) >> 2

		if dispose == 3 && twoBack == nil {
			// nothing to revert to yet
			dispose = 2
		}

		switch dispose {
		case 3: // restore to previous
			for pi := 0; pi < pcount; pi++ {
				if d.history[pi] != 0 {
					copy(d.out[pi*4:pi*4+4], twoBack[pi*4:pi*4+4])
				}
			}
		case 2: // restore to background
			for pi := 0; pi < pcount; pi++ {
				if d.history[pi] != 0 {
					copy(d.out[pi*4:pi*4+4], d.background[pi*4:pi*4+4])
				}
			}
		default:
			// 0 (unspecified) and 1 (do not dispose): the frame stays
			// and becomes the new background
		}

		copy(d.background, d.out)
	}

	clear(d.history)

	// delay and disposal apply to a single image descriptor
	d.eflags = 0
	d.delay = 0

	for {
		tag, err := d.r.ReadByte()
		if err != nil {
			return nil, eofErr(err)
		}
		switch tag {
		case sImageDescriptor:
			if err := d.readImageDescriptor(firstFrame); err != nil {
				return nil, err
			}
			return d.out, nil
		case sExtension:
			if err := d.readExtension(); err != nil {
				return nil, err
			}
		case sTrailer:
			return nil, nil
		default:
			return nil, fmt.Errorf("%w: 0x%.2x", ErrUnknownBlock, tag)
		}
	}
}

func (d *decoder) readExtension() error {
	extension, err := d.r.ReadByte()
	if err != nil {
		return eofErr(err)
	}
	switch extension {
	case eGraphicControl:
		return d.readGraphicControl()
	case eApplication:
		b, err := d.r.ReadByte()
		if err != nil {
			return eofErr(err)
		}
		// The spec requires size be 11, but Adobe sometimes uses 10.
		size := int(b)
		if err := d.r.ReadFull(d.tmp[:size]); err != nil {
			return eofErr(err)
		}

		// Application Extension with "NETSCAPE2.0" as string and 1 in data
		// means this extension defines a loop count.
		if string(d.tmp[:size]) == "NETSCAPE2.0" {
			n, err := d.readBlock()
			if err != nil {
				return eofErr(err)
			}
			if n == 0 {
				return nil
			}
			if n == 3 && d.tmp[0] == 1 {
				d.loopCount = int(d.tmp[1]) | int(d.tmp[2])<<8
			}
		}
	default:
		// text, comment and unknown extensions carry nothing the decoder
		// needs; fall through and drain the sub-block chain
	}
	return d.drainBlocks()
}

func (d *decoder) readGraphicControl() error {
	size, err := d.r.ReadByte()
	if err != nil {
		return eofErr(err)
	}
	if size != 4 {
		if err := d.r.Skip(int(size)); err != nil {
			return eofErr(err)
		}
		return d.drainBlocks()
	}

	eflags, err := d.r.ReadByte()
	if err != nil {
		return eofErr(err)
	}
	delayCs, err := d.r.ReadUint16()
	if err != nil {
		return eofErr(err)
	}
	d.eflags = eflags
	d.delay = 10 * int32(delayCs) // stored as 1/100ths, reported as 1/1000ths

	// unset old transparent
	if d.transparent >= 0 {
		d.pal[d.transparent][3] = 255
	}
	if eflags&fTransparency != 0 {
		ti, err := d.r.ReadByte()
		if err != nil {
			return eofErr(err)
		}
		d.transparent = int(ti)
		d.pal[d.transparent][3] = 0
	} else {
		if err := d.r.Skip(1); err != nil {
			return eofErr(err)
		}
		d.transparent = -1
	}
	return d.drainBlocks()
}

// readBlock reads one sub-block into d.tmp and returns its length;
// zero marks the end of the chain.
func (d *decoder) readBlock() (int, error) {
	n, err := d.r.ReadByte()
	if n == 0 || err != nil {
		return 0, err
	}
	if err := d.r.ReadFull(d.tmp[:n]); err != nil {
		return 0, err
	}
	return int(n), nil
}

// drainBlocks consumes a sub-block chain up to and including its terminator.
func (d *decoder) drainBlocks() error {
	for {
		n, err := d.readBlock()
		if err != nil {
			return eofErr(err)
		}
		if n == 0 {
			return nil
		}
	}
}

func (d *decoder) readImageDescriptor(firstFrame bool) error {
	if err := d.r.ReadFull(d.tmp[:9]); err != nil {
		return eofErr(err)
	}
	left := int(d.tmp[0]) | int(d.tmp[1])<<8
	top := int(d.tmp[2]) | int(d.tmp[3])<<8
	width := int(d.tmp[4]) | int(d.tmp[5])<<8
	height := int(d.tmp[6]) | int(d.tmp[7])<<8
	lflags := d.tmp[8]

	// Each image must fit within the boundaries of the logical screen
	// (GIF89a spec, section 20).
	if left+width > d.width || top+height > d.height {
		return ErrBadImageRect
	}

	d.lineSize = d.width * 4
	d.startX = left * 4
	d.startY = top * d.lineSize
	d.maxX = d.startX + width*4
	d.maxY = d.startY + height*d.lineSize
	d.curX = d.startX
	d.curY = d.startY

	// a zero-width rectangle can never advance the cursor, so park it past
	// the end up front; the raster writer drops every pixel
	if width == 0 {
		d.curY = d.maxY
	}

	if lflags&fInterlace != 0 {
		d.step = 8 * d.lineSize // first interlace pass spacing
		d.parse = 3
	} else {
		d.step = d.lineSize
		d.parse = 0
	}

	if lflags&fColorTable != 0 {
		if err := d.readColorTable(&d.lpal, 2<<(lflags&fColorTableBitsMask), d.transparent); err != nil {
			return err
		}
		d.colorTable = &d.lpal
	} else if d.hasGlobalColorTable {
		d.colorTable = &d.pal
	} else {
		return ErrNoColorTable
	}

	if err := d.processRaster(); err != nil {
		return err
	}

	if firstFrame && d.bgIndex > 0 {
		// pixels the first frame never wrote get the background color,
		// forced opaque even if a graphic control marked it transparent
		d.pal[d.bgIndex][3] = 255
		bg := d.pal[d.bgIndex]
		for pi := 0; pi < d.width*d.height; pi++ {
			if d.history[pi] == 0 {
				copy(d.out[pi*4:pi*4+4], bg[:])
			}
		}
	}
	return nil
}
