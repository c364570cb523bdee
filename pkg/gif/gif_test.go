package gif_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/ostafen/gifler/pkg/gif"
	"github.com/stretchr/testify/require"
)

var (
	red   = [4]byte{0xFF, 0x00, 0x00, 0xFF}
	green = [4]byte{0x00, 0xFF, 0x00, 0xFF}
	blue  = [4]byte{0x00, 0x00, 0xFF, 0xFF}
	zero  = [4]byte{0x00, 0x00, 0x00, 0x00}
)

// palRGB is a flat red/green/blue/black color table.
var palRGB = []byte{
	0xFF, 0x00, 0x00,
	0x00, 0xFF, 0x00,
	0x00, 0x00, 0xFF,
	0x00, 0x00, 0x00,
}

type gcSpec struct {
	disposal    byte
	transparent int // -1 when transparency is disabled
	delayCS     uint16
}

type frameSpec struct {
	left, top     int
	width, height int
	interlace     bool
	pix           []byte // palette indices in logical row-major order
	localPal      []byte // flat RGB triples, power-of-two count
	litWidth      int
	gc            *gcSpec
}

// lzwEncode compresses indices using literal codes only, emitting a leading
// clear code and a trailing end code, then chunks the result into a GIF
// sub-block chain. The dictionary bookkeeping mirrors the decoder's so the
// code width grows at the same input positions.
func lzwEncode(litWidth int, indices []byte) []byte {
	clearCode := 1 << litWidth
	endCode := clearCode + 1
	codesize := litWidth + 1
	avail := clearCode + 2
	oldcode := -1

	var (
		bits  uint32
		nbits int
		data  []byte
	)
	emit := func(code int) {
		bits |= uint32(code) << nbits
		nbits += codesize
		for nbits >= 8 {
			data = append(data, byte(bits))
			bits >>= 8
			nbits -= 8
		}
	}

	emit(clearCode)
	for _, p := range indices {
		emit(int(p))
		if oldcode >= 0 {
			avail++
		}
		if avail&((1<<codesize)-1) == 0 && avail <= 0xFFF {
			codesize++
		}
		oldcode = int(p)
	}
	emit(endCode)
	if nbits > 0 {
		data = append(data, byte(bits))
	}

	out := []byte{byte(litWidth)}
	for len(data) > 0 {
		n := len(data)
		if n > 255 {
			n = 255
		}
		out = append(out, byte(n))
		out = append(out, data[:n]...)
		data = data[n:]
	}
	return append(out, 0)
}

func appendUint16(b []byte, v int) []byte {
	return append(b, byte(v), byte(v>>8))
}

// palSizeBits returns the size field encoding the smallest power-of-two
// table holding colors entries.
func palSizeBits(colors int) int {
	bits := 0
	for 2<<bits < colors {
		bits++
	}
	return bits
}

func appendColorTable(b []byte, pal []byte) []byte {
	colors := len(pal) / 3
	padded := 2 << palSizeBits(colors)
	b = append(b, pal...)
	for i := colors; i < padded; i++ {
		b = append(b, 0, 0, 0)
	}
	return b
}

// interlaceRows permutes logical rows into the four-pass GIF transmission order.
func interlaceRows(pix []byte, w, h int) []byte {
	out := make([]byte, 0, len(pix))
	for _, pass := range [][2]int{{0, 8}, {4, 8}, {2, 4}, {1, 2}} {
		for y := pass[0]; y < h; y += pass[1] {
			out = append(out, pix[y*w:(y+1)*w]...)
		}
	}
	return out
}

func buildGIF(screenW, screenH int, globalPal []byte, bgIndex byte, loopCount int, frames ...frameSpec) []byte {
	b := []byte("GIF89a")
	b = appendUint16(b, screenW)
	b = appendUint16(b, screenH)

	var flags byte
	if globalPal != nil {
		flags = 0x80 | byte(palSizeBits(len(globalPal)/3))
	}
	b = append(b, flags, bgIndex, 0)
	if globalPal != nil {
		b = appendColorTable(b, globalPal)
	}

	if loopCount >= 0 {
		b = append(b, 0x21, 0xFF, 11)
		b = append(b, "NETSCAPE2.0"...)
		b = append(b, 3, 1, byte(loopCount), byte(loopCount>>8), 0)
	}

	for _, f := range frames {
		if f.gc != nil {
			gcFlags := f.gc.disposal << 2
			transp := byte(0)
			if f.gc.transparent >= 0 {
				gcFlags |= 0x01
				transp = byte(f.gc.transparent)
			}
			b = append(b, 0x21, 0xF9, 4, gcFlags)
			b = appendUint16(b, int(f.gc.delayCS))
			b = append(b, transp, 0)
		}

		b = append(b, 0x2C)
		b = appendUint16(b, f.left)
		b = appendUint16(b, f.top)
		b = appendUint16(b, f.width)
		b = appendUint16(b, f.height)

		var lflags byte
		if f.localPal != nil {
			lflags |= 0x80 | byte(palSizeBits(len(f.localPal)/3))
		}
		if f.interlace {
			lflags |= 0x40
		}
		b = append(b, lflags)
		if f.localPal != nil {
			b = appendColorTable(b, f.localPal)
		}

		pix := f.pix
		if f.interlace {
			pix = interlaceRows(pix, f.width, f.height)
		}
		litWidth := f.litWidth
		if litWidth == 0 {
			litWidth = 2
		}
		b = append(b, lzwEncode(litWidth, pix)...)
	}
	return append(b, 0x3B)
}

func framePixel(a *gif.Animation, frame, i int) [4]byte {
	p := a.Frame(frame)
	return [4]byte{p[i*4], p[i*4+1], p[i*4+2], p[i*4+3]}
}

func TestDecodeSingleFrame(t *testing.T) {
	// 2x2 screen, two-color global palette, raster indices 0,0,1,1
	data := []byte{
		0x47, 0x49, 0x46, 0x38, 0x39, 0x61, // "GIF89a"
		0x02, 0x00, 0x02, 0x00, 0x80, 0x00, 0x00,
		0xFF, 0x00, 0x00, 0x00, 0xFF, 0x00,
		0x2C, 0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x02, 0x00, 0x00,
		0x02, 0x03, 0x04, 0x12, 0x05, 0x00,
		0x3B,
	}

	anim, err := gif.DecodeAllBytes(data, nil)
	require.NoError(t, err)

	require.Equal(t, 2, anim.Width)
	require.Equal(t, 2, anim.Height)
	require.Equal(t, 4, anim.Channels)
	require.Equal(t, 1, anim.Layers())
	require.Equal(t, []int32{0}, anim.Delays)
	require.Equal(t, -1, anim.LoopCount)

	for i, want := range [][4]byte{red, red, green, green} {
		require.Equal(t, want, framePixel(anim, 0, i), "pixel %d", i)
	}
}

func TestDecodeFromStream(t *testing.T) {
	data := buildGIF(2, 2, palRGB, 0, -1, frameSpec{
		width: 2, height: 2, pix: []byte{0, 1, 2, 3},
	})

	anim, err := gif.DecodeAll(bytes.NewReader(data), nil)
	require.NoError(t, err)
	require.Equal(t, 1, anim.Layers())

	want := [][4]byte{red, green, blue, {0, 0, 0, 255}}
	for i := range want {
		require.Equal(t, want[i], framePixel(anim, 0, i))
	}
}

func TestDisposalRestoreBackground(t *testing.T) {
	data := buildGIF(2, 2, palRGB, 0, -1,
		frameSpec{
			width: 2, height: 2, pix: []byte{0, 0, 0, 0},
			gc: &gcSpec{disposal: 2, transparent: -1, delayCS: 10},
		},
		frameSpec{
			width: 1, height: 1, pix: []byte{1},
			gc: &gcSpec{disposal: 0, transparent: -1, delayCS: 10},
		},
	)

	anim, err := gif.DecodeAllBytes(data, nil)
	require.NoError(t, err)
	require.Equal(t, 2, anim.Layers())
	require.Equal(t, []int32{100, 100}, anim.Delays)

	// frame 1 paints the whole screen red
	for i := 0; i < 4; i++ {
		require.Equal(t, red, framePixel(anim, 0, i))
	}

	// disposal 2 restores every touched pixel to the pre-frame background
	// (transparent black), then frame 2 overlays a single green pixel
	require.Equal(t, green, framePixel(anim, 1, 0))
	for i := 1; i < 4; i++ {
		require.Equal(t, zero, framePixel(anim, 1, i))
	}
}

func TestTransparentPixelKeepsPriorColor(t *testing.T) {
	data := buildGIF(2, 2, palRGB, 0, -1,
		frameSpec{
			width: 2, height: 2, pix: []byte{0, 0, 0, 0},
			gc: &gcSpec{disposal: 1, transparent: -1},
		},
		frameSpec{
			width: 2, height: 2, pix: []byte{1, 2, 1, 1},
			gc: &gcSpec{disposal: 1, transparent: 1},
		},
	)

	anim, err := gif.DecodeAllBytes(data, nil)
	require.NoError(t, err)
	require.Equal(t, 2, anim.Layers())

	// index 1 is transparent in frame 2: those pixels keep frame 1's red
	require.Equal(t, red, framePixel(anim, 1, 0))
	require.Equal(t, blue, framePixel(anim, 1, 1))
	require.Equal(t, red, framePixel(anim, 1, 2))
	require.Equal(t, red, framePixel(anim, 1, 3))
}

func TestDisposalRestorePrevious(t *testing.T) {
	data := buildGIF(2, 2, palRGB, 0, -1,
		frameSpec{
			width: 2, height: 2, pix: []byte{0, 0, 0, 0},
			gc: &gcSpec{disposal: 3, transparent: -1},
		},
		frameSpec{
			width: 1, height: 1, pix: []byte{1},
			gc: &gcSpec{disposal: 3, transparent: -1},
		},
		frameSpec{
			left: 1, top: 1, width: 1, height: 1, pix: []byte{2},
		},
	)

	anim, err := gif.DecodeAllBytes(data, nil)
	require.NoError(t, err)
	require.Equal(t, 3, anim.Layers())

	// frame 1's disposal 3 has no two-back and falls back to disposal 2,
	// so frame 2 starts from a cleared canvas
	require.Equal(t, green, framePixel(anim, 1, 0))
	for i := 1; i < 4; i++ {
		require.Equal(t, zero, framePixel(anim, 1, i))
	}

	// frame 2's disposal 3 restores its touched pixel from frame 1
	require.Equal(t, red, framePixel(anim, 2, 0))
	require.Equal(t, zero, framePixel(anim, 2, 1))
	require.Equal(t, zero, framePixel(anim, 2, 2))
	require.Equal(t, blue, framePixel(anim, 2, 3))
}

func TestInterlacedFrame(t *testing.T) {
	// 8 rows, one solid color per row; interlacing reorders transmission,
	// not storage
	pal := make([]byte, 0, 8*3)
	for i := 0; i < 8; i++ {
		pal = append(pal, byte(i*32), byte(255-i*32), byte(i))
	}

	const w, h = 4, 8
	pix := make([]byte, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix = append(pix, byte(y))
		}
	}

	data := buildGIF(w, h, pal, 0, -1, frameSpec{
		width: w, height: h, interlace: true, pix: pix, litWidth: 3,
	})

	anim, err := gif.DecodeAllBytes(data, nil)
	require.NoError(t, err)

	frame := anim.Frame(0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (y*w + x) * 4
			require.Equal(t, byte(y*32), frame[off], "row %d", y)
			require.Equal(t, byte(255-y*32), frame[off+1], "row %d", y)
		}
	}
}

func TestInterlacedSingleRow(t *testing.T) {
	data := buildGIF(2, 1, palRGB, 0, -1, frameSpec{
		width: 2, height: 1, interlace: true, pix: []byte{0, 1},
	})

	anim, err := gif.DecodeAllBytes(data, nil)
	require.NoError(t, err)
	require.Equal(t, red, framePixel(anim, 0, 0))
	require.Equal(t, green, framePixel(anim, 0, 1))
}

func TestZeroWidthImageBlock(t *testing.T) {
	data := buildGIF(2, 2, palRGB, 0, -1,
		frameSpec{width: 2, height: 2, pix: []byte{0, 0, 0, 0}},
		frameSpec{width: 0, height: 2, pix: nil},
	)

	anim, err := gif.DecodeAllBytes(data, nil)
	require.NoError(t, err)
	require.Equal(t, 2, anim.Layers())

	// the zero-width block writes nothing: frame 2 equals frame 1
	require.Equal(t, anim.Frame(0), anim.Frame(1))
}

func TestEmptyRasterData(t *testing.T) {
	// sub-block terminator immediately after the initial code size
	data := []byte("GIF89a")
	data = appendUint16(data, 2)
	data = appendUint16(data, 2)
	data = append(data, 0x80, 0x00, 0x00)
	data = appendColorTable(data, palRGB[:6])
	data = append(data, 0x2C, 0, 0, 0, 0, 2, 0, 2, 0, 0)
	data = append(data, 0x02, 0x00) // lzw code size, empty chain
	data = append(data, 0x3B)

	anim, err := gif.DecodeAllBytes(data, nil)
	require.NoError(t, err)
	require.Equal(t, 1, anim.Layers())
	for i := 0; i < 4; i++ {
		require.Equal(t, zero, framePixel(anim, 0, i))
	}
}

func TestBackgroundFillOnFirstFrame(t *testing.T) {
	data := buildGIF(2, 2, palRGB, 1, -1, frameSpec{
		width: 1, height: 1, pix: []byte{0},
	})

	anim, err := gif.DecodeAllBytes(data, nil)
	require.NoError(t, err)

	// pixels the first frame never wrote take the background color
	require.Equal(t, red, framePixel(anim, 0, 0))
	for i := 1; i < 4; i++ {
		require.Equal(t, green, framePixel(anim, 0, i))
	}
}

func TestLoopCount(t *testing.T) {
	data := buildGIF(1, 1, palRGB, 0, 3, frameSpec{
		width: 1, height: 1, pix: []byte{0},
	})

	anim, err := gif.DecodeAllBytes(data, nil)
	require.NoError(t, err)
	require.Equal(t, 3, anim.LoopCount)
}

func TestExtensionsAreSkipped(t *testing.T) {
	data := []byte("GIF89a")
	data = appendUint16(data, 1)
	data = appendUint16(data, 1)
	data = append(data, 0x80, 0x00, 0x00)
	data = appendColorTable(data, palRGB[:6])
	// comment extension
	data = append(data, 0x21, 0xFE, 5)
	data = append(data, "hello"...)
	data = append(data, 0)
	// application extension that is not NETSCAPE2.0
	data = append(data, 0x21, 0xFF, 11)
	data = append(data, "IMAGEMAGICK"...)
	data = append(data, 2, 0xAA, 0xBB, 0)
	data = append(data, 0x2C, 0, 0, 0, 0, 1, 0, 1, 0, 0)
	data = append(data, lzwEncode(2, []byte{1})...)
	data = append(data, 0x3B)

	anim, err := gif.DecodeAllBytes(data, nil)
	require.NoError(t, err)
	require.Equal(t, 1, anim.Layers())
	require.Equal(t, green, framePixel(anim, 0, 0))
}

func TestDelayDoesNotCarryOver(t *testing.T) {
	data := buildGIF(1, 1, palRGB, 0, -1,
		frameSpec{
			width: 1, height: 1, pix: []byte{0},
			gc: &gcSpec{transparent: -1, delayCS: 7},
		},
		frameSpec{width: 1, height: 1, pix: []byte{1}},
	)

	anim, err := gif.DecodeAllBytes(data, nil)
	require.NoError(t, err)
	require.Equal(t, []int32{70, 0}, anim.Delays)
}

func TestLocalColorTable(t *testing.T) {
	data := buildGIF(1, 1, palRGB, 0, -1, frameSpec{
		width: 1, height: 1, pix: []byte{0},
		localPal: []byte{0x00, 0x00, 0xFF, 0x00, 0x00, 0x00},
	})

	anim, err := gif.DecodeAllBytes(data, nil)
	require.NoError(t, err)
	require.Equal(t, blue, framePixel(anim, 0, 0))
}

func TestGrayscaleConversion(t *testing.T) {
	data := buildGIF(2, 2, palRGB, 0, -1, frameSpec{
		width: 2, height: 2, pix: []byte{0, 0, 1, 1},
	})

	anim, err := gif.DecodeAllBytes(data, &gif.Options{Channels: 1})
	require.NoError(t, err)
	require.Equal(t, 1, anim.Channels)

	// (77*255)>>8 = 76 for pure red, (150*255)>>8 = 149 for pure green
	require.Equal(t, []byte{76, 76, 149, 149}, anim.Frame(0))
}

func TestFlipVertical(t *testing.T) {
	data := buildGIF(2, 2, palRGB, 0, -1, frameSpec{
		width: 2, height: 2, pix: []byte{0, 0, 1, 1},
	})

	anim, err := gif.DecodeAllBytes(data, &gif.Options{FlipVertical: true})
	require.NoError(t, err)

	for i, want := range [][4]byte{green, green, red, red} {
		require.Equal(t, want, framePixel(anim, 0, i))
	}
}

func TestBadMagic(t *testing.T) {
	_, err := gif.DecodeAllBytes([]byte("JIF89axxxxxxxx"), nil)
	require.ErrorIs(t, err, gif.ErrNotGIF)
}

func TestBadVersion(t *testing.T) {
	_, err := gif.DecodeAllBytes([]byte("GIF88a\x01\x00\x01\x00\x00\x00\x00\x3B"), nil)
	require.ErrorIs(t, err, gif.ErrBadVersion)
}

func TestTooLarge(t *testing.T) {
	data := buildGIF(64, 1, palRGB, 0, -1, frameSpec{
		width: 1, height: 1, pix: []byte{0},
	})

	_, err := gif.DecodeAllBytes(data, &gif.Options{MaxDimension: 32})
	require.ErrorIs(t, err, gif.ErrTooLarge)
}

func TestBadImageRect(t *testing.T) {
	data := buildGIF(2, 2, palRGB, 0, -1, frameSpec{
		left: 1, top: 0, width: 2, height: 2, pix: []byte{0, 0, 0, 0},
	})

	_, err := gif.DecodeAllBytes(data, nil)
	require.ErrorIs(t, err, gif.ErrBadImageRect)
}

func TestNoColorTable(t *testing.T) {
	data := buildGIF(1, 1, nil, 0, -1, frameSpec{
		width: 1, height: 1, pix: []byte{0},
	})

	_, err := gif.DecodeAllBytes(data, nil)
	require.ErrorIs(t, err, gif.ErrNoColorTable)
}

func TestUnknownBlock(t *testing.T) {
	data := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00\x99")

	_, err := gif.DecodeAllBytes(data, nil)
	require.ErrorIs(t, err, gif.ErrUnknownBlock)
}

func TestMissingImageData(t *testing.T) {
	data := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00\x3B")

	_, err := gif.DecodeAllBytes(data, nil)
	require.ErrorIs(t, err, gif.ErrMissingImageData)
}

func TestIllegalCode(t *testing.T) {
	data := []byte("GIF89a")
	data = appendUint16(data, 2)
	data = appendUint16(data, 2)
	data = append(data, 0x80, 0x00, 0x00)
	data = appendColorTable(data, palRGB[:6])
	data = append(data, 0x2C, 0, 0, 0, 0, 2, 0, 2, 0, 0)
	// clear code (4) followed by code 7, which is past the dictionary
	data = append(data, 0x02, 0x01, 0x3C, 0x00)
	data = append(data, 0x3B)

	_, err := gif.DecodeAllBytes(data, nil)
	require.ErrorIs(t, err, gif.ErrBadCode)
	require.Contains(t, err.Error(), "corrupt GIF")
}

func TestNoClearCode(t *testing.T) {
	data := []byte("GIF89a")
	data = appendUint16(data, 1)
	data = appendUint16(data, 1)
	data = append(data, 0x80, 0x00, 0x00)
	data = appendColorTable(data, palRGB[:6])
	data = append(data, 0x2C, 0, 0, 0, 0, 1, 0, 1, 0, 0)
	// a literal code with no preceding clear code
	data = append(data, 0x02, 0x01, 0x00, 0x00)
	data = append(data, 0x3B)

	_, err := gif.DecodeAllBytes(data, nil)
	require.ErrorIs(t, err, gif.ErrNoClearCode)
}

func TestTruncatedStream(t *testing.T) {
	data := buildGIF(2, 2, palRGB, 0, -1, frameSpec{
		width: 2, height: 2, pix: []byte{0, 1, 2, 3},
	})

	_, err := gif.DecodeAllBytes(data[:len(data)-4], nil)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestInvalidChannelCount(t *testing.T) {
	data := buildGIF(1, 1, palRGB, 0, -1, frameSpec{
		width: 1, height: 1, pix: []byte{0},
	})

	_, err := gif.DecodeAllBytes(data, &gif.Options{Channels: 5})
	require.Error(t, err)
}
