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

// Package pixel converts interleaved 8-bit pixel buffers between channel
// layouts (gray, gray+alpha, RGB, RGBA) and flips them vertically.
package pixel

import "fmt"

// Luminance collapses an RGB triple to a single gray value using the
// weights (77*R + 150*G + 29*B) >> 8.
func Luminance(r, g, b byte) byte {
	return byte((77*int(r) + 150*int(g) + 29*int(b)) >> 8)
}

// Convert returns a new buffer holding src re-encoded from srcChannels to
// dstChannels per pixel. Alpha is filled with 255 where the channel count
// grows; color collapses to gray via Luminance where it shrinks. src is
// returned unchanged when the channel counts already match.
func Convert(src []byte, srcChannels, dstChannels, w, h int) ([]byte, error) {
	if srcChannels == dstChannels {
		return src, nil
	}
	if srcChannels < 1 || srcChannels > 4 || dstChannels < 1 || dstChannels > 4 {
		return nil, fmt.Errorf("pixel: unsupported conversion: %d -> %d channels", srcChannels, dstChannels)
	}

	n := w * h
	dst := make([]byte, n*dstChannels)

	combo := func(a, b int) int { return a*8 + b }

	switch combo(srcChannels, dstChannels) {
	case combo(1, 2):
		for i := 0; i < n; i++ {
			dst[i*2], dst[i*2+1] = src[i], 255
		}
	case combo(1, 3):
		for i := 0; i < n; i++ {
			dst[i*3], dst[i*3+1], dst[i*3+2] = src[i], src[i], src[i]
		}
	case combo(1, 4):
		for i := 0; i < n; i++ {
			dst[i*4], dst[i*4+1], dst[i*4+2], dst[i*4+3] = src[i], src[i], src[i], 255
		}
	case combo(2, 1):
		for i := 0; i < n; i++ {
			dst[i] = src[i*2]
		}
	case combo(2, 3):
		for i := 0; i < n; i++ {
			dst[i*3], dst[i*3+1], dst[i*3+2] = src[i*2], src[i*2], src[i*2]
		}
	case combo(2, 4):
		for i := 0; i < n; i++ {
			dst[i*4], dst[i*4+1], dst[i*4+2], dst[i*4+3] = src[i*2], src[i*2], src[i*2], src[i*2+1]
		}
	case combo(3, 1):
		for i := 0; i < n; i++ {
			dst[i] = Luminance(src[i*3], src[i*3+1], src[i*3+2])
		}
	case combo(3, 2):
		for i := 0; i < n; i++ {
			dst[i*2], dst[i*2+1] = Luminance(src[i*3], src[i*3+1], src[i*3+2]), 255
		}
	case combo(3, 4):
		for i := 0; i < n; i++ {
			dst[i*4], dst[i*4+1], dst[i*4+2], dst[i*4+3] = src[i*3], src[i*3+1], src[i*3+2], 255
		}
	case combo(4, 1):
		for i := 0; i < n; i++ {
			dst[i] = Luminance(src[i*4], src[i*4+1], src[i*4+2])
		}
	case combo(4, 2):
		for i := 0; i < n; i++ {
			dst[i*2], dst[i*2+1] = Luminance(src[i*4], src[i*4+1], src[i*4+2]), src[i*4+3]
		}
	case combo(4, 3):
		for i := 0; i < n; i++ {
			dst[i*3], dst[i*3+1], dst[i*3+2] = src[i*4], src[i*4+1], src[i*4+2]
		}
	default:
		return nil, fmt.Errorf("pixel: unsupported conversion: %d -> %d channels", srcChannels, dstChannels)
	}
	return dst, nil
}

// FlipVertical mirrors a single image in place around its horizontal axis.
func FlipVertical(pix []byte, w, h, channels int) {
	rowBytes := w * channels
	tmp := make([]byte, rowBytes)
	for row := 0; row < h/2; row++ {
		top := pix[row*rowBytes : (row+1)*rowBytes]
		bottom := pix[(h-row-1)*rowBytes : (h-row)*rowBytes]
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
}

// FlipFrames applies FlipVertical to each frame of a stacked animation
// buffer, so every frame mirrors independently.
func FlipFrames(pix []byte, w, h, layers, channels int) {
	stride := w * h * channels
	for i := 0; i < layers; i++ {
		FlipVertical(pix[i*stride:(i+1)*stride], w, h, channels)
	}
}
