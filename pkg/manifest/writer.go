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
package manifest

import (
	"encoding/xml"
	"io"
)

// Writer streams a manifest document to an io.Writer: header first, then
// one frame element at a time, closed by Close.
type Writer struct {
	w   io.Writer
	enc *xml.Encoder
}

// NewWriter creates a Writer emitting indented XML.
func NewWriter(w io.Writer) *Writer {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	return &Writer{
		w:   w,
		enc: enc,
	}
}

// WriteHeader writes the XML declaration, the opening <manifest> tag and
// the document header.
func (w *Writer) WriteHeader(hdr Header) error {
	_, _ = w.w.Write([]byte(xml.Header))

	start := xml.StartElement{
		Name: xml.Name{Local: "manifest"},
	}
	if err := w.enc.EncodeToken(start); err != nil {
		return err
	}
	return w.enc.Encode(hdr)
}

// WriteFrame encodes one frame entry.
func (w *Writer) WriteFrame(f Frame) error {
	return w.enc.Encode(f)
}

// Close writes the closing tag and flushes the encoder.
func (w *Writer) Close() error {
	if err := w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "manifest"}}); err != nil {
		return err
	}
	return w.enc.Flush()
}
