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
package extract

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"

	"github.com/ostafen/gifler/internal/env"
	"github.com/ostafen/gifler/pkg/gif"
	"github.com/ostafen/gifler/pkg/manifest"
	"github.com/ostafen/gifler/pkg/pbar"
	"github.com/ostafen/gifler/pkg/pixel"
	fmtutil "github.com/ostafen/gifler/pkg/util/format"
	ioutil "github.com/ostafen/gifler/pkg/util/io"
	osutil "github.com/ostafen/gifler/pkg/util/os"
)

type Options struct {
	OutputDir  string
	Format     string // "png", "bmp" or "raw"
	Channels   int
	Flip       bool
	Manifest   bool
	DisableLog bool
	LogLevel   slog.Level
}

// Extract decodes every GIF named by paths (files or directories) and
// writes the composed frames to the output directory.
func Extract(paths []string, opts Options) error {
	filePaths := make([]string, 0, len(paths))
	for _, p := range paths {
		files, err := osutil.ListFiles(p)
		if err != nil {
			return err
		}
		filePaths = append(filePaths, files...)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if _, err := osutil.EnsureDir(opts.OutputDir); err != nil {
		return err
	}

	var logFilePath string
	if !opts.DisableLog {
		logFilePath = filepath.Join(opts.OutputDir, "extract.log")
	}

	logger, logFile, err := setupLogger(logFilePath, opts.LogLevel)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	for _, path := range filePaths {
		if err := extractFile(logger, path, opts); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func extractFile(logger *slog.Logger, path string, opts Options) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	finfo, err := f.Stat()
	if err != nil {
		return err
	}

	start := time.Now()

	anim, err := gif.DecodeAll(bufio.NewReader(f), &gif.Options{
		Channels:     opts.Channels,
		FlipVertical: opts.Flip,
	})
	if err != nil {
		logger.Error("decode failed", "file", path, "err", err)
		return err
	}

	fmt.Println("[INFO] Starting extraction...")
	fmt.Printf("[INFO] Source: \t%s (%s)\n", path, fmtutil.FormatBytes(finfo.Size()))
	fmt.Printf("[INFO] Screen: \t%dx%d, %d channel(s)\n", anim.Width, anim.Height, anim.Channels)
	fmt.Printf("[INFO] Frames: \t%d (%s per cycle)\n", anim.Layers(), fmtutil.FormatDuration(anim.Duration()))

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var mw *manifest.Writer
	if opts.Manifest {
		manifestPath := filepath.Join(opts.OutputDir, base+".xml")
		mf, err := os.Create(manifestPath)
		if err != nil {
			return err
		}
		defer mf.Close()

		mw = manifest.NewWriter(mf)
		defer mw.Close()

		err = mw.WriteHeader(manifest.Header{
			Creator: manifest.Creator{
				Package:              env.AppName,
				Version:              env.Version,
				ExecutionEnvironment: manifest.GetExecEnv(),
			},
			Source: manifest.Source{
				ImageFilename: path,
				ImageSize:     uint64(finfo.Size()),
				Width:         anim.Width,
				Height:        anim.Height,
				Channels:      anim.Channels,
				LoopCount:     anim.LoopCount,
			},
		})
		if err != nil {
			return err
		}
	}

	pb := pbar.NewProgressBarState(anim.Layers())

	for i := 0; i < anim.Layers(); i++ {
		name := fmt.Sprintf("%s_%03d.%s", base, i, opts.Format)
		framePath := filepath.Join(opts.OutputDir, name)

		if err := writeFrame(framePath, anim, i, opts.Format); err != nil {
			return err
		}
		logger.Debug("frame written", "file", name, "delay_ms", anim.Delays[i])

		if mw != nil {
			var size uint64
			if st, err := os.Stat(framePath); err == nil {
				size = uint64(st.Size())
			}
			err := mw.WriteFrame(manifest.Frame{
				Filename: name,
				Index:    i,
				DelayMS:  anim.Delays[i],
				Size:     size,
			})
			if err != nil {
				logger.Error("unable to write manifest entry", "err", err)
			}
		}

		pb.ProcessedFrames++
		pb.Render(false)
	}
	pb.Finish()

	fmt.Printf("[INFO] Extraction completed!\n")
	fmt.Printf("[INFO] Frames written: \t%d\n", anim.Layers())
	fmt.Printf("[INFO] Destination: \t%s\n", opts.OutputDir)
	fmt.Printf("[INFO] Duration: \t%s\n", fmtutil.FormatDuration(time.Since(start)))
	return nil
}

func writeFrame(path string, anim *gif.Animation, i int, format string) error {
	frame := anim.Frame(i)

	switch format {
	case "raw":
		return ioutil.CopyFile(path, bytes.NewReader(frame))
	case "png":
		img, err := frameImage(anim, frame)
		if err != nil {
			return err
		}
		return ioutil.WriteFile(path, func(w io.Writer) error {
			return png.Encode(w, img)
		})
	case "bmp":
		img, err := frameImage(anim, frame)
		if err != nil {
			return err
		}
		return ioutil.WriteFile(path, func(w io.Writer) error {
			return bmp.Encode(w, img)
		})
	default:
		return fmt.Errorf("unknown output format: %q", format)
	}
}

// frameImage wraps raw frame bytes in an image.Image for the stdlib and
// x/image encoders. Gray+alpha frames have no matching image type and can
// only be dumped raw.
func frameImage(anim *gif.Animation, frame []byte) (image.Image, error) {
	rect := image.Rect(0, 0, anim.Width, anim.Height)

	switch anim.Channels {
	case 1:
		return &image.Gray{Pix: frame, Stride: anim.Width, Rect: rect}, nil
	case 3:
		pix, err := pixel.Convert(frame, 3, 4, anim.Width, anim.Height)
		if err != nil {
			return nil, err
		}
		return &image.RGBA{Pix: pix, Stride: 4 * anim.Width, Rect: rect}, nil
	case 4:
		return &image.RGBA{Pix: frame, Stride: 4 * anim.Width, Rect: rect}, nil
	default:
		return nil, fmt.Errorf("%d-channel frames can only be written as raw", anim.Channels)
	}
}

// setupLogger initializes a slog.Logger that writes to a file, or discards
// output when logFilePath is empty. The returned *os.File, if not nil,
// should be closed by the caller.
func setupLogger(logFilePath string, minLevel slog.Level) (*slog.Logger, *os.File, error) {
	var writer io.Writer
	var file *os.File

	if logFilePath == "" {
		writer = io.Discard
	} else {
		f, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %q: %w", logFilePath, err)
		}
		writer = f
		file = f
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: minLevel,
	})
	return slog.New(handler), file, nil
}
