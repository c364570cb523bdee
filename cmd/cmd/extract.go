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
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ostafen/gifler/internal/extract"
	"github.com/spf13/cobra"
)

func DefineExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file|dir> ...",
		Short: "Decode animated GIFs and write the composed frames to disk",
		Long: `The 'extract' command decodes one or more animated GIF files and writes every
composed frame as an individual image. Frames are full logical-screen canvases:
each one already has the GIF disposal model applied, so partial-update GIFs come
out as complete images.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         RunExtract,
	}

	cmd.Flags().StringP("output-dir", "o", "", "directory where the extracted frames are placed")
	cmd.Flags().StringP("format", "f", "png", "output format: png, bmp or raw")
	cmd.Flags().IntP("channels", "c", 4, "output channels per pixel (1-4)")
	cmd.Flags().Bool("flip", false, "flip every frame vertically")
	cmd.Flags().Bool("manifest", false, "write an XML manifest next to the frames")
	cmd.Flags().Bool("no-log", false, "disable logging")

	return cmd
}

func RunExtract(cmd *cobra.Command, args []string) error {
	opts, err := parseExtractOptions(cmd)
	if err != nil {
		return err
	}
	return extract.Extract(args, opts)
}

func parseExtractOptions(cmd *cobra.Command) (extract.Options, error) {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	format, _ := cmd.Flags().GetString("format")
	channels, _ := cmd.Flags().GetInt("channels")
	flip, _ := cmd.Flags().GetBool("flip")
	writeManifest, _ := cmd.Flags().GetBool("manifest")
	disableLog, _ := cmd.Flags().GetBool("no-log")
	logLevel, _ := cmd.Flags().GetString("log-level")

	switch format {
	case "png", "bmp", "raw":
	default:
		return extract.Options{}, fmt.Errorf("unknown output format: %q", format)
	}

	return extract.Options{
		OutputDir:  outputDir,
		Format:     format,
		Channels:   channels,
		Flip:       flip,
		Manifest:   writeManifest,
		DisableLog: disableLog,
		LogLevel:   parseLevel(logLevel),
	}, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return slog.LevelInfo
}
