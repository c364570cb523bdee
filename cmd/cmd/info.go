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
	"bufio"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ostafen/gifler/pkg/gif"
	fmtutil "github.com/ostafen/gifler/pkg/util/format"
	osutil "github.com/ostafen/gifler/pkg/util/os"
	"github.com/spf13/cobra"
)

func DefineInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "info <file|dir> ...",
		Short:        "Show animation metadata for one or more GIF files",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         RunInfo,
	}

	cmd.Flags().Bool("delays", false, "also print the per-frame delay table")
	return cmd
}

func RunInfo(cmd *cobra.Command, args []string) error {
	showDelays, _ := cmd.Flags().GetBool("delays")

	filePaths := make([]string, 0, len(args))
	for _, arg := range args {
		paths, err := osutil.ListFiles(arg)
		if err != nil {
			return err
		}
		filePaths = append(filePaths, paths...)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSIZE\tSCREEN\tFRAMES\tDURATION\tLOOP")

	for _, path := range filePaths {
		anim, size, err := decodeFile(path)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\terror: %v\n", path, err)
			continue
		}

		loop := "forever"
		if anim.LoopCount > 0 {
			loop = fmt.Sprintf("%d", anim.LoopCount)
		} else if anim.LoopCount < 0 {
			loop = "once"
		}

		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\t%s\t%s\n",
			path,
			fmtutil.FormatBytes(size),
			anim.Width, anim.Height,
			anim.Layers(),
			fmtutil.FormatDuration(anim.Duration()),
			loop,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !showDelays {
		return nil
	}

	for _, path := range filePaths {
		anim, _, err := decodeFile(path)
		if err != nil {
			continue
		}
		fmt.Printf("\n%s:\n", path)
		dw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(dw, "FRAME\tDELAY")
		for i, d := range anim.Delays {
			fmt.Fprintf(dw, "%d\t%dms\n", i, d)
		}
		if err := dw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func decodeFile(path string) (*gif.Animation, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	finfo, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}

	anim, err := gif.DecodeAll(bufio.NewReader(f), nil)
	if err != nil {
		return nil, 0, err
	}
	return anim, finfo.Size(), nil
}
