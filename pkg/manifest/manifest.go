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

// Package manifest writes and reads the XML index produced alongside an
// extracted animation: one header describing the source stream and one
// entry per frame written to disk.
package manifest

import (
	"encoding/xml"
	"os"
	"os/user"
	"strconv"
	"time"

	"github.com/ostafen/gifler/pkg/sysinfo"
)

// Header is the first element of a manifest document, written inside the
// <manifest> root element.
type Header struct {
	XMLName xml.Name `xml:"animation"`
	Creator Creator  `xml:"creator"`
	Source  Source   `xml:"source"`
}

// Creator describes the software and environment that produced the manifest.
type Creator struct {
	Package              string  `xml:"package"`
	Version              string  `xml:"version"`
	ExecutionEnvironment ExecEnv `xml:"execution_environment"`
}

// ExecEnv provides information about the host the extraction ran on.
type ExecEnv struct {
	OS      string `xml:"os_sysname"`
	Release string `xml:"os_release"`
	Version string `xml:"os_version"`
	Host    string `xml:"host"`
	UID     int    `xml:"uid"`
	Start   string `xml:"start_time"`
}

// Source describes the decoded GIF stream.
type Source struct {
	ImageFilename string `xml:"image_filename"`
	ImageSize     uint64 `xml:"image_size"`
	Width         int    `xml:"width"`
	Height        int    `xml:"height"`
	Channels      int    `xml:"channels"`
	LoopCount     int    `xml:"loop_count"`
}

// Frame records one extracted frame.
type Frame struct {
	XMLName  xml.Name `xml:"frame"`
	Filename string   `xml:"filename"`
	Index    int      `xml:"index"`
	DelayMS  int32    `xml:"delay_ms"`
	Size     uint64   `xml:"filesize"`
}

// GetExecEnv gathers runtime information for the creator block.
func GetExecEnv() ExecEnv {
	sinfo, err := sysinfo.Stat()
	if err != nil {
		sinfo = &sysinfo.SysUnknown
	}

	host, _ := os.Hostname()

	uid := -1
	if u, err := user.Current(); err == nil {
		if v, err := strconv.Atoi(u.Uid); err == nil {
			uid = v
		}
	}

	return ExecEnv{
		OS:      sinfo.Name,
		Release: sinfo.Release,
		Version: sinfo.Version,
		Host:    host,
		UID:     uid,
		Start:   time.Now().Format(time.RFC3339),
	}
}
