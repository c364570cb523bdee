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
package sysinfo

import (
	"bufio"
	"bytes"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// SysUnknown is a pre-defined SysInfo struct representing unknown system information.
var SysUnknown = SysInfo{
	Name:    runtime.GOOS,
	Release: "unknown",
	Version: "unknown",
}

// SysInfo holds the basic operating system details.
type SysInfo struct {
	Name    string // operating system name (e.g., "linux", "darwin", "windows")
	Release string // marketing name or release version of the OS
	Version string // specific build or kernel version of the OS
}

// Stat gathers and returns operating system information for the current host.
func Stat() (*SysInfo, error) {
	osSysname := runtime.GOOS
	osRelease := "unknown"
	osVersion := "unknown"

	switch osSysname {
	case "linux":
		osRelease, osVersion = getLinuxInfo()
	case "darwin":
		osRelease, osVersion = getDarwinInfo()
	}

	return &SysInfo{
		Name:    osSysname,
		Release: osRelease,
		Version: osVersion,
	}, nil
}

// getLinuxInfo parses /etc/os-release, the common standard for distributing
// OS identification data.
func getLinuxInfo() (string, string) {
	f, err := os.Open("/etc/os-release")
	if err != nil {
		return "unknown", "unknown"
	}
	defer f.Close()

	var name, version string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "NAME=") {
			name = strings.Trim(line[5:], `"`)
		}
		if strings.HasPrefix(line, "VERSION=") {
			version = strings.Trim(line[8:], `"`)
		}
	}
	return name, version
}

// getDarwinInfo executes 'sw_vers' and parses its output.
func getDarwinInfo() (string, string) {
	out, err := exec.Command("sw_vers").Output()
	if err != nil {
		return "unknown", "unknown"
	}

	var name, version string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "ProductName:") {
			name = strings.TrimSpace(line[len("ProductName:"):])
		}
		if strings.HasPrefix(line, "ProductVersion:") {
			version = strings.TrimSpace(line[len("ProductVersion:"):])
		}
	}
	return name, version
}
