// Copyright 2026 the tunesync authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package transfer implements the per-file decision state machine of the
// mirror: skip when the destination is fresh, transcode when the extension
// changes, copy otherwise. Each unit is executed by exactly one worker and
// reports its outcome as a Result value.
package transfer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tunesync/tunesync/pkg/mapper"
	"github.com/tunesync/tunesync/pkg/pacpl"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Unit is one (source, destination) pair. All fields are derived at
// construction and immutable afterwards; only the filesystem changes when
// the unit executes.
type Unit struct {
	Src            string
	Dest           string
	SrcDir         string
	DestDir        string
	SrcExt         string
	DestExt        string
	EncoderOptions string
}

// NewUnit builds a Unit for a mapped pair. Extra encoder options are passed
// through to the converter untouched.
func NewUnit(src, dest, encoderOptions string) *Unit {
	_, srcExt := mapper.SplitExt(src)
	_, destExt := mapper.SplitExt(dest)
	return &Unit{
		Src:            src,
		Dest:           dest,
		SrcDir:         filepath.Dir(src),
		DestDir:        filepath.Dir(dest),
		SrcExt:         srcExt,
		DestExt:        destExt,
		EncoderOptions: encoderOptions,
	}
}

// 🔧 Options are the per-run knobs threaded into every Transfer call. They
// are shared read-only across workers.
type Options struct {
	// Force transfers even when the destination is newer than the source.
	Force bool
	// DryRun logs planned actions without touching the filesystem or
	// invoking external tools.
	DryRun bool
	// Converter runs the external transcoder; nil when pacpl is absent.
	Converter *pacpl.Converter
	// RsyncPath is the fast-copy tool, empty when rsync is absent.
	RsyncPath string
}

// NeedsUpdate reports whether the destination is stale: missing, or older
// than the source.
func (u *Unit) NeedsUpdate() bool {
	destInfo, err := os.Stat(u.Dest)
	if err != nil {
		return true
	}
	srcInfo, err := os.Stat(u.Src)
	if err != nil {
		return true
	}
	return srcInfo.ModTime().After(destInfo.ModTime())
}

// NeedsTranscode reports whether the extensions differ, ignoring case.
func (u *Unit) NeedsTranscode() bool {
	return !strings.EqualFold(u.SrcExt, u.DestExt)
}

// check verifies the source file and destination directory exist. Run just
// before the transfer; both failures are fatal for this unit only.
func (u *Unit) check() (FailureKind, error) {
	info, err := os.Stat(u.Src)
	if err != nil || !info.Mode().IsRegular() {
		return KindMissingSource, errors.Errorf("missing input file: %s", u.Src)
	}
	dirInfo, err := os.Stat(u.DestDir)
	if err != nil || !dirInfo.IsDir() {
		return KindMissingDestinationDir, errors.Errorf("missing output directory: %s", u.DestDir)
	}
	return KindNone, nil
}
