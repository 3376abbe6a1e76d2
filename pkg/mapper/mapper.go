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

// Package mapper translates source paths into destination paths and
// enumerates the files of a mirror tree. Everything in this package is pure
// path arithmetic except the walk itself.
package mapper

import (
	"io/fs"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ErrOutsideSource is returned by FindDest for an absolute path that does
// not lie under the source root.
var ErrOutsideSource = errors.New("absolute path must fall within the source directory")

// SplitExt splits a path into base and extension. Unlike filepath.Ext, the
// dot stays with the base and the leading dots of a hidden file are not
// extension separators: ".flac" has no extension, "a.tar.gz" has extension
// "gz".
func SplitExt(path string) (base, ext string) {
	name := filepath.Base(path)
	trimmed := strings.TrimLeft(name, ".")
	idx := strings.LastIndexByte(trimmed, '.')
	if idx < 0 {
		return path, ""
	}
	cut := len(path) - len(trimmed) + idx + 1
	return path[:cut], path[cut:]
}

// isSubpath reports whether path lies lexically under parent (or is parent
// itself). Both paths must be absolute; no symlinks are resolved.
func isSubpath(path, parent string) bool {
	rel, err := filepath.Rel(parent, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// 🎯 Finder maps source paths to destination paths under the
// extension-substitution rules. It is immutable and safe for concurrent use.
type Finder struct {
	sourceDir    string
	destDir      string
	transcodeSet map[string]bool
	targetExt    string
}

// NewFinder builds a Finder. Transcode formats are matched
// case-insensitively; leading dots on formats are ignored.
func NewFinder(sourceDir, destDir string, transcodeFormats []string, targetFormat string) *Finder {
	set := make(map[string]bool, len(transcodeFormats))
	for _, ext := range transcodeFormats {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if ext != "" {
			set[ext] = true
		}
	}
	return &Finder{
		sourceDir:    filepath.Clean(sourceDir),
		destDir:      filepath.Clean(destDir),
		transcodeSet: set,
		targetExt:    strings.TrimPrefix(targetFormat, "."),
	}
}

// SourceDir returns the source root the Finder maps from.
func (f *Finder) SourceDir() string { return f.sourceDir }

// DestDir returns the destination root the Finder maps into.
func (f *Finder) DestDir() string { return f.destDir }

// FindDest returns the absolute destination path for a source path. A
// relative input is taken relative to the source root; an absolute input
// must lie under the source root or ErrOutsideSource is returned. If the
// extension matches a transcode format it is replaced with the target
// extension, otherwise the relative path is kept verbatim.
func (f *Finder) FindDest(src string) (string, error) {
	rel := src
	if filepath.IsAbs(src) {
		cleaned := filepath.Clean(src)
		if !isSubpath(cleaned, f.sourceDir) {
			return "", errors.Errorf("%w: %s is not under %s", ErrOutsideSource, src, f.sourceDir)
		}
		r, err := filepath.Rel(f.sourceDir, cleaned)
		if err != nil {
			return "", errors.Errorf("relativizing %s: %w", src, err)
		}
		rel = r
	}

	base, ext := SplitExt(rel)
	if ext != "" && f.transcodeSet[strings.ToLower(ext)] {
		rel = base + f.targetExt
	}
	return filepath.Join(f.destDir, rel), nil
}

// Pair is one (source, destination) file mapping.
type Pair struct {
	Src  string
	Dest string
}

// SourceTargetPairs walks the source tree and maps every file to its
// destination. The walk is fresh on every call; order is unspecified.
func (f *Finder) SourceTargetPairs(opts WalkOptions) ([]Pair, error) {
	files, err := Walk(f.sourceDir, opts)
	if err != nil {
		return nil, errors.Errorf("walking source %s: %w", f.sourceDir, err)
	}
	pairs := make([]Pair, 0, len(files))
	for _, src := range files {
		dest, err := f.FindDest(src)
		if err != nil {
			return nil, errors.Errorf("mapping %s: %w", src, err)
		}
		pairs = append(pairs, Pair{Src: src, Dest: dest})
	}
	return pairs, nil
}

// ExtraDestFiles returns the existing destination files that no source file
// maps to, i.e. the prune candidates. Both trees are materialized and
// diffed, which costs memory proportional to the destination tree and is
// fine at music-library sizes. A missing destination root yields nothing.
func (f *Finder) ExtraDestFiles(opts WalkOptions) ([]string, error) {
	pairs, err := f.SourceTargetPairs(opts)
	if err != nil {
		return nil, err
	}
	expected := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		expected[p.Dest] = true
	}

	existing, err := Walk(f.destDir, opts)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Errorf("walking destination %s: %w", f.destDir, err)
	}

	var extra []string
	for _, path := range existing {
		if !expected[path] {
			extra = append(extra, path)
		}
	}
	return extra, nil
}
