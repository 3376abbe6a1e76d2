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

package mapper

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// 🔧 WalkOptions controls which entries a Walk yields.
type WalkOptions struct {
	// IncludeHidden includes dot-files and descends into dot-directories.
	IncludeHidden bool
	// Exclude holds doublestar patterns matched against the root-relative
	// slash path of each file; matching files are dropped.
	Exclude []string
}

// isHidden reports whether a single path component is a dot-entry.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Walk returns the regular files under root. Hidden entries are pruned with
// their whole subtree unless opts.IncludeHidden is set. Symlinks and other
// non-regular entries are never yielded. Order is unspecified and callers
// must not rely on it. Traversal errors abort the walk.
func Walk(root string, opts WalkOptions) ([]string, error) {
	root = filepath.Clean(root)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !opts.IncludeHidden && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !opts.IncludeHidden && isHidden(d.Name()) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		excluded, exclErr := matchesAny(opts.Exclude, filepath.ToSlash(rel))
		if exclErr != nil {
			return exclErr
		}
		if !excluded {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

func matchesAny(patterns []string, rel string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, errors.Errorf("bad exclude pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
