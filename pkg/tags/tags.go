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

// Package tags copies user metadata between audio files. A Blacklist keeps
// format-specific fields (encoder details, replaygain levels) and
// library-internal fields out of the transfer: blacklisted keys are never
// read, written, or cleared through the File adapter.
package tags

import (
	"context"
	"regexp"
	"sort"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"go.senan.xyz/taglib"
)

// 🚫 Blacklist is a set of patterns matching non-transferable tag keys.
type Blacklist []*regexp.Regexp

// DefaultBlacklist matches encoder info and replaygain levels anywhere in a
// key, in any case, plus the tilde prefix that marks library-internal
// fields.
func DefaultBlacklist() Blacklist {
	return Blacklist{
		regexp.MustCompile(`(?i)encoded`),
		regexp.MustCompile(`(?i)replaygain`),
		regexp.MustCompile(`^~`),
	}
}

// Match reports whether key is blacklisted.
func (b Blacklist) Match(key string) bool {
	for _, re := range b {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// 📄 File is a tag-editing view over one audio file. Tags load on Open and
// persist on Save; between the two all edits are in memory. Every accessor
// applies the blacklist: touching a blacklisted key is a warn-level no-op.
type File struct {
	path      string
	tags      map[string][]string
	blacklist Blacklist
	logger    *zerolog.Logger
}

// Open reads the metadata of the file at path.
func Open(ctx context.Context, path string, blacklist Blacklist) (*File, error) {
	raw, err := taglib.ReadTags(path)
	if err != nil {
		return nil, errors.Errorf("reading tags from %s: %w", path, err)
	}
	return &File{
		path:      path,
		tags:      raw,
		blacklist: blacklist,
		logger:    zerolog.Ctx(ctx),
	}, nil
}

func (f *File) blacklisted(key string) bool {
	if f.blacklist.Match(key) {
		f.logger.Warn().Str("key", key).Str("file", f.path).Msg("ignoring blacklisted tag key")
		return true
	}
	return false
}

// Get returns the values of a tag, or nil for blacklisted or absent keys.
func (f *File) Get(key string) []string {
	if f.blacklisted(key) {
		return nil
	}
	return f.tags[key]
}

// Set replaces the values of a tag.
func (f *File) Set(key string, values []string) {
	if f.blacklisted(key) {
		return
	}
	f.tags[key] = values
}

// Delete removes a tag.
func (f *File) Delete(key string) {
	if f.blacklisted(key) {
		return
	}
	delete(f.tags, key)
}

// Keys returns the non-blacklisted tag keys, sorted.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.tags))
	for key := range f.tags {
		if !f.blacklist.Match(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Clear removes every non-blacklisted tag. Blacklisted fields survive.
func (f *File) Clear() {
	for key := range f.tags {
		if !f.blacklist.Match(key) {
			delete(f.tags, key)
		}
	}
}

// Save persists the in-memory tags back to the file, replacing what is on
// disk. Blacklisted keys that were present at Open time are written back
// untouched.
func (f *File) Save() error {
	if err := taglib.WriteTags(f.path, f.tags, taglib.Clear); err != nil {
		return errors.Errorf("writing tags to %s: %w", f.path, err)
	}
	return nil
}

// 🔄 CopyTags replaces the user tags of dest with those of src, leaving
// blacklisted fields of both files alone. Best-effort by contract: callers
// log a failure as a warning and carry on, the audio payload is the primary
// success criterion.
func CopyTags(ctx context.Context, src, dest string) error {
	blacklist := DefaultBlacklist()

	from, err := Open(ctx, src, blacklist)
	if err != nil {
		return errors.Errorf("opening source tags: %w", err)
	}
	to, err := Open(ctx, dest, blacklist)
	if err != nil {
		return errors.Errorf("opening destination tags: %w", err)
	}

	to.Clear()
	for _, key := range from.Keys() {
		to.Set(key, from.Get(key))
	}
	if err := to.Save(); err != nil {
		return errors.Errorf("saving destination tags: %w", err)
	}
	return nil
}
