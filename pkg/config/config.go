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

// Package config holds the immutable run configuration for tunesync.
package config

import (
	"context"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔧 DefaultTranscodeFormats are the lossless source extensions that get
// transcoded unless the user overrides them.
var DefaultTranscodeFormats = []string{"flac", "wv", "wav", "ape", "fla"}

// DefaultTargetFormat is the extension files are transcoded to.
const DefaultTargetFormat = "ogg"

// ErrTargetFormatCollision is returned by Validate when the target format is
// itself one of the transcode formats, which would transcode files onto
// themselves.
var ErrTargetFormatCollision = errors.New("target format must not be one of the transcode formats")

// 📚 Config is the complete configuration for one run. It is resolved once
// before any work starts and shared read-only by every worker; nothing
// mutates it after Validate.
type Config struct {
	SourceDir           string   `yaml:"source"`
	DestDir             string   `yaml:"destination"`
	Jobs                int      `yaml:"jobs"`
	DryRun              bool     `yaml:"dry_run"`
	Force               bool     `yaml:"force"`
	TranscodeFormats    []string `yaml:"transcode_formats"`
	TargetFormat        string   `yaml:"target_format"`
	ExtraEncoderOptions string   `yaml:"extra_encoder_options"`
	IncludeHidden       bool     `yaml:"include_hidden"`
	Delete              bool     `yaml:"delete"`
	ExcludePatterns     []string `yaml:"exclude"`
	Quiet               bool     `yaml:"quiet"`
	Verbose             bool     `yaml:"verbose"`
}

// 🏭 Default returns a Config with the stock defaults applied.
func Default() *Config {
	return &Config{
		Jobs:             runtime.NumCPU(),
		TranscodeFormats: append([]string(nil), DefaultTranscodeFormats...),
		TargetFormat:     DefaultTargetFormat,
	}
}

// ParseFormats parses a comma-delimited extension list, trimming spaces and
// dropping empty items. Extensions are stored lower-cased without a leading
// dot.
func ParseFormats(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, item := range strings.Split(s, ",") {
		item = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(item), "."))
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// TranscodeSet returns the transcode formats as a lower-cased lookup set.
func (c *Config) TranscodeSet() map[string]bool {
	set := make(map[string]bool, len(c.TranscodeFormats))
	for _, ext := range c.TranscodeFormats {
		set[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return set
}

// ✅ Validate checks the configuration before any work starts. Violations
// here are configuration errors, the only class of error that aborts a run.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return errors.New("source directory is required")
	}
	if c.DestDir == "" {
		return errors.New("destination directory is required")
	}
	if c.TargetFormat == "" {
		return errors.New("target format is required")
	}
	if c.Jobs < 0 {
		return errors.Errorf("jobs must be >= 0, got %d", c.Jobs)
	}
	target := strings.ToLower(strings.TrimPrefix(c.TargetFormat, "."))
	if c.TranscodeSet()[target] {
		return errors.Errorf("%w: %q", ErrTargetFormatCollision, c.TargetFormat)
	}
	return nil
}

// 🎯 LoadFile merges defaults from an optional YAML file into c. A missing
// file is not an error; flags parsed after the merge still win.
func LoadFile(ctx context.Context, path string, c *Config) error {
	logger := zerolog.Ctx(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("path", path).Msg("no config file, using defaults")
			return nil
		}
		return errors.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Errorf("parsing config file %s: %w", path, err)
	}

	logger.Debug().Str("path", path).Msg("loaded config file")
	return nil
}
