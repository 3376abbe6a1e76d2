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

// Package operation schedules the mirror run: it turns the source tree into
// transfer units, fans them out over a bounded worker pool, and optionally
// prunes orphaned destination files.
package operation

import (
	"github.com/tunesync/tunesync/pkg/config"
	"github.com/tunesync/tunesync/pkg/mapper"
	"github.com/tunesync/tunesync/pkg/pacpl"
	"github.com/tunesync/tunesync/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Options contains the collaborators for an Operator.
type Options struct {
	// Config is the immutable run configuration.
	Config *config.Config
	// Finder maps source paths to destination paths.
	Finder *mapper.Finder
	// Reporter renders per-file progress; nil disables console output.
	Reporter *status.Reporter
	// Converter runs the external transcoder; nil when pacpl is absent.
	Converter *pacpl.Converter
	// RsyncPath is the fast-copy tool, empty when rsync is absent.
	RsyncPath string
}

// 🎮 Operator executes one mirror run.
type Operator struct {
	config    *config.Config
	finder    *mapper.Finder
	reporter  *status.Reporter
	converter *pacpl.Converter
	rsyncPath string
}

// 🏭 New creates an Operator with the given options.
func New(opts Options) (*Operator, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Finder == nil {
		return nil, errors.New("finder is required")
	}
	return &Operator{
		config:    opts.Config,
		finder:    opts.Finder,
		reporter:  opts.Reporter,
		converter: opts.Converter,
		rsyncPath: opts.RsyncPath,
	}, nil
}

// 📊 Summary aggregates the outcome of a run.
type Summary struct {
	Total       int
	Transcoded  int
	Copied      int
	Skipped     int
	Failed      int
	Deleted     int
	Interrupted bool
}

// Report prints the run summary through the reporter.
func (o *Operator) Report(s Summary) {
	if o.reporter != nil {
		o.reporter.Summary(s.Transcoded, s.Copied, s.Skipped, s.Failed, s.Interrupted)
	}
}

func (o *Operator) walkOptions() mapper.WalkOptions {
	return mapper.WalkOptions{
		IncludeHidden: o.config.IncludeHidden,
		Exclude:       o.config.ExcludePatterns,
	}
}
