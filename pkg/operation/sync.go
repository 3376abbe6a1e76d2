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

package operation

import (
	"context"
	"os"
	"sort"

	"github.com/rs/zerolog"
	"github.com/tunesync/tunesync/pkg/transfer"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🏃 Sync mirrors the source tree into the destination tree. Units run on a
// worker pool bounded by the configured job count; the whole destination
// directory set is created before the first unit dispatches, so workers
// never race on mkdir. Unit failures are counted, never fatal. A cancelled
// ctx stops dispatch, lets in-flight units die with their subprocesses, and
// still yields accurate counts.
func (o *Operator) Sync(ctx context.Context) (Summary, error) {
	logger := zerolog.Ctx(ctx)

	logger.Info().Str("source", o.finder.SourceDir()).Msg("building transfer set")
	pairs, err := o.finder.SourceTargetPairs(o.walkOptions())
	if err != nil {
		return Summary{}, errors.Errorf("enumerating source files: %w", err)
	}

	units := make([]*transfer.Unit, 0, len(pairs))
	for _, pair := range pairs {
		units = append(units, transfer.NewUnit(pair.Src, pair.Dest, o.config.ExtraEncoderOptions))
	}

	if !o.config.DryRun {
		if err := o.createDestDirs(ctx, units); err != nil {
			return Summary{}, err
		}
	}

	jobs := o.config.Jobs
	if jobs < 1 {
		jobs = 1
	}
	logger.Info().Int("jobs", jobs).Int("files", len(units)).Msg("transferring")

	opts := transfer.Options{
		Force:     o.config.Force,
		DryRun:    o.config.DryRun,
		Converter: o.converter,
		RsyncPath: o.rsyncPath,
	}

	results := make(chan transfer.Result, len(units))
	var pool errgroup.Group
	pool.SetLimit(jobs)

	summary := Summary{Total: len(units)}
	for _, unit := range units {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		unit := unit
		pool.Go(func() error {
			res := unit.Transfer(ctx, opts)
			if o.reporter != nil {
				o.reporter.Report(res)
			}
			results <- res
			return nil
		})
	}

	// Workers never return errors; Wait is just the completion barrier.
	_ = pool.Wait()
	close(results)

	for res := range results {
		switch res.Status {
		case transfer.StatusTranscoded:
			summary.Transcoded++
		case transfer.StatusCopied:
			summary.Copied++
		case transfer.StatusSkipped:
			summary.Skipped++
		case transfer.StatusFailed:
			summary.Failed++
		}
	}

	if ctx.Err() != nil {
		summary.Interrupted = true
	}
	if summary.Interrupted {
		logger.Warn().
			Int("completed", summary.Transcoded+summary.Copied+summary.Skipped).
			Int("failed", summary.Failed).
			Msg("interrupted, stopped dispatching transfers")
	}
	return summary, nil
}

// createDestDirs makes every destination directory a unit will write into,
// deduplicated and created before any transfer starts.
func (o *Operator) createDestDirs(ctx context.Context, units []*transfer.Unit) error {
	logger := zerolog.Ctx(ctx)

	set := map[string]bool{}
	for _, unit := range units {
		set[unit.DestDir] = true
	}
	dirs := make([]string, 0, len(set))
	for dir := range set {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		logger.Debug().Str("dir", dir).Msg("creating destination directory")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Errorf("creating destination directory %s: %w", dir, err)
		}
	}
	return nil
}
