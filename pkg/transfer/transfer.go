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

package transfer

import (
	"context"

	"github.com/rs/zerolog"
)

// 🏃 Transfer executes the unit's decision: skip, copy, or transcode. The
// destination directory must already exist (the scheduler creates the whole
// directory set before dispatching). Never panics; every failure comes back
// as a Result.
func (u *Unit) Transfer(ctx context.Context, opts Options) Result {
	logger := zerolog.Ctx(ctx)

	if !opts.Force && !u.NeedsUpdate() {
		logger.Debug().Str("src", u.Src).Str("dest", u.Dest).Msg("skipping, destination is fresh")
		return success(u, StatusSkipped)
	}

	// The original tool skips the precheck in dry-run mode so that a plan
	// over a not-yet-created destination tree reports transfers instead of
	// missing-directory failures.
	if !opts.DryRun {
		if kind, err := u.check(); kind != KindNone {
			logger.Error().Err(err).Str("src", u.Src).Str("dest", u.Dest).Msg("transfer precheck failed")
			return failure(u, kind, err)
		}
	}

	if u.NeedsTranscode() {
		return u.transcode(ctx, opts)
	}
	return u.copy(ctx, opts)
}
