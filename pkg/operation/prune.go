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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🧹 Prune deletes destination files that no source file maps to. Each
// deletion is best-effort: a failed remove is logged and the loop carries
// on. Under dry-run the candidates are reported but nothing is removed.
func (o *Operator) Prune(ctx context.Context) (int, error) {
	logger := zerolog.Ctx(ctx)

	extra, err := o.finder.ExtraDestFiles(o.walkOptions())
	if err != nil {
		return 0, errors.Errorf("computing prune candidates: %w", err)
	}

	deleted := 0
	for _, path := range extra {
		if ctx.Err() != nil {
			logger.Warn().Msg("interrupted, stopping prune")
			break
		}
		logger.Info().Str("path", path).Msg("deleting")
		if o.reporter != nil {
			o.reporter.Deleted(path, o.config.DryRun)
		}
		if o.config.DryRun {
			continue
		}
		if err := os.Remove(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("could not delete extra file")
			continue
		}
		deleted++
	}
	return deleted, nil
}
