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
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tunesync/tunesync/pkg/mapper"
	"github.com/tunesync/tunesync/pkg/pacpl"
	"github.com/tunesync/tunesync/pkg/tags"
	"gitlab.com/tozd/go/errors"
)

// ErrQuoteInFilename marks paths the converter's quoting cannot represent.
var ErrQuoteInFilename = errors.New(`filename contains a double quote, which pacpl cannot handle`)

// 🎙️ transcode converts the source into the destination format via pacpl,
// then carries the user tags and the permission mode across. Tag and mode
// copying are best-effort; the transcoded audio is the success criterion.
func (u *Unit) transcode(ctx context.Context, opts Options) Result {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("src", u.Src).Str("dest", u.Dest).Msg("transcoding")

	if strings.Contains(u.Src, `"`) {
		err := errors.Errorf("%w: %s", ErrQuoteInFilename, u.Src)
		logger.Error().Err(err).Str("src", u.Src).Msg("cannot transcode")
		return failure(u, KindUnsupportedFilename, err)
	}

	if opts.DryRun {
		return success(u, StatusTranscoded)
	}

	if opts.Converter == nil {
		return failure(u, KindToolInvocationFailed, pacpl.ErrNotFound)
	}

	// pacpl wants the output as an extension-less path relative to the
	// input file's own directory.
	relDest, err := filepath.Rel(u.SrcDir, u.Dest)
	if err != nil {
		return failure(u, KindToolInvocationFailed, errors.Errorf("computing output path: %w", err))
	}
	outBase := relDest
	if base, ext := mapper.SplitExt(relDest); ext != "" {
		outBase = strings.TrimSuffix(base, ".")
	}

	if err := opts.Converter.Convert(ctx, u.SrcDir, u.Src, u.DestExt, outBase, u.EncoderOptions); err != nil {
		logger.Error().Err(err).Str("src", u.Src).Str("dest", u.Dest).Msg("transcode failed")
		return failure(u, KindToolInvocationFailed, err)
	}

	if info, err := os.Stat(u.Dest); err != nil || !info.Mode().IsRegular() {
		err := errors.Errorf("converter exited cleanly but %s does not exist", u.Dest)
		logger.Error().Err(err).Str("src", u.Src).Msg("transcode produced no output")
		return failure(u, KindToolProducedNoOutput, err)
	}

	if err := tags.CopyTags(ctx, u.Src, u.Dest); err != nil {
		logger.Warn().Err(err).Str("src", u.Src).Str("dest", u.Dest).Msg("could not copy tags")
	}
	u.copyMode(logger)

	return success(u, StatusTranscoded)
}
