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
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📦 copy mirrors a non-transcode file. It tries the cheap routes first:
// a hard link, then rsync preserving permissions, then a plain byte copy.
// Any link or rsync failure falls through to the next route without
// classification.
func (u *Unit) copy(ctx context.Context, opts Options) Result {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("src", u.Src).Str("dest", u.Dest).Msg("copying")

	if opts.DryRun {
		return success(u, StatusCopied)
	}

	// A destination hard-linked to the source shares its inode: opening it
	// with os.Create would truncate the source too. The link already is a
	// byte-identical copy, so there is nothing to transfer.
	if srcInfo, err := os.Stat(u.Src); err == nil {
		if destInfo, err := os.Stat(u.Dest); err == nil && os.SameFile(srcInfo, destInfo) {
			logger.Debug().Str("src", u.Src).Str("dest", u.Dest).Msg("destination is hard-linked to source, already in sync")
			return success(u, StatusCopied)
		}
	}

	if err := os.Link(u.Src, u.Dest); err == nil {
		return success(u, StatusCopied)
	} else {
		logger.Debug().Err(err).Str("dest", u.Dest).Msg("hard link failed, falling back")
	}

	if opts.RsyncPath != "" {
		cmd := exec.CommandContext(ctx, opts.RsyncPath, "-q", "-p", u.Src, u.Dest)
		if err := cmd.Run(); err == nil {
			return success(u, StatusCopied)
		} else {
			logger.Debug().Err(err).Str("dest", u.Dest).Msg("rsync failed, falling back")
		}
	}

	if err := copyFile(u.Src, u.Dest); err != nil {
		logger.Error().Err(err).Str("src", u.Src).Str("dest", u.Dest).Msg("copy failed")
		return failure(u, KindCopyFailed, err)
	}
	u.copyMode(logger)
	return success(u, StatusCopied)
}

// copyFile writes a byte-for-byte copy of src at dest, truncating any
// existing file.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return errors.Errorf("creating %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Errorf("copying %s to %s: %w", src, dest, err)
	}
	if err := out.Close(); err != nil {
		return errors.Errorf("closing %s: %w", dest, err)
	}
	return nil
}

// copyMode replicates the source permission bits onto the destination.
// Allowed to fail: some network filesystems (CIFS) reject mode changes.
func (u *Unit) copyMode(logger *zerolog.Logger) {
	info, err := os.Stat(u.Src)
	if err == nil {
		err = os.Chmod(u.Dest, info.Mode().Perm())
	}
	if err != nil {
		logger.Warn().Err(err).Str("dest", u.Dest).Msg("could not copy permission mode")
	}
}
