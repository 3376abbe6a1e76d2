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

// Package pacpl invokes the Perl Audio Converter as a subprocess.
package pacpl

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrNotFound is returned by Find when pacpl is not on PATH.
var ErrNotFound = errors.New("pacpl executable not found on PATH")

// Converter runs pacpl. The zero value is unusable; obtain one from Find.
type Converter struct {
	exe string
}

// Find locates the pacpl executable on PATH.
func Find() (*Converter, error) {
	exe, err := exec.LookPath("pacpl")
	if err != nil {
		return nil, errors.Errorf("%w: %w", ErrNotFound, err)
	}
	return &Converter{exe: exe}, nil
}

// BuildArgs assembles the pacpl argument list. pacpl wants the output as a
// base path with no extension, relative to the input file's directory;
// callers compute that base. Extra encoder options ride along verbatim via
// --eopts.
func BuildArgs(destExt, outBase, src, eopts string) []string {
	var args []string
	if eopts != "" {
		args = append(args, "--eopts", eopts)
	}
	args = append(args,
		"--overwrite",
		"--keep",
		"--to", strings.TrimPrefix(destExt, "."),
		"--outfile", outBase,
		src,
	)
	return args
}

// Convert transcodes src into the destExt format, writing to outBase
// (extension-less, relative to dir). The subprocess runs with dir as its
// working directory and null stdio; cancelling ctx kills it. A non-zero
// exit is an error carrying the captured stderr tail.
func (c *Converter) Convert(ctx context.Context, dir, src, destExt, outBase, eopts string) error {
	logger := zerolog.Ctx(ctx)

	args := BuildArgs(destExt, outBase, src, eopts)
	logger.Debug().Str("exe", c.exe).Strs("args", args).Msg("invoking pacpl")

	cmd := exec.CommandContext(ctx, c.exe, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return errors.Errorf("pacpl failed: %w: %s", err, detail)
		}
		return errors.Errorf("pacpl failed: %w", err)
	}
	return nil
}
