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

// tunesync mirrors a directory tree, transcoding audio on the way.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gitlab.com/tozd/go/errors"
)

const (
	// exitConfigError is the exit code for configuration problems, kept
	// distinct from per-file failure counts.
	exitConfigError = 2
	// exitMaxFailures caps the failure-count exit code below the
	// shell-reserved range.
	exitMaxFailures = 125
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var failures int
	cmd := newRootCmd(&failures)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tunesync: %v\n", err)
		var cfgErr configError
		if errors.As(err, &cfgErr) {
			os.Exit(exitConfigError)
		}
		os.Exit(1)
	}

	if failures > exitMaxFailures {
		failures = exitMaxFailures
	}
	os.Exit(failures)
}
