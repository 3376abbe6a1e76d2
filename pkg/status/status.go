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

// Package status renders per-file progress lines and the run summary on
// the console.
package status

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/tunesync/tunesync/pkg/transfer"
)

const fileIndent = 2 // spaces to indent file entries

// 🖥️ Reporter writes one line per executed unit plus a final summary.
// Safe for concurrent use; workers report completions from the pool.
type Reporter struct {
	console io.Writer
	quiet   bool
	mu      sync.Mutex
}

// NewReporter creates a Reporter. With quiet set, per-file lines and the
// summary are suppressed entirely.
func NewReporter(console io.Writer, quiet bool) *Reporter {
	return &Reporter{console: console, quiet: quiet}
}

// formatResult renders a single completed unit.
func formatResult(res transfer.Result) string {
	var symbol rune
	var symbolColor color.Attribute
	switch res.Status {
	case transfer.StatusTranscoded:
		symbol = '⟳'
		symbolColor = color.FgBlue
	case transfer.StatusCopied:
		symbol = '✓'
		symbolColor = color.FgGreen
	case transfer.StatusFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	line := fmt.Sprintf("%*s%s %-11s %s",
		fileIndent, "",
		color.New(symbolColor).Sprint(string(symbol)),
		res.Status.String(),
		res.Unit.Src)
	if res.Status == transfer.StatusFailed {
		line += color.New(color.FgRed).Sprintf(" (%s)", res.Kind)
	}
	return line
}

// Report prints the outcome of one unit.
func (r *Reporter) Report(res transfer.Result) {
	if r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.console, formatResult(res))
}

// Deleted prints a prune deletion line.
func (r *Reporter) Deleted(path string, dryRun bool) {
	if r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	verb := "deleted"
	if dryRun {
		verb = "would delete"
	}
	fmt.Fprintf(r.console, "%*s%s %-11s %s\n",
		fileIndent, "",
		color.New(color.FgRed).Sprint("✗"),
		verb, path)
}

// Summary prints the closing tally line.
func (r *Reporter) Summary(transcoded, copied, skipped, failed int, interrupted bool) {
	if r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tally := fmt.Sprintf("%d transcoded, %d copied, %d skipped, %d failed",
		transcoded, copied, skipped, failed)
	switch {
	case interrupted:
		fmt.Fprintln(r.console, color.New(color.FgYellow).Sprint("interrupted: ")+tally)
	case failed > 0:
		fmt.Fprintln(r.console, color.New(color.FgRed).Sprint("done with errors: ")+tally)
	default:
		fmt.Fprintln(r.console, color.New(color.FgGreen).Sprint("done: ")+tally)
	}
}
