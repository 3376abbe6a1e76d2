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

// 📊 Status is the terminal state of a unit's transfer.
type Status int

const (
	StatusPending Status = iota
	StatusSkipped        // destination already up to date
	StatusCopied
	StatusTranscoded
	StatusFailed
)

// String returns a string representation of Status.
func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusCopied:
		return "copied"
	case StatusTranscoded:
		return "transcoded"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// ⚠️ FailureKind classifies why a unit failed. Failures are values handed
// back to the scheduler, never panics, so one bad file cannot take down the
// run.
type FailureKind int

const (
	KindNone FailureKind = iota
	KindMissingSource
	KindMissingDestinationDir
	KindUnsupportedFilename
	KindToolInvocationFailed
	KindToolProducedNoOutput
	KindCopyFailed
)

// String returns a string representation of FailureKind.
func (k FailureKind) String() string {
	switch k {
	case KindMissingSource:
		return "missing source"
	case KindMissingDestinationDir:
		return "missing destination directory"
	case KindUnsupportedFilename:
		return "unsupported filename"
	case KindToolInvocationFailed:
		return "tool invocation failed"
	case KindToolProducedNoOutput:
		return "tool produced no output"
	case KindCopyFailed:
		return "copy failed"
	default:
		return "none"
	}
}

// 📄 Result is the outcome of one unit's transfer.
type Result struct {
	Unit   *Unit
	Status Status
	Kind   FailureKind
	Err    error
}

// Failed reports whether the unit counts toward the failure tally.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

func success(u *Unit, status Status) Result {
	return Result{Unit: u, Status: status}
}

func failure(u *Unit, kind FailureKind, err error) Result {
	return Result{Unit: u, Status: StatusFailed, Kind: kind, Err: err}
}
