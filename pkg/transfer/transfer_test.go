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

package transfer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunesync/tunesync/pkg/pacpl"
	"github.com/tunesync/tunesync/pkg/transfer"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// stubPacpl puts a fake pacpl script on PATH and returns a Converter for
// it. The script body decides how the fake behaves.
func stubPacpl(t *testing.T, script string) *pacpl.Converter {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pacpl")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	t.Setenv("PATH", dir)

	converter, err := pacpl.Find()
	require.NoError(t, err)
	return converter
}

// convertingStub parses the pacpl flags and creates the output file, the
// way the real tool would.
const convertingStub = `to=""
out=""
while [ $# -gt 1 ]; do
  case "$1" in
    --to) to="$2"; shift 2 ;;
    --outfile) out="$2"; shift 2 ;;
    --eopts) shift 2 ;;
    *) shift ;;
  esac
done
echo transcoded > "$out.$to"
`

// 🧪 TestNewUnit tests field derivation
func TestNewUnit(t *testing.T) {
	u := transfer.NewUnit("/src/album/a.flac", "/dst/album/a.ogg", "-q 7")
	assert.Equal(t, "/src/album", u.SrcDir)
	assert.Equal(t, "/dst/album", u.DestDir)
	assert.Equal(t, "flac", u.SrcExt)
	assert.Equal(t, "ogg", u.DestExt)
	assert.Equal(t, "-q 7", u.EncoderOptions)
}

// 🧪 TestNeedsTranscode tests the extension comparison
func TestNeedsTranscode(t *testing.T) {
	assert.True(t, transfer.NewUnit("a.flac", "a.ogg", "").NeedsTranscode())
	assert.False(t, transfer.NewUnit("a.mp3", "a.mp3", "").NeedsTranscode())
	assert.False(t, transfer.NewUnit("a.MP3", "a.mp3", "").NeedsTranscode(), "comparison ignores case")
	assert.False(t, transfer.NewUnit("cover", "cover", "").NeedsTranscode())
}

// 🧪 TestNeedsUpdate tests the staleness rule
func TestNeedsUpdate(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp3")
	dest := filepath.Join(dir, "dst", "a.mp3")
	writeFile(t, src, "audio")

	u := transfer.NewUnit(src, dest, "")
	assert.True(t, u.NeedsUpdate(), "missing destination is stale")

	writeFile(t, dest, "audio")
	newer := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(dest, newer, newer))
	assert.False(t, u.NeedsUpdate(), "newer destination is fresh")

	older := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(dest, older, older))
	assert.True(t, u.NeedsUpdate(), "older destination is stale")
}

// 🧪 TestTransferSkipsFreshDestination tests the skip branch and force
func TestTransferSkipsFreshDestination(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp3")
	dest := filepath.Join(dir, "a.copy.mp3")
	writeFile(t, src, "audio")
	writeFile(t, dest, "other")
	newer := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(dest, newer, newer))

	u := transfer.NewUnit(src, dest, "")
	res := u.Transfer(ctx, transfer.Options{})
	assert.Equal(t, transfer.StatusSkipped, res.Status)

	res = u.Transfer(ctx, transfer.Options{Force: true})
	assert.Equal(t, transfer.StatusCopied, res.Status)
}

// 🧪 TestTransferCopy tests the copy path end to end
func TestTransferCopy(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.mp3")
	dest := filepath.Join(dir, "dst", "a.mp3")
	writeFile(t, src, "payload")
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))

	u := transfer.NewUnit(src, dest, "")
	res := u.Transfer(ctx, transfer.Options{})
	require.False(t, res.Failed(), "copy failed: %v", res.Err)
	assert.Equal(t, transfer.StatusCopied, res.Status)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
}

// stubRsync writes a fake rsync script and returns its path for
// Options.RsyncPath. Invoked as `rsync -q -p SRC DEST`, so the script sees
// the source as $3 and the destination as $4.
func stubRsync(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rsync")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

// 🧪 TestTransferForceOverHardLinkedDestination tests that re-copying onto
// a destination that shares the source's inode leaves the source intact
func TestTransferForceOverHardLinkedDestination(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.mp3")
	dest := filepath.Join(dir, "dst", "a.mp3")
	writeFile(t, src, "payload")
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))

	u := transfer.NewUnit(src, dest, "")
	res := u.Transfer(ctx, transfer.Options{})
	require.Equal(t, transfer.StatusCopied, res.Status)

	// Second pass with force and no rsync: the unit must not fall through
	// to a plain copy that would truncate the shared inode.
	res = u.Transfer(ctx, transfer.Options{Force: true})
	require.Equal(t, transfer.StatusCopied, res.Status)

	content, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content), "source must survive a forced re-copy")
	content, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
}

// 🧪 TestCopyFallbackOrder tests the hard link → rsync → plain copy chain
func TestCopyFallbackOrder(t *testing.T) {
	ctx := testContext(t)

	// An existing stale destination makes the hard-link attempt fail with
	// EEXIST, handing the unit to the next leg of the chain.
	setup := func(t *testing.T) (*transfer.Unit, string, string) {
		t.Helper()
		dir := t.TempDir()
		src := filepath.Join(dir, "src", "a.mp3")
		dest := filepath.Join(dir, "dst", "a.mp3")
		writeFile(t, src, "payload")
		writeFile(t, dest, "stale")
		older := time.Now().Add(-time.Hour)
		require.NoError(t, os.Chtimes(dest, older, older))
		return transfer.NewUnit(src, dest, ""), src, dest
	}

	t.Run("rsync_runs_before_plain_copy", func(t *testing.T) {
		u, src, dest := setup(t)
		rsync := stubRsync(t, `printf 'via-rsync' > "$4"`+"\n")

		res := u.Transfer(ctx, transfer.Options{RsyncPath: rsync})
		require.Equal(t, transfer.StatusCopied, res.Status, "unexpected failure: %v", res.Err)

		content, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "via-rsync", string(content))

		content, err = os.ReadFile(src)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(content))
	})

	t.Run("plain_copy_when_rsync_fails", func(t *testing.T) {
		u, _, dest := setup(t)
		rsync := stubRsync(t, "exit 1\n")

		res := u.Transfer(ctx, transfer.Options{RsyncPath: rsync})
		require.Equal(t, transfer.StatusCopied, res.Status, "unexpected failure: %v", res.Err)

		content, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(content))
	})

	t.Run("plain_copy_when_rsync_absent", func(t *testing.T) {
		u, _, dest := setup(t)

		res := u.Transfer(ctx, transfer.Options{})
		require.Equal(t, transfer.StatusCopied, res.Status, "unexpected failure: %v", res.Err)

		content, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(content))
	})
}

// 🧪 TestTransferDryRun tests that dry-run leaves the tree untouched
func TestTransferDryRun(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp3")
	dest := filepath.Join(dir, "dst", "a.mp3")
	writeFile(t, src, "audio")

	u := transfer.NewUnit(src, dest, "")
	res := u.Transfer(ctx, transfer.Options{DryRun: true})
	assert.Equal(t, transfer.StatusCopied, res.Status)
	assert.NoFileExists(t, dest)
	assert.NoDirExists(t, filepath.Dir(dest))
}

// 🧪 TestTransferFailureKinds tests the precheck failure classification
func TestTransferFailureKinds(t *testing.T) {
	ctx := testContext(t)

	t.Run("missing_source", func(t *testing.T) {
		dir := t.TempDir()
		u := transfer.NewUnit(filepath.Join(dir, "nope.mp3"), filepath.Join(dir, "nope.copy.mp3"), "")
		res := u.Transfer(ctx, transfer.Options{})
		assert.Equal(t, transfer.StatusFailed, res.Status)
		assert.Equal(t, transfer.KindMissingSource, res.Kind)
	})

	t.Run("missing_destination_dir", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "a.mp3")
		writeFile(t, src, "audio")
		u := transfer.NewUnit(src, filepath.Join(dir, "missing", "a.mp3"), "")
		res := u.Transfer(ctx, transfer.Options{})
		assert.Equal(t, transfer.StatusFailed, res.Status)
		assert.Equal(t, transfer.KindMissingDestinationDir, res.Kind)
	})
}

// 🧪 TestTranscodeQuoteFilename tests the fail-fast on unquotable names
func TestTranscodeQuoteFilename(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, `a"b.flac`)
	dest := filepath.Join(dir, `a"b.ogg`)
	writeFile(t, src, "audio")

	// No converter configured: the quote check must trip before any
	// invocation would happen.
	u := transfer.NewUnit(src, dest, "")
	res := u.Transfer(ctx, transfer.Options{})
	assert.Equal(t, transfer.StatusFailed, res.Status)
	assert.Equal(t, transfer.KindUnsupportedFilename, res.Kind)
	assert.ErrorIs(t, res.Err, transfer.ErrQuoteInFilename)
}

// 🧪 TestTranscodeWithStubTool tests the transcode path against a fake pacpl
func TestTranscodeWithStubTool(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.flac")
	dest := filepath.Join(dir, "dst", "a.ogg")
	writeFile(t, src, "audio")
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))

	converter := stubPacpl(t, convertingStub)

	u := transfer.NewUnit(src, dest, "")
	res := u.Transfer(ctx, transfer.Options{Converter: converter})
	require.Equal(t, transfer.StatusTranscoded, res.Status, "unexpected failure: %v", res.Err)
	assert.FileExists(t, dest)
}

// 🧪 TestTranscodeToolFailure tests non-zero exit classification
func TestTranscodeToolFailure(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "a.flac")
	dest := filepath.Join(dir, "a.ogg")
	writeFile(t, src, "audio")

	converter := stubPacpl(t, "echo broken >&2\nexit 3\n")

	u := transfer.NewUnit(src, dest, "")
	res := u.Transfer(ctx, transfer.Options{Converter: converter})
	assert.Equal(t, transfer.StatusFailed, res.Status)
	assert.Equal(t, transfer.KindToolInvocationFailed, res.Kind)
}

// 🧪 TestTranscodeToolNoOutput tests the zero-exit-no-file case
func TestTranscodeToolNoOutput(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "a.flac")
	dest := filepath.Join(dir, "a.ogg")
	writeFile(t, src, "audio")

	converter := stubPacpl(t, "exit 0\n")

	u := transfer.NewUnit(src, dest, "")
	res := u.Transfer(ctx, transfer.Options{Converter: converter})
	assert.Equal(t, transfer.StatusFailed, res.Status)
	assert.Equal(t, transfer.KindToolProducedNoOutput, res.Kind)
}
