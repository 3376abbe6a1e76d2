package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/tunesync/tunesync/pkg/config"
	"github.com/tunesync/tunesync/pkg/mapper"
	"github.com/tunesync/tunesync/pkg/operation"
	"github.com/tunesync/tunesync/pkg/pacpl"
	"github.com/tunesync/tunesync/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// configError wraps configuration problems so main can exit with the
// dedicated status code instead of a failure count.
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

// rootFlags holds the raw flag values before they are merged into a Config.
type rootFlags struct {
	configFile string
	formats    string
	cfg        config.Config
}

func newRootCmd(failures *int) *cobra.Command {
	rf := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "tunesync SOURCE_DIRECTORY DESTINATION_DIRECTORY",
		Short: "Mirror a music directory, transcoding lossless formats on the way",
		Long: `tunesync recreates a source directory tree under a destination root.
Files in the configured transcode formats are converted to the target
format with pacpl; everything else is copied unchanged. Destination files
that are already newer than their source are skipped, so repeated runs
only touch what changed.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, rf, failures)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&rf.cfg.Jobs, "jobs", "j", config.Default().Jobs,
		"number of transfers to run in parallel (0 means fully sequential)")
	flags.BoolVarP(&rf.cfg.DryRun, "dry-run", "n", false,
		"don't actually modify anything")
	flags.BoolVarP(&rf.cfg.Force, "force", "f", false,
		"update destination files even if they are newer")
	flags.StringVarP(&rf.formats, "transcode-formats", "i", strings.Join(config.DefaultTranscodeFormats, ","),
		"comma-separated input extensions that must be transcoded")
	flags.StringVarP(&rf.cfg.TargetFormat, "target-format", "o", config.DefaultTargetFormat,
		"output format for all transcoded files")
	flags.StringVarP(&rf.cfg.ExtraEncoderOptions, "extra-encoder-options", "E", "",
		"extra options passed to the encoder via pacpl --eopts")
	flags.BoolVarP(&rf.cfg.IncludeHidden, "include-hidden", "z", false,
		"don't skip directories and files starting with a dot")
	flags.BoolVarP(&rf.cfg.Delete, "delete", "D", false,
		"delete destination files with no corresponding source file")
	flags.StringArrayVar(&rf.cfg.ExcludePatterns, "exclude", nil,
		"glob pattern of source files to skip (repeatable)")
	flags.BoolVarP(&rf.cfg.Quiet, "quiet", "q", false,
		"do not print informational messages")
	flags.BoolVarP(&rf.cfg.Verbose, "verbose", "v", false,
		"print debug messages")
	flags.StringVarP(&rf.configFile, "config", "c", ".tunesync.yaml",
		"optional YAML file with flag defaults")

	return cmd
}

// resolveConfig merges config-file defaults and flags: a flag that was set
// on the command line always beats the file.
func resolveConfig(cmd *cobra.Command, args []string, rf *rootFlags) (*config.Config, error) {
	cfg := config.Default()

	ctx := cmd.Context()
	if err := config.LoadFile(ctx, rf.configFile, cfg); err != nil {
		return nil, configError{err}
	}

	flags := cmd.Flags()
	if flags.Changed("jobs") {
		cfg.Jobs = rf.cfg.Jobs
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = rf.cfg.DryRun
	}
	if flags.Changed("force") {
		cfg.Force = rf.cfg.Force
	}
	if flags.Changed("transcode-formats") {
		cfg.TranscodeFormats = config.ParseFormats(rf.formats)
	}
	if flags.Changed("target-format") {
		cfg.TargetFormat = rf.cfg.TargetFormat
	}
	if flags.Changed("extra-encoder-options") {
		cfg.ExtraEncoderOptions = rf.cfg.ExtraEncoderOptions
	}
	if flags.Changed("include-hidden") {
		cfg.IncludeHidden = rf.cfg.IncludeHidden
	}
	if flags.Changed("delete") {
		cfg.Delete = rf.cfg.Delete
	}
	if flags.Changed("exclude") {
		cfg.ExcludePatterns = rf.cfg.ExcludePatterns
	}
	if flags.Changed("quiet") {
		cfg.Quiet = rf.cfg.Quiet
	}
	if flags.Changed("verbose") {
		cfg.Verbose = rf.cfg.Verbose
	}

	source, err := filepath.Abs(args[0])
	if err != nil {
		return nil, configError{errors.Errorf("resolving source directory: %w", err)}
	}
	dest, err := filepath.Abs(args[1])
	if err != nil {
		return nil, configError{errors.Errorf("resolving destination directory: %w", err)}
	}
	cfg.SourceDir = source
	cfg.DestDir = dest

	if info, err := os.Stat(cfg.SourceDir); err != nil || !info.IsDir() {
		return nil, configError{errors.Errorf("not a directory: %s", args[0])}
	}
	if err := cfg.Validate(); err != nil {
		return nil, configError{err}
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string, rf *rootFlags, failures *int) error {
	cfg, err := resolveConfig(cmd, args, rf)
	if err != nil {
		return err
	}

	ctx := setupLogging(cmd.Context(), cfg)
	logger := zerolog.Ctx(ctx)

	if cfg.DryRun {
		logger.Info().Msg("running in dry-run mode, nothing actually happens")
	}

	converter, err := pacpl.Find()
	if err != nil {
		// Copy-only trees still work without the converter; transcodes
		// will fail per unit with a clear kind.
		logger.Warn().Err(err).Msg("pacpl not found, transcodes will fail")
		converter = nil
	}
	rsyncPath, _ := exec.LookPath("rsync")

	finder := mapper.NewFinder(cfg.SourceDir, cfg.DestDir, cfg.TranscodeFormats, cfg.TargetFormat)
	op, err := operation.New(operation.Options{
		Config:    cfg,
		Finder:    finder,
		Reporter:  status.NewReporter(cmd.OutOrStdout(), cfg.Quiet),
		Converter: converter,
		RsyncPath: rsyncPath,
	})
	if err != nil {
		return err
	}

	summary, err := op.Sync(ctx)
	if err != nil {
		return err
	}

	if cfg.Delete && !summary.Interrupted {
		deleted, err := op.Prune(ctx)
		if err != nil {
			return err
		}
		summary.Deleted = deleted
	}

	op.Report(summary)
	logger.Info().
		Int("transcoded", summary.Transcoded).
		Int("copied", summary.Copied).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("deleted", summary.Deleted).
		Msg("run complete")
	if cfg.DryRun {
		logger.Info().Msg("ran in dry-run mode, nothing actually happened")
	}

	*failures = summary.Failed
	return nil
}

// setupLogging derives the log level from the quiet/verbose flags and puts
// a console logger on the context.
func setupLogging(ctx context.Context, cfg *config.Config) context.Context {
	level := zerolog.InfoLevel
	switch {
	case cfg.Quiet:
		level = zerolog.WarnLevel
	case cfg.Verbose:
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).Level(level).With().Timestamp().Logger()
	return logger.WithContext(ctx)
}
