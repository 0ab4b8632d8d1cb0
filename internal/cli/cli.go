package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/asynkron/binpatch/internal/config"
	"github.com/asynkron/binpatch/internal/fileprobe"
	"github.com/asynkron/binpatch/internal/logging"
	"github.com/asynkron/binpatch/internal/render"
	"github.com/asynkron/binpatch/pkg/binpatch"
)

// Exit codes returned by Run.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitUsage        = 2
	ExitNotPatchable = 3
)

const usageText = `Usage: binpatch [flags] <file> <search-hex> <replace-hex>

Replaces the first occurrence of the search bytes in <file> with the
replacement bytes. Patterns are even-length hex strings such as AB00FF14.
A backup named <file>.org is written before patching unless -no-backup is set.

Flags:
`

type options struct {
	file       string
	search     string
	replace    string
	backupPath string
	configPath string
	noBackup   bool
	replaceAll bool
	dryRun     bool
	check      bool
	showDiff   bool
	logLevel   string
	noColor    bool
}

// Run executes one patch invocation using the provided CLI arguments.
// It returns a POSIX-style exit code indicating whether execution succeeded.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(stderr, err)
		return ExitFailure
	}

	opts, visited, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		if !errors.Is(err, errFlagParse) {
			fmt.Fprintf(stderr, "%v\n", err)
		}
		return ExitUsage
	}

	cfg, err := config.Load(opts.configPath, os.Getenv)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitFailure
	}
	if err := applyFlagOverrides(&cfg, opts, visited); err != nil {
		fmt.Fprintln(stderr, err)
		return ExitUsage
	}

	logger := logging.NewStdLogger(cfg.Level(), stderr).WithFields(logging.F("file", opts.file))
	ctx = logging.WithRunID(ctx, logging.NewRunID())
	out := render.New(stdout, cfg.NoColor)
	errOut := render.New(stderr, cfg.NoColor)

	patcher, err := binpatch.NewWithOptions(opts.file, opts.search, opts.replace, binpatch.Options{ReplaceAll: cfg.ReplaceAll})
	if err != nil {
		logger.Error(ctx, "failed to prepare patch", err, logging.F("code", binpatch.ErrorCode(err)))
		errOut.Error(binpatch.FormatError(err))
		return exitCodeFor(err)
	}

	probe := fileprobe.Detect(patcher.Content())
	out.Probe(probe)
	logger.Debug(ctx, "file loaded",
		logging.F("size", probe.Size),
		logging.F("format", probe.Format),
		logging.F("search", binpatch.EncodePattern(patcher.Search())),
		logging.F("replace", binpatch.EncodePattern(patcher.Replace())),
	)

	offset := patcher.Offset()
	if offset < 0 {
		logger.Warn(ctx, "search pattern not present")
		out.Warn("search pattern %s not found in %s; nothing to do", binpatch.EncodePattern(patcher.Search()), opts.file)
		return ExitNotPatchable
	}

	if opts.check {
		out.OK("search pattern found at %#x", offset)
		return ExitOK
	}

	if opts.dryRun {
		preview, result, err := binpatch.PatchBytes(patcher.Content(), opts.search, opts.replace, binpatch.Options{ReplaceAll: cfg.ReplaceAll})
		if err != nil {
			errOut.Error(binpatch.FormatError(err))
			return exitCodeFor(err)
		}
		out.Info("dry run: would replace %d occurrence(s), first at %#x", len(result.Offsets), offset)
		out.Diff(patcher.Content(), result.SearchLen, preview, result.ReplaceLen, offset)
		return ExitOK
	}

	if err := ctx.Err(); err != nil {
		logger.Warn(ctx, "cancelled before writing", logging.F("reason", err.Error()))
		return ExitFailure
	}

	backupPath := ""
	if !cfg.NoBackup {
		backupPath = opts.backupPath
		if backupPath == "" {
			backupPath = opts.file + cfg.BackupSuffix
		}
		if err := patcher.CreateBackup(backupPath); err != nil {
			logger.Error(ctx, "backup failed", err, logging.F("backup", backupPath))
			errOut.Error(binpatch.FormatError(err))
			return exitCodeFor(err)
		}
		logger.Info(ctx, "backup written", logging.F("backup", backupPath))
	}

	if err := ctx.Err(); err != nil {
		logger.Warn(ctx, "cancelled before writing", logging.F("reason", err.Error()))
		return ExitFailure
	}

	before := patcher.Content()
	result, err := patcher.Patch()
	if err != nil {
		logger.Error(ctx, "patch failed", err, logging.F("code", binpatch.ErrorCode(err)))
		errOut.Error(binpatch.FormatError(err))
		return exitCodeFor(err)
	}
	logger.Info(ctx, "patch applied",
		logging.F("offsets", result.Offsets),
		logging.F("size_before", result.SizeBefore),
		logging.F("size_after", result.SizeAfter),
	)

	out.Patched(result, backupPath)
	if opts.showDiff {
		out.Diff(before, result.SearchLen, patcher.Content(), result.ReplaceLen, result.Offsets[0])
	}
	return ExitOK
}

var errFlagParse = errors.New("flag parse error")

func parseArgs(args []string, stderr io.Writer) (options, map[string]bool, error) {
	var opts options
	flagSet := flag.NewFlagSet("binpatch", flag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprint(flagSet.Output(), usageText)
		flagSet.PrintDefaults()
	}
	flagSet.StringVar(&opts.file, "file", "", "file to patch (alternative to the first positional argument)")
	flagSet.StringVar(&opts.search, "search", "", "hex bytes to search for")
	flagSet.StringVar(&opts.replace, "replace", "", "hex bytes to write in place of the match")
	flagSet.StringVar(&opts.backupPath, "backup", "", "write the backup to this path instead of <file><suffix>")
	flagSet.StringVar(&opts.configPath, "config", "", "YAML or JSON config file")
	flagSet.BoolVar(&opts.noBackup, "no-backup", false, "skip writing a backup before patching")
	flagSet.BoolVar(&opts.replaceAll, "all", false, "replace every non-overlapping occurrence instead of the first")
	flagSet.BoolVar(&opts.dryRun, "dry-run", false, "show what would change without writing anything")
	flagSet.BoolVar(&opts.check, "check", false, "exit 0 if the file is patchable and 3 otherwise, without writing")
	flagSet.BoolVar(&opts.showDiff, "diff", false, "print a hex dump of the patched region")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level written to stderr (DEBUG, INFO, WARN, ERROR)")
	flagSet.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return options{}, nil, err
		}
		return options{}, nil, errFlagParse
	}

	rest := flagSet.Args()
	for _, target := range []*string{&opts.file, &opts.search, &opts.replace} {
		if *target != "" || len(rest) == 0 {
			continue
		}
		*target = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return options{}, nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}
	if opts.file == "" || opts.search == "" || opts.replace == "" {
		flagSet.Usage()
		return options{}, nil, errFlagParse
	}

	visited := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { visited[f.Name] = true })
	return opts, visited, nil
}

func applyFlagOverrides(cfg *config.Config, opts options, visited map[string]bool) error {
	if visited["no-backup"] {
		cfg.NoBackup = opts.noBackup
	}
	if visited["all"] {
		cfg.ReplaceAll = opts.replaceAll
	}
	if visited["no-color"] {
		cfg.NoColor = opts.noColor
	}
	if visited["log-level"] {
		cfg.LogLevel = opts.logLevel
	}
	if visited["backup"] && opts.backupPath == "" {
		return errors.New("-backup requires a path")
	}
	if visited["backup"] && opts.noBackup {
		return errors.New("-backup and -no-backup are mutually exclusive")
	}
	if opts.dryRun && opts.check {
		return errors.New("-dry-run and -check are mutually exclusive")
	}
	return cfg.Validate()
}

func exitCodeFor(err error) int {
	switch binpatch.ErrorCode(err) {
	case binpatch.CodeInvalidPattern:
		return ExitUsage
	case binpatch.CodePatternNotFound:
		return ExitNotPatchable
	default:
		return ExitFailure
	}
}
