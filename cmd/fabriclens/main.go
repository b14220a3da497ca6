package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fabriclens/fabriclens/internal/archive"
	"github.com/fabriclens/fabriclens/internal/config"
	"github.com/fabriclens/fabriclens/internal/export"
	"github.com/fabriclens/fabriclens/internal/scan"
	"github.com/fabriclens/fabriclens/internal/version"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const usage = `Usage: fabriclens [--config <file>] [--archive <db>] <input-dir> <output-dir> [--hwloc-dir <path>]
	hwloc-dir can be an absolute path or a relative path from the output dir
`

// Exit codes: 0 success, 1 argument or run error, 2 directory-open failure.
func main() {
	os.Exit(run(os.Args[1:]))
}

type options struct {
	configPath  string
	archivePath string
	hwlocDir    string
	inputDir    string
	outputDir   string
	showVersion bool
	showHelp    bool
}

// parseArgs accepts flags before, between, or after the two positional
// directory arguments.
func parseArgs(args []string) (*options, error) {
	opts := &options{}
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		takeValue := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s requires a value", arg)
			}
			i++
			return args[i], nil
		}

		var err error
		switch arg {
		case "--help", "-h":
			opts.showHelp = true
		case "--version":
			opts.showVersion = true
		case "--config":
			opts.configPath, err = takeValue()
		case "--archive":
			opts.archivePath, err = takeValue()
		case "--hwloc-dir":
			opts.hwlocDir, err = takeValue()
		default:
			positional = append(positional, arg)
		}
		if err != nil {
			return nil, err
		}
	}

	if opts.showHelp || opts.showVersion {
		return opts, nil
	}
	if len(positional) != 2 {
		return nil, fmt.Errorf("expected <input-dir> and <output-dir>, got %d arguments", len(positional))
	}
	opts.inputDir = positional[0]
	opts.outputDir = positional[1]
	return opts, nil
}

func run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fabriclens: %v\n%s", err, usage)
		return 1
	}
	if opts.showHelp {
		fmt.Print(usage)
		return 0
	}
	if opts.showVersion {
		fmt.Println(version.Info())
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fabriclens: %v\n", err)
		return 1
	}

	logger, err := newLogger(cfg.GetString("log.level"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "fabriclens: build logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if !isDirectory(opts.inputDir) {
		fmt.Fprintf(os.Stderr, "fabriclens: couldn't open input directory %q\n", opts.inputDir)
		return 2
	}
	if !isDirectory(opts.outputDir) {
		fmt.Fprintf(os.Stderr, "fabriclens: couldn't open output directory %q\n", opts.outputDir)
		return 2
	}

	hwlocDir := opts.hwlocDir
	if hwlocDir != "" {
		if !filepath.IsAbs(hwlocDir) {
			hwlocDir = filepath.Join(opts.outputDir, hwlocDir)
		}
		if !isDirectory(hwlocDir) {
			fmt.Fprintf(os.Stderr, "fabriclens: couldn't open hwloc directory %q\n", hwlocDir)
			return 2
		}
	}

	archivePath := opts.archivePath
	if archivePath == "" {
		archivePath = cfg.GetString("archive.path")
	}
	var archiveStore *archive.Store
	if archivePath != "" {
		archiveStore, err = archive.New(archivePath)
		if err != nil {
			logger.Error("open archive failed", zap.Error(err))
			return 1
		}
		defer archiveStore.Close()
	}

	writer := export.NewWriter(logger, opts.outputDir, hwlocDir)
	runner := scan.NewRunner(logger, writer, archiveStore, cfg.GetInt("paths.workers"))

	processed, err := runner.Run(context.Background(), opts.inputDir)
	if err != nil {
		logger.Error("extraction failed", zap.Error(err))
		return 1
	}

	logger.Info("extraction complete", zap.Int("subnets", processed))
	return 0
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

func isDirectory(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
