// Package main provides the stringy command, a string extractor for ELF,
// PE and Mach-O binaries. It classifies sections, ranks extracted strings
// and prints a text or JSON report per input file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hmori/go-binstrings/internal/color"
	"github.com/hmori/go-binstrings/internal/config"
	"github.com/hmori/go-binstrings/internal/container"
	"github.com/hmori/go-binstrings/internal/extraction"
	"github.com/hmori/go-binstrings/internal/output"
	"github.com/hmori/go-binstrings/internal/safeio"
	"github.com/hmori/go-binstrings/internal/terminal"
)

// configFileSizeLimit caps config files well below the binary cap.
const configFileSizeLimit = 1 << 20

var (
	errNoFilesProvided = errors.New("at least one file path must be provided")
	errInvalidLogLevel = errors.New("invalid log level")
)

type cliConfig struct {
	files     []string
	cfg       *config.Config
	colorMode terminal.ColorMode
	logLevel  slog.Level
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cli, fs, err := parseArgs(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		printUsage(fs, stderr)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cli.logLevel}))
	slog.SetDefault(logger)

	return processFiles(cli, stdout, stderr)
}

func parseArgs(args []string) (*cliConfig, *flag.FlagSet, error) {
	options := struct {
		configPath string
		jsonOutput bool
		minLength  int
		top        int
		all        bool
		colorMode  string
		logLevel   string
	}{}

	fs := flag.NewFlagSet("stringy", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&options.configPath, "config", "", "Path to a TOML configuration file")
	fs.BoolVar(&options.jsonOutput, "json", false, "Emit the report as JSON instead of text")
	fs.IntVar(&options.minLength, "min-length", 0, "Minimum string length in characters (overrides config)")
	fs.IntVar(&options.top, "top", -1, "Limit output to the N highest-scoring strings, 0 for no limit (overrides config)")
	fs.BoolVar(&options.all, "all", false, "Also scan code and unclassified sections")
	fs.StringVar(&options.colorMode, "color", "auto", "Color output: auto, always or never")
	fs.StringVar(&options.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	if len(fs.Args()) == 0 {
		return nil, fs, errNoFilesProvided
	}

	cfg, err := loadConfig(options.configPath)
	if err != nil {
		return nil, fs, err
	}

	// Flags override the config file.
	if options.jsonOutput {
		cfg.Output = config.OutputJSON
	}
	if options.minLength > 0 {
		cfg.MinLength = options.minLength
	}
	if options.top >= 0 {
		cfg.Top = options.top
	}
	if options.all {
		cfg.IncludeCodeSections = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fs, err
	}

	colorMode, err := terminal.ParseColorMode(options.colorMode)
	if err != nil {
		return nil, fs, err
	}

	logLevel, err := parseLogLevel(options.logLevel)
	if err != nil {
		return nil, fs, err
	}

	return &cliConfig{
		files:     fs.Args(),
		cfg:       cfg,
		colorMode: colorMode,
		logLevel:  logLevel,
	}, fs, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	content, err := safeio.ReadFileCapped(path, configFileSizeLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	cfg, err := config.LoadConfig(content)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func parseLogLevel(value string) (slog.Level, error) {
	switch value {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("%w: %q", errInvalidLogLevel, value)
	}
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	if fs == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "Usage: %s [flags] <binary> [<binary>...]\n", filepath.Base(os.Args[0]))
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func processFiles(cli *cliConfig, stdout, stderr io.Writer) int {
	scanner := extraction.NewScanner(cli.cfg.ScanOptions())
	palette := color.NewPalette(terminal.ShouldColorize(cli.colorMode, stdout))

	failures := 0
	for _, path := range cli.files {
		if err := analyzeFile(path, cli, scanner, palette, stdout); err != nil {
			failures++
			_, _ = fmt.Fprintf(stderr, "Error analyzing %s: %v\n", path, err)
		}
	}

	if failures > 0 {
		return 1
	}
	return 0
}

func analyzeFile(path string, cli *cliConfig, scanner *extraction.Scanner, palette color.Palette, stdout io.Writer) error {
	data, err := safeio.ReadFileCapped(path, cli.cfg.MaxFileSize)
	if err != nil {
		return err
	}

	info, err := container.Analyze(data)
	if err != nil {
		return err
	}
	slog.Debug("container parsed",
		"path", path,
		"format", info.Format.String(),
		"sections", len(info.Sections),
		"imports", len(info.Imports),
		"exports", len(info.Exports))

	found := scanner.Scan(data, info)
	report := output.NewReport(path, int64(len(data)), info, found, cli.cfg.Top)

	if cli.cfg.Output == config.OutputJSON {
		return report.WriteJSON(stdout)
	}
	return report.WriteText(stdout, palette)
}
