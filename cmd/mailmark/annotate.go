package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	mailmark "github.com/alnah/go-mailmark"
	"github.com/alnah/go-mailmark/internal/config"
	"github.com/alnah/go-mailmark/internal/fileutil"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadHTML           = errors.New("failed to read HTML file")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrInvalidExtension   = errors.New("file must have .html or .htm extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// FileToProcess represents a single template to process.
type FileToProcess struct {
	InputPath string
	OutputDir string
}

// runAnnotate orchestrates the annotation run.
func runAnnotate(ctx context.Context, positionalArgs []string, flags *annotateFlags, env *Environment, newPool poolFactory) error {
	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	// Load configuration
	cfg := config.DefaultConfig()
	var err error
	if flags.config != "" {
		cfg, err = config.LoadConfig(flags.config)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	// Merge CLI flags into config (CLI wins)
	mergeFlags(flags, cfg)

	// Re-validate after the merge: workers.count may come from YAML.
	if err := validateWorkers(cfg.Workers.Count); err != nil {
		return err
	}

	// Resolve input path
	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}

	// Resolve output directory
	outputDir := resolveOutputDir(flags.output, cfg)

	// Discover files to process
	files, err := discoverFiles(inputPath, outputDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("no HTML files found in %s", inputPath)
	}

	// Build page settings
	page, err := buildPageSettings(cfg)
	if err != nil {
		return err
	}

	// Build service options
	logger, err := buildLogger(flags.quiet, flags.verbose)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failures are not actionable

	opts := []mailmark.Option{mailmark.WithPage(page), mailmark.WithLogger(logger)}
	if flags.timeout != "" {
		timeout, err := time.ParseDuration(flags.timeout)
		if err != nil || timeout <= 0 {
			return fmt.Errorf("invalid timeout %q", flags.timeout)
		}
		opts = append(opts, mailmark.WithTimeout(timeout))
	}

	// Create pool with resolved size
	poolSize := mailmark.ResolvePoolSize(cfg.Workers.Count)
	if poolSize > len(files) {
		poolSize = len(files)
	}
	if flags.verbose {
		fmt.Fprintf(env.Stderr, "Pool size: %d\n", poolSize)
	}
	pool := newPool(poolSize, opts...)
	defer pool.Close() //nolint:errcheck // browser shutdown errors are not actionable here

	// Process files
	params := &processParams{
		cfg:          cfg,
		writeJSON:    cfg.Output.Annotations,
		writePreview: cfg.Output.Preview,
		writePDF:     cfg.Output.PDF,
		pdfPrefix:    cfg.Output.PDFPrefix,
	}
	results := processBatch(ctx, pool, files, params)

	// Print results
	failedCount := printResultsWithWriter(results, flags.quiet, flags.verbose, env)
	if failedCount > 0 {
		return fmt.Errorf("%d file(s) failed", failedCount)
	}

	return nil
}

// buildLogger picks the service logger for the run. Quiet silences
// diagnostics entirely, verbose enables the human-readable development
// encoder, and the default reports warnings only.
func buildLogger(quiet, verbose bool) (*zap.Logger, error) {
	switch {
	case quiet:
		return zap.NewNop(), nil
	case verbose:
		return zap.NewDevelopment()
	default:
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		return cfg.Build()
	}
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *annotateFlags, cfg *config.Config) {
	if flags.pageSize != "" {
		cfg.Page.Size = flags.pageSize
	}
	if flags.orientation != "" {
		cfg.Page.Orientation = flags.orientation
	}
	if flags.marginCm != marginSentinel {
		cfg.Page.MarginCm = flags.marginCm
	}
	if flags.noJSON {
		cfg.Output.Annotations = false
	}
	if flags.noPreview {
		cfg.Output.Preview = false
	}
	if flags.noPDF {
		cfg.Output.PDF = false
	}
	if flags.workers != 0 {
		cfg.Workers.Count = flags.workers
	}
}

// resolveInputPath determines the input from args or config default.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", fmt.Errorf("%w: provide an HTML file or directory, or set input.defaultDir in config", ErrNoInput)
}

// resolveOutputDir determines the output directory. Empty means
// outputs are written next to each input file.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// buildPageSettings converts config page values into validated settings.
// The margin carries over unconditionally: the config always starts from
// defaults, so a zero there is an explicit zero, not an unset field.
func buildPageSettings(cfg *config.Config) (*mailmark.PageSettings, error) {
	page := mailmark.DefaultPageSettings()
	if cfg.Page.Size != "" {
		page.Size = strings.ToLower(cfg.Page.Size)
	}
	if cfg.Page.Orientation != "" {
		page.Orientation = strings.ToLower(cfg.Page.Orientation)
	}
	page.MarginCm = cfg.Page.MarginCm
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return page, nil
}

// discoverFiles finds all HTML templates to process.
func discoverFiles(inputPath, outputDir string) ([]FileToProcess, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !fileutil.IsHTMLFile(inputPath) {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(inputPath))
		}
		outDir := outputDir
		if outDir == "" {
			outDir = filepath.Dir(inputPath)
		}
		return []FileToProcess{{InputPath: inputPath, OutputDir: outDir}}, nil
	}

	var files []FileToProcess
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() {
			return nil
		}
		if !fileutil.IsHTMLFile(path) {
			return nil
		}
		outDir := resolveFileOutputDir(path, outputDir, inputPath)
		files = append(files, FileToProcess{InputPath: path, OutputDir: outDir})
		return nil
	})

	return files, err
}

// resolveFileOutputDir mirrors the input directory structure under outputDir.
func resolveFileOutputDir(inputPath, outputDir, baseInputDir string) string {
	if outputDir == "" {
		return filepath.Dir(inputPath)
	}
	relPath, err := filepath.Rel(baseInputDir, inputPath)
	if err != nil {
		return outputDir
	}
	return filepath.Join(outputDir, filepath.Dir(relPath))
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > mailmark.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, mailmark.MaxPoolSize)
	}
	return nil
}

// templateName strips the HTML extension from a file name.
func templateName(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// annotationsPath returns the JSON report path for a template.
func annotationsPath(outDir, name string) string {
	return filepath.Join(outDir, name+".annotations.json")
}

// previewPath returns the highlighted preview path for a template.
func previewPath(outDir, name string) string {
	return filepath.Join(outDir, name+".preview.html")
}

// pdfPath returns the annotated PDF path for a template.
func pdfPath(outDir, prefix, name string) string {
	return filepath.Join(outDir, prefix+name+".pdf")
}
