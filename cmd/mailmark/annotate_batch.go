package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	mailmark "github.com/alnah/go-mailmark"
	"github.com/alnah/go-mailmark/internal/config"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// processParams groups parameters shared across batch processing.
type processParams struct {
	cfg          *config.Config
	writeJSON    bool
	writePreview bool
	writePDF     bool
	pdfPrefix    string
}

// ProcessResult holds the outcome of processing a single template.
type ProcessResult struct {
	InputPath   string
	Outputs     []string
	Annotations int
	Err         error
	Duration    time.Duration
}

// annotationReport is the JSON shape written to <name>.annotations.json.
type annotationReport struct {
	Name        string                `json:"name"`
	Count       int                   `json:"count"`
	Annotations []mailmark.Annotation `json:"annotations"`
}

// processBatch processes templates concurrently using the service pool.
func processBatch(ctx context.Context, pool Pool, files []FileToProcess, params *processParams) []ProcessResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := pool.Size()
	if concurrency > len(files) {
		concurrency = len(files)
	}

	results := make([]ProcessResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			svc := pool.Acquire()
			defer pool.Release(svc)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ProcessResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = processFile(ctx, svc, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// processFile annotates a single template and writes the requested outputs.
func processFile(ctx context.Context, svc Annotator, f FileToProcess, params *processParams) ProcessResult {
	start := time.Now()
	result := ProcessResult{InputPath: f.InputPath}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrReadHTML, err)
		result.Duration = time.Since(start)
		return result
	}

	name := templateName(f.InputPath)

	doc, err := svc.Ingest(ctx, mailmark.Input{Name: name, Raw: content})
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}
	result.Annotations = len(doc.Annotations)

	if err := os.MkdirAll(f.OutputDir, dirPermissions); err != nil {
		result.Err = fmt.Errorf("creating output directory: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	if params.writeJSON {
		report := annotationReport{
			Name:        doc.Name,
			Count:       len(doc.Annotations),
			Annotations: doc.Annotations,
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			result.Err = fmt.Errorf("encoding annotation report: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		path := annotationsPath(f.OutputDir, name)
		// #nosec G306 -- reports are meant to be readable
		if err := os.WriteFile(path, append(data, '\n'), filePermissions); err != nil {
			result.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
			result.Duration = time.Since(start)
			return result
		}
		result.Outputs = append(result.Outputs, path)
	}

	if params.writePreview {
		preview, err := svc.Preview(ctx, doc)
		if err != nil {
			result.Err = err
			result.Duration = time.Since(start)
			return result
		}
		path := previewPath(f.OutputDir, name)
		// #nosec G306 -- previews are meant to be readable
		if err := os.WriteFile(path, []byte(preview), filePermissions); err != nil {
			result.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
			result.Duration = time.Since(start)
			return result
		}
		result.Outputs = append(result.Outputs, path)
	}

	if params.writePDF {
		pdfBytes, err := svc.ExportPDF(ctx, doc)
		if err != nil {
			result.Err = err
			result.Duration = time.Since(start)
			return result
		}
		path := pdfPath(f.OutputDir, params.pdfPrefix, name)
		// #nosec G306 -- PDFs are meant to be readable
		if err := os.WriteFile(path, pdfBytes, filePermissions); err != nil {
			result.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
			result.Duration = time.Since(start)
			return result
		}
		result.Outputs = append(result.Outputs, path)
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed files.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed files.
func countResults(results []ProcessResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResultsWithWriter outputs processing results using the provided writers.
// Returns the number of failed files.
func printResultsWithWriter(results []ProcessResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s: %d annotations, %d output(s) (%v)\n",
				r.InputPath, r.Annotations, len(r.Outputs), r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Annotated %s (%d annotations)\n", r.InputPath, r.Annotations)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
