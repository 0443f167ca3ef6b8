package main

import (
	"errors"
	"os"

	mailmark "github.com/alnah/go-mailmark"
	"github.com/alnah/go-mailmark/internal/config"
)

// Exit codes for the mailmark CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or input validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, mailmark.ErrBrowserConnect) ||
		errors.Is(err, mailmark.ErrPageCreate) ||
		errors.Is(err, mailmark.ErrPageLoad) ||
		errors.Is(err, mailmark.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadHTML) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, mailmark.ErrEmptyHTML) ||
		errors.Is(err, mailmark.ErrParseFailure) ||
		errors.Is(err, mailmark.ErrInvalidPageSize) ||
		errors.Is(err, mailmark.ErrInvalidOrientation) ||
		errors.Is(err, mailmark.ErrInvalidMargin) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) {
		return ExitUsage
	}

	return ExitGeneral
}
