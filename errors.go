package mailmark

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyHTML    = errors.New("HTML content cannot be empty")
	ErrNilDocument  = errors.New("document cannot be nil")
	ErrParseFailure = errors.New("failed to parse HTML document")

	// Annotation list editing errors.
	ErrAnnotationNotFound = errors.New("annotation not found")
	ErrImmutableField     = errors.New("annotation kind and locator are immutable")
	ErrMissingMetadata    = errors.New("manual annotation requires kind-matching metadata")
	ErrInvalidKind        = errors.New("invalid annotation kind")

	// Locator resolution errors.
	ErrSelectorResolution = errors.New("locator matched no element")
	ErrUnknownStrategy    = errors.New("unknown locator strategy")

	// PDF generation errors.
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
)
