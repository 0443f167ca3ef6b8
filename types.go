package mailmark

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Kind classifies what an annotation points at.
type Kind string

// Annotation kinds. Immutable after creation: changing the kind of an
// existing annotation requires delete and recreate.
const (
	KindFormField        Kind = "form_field"
	KindHyperlink        Kind = "hyperlink"
	KindTemplateVariable Kind = "template_variable"
)

// Valid reports whether k is a known annotation kind.
func (k Kind) Valid() bool {
	switch k {
	case KindFormField, KindHyperlink, KindTemplateVariable:
		return true
	}
	return false
}

// VariableSyntax identifies which placeholder grammar produced a
// template-variable annotation.
type VariableSyntax string

// Placeholder syntaxes.
const (
	SyntaxDoubleBrace     VariableSyntax = "double-brace"      // {{name}}
	SyntaxCustomTextBlock VariableSyntax = "custom-text-block" // {{customText[...]}}
	SyntaxHashDelimited   VariableSyntax = "hash-delimited"    // ##name##
	SyntaxBracketed       VariableSyntax = "bracket-delimited" // [text]
)

// FormFieldMeta carries form-control attributes captured verbatim at
// detection time.
type FormFieldMeta struct {
	Name        string `json:"name"`
	InputType   string `json:"input_type"`
	Placeholder string `json:"placeholder,omitempty"`
	Value       string `json:"value,omitempty"`
	Required    bool   `json:"required"`
}

// HyperlinkMeta carries anchor attributes and dynamic-content flags.
// HasDynamicURL and HasDynamicText report whether the href or the visible
// text still contain an unresolved structural placeholder; such links need
// different editor affordances.
type HyperlinkMeta struct {
	URL            string `json:"url"`
	DisplayText    string `json:"display_text"`
	IsEmailLink    bool   `json:"is_email_link"`
	HasDynamicURL  bool   `json:"has_dynamic_url"`
	HasDynamicText bool   `json:"has_dynamic_text"`
}

// VariableMeta carries template-variable details. RawText retains the full
// matched text even when the display label is truncated. Instance is the
// 1-based occurrence ordinal among identical raw matches in one document;
// duplicate placeholders are deliberately not deduplicated.
type VariableMeta struct {
	VariableName string         `json:"variable_name"`
	Syntax       VariableSyntax `json:"variable_syntax"`
	RawText      string         `json:"raw_text"`
	Instance     int            `json:"instance"`
}

// Annotation binds one detected document occurrence to a durable locator and
// descriptive metadata. ID and Kind are assigned at creation and never
// change; Label and UserComment are freely editable afterward with no effect
// on locator resolution.
type Annotation struct {
	ID          string         `json:"id"`
	Kind        Kind           `json:"kind"`
	Locator     Locator        `json:"locator"`
	Label       string         `json:"label"`
	FormField   *FormFieldMeta `json:"form_field,omitempty"`
	Hyperlink   *HyperlinkMeta `json:"hyperlink,omitempty"`
	Variable    *VariableMeta  `json:"template_variable,omitempty"`
	UserComment string         `json:"user_comment,omitempty"`
}

// Document is one ingested HTML template with its annotation list.
// HTML holds the canonical text: the normalizer's output with structural
// placeholders wrapped, serialized through one DOM round-trip. All locators
// resolve against this text, and both renderers consume it. The list is
// owned by a single writer at any instant; callers sharing a document must
// serialize edits themselves.
type Document struct {
	Name        string       `json:"name"`
	HTML        string       `json:"html"`
	Annotations []Annotation `json:"annotations"`
}

// Input contains ingestion parameters. Raw is interpreted as a loose byte
// stream: bytes that do not decode as UTF-8 are dropped rather than causing
// failure.
type Input struct {
	Name string // document name, used for output naming (optional)
	Raw  []byte // HTML content (required)
}

// RenderStats carries diagnostic counts from one renderer invocation.
// Ambiguous counts locators that matched more than one element and were
// resolved to the first match in document order; Failed counts locators that
// matched nothing and were skipped.
type RenderStats struct {
	Resolved  int
	Ambiguous int
	Failed    int
}

// Page size constants.
const (
	PageSizeA4     = "a4"
	PageSizeLetter = "letter"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in centimeters.
const (
	MinMarginCm     = 0.0
	MaxMarginCm     = 5.0
	DefaultMarginCm = 1.0
)

// PageSettings configures the print layout page. The defaults match the
// expected export convention: A4 landscape with 1cm margins.
type PageSettings struct {
	Size        string  // "a4", "letter", "legal"
	Orientation string  // "portrait", "landscape"
	MarginCm    float64 // centimeters, applied to all sides
}

// DefaultPageSettings returns the A4 landscape export defaults.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeA4,
		Orientation: OrientationLandscape,
		MarginCm:    DefaultMarginCm,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}
	if !isValidPageSize(p.Size) {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}
	if !isValidOrientation(p.Orientation) {
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}
	if p.MarginCm < MinMarginCm || p.MarginCm > MaxMarginCm {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.MarginCm, MinMarginCm, MaxMarginCm)
	}
	return nil
}

// isValidPageSize checks if size is a known page size (case-insensitive).
func isValidPageSize(size string) bool {
	switch strings.ToLower(size) {
	case PageSizeA4, PageSizeLetter, PageSizeLegal:
		return true
	}
	return false
}

// isValidOrientation checks if orientation is valid (case-insensitive).
func isValidOrientation(orientation string) bool {
	switch strings.ToLower(orientation) {
	case OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	timeout time.Duration
	page    *PageSettings
	log     *zap.Logger
}

// defaultTimeout is used when no PDF rendering timeout is specified.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the PDF rendering timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mailmark: WithTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.timeout = d
	}
}

// WithPage sets page settings for the print layout and PDF export.
func WithPage(p *PageSettings) Option {
	return func(s *Service) {
		s.cfg.page = p
	}
}

// WithLogger sets the logger used for detection and render diagnostics.
// The default is zap.NewNop(); skipped annotations and resolution failures
// are reported at Warn level.
func WithLogger(log *zap.Logger) Option {
	if log == nil {
		panic("mailmark: WithLogger logger must not be nil")
	}
	return func(s *Service) {
		s.cfg.log = log
	}
}
