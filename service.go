package mailmark

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Service orchestrates the annotation pipeline: normalize, detect, render.
// Ingestion runs once per document and produces the full annotation list
// atomically; the preview and print renderers are independent, idempotent
// consumers that can be invoked repeatedly against the current (possibly
// user-edited) list. A Service is safe to reuse across documents
// sequentially; use a ServicePool for parallel batches.
type Service struct {
	cfg          serviceConfig
	normalizer   placeholderNormalizer
	detector     elementDetector
	preview      previewRenderer
	printLayout  printLayoutRenderer
	pdfConverter pdfConverter
}

// New creates a Service with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithLogger).
func New(opts ...Option) *Service {
	s := &Service{
		cfg: serviceConfig{
			timeout: defaultTimeout,
			page:    DefaultPageSettings(),
			log:     zap.NewNop(),
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.normalizer = &structuralNormalization{}
	s.detector = newAnnotationDetection(s.cfg.log)
	s.preview = newHighlightPreview(s.cfg.log)
	s.printLayout = newMarginLayout(s.cfg.log, s.cfg.page)

	// Create PDF converter if not injected (e.g., by tests)
	if s.pdfConverter == nil {
		s.pdfConverter = newRodConverter(s.cfg.timeout)
	}

	return s
}

// Ingest normalizes the raw HTML and runs one detection pass, producing the
// document with its canonical text and full annotation list. Input bytes
// that do not decode as UTF-8 are dropped rather than causing failure.
// Detection must complete before either renderer runs; the returned
// document is what the renderers consume.
func (s *Service) Ingest(ctx context.Context, input Input) (*Document, error) {
	if len(input.Raw) == 0 {
		return nil, ErrEmptyHTML
	}

	raw := strings.ToValidUTF8(string(input.Raw), "")

	canonical, err := s.normalizer.Normalize(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalizing placeholders: %w", err)
	}

	annotations, err := s.detector.Detect(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("detecting elements: %w", err)
	}

	s.cfg.log.Debug("ingested document",
		zap.String("name", input.Name),
		zap.Int("annotations", len(annotations)))

	return &Document{
		Name:        input.Name,
		HTML:        canonical,
		Annotations: annotations,
	}, nil
}

// Preview renders the document with highlight markup for live display.
func (s *Service) Preview(ctx context.Context, doc *Document) (string, error) {
	rendered, _, err := s.preview.RenderPreview(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("rendering preview: %w", err)
	}
	return rendered, nil
}

// PrintLayout renders the two-column annotated document intended for the
// HTML-to-PDF backend. Exposed separately from ExportPDF so callers can
// hand the HTML to a different backend.
func (s *Service) PrintLayout(ctx context.Context, doc *Document) (string, error) {
	rendered, _, err := s.printLayout.RenderPrintLayout(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("rendering print layout: %w", err)
	}
	return rendered, nil
}

// ExportPDF renders the print layout and converts it to PDF bytes.
// The context is used for cancellation and timeout.
func (s *Service) ExportPDF(ctx context.Context, doc *Document) ([]byte, error) {
	rendered, err := s.PrintLayout(ctx, doc)
	if err != nil {
		return nil, err
	}

	pdfBytes, err := s.pdfConverter.ToPDF(ctx, rendered, &pdfOptions{Page: s.cfg.page})
	if err != nil {
		return nil, fmt.Errorf("converting to PDF: %w", err)
	}
	return pdfBytes, nil
}

// Close releases resources (headless Chrome browser).
func (s *Service) Close() error {
	if s.pdfConverter != nil {
		return s.pdfConverter.Close()
	}
	return nil
}
