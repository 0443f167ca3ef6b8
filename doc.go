// Package mailmark detects annotatable elements in HTML email templates and
// re-renders them with visual annotations.
//
// # Quick Start
//
// Create a service, ingest a template, and close when done:
//
//	svc := mailmark.New()
//	defer svc.Close()
//
//	doc, err := svc.Ingest(ctx, mailmark.Input{
//	    Name: "welcome.html",
//	    Raw:  content,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	preview, err := svc.Preview(ctx, doc)   // highlighted HTML for display
//	pdf, err := svc.ExportPDF(ctx, doc)     // two-column annotated PDF
//
// # Pipeline
//
// Ingestion runs these stages once per document:
//
//  1. Placeholder normalization: {{variable}} and {{customText[...]}}
//     occurrences in text nodes are wrapped in marker spans; ##name## and
//     [text] placeholders stay verbatim for direct text detection
//  2. Element detection: form controls, hash and bracket placeholders,
//     wrapped structural placeholders, then hyperlinks, in fixed order
//  3. Locator synthesis: each occurrence gets a durable locator that
//     re-finds it later (id, tag+class, tag+name, link text, href prefix,
//     positional fallback, or a text-match token for legacy placeholders)
//
// The resulting Document carries the canonical HTML and the annotation
// list. Both renderers re-resolve locators against the canonical text on
// every call, so the list can be edited between renders.
//
// # Editing
//
// Annotation lists support manual additions, metadata/comment updates, and
// deletion by id. Kind and locator are immutable after creation; ids are
// never reused. A document's list assumes a single writer at any instant.
//
// # Parallel Processing
//
// Documents are independent. For batches, use ServicePool to run one
// service (and one browser) per worker:
//
//	pool := mailmark.NewServicePool(4)
//	defer pool.Close()
//
//	svc := pool.Acquire()
//	defer pool.Release(svc)
//
// # Browser Requirements
//
// PDF export requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package mailmark
