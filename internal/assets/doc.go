// Package assets provides the embedded stylesheets and HTML templates used
// by the annotation renderers.
//
// Styles cover the preview highlight treatments and the two-column print
// layout; templates cover the margin annotation card. All assets are
// embedded at compile time and addressed by bare name (no extension, no
// path components). Names are validated to prevent traversal out of the
// embedded tree.
package assets
