package main

import (
	"context"

	mailmark "github.com/alnah/go-mailmark"
)

// Annotator is the interface for the annotation service.
type Annotator interface {
	Ingest(ctx context.Context, input mailmark.Input) (*mailmark.Document, error)
	Preview(ctx context.Context, doc *mailmark.Document) (string, error)
	ExportPDF(ctx context.Context, doc *mailmark.Document) ([]byte, error)
}

// Compile-time interface implementation check.
var _ Annotator = (*mailmark.Service)(nil)

// Pool abstracts service pool operations for testability.
type Pool interface {
	Acquire() Annotator
	Release(Annotator)
	Size() int
	Close() error
}

// poolFactory creates a Pool with the given capacity and service options.
type poolFactory func(n int, opts ...mailmark.Option) Pool

// servicePool adapts mailmark.ServicePool to the Pool interface.
type servicePool struct {
	p *mailmark.ServicePool
}

// defaultPoolFactory wraps the library's ServicePool.
func defaultPoolFactory(n int, opts ...mailmark.Option) Pool {
	return &servicePool{p: mailmark.NewServicePool(n, opts...)}
}

func (sp *servicePool) Acquire() Annotator {
	return sp.p.Acquire()
}

func (sp *servicePool) Release(a Annotator) {
	if svc, ok := a.(*mailmark.Service); ok {
		sp.p.Release(svc)
	}
}

func (sp *servicePool) Size() int {
	return sp.p.Size()
}

func (sp *servicePool) Close() error {
	return sp.p.Close()
}
