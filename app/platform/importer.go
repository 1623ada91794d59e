package platform

import (
	"context"
	"fmt"

	"github.com/lysyi3m/content-comb/app/content"
	"github.com/lysyi3m/content-comb/app/database"
)

// Importer pulls a batch of raw platform payloads for a registered source.
// Payloads are returned untouched; mapping to the canonical record shape is
// the normalizer's job.
type Importer interface {
	Kind() content.SourceKind
	Fetch(ctx context.Context, source database.Source) ([]map[string]any, error)
}

// Registry holds one importer per remote-capable source kind. LinkedIn and
// Facebook are absent: their APIs require app review, so those sources are
// imported through caller-supplied payload batches instead.
type Registry struct {
	importers map[content.SourceKind]Importer
}

func NewRegistry(importers ...Importer) *Registry {
	r := &Registry{importers: make(map[content.SourceKind]Importer, len(importers))}
	for _, imp := range importers {
		r.importers[imp.Kind()] = imp
	}
	return r
}

func (r *Registry) Get(kind content.SourceKind) (Importer, error) {
	imp, ok := r.importers[kind]
	if !ok {
		return nil, fmt.Errorf("no importer registered for source kind %q", kind)
	}
	return imp, nil
}
