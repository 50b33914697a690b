// Package sources defines the record provider contract used to load one
// parameter dump per configured unit, plus file-backed and in-memory
// providers.
//
// Providers only materialize records; they never compare or validate them.
// Callers must tolerate partial failure: a source that cannot be loaded
// yields a LoadError and the remaining sources are still processed.
//
// Example usage:
//
//	provider := sources.NewFileProvider()
//	ds, err := provider.Load(ctx, "dumps/unit-a.csv")
//	if err != nil {
//	    // errors.IsLoadError(err) == true
//	}
package sources

import (
	"context"
	"slices"
	"sync"

	"github.com/agentstation/motherdb/pkg/errors"
	"github.com/agentstation/motherdb/pkg/records"
)

// Provider loads the dataset for one source identifier.
type Provider interface {
	Load(ctx context.Context, sourceID string) (records.Dataset, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, sourceID string) (records.Dataset, error)

// Load implements Provider.
func (f ProviderFunc) Load(ctx context.Context, sourceID string) (records.Dataset, error) {
	return f(ctx, sourceID)
}

// MemoryProvider is a thread-safe in-memory provider keyed by source ID.
type MemoryProvider struct {
	mu       sync.RWMutex
	datasets map[string]records.Dataset
}

// NewMemoryProvider creates a provider pre-populated with datasets.
func NewMemoryProvider(datasets ...records.Dataset) *MemoryProvider {
	p := &MemoryProvider{datasets: make(map[string]records.Dataset, len(datasets))}
	for _, ds := range datasets {
		p.datasets[ds.SourceID] = ds
	}
	return p
}

// Set registers or replaces a dataset.
func (p *MemoryProvider) Set(ds records.Dataset) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.datasets[ds.SourceID] = ds
}

// Delete removes a dataset.
func (p *MemoryProvider) Delete(sourceID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.datasets, sourceID)
}

// IDs returns the registered source IDs, sorted.
func (p *MemoryProvider) IDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.datasets))
	for id := range p.datasets {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Load implements Provider.
func (p *MemoryProvider) Load(ctx context.Context, sourceID string) (records.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return records.Dataset{}, errors.WrapLoad(sourceID, err)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	ds, ok := p.datasets[sourceID]
	if !ok {
		return records.Dataset{}, errors.NewLoadError(sourceID, "unknown source", errors.NewNotFoundError("source", sourceID))
	}
	out := ds
	out.Records = slices.Clone(ds.Records)
	return out, nil
}
