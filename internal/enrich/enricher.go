package enrich

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"doklado/internal/domain"
	"doklado/internal/port"
)

// sourceARES tags fields filled from the business register.
const sourceARES = "enrichment:ares"

// Enricher fills missing party fields from the business register. The cache
// is the only state shared across jobs; singleflight coalesces concurrent
// lookups for the same identifier so one registry call serves them all.
type Enricher struct {
	client port.RegistryClient
	cache  *lru.Cache[string, port.RegistryEntity]
	group  singleflight.Group
}

// NewEnricher creates an enricher with a bounded LRU cache.
func NewEnricher(client port.RegistryClient, cacheSize int) (*Enricher, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, port.RegistryEntity](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating enrichment cache: %w", err)
	}
	return &Enricher{client: client, cache: cache}, nil
}

// Enrich looks up every party that carries a registry id but lacks name,
// tax id or address, and fills only the missing fields. Lookups for multiple
// parties run concurrently; a failed lookup degrades that party only and is
// recorded in the result notes.
func (e *Enricher) Enrich(ctx context.Context, record *domain.StructuredRecord) *domain.EnrichmentResult {
	result := &domain.EnrichmentResult{}

	type target struct {
		prefix string
		party  *domain.Party
	}
	targets := []target{
		{"vendor", &record.Vendor},
		{"customer", &record.Customer},
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		if t.party.RegistryID == nil || !needsEnrichment(t.party) {
			continue
		}
		prefix, party := t.prefix, t.party
		id := *party.RegistryID
		g.Go(func() error {
			entity, err := e.lookup(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				note := fmt.Sprintf("%s lookup for %s failed: %s", prefix, id, lookupFailureReason(err))
				result.SourceNotes = append(result.SourceNotes, note)
				log.Printf("enrich.Enricher: %s", note)
				return nil
			}
			added := mergeParty(record, prefix, party, entity)
			if len(added) > 0 {
				result.Enriched = true
				result.FieldsAdded = append(result.FieldsAdded, added...)
				result.SourceNotes = append(result.SourceNotes,
					fmt.Sprintf("%s fields filled from ARES record %s", prefix, id))
			}
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func needsEnrichment(p *domain.Party) bool {
	return p.Name == nil || p.TaxID == nil || p.Address == nil
}

// lookup serves from the cache, coalescing concurrent misses per identifier.
// Only successful lookups are cached; failures stay retryable.
func (e *Enricher) lookup(ctx context.Context, registryID string) (*port.RegistryEntity, error) {
	if entity, ok := e.cache.Get(registryID); ok {
		return &entity, nil
	}

	v, err, _ := e.group.Do(registryID, func() (interface{}, error) {
		if entity, ok := e.cache.Get(registryID); ok {
			return &entity, nil
		}
		entity, err := e.client.Lookup(ctx, registryID)
		if err != nil {
			return nil, err
		}
		e.cache.Add(registryID, *entity)
		return entity, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*port.RegistryEntity), nil
}

// mergeParty fills only absent fields and tags them as enrichment-sourced.
// The registry id itself is never overwritten.
func mergeParty(record *domain.StructuredRecord, prefix string, party *domain.Party, entity *port.RegistryEntity) []string {
	var added []string

	if party.Name == nil && entity.Name != "" {
		name := entity.Name
		party.Name = &name
		path := prefix + ".name"
		record.SetProvenance(path, sourceARES)
		added = append(added, path)
	}
	if party.TaxID == nil && entity.TaxID != "" {
		taxID := entity.TaxID
		party.TaxID = &taxID
		path := prefix + ".tax_id"
		record.SetProvenance(path, sourceARES)
		added = append(added, path)
	}
	if party.Address == nil && entity.Address != "" {
		address := entity.Address
		party.Address = &address
		path := prefix + ".address"
		record.SetProvenance(path, sourceARES)
		added = append(added, path)
	}

	return added
}

func lookupFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrRegistryNotFound):
		return "not found in register"
	case errors.Is(err, domain.ErrRegistryUnavailable):
		return "register unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "lookup timed out"
	default:
		return err.Error()
	}
}
