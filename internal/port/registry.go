package port

import "context"

// RegistryEntity is a business-registry record for one identifier.
type RegistryEntity struct {
	RegistryID string
	Name       string
	TaxID      string
	Address    string
}

// RegistryClient looks up a business-registry identifier (IČO).
// Returns domain.ErrRegistryNotFound for unknown identifiers and
// domain.ErrRegistryUnavailable for transport failures.
type RegistryClient interface {
	Lookup(ctx context.Context, registryID string) (*RegistryEntity, error)
}
