package enrich_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"doklado/internal/domain"
	"doklado/internal/enrich"
	"doklado/internal/port"
	"doklado/mocks"
)

func aresEntity() *port.RegistryEntity {
	return &port.RegistryEntity{
		RegistryID: "27082440",
		Name:       "ABC s.r.o.",
		TaxID:      "CZ27082440",
		Address:    "Jankovcova 1522/53, 170 00 Praha 7",
	}
}

func TestEnrich_FillsMissingVendorFields(t *testing.T) {
	client := new(mocks.MockRegistryClient)
	client.On("Lookup", mock.Anything, "27082440").Return(aresEntity(), nil).Once()

	e, err := enrich.NewEnricher(client, 16)
	require.NoError(t, err)

	record := &domain.StructuredRecord{
		Vendor: domain.Party{RegistryID: domain.Str("27082440")},
	}
	result := e.Enrich(context.Background(), record)

	assert.True(t, result.Enriched)
	assert.ElementsMatch(t, []string{"vendor.name", "vendor.tax_id", "vendor.address"}, result.FieldsAdded)
	assert.Equal(t, "ABC s.r.o.", *record.Vendor.Name)
	assert.Equal(t, "CZ27082440", *record.Vendor.TaxID)
	assert.Equal(t, "enrichment:ares", record.Provenance["vendor.name"])
	client.AssertExpectations(t)
}

func TestEnrich_NeverOverwritesExtractedValues(t *testing.T) {
	client := new(mocks.MockRegistryClient)
	client.On("Lookup", mock.Anything, "27082440").Return(aresEntity(), nil)

	e, err := enrich.NewEnricher(client, 16)
	require.NoError(t, err)

	record := &domain.StructuredRecord{
		Vendor: domain.Party{
			RegistryID: domain.Str("27082440"),
			Name:       domain.Str("ABC from the page"),
		},
	}
	result := e.Enrich(context.Background(), record)

	assert.Equal(t, "ABC from the page", *record.Vendor.Name)
	assert.NotContains(t, result.FieldsAdded, "vendor.name")
	assert.Contains(t, result.FieldsAdded, "vendor.tax_id")
}

func TestEnrich_CachesSuccessfulLookups(t *testing.T) {
	client := new(mocks.MockRegistryClient)
	client.On("Lookup", mock.Anything, "27082440").Return(aresEntity(), nil).Once()

	e, err := enrich.NewEnricher(client, 16)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		record := &domain.StructuredRecord{
			Vendor: domain.Party{RegistryID: domain.Str("27082440")},
		}
		result := e.Enrich(context.Background(), record)
		assert.True(t, result.Enriched)
	}

	client.AssertExpectations(t)
	client.AssertNumberOfCalls(t, "Lookup", 1)
}

func TestEnrich_LookupFailureDegradesGracefully(t *testing.T) {
	client := new(mocks.MockRegistryClient)
	client.On("Lookup", mock.Anything, "12345678").
		Return(nil, domain.ErrRegistryUnavailable)

	e, err := enrich.NewEnricher(client, 16)
	require.NoError(t, err)

	record := &domain.StructuredRecord{
		Vendor: domain.Party{RegistryID: domain.Str("12345678")},
	}
	result := e.Enrich(context.Background(), record)

	assert.False(t, result.Enriched)
	require.Len(t, result.SourceNotes, 1)
	assert.Contains(t, result.SourceNotes[0], "register unavailable")
	assert.Nil(t, record.Vendor.Name)
}

func TestEnrich_FailuresAreNotCached(t *testing.T) {
	client := new(mocks.MockRegistryClient)
	client.On("Lookup", mock.Anything, "12345678").
		Return(nil, domain.ErrRegistryUnavailable).Once()
	client.On("Lookup", mock.Anything, "12345678").
		Return(aresEntity(), nil).Once()

	e, err := enrich.NewEnricher(client, 16)
	require.NoError(t, err)

	first := e.Enrich(context.Background(), &domain.StructuredRecord{
		Vendor: domain.Party{RegistryID: domain.Str("12345678")},
	})
	second := e.Enrich(context.Background(), &domain.StructuredRecord{
		Vendor: domain.Party{RegistryID: domain.Str("12345678")},
	})

	assert.False(t, first.Enriched)
	assert.True(t, second.Enriched)
	client.AssertExpectations(t)
}

func TestEnrich_SkipsPartiesWithoutRegistryID(t *testing.T) {
	client := new(mocks.MockRegistryClient)

	e, err := enrich.NewEnricher(client, 16)
	require.NoError(t, err)

	record := &domain.StructuredRecord{
		Vendor: domain.Party{Name: domain.Str("ABC s.r.o.")},
	}
	result := e.Enrich(context.Background(), record)

	assert.False(t, result.Enriched)
	assert.Empty(t, result.SourceNotes)
	client.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestEnrich_BothPartiesLookedUp(t *testing.T) {
	client := new(mocks.MockRegistryClient)
	client.On("Lookup", mock.Anything, "27082440").Return(aresEntity(), nil)
	client.On("Lookup", mock.Anything, "25596641").Return(&port.RegistryEntity{
		RegistryID: "25596641",
		Name:       "XYZ a.s.",
	}, nil)

	e, err := enrich.NewEnricher(client, 16)
	require.NoError(t, err)

	record := &domain.StructuredRecord{
		Vendor:   domain.Party{RegistryID: domain.Str("27082440")},
		Customer: domain.Party{RegistryID: domain.Str("25596641")},
	}
	result := e.Enrich(context.Background(), record)

	assert.True(t, result.Enriched)
	assert.Equal(t, "ABC s.r.o.", *record.Vendor.Name)
	assert.Equal(t, "XYZ a.s.", *record.Customer.Name)
	assert.Contains(t, result.FieldsAdded, "customer.name")
}
