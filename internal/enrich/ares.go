package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"doklado/internal/config"
	"doklado/internal/domain"
	"doklado/internal/port"
)

// ARESClient implements port.RegistryClient against the Czech ARES business
// register REST API.
type ARESClient struct {
	endpoint       string
	requestTimeout time.Duration
	maxAttempts    int
	client         *http.Client
}

// NewARESClient creates an ARES client from enrichment config.
func NewARESClient(cfg *config.EnrichConfig) *ARESClient {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &ARESClient{
		endpoint:       cfg.Endpoint,
		requestTimeout: cfg.RequestTimeout,
		maxAttempts:    maxAttempts,
		client:         &http.Client{},
	}
}

// aresSubject models the subset of the ARES economic-subject response used
// for enrichment.
type aresSubject struct {
	ICO           string `json:"ico"`
	ObchodniJmeno string `json:"obchodniJmeno"`
	DIC           string `json:"dic"`
	Sidlo         struct {
		TextovaAdresa string `json:"textovaAdresa"`
	} `json:"sidlo"`
}

// Lookup fetches one registry record with bounded exponential-backoff retry.
// Not-found is permanent and never retried; transport failures are retried
// up to the configured attempt count.
func (c *ARESClient) Lookup(ctx context.Context, registryID string) (*port.RegistryEntity, error) {
	var entity *port.RegistryEntity

	operation := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()

		e, err := c.fetch(reqCtx, registryID)
		if err != nil {
			return err
		}
		entity = e
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return entity, nil
}

func (c *ARESClient) fetch(ctx context.Context, registryID string) (*port.RegistryEntity, error) {
	url := fmt.Sprintf("%s/%s", c.endpoint, registryID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling registry: %w: %v", domain.ErrRegistryUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(fmt.Errorf("registry id %s: %w", registryID, domain.ErrRegistryNotFound))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("registry returned status %d: %w", resp.StatusCode, domain.ErrRegistryUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading registry response: %w", err)
	}

	var subject aresSubject
	if err := json.Unmarshal(body, &subject); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("unmarshaling registry response: %w", err))
	}

	return &port.RegistryEntity{
		RegistryID: subject.ICO,
		Name:       subject.ObchodniJmeno,
		TaxID:      subject.DIC,
		Address:    subject.Sidlo.TextovaAdresa,
	}, nil
}
