package azureread

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"doklado/internal/config"
	"doklado/internal/domain"
	"doklado/internal/ocr"
)

const providerID = "azure_read"

// Azure's Read API is asynchronous; the submit call returns an
// Operation-Location header that is polled until the analysis finishes.
const pollInterval = 500 * time.Millisecond

// Adapter calls the Azure AI Vision Read API.
type Adapter struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewAdapter creates an Azure Read adapter from provider config.
func NewAdapter(cfg *config.OCRProviderConfig) *Adapter {
	return &Adapter{
		apiKey:   cfg.APIKey,
		endpoint: cfg.Endpoint,
		client:   &http.Client{},
	}
}

func (a *Adapter) ProviderID() string { return providerID }

func (a *Adapter) Recognize(ctx context.Context, fileBytes []byte, contentType string) (*domain.OCRResult, error) {
	start := time.Now()

	operationURL, err := a.submit(ctx, fileBytes, contentType)
	if err != nil {
		return nil, ocr.NewProviderError(providerID, err)
	}

	text, confidence, err := a.poll(ctx, operationURL)
	if err != nil {
		return nil, ocr.NewProviderError(providerID, err)
	}

	return &domain.OCRResult{
		ProviderID:     providerID,
		Text:           text,
		Confidence:     confidence,
		ProcessingTime: time.Since(start),
		QualityScore:   ocr.QualityScore(text),
		Preview:        ocr.BuildPreview(text),
	}, nil
}

func (a *Adapter) submit(ctx context.Context, fileBytes []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(fileBytes))
	if err != nil {
		return "", fmt.Errorf("creating submit request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("submitting document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("read API submit error (status %d): %s", resp.StatusCode, truncate(string(body), 300))
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return "", fmt.Errorf("read API returned no Operation-Location header")
	}
	return operationURL, nil
}

// readResult models the subset of the analyze result the adapter reads.
type readResult struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		ReadResults []struct {
			Lines []struct {
				Text  string `json:"text"`
				Words []struct {
					Confidence float64 `json:"confidence"`
				} `json:"words"`
			} `json:"lines"`
		} `json:"readResults"`
	} `json:"analyzeResult"`
}

func (a *Adapter) poll(ctx context.Context, operationURL string) (string, float64, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", 0, ctx.Err()
		case <-ticker.C:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
		if err != nil {
			return "", 0, fmt.Errorf("creating poll request: %w", err)
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", a.apiKey)

		resp, err := a.client.Do(req)
		if err != nil {
			return "", 0, fmt.Errorf("polling operation: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return "", 0, fmt.Errorf("reading poll response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return "", 0, fmt.Errorf("read API poll error (status %d): %s", resp.StatusCode, truncate(string(body), 300))
		}

		var result readResult
		if err := json.Unmarshal(body, &result); err != nil {
			return "", 0, fmt.Errorf("unmarshaling poll response: %w", err)
		}

		switch result.Status {
		case "succeeded":
			text, confidence := collectText(&result)
			return text, confidence, nil
		case "failed":
			return "", 0, fmt.Errorf("read API analysis failed")
		}
	}
}

func collectText(result *readResult) (string, float64) {
	var (
		lines   []string
		confSum float64
		words   int
	)
	for _, page := range result.AnalyzeResult.ReadResults {
		for _, line := range page.Lines {
			lines = append(lines, line.Text)
			for _, w := range line.Words {
				confSum += w.Confidence
				words++
			}
		}
	}
	confidence := 0.5
	if words > 0 {
		confidence = confSum / float64(words)
	}
	return strings.Join(lines, "\n"), confidence
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
