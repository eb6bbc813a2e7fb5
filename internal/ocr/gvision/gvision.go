package gvision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"doklado/internal/config"
	"doklado/internal/domain"
	"doklado/internal/ocr"
)

const providerID = "gvision"

// Adapter calls the Google Cloud Vision images:annotate endpoint with
// DOCUMENT_TEXT_DETECTION.
type Adapter struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewAdapter creates a Google Vision adapter from provider config.
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

	reqBody := map[string]interface{}{
		"requests": []map[string]interface{}{
			{
				"image": map[string]string{
					"content": base64.StdEncoding.EncodeToString(fileBytes),
				},
				"features": []map[string]interface{}{
					{"type": "DOCUMENT_TEXT_DETECTION"},
				},
				"imageContext": map[string]interface{}{
					"languageHints": []string{"cs", "en"},
				},
			},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, ocr.NewProviderError(providerID, fmt.Errorf("marshaling request: %w", err))
	}

	url := a.endpoint + "?key=" + a.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, ocr.NewProviderError(providerID, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, ocr.NewProviderError(providerID, fmt.Errorf("calling vision API: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ocr.NewProviderError(providerID, fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ocr.NewProviderError(providerID,
			fmt.Errorf("vision API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 300)))
	}

	text, confidence, err := parseResponse(respBody)
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

// apiResponse models the subset of the annotate response the adapter reads.
type apiResponse struct {
	Responses []struct {
		FullTextAnnotation struct {
			Text  string `json:"text"`
			Pages []struct {
				Confidence float64 `json:"confidence"`
			} `json:"pages"`
		} `json:"fullTextAnnotation"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

func parseResponse(body []byte) (string, float64, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", 0, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", 0, fmt.Errorf("empty response from vision API")
	}
	r := resp.Responses[0]
	if r.Error != nil {
		return "", 0, fmt.Errorf("vision API: %s", r.Error.Message)
	}

	confidence := 0.5
	if pages := r.FullTextAnnotation.Pages; len(pages) > 0 {
		var sum float64
		for _, p := range pages {
			sum += p.Confidence
		}
		confidence = sum / float64(len(pages))
	}
	return r.FullTextAnnotation.Text, confidence, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
