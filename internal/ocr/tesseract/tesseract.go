package tesseract

import (
	"context"
	"fmt"
	"time"

	"github.com/otiai10/gosseract/v2"

	"doklado/internal/domain"
	"doklado/internal/ocr"
)

const providerID = "tesseract"

// Adapter runs the local Tesseract engine via gosseract. Tesseract only
// understands raster images; PDF pages must be rasterized by the upload
// collaborator before they reach the pipeline.
type Adapter struct {
	languages string
}

// NewAdapter creates a local Tesseract adapter. languages is a Tesseract
// language spec such as "ces+eng".
func NewAdapter(languages string) *Adapter {
	if languages == "" {
		languages = "ces+eng"
	}
	return &Adapter{languages: languages}
}

func (a *Adapter) ProviderID() string { return providerID }

func (a *Adapter) Recognize(ctx context.Context, fileBytes []byte, contentType string) (*domain.OCRResult, error) {
	if contentType == "application/pdf" {
		return nil, ocr.NewProviderError(providerID, fmt.Errorf("pdf input not supported, expected rasterized image"))
	}

	type engineOut struct {
		text       string
		confidence float64
		err        error
	}

	start := time.Now()
	done := make(chan engineOut, 1)

	// gosseract calls block in cgo with no cancellation hook; run them on a
	// goroutine and abandon the result if the deadline fires first.
	go func() {
		client := gosseract.NewClient()
		defer client.Close()

		if err := client.SetLanguage(a.languages); err != nil {
			done <- engineOut{err: fmt.Errorf("setting language %q: %w", a.languages, err)}
			return
		}
		if err := client.SetImageFromBytes(fileBytes); err != nil {
			done <- engineOut{err: fmt.Errorf("loading image: %w", err)}
			return
		}

		text, err := client.Text()
		if err != nil {
			done <- engineOut{err: fmt.Errorf("running recognition: %w", err)}
			return
		}

		done <- engineOut{text: text, confidence: wordConfidence(client)}
	}()

	select {
	case <-ctx.Done():
		return nil, ocr.NewProviderError(providerID, ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, ocr.NewProviderError(providerID, out.err)
		}
		return &domain.OCRResult{
			ProviderID:     providerID,
			Text:           out.text,
			Confidence:     out.confidence,
			ProcessingTime: time.Since(start),
			QualityScore:   ocr.QualityScore(out.text),
			Preview:        ocr.BuildPreview(out.text),
		}, nil
	}
}

// wordConfidence averages Tesseract's per-word confidences into [0,1].
// Falls back to a neutral 0.5 when bounding boxes are unavailable.
func wordConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0.5
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes)) / 100.0
}
