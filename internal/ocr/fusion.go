package ocr

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"doklado/internal/domain"
	"doklado/internal/port"
)

// Scoring weights. The weighted sum over all components is 1.0; results are
// ranked by this score before selection or merging.
const (
	weightProviderConfidence = 0.30
	weightTextQuality        = 0.25
	weightReliability        = 0.20
	weightCompleteness       = 0.10
	weightStructuredFields   = 0.10
	weightLanguageBonus      = 0.05
)

const (
	// similarityThreshold is the maximum score gap for which the top two
	// results are considered merge candidates.
	similarityThreshold = 0.05
	// tokenAgreementFloor is the minimum token agreement for a merge.
	tokenAgreementFloor = 0.50
	// agreementBonus boosts consensus confidence when two providers agree.
	agreementBonus = 0.08
	// consensusCeiling caps the boosted confidence; independent engines
	// agreeing is strong evidence, not proof.
	consensusCeiling = 0.98
)

// Fusion runs all configured recognition adapters concurrently and reconciles
// their outputs into one consensus result.
type Fusion struct {
	adapters    []port.Recognizer
	reliability map[string]float64
	timeout     time.Duration
}

// NewFusion creates a fusion engine over the given adapters. reliability maps
// provider IDs to their historical success rate in [0,1]; unknown providers
// default to 0.5.
func NewFusion(adapters []port.Recognizer, reliability map[string]float64, timeout time.Duration) *Fusion {
	return &Fusion{
		adapters:    adapters,
		reliability: reliability,
		timeout:     timeout,
	}
}

// Run fans out to every adapter under a shared deadline and fuses whatever
// came back. If every adapter fails or times out, the outcome has empty text
// and zero confidence; downstream treats that as "no extraction possible".
func (f *Fusion) Run(ctx context.Context, fileBytes []byte, contentType string) *domain.FusionOutcome {
	if len(f.adapters) == 0 {
		return &domain.FusionOutcome{FusionNotes: []string{"no OCR adapters configured"}}
	}

	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	type adapterResult struct {
		result *domain.OCRResult
		err    error
		id     string
	}

	var wg sync.WaitGroup
	results := make(chan adapterResult, len(f.adapters))
	for _, a := range f.adapters {
		wg.Add(1)
		go func(a port.Recognizer) {
			defer wg.Done()
			start := time.Now()
			res, err := a.Recognize(runCtx, fileBytes, contentType)
			if err != nil {
				log.Printf("ocr.Fusion: %s failed after %s: %v", a.ProviderID(), time.Since(start), err)
			}
			results <- adapterResult{result: res, err: err, id: a.ProviderID()}
		}(a)
	}
	wg.Wait()
	close(results)

	var (
		ok    []domain.OCRResult
		notes []string
	)
	for r := range results {
		if r.err != nil || r.result == nil {
			notes = append(notes, fmt.Sprintf("provider %s unavailable", r.id))
			continue
		}
		ok = append(ok, *r.result)
	}
	sort.Strings(notes)

	if len(ok) == 0 {
		notes = append(notes, "all OCR providers failed or timed out")
		return &domain.FusionOutcome{FusionNotes: notes}
	}

	return f.fuse(ok, notes)
}

// Fuse reconciles an already-collected result set. Split out from Run so the
// selection policy is testable without live adapters; it is a deterministic
// function of its input.
func (f *Fusion) Fuse(results []domain.OCRResult) *domain.FusionOutcome {
	if len(results) == 0 {
		return &domain.FusionOutcome{FusionNotes: []string{"all OCR providers failed or timed out"}}
	}
	return f.fuse(results, nil)
}

type scoredResult struct {
	domain.OCRResult
	score float64
}

func (f *Fusion) fuse(results []domain.OCRResult, notes []string) *domain.FusionOutcome {
	longest := 0
	for i := range results {
		if n := len(results[i].Text); n > longest {
			longest = n
		}
	}

	scored := make([]scoredResult, 0, len(results))
	for i := range results {
		scored = append(scored, scoredResult{
			OCRResult: results[i],
			score:     f.score(&results[i], longest),
		})
	}
	// Stable order: score descending, provider ID as tie-breaker, so the
	// outcome is a pure function of the input set.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].ProviderID < scored[j].ProviderID
	})

	top := scored[0]
	if len(scored) == 1 || top.score-scored[1].score > similarityThreshold {
		return &domain.FusionOutcome{
			Text:        top.Text,
			Confidence:  top.score,
			Providers:   []string{top.ProviderID},
			FusionNotes: append(notes, fmt.Sprintf("selected %s (score %.3f)", top.ProviderID, top.score)),
		}
	}

	second := scored[1]
	consensus, agreement := mergeTexts(top.Text, second.Text)
	if agreement < tokenAgreementFloor {
		return &domain.FusionOutcome{
			Text:       top.Text,
			Confidence: top.score,
			Providers:  []string{top.ProviderID},
			FusionNotes: append(notes, fmt.Sprintf(
				"selected %s (score %.3f, agreement with %s only %.2f)",
				top.ProviderID, top.score, second.ProviderID, agreement)),
		}
	}

	confidence := top.score + agreementBonus*agreement
	if confidence > consensusCeiling {
		confidence = consensusCeiling
	}
	return &domain.FusionOutcome{
		Text:       consensus,
		Confidence: confidence,
		Providers:  []string{top.ProviderID, second.ProviderID},
		FusionNotes: append(notes, fmt.Sprintf(
			"merged %s+%s (agreement %.2f)", top.ProviderID, second.ProviderID, agreement)),
	}
}

func (f *Fusion) score(r *domain.OCRResult, longest int) float64 {
	completeness := 0.0
	if longest > 0 {
		completeness = float64(len(r.Text)) / float64(longest)
	}

	reliability, ok := f.reliability[r.ProviderID]
	if !ok {
		reliability = 0.5
	}

	structured := 0.0
	found := r.Preview.DatesFound + r.Preview.AmountsFound + r.Preview.IdentifiersFound
	if found >= 4 {
		structured = 1.0
	} else {
		structured = float64(found) / 4.0
	}

	language := 0.0
	if LanguageConsistent(r.Text) {
		language = 1.0
	}

	return r.Confidence*weightProviderConfidence +
		r.QualityScore*weightTextQuality +
		reliability*weightReliability +
		completeness*weightCompleteness +
		structured*weightStructuredFields +
		language*weightLanguageBonus
}

// mergeTexts builds a consensus string from two near-equal results and
// returns the token agreement ratio. Tokens from the higher-scoring text win
// on disagreement, except where the winner's token is recognition noise and
// the runner-up's is clean. Line structure of the winner is preserved; when
// the two texts disagree on line count no merge is attempted.
func mergeTexts(primary, secondary string) (string, float64) {
	pLines := strings.Split(primary, "\n")
	sLines := strings.Split(secondary, "\n")

	var match, total int
	merged := make([]string, len(pLines))
	sameShape := len(pLines) == len(sLines)

	for i, pLine := range pLines {
		if !sameShape {
			merged[i] = pLine
			continue
		}
		pToks := strings.Fields(pLine)
		sToks := strings.Fields(sLines[i])
		out := make([]string, len(pToks))
		for j, pt := range pToks {
			total++
			if j < len(sToks) && pt == sToks[j] {
				match++
				out[j] = pt
				continue
			}
			if j < len(sToks) && !cleanToken(pt) && cleanToken(sToks[j]) {
				out[j] = sToks[j]
				continue
			}
			out[j] = pt
		}
		merged[i] = strings.Join(out, " ")
	}

	if !sameShape {
		// Fall back to whole-text token agreement for the ratio.
		return primary, tokenAgreement(primary, secondary)
	}
	if total == 0 {
		return primary, 0
	}
	return strings.Join(merged, "\n"), float64(match) / float64(total)
}

func tokenAgreement(a, b string) float64 {
	aToks := strings.Fields(a)
	bToks := strings.Fields(b)
	n := len(aToks)
	if len(bToks) > n {
		n = len(bToks)
	}
	if n == 0 {
		return 0
	}
	match := 0
	for i := 0; i < len(aToks) && i < len(bToks); i++ {
		if aToks[i] == bToks[i] {
			match++
		}
	}
	return float64(match) / float64(n)
}
