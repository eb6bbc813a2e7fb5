package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"doklado/internal/domain"
)

// ErrUnrecoverable means no stage, including the deterministic text
// extractor, produced a single field.
var ErrUnrecoverable = errors.New("no structured data recoverable")

// Stage names, reported so the pipeline can note how hard recovery was.
const (
	StageStrict   = "strict"
	StageRepaired = "repaired"
	StageExtract  = "extracted"
	StageMinimal  = "minimal"
	StageRegex    = "regex_fallback"
)

// Parser recovers a structured record from unreliable model output. Stages
// are tried in order; each is a pure function of its input and the parser
// never panics on malformed input.
type Parser struct {
	schema *jsonschema.Schema
}

// NewParser compiles the record schema once for the process lifetime.
func NewParser() (*Parser, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("building parser: %w", err)
	}
	return &Parser{schema: schema}, nil
}

// Parse recovers a record from raw model output, falling back to the
// deterministic pattern extractor over the original OCR text when every
// model-output stage fails. Returns the record, the name of the stage that
// produced it, and an error only when nothing at all was recoverable.
func (p *Parser) Parse(rawOutput, ocrText string) (*domain.StructuredRecord, string, error) {
	if record, stage, ok := p.parseModelOutput(rawOutput); ok {
		return record, stage, nil
	}

	record := ExtractFromText(ocrText)
	if record.IsEmpty() {
		return nil, StageRegex, ErrUnrecoverable
	}
	return record, StageRegex, nil
}

func (p *Parser) parseModelOutput(rawOutput string) (*domain.StructuredRecord, string, bool) {
	if rawOutput == "" {
		return nil, "", false
	}

	stripped := stripFences(rawOutput)
	candidates := []struct {
		stage string
		data  string
	}{
		{StageStrict, stripped},
		{StageRepaired, repairJSON(stripped)},
		{StageExtract, extractLargestObject(rawOutput)},
		{StageMinimal, minimalScrape(rawOutput)},
	}

	for _, c := range candidates {
		if c.data == "" {
			continue
		}
		record, err := p.decode([]byte(c.data))
		if err != nil {
			log.Printf("parse.Parser: %s stage failed: %v", c.stage, err)
			continue
		}
		if record.IsEmpty() {
			continue
		}
		return record, c.stage, true
	}
	return nil, "", false
}

func (p *Parser) decode(data []byte) (*domain.StructuredRecord, error) {
	if err := validateAgainstSchema(p.schema, data); err != nil {
		return nil, err
	}
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return w.toDomain("llm"), nil
}
