package parsing

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/citations"
)

//go:embed itinerary_schema.json
var itinerarySchemaJSON []byte

const reconstructionConfidence = 0.3

// strategyOrder maps a detected response format to the extraction
// strategies worth trying, most promising first.
var strategyOrder = map[responseFormat][]domain.ParseMethod{
	formatPureJSON:     {domain.ParseJSONExtraction},
	formatJSONInText:   {domain.ParseJSONExtraction, domain.ParseMarkdown, domain.ParseStructuredText},
	formatMarkdown:     {domain.ParseMarkdown, domain.ParseJSONExtraction, domain.ParseStructuredText},
	formatStructured:   {domain.ParseStructuredText, domain.ParseJSONExtraction, domain.ParseMarkdown},
	formatUnstructured: {domain.ParseJSONExtraction, domain.ParseStructuredText, domain.ParseMarkdown},
}

// Parser turns raw model output into a validated Itinerary. It never
// panics on untrusted text: every call ends in a schema-valid result, a
// low-confidence reconstruction, or a result with a non-empty error list.
type Parser struct {
	schema    *openapi3.Schema
	citations *citations.Manager
	clock     func() time.Time
	newID     func() string
}

func NewParser(citationManager *citations.Manager) (*Parser, error) {
	if citationManager == nil {
		return nil, fmt.Errorf("new parser: citation manager is required")
	}
	schema := &openapi3.Schema{}
	if err := schema.UnmarshalJSON(itinerarySchemaJSON); err != nil {
		return nil, fmt.Errorf("parse itinerary schema: %w", err)
	}
	return &Parser{
		schema:    schema,
		citations: citationManager,
		clock:     time.Now,
		newID:     uuid.NewString,
	}, nil
}

type candidate struct {
	payload itineraryPayload
	raw     []byte
}

// Parse runs format detection, the ordered extraction strategies for that
// format, and finally best-effort reconstruction. Each candidate is schema
// validated before acceptance; soft checks (date formats, totalDays
// agreement) become warnings that lower the confidence score.
func (p *Parser) Parse(content string, rawCitations, relatedQuestions []string) domain.ParseResult {
	start := p.clock()
	format := detectFormat(content)

	var firstErrors []domain.ValidationIssue
	for _, method := range strategyOrder[format] {
		for _, cand := range p.candidates(method, content) {
			issues := p.validateCandidate(cand.raw)
			if len(issues) > 0 {
				if firstErrors == nil {
					firstErrors = issues
				}
				continue
			}
			warnings := consistencyWarnings(cand.payload)
			confidence := scoreConfidence(cand.payload, true, len(warnings))
			return p.accepted(cand, method, confidence, warnings, content, start, rawCitations, relatedQuestions)
		}
	}

	if payload, ok := reconstruct(content); ok {
		raw, _ := json.Marshal(payload)
		warnings := append(consistencyWarnings(payload), domain.ValidationIssue{
			Message: "response could not be parsed; itinerary reconstructed from free text and should not be trusted without review",
		})
		return p.accepted(candidate{payload: payload, raw: raw},
			domain.ParseReconstruction, reconstructionConfidence, warnings,
			content, start, rawCitations, relatedQuestions)
	}

	errs := firstErrors
	if len(errs) == 0 {
		errs = []domain.ValidationIssue{{Message: "no itinerary content could be extracted from the response"}}
	}
	return domain.ParseResult{
		Success: false,
		Errors:  errs,
		Metadata: domain.ParseMetadata{
			ProcessingTimeMs: p.clock().Sub(start).Milliseconds(),
			OriginalLength:   len(content),
		},
	}
}

func (p *Parser) candidates(method domain.ParseMethod, content string) []candidate {
	switch method {
	case domain.ParseJSONExtraction:
		var out []candidate
		for _, raw := range extractJSONCandidates(content) {
			var payload itineraryPayload
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				continue
			}
			out = append(out, candidate{payload: payload, raw: []byte(raw)})
		}
		return out
	case domain.ParseMarkdown:
		payload, ok := parseMarkdown(content)
		if !ok {
			return nil
		}
		return []candidate{marshalCandidate(payload)}
	case domain.ParseStructuredText:
		payload, ok := parseStructuredText(content)
		if !ok {
			return nil
		}
		return []candidate{marshalCandidate(payload)}
	default:
		return nil
	}
}

func marshalCandidate(payload itineraryPayload) candidate {
	for i := range payload.Days {
		if payload.Days[i].Activities == nil {
			payload.Days[i].Activities = []activityPayload{}
		}
	}
	raw, _ := json.Marshal(payload)
	return candidate{payload: payload, raw: raw}
}

func (p *Parser) validateCandidate(raw []byte) []domain.ValidationIssue {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return []domain.ValidationIssue{{Message: fmt.Sprintf("candidate is not valid JSON: %v", err)}}
	}
	return schemaIssues(p.schema.VisitJSON(value, openapi3.MultiErrors()))
}

func (p *Parser) accepted(cand candidate, method domain.ParseMethod, confidence float64,
	warnings []domain.ValidationIssue, content string, start time.Time,
	rawCitations, relatedQuestions []string) domain.ParseResult {

	itinerary := cand.payload.toDomain()
	itinerary.ID = p.newID()
	itinerary.Metadata = domain.ItineraryMetadata{
		GeneratedAt:      p.clock().UTC(),
		Citations:        rawCitations,
		RelatedQuestions: relatedQuestions,
		CitationData:     p.citations.Process(rawCitations),
	}

	return domain.ParseResult{
		Success:  true,
		Data:     itinerary,
		Warnings: warnings,
		Metadata: domain.ParseMetadata{
			ParseMethod:      method,
			ProcessingTimeMs: p.clock().Sub(start).Milliseconds(),
			OriginalLength:   len(content),
			ExtractedLength:  len(cand.raw),
			Confidence:       confidence,
		},
	}
}
