package domain

// ParseMethod names the strategy that produced a parse result.
type ParseMethod string

const (
	ParseJSONExtraction ParseMethod = "json_extraction"
	ParseMarkdown       ParseMethod = "markdown_parsing"
	ParseStructuredText ParseMethod = "structured_text"
	ParseReconstruction ParseMethod = "fallback_reconstruction"
)

type ValidationIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type ParseMetadata struct {
	ParseMethod      ParseMethod `json:"parse_method"`
	ProcessingTimeMs int64       `json:"processing_time_ms"`
	OriginalLength   int         `json:"original_length"`
	ExtractedLength  int         `json:"extracted_length"`
	Confidence       float64     `json:"confidence"`
}

// ParseResult is the immutable outcome of one parse call. When Success is
// true, callers still gate unattended use on Metadata.Confidence: a
// reconstructed result reports Success with confidence capped at 0.3.
type ParseResult struct {
	Success  bool              `json:"success"`
	Data     *Itinerary        `json:"data,omitempty"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
	Metadata ParseMetadata     `json:"metadata"`
}
