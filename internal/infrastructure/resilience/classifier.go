package resilience

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type ErrorKind string

const (
	KindNetwork            ErrorKind = "network_error"
	KindAPI                ErrorKind = "api_error"
	KindRateLimit          ErrorKind = "rate_limit"
	KindAuthentication     ErrorKind = "authentication"
	KindParsing            ErrorKind = "parsing_error"
	KindValidation         ErrorKind = "validation_error"
	KindTimeout            ErrorKind = "timeout"
	KindQuotaExceeded      ErrorKind = "quota_exceeded"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindUnknown            ErrorKind = "unknown"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// HTTPContext carries the optional HTTP details of a failed call.
type HTTPContext struct {
	StatusCode int
	Endpoint   string
}

// ClassifiedError is a normalized failure description. Classify never fails
// and never performs I/O; the zero RetryAfter means no hint was present.
type ClassifiedError struct {
	Kind            ErrorKind     `json:"kind"`
	Severity        Severity      `json:"severity"`
	Message         string        `json:"message"`
	Retryable       bool          `json:"retryable"`
	SuggestedAction string        `json:"suggested_action"`
	StatusCode      int           `json:"status_code,omitempty"`
	RetryAfter      time.Duration `json:"retry_after,omitempty"`
	Endpoint        string        `json:"endpoint,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}

// ClassifyFunc adapts component-specific error types into a classification.
type ClassifyFunc func(err error) ClassifiedError

//go:embed rules.yaml
var defaultRules []byte

type ruleEntry struct {
	Statuses    []int     `yaml:"statuses"`
	StatusRange []int     `yaml:"status_range"`
	Contains    []string  `yaml:"contains"`
	Kind        ErrorKind `yaml:"kind"`
	Severity    Severity  `yaml:"severity"`
	Retryable   bool      `yaml:"retryable"`
	Action      string    `yaml:"action"`
}

type ruleTable struct {
	Version      int         `yaml:"version"`
	StatusRules  []ruleEntry `yaml:"status_rules"`
	MessageRules []ruleEntry `yaml:"message_rules"`
}

// Classifier maps raw errors plus optional HTTP context into typed
// classifications using a versioned rule table.
type Classifier struct {
	table ruleTable
}

func NewClassifier() *Classifier {
	c, err := NewClassifierFromRules(defaultRules)
	if err != nil {
		// The embedded table is validated by tests; reaching this means a
		// build is broken, not a runtime condition a caller can handle.
		panic(fmt.Sprintf("resilience: embedded rule table invalid: %v", err))
	}
	return c
}

func NewClassifierFromRules(raw []byte) (*Classifier, error) {
	var table ruleTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse rule table: %w", err)
	}
	if len(table.StatusRules) == 0 && len(table.MessageRules) == 0 {
		return nil, fmt.Errorf("rule table has no rules")
	}
	return &Classifier{table: table}, nil
}

// NewClassifierFromFile loads an operator-supplied rule table override.
func NewClassifierFromFile(path string) (*Classifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule table: %w", err)
	}
	return NewClassifierFromRules(raw)
}

var retryAfterPattern = regexp.MustCompile(`(?i)retry[-_ ]?after[:=\s]+(\d+)`)

// Classify resolves err against the rule table. Status rules are consulted
// first when httpCtx carries a status code, then message substring rules,
// then the unknown fallback. The result is always a usable value.
func (c *Classifier) Classify(err error, httpCtx *HTTPContext) ClassifiedError {
	out := ClassifiedError{
		Kind:            KindUnknown,
		Severity:        SeverityMedium,
		Retryable:       false,
		SuggestedAction: "An unrecognized error occurred. Inspect the message and report it if it persists.",
		Timestamp:       time.Now().UTC(),
	}
	if err != nil {
		out.Message = err.Error()
	}
	if httpCtx != nil {
		out.StatusCode = httpCtx.StatusCode
		out.Endpoint = httpCtx.Endpoint
	}

	if out.StatusCode != 0 {
		if rule, ok := matchStatus(c.table.StatusRules, out.StatusCode); ok {
			applyRule(&out, rule)
			if out.Kind == KindRateLimit {
				out.RetryAfter = extractRetryAfter(out.Message)
			}
			return out
		}
	}

	lower := strings.ToLower(out.Message)
	for _, rule := range c.table.MessageRules {
		for _, needle := range rule.Contains {
			if strings.Contains(lower, needle) {
				applyRule(&out, rule)
				return out
			}
		}
	}

	return out
}

func matchStatus(rules []ruleEntry, status int) (ruleEntry, bool) {
	for _, rule := range rules {
		for _, s := range rule.Statuses {
			if s == status {
				return rule, true
			}
		}
		if len(rule.StatusRange) == 2 && status >= rule.StatusRange[0] && status <= rule.StatusRange[1] {
			return rule, true
		}
	}
	return ruleEntry{}, false
}

func applyRule(out *ClassifiedError, rule ruleEntry) {
	out.Kind = rule.Kind
	out.Retryable = rule.Retryable
	if rule.Severity != "" {
		out.Severity = rule.Severity
	}
	if rule.Action != "" {
		out.SuggestedAction = rule.Action
	}
}

func extractRetryAfter(message string) time.Duration {
	match := retryAfterPattern.FindStringSubmatch(message)
	if len(match) != 2 {
		return 0
	}
	seconds, err := strconv.Atoi(match[1])
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
