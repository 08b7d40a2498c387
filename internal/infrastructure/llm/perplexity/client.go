package perplexity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
)

// Client talks to the Perplexity chat-completions API with online search
// enabled, which is what produces citations alongside the generated text.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func New(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model                  string        `json:"model"`
	Messages               []chatMessage `json:"messages"`
	MaxTokens              int           `json:"max_tokens"`
	Temperature            float64       `json:"temperature"`
	ReturnCitations        bool          `json:"return_citations"`
	SearchRecencyFilter    string        `json:"search_recency_filter,omitempty"`
	ReturnRelatedQuestions bool          `json:"return_related_questions"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations        []string          `json:"citations"`
	RelatedQuestions []string          `json:"related_questions"`
	Usage            domain.TokenUsage `json:"usage"`
}

// GenerateItinerary asks the model for a trip plan in the wire JSON shape
// the parser expects. The response content is returned untouched; parsing
// and validation are the parser's job.
func (c *Client) GenerateItinerary(ctx context.Context, req domain.PlanRequest) (*domain.GenerationResult, error) {
	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPlanPrompt(req)},
		},
		MaxTokens:              4000,
		Temperature:            0.2,
		ReturnCitations:        true,
		SearchRecencyFilter:    "month",
		ReturnRelatedQuestions: true,
	}

	var response chatResponse
	if err := c.postJSON(ctx, "/chat/completions", request, &response, "plan_itinerary"); err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("perplexity plan_itinerary: empty choices")
	}

	return &domain.GenerationResult{
		Content:          strings.TrimSpace(response.Choices[0].Message.Content),
		Citations:        response.Citations,
		RelatedQuestions: response.RelatedQuestions,
		Model:            response.Model,
		Usage:            response.Usage,
	}, nil
}
