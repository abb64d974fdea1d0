package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/reacthost/console/api/internal/core/domain"
)

var _ domain.TextGenerator = (*GeminiClient)(nil)

// GeminiClient calls the generateContent REST endpoint.
type GeminiClient struct {
	httpClient
	baseURL string
	apiKey  string
}

func NewGeminiClient(baseURL, apiKey string, opts ...Option) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid gemini base url: %w", err)
	}
	return &GeminiClient{
		httpClient: newHTTPClient(opts),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GenerateText returns the concatenated text parts of the first candidate.
// No candidates is not an error; the caller decides what empty means.
func (c *GeminiClient) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(model))

	header := http.Header{}
	header.Set("x-goog-api-key", c.apiKey)

	body := generateRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}

	var resp generateResponse
	if err := c.doJSON(ctx, http.MethodPost, endpoint, header, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}
