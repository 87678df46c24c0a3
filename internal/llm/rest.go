package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// RESTClient implements Client by posting to the generateContent endpoint directly.
type RESTClient struct {
	httpClient *http.Client
	config     *Config
	apiKey     string
}

type restPart struct {
	Text string `json:"text"`
}

type restContent struct {
	Parts []restPart `json:"parts"`
}

type restRequest struct {
	Contents []restContent `json:"contents"`
}

// restResponse mirrors the success shape. Every level may be absent.
type restResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type restErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewRESTClient creates a REST client for the configured endpoint.
func NewRESTClient(config *Config, apiKey string) (*RESTClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config == nil {
		config = DefaultConfig()
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.RequestTimeout}
	}

	return &RESTClient{
		httpClient: httpClient,
		config:     config,
		apiKey:     apiKey,
	}, nil
}

// GenerateContent sends prompt as a single text part and returns the first candidate's text.
func (c *RESTClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	body, err := json.Marshal(restRequest{
		Contents: []restContent{{Parts: []restPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(modelName), bytes.NewReader(body))
	if err != nil {
		return "", &APIError{Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &APIError{Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APIError{Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		var errBody restErrorBody
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error.Message != "" {
			msg = errBody.Error.Message
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var parsed restResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &APIError{Message: "failed to parse response", Cause: err}
	}

	return extractRESTText(&parsed)
}

func extractRESTText(resp *restResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", &EmptyResponseError{Message: "no candidates in response"}
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", &EmptyResponseError{Message: "no content in response"}
	}
	text := content.Parts[0].Text
	if text == nil || *text == "" {
		return "", &EmptyResponseError{Message: "no text in response"}
	}
	return *text, nil
}

func (c *RESTClient) endpointURL(model string) string {
	base := strings.TrimRight(c.config.Endpoint, "/")
	if base == "" {
		base = DefaultEndpoint
	}
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		base, url.PathEscape(model), url.QueryEscape(c.apiKey))
}

// GetModel returns the model name for a tier
func (c *RESTClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the HTTP client holds no per-client resources.
func (c *RESTClient) Close() error {
	return nil
}
