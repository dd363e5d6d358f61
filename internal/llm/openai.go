package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const providerOpenAI = "openai"

// ErrModelNotFound is returned by Check when the backend does not serve the
// configured model.
var ErrModelNotFound = errors.New("model not available")

// OpenAIClient talks to any OpenAI-compatible chat completion API, including
// ollama's /v1 endpoint.
//
// Requests are attempted once. A failed question is answered with a fallback
// reply instead of being retried.
type OpenAIClient struct {
	client  openai.Client
	baseURL string
}

// NewOpenAIClient creates a client for the API at baseURL.
// timeout bounds each HTTP request.
func NewOpenAIClient(baseURL, apiKey string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(0),
			option.WithRequestTimeout(timeout),
		),
		baseURL: baseURL,
	}
}

// BaseURL returns the configured API base URL.
func (c *OpenAIClient) BaseURL() string {
	return c.baseURL
}

// Complete sends req as a system message plus a single user message and
// returns the first choice's text.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
		Model: openai.ChatModel(req.Model),
	}
	if req.Seed != 0 {
		params.Seed = openai.Int(req.Seed)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", c.classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// Check verifies that the backend is reachable and serves model.
func (c *OpenAIClient) Check(ctx context.Context, model string) error {
	_, err := c.client.Models.Get(ctx, model)
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}
	return c.classifyError(err)
}

func (c *OpenAIClient) classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &BackendError{
			Provider:   providerOpenAI,
			StatusCode: apiErr.StatusCode,
			Message:    msg,
		}
	}

	if classified := classifyTransportError(err); classified != nil {
		if errors.Is(classified, ErrUnreachable) {
			return fmt.Errorf("%w at %s", classified, c.baseURL)
		}
		return classified
	}

	return fmt.Errorf("%s request failed: %w", providerOpenAI, err)
}
