package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const providerGemini = "gemini"

// GeminiClient talks to the Google Gemini API.
// Gemini has no sampling seed, so Request.Seed is ignored.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini client. An empty endpoint keeps the
// library default.
func NewGeminiClient(ctx context.Context, apiKey, endpoint string) (*GeminiClient, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Complete sends req.System as the system instruction and req.Prompt as the
// only user turn.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	model := c.client.GenerativeModel(req.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.System)},
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// Check verifies that the API is reachable and model exists.
func (c *GeminiClient) Check(ctx context.Context, model string) error {
	_, err := c.client.GenerativeModel(model).Info(ctx)
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 404 {
		return fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}
	return classifyGeminiError(err)
}

// Close releases the underlying connections.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// responseText joins the text parts of every candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
	}
	return b.String()
}

func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &BackendError{
			Provider:   providerGemini,
			StatusCode: apiErr.Code,
			Message:    apiErr.Message,
		}
	}

	// Safety filters rejected the prompt or the candidate.
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &BackendError{
			Provider: providerGemini,
			Message:  blocked.Error(),
		}
	}

	if classified := classifyTransportError(err); classified != nil {
		return classified
	}

	return fmt.Errorf("%s request failed: %w", providerGemini, err)
}
