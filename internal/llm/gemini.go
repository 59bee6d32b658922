package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"kitchen-assistant/internal/config"
	"kitchen-assistant/internal/shared"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const apiKeyHeader = "x-goog-api-key"

// geminiClient is a client for the Google Gemini API backed by the official SDK.
type geminiClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

// apiKeyTransport authenticates every request with the API key header.
// The key never goes into the URL, so transport errors cannot leak it.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(apiKeyHeader, t.key)
	return t.base.RoundTrip(req)
}

// NewGeminiClient creates a new Gemini API client using the SDK.
// WithHTTPClient swaps the underlying transport; WithBaseURL is ignored.
func NewGeminiClient(ctx context.Context, cfg *config.Config, opts ...Option) (Client, error) {
	o := applyOptions("", opts)
	base := o.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient := &http.Client{
		Timeout:   o.httpClient.Timeout,
		Transport: &apiKeyTransport{key: cfg.GeminiAPIKey, base: base},
	}

	// The API key option stays for the SDK's gRPC cache client, which
	// never uses the HTTP client.
	client, err := genai.NewClient(ctx,
		option.WithAPIKey(cfg.GeminiAPIKey),
		option.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.GeminiModel)
	model.SetTemperature(cfg.Generation.Temperature)
	model.SetTopK(cfg.Generation.TopK)
	model.SetTopP(cfg.Generation.TopP)
	model.SetMaxOutputTokens(cfg.Generation.MaxOutputTokens)

	return &geminiClient{client: client, model: model, modelName: cfg.GeminiModel}, nil
}

// GenerateContent sends a prompt to the Gemini model and returns the generated text.
func (c *geminiClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			body := gerr.Message
			if body == "" {
				body = gerr.Body
			}
			return ContentResponse{}, ClassifyStatus("Gemini", gerr.Code, body)
		}
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return ContentResponse{}, fmt.Errorf("%w: %v", ErrNoCandidates, blocked)
		}
		return ContentResponse{}, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return ContentResponse{}, ErrNoCandidates
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return ContentResponse{}, ErrEmptyResponse
	}

	text, ok := cand.Content.Parts[0].(genai.Text)
	if !ok || text == "" {
		return ContentResponse{}, ErrEmptyResponse
	}

	usage := shared.TokenUsage{Model: c.modelName}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return ContentResponse{Content: string(text), Usage: usage}, nil
}

// Close closes the underlying Gemini client.
func (c *geminiClient) Close() error {
	return c.client.Close()
}
