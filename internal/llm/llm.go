package llm

import (
	"context"
	"net/http"
	"time"

	"kitchen-assistant/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// Client is a TextGenerator holding resources that must be released.
type Client interface {
	TextGenerator
	Closer
}

// Option customizes the HTTP side of a provider client.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the Groq client at another host, e.g. an httptest server.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient replaces the default 30 second timeout client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func applyOptions(defaultURL string, opts []Option) options {
	o := options{
		baseURL:    defaultURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
