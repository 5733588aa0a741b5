package openai

import (
	"context"
	"net/http"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkg/errors"

	pkgLogger "github.com/fpt/gptchat/pkg/logger"
)

// DefaultTimeout bounds a single chat-completion round trip
const DefaultTimeout = 60 * time.Second

var (
	ErrAPI            = errors.New("chat completion API error")
	ErrMissingAPIKey  = errors.New("API key is required")
	ErrMissingChatURL = errors.New("chat URL is required for azure deployments")
)

var logger = pkgLogger.NewComponentLogger("openai-transport")

// Transport submits one chat-completion request and returns the decoded reply
type Transport interface {
	Send(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

var _ Transport = (*Client)(nil)

// Config describes one endpoint. Each Client owns its HTTP configuration;
// nothing is shared between clients.
type Config struct {
	Deployment Deployment
	APIKey     string
	// BaseURL overrides https://api.openai.com/v1/ for direct deployments
	BaseURL string
	// ChatURL is the full chat completions URL of an azure deployment,
	// including the api-version query parameter
	ChatURL string
	// Timeout per request; zero means DefaultTimeout
	Timeout time.Duration
	// HTTPClient replaces http.DefaultClient when set
	HTTPClient *http.Client
}

// Client sends chat-completion requests. It uses the openai-go SDK as a JSON
// transport so the request body is exactly the ChatRequest wire form.
type Client struct {
	client     *openai.Client
	deployment Deployment
	path       string
}

// NewClient validates cfg and builds a client. Retries are disabled: a failed
// round trip is reported to the caller, who decides whether to resubmit.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	var path string
	switch cfg.Deployment {
	case DeploymentDirect:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		opts = append(opts,
			option.WithBaseURL(baseURL),
			option.WithAPIKey(cfg.APIKey),
		)
		path = chatPath
	case DeploymentAzure:
		if cfg.ChatURL == "" {
			return nil, ErrMissingChatURL
		}
		// The SDK may have picked up OPENAI_API_KEY as a bearer token; azure only takes api-key.
		opts = append(opts,
			option.WithHeaderDel(authHeader),
			option.WithHeader(azureKeyHeader, cfg.APIKey),
		)
		path = cfg.ChatURL
	default:
		return nil, errors.Wrapf(ErrUnknownDeployment, "%d", int(cfg.Deployment))
	}

	client := openai.NewClient(opts...)

	return &Client{
		client:     &client,
		deployment: cfg.Deployment,
		path:       path,
	}, nil
}

func (c *Client) Deployment() Deployment { return c.deployment }

// Send posts the request and decodes the reply. It fails on transport errors,
// non-2xx statuses, undecodable bodies, and bodies carrying an error object;
// a failed call never returns a partial response.
func (c *Client) Send(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req == nil {
		return nil, errors.New("chat request is nil")
	}

	logger.DebugWithIntention(pkgLogger.IntentionRequest, "Sending chat completion request",
		"deployment", c.deployment.String(),
		"model", req.Model,
		"messages", len(req.Messages),
		"functions", len(req.Functions))

	var resp ChatResponse
	if err := c.client.Post(ctx, c.path, req, &resp); err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, errors.Wrapf(err, "chat completion failed with status %d", apiErr.StatusCode)
		}
		return nil, errors.Wrap(err, "chat completion request failed")
	}

	if resp.Error != nil {
		return nil, errors.Wrapf(ErrAPI, "%s: %s", resp.Error.Type, resp.Error.Message)
	}

	logger.DebugWithIntention(pkgLogger.IntentionStatistics, "Received chat completion",
		"id", resp.ID,
		"choices", len(resp.Choices),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return &resp, nil
}
