package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	applog "github.com/janisto/portfolio-generator/internal/platform/logging"
)

const defaultBaseURL = "https://api.vercel.com"

// VercelClient implements Deployer using the Vercel REST API.
type VercelClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures a VercelClient.
type Option func(*VercelClient)

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *VercelClient) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithToken sets the Bearer token.
func WithToken(token string) Option {
	return func(c *VercelClient) {
		c.token = token
	}
}

func NewVercelClient(httpClient *http.Client, opts ...Option) *VercelClient {
	c := &VercelClient{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type vercelGitSource struct {
	Type string `json:"type"`
	Repo string `json:"repo"`
	Ref  string `json:"ref"`
}

type vercelCreateDeployment struct {
	Name      string          `json:"name"`
	GitSource vercelGitSource `json:"gitSource"`
}

type vercelDeployment struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type vercelErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *VercelClient) Deploy(ctx context.Context, req Request) (*Deployment, error) {
	raw, err := json.Marshal(vercelCreateDeployment{
		Name:      req.Name,
		GitSource: vercelGitSource{Type: "github", Repo: req.Repo, Ref: req.Ref},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding deployment: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v13/deployments", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("creating deployment: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errorFromResponse(ctx, resp)
	}

	var out vercelDeployment
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding deployment: %w", err)
	}
	return &Deployment{ID: out.ID, URL: deploymentURL(out.URL)}, nil
}

// deploymentURL adds a scheme to the bare hostname Vercel returns.
func deploymentURL(host string) string {
	if host == "" || strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

func errorFromResponse(ctx context.Context, resp *http.Response) *Error {
	var body vercelErrorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	cause := ErrUpstream
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		cause = ErrUnauthorized
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		cause = ErrRejected
	}
	applog.LogWarn(ctx, "vercel deployment request failed",
		zap.Int("status", resp.StatusCode),
		zap.String("code", body.Error.Code),
	)
	return &Error{
		Status:  resp.StatusCode,
		Code:    body.Error.Code,
		Message: body.Error.Message,
		cause:   cause,
	}
}

// Compile-time interface check
var _ Deployer = (*VercelClient)(nil)
