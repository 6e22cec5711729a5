package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	applog "github.com/janisto/portfolio-generator/internal/platform/logging"
)

const (
	defaultBaseURL = "https://api.github.com"
	userAgent      = "portfolio-generator"
	apiVersion     = "2022-11-28"
	acceptHeader   = "application/vnd.github+json"
)

// Client implements Service using the GitHub REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithToken sets the Bearer token for authenticated requests.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new GitHub API client.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFactory returns a factory producing clients that share httpClient
// and opts but carry their own token.
func NewClientFactory(httpClient *http.Client, opts ...Option) ClientFactory {
	return func(token string) Service {
		return NewClient(httpClient, append(append([]Option(nil), opts...), WithToken(token))...)
	}
}

// GitHub API payloads (snake_case JSON tags matching GitHub's API).

type githubUser struct {
	Login   string `json:"login"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

type githubRepo struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
}

type githubCreateRepo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
	AutoInit    bool   `json:"auto_init"`
}

type githubRef struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

type githubCommit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	Tree    struct {
		SHA string `json:"sha"`
	} `json:"tree"`
	Parents []struct {
		SHA string `json:"sha"`
	} `json:"parents"`
}

type githubCreateBlob struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type githubTreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

type githubCreateTree struct {
	BaseTree string            `json:"base_tree,omitempty"`
	Tree     []githubTreeEntry `json:"tree"`
}

type githubCreateCommit struct {
	Message string   `json:"message"`
	Tree    string   `json:"tree"`
	Parents []string `json:"parents"`
}

type githubUpdateRef struct {
	SHA   string `json:"sha"`
	Force bool   `json:"force"`
}

type githubSHA struct {
	SHA string `json:"sha"`
}

type githubErrorBody struct {
	Message string `json:"message"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

// call performs a request and decodes a 200/201 body into target (may be nil).
func (c *Client) call(ctx context.Context, method, path string, body, target any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	return c.decodeResponse(ctx, resp, target)
}

func (c *Client) decodeResponse(ctx context.Context, resp *http.Response, target any) error {
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		if target == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("decoding github response: %w", err)
		}
		return nil
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return upstreamErrorFromResponse(resp, UpstreamErrorKindNotFound, ErrNotFound)
	case http.StatusUnauthorized:
		return upstreamErrorFromResponse(resp, UpstreamErrorKindUnauthorized, ErrUnauthorized)
	case http.StatusConflict:
		return upstreamErrorFromResponse(resp, UpstreamErrorKindConflict, ErrConflict)
	case http.StatusUnprocessableEntity:
		return upstreamErrorFromResponse(resp, UpstreamErrorKindUnprocessable, ErrUnprocessable)
	case http.StatusTooManyRequests:
		logRateLimited(ctx, resp)
		return upstreamErrorFromResponse(resp, UpstreamErrorKindRateLimited, ErrRateLimited)
	case http.StatusForbidden:
		if isGitHubRateLimitResponse(resp) {
			logRateLimited(ctx, resp)
			return upstreamErrorFromResponse(resp, UpstreamErrorKindRateLimited, ErrRateLimited)
		}
		applog.LogWarn(ctx, "github api access denied",
			zap.Int("status", resp.StatusCode),
			zap.String("X-RateLimit-Remaining", strings.TrimSpace(resp.Header.Get("X-RateLimit-Remaining"))),
		)
		return upstreamErrorFromResponse(resp, UpstreamErrorKindForbidden, ErrForbidden)
	}
	return upstreamErrorFromResponse(resp, UpstreamErrorKindUpstream, ErrUpstream)
}

func repoPath(owner, repo string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
}

// refPath keeps the slash in "heads/main" while escaping each segment.
func refPath(ref string) string {
	parts := strings.Split(ref, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (c *Client) GetAuthenticatedUser(ctx context.Context) (*User, error) {
	var gh githubUser
	if err := c.call(ctx, http.MethodGet, "/user", nil, &gh); err != nil {
		return nil, err
	}
	return &User{Login: gh.Login, Name: gh.Name, HTMLURL: gh.HTMLURL}, nil
}

func (c *Client) GetRepo(ctx context.Context, owner, repo string) (*Repo, error) {
	var gh githubRepo
	if err := c.call(ctx, http.MethodGet, repoPath(owner, repo), nil, &gh); err != nil {
		return nil, err
	}
	return toRepo(gh), nil
}

func (c *Client) CreateRepo(ctx context.Context, params CreateRepoParams) (*Repo, error) {
	body := githubCreateRepo(params)
	var gh githubRepo
	if err := c.call(ctx, http.MethodPost, "/user/repos", body, &gh); err != nil {
		return nil, err
	}
	return toRepo(gh), nil
}

func (c *Client) GetRef(ctx context.Context, owner, repo, ref string) (*Ref, error) {
	var gh githubRef
	if err := c.call(ctx, http.MethodGet, repoPath(owner, repo)+"/git/ref/"+refPath(ref), nil, &gh); err != nil {
		return nil, err
	}
	return &Ref{Ref: gh.Ref, SHA: gh.Object.SHA}, nil
}

func (c *Client) GetCommit(ctx context.Context, owner, repo, sha string) (*Commit, error) {
	var gh githubCommit
	if err := c.call(ctx, http.MethodGet, repoPath(owner, repo)+"/git/commits/"+url.PathEscape(sha), nil, &gh); err != nil {
		return nil, err
	}
	return toCommit(gh), nil
}

func (c *Client) CreateBlob(ctx context.Context, owner, repo, content string) (string, error) {
	var gh githubSHA
	body := githubCreateBlob{Content: content, Encoding: "utf-8"}
	if err := c.call(ctx, http.MethodPost, repoPath(owner, repo)+"/git/blobs", body, &gh); err != nil {
		return "", err
	}
	return gh.SHA, nil
}

func (c *Client) CreateTree(
	ctx context.Context, owner, repo, baseTree string, entries []TreeEntry,
) (string, error) {
	body := githubCreateTree{BaseTree: baseTree, Tree: make([]githubTreeEntry, len(entries))}
	for i, e := range entries {
		body.Tree[i] = githubTreeEntry(e)
	}
	var gh githubSHA
	if err := c.call(ctx, http.MethodPost, repoPath(owner, repo)+"/git/trees", body, &gh); err != nil {
		return "", err
	}
	return gh.SHA, nil
}

func (c *Client) CreateCommit(
	ctx context.Context, owner, repo string, params CreateCommitParams,
) (*Commit, error) {
	body := githubCreateCommit(params)
	var gh githubCommit
	if err := c.call(ctx, http.MethodPost, repoPath(owner, repo)+"/git/commits", body, &gh); err != nil {
		return nil, err
	}
	return toCommit(gh), nil
}

func (c *Client) UpdateRef(ctx context.Context, owner, repo, ref, sha string) error {
	body := githubUpdateRef{SHA: sha, Force: false}
	err := c.call(ctx, http.MethodPatch, repoPath(owner, repo)+"/git/refs/"+refPath(ref), body, nil)
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.Kind == UpstreamErrorKindUnprocessable &&
		strings.Contains(strings.ToLower(upstreamErr.Message), "fast forward") {
		upstreamErr.cause = ErrNotFastForward
	}
	return err
}

func toRepo(gh githubRepo) *Repo {
	return &Repo{
		Name:          gh.Name,
		FullName:      gh.FullName,
		Description:   gh.Description,
		HTMLURL:       gh.HTMLURL,
		DefaultBranch: gh.DefaultBranch,
		Private:       gh.Private,
	}
}

func toCommit(gh githubCommit) *Commit {
	parents := make([]string, len(gh.Parents))
	for i, p := range gh.Parents {
		parents[i] = p.SHA
	}
	return &Commit{SHA: gh.SHA, TreeSHA: gh.Tree.SHA, Message: gh.Message, Parents: parents}
}

func upstreamErrorFromResponse(resp *http.Response, kind UpstreamErrorKind, cause error) *UpstreamError {
	var body githubErrorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
	return &UpstreamError{
		Kind:           kind,
		Status:         resp.StatusCode,
		Message:        body.Message,
		RetryAfter:     strings.TrimSpace(resp.Header.Get("Retry-After")),
		RateLimitReset: strings.TrimSpace(resp.Header.Get("X-RateLimit-Reset")),
		cause:          cause,
	}
}

func isGitHubRateLimitResponse(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if resp.StatusCode != http.StatusForbidden {
		return false
	}
	if strings.TrimSpace(resp.Header.Get("X-RateLimit-Remaining")) == "0" {
		return true
	}
	return strings.TrimSpace(resp.Header.Get("Retry-After")) != ""
}

func logRateLimited(ctx context.Context, resp *http.Response) {
	fields := []zap.Field{
		zap.Int("status", resp.StatusCode),
		zap.String("X-RateLimit-Remaining", resp.Header.Get("X-RateLimit-Remaining")),
		zap.String("X-RateLimit-Reset", resp.Header.Get("X-RateLimit-Reset")),
	}
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		fields = append(fields, zap.String("Retry-After", retryAfter))
	}
	applog.LogWarn(ctx, "github api rate limit exceeded", fields...)
}

// Compile-time interface check
var _ Service = (*Client)(nil)
