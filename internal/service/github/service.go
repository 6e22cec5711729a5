package github

import (
	"context"
	"errors"
	"fmt"
)

// Service errors
var (
	ErrNotFound      = errors.New("github resource not found")
	ErrUnauthorized  = errors.New("github credential rejected")
	ErrForbidden     = errors.New("github access forbidden")
	ErrRateLimited   = errors.New("github rate limit exceeded")
	ErrConflict      = errors.New("github resource conflict")
	ErrUnprocessable = errors.New("github rejected the request")
	ErrUpstream      = errors.New("github upstream error")

	// ErrNotFastForward is the 422 GitHub returns when a ref update would
	// drop commits. It matches ErrUnprocessable too.
	ErrNotFastForward = fmt.Errorf("%w: update is not a fast forward", ErrUnprocessable)
)

// UpstreamErrorKind classifies GitHub upstream failures.
type UpstreamErrorKind string

const (
	UpstreamErrorKindNotFound      UpstreamErrorKind = "not_found"
	UpstreamErrorKindUnauthorized  UpstreamErrorKind = "unauthorized"
	UpstreamErrorKindForbidden     UpstreamErrorKind = "forbidden"
	UpstreamErrorKindRateLimited   UpstreamErrorKind = "rate_limited"
	UpstreamErrorKindConflict      UpstreamErrorKind = "conflict"
	UpstreamErrorKindUnprocessable UpstreamErrorKind = "unprocessable"
	UpstreamErrorKindUpstream      UpstreamErrorKind = "upstream"
)

// UpstreamError includes GitHub response metadata for error mapping.
type UpstreamError struct {
	Kind           UpstreamErrorKind
	Status         int
	Message        string
	RetryAfter     string
	RateLimitReset string
	cause          error
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "github upstream error"
	}
	msg := fmt.Sprintf("github upstream error (kind=%s status=%d)", e.Kind, e.Status)
	if e.Message != "" {
		msg += " " + e.Message
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap enables errors.Is/As against sentinel service errors.
func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// User is the identity behind the delegated token.
type User struct {
	Login   string
	Name    string
	HTMLURL string
}

type Repo struct {
	Name          string
	FullName      string
	Description   string
	HTMLURL       string
	DefaultBranch string
	Private       bool
}

// CreateRepoParams describes a repository owned by the authenticated user.
type CreateRepoParams struct {
	Name        string
	Description string
	Private     bool
	AutoInit    bool
}

// Ref is a named pointer such as "heads/main".
type Ref struct {
	Ref string
	SHA string
}

type Commit struct {
	SHA     string
	TreeSHA string
	Message string
	Parents []string
}

// TreeEntry is one path in a new tree.
type TreeEntry struct {
	Path string
	Mode string
	Type string
	SHA  string
}

const (
	ModeFile = "100644"
	TypeBlob = "blob"
)

type CreateCommitParams struct {
	Message string
	Tree    string
	Parents []string
}

// Service is the subset of the GitHub REST API the publisher drives: the
// repository endpoints plus the low-level git data API.
type Service interface {
	GetAuthenticatedUser(ctx context.Context) (*User, error)
	GetRepo(ctx context.Context, owner, repo string) (*Repo, error)
	CreateRepo(ctx context.Context, params CreateRepoParams) (*Repo, error)
	GetRef(ctx context.Context, owner, repo, ref string) (*Ref, error)
	GetCommit(ctx context.Context, owner, repo, sha string) (*Commit, error)
	CreateBlob(ctx context.Context, owner, repo, content string) (string, error)
	CreateTree(ctx context.Context, owner, repo, baseTree string, entries []TreeEntry) (string, error)
	CreateCommit(ctx context.Context, owner, repo string, params CreateCommitParams) (*Commit, error)
	// UpdateRef moves ref to sha without force; a non-fast-forward update fails.
	UpdateRef(ctx context.Context, owner, repo, ref, sha string) error
}

// ClientFactory builds a Service bound to one delegated token.
type ClientFactory func(token string) Service
