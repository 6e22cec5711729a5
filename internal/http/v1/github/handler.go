package github

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/portfolio-generator/internal/platform/auth"
	githubsvc "github.com/janisto/portfolio-generator/internal/service/github"
)

// Register wires GitHub session routes into the provided API router.
func Register(api huma.API, clients githubsvc.ClientFactory) {
	huma.Register(api, huma.Operation{
		OperationID: "get-github-session",
		Method:      http.MethodGet,
		Path:        "/github/session",
		Summary:     "Get the GitHub session",
		Description: "Returns the GitHub account the delegated token belongs to.",
		Tags:        []string{"GitHub"},
		Security:    auth.BearerSecurity,
	}, func(ctx context.Context, input *SessionInput) (*SessionOutput, error) {
		client, err := clientFor(clients, input.GitHubToken)
		if err != nil {
			return nil, err
		}
		user, err := client.GetAuthenticatedUser(ctx)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &SessionOutput{Body: Session{Login: user.Login, Name: user.Name, HTMLURL: user.HTMLURL}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "check-github-repo",
		Method:      http.MethodGet,
		Path:        "/github/repos/{repo}",
		Summary:     "Check a target repository",
		Description: "Reports whether the repository already exists under the token's user, " +
			"so clients can warn before a publish overwrites it.",
		Tags:     []string{"GitHub"},
		Security: auth.BearerSecurity,
	}, func(ctx context.Context, input *RepoCheckInput) (*RepoCheckOutput, error) {
		client, err := clientFor(clients, input.GitHubToken)
		if err != nil {
			return nil, err
		}
		user, err := client.GetAuthenticatedUser(ctx)
		if err != nil {
			return nil, mapServiceError(err)
		}
		out := RepoCheck{Name: input.Repo, FullName: user.Login + "/" + input.Repo}
		repo, err := client.GetRepo(ctx, user.Login, input.Repo)
		switch {
		case errors.Is(err, githubsvc.ErrNotFound):
		case err != nil:
			return nil, mapServiceError(err)
		default:
			out.Exists = true
			out.FullName = repo.FullName
			out.HTMLURL = repo.HTMLURL
			out.DefaultBranch = repo.DefaultBranch
			out.Private = repo.Private
		}
		return &RepoCheckOutput{Body: out}, nil
	})
}

func clientFor(clients githubsvc.ClientFactory, token string) (githubsvc.Service, error) {
	if token == "" {
		return nil, unauthenticated()
	}
	return clients(token), nil
}

func unauthenticated() error {
	return huma.ErrorWithHeaders(
		huma.Error401Unauthorized("Authentication required"),
		http.Header{"WWW-Authenticate": {`Bearer realm="github"`}},
	)
}

func mapServiceError(err error) error {
	var upstreamErr *githubsvc.UpstreamError

	if errors.As(err, &upstreamErr) {
		switch upstreamErr.Kind {
		case githubsvc.UpstreamErrorKindNotFound:
			return huma.Error404NotFound("resource not found")
		case githubsvc.UpstreamErrorKindUnauthorized:
			return unauthenticated()
		case githubsvc.UpstreamErrorKindRateLimited:
			rateLimitErr := huma.Error429TooManyRequests("rate limit exceeded")
			headers := make(http.Header)
			if upstreamErr.RetryAfter != "" {
				headers.Set("Retry-After", upstreamErr.RetryAfter)
			}
			if upstreamErr.RateLimitReset != "" {
				headers.Set("X-RateLimit-Reset", upstreamErr.RateLimitReset)
			}
			if len(headers) > 0 {
				return huma.ErrorWithHeaders(rateLimitErr, headers)
			}
			return rateLimitErr
		case githubsvc.UpstreamErrorKindForbidden:
			return huma.Error403Forbidden("access denied")
		default:
			return huma.Error502BadGateway("upstream error")
		}
	}

	switch {
	case errors.Is(err, githubsvc.ErrNotFound):
		return huma.Error404NotFound("resource not found")
	case errors.Is(err, githubsvc.ErrUnauthorized):
		return unauthenticated()
	case errors.Is(err, githubsvc.ErrRateLimited):
		return huma.Error429TooManyRequests("rate limit exceeded")
	case errors.Is(err, githubsvc.ErrForbidden):
		return huma.Error403Forbidden("access denied")
	default:
		return huma.Error502BadGateway("upstream error")
	}
}
