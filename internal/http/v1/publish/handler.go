package publish

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/portfolio-generator/internal/platform/auth"
	"github.com/janisto/portfolio-generator/internal/platform/timeutil"
	"github.com/janisto/portfolio-generator/internal/portfolio"
	githubsvc "github.com/janisto/portfolio-generator/internal/service/github"
	publishsvc "github.com/janisto/portfolio-generator/internal/service/publish"
)

// maxBodyBytes admits a record carrying a 5 MB embedded image after base64.
const maxBodyBytes = 8 << 20

// Register registers the publish endpoint.
func Register(api huma.API, svc publishsvc.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "publish-portfolio",
		Method:      http.MethodPost,
		Path:        "/publish",
		Summary:     "Publish the portfolio",
		Description: "Commits the generated site to a GitHub repository, creating it if needed, " +
			"then requests a Vercel deployment when one is configured.",
		Tags:         []string{"Publish"},
		Security:     auth.BearerSecurity,
		MaxBodyBytes: maxBodyBytes,
	}, func(ctx context.Context, input *PublishInput) (*PublishOutput, error) {
		res := svc.Publish(ctx, publishsvc.Request{
			Record:         input.Body.ProfileRecord,
			RepositoryName: input.Body.RepositoryName,
			Token:          input.GitHubToken,
			Themed:         input.Body.Themed,
		})
		if !res.Success() {
			return nil, mapServiceError(res.Err)
		}
		out := PublishResult{
			Success:       true,
			Message:       res.Message(),
			RepositoryURL: res.RepositoryURL,
			DeployURL:     res.DeployURL,
			Note:          res.Note,
			CommitSHA:     res.CommitSHA,
			PublishedAt:   timeutil.Now(),
		}
		if res.Err != nil {
			out.Error = publishsvc.NoteDeployFailed
		}
		return &PublishOutput{Body: out}, nil
	})
}

func mapServiceError(err error) error {
	var (
		authErr     *publishsvc.AuthenticationRequiredError
		missingErr  *publishsvc.MissingFieldError
		verr        *portfolio.ValidationError
		upstreamErr *githubsvc.UpstreamError
	)
	switch {
	case errors.As(err, &authErr):
		return huma.ErrorWithHeaders(
			huma.Error401Unauthorized("Authentication required"),
			http.Header{"WWW-Authenticate": {`Bearer realm="github"`}},
		)
	case errors.As(err, &missingErr):
		return huma.Error400BadRequest("Missing required fields", &huma.ErrorDetail{
			Location: "body." + missingErr.Field,
			Message:  "required",
		})
	case errors.As(err, &verr):
		details := make([]error, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, &huma.ErrorDetail{Location: "body.profileRecord." + f.Path, Message: f.Message})
		}
		return huma.Error422UnprocessableEntity("validation failed", details...)
	case errors.As(err, &upstreamErr) && upstreamErr.Kind == githubsvc.UpstreamErrorKindRateLimited:
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
	default:
		return huma.Error500InternalServerError("Failed to deploy portfolio")
	}
}
