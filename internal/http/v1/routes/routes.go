package routes

import (
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/portfolio-generator/internal/http/v1/draft"
	githubhandler "github.com/janisto/portfolio-generator/internal/http/v1/github"
	"github.com/janisto/portfolio-generator/internal/http/v1/publish"
	"github.com/janisto/portfolio-generator/internal/http/v1/site"
	"github.com/janisto/portfolio-generator/internal/platform/auth"
	draftstore "github.com/janisto/portfolio-generator/internal/service/draft"
	githubsvc "github.com/janisto/portfolio-generator/internal/service/github"
	publishsvc "github.com/janisto/portfolio-generator/internal/service/publish"
)

// Services bundles the backends the v1 routes depend on.
type Services struct {
	Verifier  auth.Verifier
	Drafts    draftstore.Store
	GitHub    githubsvc.ClientFactory
	Publisher publishsvc.Service
}

// Register wires all HTTP routes into the provided API router.
func Register(api huma.API, svc Services) {
	prefix := apiPrefix(api)

	// Apply auth middleware for protected endpoints
	api.UseMiddleware(auth.NewAuthMiddleware(api, svc.Verifier))

	draft.Register(api, svc.Drafts, prefix)
	site.Register(api, svc.Drafts)
	githubhandler.Register(api, svc.GitHub)
	publish.Register(api, svc.Publisher)
}

func apiPrefix(api huma.API) string {
	for _, s := range api.OpenAPI().Servers {
		if u, err := url.Parse(s.URL); err == nil && u.Path != "" {
			return u.Path
		}
	}
	return ""
}
