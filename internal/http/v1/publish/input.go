package publish

import "github.com/janisto/portfolio-generator/internal/portfolio"

// PublishInput for POST /publish
type PublishInput struct {
	GitHubToken string `header:"X-GitHub-Token" doc:"Delegated GitHub access token with repository scope"`
	Body        struct {
		ProfileRecord  *portfolio.Record `json:"profileRecord,omitempty"  doc:"Finalized profile record"`
		RepositoryName string            `json:"repositoryName,omitempty" doc:"Target repository under the token's user" example:"ada-lovelace-portfolio"`
		Themed         bool              `json:"themed,omitempty"         doc:"Include theme provider, toggle and dotted background"`
	}
}
