package publish

import "github.com/janisto/portfolio-generator/internal/platform/timeutil"

// PublishResult reports a commit that landed, with or without a deployment.
type PublishResult struct {
	Success       bool          `json:"success"                                  doc:"The repository portion completed"`
	Message       string        `json:"message"                                  doc:"Human-readable outcome"`
	RepositoryURL string        `json:"repositoryUrl"                            doc:"Repository web URL"  example:"https://github.com/octocat/ada-lovelace-portfolio"`
	DeployURL     *string       `json:"deployUrl"     nullable:"true"            doc:"Deployment URL, null when skipped or failed"`
	Note          string        `json:"note,omitempty"                           doc:"Why deployment was skipped or failed"`
	Error         string        `json:"error,omitempty"                          doc:"Non-fatal deployment error"`
	CommitSHA     string        `json:"commitSha,omitempty"                      doc:"The new commit"`
	PublishedAt   timeutil.Time `json:"publishedAt"                              doc:"Completion time" example:"2026-10-19T10:30:00.000Z"`
}
