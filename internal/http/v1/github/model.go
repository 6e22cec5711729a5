package github

// Session describes the GitHub account behind a delegated token.
type Session struct {
	Login   string `json:"login"   doc:"GitHub username"    example:"octocat"`
	Name    string `json:"name"    doc:"Display name"       example:"The Octocat"`
	HTMLURL string `json:"htmlUrl" doc:"GitHub profile URL" example:"https://github.com/octocat"`
}

// RepoCheck reports whether publishing would create or reuse a repository.
type RepoCheck struct {
	Name          string `json:"name"                    doc:"Repository name"                   example:"ada-lovelace-portfolio"`
	FullName      string `json:"fullName"                doc:"Full repository name (owner/repo)" example:"octocat/ada-lovelace-portfolio"`
	Exists        bool   `json:"exists"                  doc:"Publishing reuses the repository"`
	HTMLURL       string `json:"htmlUrl,omitempty"       doc:"GitHub repository URL"             example:"https://github.com/octocat/ada-lovelace-portfolio"`
	DefaultBranch string `json:"defaultBranch,omitempty" doc:"Default branch name"               example:"main"`
	Private       bool   `json:"private"                 doc:"Repository visibility"`
}
