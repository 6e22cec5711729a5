package github

// SessionInput carries the delegated GitHub credential.
type SessionInput struct {
	GitHubToken string `header:"X-GitHub-Token" doc:"Delegated GitHub access token with repository scope"`
}

// RepoCheckInput defines the repository to look up under the token's user.
type RepoCheckInput struct {
	SessionInput
	Repo string `path:"repo" doc:"Repository name" example:"ada-lovelace-portfolio" pattern:"^[a-zA-Z0-9_\\-\\.]{1,100}$"`
}
