package github

// SessionOutput is the response wrapper for GET /github/session.
type SessionOutput struct {
	Body Session
}

// RepoCheckOutput is the response wrapper for GET /github/repos/{repo}.
type RepoCheckOutput struct {
	Body RepoCheck
}
