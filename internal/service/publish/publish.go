package publish

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/janisto/portfolio-generator/internal/assemble"
	applog "github.com/janisto/portfolio-generator/internal/platform/logging"
	"github.com/janisto/portfolio-generator/internal/portfolio"
	"github.com/janisto/portfolio-generator/internal/service/deploy"
	"github.com/janisto/portfolio-generator/internal/service/github"
)

const (
	CommitMessage = "Add Next.js portfolio files"

	MessageDeployed     = "Repository created and deployed successfully"
	MessageCommitted    = "Repository created/updated successfully"
	MessageDeployFailed = "Repository created/updated successfully, but Vercel deployment failed"
	MessageFailed       = "Failed to deploy portfolio"
	NoteDeploySkipped   = "Vercel deployment skipped - no API token provided"
	NoteDeployFailed    = "Vercel deployment failed"
)

const (
	defaultBlobWorkers   = 4
	repositoryURLPattern = "https://github.com/%s/%s"
)

// Outcome classifies a publish result.
type Outcome string

const (
	// OutcomeFull: commit landed and deployment was requested.
	OutcomeFull Outcome = "full"
	// OutcomePartial: commit landed, deployment skipped or failed (see Note).
	OutcomePartial Outcome = "partial"
	// OutcomeFailed: nothing was published.
	OutcomeFailed Outcome = "failed"
)

// Request is one publish invocation.
type Request struct {
	Record         *portfolio.Record
	RepositoryName string
	// Token is the delegated GitHub credential.
	Token string
	// Themed adds the theme provider, toggle and dotted background.
	Themed bool
}

type Result struct {
	Outcome       Outcome
	RepositoryURL string
	DeployURL     *string
	CommitSHA     string
	Note          string
	// Err is the failure for OutcomeFailed, or the *DeploymentError behind
	// a partial result. It is nil when deployment was skipped.
	Err error
}

// Success reports whether the repository portion completed.
func (r *Result) Success() bool {
	return r.Outcome != OutcomeFailed
}

func (r *Result) Message() string {
	switch {
	case r.Outcome == OutcomeFull:
		return MessageDeployed
	case r.Outcome == OutcomePartial && r.Err != nil:
		return MessageDeployFailed
	case r.Outcome == OutcomePartial:
		return MessageCommitted
	}
	return MessageFailed
}

// Service publishes a record to a repository.
type Service interface {
	Publish(ctx context.Context, req Request) *Result
}

// Publisher commits an assembled site to GitHub and optionally deploys it.
type Publisher struct {
	clients     github.ClientFactory
	deployer    deploy.Deployer
	blobWorkers int
}

type Option func(*Publisher)

// WithDeployer enables the deployment step. Without it deployment is skipped.
func WithDeployer(d deploy.Deployer) Option {
	return func(p *Publisher) {
		p.deployer = d
	}
}

// WithBlobConcurrency bounds concurrent blob uploads. Values below 1 are ignored.
func WithBlobConcurrency(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.blobWorkers = n
		}
	}
}

func NewPublisher(clients github.ClientFactory, opts ...Option) *Publisher {
	p := &Publisher{clients: clients, blobWorkers: defaultBlobWorkers}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// pipeline carries state between steps of a single publish.
type pipeline struct {
	gh     github.Service
	owner  string
	repo   string
	branch string
	tip    *github.Commit
	blobs  []github.TreeEntry
	tree   string
	commit string
}

// Publish runs the pipeline and never returns a nil result. Any error
// before advanceRef leaves the branch untouched.
func (p *Publisher) Publish(ctx context.Context, req Request) *Result {
	res := p.publish(ctx, req)

	details := map[string]any{"outcome": string(res.Outcome)}
	if res.Err != nil {
		details["error"] = Category(res.Err)
	}
	if res.Note != "" {
		details["note"] = res.Note
	}
	result := "success"
	if res.Outcome == OutcomeFailed {
		result = "failure"
	}
	applog.LogAuditEvent(ctx, applog.AuditEvent{
		Action:       "publish",
		ResourceType: "repository",
		ResourceID:   req.RepositoryName,
		Result:       result,
		Details:      details,
	})
	return res
}

func (p *Publisher) publish(ctx context.Context, req Request) *Result {
	fail := func(err error) *Result {
		return &Result{Outcome: OutcomeFailed, Err: err}
	}

	if req.Record == nil {
		return fail(&MissingFieldError{Field: "profileRecord"})
	}
	if strings.TrimSpace(req.RepositoryName) == "" {
		return fail(&MissingFieldError{Field: "repositoryName"})
	}
	if strings.TrimSpace(req.Token) == "" {
		return fail(&AuthenticationRequiredError{})
	}
	if err := req.Record.Validate(); err != nil {
		return fail(err)
	}

	var opts []assemble.Option
	if req.Themed {
		opts = append(opts, assemble.WithThemedComponents())
	}
	files, err := assemble.Assemble(req.Record, opts...)
	if err != nil {
		return fail(err)
	}

	pl := &pipeline{gh: p.clients(req.Token), repo: req.RepositoryName}
	steps := []struct {
		name Step
		run  func(context.Context) error
	}{
		{StepAuthenticate, pl.authenticate},
		{StepEnsureRepository, func(ctx context.Context) error {
			return pl.ensureRepository(ctx, req.Record.FullName)
		}},
		{StepGetDefaultBranch, pl.getDefaultBranch},
		{StepGetTipCommit, pl.getTipCommit},
		{StepCreateBlobs, func(ctx context.Context) error {
			return pl.createBlobs(ctx, files, p.blobWorkers)
		}},
		{StepCreateTree, pl.createTree},
		{StepCreateCommit, pl.createCommit},
		{StepAdvanceRef, pl.advanceRef},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			applog.LogWarn(ctx, "publish step failed",
				zap.String("step", string(step.name)),
				zap.String("repository", req.RepositoryName),
				zap.String("category", Category(err)),
			)
			return fail(err)
		}
	}

	res := &Result{
		Outcome:       OutcomePartial,
		RepositoryURL: fmt.Sprintf(repositoryURLPattern, pl.owner, pl.repo),
		CommitSHA:     pl.commit,
	}
	p.requestDeployment(ctx, pl, res)
	return res
}

func (pl *pipeline) authenticate(ctx context.Context) error {
	user, err := pl.gh.GetAuthenticatedUser(ctx)
	if err != nil {
		if errors.Is(err, github.ErrUnauthorized) {
			return &AuthenticationRequiredError{Err: err}
		}
		return &StepError{Step: StepAuthenticate, Err: err}
	}
	pl.owner = user.Login
	return nil
}

// ensureRepository reuses an existing repository untouched or creates a
// public auto-initialized one.
func (pl *pipeline) ensureRepository(ctx context.Context, fullName string) error {
	repo, err := pl.gh.GetRepo(ctx, pl.owner, pl.repo)
	if err == nil {
		pl.branch = repo.DefaultBranch
		return nil
	}
	if !errors.Is(err, github.ErrNotFound) {
		return &StepError{Step: StepEnsureRepository, Err: err}
	}

	created, err := pl.gh.CreateRepo(ctx, github.CreateRepoParams{
		Name:        pl.repo,
		Description: "Portfolio website for " + fullName,
		Private:     false,
		AutoInit:    true,
	})
	if err != nil {
		return &RepositoryCreationError{Name: pl.repo, Err: err}
	}
	applog.LogInfo(ctx, "repository created", zap.String("repository", pl.owner+"/"+pl.repo))
	pl.branch = created.DefaultBranch
	return nil
}

func (pl *pipeline) getDefaultBranch(ctx context.Context) error {
	if pl.branch != "" {
		return nil
	}
	repo, err := pl.gh.GetRepo(ctx, pl.owner, pl.repo)
	if err != nil {
		return &StepError{Step: StepGetDefaultBranch, Err: err}
	}
	if repo.DefaultBranch == "" {
		return &StepError{Step: StepGetDefaultBranch, Err: errors.New("repository has no default branch")}
	}
	pl.branch = repo.DefaultBranch
	return nil
}

func (pl *pipeline) getTipCommit(ctx context.Context) error {
	ref, err := pl.gh.GetRef(ctx, pl.owner, pl.repo, "heads/"+pl.branch)
	if err != nil {
		return &StepError{Step: StepGetTipCommit, Err: err}
	}
	tip, err := pl.gh.GetCommit(ctx, pl.owner, pl.repo, ref.SHA)
	if err != nil {
		return &StepError{Step: StepGetTipCommit, Err: err}
	}
	pl.tip = tip
	return nil
}

// createBlobs uploads every file with at most workers requests in flight.
// Entries come out sorted by path.
func (pl *pipeline) createBlobs(ctx context.Context, files assemble.Files, workers int) error {
	paths := files.Paths()
	entries := make([]github.TreeEntry, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			sha, err := pl.gh.CreateBlob(gctx, pl.owner, pl.repo, files[path])
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			entries[i] = github.TreeEntry{Path: path, Mode: github.ModeFile, Type: github.TypeBlob, SHA: sha}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &StepError{Step: StepCreateBlobs, Err: err}
	}
	pl.blobs = entries
	return nil
}

func (pl *pipeline) createTree(ctx context.Context) error {
	entries := slices.Clone(pl.blobs)
	slices.SortFunc(entries, func(a, b github.TreeEntry) int { return strings.Compare(a.Path, b.Path) })
	tree, err := pl.gh.CreateTree(ctx, pl.owner, pl.repo, pl.tip.TreeSHA, entries)
	if err != nil {
		return &StepError{Step: StepCreateTree, Err: err}
	}
	pl.tree = tree
	return nil
}

func (pl *pipeline) createCommit(ctx context.Context) error {
	commit, err := pl.gh.CreateCommit(ctx, pl.owner, pl.repo, github.CreateCommitParams{
		Message: CommitMessage,
		Tree:    pl.tree,
		Parents: []string{pl.tip.SHA},
	})
	if err != nil {
		return &StepError{Step: StepCreateCommit, Err: err}
	}
	pl.commit = commit.SHA
	return nil
}

// advanceRef is the point of no return. It never forces and never retries.
func (pl *pipeline) advanceRef(ctx context.Context) error {
	ref := "heads/" + pl.branch
	err := pl.gh.UpdateRef(ctx, pl.owner, pl.repo, ref, pl.commit)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, github.ErrConflict), errors.Is(err, github.ErrNotFastForward):
		return &RefUpdateConflictError{Ref: ref, Err: err}
	}
	return &StepError{Step: StepAdvanceRef, Err: err}
}

func (p *Publisher) requestDeployment(ctx context.Context, pl *pipeline, res *Result) {
	if p.deployer == nil {
		res.Note = NoteDeploySkipped
		return
	}
	dep, err := p.deployer.Deploy(ctx, deploy.Request{
		Name: pl.repo,
		Repo: pl.owner + "/" + pl.repo,
		Ref:  pl.branch,
	})
	if err != nil {
		applog.LogWarn(ctx, "deployment failed", zap.String("repository", pl.repo), zap.Error(err))
		res.Note = NoteDeployFailed
		res.Err = &DeploymentError{Err: err}
		return
	}
	res.Outcome = OutcomeFull
	res.DeployURL = &dep.URL
}

var _ Service = (*Publisher)(nil)
