package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"

	"github.com/janisto/portfolio-generator/internal/assemble"
	"github.com/janisto/portfolio-generator/internal/portfolio"
	"github.com/janisto/portfolio-generator/internal/service/deploy"
	"github.com/janisto/portfolio-generator/internal/service/github"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func adaRecord() *portfolio.Record {
	return &portfolio.Record{
		FullName:   "Ada Lovelace",
		Title:      "Mathematician",
		About:      "First programmer of the Analytical Engine.",
		ThemeColor: portfolio.ThemePurple,
		Roles:      []string{"Analyst", "Visionary"},
		Skills:     []string{"Math", "Logic"},
		Experience: []portfolio.Experience{{Company: "Babbage & Co", Role: "Analyst", Duration: "1843"}},
		Projects:   []portfolio.Project{},
		Education:  []portfolio.Education{},
	}
}

func adaRequest() Request {
	return Request{Record: adaRecord(), RepositoryName: "ada-lovelace-portfolio", Token: "gho_test"}
}

func countCalls(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}

func TestPublishCreatesRepositoryAndCommits(t *testing.T) {
	gh := github.NewMockGitHubService()
	p := NewPublisher(gh.Factory())

	res := p.Publish(context.Background(), adaRequest())
	if res.Outcome != OutcomePartial {
		t.Fatalf("expected partial outcome, got %s (err=%v)", res.Outcome, res.Err)
	}
	if !res.Success() {
		t.Fatal("expected success")
	}
	if res.RepositoryURL != "https://github.com/octocat/ada-lovelace-portfolio" {
		t.Errorf("unexpected repository url %s", res.RepositoryURL)
	}
	if res.DeployURL != nil {
		t.Errorf("expected nil deploy url, got %s", *res.DeployURL)
	}
	if res.Note != NoteDeploySkipped {
		t.Errorf("unexpected note %q", res.Note)
	}
	if res.Message() != MessageCommitted {
		t.Errorf("unexpected message %q", res.Message())
	}

	calls := gh.Calls()
	if countCalls(calls, "CreateRepo") != 1 {
		t.Errorf("expected repository creation, calls=%v", calls)
	}
	createIdx, commitIdx := -1, -1
	for i, c := range calls {
		switch c {
		case "CreateRepo":
			createIdx = i
		case "CreateCommit":
			commitIdx = i
		}
	}
	if createIdx > commitIdx {
		t.Errorf("repository must be created before committing, calls=%v", calls)
	}

	want, _ := assemble.Assemble(adaRecord())
	files, err := gh.Files("ada-lovelace-portfolio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for path, content := range want {
		if files[path] != content {
			t.Errorf("file %s does not match assembled content", path)
		}
	}
	if _, ok := files["README.md"]; !ok {
		t.Error("expected README.md")
	}
	if h := gh.History("ada-lovelace-portfolio"); len(h) != 2 || h[0] != CommitMessage {
		t.Errorf("unexpected history %v", h)
	}
}

func TestPublishReusesExistingRepository(t *testing.T) {
	ctx := context.Background()
	gh := github.NewMockGitHubService()
	if _, err := gh.CreateRepo(ctx, github.CreateRepoParams{
		Name: "ada-lovelace-portfolio", Description: "keep me", AutoInit: true,
	}); err != nil {
		t.Fatal(err)
	}
	ref, _ := gh.GetRef(ctx, "octocat", "ada-lovelace-portfolio", "heads/main")
	tip, _ := gh.GetCommit(ctx, "octocat", "ada-lovelace-portfolio", ref.SHA)
	blob, _ := gh.CreateBlob(ctx, "octocat", "ada-lovelace-portfolio", "keep")
	tree, _ := gh.CreateTree(ctx, "octocat", "ada-lovelace-portfolio", tip.TreeSHA, []github.TreeEntry{
		{Path: "notes.txt", Mode: github.ModeFile, Type: github.TypeBlob, SHA: blob},
	})
	c, _ := gh.CreateCommit(ctx, "octocat", "ada-lovelace-portfolio", github.CreateCommitParams{
		Message: "notes", Tree: tree, Parents: []string{ref.SHA},
	})
	if err := gh.UpdateRef(ctx, "octocat", "ada-lovelace-portfolio", "heads/main", c.SHA); err != nil {
		t.Fatal(err)
	}

	res := NewPublisher(gh.Factory()).Publish(ctx, adaRequest())
	if !res.Success() {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	if countCalls(gh.Calls(), "CreateRepo") != 1 {
		t.Error("expected no second repository creation")
	}
	repo, _ := gh.GetRepo(ctx, "octocat", "ada-lovelace-portfolio")
	if repo.Description != "keep me" {
		t.Errorf("repository settings changed: %+v", repo)
	}
	files, _ := gh.Files("ada-lovelace-portfolio")
	if files["notes.txt"] != "keep" {
		t.Error("expected paths outside the bundle to survive")
	}
	if !strings.Contains(files["app/globals.css"], "270 76% 53%") {
		t.Error("expected purple theme in globals.css")
	}
}

func TestPublishWithDeployment(t *testing.T) {
	gh := github.NewMockGitHubService()
	dep := &deploy.MockDeployer{}
	res := NewPublisher(gh.Factory(), WithDeployer(dep)).Publish(context.Background(), adaRequest())

	if res.Outcome != OutcomeFull {
		t.Fatalf("expected full outcome, got %s (err=%v)", res.Outcome, res.Err)
	}
	if res.DeployURL == nil || *res.DeployURL != "https://ada-lovelace-portfolio.vercel.app" {
		t.Errorf("unexpected deploy url %v", res.DeployURL)
	}
	if res.Message() != MessageDeployed {
		t.Errorf("unexpected message %q", res.Message())
	}
	reqs := dep.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 deployment request, got %d", len(reqs))
	}
	if reqs[0].Repo != "octocat/ada-lovelace-portfolio" || reqs[0].Ref != "main" || reqs[0].Name != "ada-lovelace-portfolio" {
		t.Errorf("unexpected deployment request %+v", reqs[0])
	}
}

func TestPublishDeploymentFailureIsNonFatal(t *testing.T) {
	gh := github.NewMockGitHubService()
	dep := &deploy.MockDeployer{Err: errors.New("vercel down")}
	res := NewPublisher(gh.Factory(), WithDeployer(dep)).Publish(context.Background(), adaRequest())

	if res.Outcome != OutcomePartial || !res.Success() {
		t.Fatalf("expected partial success, got %s", res.Outcome)
	}
	var depErr *DeploymentError
	if !errors.As(res.Err, &depErr) {
		t.Fatalf("expected DeploymentError, got %v", res.Err)
	}
	if res.Note != NoteDeployFailed {
		t.Errorf("unexpected note %q", res.Note)
	}
	if res.Message() != MessageDeployFailed {
		t.Errorf("unexpected message %q", res.Message())
	}
	if res.DeployURL != nil {
		t.Error("expected nil deploy url")
	}
}

func TestPublishRequestErrors(t *testing.T) {
	gh := github.NewMockGitHubService()
	p := NewPublisher(gh.Factory())

	tests := []struct {
		name   string
		mutate func(*Request)
		check  func(error) bool
	}{
		{"nil record", func(r *Request) { r.Record = nil }, func(err error) bool {
			var e *MissingFieldError
			return errors.As(err, &e) && e.Field == "profileRecord"
		}},
		{"blank repository", func(r *Request) { r.RepositoryName = " " }, func(err error) bool {
			var e *MissingFieldError
			return errors.As(err, &e) && e.Field == "repositoryName"
		}},
		{"no token", func(r *Request) { r.Token = "" }, func(err error) bool {
			var e *AuthenticationRequiredError
			return errors.As(err, &e)
		}},
		{"invalid record", func(r *Request) { r.Record.About = "short" }, func(err error) bool {
			var e *portfolio.ValidationError
			return errors.As(err, &e)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := adaRequest()
			tt.mutate(&req)
			res := p.Publish(context.Background(), req)
			if res.Outcome != OutcomeFailed {
				t.Fatalf("expected failure, got %s", res.Outcome)
			}
			if !tt.check(res.Err) {
				t.Fatalf("unexpected error %v", res.Err)
			}
			if res.Message() != MessageFailed {
				t.Errorf("unexpected message %q", res.Message())
			}
		})
	}
	if len(gh.Calls()) != 0 {
		t.Errorf("expected no GitHub calls, got %v", gh.Calls())
	}
}

func TestPublishRejectedCredential(t *testing.T) {
	gh := github.NewMockGitHubService()
	gh.FailOn("GetAuthenticatedUser", fmt.Errorf("bad credentials: %w", github.ErrUnauthorized))

	res := NewPublisher(gh.Factory()).Publish(context.Background(), adaRequest())
	var authErr *AuthenticationRequiredError
	if !errors.As(res.Err, &authErr) {
		t.Fatalf("expected AuthenticationRequiredError, got %v", res.Err)
	}
	if Category(res.Err) != "authentication" {
		t.Errorf("unexpected category %q", Category(res.Err))
	}
}

func TestPublishRepositoryCreationError(t *testing.T) {
	gh := github.NewMockGitHubService()
	gh.FailOn("CreateRepo", github.ErrForbidden)

	res := NewPublisher(gh.Factory()).Publish(context.Background(), adaRequest())
	var createErr *RepositoryCreationError
	if !errors.As(res.Err, &createErr) {
		t.Fatalf("expected RepositoryCreationError, got %v", res.Err)
	}
	if createErr.Name != "ada-lovelace-portfolio" {
		t.Errorf("unexpected name %q", createErr.Name)
	}
	if countCalls(gh.Calls(), "CreateBlob") != 0 {
		t.Error("expected no blobs after creation failure")
	}
}

func TestPublishRefConflictLeavesBranchUnchanged(t *testing.T) {
	ctx := context.Background()
	gh := github.NewMockGitHubService()
	if _, err := gh.CreateRepo(ctx, github.CreateRepoParams{Name: "ada-lovelace-portfolio", AutoInit: true}); err != nil {
		t.Fatal(err)
	}
	gh.FailOn("UpdateRef", fmt.Errorf("update rejected: %w", github.ErrNotFastForward))

	res := NewPublisher(gh.Factory()).Publish(ctx, adaRequest())
	var conflict *RefUpdateConflictError
	if !errors.As(res.Err, &conflict) {
		t.Fatalf("expected RefUpdateConflictError, got %v", res.Err)
	}
	if conflict.Ref != "heads/main" {
		t.Errorf("unexpected ref %q", conflict.Ref)
	}
	if countCalls(gh.Calls(), "UpdateRef") != 1 {
		t.Error("expected exactly one ref update attempt")
	}
	if h := gh.History("ada-lovelace-portfolio"); len(h) != 1 {
		t.Errorf("expected branch unchanged, history %v", h)
	}
}

func TestPublishRefUpdateRejectedForOtherReasons(t *testing.T) {
	ctx := context.Background()
	gh := github.NewMockGitHubService()
	if _, err := gh.CreateRepo(ctx, github.CreateRepoParams{Name: "ada-lovelace-portfolio", AutoInit: true}); err != nil {
		t.Fatal(err)
	}
	gh.FailOn("UpdateRef", fmt.Errorf("reference does not exist: %w", github.ErrUnprocessable))

	res := NewPublisher(gh.Factory()).Publish(ctx, adaRequest())
	var conflict *RefUpdateConflictError
	if errors.As(res.Err, &conflict) {
		t.Fatalf("expected a step failure, got conflict %v", res.Err)
	}
	var stepErr *StepError
	if !errors.As(res.Err, &stepErr) || stepErr.Step != StepAdvanceRef {
		t.Fatalf("expected advanceRef StepError, got %v", res.Err)
	}
}

func TestPublishRefConflictFromConcurrentCommit(t *testing.T) {
	ctx := context.Background()
	gh := github.NewMockGitHubService()
	if _, err := gh.CreateRepo(ctx, github.CreateRepoParams{Name: "ada-lovelace-portfolio", AutoInit: true}); err != nil {
		t.Fatal(err)
	}
	gh.FailOn("UpdateRef", fmt.Errorf("ref moved: %w", github.ErrConflict))

	res := NewPublisher(gh.Factory()).Publish(ctx, adaRequest())
	var conflict *RefUpdateConflictError
	if !errors.As(res.Err, &conflict) {
		t.Fatalf("expected RefUpdateConflictError, got %v", res.Err)
	}
}

type failingBlobs struct {
	github.Service
	calls atomic.Int32
}

func (f *failingBlobs) CreateBlob(ctx context.Context, owner, repo, content string) (string, error) {
	if f.calls.Add(1) == 3 {
		return "", errors.New("blob upload failed")
	}
	return f.Service.CreateBlob(ctx, owner, repo, content)
}

func TestPublishBlobFailureAbortsBeforeTree(t *testing.T) {
	gh := github.NewMockGitHubService()
	wrapped := &failingBlobs{Service: gh}
	p := NewPublisher(func(string) github.Service { return wrapped }, WithBlobConcurrency(2))

	res := p.Publish(context.Background(), adaRequest())
	var stepErr *StepError
	if !errors.As(res.Err, &stepErr) || stepErr.Step != StepCreateBlobs {
		t.Fatalf("expected createBlobs StepError, got %v", res.Err)
	}
	calls := gh.Calls()
	if countCalls(calls, "CreateTree") != 0 || countCalls(calls, "UpdateRef") != 0 {
		t.Errorf("expected pipeline to stop, calls=%v", calls)
	}
	if h := gh.History("ada-lovelace-portfolio"); len(h) != 1 {
		t.Errorf("expected only the initial commit, got %v", h)
	}
}

func TestPublishThemedAddsComponents(t *testing.T) {
	gh := github.NewMockGitHubService()
	req := adaRequest()
	req.Themed = true
	if res := NewPublisher(gh.Factory()).Publish(context.Background(), req); !res.Success() {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	files, _ := gh.Files("ada-lovelace-portfolio")
	for _, p := range []string{"components/theme-provider.tsx", "components/theme-toggle.tsx", "components/dotted-background.tsx"} {
		if _, ok := files[p]; !ok {
			t.Errorf("expected %s in published tree", p)
		}
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&MissingFieldError{Field: "x"}, "missing_field"},
		{&RefUpdateConflictError{Ref: "heads/main", Err: errors.New("x")}, "ref_conflict"},
		{&StepError{Step: StepCreateTree, Err: errors.New("x")}, "upstream_createTree"},
		{&DeploymentError{Err: errors.New("x")}, "deployment"},
		{errors.New("other"), "internal"},
	}
	for _, tt := range tests {
		if got := Category(tt.err); got != tt.want {
			t.Errorf("Category(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
