package github

import (
	"context"
	"crypto/sha1" //nolint:gosec // git object ids are sha1
	"encoding/hex"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
)

type mockRepo struct {
	repo Repo
	refs map[string]string
}

// MockGitHubService is an in-memory git host implementing Service. Objects are
// content-addressed like git, refs only move forward, and failures can be
// injected per method.
type MockGitHubService struct {
	mu       sync.Mutex
	user     User
	repos    map[string]*mockRepo
	blobs    map[string]string
	trees    map[string]map[string]string
	commits  map[string]*Commit
	failures map[string]error
	calls    []string
	seq      int
}

// NewMockGitHubService creates an empty host authenticated as octocat.
func NewMockGitHubService() *MockGitHubService {
	return &MockGitHubService{
		user: User{
			Login:   "octocat",
			Name:    "The Octocat",
			HTMLURL: "https://github.com/octocat",
		},
		repos:    map[string]*mockRepo{},
		blobs:    map[string]string{},
		trees:    map[string]map[string]string{"": {}},
		commits:  map[string]*Commit{},
		failures: map[string]error{},
	}
}

// Factory returns a ClientFactory that hands out this mock for every token.
func (m *MockGitHubService) Factory() ClientFactory {
	return func(string) Service { return m }
}

// FailOn makes every later call to method return err. A nil err clears it.
func (m *MockGitHubService) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, method)
		return
	}
	m.failures[method] = err
}

// Calls returns the method names invoked so far, in order.
func (m *MockGitHubService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Files returns path to content at the tip of repo's default branch.
func (m *MockGitHubService) Files(repo string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.repos[repo]
	if !ok {
		return nil, notFound("repository not found")
	}
	tip, ok := r.refs["heads/"+r.repo.DefaultBranch]
	if !ok {
		return map[string]string{}, nil
	}
	files := make(map[string]string)
	for path, blob := range m.trees[m.commits[tip].TreeSHA] {
		files[path] = m.blobs[blob]
	}
	return files, nil
}

// History returns commit messages from the default branch tip back to the root.
func (m *MockGitHubService) History(repo string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.repos[repo]
	if !ok {
		return nil
	}
	var out []string
	sha := r.refs["heads/"+r.repo.DefaultBranch]
	for sha != "" {
		c := m.commits[sha]
		out = append(out, c.Message)
		if len(c.Parents) == 0 {
			break
		}
		sha = c.Parents[0]
	}
	return out
}

func (m *MockGitHubService) enter(method string) error {
	m.calls = append(m.calls, method)
	return m.failures[method]
}

func (m *MockGitHubService) lookup(owner, repo string) (*mockRepo, error) {
	if owner != m.user.Login {
		return nil, notFound("owner not found")
	}
	r, ok := m.repos[repo]
	if !ok {
		return nil, notFound("repository not found")
	}
	return r, nil
}

func (m *MockGitHubService) GetAuthenticatedUser(_ context.Context) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetAuthenticatedUser"); err != nil {
		return nil, err
	}
	u := m.user
	return &u, nil
}

func (m *MockGitHubService) GetRepo(_ context.Context, owner, repo string) (*Repo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetRepo"); err != nil {
		return nil, err
	}
	r, err := m.lookup(owner, repo)
	if err != nil {
		return nil, err
	}
	out := r.repo
	return &out, nil
}

func (m *MockGitHubService) CreateRepo(_ context.Context, params CreateRepoParams) (*Repo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateRepo"); err != nil {
		return nil, err
	}
	if _, exists := m.repos[params.Name]; exists {
		return nil, &UpstreamError{
			Kind:    UpstreamErrorKindUnprocessable,
			Status:  http.StatusUnprocessableEntity,
			Message: "name already exists on this account",
			cause:   ErrUnprocessable,
		}
	}
	r := &mockRepo{
		repo: Repo{
			Name:          params.Name,
			FullName:      m.user.Login + "/" + params.Name,
			Description:   params.Description,
			HTMLURL:       "https://github.com/" + m.user.Login + "/" + params.Name,
			DefaultBranch: "main",
			Private:       params.Private,
		},
		refs: map[string]string{},
	}
	if params.AutoInit {
		readme := m.putBlob("# " + params.Name + "\n\n" + params.Description + "\n")
		tree := m.putTree(map[string]string{"README.md": readme})
		r.refs["heads/main"] = m.putCommit("Initial commit", tree, nil)
	}
	m.repos[params.Name] = r
	out := r.repo
	return &out, nil
}

func (m *MockGitHubService) GetRef(_ context.Context, owner, repo, ref string) (*Ref, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetRef"); err != nil {
		return nil, err
	}
	r, err := m.lookup(owner, repo)
	if err != nil {
		return nil, err
	}
	if len(r.refs) == 0 {
		return nil, &UpstreamError{
			Kind:    UpstreamErrorKindConflict,
			Status:  http.StatusConflict,
			Message: "Git Repository is empty.",
			cause:   ErrConflict,
		}
	}
	sha, ok := r.refs[ref]
	if !ok {
		return nil, notFound("ref not found")
	}
	return &Ref{Ref: "refs/" + ref, SHA: sha}, nil
}

func (m *MockGitHubService) GetCommit(_ context.Context, owner, repo, sha string) (*Commit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetCommit"); err != nil {
		return nil, err
	}
	if _, err := m.lookup(owner, repo); err != nil {
		return nil, err
	}
	c, ok := m.commits[sha]
	if !ok {
		return nil, notFound("commit not found")
	}
	out := *c
	out.Parents = slices.Clone(c.Parents)
	return &out, nil
}

func (m *MockGitHubService) CreateBlob(_ context.Context, owner, repo, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateBlob"); err != nil {
		return "", err
	}
	if _, err := m.lookup(owner, repo); err != nil {
		return "", err
	}
	return m.putBlob(content), nil
}

func (m *MockGitHubService) CreateTree(
	_ context.Context, owner, repo, baseTree string, entries []TreeEntry,
) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateTree"); err != nil {
		return "", err
	}
	if _, err := m.lookup(owner, repo); err != nil {
		return "", err
	}
	base, ok := m.trees[baseTree]
	if !ok {
		return "", unprocessable("base_tree is not a valid tree")
	}
	files := maps.Clone(base)
	for _, e := range entries {
		if _, ok := m.blobs[e.SHA]; !ok || e.Type != TypeBlob {
			return "", unprocessable("tree entry " + e.Path + " does not reference a blob")
		}
		files[e.Path] = e.SHA
	}
	return m.putTree(files), nil
}

func (m *MockGitHubService) CreateCommit(
	_ context.Context, owner, repo string, params CreateCommitParams,
) (*Commit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateCommit"); err != nil {
		return nil, err
	}
	if _, err := m.lookup(owner, repo); err != nil {
		return nil, err
	}
	if _, ok := m.trees[params.Tree]; !ok {
		return nil, unprocessable("tree is not a valid tree")
	}
	for _, p := range params.Parents {
		if _, ok := m.commits[p]; !ok {
			return nil, unprocessable("parent is not a valid commit")
		}
	}
	sha := m.putCommit(params.Message, params.Tree, params.Parents)
	out := *m.commits[sha]
	return &out, nil
}

func (m *MockGitHubService) UpdateRef(_ context.Context, owner, repo, ref, sha string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateRef"); err != nil {
		return err
	}
	r, err := m.lookup(owner, repo)
	if err != nil {
		return err
	}
	current, ok := r.refs[ref]
	if !ok {
		return unprocessable("Reference does not exist")
	}
	if _, ok := m.commits[sha]; !ok {
		return unprocessable("Object does not exist")
	}
	if !m.isAncestor(current, sha) {
		err := unprocessable("Update is not a fast forward")
		err.cause = ErrNotFastForward
		return err
	}
	r.refs[ref] = sha
	return nil
}

func (m *MockGitHubService) isAncestor(ancestor, sha string) bool {
	queue := []string{sha}
	seen := map[string]bool{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == ancestor {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if c, ok := m.commits[cur]; ok {
			queue = append(queue, c.Parents...)
		}
	}
	return false
}

func (m *MockGitHubService) putBlob(content string) string {
	sha := objectID(fmt.Sprintf("blob %d\x00%s", len(content), content))
	m.blobs[sha] = content
	return sha
}

func (m *MockGitHubService) putTree(files map[string]string) string {
	var b strings.Builder
	for _, path := range slices.Sorted(maps.Keys(files)) {
		fmt.Fprintf(&b, "%s %s %s\n", ModeFile, path, files[path])
	}
	sha := objectID("tree " + b.String())
	m.trees[sha] = files
	return sha
}

func (m *MockGitHubService) putCommit(message, tree string, parents []string) string {
	m.seq++
	sha := objectID(fmt.Sprintf("commit %d\ntree %s\nparents %s\n\n%s",
		m.seq, tree, strings.Join(parents, " "), message))
	m.commits[sha] = &Commit{
		SHA:     sha,
		TreeSHA: tree,
		Message: message,
		Parents: slices.Clone(parents),
	}
	return sha
}

func objectID(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec // git object ids are sha1
	return hex.EncodeToString(sum[:])
}

func notFound(msg string) *UpstreamError {
	return &UpstreamError{
		Kind:    UpstreamErrorKindNotFound,
		Status:  http.StatusNotFound,
		Message: msg,
		cause:   ErrNotFound,
	}
}

func unprocessable(msg string) *UpstreamError {
	return &UpstreamError{
		Kind:    UpstreamErrorKindUnprocessable,
		Status:  http.StatusUnprocessableEntity,
		Message: msg,
		cause:   ErrUnprocessable,
	}
}

// Compile-time interface check
var _ Service = (*MockGitHubService)(nil)
