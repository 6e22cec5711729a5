package deploy

import (
	"context"
	"strings"
	"sync"
)

// MockDeployer records requests and returns a fixed deployment or error.
type MockDeployer struct {
	mu       sync.Mutex
	Err      error
	requests []Request
}

func (m *MockDeployer) Deploy(_ context.Context, req Request) (*Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return &Deployment{
		ID:  "dpl_mock",
		URL: "https://" + strings.ReplaceAll(req.Name, "/", "-") + ".vercel.app",
	}, nil
}

// Requests returns the deployment requests received so far.
func (m *MockDeployer) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

var _ Deployer = (*MockDeployer)(nil)
