package deploy

import (
	"context"
	"errors"
	"fmt"
)

// Service errors
var (
	ErrUnauthorized = errors.New("deployment credential rejected")
	ErrRejected     = errors.New("deployment request rejected")
	ErrUpstream     = errors.New("deployment upstream error")
)

// Request identifies the git source a deployment builds from.
type Request struct {
	// Name is the project name on the deployment platform.
	Name string
	// Repo is "owner/name" on GitHub.
	Repo string
	// Ref is the branch to build.
	Ref string
}

type Deployment struct {
	ID  string
	URL string
}

// Error carries the platform's status and error code.
type Error struct {
	Status  int
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("deployment failed (status=%d", e.Status)
	if e.Code != "" {
		msg += " code=" + e.Code
	}
	msg += ")"
	if e.Message != "" {
		msg += " " + e.Message
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Deployer requests a build of a git branch on a hosting platform.
type Deployer interface {
	Deploy(ctx context.Context, req Request) (*Deployment, error)
}
