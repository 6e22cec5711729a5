package publish

import (
	"errors"
	"fmt"

	"github.com/janisto/portfolio-generator/internal/portfolio"
)

// Step names one stage of the publish pipeline.
type Step string

const (
	StepAuthenticate      Step = "authenticate"
	StepEnsureRepository  Step = "ensureRepository"
	StepGetDefaultBranch  Step = "getDefaultBranch"
	StepGetTipCommit      Step = "getTipCommit"
	StepCreateBlobs       Step = "createBlobs"
	StepCreateTree        Step = "createTree"
	StepCreateCommit      Step = "createCommit"
	StepAdvanceRef        Step = "advanceRef"
	StepRequestDeployment Step = "requestDeployment"
)

// AuthenticationRequiredError means no usable delegated credential was
// presented, or GitHub rejected it.
type AuthenticationRequiredError struct {
	Err error
}

func (e *AuthenticationRequiredError) Error() string {
	if e.Err == nil {
		return "authentication required"
	}
	return "authentication required: " + e.Err.Error()
}

func (e *AuthenticationRequiredError) Unwrap() error { return e.Err }

// MissingFieldError reports a publish request without a required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing required field: " + e.Field
}

type RepositoryCreationError struct {
	Name string
	Err  error
}

func (e *RepositoryCreationError) Error() string {
	return fmt.Sprintf("creating repository %q: %v", e.Name, e.Err)
}

func (e *RepositoryCreationError) Unwrap() error { return e.Err }

// RefUpdateConflictError means the branch moved while the commit was being
// built. The branch is left where the other writer put it.
type RefUpdateConflictError struct {
	Ref string
	Err error
}

func (e *RefUpdateConflictError) Error() string {
	return fmt.Sprintf("advancing %s: %v", e.Ref, e.Err)
}

func (e *RefUpdateConflictError) Unwrap() error { return e.Err }

// DeploymentError is non-fatal: the commit already landed.
type DeploymentError struct {
	Err error
}

func (e *DeploymentError) Error() string {
	return "deployment failed: " + e.Err.Error()
}

func (e *DeploymentError) Unwrap() error { return e.Err }

// StepError wraps any other upstream failure with the step it happened in.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("publish %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Category buckets err for audit logs without leaking upstream messages.
func Category(err error) string {
	var (
		authErr     *AuthenticationRequiredError
		missingErr  *MissingFieldError
		validErr    *portfolio.ValidationError
		createErr   *RepositoryCreationError
		conflictErr *RefUpdateConflictError
		deployErr   *DeploymentError
		stepErr     *StepError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &authErr):
		return "authentication"
	case errors.As(err, &missingErr):
		return "missing_field"
	case errors.As(err, &validErr):
		return "validation"
	case errors.As(err, &createErr):
		return "repository_creation"
	case errors.As(err, &conflictErr):
		return "ref_conflict"
	case errors.As(err, &deployErr):
		return "deployment"
	case errors.As(err, &stepErr):
		return "upstream_" + string(stepErr.Step)
	}
	return "internal"
}
