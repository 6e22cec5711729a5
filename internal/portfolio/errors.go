package portfolio

import (
	"errors"
	"strings"
)

var (
	ErrUnknownField    = errors.New("unknown field")
	ErrUnknownSection  = errors.New("unknown section")
	ErrIndexOutOfRange = errors.New("entry index out of range")
)

// FieldError is one field-level issue, addressed by a dotted path such as
// "experience.0.company".
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type FieldErrors []FieldError

// ValidationError reports every failing field of a record or form.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Path+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
