// Package site exposes the site assembler as an HTTP Cloud Function, for
// deployments that only need generation without drafts or publishing.
package site

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/janisto/portfolio-generator/internal/assemble"
	"github.com/janisto/portfolio-generator/internal/portfolio"
)

// RFC3339Millis matches the main project's timestamp format.
const RFC3339Millis = "2006-01-02T15:04:05.000Z"

const maxBody = 8 << 20

func init() {
	functions.HTTP("AssembleSite", assembleHandler)
}

// Request is the function request body.
type Request struct {
	Record *portfolio.Record `json:"record"`
	Themed bool              `json:"themed"`
}

// Response lists the generated files in write order.
type Response struct {
	Paths       []string          `json:"paths"`
	Files       map[string]string `json:"files"`
	GeneratedAt string            `json:"generatedAt"`
}

// Problem is the error body.
type Problem struct {
	Status int                   `json:"status"`
	Detail string                `json:"detail"`
	Errors portfolio.FieldErrors `json:"errors,omitempty"`
}

func assembleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, Problem{Status: http.StatusMethodNotAllowed, Detail: "method not allowed"})
		return
	}

	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil || req.Record == nil {
		writeJSON(w, http.StatusBadRequest, Problem{Status: http.StatusBadRequest, Detail: "request body must contain a record"})
		return
	}
	if err := req.Record.Validate(); err != nil {
		var verr *portfolio.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, Problem{
				Status: http.StatusUnprocessableEntity,
				Detail: "validation failed",
				Errors: verr.Fields,
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, Problem{Status: http.StatusBadRequest, Detail: err.Error()})
		return
	}

	var opts []assemble.Option
	if req.Themed {
		opts = append(opts, assemble.WithThemedComponents())
	}
	files, err := assemble.Assemble(req.Record, opts...)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Problem{Status: http.StatusInternalServerError, Detail: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Paths:       files.Paths(),
		Files:       files,
		GeneratedAt: time.Now().UTC().Format(RFC3339Millis),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
