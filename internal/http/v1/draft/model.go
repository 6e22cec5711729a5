package draft

import (
	"github.com/janisto/portfolio-generator/internal/platform/timeutil"
	"github.com/janisto/portfolio-generator/internal/portfolio"
)

// Draft is the signed-in user's editing form.
type Draft struct {
	Form      portfolio.FormState   `json:"form"                doc:"Raw form state"`
	Restored  bool                  `json:"restored,omitempty"  doc:"A saved snapshot was loaded"`
	Changed   *bool                 `json:"changed,omitempty"   doc:"Whether the operation modified the form"`
	Issues    portfolio.FieldErrors `json:"issues,omitempty"    doc:"Validation issues for the edited field"`
	UpdatedAt timeutil.Time         `json:"updatedAt"           doc:"Response timestamp"   example:"2026-10-19T10:30:00.000Z"`
}

// Submission is the finalized record produced by a successful submit.
type Submission struct {
	Record     *portfolio.Record `json:"record"`
	PreviewURL string            `json:"previewUrl" doc:"Preview page for the handed-off record" example:"/v1/preview"`
}
