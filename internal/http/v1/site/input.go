package site

import "github.com/janisto/portfolio-generator/internal/portfolio"

// AssembleInput for POST /site/assemble
type AssembleInput struct {
	Body struct {
		Record portfolio.Record `json:"record"           doc:"Finalized profile record"`
		Themed bool             `json:"themed,omitempty" doc:"Include theme provider, toggle and dotted background"`
	}
}

// PreviewInput for GET /preview
type PreviewInput struct {
	Data string `query:"data" doc:"Legacy percent-encoded JSON record; used only when nothing was handed off"`
}
