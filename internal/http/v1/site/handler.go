package site

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/portfolio-generator/internal/assemble"
	"github.com/janisto/portfolio-generator/internal/platform/auth"
	"github.com/janisto/portfolio-generator/internal/portfolio"
	"github.com/janisto/portfolio-generator/internal/preview"
	draftstore "github.com/janisto/portfolio-generator/internal/service/draft"
)

// maxBodyBytes admits a record carrying a 5 MB embedded image after base64.
const maxBodyBytes = 8 << 20

// Register registers the site assembly and preview endpoints.
func Register(api huma.API, store draftstore.Store) {
	huma.Register(api, huma.Operation{
		OperationID:  "assemble-site",
		Method:       http.MethodPost,
		Path:         "/site/assemble",
		Summary:      "Generate the static site",
		Description:  "Validates a finalized record and returns the generated Next.js file set.",
		Tags:         []string{"Site"},
		MaxBodyBytes: maxBodyBytes,
	}, func(_ context.Context, input *AssembleInput) (*AssembleOutput, error) {
		record := &input.Body.Record
		if err := record.Validate(); err != nil {
			return nil, mapServiceError(err)
		}
		var opts []assemble.Option
		if input.Body.Themed {
			opts = append(opts, assemble.WithThemedComponents())
		}
		files, err := assemble.Assemble(record, opts...)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return &AssembleOutput{Body: Bundle{Paths: files.Paths(), Files: files}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-preview",
		Method:      http.MethodGet,
		Path:        "/preview",
		Summary:     "Preview the submitted portfolio",
		Description: "Renders the record handed off by the last submit. Falls back to the legacy data query parameter.",
		Tags:        []string{"Site"},
		Security:    auth.BearerSecurity,
		Responses: map[string]*huma.Response{
			"200": {
				Description: "HTML preview",
				Content:     map[string]*huma.MediaType{"text/html": {}},
			},
		},
	}, func(ctx context.Context, input *PreviewInput) (*PreviewOutput, error) {
		handoff := preview.NewHandoff(draftstore.Scoped(store, auth.IdentityFromContext(ctx).UID))
		query := url.Values{}
		if input.Data != "" {
			query.Set(preview.QueryParam, input.Data)
		}
		record, err := preview.Resolve(ctx, handoff, query)
		if err != nil {
			return nil, mapServiceError(err)
		}
		var buf bytes.Buffer
		if err := preview.Render(&buf, record); err != nil {
			return nil, mapServiceError(err)
		}
		return &PreviewOutput{ContentType: "text/html; charset=utf-8", Body: buf.Bytes()}, nil
	})
}

func mapServiceError(err error) error {
	var verr *portfolio.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]error, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, &huma.ErrorDetail{Location: "body.record." + f.Path, Message: f.Message})
		}
		return huma.Error422UnprocessableEntity("validation failed", details...)
	case errors.Is(err, preview.ErrNoRecord):
		return huma.Error404NotFound("no portfolio has been submitted")
	case errors.Is(err, preview.ErrPayloadTooLarge):
		return huma.NewError(http.StatusRequestEntityTooLarge, "preview payload too large")
	case errors.Is(err, preview.ErrInvalidPayload):
		return huma.Error400BadRequest("preview payload is not a valid portfolio record")
	default:
		return huma.Error500InternalServerError("internal error")
	}
}
