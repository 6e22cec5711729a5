package draft

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/portfolio-generator/internal/form"
	"github.com/janisto/portfolio-generator/internal/platform/auth"
	applog "github.com/janisto/portfolio-generator/internal/platform/logging"
	"github.com/janisto/portfolio-generator/internal/platform/timeutil"
	"github.com/janisto/portfolio-generator/internal/portfolio"
	"github.com/janisto/portfolio-generator/internal/preview"
	draftstore "github.com/janisto/portfolio-generator/internal/service/draft"
)

// maxBodyBytes admits a form carrying a 5 MB embedded image after base64.
const maxBodyBytes = 8 << 20

// Register registers draft endpoints. Drafts live in store, scoped per user.
func Register(api huma.API, store draftstore.Store, prefix string) {
	tags := []string{"Draft"}

	huma.Register(api, huma.Operation{
		OperationID: "get-draft",
		Method:      http.MethodGet,
		Path:        "/draft",
		Summary:     "Get the current draft",
		Description: "Loads the saved form, or the defaults with one blank row per section.",
		Tags:        tags,
		Security:    auth.BearerSecurity,
	}, func(ctx context.Context, _ *DraftGetInput) (*DraftOutput, error) {
		m, restored := open(ctx, store)
		d := toDraft(m)
		d.Restored = restored
		return &DraftOutput{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:  "replace-draft",
		Method:       http.MethodPut,
		Path:         "/draft",
		Summary:      "Replace the draft",
		Description:  "Overwrites the whole form, for imports.",
		Tags:         tags,
		Security:     auth.BearerSecurity,
		MaxBodyBytes: maxBodyBytes,
	}, func(ctx context.Context, input *DraftReplaceInput) (*DraftOutput, error) {
		m, _ := open(ctx, store)
		m.Replace(ctx, input.Body)
		return &DraftOutput{Body: toDraft(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:  "update-draft-field",
		Method:       http.MethodPatch,
		Path:         "/draft",
		Summary:      "Update one draft field",
		Description:  "Sets a field by path, e.g. fullName or projects.0.link, and returns that field's validation issues.",
		Tags:         tags,
		Security:     auth.BearerSecurity,
		MaxBodyBytes: maxBodyBytes,
	}, func(ctx context.Context, input *DraftUpdateInput) (*DraftOutput, error) {
		m, _ := open(ctx, store)
		issues, err := m.Update(ctx, input.Body.Path, input.Body.Value)
		if err != nil {
			return nil, mapServiceError(err)
		}
		d := toDraft(m)
		d.Issues = issues
		return &DraftOutput{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "clear-draft",
		Method:        http.MethodDelete,
		Path:          "/draft",
		Summary:       "Clear the draft",
		Description:   "Resets the form to defaults and deletes the saved snapshot. Requires confirm=true.",
		Tags:          tags,
		DefaultStatus: http.StatusNoContent,
		Security:      auth.BearerSecurity,
	}, func(ctx context.Context, input *DraftClearInput) (*struct{}, error) {
		m, _ := open(ctx, store)
		if err := m.ClearAll(ctx, input.Confirm); err != nil {
			return nil, mapServiceError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "append-draft-entry",
		Method:        http.MethodPost,
		Path:          "/draft/sections/{section}/entries",
		Summary:       "Append a blank row",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
		Security:      auth.BearerSecurity,
	}, func(ctx context.Context, input *EntryAppendInput) (*EntryAppendOutput, error) {
		m, _ := open(ctx, store)
		if err := m.AppendEntry(ctx, input.Section); err != nil {
			return nil, mapServiceError(err)
		}
		return &EntryAppendOutput{Location: prefix + "/draft", Body: toDraft(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-draft-entry",
		Method:      http.MethodDelete,
		Path:        "/draft/sections/{section}/entries/{index}",
		Summary:     "Remove a row",
		Description: "Removes a row. The last row of a section is kept and changed is false.",
		Tags:        tags,
		Security:    auth.BearerSecurity,
	}, func(ctx context.Context, input *EntryRemoveInput) (*DraftOutput, error) {
		m, _ := open(ctx, store)
		removed, err := m.RemoveEntry(ctx, input.Section, input.Index)
		if err != nil {
			return nil, mapServiceError(err)
		}
		d := toDraft(m)
		d.Changed = &removed
		return &DraftOutput{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-draft-skill",
		Method:      http.MethodPost,
		Path:        "/draft/skills",
		Summary:     "Add a skill",
		Description: "Adds a skill token unless it is already listed (case-sensitive).",
		Tags:        tags,
		Security:    auth.BearerSecurity,
	}, func(ctx context.Context, input *SkillAddInput) (*DraftOutput, error) {
		m, _ := open(ctx, store)
		added := m.AddSkill(ctx, input.Body.Skill)
		d := toDraft(m)
		d.Changed = &added
		return &DraftOutput{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-draft-skill",
		Method:      http.MethodDelete,
		Path:        "/draft/skills/{skill}",
		Summary:     "Remove a skill",
		Tags:        tags,
		Security:    auth.BearerSecurity,
	}, func(ctx context.Context, input *SkillRemoveInput) (*DraftOutput, error) {
		m, _ := open(ctx, store)
		removed := m.RemoveSkill(ctx, input.Skill)
		d := toDraft(m)
		d.Changed = &removed
		return &DraftOutput{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-draft",
		Method:      http.MethodPost,
		Path:        "/draft/submit",
		Summary:     "Submit the draft",
		Description: "Validates the whole form, hands the finalized record to the preview and returns it.",
		Tags:        tags,
		Security:    auth.BearerSecurity,
	}, func(ctx context.Context, _ *DraftSubmitInput) (*DraftSubmitOutput, error) {
		m, _ := open(ctx, store)
		record, err := m.Submit(ctx)
		if err != nil {
			return nil, mapServiceError(err)
		}
		if err := preview.NewHandoff(userStore(ctx, store)).Save(ctx, record); err != nil {
			applog.LogWarn(ctx, "preview hand-off save failed", zap.Error(err))
		}
		return &DraftSubmitOutput{Body: Submission{Record: record, PreviewURL: prefix + "/preview"}}, nil
	})
}

func userStore(ctx context.Context, store draftstore.Store) draftstore.Store {
	return draftstore.Scoped(store, auth.IdentityFromContext(ctx).UID)
}

// open builds a manager over the caller's scoped store and loads the snapshot.
func open(ctx context.Context, store draftstore.Store) (*form.Manager, bool) {
	m := form.NewManager(userStore(ctx, store), form.WithOwner(auth.IdentityFromContext(ctx).UID))
	restored := m.Load(ctx)
	return m, restored
}

func toDraft(m *form.Manager) Draft {
	return Draft{Form: m.State(), UpdatedAt: timeutil.Now()}
}

// validationProblem converts field errors into a 422 with one detail per field.
func validationProblem(verr *portfolio.ValidationError) error {
	details := make([]error, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		details = append(details, &huma.ErrorDetail{Location: "body." + f.Path, Message: f.Message})
	}
	return huma.Error422UnprocessableEntity("validation failed", details...)
}

func mapServiceError(err error) error {
	var verr *portfolio.ValidationError
	switch {
	case errors.As(err, &verr):
		return validationProblem(verr)
	case errors.Is(err, form.ErrConfirmationRequired):
		return huma.Error400BadRequest("clearing the draft requires confirm=true")
	case errors.Is(err, portfolio.ErrUnknownField):
		return huma.Error400BadRequest("unknown field path")
	case errors.Is(err, portfolio.ErrUnknownSection):
		return huma.Error400BadRequest("unknown section")
	case errors.Is(err, portfolio.ErrIndexOutOfRange):
		return huma.Error404NotFound("entry not found")
	default:
		return huma.Error500InternalServerError("internal error")
	}
}
