package draft

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/portfolio-generator/internal/form"
	"github.com/janisto/portfolio-generator/internal/platform/auth"
	applog "github.com/janisto/portfolio-generator/internal/platform/logging"
	appmiddleware "github.com/janisto/portfolio-generator/internal/platform/middleware"
	"github.com/janisto/portfolio-generator/internal/platform/respond"
	"github.com/janisto/portfolio-generator/internal/portfolio"
	"github.com/janisto/portfolio-generator/internal/preview"
	draftstore "github.com/janisto/portfolio-generator/internal/service/draft"
)

func newTestRouter(store draftstore.Store, verifier auth.Verifier) chi.Router {
	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(),
		respond.Recoverer(),
	)
	api := humachi.New(router, huma.DefaultConfig("DraftTest", "test"))
	api.UseMiddleware(auth.NewAuthMiddleware(api, verifier))
	Register(api, store, "/v1")
	return router
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer test-user-123")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeDraft(t *testing.T, resp *httptest.ResponseRecorder) Draft {
	t.Helper()
	var d Draft
	if err := json.Unmarshal(resp.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v (body=%s)", err, resp.Body.String())
	}
	return d
}

func validForm() portfolio.FormState {
	f := portfolio.DefaultFormState()
	f.FullName = "Ada Lovelace"
	f.Title = "Mathematician"
	f.About = "First programmer of the Analytical Engine."
	f.ThemeColor = portfolio.ThemePurple
	f.Roles = "Analyst,Visionary"
	f.Skills = "Math, Logic, Math"
	f.Experience[0] = portfolio.ExperienceForm{Company: "Analytical Engine", Role: "Programmer", Duration: "1842"}
	f.Projects[0] = portfolio.ProjectForm{Name: "Note G"}
	f.Education[0] = portfolio.EducationForm{School: "Home", Degree: "Tutoring", Year: "1830"}
	return f
}

func TestDraftRequiresAuth(t *testing.T) {
	router := newTestRouter(draftstore.NewMemoryStore(), &auth.MockVerifier{Identity: auth.TestIdentity()})

	req := httptest.NewRequest(http.MethodGet, "/draft", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if resp.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Error("expected WWW-Authenticate header")
	}
}

func TestGetDraftDefaults(t *testing.T) {
	router := newTestRouter(draftstore.NewMemoryStore(), auth.TokenVerifier{})

	resp := do(t, router, http.MethodGet, "/draft", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	d := decodeDraft(t, resp)
	if d.Restored {
		t.Error("expected no restored snapshot")
	}
	if d.Form.ThemeColor != portfolio.ThemeBlue {
		t.Errorf("expected blue default, got %q", d.Form.ThemeColor)
	}
	if len(d.Form.Experience) != 1 || len(d.Form.Projects) != 1 || len(d.Form.Education) != 1 {
		t.Errorf("expected one blank row per section, got %+v", d.Form)
	}
}

func TestUpdateFieldPersistsAndReportsIssues(t *testing.T) {
	store := draftstore.NewMemoryStore()
	router := newTestRouter(store, auth.TokenVerifier{})

	resp := do(t, router, http.MethodPatch, "/draft", map[string]string{"path": "fullName", "value": "A"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	d := decodeDraft(t, resp)
	if d.Form.FullName != "A" {
		t.Errorf("expected fullName A, got %q", d.Form.FullName)
	}
	if len(d.Issues) != 1 || d.Issues[0].Message != "Name is required" {
		t.Errorf("unexpected issues %+v", d.Issues)
	}

	resp = do(t, router, http.MethodGet, "/draft", nil)
	d = decodeDraft(t, resp)
	if !d.Restored || d.Form.FullName != "A" {
		t.Errorf("expected persisted edit, got %+v", d)
	}
}

func TestUpdateAcceptsLargeEmbeddedImage(t *testing.T) {
	store := draftstore.NewMemoryStore()
	router := newTestRouter(store, auth.TokenVerifier{})

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 2<<20)...)
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	if err := portfolio.CheckProfileImage(ref); err != nil {
		t.Fatalf("fixture should be a valid image: %v", err)
	}

	resp := do(t, router, http.MethodPatch, "/draft", map[string]string{"path": "profileImage", "value": ref})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %.200s", resp.Code, resp.Body.String())
	}
	d := decodeDraft(t, resp)
	if d.Form.ProfileImage != ref {
		t.Error("expected image to be stored on the form")
	}
	if len(d.Issues) != 0 {
		t.Errorf("unexpected issues %+v", d.Issues)
	}
}

func TestUpdateFieldErrors(t *testing.T) {
	router := newTestRouter(draftstore.NewMemoryStore(), auth.TokenVerifier{})

	tests := []struct {
		path   string
		status int
	}{
		{"nickname", http.StatusBadRequest},
		{"experience.7.company", http.StatusNotFound},
	}
	for _, tt := range tests {
		resp := do(t, router, http.MethodPatch, "/draft", map[string]string{"path": tt.path, "value": "x"})
		if resp.Code != tt.status {
			t.Errorf("path %s: expected %d, got %d: %s", tt.path, tt.status, resp.Code, resp.Body.String())
		}
	}
}

func TestSectionEntries(t *testing.T) {
	router := newTestRouter(draftstore.NewMemoryStore(), auth.TokenVerifier{})

	resp := do(t, router, http.MethodPost, "/draft/sections/projects/entries", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if loc := resp.Header().Get("Location"); loc != "/v1/draft" {
		t.Errorf("unexpected Location %q", loc)
	}
	if d := decodeDraft(t, resp); len(d.Form.Projects) != 2 {
		t.Fatalf("expected 2 project rows, got %d", len(d.Form.Projects))
	}

	resp = do(t, router, http.MethodDelete, "/draft/sections/projects/entries/1", nil)
	d := decodeDraft(t, resp)
	if d.Changed == nil || !*d.Changed || len(d.Form.Projects) != 1 {
		t.Errorf("expected row removed, got changed=%v rows=%d", d.Changed, len(d.Form.Projects))
	}

	resp = do(t, router, http.MethodDelete, "/draft/sections/projects/entries/0", nil)
	d = decodeDraft(t, resp)
	if d.Changed == nil || *d.Changed || len(d.Form.Projects) != 1 {
		t.Errorf("expected last row kept, got changed=%v rows=%d", d.Changed, len(d.Form.Projects))
	}

	resp = do(t, router, http.MethodPost, "/draft/sections/hobbies/entries", nil)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unknown section enum, got %d", resp.Code)
	}
}

func TestSkills(t *testing.T) {
	router := newTestRouter(draftstore.NewMemoryStore(), auth.TokenVerifier{})

	d := decodeDraft(t, do(t, router, http.MethodPost, "/draft/skills", map[string]string{"skill": " Go "}))
	if d.Changed == nil || !*d.Changed || d.Form.Skills != "Go" {
		t.Fatalf("unexpected draft after add: %+v", d)
	}
	d = decodeDraft(t, do(t, router, http.MethodPost, "/draft/skills", map[string]string{"skill": "Go"}))
	if d.Changed == nil || *d.Changed {
		t.Error("expected duplicate skill to be ignored")
	}
	d = decodeDraft(t, do(t, router, http.MethodPost, "/draft/skills", map[string]string{"skill": "go"}))
	if d.Form.Skills != "Go,go" {
		t.Errorf("expected case-sensitive add, got %q", d.Form.Skills)
	}
	d = decodeDraft(t, do(t, router, http.MethodDelete, "/draft/skills/Go", nil))
	if d.Changed == nil || !*d.Changed || d.Form.Skills != "go" {
		t.Errorf("unexpected draft after remove: %+v", d)
	}
}

func TestClearDraft(t *testing.T) {
	store := draftstore.NewMemoryStore()
	router := newTestRouter(store, auth.TokenVerifier{})
	do(t, router, http.MethodPatch, "/draft", map[string]string{"path": "title", "value": "Engineer"})

	resp := do(t, router, http.MethodDelete, "/draft", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without confirmation, got %d", resp.Code)
	}
	if _, err := store.Get(context.Background(), "test-user-123:"+form.DraftKey); err != nil {
		t.Fatalf("expected draft to survive: %v", err)
	}

	resp = do(t, router, http.MethodDelete, "/draft?confirm=true", nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if _, err := store.Get(context.Background(), "test-user-123:"+form.DraftKey); !errors.Is(err, draftstore.ErrNotFound) {
		t.Fatalf("expected draft removed, got %v", err)
	}
}

func TestSubmit(t *testing.T) {
	store := draftstore.NewMemoryStore()
	router := newTestRouter(store, auth.TokenVerifier{})

	resp := do(t, router, http.MethodPost, "/draft/submit", nil)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty form, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "body.fullName") {
		t.Errorf("expected field location in problem, got %s", resp.Body.String())
	}

	if resp := do(t, router, http.MethodPut, "/draft", validForm()); resp.Code != http.StatusOK {
		t.Fatalf("replace: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	resp = do(t, router, http.MethodPost, "/draft/submit", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var sub Submission
	if err := json.Unmarshal(resp.Body.Bytes(), &sub); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sub.PreviewURL != "/v1/preview" {
		t.Errorf("unexpected preview url %q", sub.PreviewURL)
	}
	if got := sub.Record.Skills; len(got) != 3 || got[2] != "Math" {
		t.Errorf("expected submit-time split without dedupe, got %v", got)
	}

	handed, err := preview.NewHandoff(draftstore.Scoped(store, "test-user-123")).Load(context.Background())
	if err != nil {
		t.Fatalf("expected hand-off record: %v", err)
	}
	if handed.FullName != "Ada Lovelace" {
		t.Errorf("unexpected hand-off record %+v", handed)
	}
}

func TestDraftsAreScopedPerUser(t *testing.T) {
	store := draftstore.NewMemoryStore()
	router := newTestRouter(store, auth.TokenVerifier{})
	do(t, router, http.MethodPatch, "/draft", map[string]string{"path": "fullName", "value": "Ada"})

	req := httptest.NewRequest(http.MethodGet, "/draft", nil)
	req.Header.Set("Authorization", "Bearer someone-else")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if d := decodeDraft(t, resp); d.Form.FullName != "" || d.Restored {
		t.Errorf("expected an empty draft for another user, got %+v", d)
	}
}
