// Package form owns a live portfolio draft: field edits, repeatable rows,
// skill tokens, submission, and continuous persistence to a draft store.
//
// Persistence is best effort. Store failures are logged and never returned,
// so a broken backend cannot block editing.
package form

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	applog "github.com/janisto/portfolio-generator/internal/platform/logging"
	"github.com/janisto/portfolio-generator/internal/portfolio"
	"github.com/janisto/portfolio-generator/internal/service/draft"
)

// DraftKey is the store key holding the raw form snapshot.
const DraftKey = "portfolioFormData"

var ErrConfirmationRequired = errors.New("clearing the draft requires confirmation")

type Manager struct {
	mu    sync.Mutex
	store draft.Store
	key   string
	owner string
	state portfolio.FormState
}

type Option func(*Manager)

// WithKey overrides the snapshot key.
func WithKey(key string) Option {
	return func(m *Manager) { m.key = key }
}

// WithOwner tags audit events with the draft owner's user ID.
func WithOwner(uid string) Option {
	return func(m *Manager) { m.owner = uid }
}

// NewManager starts from DefaultFormState; call Load to rehydrate.
func NewManager(store draft.Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		key:   DraftKey,
		state: portfolio.DefaultFormState(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load replaces the state with the persisted snapshot. It reports whether a
// snapshot was restored; missing or corrupt snapshots leave the defaults.
func (m *Manager) Load(ctx context.Context) bool {
	raw, err := m.store.Get(ctx, m.key)
	if errors.Is(err, draft.ErrNotFound) {
		return false
	}
	if err != nil {
		applog.LogWarn(ctx, "draft load failed", zap.String("key", m.key), zap.Error(err))
		return false
	}

	state := portfolio.DefaultFormState()
	if err := json.Unmarshal(raw, &state); err != nil {
		applog.LogWarn(ctx, "draft snapshot is corrupt, using defaults",
			zap.String("key", m.key), zap.Error(err))
		return false
	}
	state.Normalize()

	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
	return true
}

// Replace overwrites the whole form, for imports and resets with external data.
func (m *Manager) Replace(ctx context.Context, state portfolio.FormState) {
	state = state.Clone()
	state.Normalize()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.persist(ctx)
}

// State returns a deep copy of the current form.
func (m *Manager) State() portfolio.FormState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Update sets one field and returns that field's validation issues. An
// embedded profile image that is too large or not an image is refused and
// the field keeps its previous value.
func (m *Manager) Update(ctx context.Context, path, value string) (portfolio.FieldErrors, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if path == "profileImage" {
		err := portfolio.CheckProfileImage(value)
		if errors.Is(err, portfolio.ErrImageTooLarge) || errors.Is(err, portfolio.ErrNotAnImage) {
			return m.state.WithProfileImage(value).ValidateField(path), nil
		}
	}
	if err := m.state.Set(path, value); err != nil {
		return nil, err
	}
	m.persist(ctx)
	return m.state.ValidateField(path), nil
}

// AppendEntry adds a blank row to a repeatable section.
func (m *Manager) AppendEntry(ctx context.Context, section string) error {
	sec, err := portfolio.ParseSection(section)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.state.AppendBlank(sec); err != nil {
		return err
	}
	m.persist(ctx)
	return nil
}

// RemoveEntry deletes row index. Removing the only row of a section is
// refused: it returns false and leaves the state untouched.
func (m *Manager) RemoveEntry(ctx context.Context, section string, index int) (bool, error) {
	sec, err := portfolio.ParseSection(section)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	removed, err := m.state.RemoveAt(sec, index)
	if err != nil || !removed {
		return false, err
	}
	m.persist(ctx)
	return true, nil
}

// AddSkill trims token and appends it unless the parsed skill list already
// holds it (case-sensitive). A token containing commas adds each part.
// It reports whether anything was added.
func (m *Manager) AddSkill(ctx context.Context, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	skills := portfolio.SplitList(m.state.Skills)
	added := false
	for _, t := range portfolio.SplitList(token) {
		if !slices.Contains(skills, t) {
			skills = append(skills, t)
			added = true
		}
	}
	if !added {
		return false
	}
	m.state.Skills = portfolio.JoinList(skills)
	m.persist(ctx)
	return true
}

// RemoveSkill drops every occurrence of token from the skill list.
func (m *Manager) RemoveSkill(ctx context.Context, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	skills := portfolio.SplitList(m.state.Skills)
	n := len(skills)
	kept := slices.DeleteFunc(skills, func(s string) bool { return s == token })
	if len(kept) == n {
		return false
	}
	m.state.Skills = portfolio.JoinList(kept)
	m.persist(ctx)
	return true
}

// Submit validates the whole form. On failure it returns a
// *portfolio.ValidationError and nothing is forwarded; on success the raw
// snapshot is saved and the display record returned.
func (m *Manager) Submit(ctx context.Context) (*portfolio.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.state.Validate(); err != nil {
		var verr *portfolio.ValidationError
		if errors.As(err, &verr) {
			applog.LogAuditEvent(ctx, applog.AuditEvent{
				Action: "submit", UserID: m.owner, ResourceType: "draft", ResourceID: m.key,
				Result: "failure", Details: map[string]any{"fields": len(verr.Fields)},
			})
		}
		return nil, err
	}
	m.persist(ctx)
	applog.LogAuditEvent(ctx, applog.AuditEvent{
		Action: "submit", UserID: m.owner, ResourceType: "draft", ResourceID: m.key, Result: "success",
	})
	return m.state.Transform(), nil
}

// ClearAll resets the form to defaults and deletes the snapshot. It is
// destructive, so confirmed must be true.
func (m *Manager) ClearAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = portfolio.DefaultFormState()
	if err := m.store.Remove(ctx, m.key); err != nil {
		applog.LogWarn(ctx, "draft remove failed", zap.String("key", m.key), zap.Error(err))
	}
	applog.LogAuditEvent(ctx, applog.AuditEvent{
		Action: "clear", UserID: m.owner, ResourceType: "draft", ResourceID: m.key, Result: "success",
	})
	return nil
}

// persist writes the snapshot. Callers hold m.mu.
func (m *Manager) persist(ctx context.Context) {
	raw, err := json.Marshal(m.state)
	if err != nil {
		applog.LogWarn(ctx, "draft encode failed", zap.Error(err))
		return
	}
	if err := m.store.Set(ctx, m.key, raw); err != nil {
		applog.LogWarn(ctx, "draft save failed", zap.String("key", m.key), zap.Error(err))
	}
}
