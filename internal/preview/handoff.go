// Package preview hands a finalized record from the form to the preview page
// and renders it. The store key is the canonical hand-off; the URL payload
// is a size-limited legacy path.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	applog "github.com/janisto/portfolio-generator/internal/platform/logging"
	"github.com/janisto/portfolio-generator/internal/portfolio"
	"github.com/janisto/portfolio-generator/internal/service/draft"
)

// HandoffKey is the store key holding the transformed record.
const HandoffKey = "portfolioTransformedData"

// QueryParam carries the legacy percent-encoded JSON payload.
const QueryParam = "data"

// MaxQueryPayload caps the decoded legacy payload.
const MaxQueryPayload = 8 << 10

var (
	ErrNoRecord        = errors.New("no portfolio record to preview")
	ErrPayloadTooLarge = errors.New("preview payload exceeds the URL size limit")
	ErrInvalidPayload  = errors.New("preview payload is not a valid portfolio record")
)

// Handoff stores the transformed record for the preview page.
type Handoff struct {
	store draft.Store
	key   string
}

func NewHandoff(store draft.Store) *Handoff {
	return &Handoff{store: store, key: HandoffKey}
}

func (h *Handoff) Save(ctx context.Context, record *portfolio.Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding hand-off record: %w", err)
	}
	return h.store.Set(ctx, h.key, raw)
}

// Load returns ErrNoRecord when nothing was handed off and ErrInvalidPayload
// when the stored value does not decode.
func (h *Handoff) Load(ctx context.Context) (*portfolio.Record, error) {
	raw, err := h.store.Get(ctx, h.key)
	if errors.Is(err, draft.ErrNotFound) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(raw)
}

// EncodeQuery returns "data=<percent-encoded JSON>" for the legacy path.
func EncodeQuery(record *portfolio.Record) (string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encoding preview payload: %w", err)
	}
	if len(raw) > MaxQueryPayload {
		return "", ErrPayloadTooLarge
	}
	return url.Values{QueryParam: {string(raw)}}.Encode(), nil
}

// DecodeQuery reads the legacy payload. It returns ErrNoRecord when the
// parameter is absent.
func DecodeQuery(values url.Values) (*portfolio.Record, error) {
	payload := values.Get(QueryParam)
	if payload == "" {
		return nil, ErrNoRecord
	}
	if len(payload) > MaxQueryPayload {
		return nil, ErrPayloadTooLarge
	}
	return decodeRecord([]byte(payload))
}

func decodeRecord(raw []byte) (*portfolio.Record, error) {
	var record portfolio.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &record, nil
}

// Resolve prefers the stored hand-off and falls back to the URL payload.
// Store failures are logged and treated as an empty hand-off.
func Resolve(ctx context.Context, h *Handoff, query url.Values) (*portfolio.Record, error) {
	if h != nil {
		record, err := h.Load(ctx)
		switch {
		case err == nil:
			return record, nil
		case errors.Is(err, ErrNoRecord):
		default:
			applog.LogWarn(ctx, "preview hand-off unavailable", zap.Error(err))
		}
	}
	return DecodeQuery(query)
}
