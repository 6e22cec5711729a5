package preview

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/janisto/portfolio-generator/internal/portfolio"
	"github.com/janisto/portfolio-generator/internal/service/draft"
)

func sampleRecord() *portfolio.Record {
	return &portfolio.Record{
		FullName:   "Ada Lovelace",
		Title:      "Mathematician",
		About:      "First programmer of the Analytical Engine.",
		ThemeColor: portfolio.ThemeGreen,
		Roles:      []string{"Analyst", "Visionary"},
		Skills:     []string{"Math", "Logic"},
		Experience: []portfolio.Experience{{Company: "Babbage & Co", Role: "Analyst", Duration: "1843"}},
		Projects:   []portfolio.Project{{Name: "Note G", Technologies: []string{"Punch cards"}, Link: "https://example.com/g"}},
		Education:  []portfolio.Education{},
	}
}

func TestHandoffRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := draft.NewMemoryStore()
	h := NewHandoff(store)

	if _, err := h.Load(ctx); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
	if err := h.Save(ctx, sampleRecord()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := h.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FullName != "Ada Lovelace" || len(got.Roles) != 2 {
		t.Errorf("unexpected record %+v", got)
	}
	if _, err := store.Get(ctx, HandoffKey); err != nil {
		t.Errorf("expected value under %s: %v", HandoffKey, err)
	}
}

func TestHandoffCorruptValue(t *testing.T) {
	ctx := context.Background()
	store := draft.NewMemoryStore()
	_ = store.Set(ctx, HandoffKey, []byte("{not json"))
	if _, err := NewHandoff(store).Load(ctx); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestQueryRoundTrip(t *testing.T) {
	q, err := EncodeQuery(sampleRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(q, "data=") {
		t.Fatalf("unexpected query %q", q)
	}
	values, err := url.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, err := DecodeQuery(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Projects[0].Link != "https://example.com/g" {
		t.Errorf("unexpected record %+v", got)
	}
}

func TestQueryLimits(t *testing.T) {
	big := sampleRecord()
	big.About = strings.Repeat("a", MaxQueryPayload)
	if _, err := EncodeQuery(big); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	values := url.Values{QueryParam: {strings.Repeat("x", MaxQueryPayload+1)}}
	if _, err := DecodeQuery(values); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if _, err := DecodeQuery(url.Values{}); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
	if _, err := DecodeQuery(url.Values{QueryParam: {"[1,2]"}}); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestResolvePrefersStore(t *testing.T) {
	ctx := context.Background()
	h := NewHandoff(draft.NewMemoryStore())
	stored := sampleRecord()
	stored.FullName = "From Store"
	_ = h.Save(ctx, stored)

	legacy := sampleRecord()
	legacy.FullName = "From URL"
	q, _ := EncodeQuery(legacy)
	values, _ := url.ParseQuery(q)

	got, err := Resolve(ctx, h, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FullName != "From Store" {
		t.Errorf("expected stored record, got %s", got.FullName)
	}
}

func TestResolveFallsBackToQuery(t *testing.T) {
	ctx := context.Background()
	store := draft.NewMemoryStore()
	store.GetErr = errors.New("backend down")
	q, _ := EncodeQuery(sampleRecord())
	values, _ := url.ParseQuery(q)

	got, err := Resolve(ctx, NewHandoff(store), values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FullName != "Ada Lovelace" {
		t.Errorf("unexpected record %+v", got)
	}

	if _, err := Resolve(ctx, NewHandoff(draft.NewMemoryStore()), url.Values{}); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	rec := sampleRecord()
	rec.About = "Likes <script>alert(1)</script> a lot."
	if err := Render(&buf, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := buf.String()
	for _, want := range []string{
		`class="theme-green"`,
		"142 76% 36%",
		"Ada Lovelace",
		"Analyst",
		`href="https://example.com/g"`,
		"Babbage &amp; Co",
		"&lt;script&gt;",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in preview", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Error("about text must be escaped")
	}
	if strings.Contains(html, `id="education"`) {
		t.Error("empty education section should be omitted")
	}
	order := []string{`id="hero"`, `id="about"`, `id="skills"`, `id="experience"`, `id="projects"`}
	last := -1
	for _, id := range order {
		i := strings.Index(html, id)
		if i < last {
			t.Errorf("section %s out of order", id)
		}
		last = i
	}
}

func TestRenderDataURIImage(t *testing.T) {
	rec := sampleRecord()
	rec.ProfileImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="
	var buf bytes.Buffer
	if err := Render(&buf, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `src="data:image/png;base64,`) {
		t.Error("expected data URI image to survive escaping")
	}
}

func TestRenderNil(t *testing.T) {
	if err := Render(&bytes.Buffer{}, nil); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
}
