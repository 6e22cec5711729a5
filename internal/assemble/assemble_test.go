package assemble

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/janisto/portfolio-generator/internal/portfolio"
)

func adaRecord() *portfolio.Record {
	return &portfolio.Record{
		FullName:   "Ada Lovelace",
		Title:      "Mathematician",
		About:      "Builder.",
		ThemeColor: portfolio.ThemePurple,
		Roles:      []string{"Analyst", "Visionary"},
		Skills:     []string{"Math", "Logic", "Math"},
		Experience: []portfolio.Experience{{Company: "Babbage & Co", Role: "Analyst", Duration: "1843"}},
		Projects:   []portfolio.Project{},
		Education:  []portfolio.Education{},
	}
}

var basePaths = []string{
	".gitignore",
	".npmrc",
	"README.md",
	"app/animation.css",
	"app/globals.css",
	"app/layout.tsx",
	"app/page.tsx",
	"next.config.js",
	"package.json",
	"postcss.config.js",
	"tailwind.config.js",
	"tsconfig.json",
}

func TestAssembleProducesExactPathSet(t *testing.T) {
	files, err := Assemble(adaRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(basePaths, files.Paths()); diff != "" {
		t.Fatalf("path set mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleThemedAddsComponents(t *testing.T) {
	files, err := Assemble(adaRecord(), WithThemedComponents())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range []string{
		"components/theme-provider.tsx",
		"components/theme-toggle.tsx",
		"components/dotted-background.tsx",
	} {
		if files[p] == "" {
			t.Errorf("missing %s", p)
		}
	}
	if !strings.Contains(files["package.json"], `"next-themes": "0.2.1",`) {
		t.Error("themed manifest should depend on next-themes")
	}
	if !strings.Contains(files["app/layout.tsx"], "<ThemeProvider attribute=\"class\"") {
		t.Error("themed layout should wrap children in ThemeProvider")
	}
	if !strings.Contains(files["app/page.tsx"], "<DottedBackground />") {
		t.Error("themed page should render the dotted background")
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	first, err := Assemble(adaRecord(), WithThemedComponents())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Assemble(adaRecord(), WithThemedComponents())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("assembly is not deterministic:\n%s", diff)
	}
}

func TestAssembleEndToEndScenario(t *testing.T) {
	files, err := Assemble(adaRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(files["app/globals.css"], "--theme-color: 270 76% 53%;") {
		t.Error("globals.css should carry the purple theme triple")
	}
	if !strings.Contains(files["package.json"], `"name": "ada-lovelace-portfolio",`) {
		t.Errorf("unexpected manifest name:\n%s", files["package.json"])
	}
	if strings.Contains(files["package.json"], "next-themes") {
		t.Error("plain manifest must not depend on next-themes")
	}
	if !strings.Contains(files["app/layout.tsx"], `title: "Ada Lovelace - Portfolio",`) {
		t.Error("layout metadata title mismatch")
	}
	if !strings.Contains(files["app/layout.tsx"], `<html lang="en" className="theme-purple">`) {
		t.Error("layout should carry the theme class")
	}
}

func TestReadmeSummaryAlwaysEndsWithEllipsis(t *testing.T) {
	files, err := Assemble(adaRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(files["README.md"], "## About\n\nBuilder....\n") {
		t.Fatalf("unexpected README:\n%s", files["README.md"])
	}
}

func TestSummary(t *testing.T) {
	long := strings.Repeat("é", 200)
	got := Summary(long)
	if want := strings.Repeat("é", SummaryLength) + "..."; got != want {
		t.Fatalf("expected 150 runes plus ellipsis, got %d runes", len([]rune(got)))
	}
	if Summary("") != "..." {
		t.Fatal("empty about should still get an ellipsis")
	}
}

func TestPageEmbedsIndentedRecord(t *testing.T) {
	rec := adaRecord()
	files, err := Assemble(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	page := files["app/page.tsx"]
	const prefix = "const portfolioData: PortfolioData = "
	start := strings.Index(page, prefix)
	if start < 0 {
		t.Fatal("page does not declare portfolioData")
	}
	rest := page[start+len(prefix):]
	end := strings.Index(rest, ";\n")
	var decoded portfolio.Record
	if err := json.Unmarshal([]byte(rest[:end]), &decoded); err != nil {
		t.Fatalf("embedded record is not JSON: %v", err)
	}
	if diff := cmp.Diff(*rec, decoded); diff != "" {
		t.Fatalf("embedded record mismatch:\n%s", diff)
	}
	if !strings.Contains(rest[:end], "\n  \"fullName\": \"Ada Lovelace\",") {
		t.Error("record should be indented with two spaces")
	}
	if !strings.Contains(rest[:end], "Babbage & Co") {
		t.Error("HTML escaping must be disabled")
	}
}

func TestNilSequencesBecomeEmptyArrays(t *testing.T) {
	rec := adaRecord()
	rec.Roles = nil
	rec.Projects = []portfolio.Project{{Name: "Notes"}}
	files, err := Assemble(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	page := files["app/page.tsx"]
	if !strings.Contains(page, `"roles": [],`) || !strings.Contains(page, `"technologies": [],`) {
		t.Fatal("nil sequences should render as []")
	}
	if strings.Contains(page, `": null`) {
		t.Fatal("page data should not contain null values")
	}
}

func TestUnsetThemeFallsBackToBlue(t *testing.T) {
	rec := adaRecord()
	rec.ThemeColor = ""
	files, err := Assemble(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(files["app/globals.css"], "--theme-color: 221 83% 53%;") {
		t.Error("unset theme should use blue")
	}
	if !strings.Contains(files["app/layout.tsx"], `className="theme-blue"`) {
		t.Error("unset theme class should be blue")
	}
}

func TestLayoutEscapesQuotes(t *testing.T) {
	rec := adaRecord()
	rec.FullName = `Ada "Countess" Lovelace`
	files, err := Assemble(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(files["app/layout.tsx"], `title: "Ada \"Countess\" Lovelace - Portfolio",`) {
		t.Fatalf("quotes should be escaped:\n%s", files["app/layout.tsx"])
	}
}

func TestAssembleNilRecord(t *testing.T) {
	if _, err := Assemble(nil); err != ErrNilRecord {
		t.Fatalf("expected ErrNilRecord, got %v", err)
	}
}

func TestWriteDir(t *testing.T) {
	files, err := Assemble(adaRecord(), WithThemedComponents())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dir := t.TempDir()
	if err := WriteDir(dir, files); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "components", "theme-toggle.tsx"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != files["components/theme-toggle.tsx"] {
		t.Fatal("written file differs from assembled content")
	}
}
