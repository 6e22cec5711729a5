// Package assemble turns a finalized portfolio record into the source files
// of a static Next.js site. Output depends only on the record and options:
// the same input always yields byte-identical files.
package assemble

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/janisto/portfolio-generator/internal/portfolio"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed components/*.tsx
var componentFS embed.FS

var templates = template.Must(
	template.New("site").
		Delims("[[", "]]").
		Funcs(template.FuncMap{"str": jsString}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// siteFiles maps each generated path to its template.
var siteFiles = []struct{ path, tmpl string }{
	{"package.json", "package.json.tmpl"},
	{"next.config.js", "next.config.js.tmpl"},
	{"tsconfig.json", "tsconfig.json.tmpl"},
	{"tailwind.config.js", "tailwind.config.js.tmpl"},
	{"postcss.config.js", "postcss.config.js.tmpl"},
	{".gitignore", "gitignore.tmpl"},
	{".npmrc", "npmrc.tmpl"},
	{"app/globals.css", "globals.css.tmpl"},
	{"app/animation.css", "animation.css.tmpl"},
	{"app/layout.tsx", "layout.tsx.tmpl"},
	{"app/page.tsx", "page.tsx.tmpl"},
	{"README.md", "README.md.tmpl"},
}

var themedComponents = []string{
	"theme-provider.tsx",
	"theme-toggle.tsx",
	"dotted-background.tsx",
}

// SummaryLength is how many characters of About the README quotes.
const SummaryLength = 150

var ErrNilRecord = errors.New("assemble: nil record")

// Files maps a repository-relative path to file content.
type Files map[string]string

// Paths returns the file paths in lexical order.
func (f Files) Paths() []string {
	paths := make([]string, 0, len(f))
	for p := range f {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

type options struct {
	themed bool
}

type Option func(*options)

// WithThemedComponents adds the light/dark theme components and wires them
// into the layout and page.
func WithThemedComponents() Option {
	return func(o *options) { o.themed = true }
}

type siteData struct {
	Slug       string
	FullName   string
	Title      string
	Theme      string
	ThemeHSL   string
	RecordJSON string
	Summary    string // README prefix; the template adds the ellipsis
	Themed     bool
}

// Assemble renders the site for record.
func Assemble(record *portfolio.Record, opts ...Option) (Files, error) {
	if record == nil {
		return nil, ErrNilRecord
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	recordJSON, err := encodeRecord(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	data := siteData{
		Slug:       portfolio.Slug(record.FullName),
		FullName:   record.FullName,
		Title:      record.Title,
		Theme:      portfolio.ThemeName(record.ThemeColor),
		ThemeHSL:   portfolio.ThemeHSL(record.ThemeColor),
		RecordJSON: recordJSON,
		Summary:    summaryPrefix(record.About),
		Themed:     o.themed,
	}

	files := make(Files, len(siteFiles)+len(themedComponents))
	var buf bytes.Buffer
	for _, sf := range siteFiles {
		buf.Reset()
		if err := templates.ExecuteTemplate(&buf, sf.tmpl, data); err != nil {
			return nil, fmt.Errorf("render %s: %w", sf.path, err)
		}
		files[sf.path] = buf.String()
	}

	if o.themed {
		for _, name := range themedComponents {
			content, err := componentFS.ReadFile("components/" + name)
			if err != nil {
				return nil, fmt.Errorf("read component %s: %w", name, err)
			}
			files["components/"+name] = string(content)
		}
	}
	return files, nil
}

// Summary returns the first SummaryLength characters of about followed by
// "...". The ellipsis is appended even when nothing was cut.
func Summary(about string) string {
	return summaryPrefix(about) + "..."
}

func summaryPrefix(about string) string {
	r := []rune(about)
	if len(r) > SummaryLength {
		r = r[:SummaryLength]
	}
	return string(r)
}

// encodeRecord renders record as 2-space indented JSON without HTML escaping.
// Nil sequences are emitted as empty arrays.
func encodeRecord(record *portfolio.Record) (string, error) {
	r := *record
	r.Roles = orEmpty(r.Roles)
	r.Skills = orEmpty(r.Skills)
	if r.Experience == nil {
		r.Experience = []portfolio.Experience{}
	}
	if r.Projects == nil {
		r.Projects = []portfolio.Project{}
	}
	if r.Education == nil {
		r.Education = []portfolio.Education{}
	}
	projects := make([]portfolio.Project, len(r.Projects))
	for i, p := range r.Projects {
		p.Technologies = orEmpty(p.Technologies)
		projects[i] = p
	}
	r.Projects = projects

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// jsString escapes s for use inside a double-quoted JS or JSON string literal.
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	out := strings.TrimSuffix(buf.String(), "\n")
	return out[1 : len(out)-1]
}

// WriteDir writes files under dir, creating parent directories.
func WriteDir(dir string, files Files) error {
	for _, p := range files.Paths() {
		target := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(files[p]), 0o644); err != nil {
			return err
		}
	}
	return nil
}
