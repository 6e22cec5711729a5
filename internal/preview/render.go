package preview

import (
	"embed"
	"html/template"
	"io"

	"github.com/janisto/portfolio-generator/internal/portfolio"
)

//go:embed templates/preview.html.tmpl
var previewFS embed.FS

var page = template.Must(template.ParseFS(previewFS, "templates/preview.html.tmpl"))

type view struct {
	*portfolio.Record
	Theme    string
	ThemeHSL string
	Image    template.URL
}

// Render writes a standalone HTML preview of record.
func Render(w io.Writer, record *portfolio.Record) error {
	if record == nil {
		return ErrNoRecord
	}
	v := view{
		Record:   record,
		Theme:    portfolio.ThemeName(record.ThemeColor),
		ThemeHSL: portfolio.ThemeHSL(record.ThemeColor),
	}
	if record.ProfileImage != "" && portfolio.CheckProfileImage(record.ProfileImage) == nil {
		v.Image = template.URL(record.ProfileImage) //nolint:gosec // checked by CheckProfileImage
	}
	return page.Execute(w, v)
}
