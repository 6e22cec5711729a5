// Package portfolio defines the profile record in its two shapes: the raw
// editing form, where roles, skills and technologies are single
// comma-delimited strings, and the finalized display record, where they are
// split into sequences.
package portfolio

import "strings"

// Theme colors accepted by the schema.
const (
	ThemeBlue   = "blue"
	ThemePurple = "purple"
	ThemeGreen  = "green"
)

// FormState is the editing form. Field order matches the persisted snapshot.
type FormState struct {
	FullName     string           `json:"fullName"     yaml:"fullName"     validate:"min=2"`
	Title        string           `json:"title"        yaml:"title"        validate:"min=2"`
	About        string           `json:"about"        yaml:"about"        validate:"min=10"`
	ThemeColor   string           `json:"themeColor"   yaml:"themeColor"   validate:"oneof=blue purple green" required:"false"`
	Roles        string           `json:"roles"        yaml:"roles" required:"false"`
	ProfileImage string           `json:"profileImage" yaml:"profileImage" validate:"omitempty,profile_image" required:"false"`
	Skills       string           `json:"skills"       yaml:"skills" required:"false"`
	Experience   []ExperienceForm `json:"experience"   yaml:"experience"   validate:"dive" required:"false"`
	Projects     []ProjectForm    `json:"projects"     yaml:"projects"     validate:"dive" required:"false"`
	Education    []EducationForm  `json:"education"    yaml:"education"    validate:"dive" required:"false"`
}

type ExperienceForm struct {
	Company     string `json:"company"     yaml:"company"     validate:"required"`
	Role        string `json:"role"        yaml:"role"        validate:"required"`
	Duration    string `json:"duration"    yaml:"duration"    validate:"required"`
	Description string `json:"description" yaml:"description" required:"false"`
}

type ProjectForm struct {
	Name         string `json:"name"         yaml:"name"         validate:"required"`
	Description  string `json:"description"  yaml:"description" required:"false"`
	Technologies string `json:"technologies" yaml:"technologies" required:"false"`
	Link         string `json:"link"         yaml:"link"         validate:"omitempty,url" required:"false"`
}

type EducationForm struct {
	School string `json:"school" yaml:"school" validate:"required"`
	Degree string `json:"degree" yaml:"degree" validate:"required"`
	Year   string `json:"year"   yaml:"year"   validate:"required"`
}

// Record is the finalized, display-ready profile handed to the preview,
// the assembler and the publisher.
type Record struct {
	FullName     string       `json:"fullName"               yaml:"fullName"               validate:"min=2"`
	Title        string       `json:"title"                  yaml:"title"                  validate:"min=2"`
	About        string       `json:"about"                  yaml:"about"                  validate:"min=10"`
	ThemeColor   string       `json:"themeColor"             yaml:"themeColor"             validate:"omitempty,oneof=blue purple green" required:"false"`
	Roles        []string     `json:"roles"                  yaml:"roles" required:"false"`
	ProfileImage string       `json:"profileImage,omitempty" yaml:"profileImage,omitempty" validate:"omitempty,profile_image"`
	Skills       []string     `json:"skills"                 yaml:"skills" required:"false"`
	Experience   []Experience `json:"experience"             yaml:"experience"             validate:"dive" required:"false"`
	Projects     []Project    `json:"projects"               yaml:"projects"               validate:"dive" required:"false"`
	Education    []Education  `json:"education"              yaml:"education"              validate:"dive" required:"false"`
}

type Experience struct {
	Company     string `json:"company"     yaml:"company"     validate:"required"`
	Role        string `json:"role"        yaml:"role"        validate:"required"`
	Duration    string `json:"duration"    yaml:"duration"    validate:"required"`
	Description string `json:"description" yaml:"description" required:"false"`
}

type Project struct {
	Name         string   `json:"name"         yaml:"name"         validate:"required"`
	Description  string   `json:"description"  yaml:"description" required:"false"`
	Technologies []string `json:"technologies" yaml:"technologies" required:"false"`
	Link         string   `json:"link"         yaml:"link"         validate:"omitempty,url" required:"false"`
}

type Education struct {
	School string `json:"school" yaml:"school" validate:"required"`
	Degree string `json:"degree" yaml:"degree" validate:"required"`
	Year   string `json:"year"   yaml:"year"   validate:"required"`
}

// DefaultFormState returns an empty form with one blank row per section.
func DefaultFormState() FormState {
	return FormState{
		ThemeColor: ThemeBlue,
		Experience: []ExperienceForm{{}},
		Projects:   []ProjectForm{{}},
		Education:  []EducationForm{{}},
	}
}

// SplitList splits a comma-delimited field, trims each token and drops empty
// ones. Order and duplicates are preserved.
func SplitList(s string) []string {
	out := []string{}
	for token := range strings.SplitSeq(s, ",") {
		if token = strings.TrimSpace(token); token != "" {
			out = append(out, token)
		}
	}
	return out
}

// JoinList is the inverse of SplitList for already-clean tokens.
func JoinList(tokens []string) string {
	return strings.Join(tokens, ",")
}

// Clone returns a deep copy.
func (f FormState) Clone() FormState {
	out := f
	out.Experience = append([]ExperienceForm(nil), f.Experience...)
	out.Projects = append([]ProjectForm(nil), f.Projects...)
	out.Education = append([]EducationForm(nil), f.Education...)
	return out
}

// Normalize restores invariants a decoded snapshot may lack: a theme and at
// least one row per section.
func (f *FormState) Normalize() {
	if f.ThemeColor == "" {
		f.ThemeColor = ThemeBlue
	}
	if len(f.Experience) == 0 {
		f.Experience = []ExperienceForm{{}}
	}
	if len(f.Projects) == 0 {
		f.Projects = []ProjectForm{{}}
	}
	if len(f.Education) == 0 {
		f.Education = []EducationForm{{}}
	}
}

// Transform expands the delimited fields into the display record. It does
// not validate; callers run Validate first.
func (f FormState) Transform() *Record {
	r := &Record{
		FullName:     f.FullName,
		Title:        f.Title,
		About:        f.About,
		ThemeColor:   f.ThemeColor,
		Roles:        SplitList(f.Roles),
		ProfileImage: f.ProfileImage,
		Skills:       SplitList(f.Skills),
		Experience:   make([]Experience, 0, len(f.Experience)),
		Projects:     make([]Project, 0, len(f.Projects)),
		Education:    make([]Education, 0, len(f.Education)),
	}
	for _, e := range f.Experience {
		r.Experience = append(r.Experience, Experience(e))
	}
	for _, p := range f.Projects {
		r.Projects = append(r.Projects, Project{
			Name:         p.Name,
			Description:  p.Description,
			Technologies: SplitList(p.Technologies),
			Link:         p.Link,
		})
	}
	for _, e := range f.Education {
		r.Education = append(r.Education, Education(e))
	}
	return r
}

// WithProfileImage returns a copy with the image reference replaced.
func (f FormState) WithProfileImage(ref string) FormState {
	f.ProfileImage = ref
	return f
}
