package portfolio

import (
	"fmt"
	"strconv"
	"strings"
)

// Section names a repeatable part of the form.
type Section string

const (
	SectionExperience Section = "experience"
	SectionProjects   Section = "projects"
	SectionEducation  Section = "education"
)

func ParseSection(s string) (Section, error) {
	switch sec := Section(s); sec {
	case SectionExperience, SectionProjects, SectionEducation:
		return sec, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, s)
}

// Len returns the number of rows in a section.
func (f *FormState) Len(sec Section) int {
	switch sec {
	case SectionExperience:
		return len(f.Experience)
	case SectionProjects:
		return len(f.Projects)
	case SectionEducation:
		return len(f.Education)
	}
	return 0
}

// AppendBlank adds an empty row to the end of a section.
func (f *FormState) AppendBlank(sec Section) error {
	switch sec {
	case SectionExperience:
		f.Experience = append(f.Experience, ExperienceForm{})
	case SectionProjects:
		f.Projects = append(f.Projects, ProjectForm{})
	case SectionEducation:
		f.Education = append(f.Education, EducationForm{})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSection, sec)
	}
	return nil
}

// RemoveAt deletes row i. The last remaining row is never removed; removed
// reports whether the section changed.
func (f *FormState) RemoveAt(sec Section, i int) (removed bool, err error) {
	n := f.Len(sec)
	if _, err := ParseSection(string(sec)); err != nil {
		return false, err
	}
	if i < 0 || i >= n {
		return false, fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, sec, i)
	}
	if n <= 1 {
		return false, nil
	}
	switch sec {
	case SectionExperience:
		f.Experience = append(f.Experience[:i], f.Experience[i+1:]...)
	case SectionProjects:
		f.Projects = append(f.Projects[:i], f.Projects[i+1:]...)
	case SectionEducation:
		f.Education = append(f.Education[:i], f.Education[i+1:]...)
	}
	return true, nil
}

// Set assigns value to the field at path. Top-level paths are field names
// ("fullName"); row paths are "<section>.<index>.<field>".
func (f *FormState) Set(path, value string) error {
	parts := strings.Split(path, ".")
	switch len(parts) {
	case 1:
		return f.setTop(parts[0], value)
	case 3:
		sec, err := ParseSection(parts[0])
		if err != nil {
			return err
		}
		i, err := strconv.Atoi(parts[1])
		if err != nil || i < 0 || i >= f.Len(sec) {
			return fmt.Errorf("%w: %s", ErrIndexOutOfRange, path)
		}
		return f.setRow(sec, i, parts[2], value)
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, path)
}

func (f *FormState) setTop(name, value string) error {
	switch name {
	case "fullName":
		f.FullName = value
	case "title":
		f.Title = value
	case "about":
		f.About = value
	case "themeColor":
		f.ThemeColor = value
	case "roles":
		f.Roles = value
	case "profileImage":
		f.ProfileImage = value
	case "skills":
		f.Skills = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

func (f *FormState) setRow(sec Section, i int, name, value string) error {
	var fields map[string]*string
	switch sec {
	case SectionExperience:
		e := &f.Experience[i]
		fields = map[string]*string{
			"company": &e.Company, "role": &e.Role, "duration": &e.Duration, "description": &e.Description,
		}
	case SectionProjects:
		p := &f.Projects[i]
		fields = map[string]*string{
			"name": &p.Name, "description": &p.Description, "technologies": &p.Technologies, "link": &p.Link,
		}
	case SectionEducation:
		e := &f.Education[i]
		fields = map[string]*string{
			"school": &e.School, "degree": &e.Degree, "year": &e.Year,
		}
	}
	target, ok := fields[name]
	if !ok {
		return fmt.Errorf("%w: %s.%d.%s", ErrUnknownField, sec, i, name)
	}
	*target = value
	return nil
}
