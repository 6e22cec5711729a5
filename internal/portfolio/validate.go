package portfolio

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("profile_image", func(fl validator.FieldLevel) bool {
		return CheckProfileImage(fl.Field().String()) == nil
	})
	return v
}

// Messages keyed by the JSON field name; row fields are unique across sections.
var fieldMessages = map[string]string{
	"fullName":   "Name is required",
	"title":      "Title is required",
	"about":      "About section is required",
	"themeColor": "Invalid theme color",
	"company":    "Company is required",
	"role":       "Role is required",
	"duration":   "Duration is required",
	"name":       "Project name is required",
	"link":       "Invalid url",
	"school":     "School/College is required",
	"degree":     "Degree is required",
	"year":       "Year is required",
}

// Validate checks the whole form and returns a *ValidationError listing
// every failing field, or nil.
func (f FormState) Validate() error {
	return check(f)
}

// ValidateField returns the issues for a single field path only.
func (f FormState) ValidateField(path string) FieldErrors {
	err := check(f)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	var out FieldErrors
	for _, fe := range verr.Fields {
		if fe.Path == path {
			out = append(out, fe)
		}
	}
	return out
}

// Validate applies the form rules to a finalized record at the publish boundary.
func (r *Record) Validate() error {
	if r == nil {
		return &ValidationError{Fields: FieldErrors{{Path: "", Message: "profile record is required"}}}
	}
	return check(r)
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Path: fieldPath(fe.Namespace()), Message: message(fe)})
	}
	return &ValidationError{Fields: fields}
}

// fieldPath turns "FormState.experience[0].company" into "experience.0.company".
func fieldPath(namespace string) string {
	_, rest, ok := strings.Cut(namespace, ".")
	if !ok {
		rest = namespace
	}
	return strings.NewReplacer("[", ".", "]", "").Replace(rest)
}

func message(fe validator.FieldError) string {
	if fe.Tag() == "profile_image" {
		ref, _ := fe.Value().(string)
		if err := CheckProfileImage(ref); err != nil {
			return imageMessage(err)
		}
	}
	if msg, ok := fieldMessages[fe.Field()]; ok {
		return msg
	}
	return "Invalid value"
}

func imageMessage(err error) string {
	switch {
	case errors.Is(err, ErrImageTooLarge):
		return "Image must be 5 MB or smaller"
	case errors.Is(err, ErrNotAnImage):
		return "File is not an image"
	default:
		return "Enter an image URL or upload an image"
	}
}
