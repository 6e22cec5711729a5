package portfolio

import (
	"regexp"
	"strings"
)

var themeHSL = map[string]string{
	ThemeBlue:   "221 83% 53%",
	ThemePurple: "270 76% 53%",
	ThemeGreen:  "142 76% 36%",
}

// ThemeHSL returns the "H S% L%" triple for a theme color. Empty or
// unrecognized colors fall back to blue.
func ThemeHSL(color string) string {
	if hsl, ok := themeHSL[color]; ok {
		return hsl
	}
	return themeHSL[ThemeBlue]
}

// ThemeName normalizes a theme color to one of the three known names.
func ThemeName(color string) string {
	if _, ok := themeHSL[color]; ok {
		return color
	}
	return ThemeBlue
}

var whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)

// Slug lowercases name and replaces each whitespace run with one hyphen.
func Slug(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(name), "-")
}
