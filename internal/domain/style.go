package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Style enumerates the closed set of portrait presets.
type Style string

const (
	StyleProfessional   Style = "professional"
	StyleBusinessCasual Style = "business_casual"
	StyleCreative       Style = "creative"
	StyleAcademic       Style = "academic"
	StyleMonochrome     Style = "monochrome"
)

// Styles lists every supported preset in presentation order.
func Styles() []Style {
	return []Style{
		StyleProfessional,
		StyleBusinessCasual,
		StyleCreative,
		StyleAcademic,
		StyleMonochrome,
	}
}

// ParseStyle validates free-form input against the closed enumeration.
func ParseStyle(raw string) (Style, error) {
	s := Style(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StyleProfessional, StyleBusinessCasual, StyleCreative, StyleAcademic, StyleMonochrome:
		return s, nil
	}
	return "", ErrInvalidStyle
}

var titleCaser = cases.Title(language.English)

// Label returns a human-readable preset name, e.g. "Business Casual".
func (s Style) Label() string {
	return titleCaser.String(strings.ReplaceAll(string(s), "_", " "))
}
