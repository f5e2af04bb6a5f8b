// Package languages normalizes ISO-639 language codes and names them for display.
package languages

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// English is the only language summaries are offered for.
const English = "en"

// Language is a selectable translation target.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DefaultTargets are the translation targets offered when none are configured.
var DefaultTargets = []string{"en", "pt", "es", "ru", "tr", "fr"}

var namer = display.English.Languages()

// Normalize parses code as a BCP 47 tag and returns its base ISO-639-1 code,
// e.g. "en-US" -> "en", "FR" -> "fr".
func Normalize(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("parsing language %q: %w", code, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// Name returns the English display name of code, or code itself when unknown.
func Name(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := namer.Name(tag); name != "" {
		return name
	}
	return code
}

// List builds the target list for codes, dropping duplicates and unparseable entries.
// An empty input yields DefaultTargets.
func List(codes []string) []Language {
	if len(codes) == 0 {
		codes = DefaultTargets
	}
	seen := make(map[string]bool, len(codes))
	out := make([]Language, 0, len(codes))
	for _, c := range codes {
		norm, err := Normalize(c)
		if err != nil || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, Language{Code: norm, Name: Name(norm)})
	}
	return out
}

// Set is a lookup of normalized codes.
type Set map[string]struct{}

// NewSet normalizes codes into a Set, skipping invalid ones.
func NewSet(codes []string) Set {
	s := make(Set, len(codes))
	for _, c := range codes {
		if norm, err := Normalize(c); err == nil {
			s[norm] = struct{}{}
		}
	}
	return s
}

// Has reports whether code (normalized) is in the set.
func (s Set) Has(code string) bool {
	norm, err := Normalize(code)
	if err != nil {
		return false
	}
	_, ok := s[norm]
	return ok
}
