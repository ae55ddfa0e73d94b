// Package inflector converts identifiers between the forms used by
// schemas, tables, controllers and labels.
package inflector

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var rules = ruleset()

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	// Add common initialisms.
	for _, w := range []string{"API", "CSS", "HTML", "ID", "IP", "JSON", "SQL", "URL", "UUID"} {
		rules.AddAcronym(w)
	}
	rules.AddUncountable("media")
	return rules
}

// Pluralize returns the plural form of a word: "category" → "categories".
func Pluralize(s string) string { return rules.Pluralize(s) }

// Singularize returns the singular form of a word: "pages" → "page".
func Singularize(s string) string { return rules.Singularize(s) }

// Camelize returns the CamelCase form: "menu_page" → "MenuPage".
func Camelize(s string) string { return rules.Camelize(s) }

// Underscore converts CamelCase and spaced words to snake_case:
// "MenuPage" → "menu_page", "Menu Page" → "menu_page".
func Underscore(s string) string {
	var b strings.Builder
	prevLower := false
	for i, r := range s {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && (prevLower || nextLower(s, i)) && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevLower = true
		default:
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			prevLower = false
		}
	}
	return strings.Trim(b.String(), "_")
}

// nextLower reports if the rune following position i is lowercase,
// which ends an acronym: "HTMLPage" → "html_page".
func nextLower(s string, i int) bool {
	rs := []rune(s[i:])
	return len(rs) > 1 && unicode.IsLower(rs[1])
}

// Humanize turns an identifier into words and drops a trailing "_id":
// "author_id" → "Author", "created_at" → "Created at".
func Humanize(s string) string {
	s = Underscore(s)
	if len(s) > 3 {
		s = strings.TrimSuffix(s, "_id")
	}
	return Capitalize(strings.ReplaceAll(s, "_", " "))
}

// Titleize capitalizes every word of the humanized identifier:
// "created_at" → "Created At".
func Titleize(s string) string {
	// Casers are stateful and not safe for concurrent use.
	return cases.Title(language.English).String(Humanize(s))
}

// Capitalize upper-cases the first letter only: "pages" → "Pages".
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return rules.Capitalize(s)
}

// Tableize returns the table name of a type name: "MenuPage" → "menu_pages".
func Tableize(s string) string {
	return Pluralize(Underscore(s))
}

// ForeignKey returns the foreign key column of a type or relation
// name: "Author" → "author_id", "parent" → "parent_id".
func ForeignKey(s string) string {
	return Underscore(s) + "_id"
}

// Normalize lowercases s and replaces every run of non word characters
// with a single underscore: "Items per Page!" → "items_per_page".
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
