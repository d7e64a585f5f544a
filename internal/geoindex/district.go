// Package geoindex wraps the district boundary set and answers adjacency,
// centroid, and containment queries against it.
package geoindex

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/twpayne/go-geom"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// District is one administrative unit: a display name, a normalized match
// key, and a (possibly multi-part) polygon geometry in geographic
// coordinates. Disjoint pieces of the same district share one District.
type District struct {
	Name string // display name as loaded from the boundary source
	Key  string // normalized name used for matching and lookups
	Geom *geom.MultiPolygon
}

// nameAliases maps known district name variants to their canonical boundary
// names. Administrative renames tend to reach climate feeds years late.
var nameAliases = map[string]string{
	"gautambuddhanagar": "gautam buddha nagar",
	"gurgaon":           "gurugram",
	"mewat":             "nuh",
}

var (
	deaccent     = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	foldCaser    = cases.Fold()
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeName standardizes a district name for matching: trims, strips
// diacritics, case-folds, collapses internal whitespace, and applies the
// known-variant alias table.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	if stripped, _, err := transform.String(deaccent, name); err == nil {
		name = stripped
	}
	name = foldCaser.String(name)
	name = multiSpaceRe.ReplaceAllString(name, " ")

	if canonical, ok := nameAliases[strings.ReplaceAll(name, " ", "")]; ok {
		return canonical
	}
	if canonical, ok := nameAliases[name]; ok {
		return canonical
	}
	return name
}
