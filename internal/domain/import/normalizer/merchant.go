// Package normalizer provides merchant sanitization and category detection.
// merchant.go maps merchant names to the coarse tags attached to imported records.
package normalizer

import "regexp"

// Merchant tags emitted by the pattern table.
const (
	TagFood      = "food"
	TagFuel      = "fuel"
	TagGroceries = "groceries"
)

// tagOrder fixes the order tags are reported in, independent of pattern order.
var tagOrder = []string{TagFood, TagFuel, TagGroceries}

// MerchantPattern defines a pattern for matching a merchant to a tag
type MerchantPattern struct {
	Pattern *regexp.Regexp
	Tag     string
}

// MerchantTagger detects merchant tags from a transaction title
type MerchantTagger struct {
	patterns []MerchantPattern
}

// NewMerchantTagger creates a tagger with common Spanish/EU merchant patterns
func NewMerchantTagger() *MerchantTagger {
	return &MerchantTagger{
		patterns: defaultMerchantPatterns(),
	}
}

// Tags returns every merchant tag whose pattern matches title, in tag order.
// It returns nil when nothing matches.
func (m *MerchantTagger) Tags(title string) []string {
	if title == "" {
		return nil
	}

	matched := make(map[string]bool)
	for _, p := range m.patterns {
		if !matched[p.Tag] && p.Pattern.MatchString(title) {
			matched[p.Tag] = true
		}
	}
	if len(matched) == 0 {
		return nil
	}

	tags := make([]string, 0, len(matched))
	for _, tag := range tagOrder {
		if matched[tag] {
			tags = append(tags, tag)
		}
	}
	return tags
}

// defaultMerchantPatterns returns common merchant patterns for Spain/EU
func defaultMerchantPatterns() []MerchantPattern {
	return []MerchantPattern{
		// Fast food & restaurants
		{regexp.MustCompile(`(?i)MC\s*DONALD'?S?|MCDONALD`), TagFood},
		{regexp.MustCompile(`(?i)BURGER\s*KING`), TagFood},
		{regexp.MustCompile(`(?i)\bKFC\b`), TagFood},
		{regexp.MustCompile(`(?i)TELEPIZZA`), TagFood},
		{regexp.MustCompile(`(?i)PIZZA\s*HUT`), TagFood},
		{regexp.MustCompile(`(?i)FIVE\s*GUYS`), TagFood},
		{regexp.MustCompile(`(?i)FOSTER'?S\s*HOLLYWOOD`), TagFood},
		{regexp.MustCompile(`(?i)100\s*MONTADITOS`), TagFood},
		{regexp.MustCompile(`(?i)STARBUCKS`), TagFood},
		{regexp.MustCompile(`(?i)RESTAURANTE|\bBAR\s|CAFETERIA`), TagFood},
		{regexp.MustCompile(`(?i)UBER\s*EATS`), TagFood},
		{regexp.MustCompile(`(?i)GLOVO`), TagFood},
		{regexp.MustCompile(`(?i)JUST\s*EAT`), TagFood},

		// Fuel stations
		{regexp.MustCompile(`(?i)GASOLINERA`), TagFuel},
		{regexp.MustCompile(`(?i)ESTACION\s*DE\s*SERVICIO|E\.S\.\s`), TagFuel},
		{regexp.MustCompile(`(?i)REPSOL`), TagFuel},
		{regexp.MustCompile(`(?i)CEPSA|MOEVE`), TagFuel},
		{regexp.MustCompile(`(?i)\bGALP\b`), TagFuel},
		{regexp.MustCompile(`(?i)\bSHELL\b`), TagFuel},
		{regexp.MustCompile(`(?i)\bBP\b`), TagFuel},
		{regexp.MustCompile(`(?i)PETRONOR|BALLENOIL|PLENOIL`), TagFuel},

		// Supermarkets
		{regexp.MustCompile(`(?i)MERCADONA`), TagGroceries},
		{regexp.MustCompile(`(?i)CARREFOUR`), TagGroceries},
		{regexp.MustCompile(`(?i)\bLIDL\b`), TagGroceries},
		{regexp.MustCompile(`(?i)\bALDI\b`), TagGroceries},
		{regexp.MustCompile(`(?i)EROSKI`), TagGroceries},
		{regexp.MustCompile(`(?i)ALCAMPO|AUCHAN`), TagGroceries},
		{regexp.MustCompile(`(?i)\bDIA\b|SUPERMERCADOS\s*DIA`), TagGroceries},
		{regexp.MustCompile(`(?i)CONSUM\b`), TagGroceries},
		{regexp.MustCompile(`(?i)HIPERCOR|SUPERCOR`), TagGroceries},
		{regexp.MustCompile(`(?i)SIMPLY|SUPERMERCADO`), TagGroceries},
	}
}
