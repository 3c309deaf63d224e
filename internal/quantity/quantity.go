// Package quantity extracts numeric quantity and unit prefixes from item text.
package quantity

import (
	"regexp"
	"strconv"
	"strings"
)

// Parsed is the structured result of splitting an item phrase.
type Parsed struct {
	Name        string
	Quantity    float64
	Unit        string
	HasQuantity bool
}

// unitAliases is the closed set of recognized unit words mapped to their
// normalized form. A leading number followed by any other word is treated
// as a pure count.
var unitAliases = map[string]string{
	"lb":      "lbs",
	"lbs":     "lbs",
	"pound":   "lbs",
	"pounds":  "lbs",
	"oz":      "oz",
	"ounce":   "oz",
	"ounces":  "oz",
	"gal":     "gallons",
	"gallon":  "gallons",
	"gallons": "gallons",
	"count":   "count",
	"ct":      "count",
	"cts":     "count",
	"dozen":   "dozen",
	"doz":     "dozen",
	"bunch":   "bunch",
	"bunches": "bunch",
	"bag":     "bag",
	"bags":    "bag",
	"box":     "box",
	"boxes":   "box",
}

var (
	withUnitPattern  = regexp.MustCompile(`(?i)^([0-9]*\.?[0-9]+)\s*([a-zA-Z]+)\s*(?:of\s+)?(.*)$`)
	withCountPattern = regexp.MustCompile(`(?i)^([0-9]*\.?[0-9]+)\s+(?:of\s+)?(.+)$`)
	leadingFiller    = regexp.MustCompile(`(?i)^(of|a|an)\s+`)
)

// NormalizeUnit resolves a unit word to its normalized form. The empty
// string is returned when the word is not in the alias table.
func NormalizeUnit(unit string) string {
	return unitAliases[strings.ToLower(strings.TrimSpace(unit))]
}

func cleanName(value string) string {
	return strings.TrimSpace(leadingFiller.ReplaceAllString(value, ""))
}

// Parse splits input into item name, quantity, and normalized unit.
//
// A leading number with a recognized unit word wins ("2 gallons of milk");
// a bare leading number is a count ("3 eggs"); anything else is a plain name.
func Parse(input string) Parsed {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Parsed{}
	}

	if m := withUnitPattern.FindStringSubmatch(raw); m != nil {
		if unit := NormalizeUnit(m[2]); unit != "" {
			if qty, err := strconv.ParseFloat(m[1], 64); err == nil {
				return Parsed{
					Name:        cleanName(m[3]),
					Quantity:    qty,
					Unit:        unit,
					HasQuantity: true,
				}
			}
		}
	}

	if m := withCountPattern.FindStringSubmatch(raw); m != nil {
		if qty, err := strconv.ParseFloat(m[1], 64); err == nil {
			return Parsed{
				Name:        cleanName(m[2]),
				Quantity:    qty,
				Unit:        "count",
				HasQuantity: true,
			}
		}
	}

	return Parsed{Name: raw}
}

// Format renders a quantity/unit pair for display. A zero quantity means
// "no quantity" and renders empty; the count unit renders as a bare number.
func Format(quantity float64, unit string) string {
	if quantity == 0 {
		return ""
	}

	rendered := strconv.FormatFloat(quantity, 'f', -1, 64)
	normalized := NormalizeUnit(unit)
	if normalized == "" || normalized == "count" {
		return rendered
	}
	return rendered + " " + normalized
}

// Label prepends the formatted quantity to an item name when present.
func Label(name string, quantity float64, unit string) string {
	prefix := Format(quantity, unit)
	if prefix == "" {
		return name
	}
	return prefix + " " + name
}
