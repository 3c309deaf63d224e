// Package category maps item names onto a fixed set of shopping categories.
package category

import (
	"regexp"
	"strings"
	"sync"
)

// Category is one of the fixed shopping-list groupings.
type Category string

const (
	Produce   Category = "produce"
	Dairy     Category = "dairy"
	Meat      Category = "meat"
	Frozen    Category = "frozen"
	Pantry    Category = "pantry"
	Bakery    Category = "bakery"
	Beverages Category = "beverages"
	Household Category = "household"
	Other     Category = "other"
)

// Order is the fixed display order. It is also the classification tie-break:
// the first category with a keyword hit wins.
var Order = []Category{
	Produce,
	Dairy,
	Meat,
	Frozen,
	Pantry,
	Bakery,
	Beverages,
	Household,
	Other,
}

var labels = map[Category]string{
	Produce:   "Produce",
	Dairy:     "Dairy",
	Meat:      "Meat & Seafood",
	Frozen:    "Frozen",
	Pantry:    "Pantry",
	Bakery:    "Bakery",
	Beverages: "Beverages",
	Household: "Household",
	Other:     "Other",
}

// keywords maps each category to its match terms. Multi-word terms match by
// substring containment; single words require a word boundary. Other has no
// keywords and acts as the fallback.
var keywords = map[Category][]string{
	Produce: {
		"apple", "apples", "banana", "bananas", "berries", "blueberries",
		"strawberries", "grapes", "orange", "oranges", "lemon", "lime",
		"avocado", "lettuce", "spinach", "kale", "tomato", "tomatoes",
		"onion", "onions", "garlic", "potato", "potatoes", "carrot",
		"carrots", "cucumber", "pepper", "peppers", "broccoli",
		"cauliflower", "celery", "mushroom", "mushrooms", "cilantro",
		"parsley", "basil", "ginger",
	},
	Dairy: {
		"milk", "almond milk", "oat milk", "cheese", "yogurt", "butter",
		"cream", "sour cream", "cottage cheese", "eggs",
	},
	Meat: {
		"beef", "chicken", "pork", "turkey", "ham", "bacon", "sausage",
		"steak", "fish", "salmon", "tuna", "shrimp",
	},
	Frozen: {
		"frozen", "ice cream", "frozen pizza", "frozen veggies",
	},
	Pantry: {
		"pasta", "rice", "beans", "canned", "soup", "cereal", "flour",
		"sugar", "oil", "vinegar", "sauce", "ketchup", "mustard", "spice",
		"spices", "salt", "peppercorn",
	},
	Bakery: {
		"bread", "bagel", "bagels", "baguette", "bun", "buns", "roll",
		"rolls", "pastry", "cake", "muffin", "cookies",
	},
	Beverages: {
		"water", "sparkling water", "soda", "juice", "coffee", "tea",
		"beer", "wine", "kombucha",
	},
	Household: {
		"paper towels", "toilet paper", "detergent", "dish soap", "soap",
		"shampoo", "conditioner", "trash bags", "garbage bags", "cleaner",
		"bleach", "napkins", "tissues", "foil", "wrap", "batteries",
	},
}

// Valid reports whether value names a known category.
func Valid(value string) bool {
	_, ok := labels[Category(value)]
	return ok
}

// Label returns the display label for a category.
func Label(c Category) string {
	if label, ok := labels[c]; ok {
		return label
	}
	return labels[Other]
}

var (
	wordPatternMu sync.Mutex
	wordPatterns  = map[string]*regexp.Regexp{}
)

func wordPattern(needle string) *regexp.Regexp {
	wordPatternMu.Lock()
	defer wordPatternMu.Unlock()

	if p, ok := wordPatterns[needle]; ok {
		return p
	}
	p := regexp.MustCompile(`\b` + regexp.QuoteMeta(needle) + `\b`)
	wordPatterns[needle] = p
	return p
}

func matchesKeyword(normalized, keyword string) bool {
	needle := strings.ToLower(keyword)
	if strings.Contains(needle, " ") {
		return strings.Contains(normalized, needle)
	}
	return wordPattern(needle).MatchString(normalized)
}

// Infer classifies an item name. The result is always a member of Order;
// unmatched or empty names classify as Other.
func Infer(name string) Category {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return Other
	}

	for _, c := range Order {
		if c == Other {
			continue
		}
		for _, keyword := range keywords[c] {
			if matchesKeyword(normalized, keyword) {
				return c
			}
		}
	}
	return Other
}
