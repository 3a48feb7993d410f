package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Attributes are the normalized product attributes a command payload can
// carry. Lookup keys are built from these; matching accepts both the
// English attribute values and the Arabic product wording the assistant
// uses on the call.
type Attributes struct {
	ProductName string
	Category    string
	Weight      string
	Cardamom    string
	Grind       string
	CupType     string
	Size        string
}

func price(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("catalog: bad price literal " + s)
	}
	return d
}

// Store price list. Read-only at runtime.
var prices = map[string]decimal.Decimal{
	// Turkish coffee, 1kg
	"Turkish_medium_cardamom_1kg": price("19.824"),
	"Turkish_dark_none_1kg":       price("19.824"),
	"Turkish_decaf_cardamom_1kg":  price("24.106"),
	"Turkish_light_cardamom_1kg":  price("19.824"),
	"Turkish_medium_none_1kg":     price("19.824"),
	"Turkish_dark_cardamom_1kg":   price("19.824"),

	// Espresso, 1kg
	"Espresso_ground_1kg": price("23.822"),
	"Espresso_beans_1kg":  price("23.822"),

	// Cups
	"Cup_Levant_Espresso_50ml":  price("4.500"),
	"Cup_Levant_Espresso_100ml": price("6.000"),
	"Cup_Jasmina_Latte":         price("5.000"),
	"Cup_Jasmina_Cappuccino":    price("5.000"),
	"Cup_Jasmina_double_glass":  price("4.000"),
	"Cup_Turkish_plain_100ml":   price("2.000"),
	"Cup_Turkish_medium_100ml":  price("2.000"),
	"Cup_Turkish_sweet_100ml":   price("2.000"),
	"Cup_Sada_small":            price("2.000"),
	"Cup_Sada_medium":           price("2.500"),
	"Cup_Sada_large":            price("3.000"),
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func (a Attributes) isTurkish() bool {
	return containsAny(a.Category, "Turkish") ||
		containsAny(a.ProductName, "تركية", "Turkish")
}

func (a Attributes) isEspresso() bool {
	return containsAny(a.Category, "Espresso") ||
		containsAny(a.ProductName, "إسبرسو", "Espresso")
}

func (a Attributes) isCup() bool {
	return containsAny(a.Category, "Cups", "Cup") ||
		containsAny(a.ProductName, "كوب")
}

func (a Attributes) roast() string {
	name := strings.ToLower(a.ProductName)
	switch {
	case containsAny(name, "غامقة", "غامق", "dark"):
		return "dark"
	case containsAny(name, "فاتحة", "فاتح", "light"):
		return "light"
	case containsAny(name, "منزوعة", "منزوع", "كافيين", "decaf"):
		return "decaf"
	default:
		return "medium"
	}
}

func (a Attributes) cardamomClass() string {
	v := strings.ToLower(a.Cardamom)
	if v == "none" || v == "" || strings.Contains(v, "بدون") {
		return "none"
	}
	return "cardamom"
}

// WeightClass buckets the free-form weight field into 250g, 500g or 1kg.
// Empty string means no recognizable weight.
func (a Attributes) WeightClass() string {
	w := strings.ToLower(a.Weight)
	switch {
	case containsAny(w, "250"):
		return "250g"
	case containsAny(w, "500"):
		return "500g"
	case containsAny(w, "1kg", "1", "كيلو", "كغم"):
		return "1kg"
	default:
		return ""
	}
}

func (a Attributes) grindClass() string {
	g := strings.ToLower(a.Grind)
	if containsAny(g, "beans", "bean", "حب") {
		return "beans"
	}
	return "ground"
}

// Key builds the catalog lookup key for the attributes, or "" when the
// attributes do not describe a cataloged product shape.
func Key(a Attributes) string {
	switch {
	case a.isTurkish():
		wc := a.WeightClass()
		if wc == "" {
			return ""
		}
		return "Turkish_" + a.roast() + "_" + a.cardamomClass() + "_" + wc
	case a.isEspresso():
		if a.WeightClass() != "1kg" {
			return ""
		}
		return "Espresso_" + a.grindClass() + "_1kg"
	case a.isCup():
		return cupKey(a)
	default:
		return ""
	}
}

func cupKey(a Attributes) string {
	cup := strings.ToLower(a.CupType)
	size := strings.ToLower(a.Size)
	name := strings.ToLower(a.ProductName)

	switch {
	case (containsAny(cup, "levant") || containsAny(name, "ليفانت")) &&
		(containsAny(cup, "espresso") || containsAny(name, "إسبريسو")):
		if containsAny(size, "50") {
			return "Cup_Levant_Espresso_50ml"
		}
		if containsAny(size, "100") {
			return "Cup_Levant_Espresso_100ml"
		}
	case containsAny(cup, "jasmina", "ياسمينا") || containsAny(name, "ياسمينا", "jasmina"):
		if containsAny(cup, "latte") || containsAny(name, "لاتيه", "latte") {
			return "Cup_Jasmina_Latte"
		}
		if containsAny(cup, "cappuccino") || containsAny(name, "كابتشينو", "cappuccino") {
			return "Cup_Jasmina_Cappuccino"
		}
		if containsAny(cup, "glass", "زجاج") || containsAny(name, "زجاج", "glass") {
			return "Cup_Jasmina_double_glass"
		}
	case containsAny(cup, "turkish", "تركية") || containsAny(name, "تركية"):
		if containsAny(size, "100") {
			switch {
			case containsAny(name, "سادة", "plain"):
				return "Cup_Turkish_plain_100ml"
			case containsAny(name, "وسط", "medium"):
				return "Cup_Turkish_medium_100ml"
			case containsAny(name, "حلوة", "sweet"):
				return "Cup_Turkish_sweet_100ml"
			}
		}
	case containsAny(cup, "sada", "سادة") || containsAny(name, "سادة"):
		switch {
		case containsAny(size, "small", "صغير"):
			return "Cup_Sada_small"
		case containsAny(size, "medium", "وسط"):
			return "Cup_Sada_medium"
		case containsAny(size, "large", "كبير"):
			return "Cup_Sada_large"
		default:
			return "Cup_Sada_small"
		}
	}
	return ""
}

// Lookup resolves the catalog price for the attributes.
func Lookup(a Attributes) (decimal.Decimal, bool) {
	key := Key(a)
	if key == "" {
		return decimal.Decimal{}, false
	}
	p, ok := prices[key]
	return p, ok
}

// DefaultPrice is the tiered heuristic used when the catalog has no entry.
// It is total: every attribute combination resolves to some price.
func DefaultPrice(a Attributes) decimal.Decimal {
	switch a.WeightClass() {
	case "250g":
		switch {
		case a.isTurkish():
			return price("3.5")
		case a.isEspresso():
			return price("4.0")
		default:
			return price("3.0")
		}
	case "500g":
		switch {
		case a.isTurkish():
			return price("6.5")
		case a.isEspresso():
			return price("7.5")
		default:
			return price("5.5")
		}
	case "1kg":
		switch {
		case a.isTurkish():
			return price("19.824")
		case a.isEspresso():
			return price("23.822")
		default:
			return price("10.0")
		}
	}

	if a.isCup() {
		cup := strings.ToLower(a.CupType)
		switch {
		case containsAny(cup, "espresso"):
			return price("2.0")
		case containsAny(cup, "latte", "cappuccino"):
			return price("3.5")
		default:
			return price("2.5")
		}
	}

	return price("5.0")
}

// DisplayName builds the disambiguated line-item name: weight plus
// cardamom/grind for weighed coffee, cup type and size for cups.
func DisplayName(a Attributes) string {
	name := a.ProductName
	if name == "" {
		name = a.Category
	}
	if name == "" {
		name = "منتج"
	}

	if a.isCup() {
		if a.CupType != "" {
			name += " - " + a.CupType
		}
		if a.Size != "" {
			name += " (" + a.Size + ")"
		}
		return name
	}

	if a.Weight != "" {
		name += " (" + a.Weight + ")"
	}
	if a.Cardamom != "" && strings.ToLower(a.Cardamom) != "none" {
		name += " - " + a.Cardamom
	}
	if a.Grind != "" {
		name += " - " + a.Grind
	}
	return name
}

// Image picks the bundled artwork reference for a category.
func Image(a Attributes) string {
	switch {
	case a.isCup():
		return "coffee_cup"
	case a.isEspresso():
		return "espresso_cup"
	case a.isTurkish():
		return "turkish_coffee_packet"
	default:
		return ""
	}
}
