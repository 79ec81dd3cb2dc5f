// Package charm holds the static keychain price table: every known charm
// accessory, its rarity category, and its reference price in dollars. The
// table is fixed for a process lifetime; the Rule Store decides which of
// these names are enabled for matching.
package charm

import "strings"

// Category is a charm rarity tier.
type Category string

// Rarity categories, most valuable first.
const (
	CategoryRed    Category = "Red"
	CategoryPink   Category = "Pink"
	CategoryPurple Category = "Purple"
	CategoryBlue   Category = "Blue"
)

// Categories returns the rarity tiers in descending value order.
func Categories() []Category {
	return []Category{CategoryRed, CategoryPink, CategoryPurple, CategoryBlue}
}

// Charm is one priced accessory.
type Charm struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Price    float64  `json:"price"`
}

// listingPrefix is how the marketplace names a listing that sells the charm
// itself rather than an item carrying it.
const listingPrefix = "charm | "

// priceTable is the built-in accessory data, grouped by category and kept in
// a stable order within each group.
var priceTable = map[Category][]Charm{
	CategoryRed: {
		{Name: "Semi-Precious", Category: CategoryRed, Price: 300.0},
		{Name: "Baby Karat T", Category: CategoryRed, Price: 180.0},
		{Name: "Diamond Dog", Category: CategoryRed, Price: 165.0},
		{Name: "Baby Karat CT", Category: CategoryRed, Price: 150.0},
		{Name: "Hot Howl", Category: CategoryRed, Price: 70.0},
		{Name: "Titeenium AWP", Category: CategoryRed, Price: 50.0},
	},
	CategoryPink: {
		{Name: "Big Kev", Category: CategoryPink, Price: 45.0},
		{Name: "Hot Wurst", Category: CategoryPink, Price: 35.0},
		{Name: "Baby's AK", Category: CategoryPink, Price: 30.0},
		{Name: "Pocket AWP", Category: CategoryPink, Price: 28.0},
		{Name: "Lil' Monster", Category: CategoryPink, Price: 25.0},
		{Name: "Disco MAC", Category: CategoryPink, Price: 22.0},
	},
	CategoryPurple: {
		{Name: "Lil' Squirt", Category: CategoryPurple, Price: 12.0},
		{Name: "That's Bananas", Category: CategoryPurple, Price: 10.0},
		{Name: "Lil' Whiskers", Category: CategoryPurple, Price: 9.0},
		{Name: "Glamour Shot", Category: CategoryPurple, Price: 8.0},
		{Name: "Lil' Sandy", Category: CategoryPurple, Price: 7.5},
		{Name: "Pinch O' Salt", Category: CategoryPurple, Price: 7.0},
		{Name: "Lil' Teacup", Category: CategoryPurple, Price: 6.5},
		{Name: "Chicken Lil'", Category: CategoryPurple, Price: 6.0},
		{Name: "Hot Sauce", Category: CategoryPurple, Price: 5.5},
		{Name: "Pocket Hawk", Category: CategoryPurple, Price: 5.0},
	},
	CategoryBlue: {
		{Name: "Hot Hands", Category: CategoryBlue, Price: 4.5},
		{Name: "Lil' Ava", Category: CategoryBlue, Price: 4.0},
		{Name: "Die-cast AK", Category: CategoryBlue, Price: 3.8},
		{Name: "My Little Inferno", Category: CategoryBlue, Price: 3.5},
		{Name: "Lil' Crass", Category: CategoryBlue, Price: 3.0},
		{Name: "Lil' Cap Gun", Category: CategoryBlue, Price: 2.8},
		{Name: "Lil' SAS", Category: CategoryBlue, Price: 2.5},
		{Name: "Whittle Knife", Category: CategoryBlue, Price: 2.2},
		{Name: "POP Art", Category: CategoryBlue, Price: 2.0},
		{Name: "Backsplash", Category: CategoryBlue, Price: 1.8},
		{Name: "Lil' Cocked Gun", Category: CategoryBlue, Price: 1.6},
		{Name: "Stitch-Loaded", Category: CategoryBlue, Price: 1.5},
		{Name: "Lil' Squatch", Category: CategoryBlue, Price: 1.2},
	},
}

// Table answers lookup and membership queries against the price table.
type Table struct {
	byName  map[string]Charm
	ordered []Charm
}

// NewTable builds the table from the built-in data.
func NewTable() *Table {
	t := &Table{byName: make(map[string]Charm)}
	for _, cat := range Categories() {
		for _, c := range priceTable[cat] {
			t.byName[NormalizeName(c.Name)] = c
			t.ordered = append(t.ordered, c)
		}
	}
	return t
}

// NormalizeName is the table's name normalization: lowercased and trimmed.
// Exposed so other packages compare names the same way the table does.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup resolves a charm by name, case-insensitively.
func (t *Table) Lookup(name string) (Charm, bool) {
	c, ok := t.byName[NormalizeName(name)]
	return c, ok
}

// IsCharmName reports whether name is exactly a known charm name.
func (t *Table) IsCharmName(name string) bool {
	_, ok := t.byName[NormalizeName(name)]
	return ok
}

// MatchesListingName reports whether a listing's display name is a charm
// being sold on its own: either the bare charm name or the marketplace's
// "Charm | <name>" form.
func (t *Table) MatchesListingName(marketName string) bool {
	name := NormalizeName(marketName)
	if _, ok := t.byName[name]; ok {
		return true
	}
	if rest, ok := strings.CutPrefix(name, listingPrefix); ok {
		_, known := t.byName[NormalizeName(rest)]
		return known
	}
	return false
}

// All returns every charm in category order (Red first), stable within a
// category.
func (t *Table) All() []Charm {
	out := make([]Charm, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// ByCategory returns the charms of one category in table order.
func (t *Table) ByCategory(cat Category) []Charm {
	src := priceTable[cat]
	out := make([]Charm, len(src))
	copy(out, src)
	return out
}

// Names returns every charm name in table order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.ordered))
	for _, c := range t.ordered {
		names = append(names, c.Name)
	}
	return names
}

// Len returns the number of charms in the table.
func (t *Table) Len() int {
	return len(t.ordered)
}
