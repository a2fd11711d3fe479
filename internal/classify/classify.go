// Package classify maps item descriptions to announcement categories.
package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"releasewatch/internal/catalog"
)

// Category is the announcement channel family for an item.
type Category string

const (
	Demo        Category = "demo"
	Coop        Category = "coop"
	Multiplayer Category = "multiplayer"
	Solo        Category = "solo"
)

// All lists categories in precedence order.
var All = []Category{Demo, Coop, Multiplayer, Solo}

var (
	coopCodes        = map[int]struct{}{9: {}, 38: {}, 39: {}, 48: {}}
	multiplayerCodes = map[int]struct{}{1: {}, 20: {}, 24: {}, 27: {}, 36: {}, 37: {}, 47: {}, 49: {}}
)

// Classify returns the first matching category in Demo, Coop, Multiplayer,
// Solo precedence.
func Classify(meta catalog.ItemMeta) Category {
	if strings.EqualFold(strings.TrimSpace(meta.Type), "demo") {
		return Demo
	}
	codes := meta.CategoryCodes()
	if intersects(codes, coopCodes) {
		return Coop
	}
	if intersects(codes, multiplayerCodes) {
		return Multiplayer
	}
	return Solo
}

// Parse resolves a category name case-insensitively.
func Parse(value string) (Category, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, c := range All {
		if string(c) == value {
			return c, true
		}
	}
	return "", false
}

// Label returns the display form of the category, for example "Multiplayer".
func (c Category) Label() string {
	// Casers carry state and are not shared across goroutines.
	return cases.Title(language.English).String(string(c))
}

func (c Category) String() string {
	return string(c)
}

func intersects(codes []int, set map[int]struct{}) bool {
	for _, code := range codes {
		if _, ok := set[code]; ok {
			return true
		}
	}
	return false
}
