package catalog

import "strconv"

// ItemID identifies an item in the storefront catalog. Valid identifiers are
// positive.
type ItemID int64

func (id ItemID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ReleaseDate is the storefront's free-form release date plus its upcoming flag.
type ReleaseDate struct {
	Date       string
	ComingSoon bool
}

// Price holds commercial terms in minor currency units.
type Price struct {
	Currency        string
	Initial         int64
	Final           int64
	DiscountPercent int
}

// Taxon is a genre or category label with its numeric storefront code.
type Taxon struct {
	ID          int
	Description string
}

// ItemMeta is the normalized description of one catalog item. Every field
// except ID may be empty; renderers substitute placeholders.
type ItemMeta struct {
	ID          ItemID
	Name        string
	Type        string
	Release     ReleaseDate
	IsFree      bool
	Price       *Price
	Genres      []Taxon
	Categories  []Taxon
	Developers  []string
	Publishers  []string
	Description string
	HeaderImage string
	Screenshots []string
	Trailers    []string
}

// DisplayName returns the item name or a fallback built from the identifier.
func (m ItemMeta) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return "Item " + m.ID.String()
}

// CategoryCodes lists the numeric category codes in storefront order.
func (m ItemMeta) CategoryCodes() []int {
	codes := make([]int, 0, len(m.Categories))
	for _, c := range m.Categories {
		codes = append(codes, c.ID)
	}
	return codes
}
