package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"slices"
	"strconv"
	"strings"

	"releasewatch/internal/catalog"
	"releasewatch/internal/services"
)

// ErrAbsent reports that a document holds no usable entry for the requested item.
var ErrAbsent = errors.New("metadata absent")

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type appDetails struct {
	Type             string
	Name             string
	IsFree           bool
	ShortDescription string
	HeaderImage      string
	Developers       flexStrings
	Publishers       flexStrings
	PriceOverview    *priceDetails
	Categories       []taxon
	Genres           []taxon
	Screenshots      []screenshot
	Movies           []movie
	ReleaseDate      releaseDate
}

type releaseDate struct {
	ComingSoon bool   `json:"coming_soon"`
	Date       string `json:"date"`
}

// fields maps document keys to their destinations so each key decodes on its
// own and one mistyped value cannot discard the others.
func (d *appDetails) fields() map[string]any {
	return map[string]any{
		"type":              &d.Type,
		"name":              &d.Name,
		"is_free":           &d.IsFree,
		"short_description": &d.ShortDescription,
		"header_image":      &d.HeaderImage,
		"developers":        &d.Developers,
		"publishers":        &d.Publishers,
		"price_overview":    &d.PriceOverview,
		"categories":        &d.Categories,
		"genres":            &d.Genres,
		"screenshots":       &d.Screenshots,
		"movies":            &d.Movies,
		"release_date":      &d.ReleaseDate,
	}
}

type priceDetails struct {
	Currency        string `json:"currency"`
	Initial         int64  `json:"initial"`
	Final           int64  `json:"final"`
	DiscountPercent int    `json:"discount_percent"`
}

type taxon struct {
	ID          flexInt `json:"id"`
	Description string  `json:"description"`
}

type screenshot struct {
	PathFull      string `json:"path_full"`
	PathThumbnail string `json:"path_thumbnail"`
}

type movie struct {
	Name string            `json:"name"`
	MP4  map[string]string `json:"mp4"`
	WebM map[string]string `json:"webm"`
	HLS  string            `json:"hls_h264"`
	DASH string            `json:"dash_h264"`
}

// flexInt accepts codes encoded either as JSON numbers or numeric strings;
// the storefront uses both for taxonomy ids.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("taxonomy id %q: %w", s, err)
		}
		*f = flexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexStrings accepts a list of names or a single bare name.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexStrings{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*f = list
	return nil
}

// Decode parses an appdetails document and returns the entry for id. A
// document without a successful entry keyed by id, or whose data is not an
// object, yields ErrAbsent. Keys whose values have an unexpected shape are
// left empty and named in skipped; the item itself is still returned.
func Decode(id catalog.ItemID, raw []byte) (meta catalog.ItemMeta, skipped []string, err error) {
	var doc map[string]envelope
	if err := json.Unmarshal(raw, &doc); err != nil {
		return catalog.ItemMeta{}, nil, services.Wrap(services.ErrValidation, "metadata", "decode", "parse document", err)
	}
	entry, ok := doc[id.String()]
	if !ok || !entry.Success || len(entry.Data) == 0 {
		return catalog.ItemMeta{}, nil, ErrAbsent
	}
	var values map[string]json.RawMessage
	if err := json.Unmarshal(entry.Data, &values); err != nil || values == nil {
		// Delisted items come back with "data": [].
		return catalog.ItemMeta{}, nil, ErrAbsent
	}

	// A failed decode may leave a value half filled, so each key is tried on
	// a scratch copy first and only clean values reach details.
	var details, scratch appDetails
	trial := scratch.fields()
	for key, dest := range details.fields() {
		value, ok := values[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, trial[key]); err != nil {
			skipped = append(skipped, key)
			continue
		}
		_ = json.Unmarshal(value, dest)
	}
	slices.Sort(skipped)
	return normalize(id, details), skipped, nil
}

func normalize(id catalog.ItemID, d appDetails) catalog.ItemMeta {
	meta := catalog.ItemMeta{
		ID:          id,
		Name:        strings.TrimSpace(d.Name),
		Type:        strings.TrimSpace(d.Type),
		IsFree:      d.IsFree,
		Description: strings.TrimSpace(html.UnescapeString(d.ShortDescription)),
		HeaderImage: strings.TrimSpace(d.HeaderImage),
		Developers:  cleanStrings(d.Developers),
		Publishers:  cleanStrings(d.Publishers),
		Genres:      cleanTaxa(d.Genres),
		Categories:  cleanTaxa(d.Categories),
		Release: catalog.ReleaseDate{
			Date:       strings.TrimSpace(d.ReleaseDate.Date),
			ComingSoon: d.ReleaseDate.ComingSoon,
		},
	}
	if p := d.PriceOverview; p != nil && strings.TrimSpace(p.Currency) != "" {
		meta.Price = &catalog.Price{
			Currency:        strings.ToUpper(strings.TrimSpace(p.Currency)),
			Initial:         p.Initial,
			Final:           p.Final,
			DiscountPercent: p.DiscountPercent,
		}
	}
	for _, shot := range d.Screenshots {
		path := strings.TrimSpace(shot.PathFull)
		if path == "" {
			path = strings.TrimSpace(shot.PathThumbnail)
		}
		if path != "" {
			meta.Screenshots = append(meta.Screenshots, path)
		}
	}
	for _, m := range d.Movies {
		if link := m.link(); link != "" {
			meta.Trailers = append(meta.Trailers, link)
		}
	}
	return meta
}

// link prefers a progressive download over adaptive manifests.
func (m movie) link() string {
	for _, candidate := range []string{m.MP4["max"], m.MP4["480"], m.WebM["max"], m.WebM["480"], m.HLS, m.DASH} {
		if c := strings.TrimSpace(candidate); c != "" {
			return c
		}
	}
	return ""
}

func cleanStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cleanTaxa(values []taxon) []catalog.Taxon {
	out := make([]catalog.Taxon, 0, len(values))
	for _, v := range values {
		desc := strings.TrimSpace(v.Description)
		if desc == "" && v.ID == 0 {
			continue
		}
		out = append(out, catalog.Taxon{ID: int(v.ID), Description: desc})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
