package release

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"
	"time"

	"releasewatch/internal/catalog"
	"releasewatch/internal/logging"
)

var dateLayouts = []string{
	"Jan 2, 2006",
	"2 Jan, 2006",
	"January 2, 2006",
	"2 January, 2006",
	"2006-01-02",
	"Jan 2006",
}

// ParseDate parses a storefront release date. Dates are interpreted as
// midnight UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Releasable reports whether an item is out as of now.
func Releasable(meta catalog.ItemMeta, now time.Time) bool {
	_, ok := releasedOn(meta, now)
	return ok
}

func releasedOn(meta catalog.ItemMeta, now time.Time) (time.Time, bool) {
	if meta.Release.ComingSoon {
		return time.Time{}, false
	}
	date, ok := ParseDate(meta.Release.Date)
	if !ok || date.After(now) {
		return time.Time{}, false
	}
	return date, true
}

// Prepare drops items that are not yet released and orders the rest.
// Dropped items are logged at info level; they are re-evaluated on a later
// pass because nothing is recorded for them.
func Prepare(items []catalog.ItemMeta, now time.Time, logger *slog.Logger) []catalog.ItemMeta {
	if logger == nil {
		logger = logging.NewNop()
	}
	type dated struct {
		meta catalog.ItemMeta
		date time.Time
	}
	kept := make([]dated, 0, len(items))
	for _, item := range items {
		date, ok := releasedOn(item, now)
		if !ok {
			logger.Info("item not released yet",
				logging.Int64(logging.FieldItemID, int64(item.ID)),
				logging.String(logging.FieldItemName, item.Name),
				logging.String("release_date", item.Release.Date),
				logging.Bool("coming_soon", item.Release.ComingSoon),
			)
			continue
		}
		kept = append(kept, dated{meta: item, date: date})
	}
	// Oldest first; same-day items by name descending, then by id.
	slices.SortStableFunc(kept, func(a, b dated) int {
		return cmp.Or(
			a.date.Compare(b.date),
			strings.Compare(b.meta.Name, a.meta.Name),
			cmp.Compare(a.meta.ID, b.meta.ID),
		)
	})
	out := make([]catalog.ItemMeta, len(kept))
	for i, d := range kept {
		out[i] = d.meta
	}
	return out
}
