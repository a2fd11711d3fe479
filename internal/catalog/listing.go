package catalog

import (
	"regexp"
	"strconv"
)

// listingPattern matches the single-item attribute on search result rows.
// Bundle rows carry a comma separated list and intentionally do not match.
var listingPattern = regexp.MustCompile(`data-ds-appid="(\d+)"`)

// ParseListing extracts candidate identifiers from a raw listing body in
// document order. Duplicates keep their first position and zero or
// overflowing values are ignored.
func ParseListing(body []byte) []ItemID {
	matches := listingPattern.FindAllSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[ItemID]struct{}, len(matches))
	ids := make([]ItemID, 0, len(matches))
	for _, match := range matches {
		value, err := strconv.ParseInt(string(match[1]), 10, 64)
		if err != nil || value <= 0 {
			continue
		}
		id := ItemID(value)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
