// Package release decides which described items are out and in what order
// they are announced.
//
// An item is releasable when the storefront does not flag it as upcoming and
// its release date parses to a day at or before the current instant. Dates
// that do not parse never qualify. Releasable items are ordered by date
// ascending, then by name descending, then by identifier, which makes the
// order total and reproducible.
package release
