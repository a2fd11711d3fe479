// Package metadata turns catalog identifiers into normalized item
// descriptions.
//
// The Fetcher asks the catalog adapter for the appdetails document of one
// item and decodes it into catalog.ItemMeta. Transport failures, decode
// failures, and documents that do not describe the requested item are all
// reported as absence: delisted and malformed entries are routine in the
// feed, so the caller simply moves on to the next item.
package metadata
