// Package catalog is the boundary to the storefront feed.
//
// It owns the item identifier and normalized item description types shared
// by the rest of the pipeline, the documented listing grammar that turns a
// raw search page into candidate identifiers, and the paced HTTP adapter
// that fetches listing pages and per-item metadata documents. Callers only
// see raw bodies from the adapter; decoding metadata lives in
// internal/metadata.
package catalog
