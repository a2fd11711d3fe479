package metadata

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"releasewatch/internal/catalog"
	"releasewatch/internal/logging"
	"releasewatch/internal/services"
)

// Fetcher enriches catalog identifiers with item descriptions.
type Fetcher struct {
	client catalog.Client
	logger *slog.Logger
}

// NewFetcher builds a fetcher around a catalog client.
func NewFetcher(client catalog.Client, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		logger: logging.NewComponentLogger(logger, "metadata"),
	}
}

// Fetch returns the normalized description for id. The boolean is false when
// the item could not be described; the cause is logged, never returned.
func (f *Fetcher) Fetch(ctx context.Context, id catalog.ItemID) (catalog.ItemMeta, bool) {
	logger := logging.WithContext(ctx, f.logger).With(logging.Int64(logging.FieldItemID, int64(id)))

	raw, err := f.client.FetchMeta(ctx, id)
	if err != nil {
		kind := services.Classify(err)
		logging.WarnWithContext(logger, "metadata fetch failed", "metadata_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, string(kind)),
			logging.String(logging.FieldErrorHint, services.Hint(kind)),
			logging.String(logging.FieldImpact, "item skipped for this pass"),
		)
		return catalog.ItemMeta{}, false
	}

	meta, skipped, err := Decode(id, raw)
	if err != nil {
		if errors.Is(err, ErrAbsent) {
			logging.WarnWithContext(logger, "metadata unavailable", "metadata_absent",
				logging.String(logging.FieldErrorHint, "item may be delisted or region locked"),
				logging.String(logging.FieldImpact, "item skipped for this pass"),
			)
			return catalog.ItemMeta{}, false
		}
		logging.WarnWithContext(logger, "metadata decode failed", "metadata_decode_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, string(services.Classify(err))),
			logging.String(logging.FieldErrorHint, services.Hint(services.KindMetadata)),
			logging.String(logging.FieldImpact, "item skipped for this pass"),
		)
		return catalog.ItemMeta{}, false
	}
	if len(skipped) > 0 {
		logging.WarnWithContext(logger, "metadata partially decoded", "metadata_partial",
			logging.String(logging.FieldItemName, meta.Name),
			logging.String("fields", strings.Join(skipped, ",")),
			logging.String(logging.FieldErrorHint, "the catalog changed the shape of these fields"),
			logging.String(logging.FieldImpact, "fields render as N/A"),
		)
	}
	logger.Debug("metadata fetched", logging.String(logging.FieldItemName, meta.Name))
	return meta, true
}
