package pipeline

import (
	"context"
	"log/slog"
	"time"

	"releasewatch/internal/announce"
	"releasewatch/internal/catalog"
	"releasewatch/internal/classify"
	"releasewatch/internal/logging"
	"releasewatch/internal/release"
	"releasewatch/internal/services"
)

// Ledger is the subset of the announced-item store a pass needs.
type Ledger interface {
	Has(ctx context.Context, id catalog.ItemID) (bool, error)
	Record(ctx context.Context, id catalog.ItemID, on time.Time) (bool, error)
}

// Fetcher enriches identifiers.
type Fetcher interface {
	Fetch(ctx context.Context, id catalog.ItemID) (catalog.ItemMeta, bool)
}

// Announcer delivers announcements.
type Announcer interface {
	PostItem(ctx context.Context, meta catalog.ItemMeta) bool
	Preview(meta catalog.ItemMeta) announce.Announcement
}

// Options controls a pass.
type Options struct {
	SortOrder string
	FilterTag string
	ItemDelay time.Duration
	// DryRun renders announcements without sending or recording them.
	DryRun bool
}

// Summary counts what happened during a pass.
type Summary struct {
	Discovered       int
	AlreadyAnnounced int
	LedgerErrors     int
	Enriched         int
	Released         int
	Announced        int
	Failed           int
	Recorded         int
	RecordFailures   int
	Previewed        int
	Duration         time.Duration
}

// Pipeline wires the pass collaborators.
type Pipeline struct {
	catalog   catalog.Client
	ledger    Ledger
	fetcher   Fetcher
	announcer Announcer
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(context.Context, time.Duration) error
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithSleeper overrides how the inter-item delay is waited.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(p *Pipeline) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// New builds a pipeline.
func New(client catalog.Client, ledger Ledger, fetcher Fetcher, announcer Announcer, opts Options, logger *slog.Logger, options ...Option) *Pipeline {
	p := &Pipeline{
		catalog:   client,
		ledger:    ledger,
		fetcher:   fetcher,
		announcer: announcer,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// RunPass performs one full pass. The error is non-nil only when the pass
// as a whole failed: discovery failed or the context ended.
func (p *Pipeline) RunPass(ctx context.Context) (summary Summary, err error) {
	start := p.now()
	logger := logging.WithContext(ctx, p.logger)
	defer func() {
		summary.Duration = p.now().Sub(start)
	}()

	ids, err := p.discover(services.WithStage(ctx, "discover"))
	if err != nil {
		return summary, err
	}
	summary.Discovered = len(ids)

	fresh := p.dedup(services.WithStage(ctx, "dedup"), ids, &summary)
	items := p.enrich(services.WithStage(ctx, "enrich"), fresh)
	summary.Enriched = len(items)
	if err = ctx.Err(); err != nil {
		return summary, err
	}

	releasable := release.Prepare(items, p.now(), logger.With(logging.String(logging.FieldStage, "filter")))
	summary.Released = len(releasable)

	if err = p.dispatch(services.WithStage(ctx, "dispatch"), releasable, &summary); err != nil {
		return summary, err
	}

	logger.Info("pass complete",
		logging.Int("discovered", summary.Discovered),
		logging.Int("already_announced", summary.AlreadyAnnounced),
		logging.Int("enriched", summary.Enriched),
		logging.Int("released", summary.Released),
		logging.Int("announced", summary.Announced),
		logging.Int("failed", summary.Failed),
		logging.Int("recorded", summary.Recorded),
		logging.Bool("dry_run", p.opts.DryRun),
		logging.Duration("duration", p.now().Sub(start)),
	)
	return summary, nil
}

func (p *Pipeline) discover(ctx context.Context) ([]catalog.ItemID, error) {
	raw, err := p.catalog.Discover(ctx, p.opts.SortOrder, p.opts.FilterTag)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "discover", "listing unavailable", err)
	}
	ids := catalog.ParseListing(raw)
	logging.WithContext(ctx, p.logger).Debug("listing parsed", logging.Int("candidates", len(ids)))
	return ids, nil
}

func (p *Pipeline) dedup(ctx context.Context, ids []catalog.ItemID, summary *Summary) []catalog.ItemID {
	fresh := make([]catalog.ItemID, 0, len(ids))
	for _, id := range ids {
		itemCtx := services.WithItemID(ctx, int64(id))
		has, err := p.ledger.Has(itemCtx, id)
		if err != nil {
			summary.LedgerErrors++
			logging.WarnWithContext(logging.WithContext(itemCtx, p.logger), "ledger lookup failed", "ledger_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorKind, string(services.KindLedger)),
				logging.String(logging.FieldErrorHint, services.Hint(services.KindLedger)),
				logging.String(logging.FieldImpact, "item skipped for this pass"),
			)
			continue
		}
		if has {
			summary.AlreadyAnnounced++
			continue
		}
		fresh = append(fresh, id)
	}
	return fresh
}

func (p *Pipeline) enrich(ctx context.Context, ids []catalog.ItemID) []catalog.ItemMeta {
	items := make([]catalog.ItemMeta, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		meta, ok := p.fetcher.Fetch(services.WithItemID(ctx, int64(id)), id)
		if !ok {
			continue
		}
		items = append(items, meta)
	}
	return items
}

func (p *Pipeline) dispatch(ctx context.Context, items []catalog.ItemMeta, summary *Summary) error {
	for _, meta := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		itemCtx := services.WithItemID(ctx, int64(meta.ID))
		logger := logging.WithContext(itemCtx, p.logger).With(
			logging.String(logging.FieldItemName, meta.Name),
			logging.String(logging.FieldCategory, classify.Classify(meta).String()),
		)

		if p.opts.DryRun {
			summary.Previewed++
			logger.Info("dry run announcement", logging.String("content", p.announcer.Preview(meta).Content))
			continue
		}

		if !p.announcer.PostItem(itemCtx, meta) {
			summary.Failed++
		} else {
			summary.Announced++
			p.record(itemCtx, logger, meta, summary)
		}

		if p.opts.ItemDelay > 0 {
			if err := p.sleep(ctx, p.opts.ItemDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, meta catalog.ItemMeta, summary *Summary) {
	ok, err := p.ledger.Record(ctx, meta.ID, p.now())
	if ok {
		summary.Recorded++
		return
	}
	summary.RecordFailures++
	attrs := []logging.Attr{
		logging.String(logging.FieldErrorKind, string(services.KindLedger)),
		logging.String(logging.FieldErrorHint, services.Hint(services.KindLedger)),
		logging.String(logging.FieldImpact, "item may be announced again on a later pass"),
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
	}
	logging.ErrorWithContext(logger, "ledger record failed", "ledger_record_failed", attrs...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
