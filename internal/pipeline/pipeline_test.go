package pipeline_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"releasewatch/internal/announce"
	"releasewatch/internal/catalog"
	"releasewatch/internal/discord"
	"releasewatch/internal/logging"
	"releasewatch/internal/metadata"
	"releasewatch/internal/pipeline"
	"releasewatch/internal/testsupport"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	catalog   *testsupport.FakeCatalog
	ledger    *testsupport.MemoryLedger
	transport *testsupport.RecordingTransport
	sleeps    []time.Duration
	pipeline  *pipeline.Pipeline
}

func newHarness(t *testing.T, opts pipeline.Options, items ...testsupport.Item) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	h := &harness{
		catalog:   testsupport.NewFakeCatalog(items...),
		ledger:    testsupport.NewMemoryLedger(),
		transport: &testsupport.RecordingTransport{Receipt: discord.Receipt{MessageID: "t", ChannelID: "t"}},
	}
	logger := logging.NewNop()
	dispatcher := announce.NewDispatcher(h.transport, cfg, nil, announce.Options{
		StoreURL: cfg.Catalog.StoreURL,
		Thread:   false,
	}, logger)
	h.pipeline = pipeline.New(h.catalog, h.ledger, metadata.NewFetcher(h.catalog, logger), dispatcher, opts, logger,
		pipeline.WithClock(func() time.Time { return fixedNow }),
		pipeline.WithSleeper(func(ctx context.Context, d time.Duration) error {
			h.sleeps = append(h.sleeps, d)
			return ctx.Err()
		}),
	)
	return h
}

func (h *harness) sentNames() []string {
	var names []string
	for _, s := range h.transport.Sent() {
		line, _, _ := strings.Cut(s.Message.Content, "]")
		names = append(names, strings.TrimPrefix(line, "## ["))
	}
	return names
}

func TestRunPassIsIdempotent(t *testing.T) {
	h := newHarness(t, pipeline.Options{},
		testsupport.Item{ID: 1, Name: "One", Date: "2024-05-01"},
		testsupport.Item{ID: 2, Name: "Two", Date: "2024-05-02"},
	)

	first, err := h.pipeline.RunPass(context.Background())
	if err != nil {
		t.Fatalf("first pass returned error: %v", err)
	}
	if first.Announced != 2 || first.Recorded != 2 {
		t.Fatalf("unexpected first summary %+v", first)
	}

	second, err := h.pipeline.RunPass(context.Background())
	if err != nil {
		t.Fatalf("second pass returned error: %v", err)
	}
	if second.Announced != 0 || second.AlreadyAnnounced != 2 {
		t.Fatalf("expected nothing announced on second pass, got %+v", second)
	}
	if len(h.transport.Sent()) != 2 {
		t.Fatalf("expected 2 total sends, got %d", len(h.transport.Sent()))
	}
}

func TestRunPassIsolatesSendFailures(t *testing.T) {
	h := newHarness(t, pipeline.Options{},
		testsupport.Item{ID: 1, Name: "Broken", Date: "2024-05-01"},
		testsupport.Item{ID: 2, Name: "Working", Date: "2024-05-02"},
	)
	h.transport.FailContent = []string{"Broken"}

	summary, err := h.pipeline.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass returned error: %v", err)
	}
	if summary.Failed != 1 || summary.Announced != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if got := h.ledger.IDs(); !slices.Equal(got, []catalog.ItemID{2}) {
		t.Fatalf("expected only item 2 recorded, got %v", got)
	}

	// The failed item is retried by the next pass.
	h.transport.FailContent = nil
	summary, err = h.pipeline.RunPass(context.Background())
	if err != nil {
		t.Fatalf("retry pass returned error: %v", err)
	}
	if summary.Announced != 1 || !slices.Equal(h.ledger.IDs(), []catalog.ItemID{2, 1}) {
		t.Fatalf("expected failed item announced on retry, summary %+v ids %v", summary, h.ledger.IDs())
	}
}

func TestRunPassFiltersAndOrders(t *testing.T) {
	h := newHarness(t, pipeline.Options{},
		testsupport.Item{ID: 1, Name: "Alpha", Date: "Jan 1, 2024"},
		testsupport.Item{ID: 2, Name: "Upcoming", Date: "2024-01-01", ComingSoon: true},
		testsupport.Item{ID: 3, Name: "Zeta", Date: "2024-01-01"},
		testsupport.Item{ID: 4, Name: "Future", Date: "2030-01-01"},
		testsupport.Item{ID: 5, Name: "Vague", Date: "Coming soon"},
		testsupport.Item{ID: 6, Name: "Early", Date: "2023-12-31"},
	)

	summary, err := h.pipeline.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass returned error: %v", err)
	}
	if summary.Discovered != 6 || summary.Enriched != 6 || summary.Released != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if got := h.sentNames(); !slices.Equal(got, []string{"Early", "Zeta", "Alpha"}) {
		t.Fatalf("unexpected announcement order %v", got)
	}
	if got := h.ledger.IDs(); !slices.Equal(got, []catalog.ItemID{6, 3, 1}) {
		t.Fatalf("unexpected recorded ids %v", got)
	}
}

func TestRunPassRoutesByCategory(t *testing.T) {
	h := newHarness(t, pipeline.Options{},
		testsupport.Item{ID: 1, Name: "Demo", Type: "demo", Date: "2024-01-01", Categories: []int{9}},
		testsupport.Item{ID: 2, Name: "Coop", Date: "2024-01-02", Categories: []int{38}},
		testsupport.Item{ID: 3, Name: "Versus", Date: "2024-01-03", Categories: []int{49}},
		testsupport.Item{ID: 4, Name: "Alone", Date: "2024-01-04", Categories: []int{2}},
	)
	if _, err := h.pipeline.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass returned error: %v", err)
	}
	var webhooks []string
	for _, s := range h.transport.Sent() {
		webhooks = append(webhooks, s.Webhook[strings.LastIndex(s.Webhook, "/")+1:])
	}
	if !slices.Equal(webhooks, []string{"demo", "coop", "multiplayer", "solo"}) {
		t.Fatalf("unexpected routing %v", webhooks)
	}
}

func TestRunPassLedgerFailures(t *testing.T) {
	h := newHarness(t, pipeline.Options{},
		testsupport.Item{ID: 1, Name: "Unknown", Date: "2024-01-01"},
		testsupport.Item{ID: 2, Name: "Unrecorded", Date: "2024-01-02"},
	)
	h.ledger.HasErr[1] = testsupport.ErrInjected
	h.ledger.RecordErr[2] = testsupport.ErrInjected

	summary, err := h.pipeline.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass returned error: %v", err)
	}
	if summary.LedgerErrors != 1 {
		t.Fatalf("expected lookup failure counted, got %+v", summary)
	}
	if got := h.sentNames(); !slices.Equal(got, []string{"Unrecorded"}) {
		t.Fatalf("expected lookup failure to skip item 1, sent %v", got)
	}
	if summary.Announced != 1 || summary.RecordFailures != 1 || summary.Recorded != 0 {
		t.Fatalf("expected send kept despite record failure, got %+v", summary)
	}
}

func TestRunPassSkipsAbsentMetadata(t *testing.T) {
	h := newHarness(t, pipeline.Options{},
		testsupport.Item{ID: 1, Name: "Gone", Date: "2024-01-01"},
		testsupport.Item{ID: 2, Name: "Here", Date: "2024-01-02"},
	)
	h.catalog.MetaErr[1] = testsupport.ErrInjected

	summary, err := h.pipeline.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass returned error: %v", err)
	}
	if summary.Enriched != 1 || summary.Announced != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunPassDiscoveryFailure(t *testing.T) {
	h := newHarness(t, pipeline.Options{})
	h.catalog.DiscoverErr = testsupport.ErrInjected

	if _, err := h.pipeline.RunPass(context.Background()); !errors.Is(err, testsupport.ErrInjected) {
		t.Fatalf("expected discovery error, got %v", err)
	}
}

func TestRunPassDelaysAfterEachSendAttempt(t *testing.T) {
	h := newHarness(t, pipeline.Options{ItemDelay: 5 * time.Second},
		testsupport.Item{ID: 1, Name: "A", Date: "2024-01-01"},
		testsupport.Item{ID: 2, Name: "B", Date: "2024-01-02"},
		testsupport.Item{ID: 3, Name: "C", Date: "2024-01-03"},
	)
	h.transport.FailContent = []string{"[B]"}

	if _, err := h.pipeline.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass returned error: %v", err)
	}
	if len(h.sleeps) != 3 {
		t.Fatalf("expected a delay after each of 3 send attempts, got %v", h.sleeps)
	}
	for _, d := range h.sleeps {
		if d != 5*time.Second {
			t.Fatalf("unexpected delay %v", d)
		}
	}
}

func TestRunPassStopsWhenCanceled(t *testing.T) {
	h := newHarness(t, pipeline.Options{ItemDelay: time.Second},
		testsupport.Item{ID: 1, Name: "A", Date: "2024-01-01"},
		testsupport.Item{ID: 2, Name: "B", Date: "2024-01-02"},
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopping := pipeline.New(h.catalog, h.ledger, metadata.NewFetcher(h.catalog, nil),
		announce.NewDispatcher(h.transport, testsupport.NewConfig(t), nil, announce.Options{}, nil),
		pipeline.Options{ItemDelay: time.Second}, nil,
		pipeline.WithClock(func() time.Time { return fixedNow }),
		pipeline.WithSleeper(func(context.Context, time.Duration) error {
			cancel()
			return context.Canceled
		}),
	)
	summary, err := stopping.RunPass(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if summary.Announced != 1 || len(h.ledger.IDs()) != 1 {
		t.Fatalf("expected first item kept before cancellation, got %+v", summary)
	}
}

func TestRunPassDryRun(t *testing.T) {
	h := newHarness(t, pipeline.Options{DryRun: true},
		testsupport.Item{ID: 1, Name: "A", Date: "2024-01-01"},
	)
	summary, err := h.pipeline.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass returned error: %v", err)
	}
	if summary.Previewed != 1 || len(h.transport.Sent()) != 0 || len(h.ledger.IDs()) != 0 {
		t.Fatalf("dry run must neither send nor record, got %+v", summary)
	}
}
