package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"releasewatch/internal/announce"
	"releasewatch/internal/catalog"
	"releasewatch/internal/config"
	"releasewatch/internal/discord"
	"releasewatch/internal/ledger"
	"releasewatch/internal/logging"
	"releasewatch/internal/metadata"
	"releasewatch/internal/pipeline"
)

// Components holds the collaborators of a pass built from configuration.
type Components struct {
	Config     *config.Config
	Live       *config.Live
	Catalog    *catalog.HTTPClient
	Ledger     ledger.Ledger
	Fetcher    *metadata.Fetcher
	Dispatcher *announce.Dispatcher
	Pipeline   *pipeline.Pipeline
}

// Close releases the ledger.
func (c *Components) Close() error {
	if c == nil || c.Ledger == nil {
		return nil
	}
	return c.Ledger.Close()
}

// Assemble opens the ledger and builds the pass pipeline. configPath is
// watched for channel changes; pass "" to serve cfg as loaded.
func Assemble(ctx context.Context, cfg *config.Config, configPath string, dryRun bool, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	store, err := ledger.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	live := config.NewLive(cfg, configPath, func(err error) {
		logging.WarnWithContext(logging.NewComponentLogger(logger, "config"), "config reload rejected; previous channels kept", "config_reload_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the file and save it again; releasewatch config validate shows the problem"),
			logging.String(logging.FieldImpact, "channel changes are ignored until the file is valid"),
		)
	})
	client := catalog.NewHTTPClient(cfg.Catalog)
	fetcher := metadata.NewFetcher(client, logger)

	dispatchTimeout := time.Duration(cfg.Dispatch.RequestTimeout) * time.Second
	var media announce.MediaFetcher
	if cfg.ThreadMode() {
		media = announce.NewDownloader(dispatchTimeout)
	}
	dispatcher := announce.NewDispatcher(
		discord.NewClient(dispatchTimeout),
		live,
		media,
		announce.Options{
			StoreURL:       cfg.Catalog.StoreURL,
			Thread:         cfg.ThreadMode(),
			MaxScreenshots: cfg.Dispatch.MaxScreenshots,
			Username:       cfg.Dispatch.Username,
		},
		logger,
	)

	pipe := pipeline.New(client, store, fetcher, dispatcher, pipeline.Options{
		SortOrder: cfg.Catalog.SortOrder,
		FilterTag: cfg.Catalog.FilterTag,
		ItemDelay: time.Duration(cfg.Dispatch.ItemDelaySeconds) * time.Second,
		DryRun:    dryRun,
	}, logger)

	return &Components{
		Config:     cfg,
		Live:       live,
		Catalog:    client,
		Ledger:     store,
		Fetcher:    fetcher,
		Dispatcher: dispatcher,
		Pipeline:   pipe,
	}, nil
}
