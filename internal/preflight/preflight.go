package preflight

import (
	"context"

	"releasewatch/internal/classify"
	"releasewatch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Skipped marks optional checks that did not apply.
	Skipped bool
	Detail  string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckLedger(ctx, cfg),
		CheckCatalog(ctx, cfg.Catalog),
	}

	for _, category := range classify.All {
		results = append(results, CheckWebhook(ctx, "Channel "+category.Label(), cfg.Channel(string(category))))
	}

	if cfg.Notifications.NtfyTopic == "" {
		results = append(results, Result{Name: "ntfy", Skipped: true, Detail: "not configured"})
	} else {
		results = append(results, Result{Name: "ntfy", Passed: true, Detail: cfg.Notifications.NtfyTopic})
	}
	return results
}

// Failed counts checks that neither passed nor were skipped.
func Failed(results []Result) int {
	failed := 0
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			failed++
		}
	}
	return failed
}
