package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"releasewatch/internal/config"
	"releasewatch/internal/ledger"
)

const probeTimeout = 5 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLedger opens the configured ledger and counts its rows.
func CheckLedger(ctx context.Context, cfg *config.Config) Result {
	name := "Ledger (" + cfg.Ledger.Driver + ")"

	checkCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	store, err := ledger.Open(checkCtx, cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()

	count, err := store.Count(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d announced items", count)}
}

// CheckCatalog verifies the storefront answers a plain GET.
func CheckCatalog(ctx context.Context, cfg config.Catalog) Result {
	const name = "Catalog"

	base := strings.TrimRight(strings.TrimSpace(cfg.StoreURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing store url"}
	}
	status, err := probe(ctx, base+"/", cfg.UserAgent)
	if err != nil {
		return Result{Name: name, Detail: summarizeProbeError(err)}
	}
	if status >= http.StatusInternalServerError {
		return Result{Name: name, Detail: fmt.Sprintf("unhealthy (%d)", status)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckWebhook verifies a category webhook is configured and accepted by Discord.
func CheckWebhook(ctx context.Context, name, webhookURL string) Result {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return Result{Name: name, Detail: "not configured (items in this category will fail)"}
	}

	status, err := probe(ctx, webhookURL, "")
	if err != nil {
		return Result{Name: name, Detail: summarizeProbeError(err)}
	}
	switch {
	case status == http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Valid"}
	case status == http.StatusUnauthorized || status == http.StatusNotFound:
		return Result{Name: name, Detail: fmt.Sprintf("webhook rejected (%d)", status)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("webhook check failed (%d)", status)}
	}
}

func probe(ctx context.Context, target, userAgent string) (int, error) {
	checkCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	client := &http.Client{Timeout: probeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func summarizeProbeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (endpoint unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (endpoint unreachable)"
	}
	return err.Error()
}
