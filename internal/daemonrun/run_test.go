package daemonrun

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"releasewatch/internal/config"
	"releasewatch/internal/daemon"
	"releasewatch/internal/logging"
	"releasewatch/internal/pipeline"
	"releasewatch/internal/scheduler"
	"releasewatch/internal/testsupport"
)

func TestAssembledPipelineAnnouncesOnce(t *testing.T) {
	fake := testsupport.NewFakeCatalog(
		testsupport.Item{ID: 10, Name: "Alpha", Date: "2020-01-02", Categories: []int{2}},
		testsupport.Item{ID: 20, Name: "Beta", Date: "2020-01-03", Categories: []int{9}},
	)
	srv := testsupport.NewStoreServer(t, fake)

	cfg := testsupport.NewConfig(t,
		testsupport.WithCatalogURL(srv.URL),
		testsupport.WithWebhookBase(srv.WebhookBase()),
		testsupport.WithMediaMode(config.MediaModeInline),
	)
	components, err := Assemble(context.Background(), cfg, "", false, logging.NewNop())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	t.Cleanup(func() { components.Close() })

	summary, err := components.Pipeline.RunPass(context.Background())
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if summary.Announced != 2 || summary.Recorded != 2 {
		t.Fatalf("unexpected first summary %+v", summary)
	}
	if got := len(srv.Posts()); got != 2 {
		t.Fatalf("expected 2 webhook posts, got %d", got)
	}

	summary, err = components.Pipeline.RunPass(context.Background())
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if summary.AlreadyAnnounced != 2 || summary.Announced != 0 {
		t.Fatalf("expected second pass to skip announced items, got %+v", summary)
	}
	posts := srv.Posts()
	if len(posts) != 2 {
		t.Fatalf("expected no new webhook posts, got %d", len(posts))
	}
	if !strings.HasSuffix(posts[0], "/solo") || !strings.HasSuffix(posts[1], "/coop") {
		t.Fatalf("unexpected routing %v", posts)
	}
}

func TestAssembleDryRunLeavesLedgerEmpty(t *testing.T) {
	fake := testsupport.NewFakeCatalog(testsupport.Item{ID: 30, Name: "Gamma", Date: "2020-05-05"})
	srv := testsupport.NewStoreServer(t, fake)

	cfg := testsupport.NewConfig(t, testsupport.WithCatalogURL(srv.URL), testsupport.WithWebhookBase(srv.WebhookBase()))
	components, err := Assemble(context.Background(), cfg, "", true, logging.NewNop())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	t.Cleanup(func() { components.Close() })

	summary, err := components.Pipeline.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if summary.Previewed != 1 || len(srv.Posts()) != 0 {
		t.Fatalf("expected preview only, summary=%+v posts=%v", summary, srv.Posts())
	}
	count, err := components.Ledger.Count(context.Background())
	if err != nil || count != 0 {
		t.Fatalf("expected empty ledger, count=%d err=%v", count, err)
	}
}

func TestEnsureCurrentLogPointer(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "releasewatch-run.log")
	testsupport.WriteFile(t, target, "line\n")

	if err := ensureCurrentLogPointer(dir, target); err != nil {
		t.Fatalf("ensureCurrentLogPointer: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read pointer: %v", err)
	}
	if string(data) != "line\n" {
		t.Fatalf("pointer does not resolve to target, got %q", data)
	}
}

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "releasewatchd.pid")
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid: %v", err)
	}
	if strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
		t.Fatalf("unexpected pid file contents %q", data)
	}
}

func TestAssembleLogsRejectedConfigReload(t *testing.T) {
	srv := testsupport.NewStoreServer(t, testsupport.NewFakeCatalog())
	cfg := testsupport.NewConfig(t, testsupport.WithCatalogURL(srv.URL), testsupport.WithWebhookBase(srv.WebhookBase()))
	configPath := filepath.Join(t.TempDir(), "config.toml")
	testsupport.WriteFile(t, configPath, "[schedule]\npoll_interval_minutes = 30\n")

	var buf bytes.Buffer
	components, err := Assemble(context.Background(), cfg, configPath, true, slog.New(slog.NewJSONHandler(&buf, nil)))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	t.Cleanup(func() { components.Close() })

	testsupport.WriteFile(t, configPath, "[ledger]\ndriver = \"mongo\"\n")
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(configPath, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	want := cfg.Channel("solo")
	for range 2 {
		if got := components.Live.Channel("solo"); got != want {
			t.Fatalf("expected previous channel %q, got %q", want, got)
		}
	}
	if n := strings.Count(buf.String(), `"event_type":"config_reload_failed"`); n != 1 {
		t.Fatalf("expected one reload warning, got %d in %s", n, buf.String())
	}
}

func TestLogShutdownReportsFinalStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logShutdown(logger, daemon.Status{
		Scheduler: scheduler.Status{
			Passes:   3,
			Failures: 1,
			Last:     &scheduler.Result{Summary: pipeline.Summary{Announced: 2}},
		},
		LedgerDriver:  config.LedgerDriverSQLite,
		LedgerEntries: 41,
		LogPath:       "/var/log/releasewatch/daemon.log",
	})

	out := buf.String()
	for _, want := range []string{
		`"msg":"releasewatch daemon shutting down"`,
		`"passes":3`,
		`"failures":1`,
		`"ledger_entries":41`,
		`"last_announced":2`,
		`"log_path":"/var/log/releasewatch/daemon.log"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in shutdown log:\n%s", want, out)
		}
	}
}
