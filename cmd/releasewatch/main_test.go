package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"releasewatch/internal/catalog"
	"releasewatch/internal/config"
	"releasewatch/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	store      *testsupport.StoreServer
}

func setupCLITestEnv(t *testing.T, items ...testsupport.Item) *cliTestEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(home)

	store := testsupport.NewStoreServer(t, testsupport.NewFakeCatalog(items...))
	cfg := testsupport.NewConfig(t,
		testsupport.WithCatalogURL(store.URL),
		testsupport.WithWebhookBase(store.WebhookBase()),
		testsupport.WithMediaMode(config.MediaModeInline),
	)
	configPath := filepath.Join(home, ".config", "releasewatch", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, store: store}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestConfigValidateWarnsAboutMissingChannels(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Channels.Demo = ""
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "1 category channel(s) not configured")
}

func TestConfigValidateNotesForumRequirementInThreadMode(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Dispatch.MediaMode = config.MediaModeThread
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "forum channel webhooks")

	env.cfg.Dispatch.MediaMode = config.MediaModeInline
	writeTestConfig(t, env.configPath, env.cfg)
	out, _, err = runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if strings.Contains(out, "forum channel webhooks") {
		t.Fatalf("inline mode should not mention forum webhooks:\n%s", out)
	}
}

func TestLedgerCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenLedger(t, env.cfg)
	on := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	for _, id := range []catalog.ItemID{10, 20} {
		if ok, err := store.Record(context.Background(), id, on); !ok {
			t.Fatalf("record %d: %v", id, err)
		}
	}

	out, _, err := runCLI(t, []string{"ledger", "count"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger count: %v", err)
	}
	if strings.TrimSpace(out) != "2" {
		t.Fatalf("expected count 2, got %q", out)
	}

	out, _, err = runCLI(t, []string{"ledger", "has", "20"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger has: %v", err)
	}
	if strings.TrimSpace(out) != "yes" {
		t.Fatalf("expected yes, got %q", out)
	}
	out, _, _ = runCLI(t, []string{"ledger", "has", "30"}, env.configPath)
	if strings.TrimSpace(out) != "no" {
		t.Fatalf("expected no, got %q", out)
	}

	out, _, err = runCLI(t, []string{"ledger", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger list: %v", err)
	}
	requireContains(t, out, "2026-03-04")
	requireContains(t, out, "/app/20/")
	requireContains(t, strings.ToUpper(out), "STORE PAGE")
	requireContains(t, strings.ToUpper(out), "SHOWN")

	out, _, err = runCLI(t, []string{"ledger", "list", "-n", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger list -n 1: %v", err)
	}
	if strings.Count(out, "/app/") != 1 {
		t.Fatalf("expected a single listed entry:\n%s", out)
	}

	if _, _, err := runCLI(t, []string{"ledger", "has", "abc"}, env.configPath); err == nil {
		t.Fatal("expected invalid id to fail")
	}
}

func TestOnceDryRunSendsNothing(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.Item{ID: 10, Name: "Alpha", Date: "2020-01-02"})

	out, _, err := runCLI(t, []string{"once", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("once --dry-run: %v", err)
	}
	requireContains(t, strings.ToUpper(out), "PASS SUMMARY")
	requireContains(t, out, "Previewed")
	if posts := env.store.Posts(); len(posts) != 0 {
		t.Fatalf("expected no webhook posts, got %v", posts)
	}
}

func TestOnceAnnouncesAndRecords(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.Item{ID: 10, Name: "Alpha", Date: "2020-01-02", Categories: []int{38}},
		testsupport.Item{ID: 20, Name: "Later", Date: "2999-01-01"},
	)

	out, _, err := runCLI(t, []string{"once"}, env.configPath)
	if err != nil {
		t.Fatalf("once: %v", err)
	}
	requireContains(t, out, "Announced")
	posts := env.store.Posts()
	if len(posts) != 1 || !strings.HasSuffix(posts[0], "/coop") {
		t.Fatalf("expected one coop post, got %v", posts)
	}

	out, _, err = runCLI(t, []string{"ledger", "has", "10"}, env.configPath)
	if err != nil || strings.TrimSpace(out) != "yes" {
		t.Fatalf("expected item 10 recorded, out=%q err=%v", out, err)
	}
}

func TestPreviewRendersAnnouncement(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.Item{ID: 10, Name: "Alpha", Date: "2020-01-02", Categories: []int{1}})

	out, _, err := runCLI(t, []string{"preview", "10"}, env.configPath)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	requireContains(t, out, "## [Alpha]")
	requireContains(t, out, "Multiplayer")
	if posts := env.store.Posts(); len(posts) != 0 {
		t.Fatalf("preview must not post, got %v", posts)
	}

	if _, _, err := runCLI(t, []string{"preview", "99"}, env.configPath); err == nil {
		t.Fatal("expected preview of unknown item to fail")
	}
}

func TestTestNotifyCategory(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify", "solo"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify solo: %v", err)
	}
	requireContains(t, out, "Test message sent to Solo")
	if posts := env.store.Posts(); len(posts) != 1 || !strings.HasSuffix(posts[0], "/solo") {
		t.Fatalf("expected one solo post, got %v", posts)
	}

	if _, _, err := runCLI(t, []string{"test-notify", "arcade"}, env.configPath); err == nil {
		t.Fatal("expected unknown category to fail")
	}

	out, _, err = runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify without ntfy: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")
}

func TestDoctorAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "Channel Coop")

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "stopped")
	requireContains(t, out, "0 announced")

	env.cfg.Channels.Solo = ""
	writeTestConfig(t, env.configPath, env.cfg)
	if _, _, err := runCLI(t, []string{"doctor"}, env.configPath); err == nil {
		t.Fatal("expected doctor to fail with a missing channel")
	}
}

func TestLogsPrintsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.LogDir, "releasewatch.log"), "first\nsecond\nthird\n")

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.TrimSpace(out) != "second\nthird" {
		t.Fatalf("unexpected log output %q", out)
	}
}
