package testsupport

import (
	"path/filepath"
	"testing"

	"releasewatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Every category gets a placeholder webhook, the inter-item delay is zero,
// and the ledger lives in the temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Ledger.Path = filepath.Join(base, "data", "ledger.db")
	cfgVal.Dispatch.ItemDelaySeconds = 0
	cfgVal.Catalog.RequestsPerSecond = 0
	cfgVal.Channels = config.Channels{
		Demo:        "https://discord.test/api/webhooks/1/demo",
		Coop:        "https://discord.test/api/webhooks/1/coop",
		Multiplayer: "https://discord.test/api/webhooks/1/multiplayer",
		Solo:        "https://discord.test/api/webhooks/1/solo",
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCatalogURL points both catalog endpoints at url, typically an httptest server.
func WithCatalogURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.BaseURL = url
		b.cfg.Catalog.StoreURL = url
	}
}

// WithWebhookBase points every category webhook under base.
func WithWebhookBase(base string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Channels = config.Channels{
			Demo:        base + "/demo",
			Coop:        base + "/coop",
			Multiplayer: base + "/multiplayer",
			Solo:        base + "/solo",
		}
	}
}

// WithMediaMode selects inline or thread media delivery.
func WithMediaMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dispatch.MediaMode = mode
	}
}

// WithNtfyTopic sets the operator alert endpoint.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}
