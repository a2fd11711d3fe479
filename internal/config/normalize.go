package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeChannels()
	c.normalizeDispatch()
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = defaultCatalogBaseURL
	}
	c.Catalog.StoreURL = strings.TrimRight(strings.TrimSpace(c.Catalog.StoreURL), "/")
	if c.Catalog.StoreURL == "" {
		c.Catalog.StoreURL = defaultCatalogStoreURL
	}
	c.Catalog.SortOrder = strings.TrimSpace(c.Catalog.SortOrder)
	if c.Catalog.SortOrder == "" {
		c.Catalog.SortOrder = defaultCatalogSortOrder
	}
	c.Catalog.FilterTag = strings.TrimSpace(c.Catalog.FilterTag)
	if c.Catalog.FilterTag == "" {
		c.Catalog.FilterTag = defaultCatalogFilterTag
	}
	c.Catalog.Country = strings.ToLower(strings.TrimSpace(c.Catalog.Country))
	if c.Catalog.Country == "" {
		c.Catalog.Country = defaultCatalogCountry
	}
	c.Catalog.Language = strings.ToLower(strings.TrimSpace(c.Catalog.Language))
	if c.Catalog.Language == "" {
		c.Catalog.Language = defaultCatalogLanguage
	}
	c.Catalog.UserAgent = strings.TrimSpace(c.Catalog.UserAgent)
	if c.Catalog.UserAgent == "" {
		c.Catalog.UserAgent = defaultCatalogUserAgent
	}
	if c.Catalog.RequestTimeout <= 0 {
		c.Catalog.RequestTimeout = defaultCatalogRequestTimeout
	}
	if c.Catalog.RequestsPerSecond < 0 {
		c.Catalog.RequestsPerSecond = 0
	}
}

// normalizeChannels trims webhook URLs and fills empty ones from
// RELEASEWATCH_WEBHOOK_<CATEGORY>.
func (c *Config) normalizeChannels() {
	fill := func(value *string, category string) {
		*value = strings.TrimSpace(*value)
		if *value != "" {
			return
		}
		if env, ok := os.LookupEnv(envWebhookPrefix + strings.ToUpper(category)); ok {
			*value = strings.TrimSpace(env)
		}
	}
	fill(&c.Channels.Demo, "demo")
	fill(&c.Channels.Coop, "coop")
	fill(&c.Channels.Multiplayer, "multiplayer")
	fill(&c.Channels.Solo, "solo")
}

func (c *Config) normalizeDispatch() {
	c.Dispatch.MediaMode = strings.ToLower(strings.TrimSpace(c.Dispatch.MediaMode))
	if c.Dispatch.MediaMode == "" {
		c.Dispatch.MediaMode = MediaModeThread
	}
	if c.Dispatch.ItemDelaySeconds < 0 {
		c.Dispatch.ItemDelaySeconds = 0
	}
	if c.Dispatch.MaxScreenshots <= 0 || c.Dispatch.MaxScreenshots > maxScreenshotsPerMessage {
		c.Dispatch.MaxScreenshots = maxScreenshotsPerMessage
	}
	if c.Dispatch.RequestTimeout <= 0 {
		c.Dispatch.RequestTimeout = defaultDispatchRequestTimeout
	}
	c.Dispatch.Username = strings.TrimSpace(c.Dispatch.Username)
}

func (c *Config) normalizeLedger() error {
	c.Ledger.Driver = strings.ToLower(strings.TrimSpace(c.Ledger.Driver))
	switch c.Ledger.Driver {
	case "", "sqlite3":
		c.Ledger.Driver = LedgerDriverSQLite
	case "postgresql", "pg":
		c.Ledger.Driver = LedgerDriverPostgres
	}
	c.Ledger.DSN = strings.TrimSpace(c.Ledger.DSN)
	if c.Ledger.DSN == "" {
		if value, ok := os.LookupEnv(envLedgerDSN); ok {
			c.Ledger.DSN = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Ledger.Path) == "" {
		c.Ledger.Path = filepath.Join(c.Paths.DataDir, defaultLedgerFile)
	}
	var err error
	if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv(envNtfyTopic); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
