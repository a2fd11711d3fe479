package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateChannels(); err != nil {
		return err
	}
	if err := c.validateDispatch(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateLedger(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCatalog() error {
	for key, value := range map[string]string{
		"catalog.base_url":  c.Catalog.BaseURL,
		"catalog.store_url": c.Catalog.StoreURL,
	} {
		if err := validateHTTPURL(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if c.Catalog.RequestTimeout <= 0 {
		return errors.New("catalog.request_timeout must be positive (seconds)")
	}
	return nil
}

// validateChannels only checks the shape of configured webhooks. A missing
// channel is reported at send time so the remaining categories keep flowing.
func (c *Config) validateChannels() error {
	for key, value := range map[string]string{
		"channels.demo":        c.Channels.Demo,
		"channels.coop":        c.Channels.Coop,
		"channels.multiplayer": c.Channels.Multiplayer,
		"channels.solo":        c.Channels.Solo,
	} {
		if value == "" {
			continue
		}
		if err := validateHTTPURL(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) validateDispatch() error {
	switch c.Dispatch.MediaMode {
	case MediaModeInline, MediaModeThread:
	default:
		return fmt.Errorf("dispatch.media_mode must be %q or %q, got %q", MediaModeInline, MediaModeThread, c.Dispatch.MediaMode)
	}
	if c.Dispatch.MaxScreenshots > maxScreenshotsPerMessage {
		return fmt.Errorf("dispatch.max_screenshots must be at most %d", maxScreenshotsPerMessage)
	}
	return ensurePositiveMap(map[string]int{
		"dispatch.request_timeout":      c.Dispatch.RequestTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateSchedule() error {
	if c.Schedule.PollIntervalMinutes <= 0 {
		return errors.New("schedule.poll_interval_minutes must be positive")
	}
	return nil
}

func (c *Config) validateLedger() error {
	switch c.Ledger.Driver {
	case LedgerDriverSQLite:
		if strings.TrimSpace(c.Ledger.Path) == "" {
			return errors.New("ledger.path must be set when ledger.driver is sqlite")
		}
	case LedgerDriverPostgres:
		if c.Ledger.DSN == "" {
			return fmt.Errorf("ledger.dsn must be set when ledger.driver is postgres (or set %s)", envLedgerDSN)
		}
	default:
		return fmt.Errorf("ledger.driver must be %q or %q, got %q", LedgerDriverSQLite, LedgerDriverPostgres, c.Ledger.Driver)
	}
	return nil
}

func validateHTTPURL(value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("url host is required")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
