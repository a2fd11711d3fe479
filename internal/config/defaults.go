package config

const (
	defaultConfigPath              = "~/.config/releasewatch/config.toml"
	defaultLogDir                  = "~/.local/share/releasewatch/logs"
	defaultDataDir                 = "~/.local/share/releasewatch"
	defaultLedgerFile              = "ledger.db"
	defaultCatalogBaseURL          = "https://store.steampowered.com"
	defaultCatalogStoreURL         = "https://store.steampowered.com"
	defaultCatalogSortOrder        = "Released_DESC"
	defaultCatalogFilterTag        = "998"
	defaultCatalogCountry          = "us"
	defaultCatalogLanguage         = "en"
	defaultCatalogUserAgent        = "releasewatch/0.1"
	defaultCatalogRequestTimeout   = 60
	defaultCatalogRequestsPerSec   = 1.0
	defaultDispatchItemDelay       = 5
	defaultDispatchMaxScreenshots  = 10
	defaultDispatchRequestTimeout  = 60
	defaultPollIntervalMinutes     = 30
	defaultNotifyRequestTimeout    = 10
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultLogRetentionDays        = 30
	maxScreenshotsPerMessage       = 10
	envWebhookPrefix               = "RELEASEWATCH_WEBHOOK_"
	envLedgerDSN                   = "RELEASEWATCH_LEDGER_DSN"
	envNtfyTopic                   = "RELEASEWATCH_NTFY_TOPIC"
	defaultDispatchUsername        = "Release Watch"
	defaultNotificationsPassFailed = true
)

// Media modes select how screenshots and trailers accompany an announcement.
const (
	MediaModeInline = "inline"
	MediaModeThread = "thread"
)

// Ledger drivers.
const (
	LedgerDriverSQLite   = "sqlite"
	LedgerDriverPostgres = "postgres"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  defaultLogDir,
			DataDir: defaultDataDir,
		},
		Catalog: Catalog{
			BaseURL:           defaultCatalogBaseURL,
			StoreURL:          defaultCatalogStoreURL,
			SortOrder:         defaultCatalogSortOrder,
			FilterTag:         defaultCatalogFilterTag,
			Country:           defaultCatalogCountry,
			Language:          defaultCatalogLanguage,
			UserAgent:         defaultCatalogUserAgent,
			RequestTimeout:    defaultCatalogRequestTimeout,
			RequestsPerSecond: defaultCatalogRequestsPerSec,
		},
		Dispatch: Dispatch{
			MediaMode:        MediaModeThread,
			ItemDelaySeconds: defaultDispatchItemDelay,
			MaxScreenshots:   defaultDispatchMaxScreenshots,
			RequestTimeout:   defaultDispatchRequestTimeout,
			Username:         defaultDispatchUsername,
		},
		Schedule: Schedule{
			PollIntervalMinutes: defaultPollIntervalMinutes,
			RunOnStart:          true,
		},
		Ledger: Ledger{
			Driver: LedgerDriverSQLite,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			PassFailures:   defaultNotificationsPassFailed,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
