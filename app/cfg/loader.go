package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/content-comb.db" description:"Path to the SQLite database file"`

	// Application configuration
	SourcesDir        string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source seed files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for source processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Ingestion configuration
	FetchTimeout   int      `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10" description:"Timeout in seconds for a single fetch attempt"`
	ProxyURLs      []string `long:"proxy-url" env:"PROXY_URLS" env-delim:"," description:"Proxy prefixes tried in order after direct access fails"`
	ImportMaxItems int      `long:"import-max-items" env:"IMPORT_MAX_ITEMS" default:"20" description:"Maximum number of items fetched per platform import"`
	YouTubeAPIKey  string   `long:"youtube-api-key" env:"YOUTUBE_API_KEY" description:"YouTube Data API key (optional)"`

	// Classification configuration
	GeminiAPIKey        string  `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Gemini API key; classification is disabled when empty"`
	ClassifyModel       string  `long:"classify-model" env:"CLASSIFY_MODEL" default:"gemini-2.5-flash-lite" description:"Model used for content classification"`
	ClassifyTemperature float64 `long:"classify-temperature" env:"CLASSIFY_TEMPERATURE" default:"0.2" description:"Sampling temperature for classification"`
	ClassifyMaxTokens   int     `long:"classify-max-tokens" env:"CLASSIFY_MAX_TOKENS" default:"400" description:"Maximum output tokens for classification"`

	// Retention configuration
	CleanupMaxAgeDays int `long:"cleanup-max-age" env:"CLEANUP_MAX_AGE_DAYS" default:"30" description:"Age in days after which unsaved, untransformed articles are removed"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Content Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		SourcesDir:          raw.SourcesDir,
		Port:                raw.Port,
		WorkerCount:         raw.WorkerCount,
		SchedulerInterval:   raw.SchedulerInterval,
		APIAccessKey:        raw.APIAccessKey,
		FetchTimeout:        raw.FetchTimeout,
		ProxyURLs:           raw.ProxyURLs,
		ImportMaxItems:      raw.ImportMaxItems,
		YouTubeAPIKey:       raw.YouTubeAPIKey,
		GeminiAPIKey:        raw.GeminiAPIKey,
		ClassifyModel:       raw.ClassifyModel,
		ClassifyTemperature: raw.ClassifyTemperature,
		ClassifyMaxTokens:   raw.ClassifyMaxTokens,
		CleanupMaxAgeDays:   raw.CleanupMaxAgeDays,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// SetForTesting replaces the global configuration. Tests only.
func SetForTesting(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
