package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/outlierlabs/digest-curator/internal/dedup"
	"github.com/outlierlabs/digest-curator/internal/scoring"
	"github.com/outlierlabs/digest-curator/internal/selection"
	"github.com/outlierlabs/digest-curator/internal/virality"
	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration (six-field cron expression, seconds first)
	Schedule    string
	FetchWindow time.Duration

	// Azure Storage configuration
	StorageAccount   string
	StorageContainer string

	// Topic history
	HistoryBackend        string // "blob" or "sqlite"
	HistoryDBPath         string
	HistoryRetentionWeeks int
	RecordHistory         bool

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// API Keys and credentials
	RedditClientID     string
	RedditClientSecret string
	TwitterBearerToken string
	YouTubeAPIKey      string
	AnthropicAPIKey    string

	// Pre-scraped JSON feeds
	TikTokFeedURL string
	AmazonFeedURL string
	SearchFeedURL string

	// What to curate
	Topics     []string
	Subreddits []string

	// Keyword tables and thresholds; TablesFile overlays the defaults
	TablesFile string
	Scoring    scoring.Config
	Dedup      dedup.Config
	Selection  selection.Config
	Virality   virality.Config
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Debug:       getBoolEnv("DEBUG", false),
		Schedule:    getEnv("SCHEDULE_CRON", "0 0 9 * * MON"),
		FetchWindow: time.Duration(getIntEnv("FETCH_WINDOW_HOURS", 7*24)) * time.Hour,

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "digest-curator"),

		HistoryBackend:        getEnv("HISTORY_BACKEND", "blob"),
		HistoryDBPath:         getEnv("HISTORY_DB_PATH", "curator.db"),
		HistoryRetentionWeeks: getIntEnv("HISTORY_RETENTION_WEEKS", 26),
		RecordHistory:         getBoolEnv("RECORD_HISTORY", true),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		TwitterBearerToken: getEnv("TWITTER_BEARER_TOKEN", ""),
		YouTubeAPIKey:      getEnv("YOUTUBE_API_KEY", ""),
		AnthropicAPIKey:    getEnv("ANTHROPIC_API_KEY", ""),

		TikTokFeedURL: getEnv("TIKTOK_FEED_URL", ""),
		AmazonFeedURL: getEnv("AMAZON_FEED_URL", ""),
		SearchFeedURL: getEnv("SEARCH_FEED_URL", ""),

		Topics: getSliceEnv("TOPICS", []string{
			"shopify store",
			"dtc brand",
			"tiktok shop",
			"amazon fba",
		}),
		Subreddits: getSliceEnv("SUBREDDITS", []string{
			"ecommerce",
			"shopify",
			"FulfillmentByAmazon",
			"Entrepreneur",
			"smallbusiness",
		}),

		TablesFile: getEnv("TABLES_FILE", ""),
	}

	tables, err := LoadTables(cfg.TablesFile)
	if err != nil {
		return nil, err
	}
	cfg.Scoring = tables.Scoring
	cfg.Dedup = tables.Dedup
	cfg.Selection = tables.Selection
	cfg.Virality = tables.Virality

	// Env overrides win over the tables file
	cfg.Dedup.SeenWeeksBack = getIntEnv("DEDUP_WEEKS_BACK", cfg.Dedup.SeenWeeksBack)
	cfg.Dedup.LookbackWeeks = getIntEnv("TOPIC_LOOKBACK_WEEKS", cfg.Dedup.LookbackWeeks)
	cfg.Dedup.SimilarityThreshold = getFloatEnv("TOPIC_SIMILARITY_THRESHOLD", cfg.Dedup.SimilarityThreshold)
	cfg.Dedup.IncludeUndatedRecords = getBoolEnv("INCLUDE_UNDATED_RECORDS", cfg.Dedup.IncludeUndatedRecords)

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.Schedule); err != nil {
		return fmt.Errorf("SCHEDULE_CRON is not a valid cron expression: %w", err)
	}

	if c.HistoryBackend != "blob" && c.HistoryBackend != "sqlite" {
		return fmt.Errorf("HISTORY_BACKEND must be 'blob' or 'sqlite'")
	}

	if c.HistoryBackend == "sqlite" && c.HistoryDBPath == "" {
		return fmt.Errorf("HISTORY_DB_PATH is required when HISTORY_BACKEND is 'sqlite'")
	}

	if c.TeamsWebhookURL == "" && c.NotificationEmail == "" {
		return fmt.Errorf("at least one notification method must be configured (TEAMS_WEBHOOK_URL or NOTIFICATION_EMAIL)")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if len(c.Topics) == 0 {
		return fmt.Errorf("TOPICS must list at least one topic")
	}

	if c.FetchWindow <= 0 {
		return fmt.Errorf("FETCH_WINDOW_HOURS must be positive")
	}

	if c.Dedup.SeenWeeksBack <= 0 || c.Dedup.LookbackWeeks <= 0 {
		return fmt.Errorf("DEDUP_WEEKS_BACK and TOPIC_LOOKBACK_WEEKS must be positive")
	}

	if c.Dedup.SimilarityThreshold <= 0 || c.Dedup.SimilarityThreshold > 1 {
		return fmt.Errorf("TOPIC_SIMILARITY_THRESHOLD must be in (0, 1]")
	}

	// Compact must not remove entries topic dedup still compares against
	if c.HistoryRetentionWeeks < c.Dedup.LookbackWeeks {
		return fmt.Errorf("HISTORY_RETENTION_WEEKS (%d) must be at least TOPIC_LOOKBACK_WEEKS (%d)", c.HistoryRetentionWeeks, c.Dedup.LookbackWeeks)
	}

	if c.Scoring.DecayDays <= 0 {
		return fmt.Errorf("scoring decay_days must be positive")
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var values []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		return values
	}
	return defaultValue
}
