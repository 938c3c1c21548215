// Package config reads the run configuration from the environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const DefaultPostsCSV = "https://docs.google.com/spreadsheets/d/1uuLKCLIJw--a1vCcO6UGxSpBiLTtN8uGl2cdMb6wcfg/export?format=csv&gid=0"

// Defaults, also the values out-of-range settings are clamped back to.
const (
	DefaultLookbackHours        = 24
	DefaultMaxItemsPerCategory  = 8
	DefaultRequestTimeout       = 8 * time.Second
	DefaultTranslateTimeout     = 15 * time.Second
	DefaultFetchRetries         = 2
	DefaultMaxTranslateRequests = 60
	DefaultTranslateRPS         = 2.0
	DefaultEngine               = "google"
	DefaultFallbackEngine       = "mymemory"
)

var engines = []string{"google", "mymemory", "gemini", "openai"}

type Config struct {
	// Pipeline
	LookbackHours       int
	MaxItemsPerCategory int
	SocialCategory      string
	SocialReferenceDate string // YYYY-MM-DD; empty means the run day
	Timezone            string

	// Sources
	FeedsConfigPath string
	PostsCSV        string
	OGLookup        bool
	RequestTimeout  time.Duration
	FetchRetries    int

	// Translation
	TranslateToJA        bool
	TranslateEngine      string
	TranslateFallback    string
	TranslateTimeout     time.Duration
	MaxTranslateRequests int // per provider per run (0 = unlimited)
	TranslateRPS         float64
	GeminiAPIKey         string
	OpenAIAPIKey         string

	// Files
	CacheFilePath string
	OutputPath    string

	Debug bool
}

func Load() *Config {
	cfg := &Config{
		LookbackHours:        getEnvIntOrDefault("HOURS_LOOKBACK", DefaultLookbackHours),
		MaxItemsPerCategory:  getEnvIntOrDefault("MAX_ITEMS_PER_CATEGORY", DefaultMaxItemsPerCategory),
		SocialCategory:       strings.ToLower(getEnvOrDefault("SOCIAL_CATEGORY", "posts")),
		SocialReferenceDate:  os.Getenv("SOCIAL_REFERENCE_DATE"),
		Timezone:             getEnvOrDefault("TIMEZONE", "Asia/Tokyo"),
		FeedsConfigPath:      getEnvOrDefault("FEEDS_CONFIG", "feeds.yml"),
		PostsCSV:             getEnvOrDefault("X_POSTS_CSV", DefaultPostsCSV),
		OGLookup:             getEnvBoolOrDefault("OG_LOOKUP", true),
		RequestTimeout:       getEnvDurationOrDefault("REQUEST_TIMEOUT", DefaultRequestTimeout),
		FetchRetries:         getEnvIntOrDefault("FETCH_RETRIES", DefaultFetchRetries),
		TranslateToJA:        getEnvBoolOrDefault("TRANSLATE_TO_JA", true),
		TranslateEngine:      strings.ToLower(getEnvOrDefault("TRANSLATE_ENGINE", DefaultEngine)),
		TranslateFallback:    strings.ToLower(getEnvOrDefault("TRANSLATE_FALLBACK", DefaultFallbackEngine)),
		TranslateTimeout:     getEnvDurationOrDefault("TRANSLATE_TIMEOUT", DefaultTranslateTimeout),
		MaxTranslateRequests: getEnvIntOrDefault("MAX_TRANSLATE_REQUESTS", DefaultMaxTranslateRequests),
		TranslateRPS:         getEnvFloatOrDefault("TRANSLATE_RPS", DefaultTranslateRPS),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		CacheFilePath:        getEnvOrDefault("CACHE_FILE", "_cache/translations.json"),
		OutputPath:           getEnvOrDefault("OUTPUT_FILE", "dist/items.json"),
		Debug:                getEnvBoolOrDefault("DEBUG", false),
	}
	return cfg
}

// Clamp resets out-of-range values to their defaults and returns one warning
// per correction. It never fails.
func (c *Config) Clamp() []string {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if c.LookbackHours < 1 || c.LookbackHours > 168 {
		warn("HOURS_LOOKBACK=%d out of range 1..168, using %d", c.LookbackHours, DefaultLookbackHours)
		c.LookbackHours = DefaultLookbackHours
	}
	if c.MaxItemsPerCategory < 1 || c.MaxItemsPerCategory > 20 {
		warn("MAX_ITEMS_PER_CATEGORY=%d out of range 1..20, using %d", c.MaxItemsPerCategory, DefaultMaxItemsPerCategory)
		c.MaxItemsPerCategory = DefaultMaxItemsPerCategory
	}
	if c.RequestTimeout < time.Second || c.RequestTimeout > 30*time.Second {
		warn("REQUEST_TIMEOUT=%s out of range 1s..30s, using %s", c.RequestTimeout, DefaultRequestTimeout)
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.TranslateTimeout < time.Second || c.TranslateTimeout > time.Minute {
		warn("TRANSLATE_TIMEOUT=%s out of range 1s..60s, using %s", c.TranslateTimeout, DefaultTranslateTimeout)
		c.TranslateTimeout = DefaultTranslateTimeout
	}
	if c.FetchRetries < 0 || c.FetchRetries > 5 {
		warn("FETCH_RETRIES=%d out of range 0..5, using %d", c.FetchRetries, DefaultFetchRetries)
		c.FetchRetries = DefaultFetchRetries
	}
	if c.MaxTranslateRequests < 0 {
		warn("MAX_TRANSLATE_REQUESTS=%d is negative, using %d", c.MaxTranslateRequests, DefaultMaxTranslateRequests)
		c.MaxTranslateRequests = DefaultMaxTranslateRequests
	}
	if c.TranslateRPS < 0 {
		warn("TRANSLATE_RPS=%g is negative, using %g", c.TranslateRPS, DefaultTranslateRPS)
		c.TranslateRPS = DefaultTranslateRPS
	}
	if !slices.Contains(engines, c.TranslateEngine) {
		warn("TRANSLATE_ENGINE=%q unknown, using %s", c.TranslateEngine, DefaultEngine)
		c.TranslateEngine = DefaultEngine
	}
	if c.TranslateFallback != "" && c.TranslateFallback != "none" && !slices.Contains(engines, c.TranslateFallback) {
		warn("TRANSLATE_FALLBACK=%q unknown, using %s", c.TranslateFallback, DefaultFallbackEngine)
		c.TranslateFallback = DefaultFallbackEngine
	}
	if c.TranslateFallback == "none" || c.TranslateFallback == c.TranslateEngine {
		c.TranslateFallback = ""
	}
	if c.SocialReferenceDate != "" {
		if _, err := time.Parse(time.DateOnly, c.SocialReferenceDate); err != nil {
			warn("SOCIAL_REFERENCE_DATE=%q is not YYYY-MM-DD, using the run day", c.SocialReferenceDate)
			c.SocialReferenceDate = ""
		}
	}
	if c.SocialCategory == "" {
		c.SocialCategory = "posts"
	}
	return warnings
}

// Lookback is the window length as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackHours) * time.Hour
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns an unparseable value as -1 so Clamp reports it.
func getEnvIntOrDefault(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return intValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return -1
	}
	return f
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return defaultValue
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("8s") or plain seconds ("8").
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return -1
	}
	return d
}
