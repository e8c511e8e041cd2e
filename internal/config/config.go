package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	DataDir   string
	OutputDir string
	AliasPath string

	MatchThreshold       float64
	StateMatchThreshold  float64
	SalaryMinPlausible   int64
	SalaryMaxPlausible   int64
	PlayCallerMinConfirm float64

	BraveAPIBaseURL string
	BraveAPIKey     string
	SearchRateRPS   int
	SearchTimeoutMs int

	ResearchAPIBaseURL string
	ResearchAPIKey     string
	ResearchModel      string
	ResearchDelayMs    int

	PressboxBaseURL    string
	PressboxCookiePath string
	USATodayURL        string
	ScrapeDelayMs      int
	ScrapeTimeoutMs    int

	APIListenAddr string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "db", "coaches.db")),
		DataDir:   getEnv("DATA_DIR", filepath.Join(cwd, "data")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		AliasPath: getEnv("SCHOOL_ALIAS_PATH", ""),

		MatchThreshold:       getEnvFloat("MATCH_THRESHOLD", 0.90),
		StateMatchThreshold:  getEnvFloat("STATE_MATCH_THRESHOLD", 0.88),
		SalaryMinPlausible:   getEnvInt64("SALARY_MIN_PLAUSIBLE", 100_000),
		SalaryMaxPlausible:   getEnvInt64("SALARY_MAX_PLAUSIBLE", 15_000_000),
		PlayCallerMinConfirm: getEnvFloat("PLAY_CALLER_MIN_CONFIDENCE", 0.5),

		BraveAPIBaseURL: getEnv("BRAVE_API_BASE_URL", "https://api.search.brave.com/res/v1"),
		BraveAPIKey:     getEnv("BRAVE_API_KEY", ""),
		SearchRateRPS:   getEnvInt("SEARCH_RATE_LIMIT_RPS", 1),
		SearchTimeoutMs: getEnvInt("SEARCH_TIMEOUT_MS", 20000),

		ResearchAPIBaseURL: getEnv("RESEARCH_API_BASE_URL", "https://api.perplexity.ai"),
		ResearchAPIKey:     getEnv("RESEARCH_API_KEY", ""),
		ResearchModel:      getEnv("RESEARCH_MODEL", "sonar-pro"),
		ResearchDelayMs:    getEnvInt("RESEARCH_DELAY_MS", 2000),

		PressboxBaseURL:    getEnv("PRESSBOX_BASE_URL", "https://collegepressbox.com"),
		PressboxCookiePath: getEnv("PRESSBOX_COOKIE_PATH", filepath.Join(homeDir(), ".coachdb", "credentials", "collegepressbox_cookie")),
		USATodayURL:        getEnv("USATODAY_URL", "https://sportsdata.usatoday.com/ncaa/salaries/football/coach"),
		ScrapeDelayMs:      getEnvInt("SCRAPE_DELAY_MS", 1000),
		ScrapeTimeoutMs:    getEnvInt("SCRAPE_TIMEOUT_MS", 30000),

		APIListenAddr: getEnv("API_LISTEN_ADDR", "127.0.0.1:8100"),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
