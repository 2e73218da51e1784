package config

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the bot and the availability checker.
type Config struct {
	TelegramToken      string
	Debug              bool
	LogLevel           string
	DBPath             string
	DistrictsCachePath string
	APIURL             string
	APIDelay           time.Duration
	HTTPTimeout        time.Duration
	CheckInterval      time.Duration
	SendDelay          time.Duration
	SessionTTL         time.Duration
	ButtonsTTL         time.Duration
	ButtonsCapacity    int
	MetricsAddr        string
}

// ErrNoToken is returned when neither the flag nor the environment carries a bot token.
var ErrNoToken = errors.New("telegram bot token is required: use -token or TELEGRAM_BOT_TOKEN")

// Load reads .env (if present), the environment and the command-line flags in args.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("gorzdravbot", flag.ContinueOnError)
	debug := fs.Bool("debug", false, "Enable debug logging")
	token := fs.String("token", "", "Telegram bot token (or use TELEGRAM_BOT_TOKEN env var)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		TelegramToken:      *token,
		Debug:              *debug,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DBPath:             getEnv("DB_PATH", "data/gorzdrav.db"),
		DistrictsCachePath: getEnv("DISTRICTS_CACHE_PATH", "data/districts.json"),
		APIURL:             strings.TrimRight(getEnv("GORZDRAV_API_URL", "https://gorzdrav.spb.ru/_api/api/v2"), "/"),
		APIDelay:           getEnvAsDuration("API_DELAY", time.Second),
		HTTPTimeout:        getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
		CheckInterval:      time.Duration(getEnvAsInt("CHECKER_TIMEOUT_SECS", 120)) * time.Second,
		SendDelay:          getEnvAsDuration("SEND_DELAY", 200*time.Millisecond),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		ButtonsTTL:         getEnvAsDuration("BUTTONS_TTL", 5*time.Minute),
		ButtonsCapacity:    getEnvAsInt("BUTTONS_CAPACITY", 10000),
		MetricsAddr:        getEnv("METRICS_ADDR", ":9090"),
	}
	if cfg.TelegramToken == "" {
		cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	}
	if cfg.TelegramToken == "" {
		return nil, ErrNoToken
	}
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 120 * time.Second
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
