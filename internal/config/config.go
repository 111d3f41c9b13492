package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	WhatsApp WhatsAppConfig
	Relay    RelayConfig
	Retry    RetryConfig
	Watchdog WatchdogConfig
	Contacts ContactsConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Address string
}

type WhatsAppConfig struct {
	Token         string
	VerifyToken   string
	BaseURL       string
	PhoneNumberID string
}

type RelayConfig struct {
	ForwardNumber string
	NewNumber     string
}

type RetryConfig struct {
	File       string
	Interval   time.Duration
	MaxRetries int
}

type WatchdogConfig struct {
	CheckInterval time.Duration
	ReminderLead  time.Duration
	SessionWindow time.Duration
}

type ContactsConfig struct {
	URL        string
	File       string
	LogFile    string
	MatchLast8 bool
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

func LoadAll() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		WhatsApp: WhatsAppConfig{
			Token:         os.Getenv("WHATSAPP_TOKEN"),
			VerifyToken:   os.Getenv("VERIFY_TOKEN"),
			BaseURL:       getEnv("GRAPH_BASE_URL", "https://graph.facebook.com/v20.0"),
			PhoneNumberID: os.Getenv("PHONE_NUMBER_ID"),
		},
		Relay: RelayConfig{
			ForwardNumber: os.Getenv("FORWARD_NUMBER"),
			NewNumber:     os.Getenv("NEW_NUMBER"),
		},
		Retry: RetryConfig{
			File:       getEnv("RETRY_FILE", "retry_queue.json"),
			Interval:   time.Duration(getEnvInt("RETRY_INTERVAL_SECONDS", 60)) * time.Second,
			MaxRetries: getEnvInt("MAX_RETRIES", 5),
		},
		Watchdog: WatchdogConfig{
			CheckInterval: time.Duration(getEnvInt("CHECK_INTERVAL_SECONDS", 300)) * time.Second,
			ReminderLead:  time.Duration(getEnvInt("REMINDER_HOURS_BEFORE", 1)) * time.Hour,
			SessionWindow: 24 * time.Hour,
		},
		Contacts: ContactsConfig{
			URL:        os.Getenv("CONTACTS_URL"),
			File:       os.Getenv("CONTACTS_FILE"),
			LogFile:    getEnv("CONTACTS_LOG_FILE", "contacts_log.txt"),
			MatchLast8: getEnvBool("MATCH_LAST8", true),
		},
		Redis: loadRedisConfig(),
	}

	if cfg.Relay.NewNumber == "" {
		cfg.Relay.NewNumber = cfg.Relay.ForwardNumber
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRedisConfig() RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvInt("REDIS_DB", 0),
		TTL:      time.Duration(getEnvInt("REDIS_TTL_SECONDS", 86400)) * time.Second,
	}
}

func validate(cfg *Config) error {
	for _, req := range []struct {
		key, val string
	}{
		{"WHATSAPP_TOKEN", cfg.WhatsApp.Token},
		{"VERIFY_TOKEN", cfg.WhatsApp.VerifyToken},
		{"FORWARD_NUMBER", cfg.Relay.ForwardNumber},
	} {
		if req.val == "" {
			return fmt.Errorf("missing required env var: %s", req.key)
		}
	}

	if cfg.Retry.Interval <= 0 {
		return fmt.Errorf("RETRY_INTERVAL_SECONDS must be > 0")
	}
	if cfg.Retry.MaxRetries <= 0 {
		return fmt.Errorf("MAX_RETRIES must be > 0")
	}
	if cfg.Watchdog.CheckInterval <= 0 {
		return fmt.Errorf("CHECK_INTERVAL_SECONDS must be > 0")
	}
	if cfg.Watchdog.ReminderLead <= 0 || cfg.Watchdog.ReminderLead >= cfg.Watchdog.SessionWindow {
		return fmt.Errorf("REMINDER_HOURS_BEFORE must be > 0 and < 24")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("invalid int for env %s: %s", key, v))
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(fmt.Sprintf("invalid bool for env %s: %s", key, v))
	}
	return b
}
