package config

import (
	"fmt"
	"os"
	"strings"

	"billing/internal/domain"

	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// maxDBConns caps DB_MAX_CONNS; pgxpool takes an int32.
const maxDBConns = 1000

type Config struct {
	Port        int
	Store       string
	DatabaseURL string
	DBMaxConns  int
	LogLevel    string
	LogFormat   string

	// Defaults seeds the settings record on first run.
	Defaults domain.Settings
}

func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom reads envPath when it exists and lets environment variables
// override it.
func LoadFrom(envPath string) (Config, error) {
	v := viper.New()
	v.SetDefault("PORT", 8080)
	v.SetDefault("STORE", StoreMemory)
	v.SetDefault("DB_MAX_CONNS", 4)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("DEFAULT_BILL_LIMIT", 100)
	v.SetDefault("COMPANY_NAME", "Your Company")
	v.SetDefault("COMPANY_ADDRESS", "123 Business St, City, State 12345")
	v.SetDefault("COMPANY_PHONE", "+1 (555) 123-4567")
	v.SetDefault("COMPANY_EMAIL", "info@yourcompany.com")
	v.AutomaticEnv()

	if _, err := os.Stat(envPath); err == nil {
		v.SetConfigFile(envPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read %s: %w", envPath, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("stat %s: %w", envPath, err)
	}

	cfg := Config{
		Port:        v.GetInt("PORT"),
		Store:       strings.ToLower(strings.TrimSpace(v.GetString("STORE"))),
		DatabaseURL: strings.TrimSpace(v.GetString("DATABASE_URL")),
		DBMaxConns:  v.GetInt("DB_MAX_CONNS"),
		LogLevel:    strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		LogFormat:   strings.ToLower(strings.TrimSpace(v.GetString("LOG_FORMAT"))),
		Defaults: domain.Settings{
			BillLimit:      v.GetInt("DEFAULT_BILL_LIMIT"),
			CompanyName:    strings.TrimSpace(v.GetString("COMPANY_NAME")),
			CompanyAddress: strings.TrimSpace(v.GetString("COMPANY_ADDRESS")),
			CompanyPhone:   strings.TrimSpace(v.GetString("COMPANY_PHONE")),
			CompanyEmail:   strings.TrimSpace(v.GetString("COMPANY_EMAIL")),
		},
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE=postgres (environment variable or .env)")
		}
		if c.DBMaxConns < 1 || c.DBMaxConns > maxDBConns {
			return fmt.Errorf("invalid DB_MAX_CONNS: %d (want 1-%d)", c.DBMaxConns, maxDBConns)
		}
	default:
		return fmt.Errorf("invalid STORE: %q (want memory or postgres)", c.Store)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("invalid LOG_FORMAT: %q (want console or json)", c.LogFormat)
	}
	if c.Defaults.BillLimit < 1 {
		return fmt.Errorf("invalid DEFAULT_BILL_LIMIT: %d", c.Defaults.BillLimit)
	}
	return nil
}
