package config

import (
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Vault    VaultConfig
	API      APIConfig
	Alert    AlertConfig
	Cron     CronConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

// VaultConfig holds the credential-at-rest key, hex-encoded in the
// environment.
type VaultConfig struct {
	Key []byte
}

type APIConfig struct {
	Key string
}

// AlertConfig drives the ops Telegram notifier. Empty token disables it.
type AlertConfig struct {
	BotToken string
	ChatID   string
}

type CronConfig struct {
	ReconcileInterval time.Duration
	StuckAfter        time.Duration
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CHECKOUT_RECONCILE_INTERVAL", "1m")
	viper.SetDefault("CHECKOUT_STUCK_AFTER", "15m")

	vaultKey, err := hex.DecodeString(viper.GetString("VAULT_KEY"))
	if err != nil {
		return nil, fmt.Errorf("VAULT_KEY is not valid hex: %w", err)
	}

	reconcile, err := time.ParseDuration(viper.GetString("CHECKOUT_RECONCILE_INTERVAL"))
	if err != nil {
		reconcile = time.Minute
	}
	stuckAfter, err := time.ParseDuration(viper.GetString("CHECKOUT_STUCK_AFTER"))
	if err != nil {
		stuckAfter = 15 * time.Minute
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Vault: VaultConfig{
			Key: vaultKey,
		},
		API: APIConfig{
			Key: viper.GetString("API_KEY"),
		},
		Alert: AlertConfig{
			BotToken: viper.GetString("ALERT_BOT_TOKEN"),
			ChatID:   viper.GetString("ALERT_CHAT_ID"),
		},
		Cron: CronConfig{
			ReconcileInterval: reconcile,
			StuckAfter:        stuckAfter,
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if len(cfg.Vault.Key) != 32 {
		log.Println("WARNING: VAULT_KEY is not a 32-byte hex key; credential storage will fail")
	}
	if cfg.API.Key == "" {
		log.Println("WARNING: API_KEY is not set")
	}

	return cfg, nil
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
