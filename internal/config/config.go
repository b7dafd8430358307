package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Auth
		Backend
		Tokens
		Sweep
		Global
	}

	HTTP struct {
		Port int32
		Host string
		// PublicURL is the base URL devices reach us at; it ends up inside
		// minted download links. Derived from the request host when empty.
		PublicURL string
	}
	Database struct {
		Path string
	}
	Auth struct {
		// Secret signs device session credentials. Generated at startup
		// when empty, in which case sessions do not survive a restart.
		Secret     string
		AccessTTL  time.Duration
		RefreshTTL time.Duration
	}
	Backend struct {
		Scheme  string
		Host    string
		Port    int32
		Timeout time.Duration
	}
	Tokens struct {
		// Size is the random payload in bytes. Book and cover tokens get
		// separate TTLs: a leaked book-file URL is worth bounding tightly,
		// a cover URL is not.
		Size     int
		BookTTL  time.Duration
		CoverTTL time.Duration
	}
	Sweep struct {
		Enabled  bool
		Schedule string // Cron format: "*/30 * * * *" = every 30 minutes
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 5001)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("public_url", "")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("auth_secret", "")
	v.SetDefault("auth_access_ttl", time.Hour)
	v.SetDefault("auth_refresh_ttl", 30*24*time.Hour)
	v.SetDefault("backend_scheme", "http")
	v.SetDefault("backend_host", "127.0.0.1")
	v.SetDefault("backend_port", 5000)
	v.SetDefault("backend_timeout", 30*time.Second)
	v.SetDefault("token_size", DefaultTokenSize)
	v.SetDefault("token_book_ttl", time.Minute)
	v.SetDefault("token_cover_ttl", time.Hour)
	v.SetDefault("sweep_enabled", false)
	v.SetDefault("sweep_schedule", "*/30 * * * *")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	return &Config{
		HTTP: HTTP{
			Port:      v.GetInt32("port"),
			Host:      v.GetString("host"),
			PublicURL: v.GetString("public_url"),
		},
		Database: Database{
			Path: v.GetString("database_path"),
		},
		Auth: Auth{
			Secret:     v.GetString("auth_secret"),
			AccessTTL:  v.GetDuration("auth_access_ttl"),
			RefreshTTL: v.GetDuration("auth_refresh_ttl"),
		},
		Backend: Backend{
			Scheme:  v.GetString("backend_scheme"),
			Host:    v.GetString("backend_host"),
			Port:    v.GetInt32("backend_port"),
			Timeout: v.GetDuration("backend_timeout"),
		},
		Tokens: Tokens{
			Size:     v.GetInt("token_size"),
			BookTTL:  v.GetDuration("token_book_ttl"),
			CoverTTL: v.GetDuration("token_cover_ttl"),
		},
		Sweep: Sweep{
			Enabled:  v.GetBool("sweep_enabled"),
			Schedule: v.GetString("sweep_schedule"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("shutdown_timeout_in_seconds"),
		},
	}
}
