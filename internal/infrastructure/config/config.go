package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Log          LogConfig
	HTTP         HTTPConfig
	Scheduler    SchedulerConfig
	Locking      LockingConfig
	Browser      BrowserConfig
	Marketplaces MarketplacesConfig
	Accounting   AccountingConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// SchedulerConfig holds the background reconciliation intervals
type SchedulerConfig struct {
	Enabled             bool
	CheckSoldInterval   time.Duration
	SyncAllInterval     time.Duration
	AccountingRetry     time.Duration
	OperationTimeout    time.Duration
	StartupDelay        time.Duration
	RunCheckSoldOnStart bool
}

// LockingConfig selects the product lock backend
type LockingConfig struct {
	Backend string        // memory, redis
	TTL     time.Duration // lease duration for the redis backend
}

// BrowserConfig holds shared browser automation settings
type BrowserConfig struct {
	Headless    bool
	UserDataDir string
	NavTimeout  time.Duration
	UserAgent   string
}

// MarketplacesConfig groups the per-platform adapter settings
type MarketplacesConfig struct {
	Marktplaats MarktplaatsConfig
	Vinted      BrowserPlatformConfig
	Depop       BrowserPlatformConfig
	Facebook    BrowserPlatformConfig
}

// MarktplaatsConfig holds the Marktplaats API credentials
type MarktplaatsConfig struct {
	Enabled       bool
	BaseURL       string
	ClientID      string
	ClientSecret  string
	RatePerSecond float64
	RateBurst     int
	Timeout       time.Duration
}

// BrowserPlatformConfig holds credentials for a browser-automated platform
type BrowserPlatformConfig struct {
	Enabled  bool
	Username string
	Password string
	// SessionCookie, when set, skips the login flow entirely
	SessionCookie string
}

// AccountingConfig holds the Google Sheets forwarding settings
type AccountingConfig struct {
	Enabled             bool
	SpreadsheetID       string
	SheetName           string
	ServiceAccountEmail string
	PrivateKeyPEM       string
	TokenURL            string
	Timeout             time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CROSSLIST_ prefix (e.g., CROSSLIST_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("CROSSLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Scheduler: SchedulerConfig{
			Enabled:             v.GetBool("scheduler.enabled"),
			CheckSoldInterval:   v.GetDuration("scheduler.check_sold_interval"),
			SyncAllInterval:     v.GetDuration("scheduler.sync_all_interval"),
			AccountingRetry:     v.GetDuration("scheduler.accounting_retry_interval"),
			OperationTimeout:    v.GetDuration("scheduler.operation_timeout"),
			StartupDelay:        v.GetDuration("scheduler.startup_delay"),
			RunCheckSoldOnStart: v.GetBool("scheduler.run_check_sold_on_start"),
		},
		Locking: LockingConfig{
			Backend: v.GetString("locking.backend"),
			TTL:     v.GetDuration("locking.ttl"),
		},
		Browser: BrowserConfig{
			Headless:    v.GetBool("browser.headless"),
			UserDataDir: v.GetString("browser.user_data_dir"),
			NavTimeout:  v.GetDuration("browser.nav_timeout"),
			UserAgent:   v.GetString("browser.user_agent"),
		},
		Marketplaces: MarketplacesConfig{
			Marktplaats: MarktplaatsConfig{
				Enabled:       v.GetBool("marketplaces.marktplaats.enabled"),
				BaseURL:       v.GetString("marketplaces.marktplaats.base_url"),
				ClientID:      v.GetString("marketplaces.marktplaats.client_id"),
				ClientSecret:  v.GetString("marketplaces.marktplaats.client_secret"),
				RatePerSecond: v.GetFloat64("marketplaces.marktplaats.rate_per_second"),
				RateBurst:     v.GetInt("marketplaces.marktplaats.rate_burst"),
				Timeout:       v.GetDuration("marketplaces.marktplaats.timeout"),
			},
			Vinted: BrowserPlatformConfig{
				Enabled:       v.GetBool("marketplaces.vinted.enabled"),
				Username:      v.GetString("marketplaces.vinted.username"),
				Password:      v.GetString("marketplaces.vinted.password"),
				SessionCookie: v.GetString("marketplaces.vinted.session_cookie"),
			},
			Depop: BrowserPlatformConfig{
				Enabled:       v.GetBool("marketplaces.depop.enabled"),
				Username:      v.GetString("marketplaces.depop.username"),
				Password:      v.GetString("marketplaces.depop.password"),
				SessionCookie: v.GetString("marketplaces.depop.session_cookie"),
			},
			Facebook: BrowserPlatformConfig{
				Enabled:       v.GetBool("marketplaces.facebook.enabled"),
				Username:      v.GetString("marketplaces.facebook.username"),
				Password:      v.GetString("marketplaces.facebook.password"),
				SessionCookie: v.GetString("marketplaces.facebook.session_cookie"),
			},
		},
		Accounting: AccountingConfig{
			Enabled:             v.GetBool("accounting.enabled"),
			SpreadsheetID:       v.GetString("accounting.spreadsheet_id"),
			SheetName:           v.GetString("accounting.sheet_name"),
			ServiceAccountEmail: v.GetString("accounting.service_account_email"),
			PrivateKeyPEM:       v.GetString("accounting.private_key_pem"),
			TokenURL:            v.GetString("accounting.token_url"),
			Timeout:             v.GetDuration("accounting.timeout"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "crosslist-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "crosslist"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Scheduler.CheckSoldInterval == 0 {
		cfg.Scheduler.CheckSoldInterval = 30 * time.Minute
	}
	if cfg.Scheduler.SyncAllInterval == 0 {
		cfg.Scheduler.SyncAllInterval = 2 * time.Hour
	}
	if cfg.Scheduler.AccountingRetry == 0 {
		cfg.Scheduler.AccountingRetry = time.Hour
	}
	if cfg.Scheduler.OperationTimeout == 0 {
		cfg.Scheduler.OperationTimeout = 10 * time.Minute
	}
	if cfg.Scheduler.StartupDelay == 0 {
		cfg.Scheduler.StartupDelay = 30 * time.Second
	}
	if cfg.Locking.Backend == "" {
		cfg.Locking.Backend = "memory"
	}
	if cfg.Locking.TTL == 0 {
		cfg.Locking.TTL = 5 * time.Minute
	}
	if cfg.Browser.NavTimeout == 0 {
		cfg.Browser.NavTimeout = 45 * time.Second
	}
	if cfg.Marketplaces.Marktplaats.BaseURL == "" {
		cfg.Marketplaces.Marktplaats.BaseURL = "https://api.marktplaats.nl/v1"
	}
	if cfg.Marketplaces.Marktplaats.RatePerSecond == 0 {
		cfg.Marketplaces.Marktplaats.RatePerSecond = 4
	}
	if cfg.Marketplaces.Marktplaats.RateBurst == 0 {
		cfg.Marketplaces.Marktplaats.RateBurst = 8
	}
	if cfg.Marketplaces.Marktplaats.Timeout == 0 {
		cfg.Marketplaces.Marktplaats.Timeout = 30 * time.Second
	}
	if cfg.Accounting.SheetName == "" {
		cfg.Accounting.SheetName = "Sales"
	}
	if cfg.Accounting.TokenURL == "" {
		cfg.Accounting.TokenURL = "https://oauth2.googleapis.com/token"
	}
	if cfg.Accounting.Timeout == 0 {
		cfg.Accounting.Timeout = 30 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Locking.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("locking.backend must be 'memory' or 'redis', got %q", c.Locking.Backend)
	}

	if c.Marketplaces.Marktplaats.Enabled {
		if c.Marketplaces.Marktplaats.ClientID == "" || c.Marketplaces.Marktplaats.ClientSecret == "" {
			return fmt.Errorf("marketplaces.marktplaats requires client_id and client_secret when enabled")
		}
	}
	for name, p := range map[string]BrowserPlatformConfig{
		"vinted":   c.Marketplaces.Vinted,
		"depop":    c.Marketplaces.Depop,
		"facebook": c.Marketplaces.Facebook,
	} {
		if p.Enabled && p.SessionCookie == "" && (p.Username == "" || p.Password == "") {
			return fmt.Errorf("marketplaces.%s requires a session_cookie or username and password when enabled", name)
		}
	}

	if c.Accounting.Enabled {
		if c.Accounting.SpreadsheetID == "" {
			return fmt.Errorf("accounting.spreadsheet_id is required when accounting is enabled")
		}
		if c.Accounting.ServiceAccountEmail == "" || c.Accounting.PrivateKeyPEM == "" {
			return fmt.Errorf("accounting requires service_account_email and private_key_pem when enabled")
		}
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisAddr returns the host:port address for the Redis client
func (r *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
