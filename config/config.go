package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application-wide configuration tree.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Mail     MailConfig     `mapstructure:"mail"`
	Voice    VoiceConfig    `mapstructure:"voice"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Outpass  OutpassConfig  `mapstructure:"outpass"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig cross-origin settings.
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL settings.
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes
}

// DSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT settings.
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// MailConfig SMTP settings for the notification mail channel.
type MailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// VoiceConfig Twilio settings for the voice-call channel.
type VoiceConfig struct {
	AccountSID  string `mapstructure:"account_sid"`
	AuthToken   string `mapstructure:"auth_token"`
	FromNumber  string `mapstructure:"from_number"`
	CallbackURL string `mapstructure:"callback_url"` // public base URL serving the TwiML script
	CountryCode string `mapstructure:"country_code"` // E.164 prefix assumed for 10-digit local numbers
}

// StorageConfig Cloudinary settings for supporting-document uploads.
type StorageConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
}

// OutpassConfig workflow tuning.
//
// Timezone is the institution's fixed timezone. Timetable slots are stored as
// local wall-clock strings, so every availability comparison converts into it
// rather than using UTC.
type OutpassConfig struct {
	Timezone               string        `mapstructure:"timezone"`
	DayEndCutoff           string        `mapstructure:"day_end_cutoff"` // "HH:MM", latest allowed return time
	RecheckDelay           time.Duration `mapstructure:"recheck_delay"`
	HodSweepInterval       time.Duration `mapstructure:"hod_sweep_interval"`
	LowAttendanceThreshold float64       `mapstructure:"low_attendance_threshold"`
}

// LogConfig logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment.
// Precedence: environment variables > config file > defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── defaults ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "quickpass")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Kolkata")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "168h")

	v.SetDefault("mail.smtp_host", "smtp.gmail.com")
	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.from", "QuickPass System <noreply@quickpass.local>")

	v.SetDefault("voice.country_code", "+91")

	v.SetDefault("storage.folder", "outpass-documents")

	v.SetDefault("outpass.timezone", "Asia/Kolkata")
	v.SetDefault("outpass.day_end_cutoff", "21:00")
	v.SetDefault("outpass.recheck_delay", "15m")
	v.SetDefault("outpass.hod_sweep_interval", "15m")
	v.SetDefault("outpass.low_attendance_threshold", 75.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── config file ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── environment ──
	v.SetEnvPrefix("QP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// no config file: defaults + environment only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret must not be empty")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535")
	}
	if _, err := time.LoadLocation(c.Outpass.Timezone); err != nil {
		return fmt.Errorf("config: outpass.timezone %q is not a valid location: %w", c.Outpass.Timezone, err)
	}
	if c.Outpass.RecheckDelay <= 0 {
		return fmt.Errorf("config: outpass.recheck_delay must be positive")
	}
	if c.Outpass.HodSweepInterval <= 0 {
		return fmt.Errorf("config: outpass.hod_sweep_interval must be positive")
	}
	return nil
}
