package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Registration modes. Exactly one lifecycle is active per deployment.
const (
	RegistrationAdmin = "admin" // admin adds users; status Active/Inactive by role
	RegistrationOTP   = "otp"   // self-service; login gated on email verification
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Auth     AuthConfig     `yaml:"auth"`
	Mail     MailConfig     `yaml:"mail"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
	Tasks    TasksConfig    `yaml:"tasks"`
	Audit    AuditConfig    `yaml:"audit"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test

	// CORSOrigins lists allowed browser origins. Empty allows any origin.
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // mysql, postgres, sqlite
	DSN    string `yaml:"dsn"`
	// Split MySQL settings, used when DSN is empty.
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`

	// Pool settings, ignored for sqlite.
	MaxOpenConns       int `yaml:"max_open_conns"`
	MaxIdleConns       int `yaml:"max_idle_conns"`
	ConnMaxLifetimeMin int `yaml:"conn_max_lifetime_minutes"`
	// Queries slower than this are logged as warnings. 0 disables.
	SlowQueryMS int `yaml:"slow_query_ms"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

type AuthConfig struct {
	RegistrationMode     string `yaml:"registration_mode"`
	BcryptCost           int    `yaml:"bcrypt_cost"`
	ResetOTPMinutes      int    `yaml:"reset_otp_minutes"`
	SetupOTPHours        int    `yaml:"setup_otp_hours"`
	ResendCooldownSecond int    `yaml:"resend_cooldown_seconds"`
	AdminUsername        string `yaml:"admin_username"`
	AdminPassword        string `yaml:"admin_password"`
	AdminEmail           string `yaml:"admin_email"`

	// Per client IP and endpoint budget for the public credential routes.
	AttemptsPerSecond float64 `yaml:"attempts_per_second"`
	AttemptBurst      int     `yaml:"attempt_burst"`
}

type MailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	UseTLS   bool   `yaml:"use_tls"`
}

// RedisConfig for the optional mail queue and OTP cooldown cache
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type TasksConfig struct {
	// GuardDelete extends the completed-project guard to task deletion.
	GuardDelete bool `yaml:"guard_delete"`
}

type AuditConfig struct {
	RetentionDays int    `yaml:"retention_days"`
	CleanupCron   string `yaml:"cleanup_cron"`
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.overrideFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "5000",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver:             "sqlite",
			DSN:                "projectpulse.db?_foreign_keys=on",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetimeMin: 60,
			SlowQueryMS:        200,
		},
		JWT: JWTConfig{
			Secret:     "projectpulse-secret-key-change-in-production",
			ExpireHour: 24,
		},
		Auth: AuthConfig{
			RegistrationMode:     RegistrationAdmin,
			BcryptCost:           10,
			ResetOTPMinutes:      5,
			SetupOTPHours:        24,
			ResendCooldownSecond: 30,
			AdminUsername:        "admin",
			AdminPassword:        "admin",
			AdminEmail:           "admin@gmail.com",
			AttemptsPerSecond:    1,
			AttemptBurst:         10,
		},
		Mail: MailConfig{
			Enabled: false,
			Host:    "smtp.gmail.com",
			Port:    465,
			UseTLS:  true,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Audit: AuditConfig{
			RetentionDays: 30,
			CleanupCron:   "@daily",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.CORSOrigins = append(c.Server.CORSOrigins, o)
			}
		}
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.Name = v
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	} else if c.Database.Host != "" && c.Database.Name != "" {
		// The split variables always describe a MySQL server.
		c.Database.Driver = "mysql"
		c.Database.DSN = c.Database.MySQLDSN()
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if mode := os.Getenv("REGISTRATION_MODE"); mode != "" {
		c.Auth.RegistrationMode = mode
	}
	if user := os.Getenv("EMAIL_USER"); user != "" {
		c.Mail.Enabled = true
		c.Mail.Username = user
	}
	if pass := os.Getenv("EMAIL_PASS"); pass != "" {
		c.Mail.Password = pass
	}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		c.Mail.Host = host
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Mail.Port = p
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if file := os.Getenv("LOG_FILE"); file != "" {
		c.Log.File = file
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// MySQLDSN builds a go-sql-driver DSN from the split database settings.
func (d DatabaseConfig) MySQLDSN() string {
	host := d.Host
	if !strings.Contains(host, ":") {
		host += ":3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, host, d.Name)
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

// Validate checks option values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	switch c.Auth.RegistrationMode {
	case RegistrationAdmin, RegistrationOTP:
	default:
		return fmt.Errorf("unknown registration mode %q (want %q or %q)",
			c.Auth.RegistrationMode, RegistrationAdmin, RegistrationOTP)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost %d out of range [%d, %d]",
			c.Auth.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Auth.ResetOTPMinutes <= 0 {
		return fmt.Errorf("reset_otp_minutes must be positive")
	}
	if c.Auth.AttemptsPerSecond <= 0 || c.Auth.AttemptBurst <= 0 {
		return fmt.Errorf("attempts_per_second and attempt_burst must be positive")
	}
	return nil
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}
