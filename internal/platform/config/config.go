package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql | sqlite3
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	Path     string `yaml:"path"` // sqlite3 のみ
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

type LendingConfig struct {
	DefaultLoanDays int    `yaml:"default_loan_days"`
	FeePerDay       string `yaml:"fee_per_day"`  // decimal 文字列 "0.50"
	MaxLateFee      string `yaml:"max_late_fee"` // "0" なら上限なし
	MaxRenewals     int    `yaml:"max_renewals"` // 0 なら無制限
	OverdueScanCron string `yaml:"overdue_scan_cron"`
	StoreTimeoutMS  int    `yaml:"store_timeout_ms"`
	ReadRetries     int    `yaml:"read_retries"`
}

type Config struct {
	Version string         `yaml:"version"`
	Mode    string         `yaml:"mode"`
	Server  ServerConfig   `yaml:"server"`
	DB      DatabaseConfig `yaml:"database"`
	Auth    AuthConfig     `yaml:"auth"`
	Lending LendingConfig  `yaml:"lending"`
}

// Load は yaml を読み込み、.env / 環境変数で秘密情報を上書きする。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] .env not found, using environment variables")
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}
	return Parse(buf)
}

// Parse は Load のファイル読み込み以降の処理。テストからも使う。
func Parse(buf []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		return nil, fmt.Errorf("invalid mode: %q (must be dev or release)", cfg.Mode)
	}
	if cfg.DB.Driver != "mysql" && cfg.DB.Driver != "sqlite3" {
		return nil, fmt.Errorf("invalid database.driver: %q", cfg.DB.Driver)
	}
	if cfg.Mode == "release" && cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required in release mode")
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("LIBRARY_MODE")); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("LIBRARY_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("LIBRARY_DB_PASSWORD"); v != "" {
		c.DB.Password = v
	}
	if v := os.Getenv("LIBRARY_DB_HOST"); v != "" {
		c.DB.Host = v
	}
	if v := os.Getenv("LIBRARY_DB_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DB.Port = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8443"
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "mysql"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.Path == "" {
		c.DB.Path = "data/library.db"
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = 24
	}
	if c.Auth.JWTSecret == "" && c.Mode == "dev" {
		c.Auth.JWTSecret = "dev-secret-key"
	}

	l := &c.Lending
	if l.DefaultLoanDays <= 0 {
		l.DefaultLoanDays = 14
	}
	if l.FeePerDay == "" {
		l.FeePerDay = "0.50"
	}
	if l.MaxLateFee == "" {
		l.MaxLateFee = "0"
	}
	if l.OverdueScanCron == "" {
		l.OverdueScanCron = "@every 1h"
	}
	if l.StoreTimeoutMS <= 0 {
		l.StoreTimeoutMS = 5000
	}
	if l.ReadRetries <= 0 {
		l.ReadRetries = 3
	}
}

func (c *Config) IsDev() bool { return c.Mode == "dev" }

func (l LendingConfig) StoreTimeout() time.Duration {
	return time.Duration(l.StoreTimeoutMS) * time.Millisecond
}

func (l LendingConfig) DefaultLoanPeriod() time.Duration {
	return time.Duration(l.DefaultLoanDays) * 24 * time.Hour
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}
