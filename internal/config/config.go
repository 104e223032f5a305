package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/christopherklint97/hourly/internal/invoice"
	"github.com/christopherklint97/hourly/internal/remote"
)

type Config struct {
	Remote        RemoteConfig   `toml:"remote"`
	Billing       BillingConfig  `toml:"billing"`
	Notifications NotifyConfig   `toml:"notifications"`
	Calendar      CalendarConfig `toml:"calendar"`
}

type RemoteConfig struct {
	BaseURL        string `toml:"base_url"`
	SiteID         string `toml:"site_id"`
	DataPageID     string `toml:"data_page_id"`
	TeamID         string `toml:"team_id"`
	SourcePageID   string `toml:"source_page_id"`
	CSRFToken      string `toml:"csrf_token"`
	CSRFTokenFile  string `toml:"csrf_token_file"` // read on every request, for tokens rotated by another process
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type BillingConfig struct {
	Rate     float64  `toml:"rate"`
	DueDays  int      `toml:"due_days"`
	Title    string   `toml:"title"`
	Currency string   `toml:"currency"`
	IssuedTo []string `toml:"issued_to"`
	PayTo    []string `toml:"pay_to"`
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

type CalendarConfig struct {
	Source string `toml:"source"` // ICS URL or file path
}

func DefaultConfig() Config {
	return Config{
		Remote: RemoteConfig{
			TimeoutSeconds: 30,
		},
		Billing: BillingConfig{
			Rate:     75,
			DueDays:  invoice.DefaultDueDays,
			Title:    "Invoice",
			Currency: "$",
		},
		Notifications: NotifyConfig{
			Enabled: false,
		},
	}
}

func ConfigDir() (string, error) {
	if v := os.Getenv("HOURLY_CONFIG_DIR"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "hourly"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataPath is the local database holding the seed cache and sync log.
func DataPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hourly.db"), nil
}

func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hourly.log"), nil
}

// EnvPath is an optional dotenv file whose variables feed the env
// overrides. Variables already set in the environment win.
func EnvPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

func Load() (*Config, error) {
	envPath, err := EnvPath()
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", envPath, err)
	}

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOURLY_BASE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := os.Getenv("HOURLY_SITE_ID"); v != "" {
		cfg.Remote.SiteID = v
	}
	if v := os.Getenv("HOURLY_DATA_PAGE_ID"); v != "" {
		cfg.Remote.DataPageID = v
	}
	if v := os.Getenv("HOURLY_TEAM_ID"); v != "" {
		cfg.Remote.TeamID = v
	}
	if v := os.Getenv("HOURLY_SOURCE_PAGE_ID"); v != "" {
		cfg.Remote.SourcePageID = v
	}
	if v := os.Getenv("HOURLY_CSRF_TOKEN"); v != "" {
		cfg.Remote.CSRFToken = v
	}
	if v := os.Getenv("HOURLY_CSRF_TOKEN_FILE"); v != "" {
		cfg.Remote.CSRFTokenFile = v
	}
	if v := os.Getenv("HOURLY_CALENDAR_SOURCE"); v != "" {
		cfg.Calendar.Source = v
	}
}

// Validate reports settings the remote client cannot work without.
func (c *Config) Validate() error {
	var missing []string
	if c.Remote.BaseURL == "" {
		missing = append(missing, "remote.base_url")
	}
	if c.Remote.SiteID == "" {
		missing = append(missing, "remote.site_id")
	}
	if c.Remote.DataPageID == "" {
		missing = append(missing, "remote.data_page_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing settings: %s; run 'hourly config' to set them", strings.Join(missing, ", "))
	}
	if c.Billing.Rate < 0 {
		return fmt.Errorf("billing.rate cannot be less than zero")
	}
	return nil
}

// RemoteOptions maps the [remote] section onto client options.
func (c *Config) RemoteOptions() remote.Options {
	return remote.Options{
		BaseURL:      c.Remote.BaseURL,
		SiteID:       c.Remote.SiteID,
		DataPageID:   c.Remote.DataPageID,
		TeamID:       c.Remote.TeamID,
		SourcePageID: c.Remote.SourcePageID,
		Timeout:      time.Duration(c.Remote.TimeoutSeconds) * time.Second,
		Token:        c.tokenSource(),
	}
}

func (c *Config) tokenSource() remote.TokenSource {
	if c.Remote.CSRFTokenFile == "" {
		return remote.StaticToken(c.Remote.CSRFToken)
	}
	path := c.Remote.CSRFTokenFile
	return func(context.Context) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading token file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
}

// InvoiceOptions maps the [billing] section onto builder options.
func (c *Config) InvoiceOptions() invoice.Options {
	return invoice.Options{
		Rate:     decimal.NewFromFloat(c.Billing.Rate),
		DueDays:  c.Billing.DueDays,
		Title:    c.Billing.Title,
		Currency: c.Billing.Currency,
		IssuedTo: c.Billing.IssuedTo,
		PayTo:    c.Billing.PayTo,
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// WriteDefault writes the default config to path.
func WriteDefault(path string) error {
	out, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, out, 0644)
}
