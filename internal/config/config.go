package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file or individual keys are absent.
const (
	DefaultListenAddr      = ":8080"
	DefaultNoticeLeadHours = 48
	DefaultRateBurst       = 20
	DefaultRatePerSec      = 10
)

// Config holds service configuration. Values are read from an optional YAML
// file, then overridden by environment variables.
type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	PostgresDSN string `yaml:"postgres_dsn"`

	// NoticeLeadHours is the statutory minimum business-hour lead time for
	// posting public notice. Governing bodies may override it upward per body.
	NoticeLeadHours int `yaml:"notice_lead_hours"`

	// Holidays lists jurisdiction holidays as YYYY-MM-DD dates. Days listed
	// here contribute zero business hours to notice deadlines.
	Holidays []string `yaml:"holidays"`

	RateBurst  int `yaml:"rate_burst"`
	RatePerSec int `yaml:"rate_per_sec"`
}

// Load reads configuration from path (if non-empty and present) and applies
// environment overrides and defaults.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddr:      DefaultListenAddr,
		NoticeLeadHours: DefaultNoticeLeadHours,
		RateBurst:       DefaultRateBurst,
		RatePerSec:      DefaultRatePerSec,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("CIVICGOV_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("CIVICGOV_PG_DSN")); v != "" {
		cfg.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("CIVICGOV_NOTICE_LEAD_HOURS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid CIVICGOV_NOTICE_LEAD_HOURS: %q", v)
		}
		cfg.NoticeLeadHours = n
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.NoticeLeadHours <= 0 {
		cfg.NoticeLeadHours = DefaultNoticeLeadHours
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultRateBurst
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = DefaultRatePerSec
	}

	if _, err := cfg.HolidayDates(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// HolidayDates parses the configured holiday strings into UTC dates.
func (c Config) HolidayDates() ([]time.Time, error) {
	out := make([]time.Time, 0, len(c.Holidays))
	for _, raw := range c.Holidays {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", raw, err)
		}
		out = append(out, d)
	}
	return out, nil
}
