package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings for the alarm engine daemon.
type Config struct {
	// ListenAddress is the HTTP API listen address (e.g. ":8090").
	ListenAddress string `yaml:"listen_addr"`
	// AlarmStoreURL is the remote alarm store root. Empty disables syncing.
	AlarmStoreURL string `yaml:"alarm_store_url"`
	// QuestionBankURL is the mission question bank root. Empty means the
	// static fallback mission is always used.
	QuestionBankURL string `yaml:"question_bank_url"`
	// SoundFile is the WAV file looped while alerting. Empty disables sound.
	SoundFile string `yaml:"sound_file"`
	// PollInterval is the scheduler tick period.
	PollInterval time.Duration `yaml:"poll_interval"`
	// Timeout is the duration for outbound HTTP calls.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for engine settings.
	DefaultConfigFilename = "alarm-engine-settings.yaml"

	// DefaultListenAddress is where the HTTP API binds when unset.
	DefaultListenAddress = ":8090"

	// DefaultPollInterval is the scheduler tick period when unset.
	DefaultPollInterval = 30 * time.Second

	// MaxPollInterval is the coarsest allowed tick period. Anything above a
	// minute can step over a matching minute entirely.
	MaxPollInterval = time.Minute

	// DefaultTimeout is the default duration for outbound HTTP calls.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errPollIntervalTooCoarse is returned when the tick period exceeds a minute.
	errPollIntervalTooCoarse = errors.New("poll interval must not exceed one minute")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	if cfg.PollInterval > MaxPollInterval {
		return errPollIntervalTooCoarse
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	for name, raw := range map[string]string{
		"alarm store URL":   cfg.AlarmStoreURL,
		"question bank URL": cfg.QuestionBankURL,
	} {
		if raw == "" {
			continue
		}

		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	return nil
}
