package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks defaults, the poll interval ceiling and URL validation.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Empty config picks up all defaults.
	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultListenAddress, cfg.ListenAddress)
	require.Equal(t, DefaultPollInterval, cfg.PollInterval)
	require.Equal(t, DefaultTimeout, cfg.Timeout)

	// Bad listen address.
	cfg = &Config{ListenAddress: "bad:address"}
	require.Error(t, Validate(cfg))

	// Poll interval coarser than a minute could skip a matching minute.
	cfg = &Config{PollInterval: 2 * time.Minute}
	require.ErrorIs(t, Validate(cfg), errPollIntervalTooCoarse)

	// Malformed collaborator URL.
	cfg = &Config{QuestionBankURL: "not a url"}
	require.Error(t, Validate(cfg))

	// Fully specified config passes untouched.
	cfg = &Config{
		ListenAddress:   "127.0.0.1:8090",
		AlarmStoreURL:   "https://store.local",
		QuestionBankURL: "https://bank.local",
		SoundFile:       "alarm.wav",
		PollInterval:    45 * time.Second,
		Timeout:         3 * time.Second,
	}
	require.NoError(t, Validate(cfg))
	require.Equal(t, 45*time.Second, cfg.PollInterval)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := &Config{
		ListenAddress:   "127.0.0.1:8090",
		AlarmStoreURL:   "https://store.local",
		QuestionBankURL: "https://bank.local",
		SoundFile:       "sounds/alarm.wav",
		PollInterval:    30 * time.Second,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ListenAddress, loaded.ListenAddress)
	require.Equal(t, cfg.AlarmStoreURL, loaded.AlarmStoreURL)
	require.Equal(t, cfg.QuestionBankURL, loaded.QuestionBankURL)
	require.Equal(t, cfg.SoundFile, loaded.SoundFile)
	require.Equal(t, cfg.PollInterval, loaded.PollInterval)

	// Defaults were applied on save.
	require.Equal(t, DefaultTimeout, loaded.Timeout)
}

// TestLoadMissingFile surfaces the read error.
func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
