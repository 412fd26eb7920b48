// internal/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/irvingoujAtDevolution/webm-streamer/internal/util"
)

type Config struct {
	RecordingsDir             string        `json:"recordings_dir"`
	SubscriberChannelCapacity int           `json:"subscriber_channel_capacity"`
	TailPollInterval          time.Duration `json:"tail_poll_interval"`
	ListenAddr                string        `json:"listen_addr"`
}

func Default() Config {
	return Config{
		RecordingsDir:             "recordings",
		SubscriberChannelCapacity: 64,
		TailPollInterval:          500 * time.Millisecond,
		ListenAddr:                "127.0.0.1:8088",
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.RecordingsDir) == "" {
		return errors.New("recordings_dir is required")
	}
	if c.SubscriberChannelCapacity <= 0 {
		return errors.New("subscriber_channel_capacity must be > 0")
	}
	if c.TailPollInterval <= 0 {
		return errors.New("tail_poll_interval must be > 0")
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("listen_addr is required")
	}
	return nil
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, err
	}

	// Start from defaults so missing JSON fields remain initialized.
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	return util.WriteJSONFile(path, cfg)
}

// Ensure loads config if it exists; otherwise creates a default config file.
// Returns (cfg, createdNew, err).
func Ensure(path string) (Config, bool, error) {
	if _, err := os.Stat(path); err == nil {
		cfg, err := Load(path)
		return cfg, false, err
	} else if !os.IsNotExist(err) {
		return Config{}, false, err
	}

	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return Config{}, false, fmt.Errorf("create default config: %w", err)
	}
	return cfg, true, nil
}
