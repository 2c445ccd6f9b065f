package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix for environment variable overrides. Nesting
// uses a double underscore: REPASO_DATABASE, REPASO_SCHEDULER__BACKOFF_FACTOR.
const EnvPrefix = "REPASO_"

// Config is the full application configuration. Precedence, lowest to
// highest: built-in defaults, config file, environment, flags.
type Config struct {
	Database string `koanf:"database" validate:"required"`
	ReposDir string `koanf:"repos_dir" validate:"required"`

	Scheduler Scheduler `koanf:"scheduler"`
	Queue     Queue     `koanf:"queue"`
}

// Scheduler tunes the cross-session interval model.
type Scheduler struct {
	BaseIntervalDays float64 `koanf:"base_interval_days" validate:"gte=1"`
	BackoffFactor    float64 `koanf:"backoff_factor" validate:"gt=1"`
	MaxIntervalDays  int     `koanf:"max_interval_days" validate:"gte=1"`
	MaxStreak        int     `koanf:"max_streak" validate:"gte=1"`
}

// Queue tunes the in-session reinsertion windows. Offsets are queue
// positions ahead of the front; each window must be ordered.
type Queue struct {
	AgainMin int `koanf:"again_min" validate:"gte=1"`
	AgainMax int `koanf:"again_max" validate:"gtefield=AgainMin"`
	HardMin  int `koanf:"hard_min" validate:"gte=1"`
	HardMax  int `koanf:"hard_max" validate:"gtefield=HardMin"`
	GoodMin  int `koanf:"good_min" validate:"gte=1"`
	GoodMax  int `koanf:"good_max" validate:"gtefield=GoodMin"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: "repaso.db",
		ReposDir: "repos",
		Scheduler: Scheduler{
			BaseIntervalDays: 1,
			BackoffFactor:    1.5,
			MaxIntervalDays:  365,
			MaxStreak:        10,
		},
		Queue: Queue{
			AgainMin: 1, AgainMax: 4,
			HardMin: 10, HardMax: 25,
			GoodMin: 20, GoodMax: 40,
		},
	}
}

// Load builds the configuration from an optional YAML file, the
// environment, and the given flag set, then validates it. A missing
// config file is fine; a malformed one is not.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("checking config file %s: %w", path, err)
		}
	}

	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		return strings.ReplaceAll(key, "__", "."), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("loading flags: %w", err)
		}
	}

	// Unmarshalling over the defaults means only keys that were
	// actually set override anything.
	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
