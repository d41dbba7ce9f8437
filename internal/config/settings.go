package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Settings are the device-local defaults a headless host cannot source from
// UI controls: voice parameters and data directories. Read from
// settings.yaml next to the host file; every field has a default so the file
// is optional.
type Settings struct {
	Voice    string  `mapstructure:"voice"`  // "male" or "female"
	Rate     float64 `mapstructure:"rate"`   // slider position in [0,1]
	Volume   float64 `mapstructure:"volume"` // slider position in [0,1]
	AssetDir string  `mapstructure:"asset_dir"`
	LogDir   string  `mapstructure:"log_dir"`

	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LoadSettings reads settings.yaml from dir, falling back to defaults for
// anything unset. A missing file is not an error.
func LoadSettings(dir string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("voice", "male")
	v.SetDefault("rate", 0.5)
	v.SetDefault("volume", 0.5)
	v.SetDefault("asset_dir", "")
	v.SetDefault("log_dir", "")
	v.SetDefault("request_timeout", 90*time.Second)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}

	if s.Voice != "male" && s.Voice != "female" {
		return nil, fmt.Errorf("invalid voice %q: want male or female", s.Voice)
	}
	s.Rate = clamp01(s.Rate)
	s.Volume = clamp01(s.Volume)

	return &s, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
