package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the recorder settings consumed by the CLI harness. The capture
// pipeline itself only ever sees an immutable snapshot taken at session start.
type Config struct {
	FrameRate   int    `mapstructure:"frame_rate" yaml:"frame_rate"`
	Bitrate     int    `mapstructure:"bitrate" yaml:"bitrate"`
	Padding     int    `mapstructure:"padding" yaml:"padding"`
	MaxLongEdge int    `mapstructure:"max_long_edge" yaml:"max_long_edge"`
	Preset      string `mapstructure:"preset" yaml:"preset"`
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat   string `mapstructure:"log_format" yaml:"log_format"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
}

func Default() *Config {
	return &Config{
		FrameRate:   30,
		Bitrate:     4_000_000,
		Padding:     16,
		MaxLongEdge: 1920,
		OutputDir:   ".",
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("inkrec")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("INKREC")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config as YAML to the default location.
func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

// SaveTo writes the config as YAML to the given path, or the default location
// when path is empty.
func SaveTo(cfg *Config, path string) error {
	if path == "" {
		path = filepath.Join(configDir(), "inkrec.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "inkrec")
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("ProgramData"), "inkrec")
	}
	return "/etc/inkrec"
}
