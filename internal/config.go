package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hbomb79/Grabbr/internal/api"
	"github.com/hbomb79/Grabbr/internal/engine"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
)

// GrabbrConfig is the process-wide configuration. It is constructed
// once at startup and treated as read-only for the lifetime of the
// process; request handling never mutates it.
type GrabbrConfig struct {
	Api    api.RestConfig `yaml:"api"`
	Engine engine.Config  `yaml:"engine"`

	// AuxToken enables the augmented extraction tier. When absent,
	// escalation degrades to a second pass of the plain tier.
	AuxToken string `yaml:"auxiliary_token" env:"GRABBR_AUX_TOKEN"`

	DownloadDir    string `yaml:"download_dir" env:"DOWNLOAD_DIR" env-default:"downloads"`
	FfprobeBinPath string `yaml:"ffprobe_binary" env:"FFPROBE_BIN"`
}

// LoadFromFile loads a YAML configuration file in to this config,
// overlaying any environment variables on top.
func (config *GrabbrConfig) LoadFromFile(configPath string) error {
	err := cleanenv.ReadConfig(configPath, config)
	if err != nil {
		return fmt.Errorf("failed to load configuration from %s - %v", configPath, err.Error())
	}

	return nil
}

// LoadFromEnv populates this config from environment variables alone,
// for deployments that carry no config file.
func (config *GrabbrConfig) LoadFromEnv() error {
	err := cleanenv.ReadEnv(config)
	if err != nil {
		return fmt.Errorf("failed to load configuration from environment - %v", err.Error())
	}

	return nil
}

// DefaultConfigPath returns the conventional location of the config
// file inside the user's home directory.
func DefaultConfigPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".config", "grabbr", "config.yaml")
	}

	return filepath.Join(home, ".config", "grabbr", "config.yaml")
}

// EnsureDownloadDir validates that the configured downloads directory
// exists and is a directory, creating it when missing.
func (config *GrabbrConfig) EnsureDownloadDir() error {
	if info, err := os.Stat(config.DownloadDir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("download path '%s' is not a directory", config.DownloadDir)
		}

		return nil
	}

	return os.MkdirAll(config.DownloadDir, os.ModeDir|os.ModePerm)
}
