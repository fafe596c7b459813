package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

const defaultSettingsDir = ".compass"

// BaseSettingsDir is the directory holding the settings file in use, or
// ./.compass when no file was loaded.
func BaseSettingsDir() string {
	if configPath := viper.GetString("config.path"); configPath != "" {
		return configPath
	}

	currentConfig := viper.ConfigFileUsed()
	if currentConfig == "" {
		return defaultSettingsDir
	}
	return filepath.Dir(currentConfig)
}

func BuildSettingsPath(target string) string {
	return filepath.Join(BaseSettingsDir(), target)
}
