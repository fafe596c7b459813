package config

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	API     APIConfig     `mapstructure:"api"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Stream  StreamConfig  `mapstructure:"stream"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Mock    MockConfig    `mapstructure:"mock"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

// APIConfig describes the dashboard backend
type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"-"`
	TimeoutStr string        `mapstructure:"timeout"`
	MaxResults int           `mapstructure:"max_results"`
}

// ChatConfig holds chat view defaults
type ChatConfig struct {
	DefaultAgent string `mapstructure:"default_agent"`
	ExportFormat string `mapstructure:"export_format"`

	// CustomInstructions is sent with every request/response agent call.
	CustomInstructions string `mapstructure:"custom_instructions"`
}

// StreamConfig tunes the event-stream reader
type StreamConfig struct {
	// SuccessMarker is the substring a tool result carries when the tool
	// changed something the user should be told about.
	SuccessMarker  string        `mapstructure:"success_marker"`
	IdleTimeout    time.Duration `mapstructure:"-"`
	IdleTimeoutStr string        `mapstructure:"idle_timeout"`
	ReadBuffer     int           `mapstructure:"read_buffer"`
}

// AuthConfig locates persisted credentials
type AuthConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

// MockConfig configures the local mock backend
type MockConfig struct {
	Addr string `mapstructure:"addr"`
}

var cfg *Config

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Set replaces the global config instance. Tests use it to avoid touching
// the filesystem.
func Set(c *Config) {
	cfg = c
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			xdgConfigHome = filepath.Join(home, ".config")
		}

		viper.AddConfigPath("./.compass")
		viper.AddConfigPath(filepath.Join(xdgConfigHome, ".compass"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.AutomaticEnv()
	bindEnvironmentVariables()

	// A missing settings file is fine; defaults and env still apply.
	_ = viper.ReadInConfig()

	loaded := &Config{}
	if err := viper.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := processDurations(loaded); err != nil {
		return nil, fmt.Errorf("failed to process durations: %w", err)
	}

	cfg = loaded
	return cfg, nil
}

// Default returns a config populated only from defaults.
func Default() *Config {
	c := &Config{
		Logging: LoggingConfig{LogFile: "./.compass/system.log", Level: "info"},
		API: APIConfig{
			BaseURL:    "http://localhost:8000",
			Timeout:    30 * time.Second,
			TimeoutStr: "30s",
			MaxResults: 5,
		},
		Chat:   ChatConfig{DefaultAgent: "knowledge_assistant", ExportFormat: "md"},
		Stream: StreamConfig{SuccessMarker: "✅", ReadBuffer: 4096},
		Auth:   AuthConfig{CredentialsFile: "./.compass/credentials.yaml"},
		Mock:   MockConfig{Addr: ":8000"},
	}
	return c
}

func setDefaults() {
	d := Default()

	viper.SetDefault("logging.log_file", d.Logging.LogFile)
	viper.SetDefault("logging.preserve", false)
	viper.SetDefault("logging.level", d.Logging.Level)

	viper.SetDefault("api.base_url", d.API.BaseURL)
	viper.SetDefault("api.timeout", d.API.TimeoutStr)
	viper.SetDefault("api.max_results", d.API.MaxResults)

	viper.SetDefault("chat.default_agent", d.Chat.DefaultAgent)
	viper.SetDefault("chat.export_format", d.Chat.ExportFormat)
	viper.SetDefault("chat.custom_instructions", "")

	viper.SetDefault("stream.success_marker", d.Stream.SuccessMarker)
	viper.SetDefault("stream.idle_timeout", "0s")
	viper.SetDefault("stream.read_buffer", d.Stream.ReadBuffer)

	viper.SetDefault("auth.credentials_file", d.Auth.CredentialsFile)
	viper.SetDefault("mock.addr", d.Mock.Addr)
}

// bindEnvironmentVariables binds COMPASS_ environment variables to Viper keys
func bindEnvironmentVariables() {
	viper.BindEnv("logging.log_file", "COMPASS_LOG_FILE")
	viper.BindEnv("logging.level", "COMPASS_LOG_LEVEL")
	viper.BindEnv("logging.preserve", "COMPASS_LOG_PRESERVE")
	viper.BindEnv("api.base_url", "COMPASS_API_URL")
	viper.BindEnv("api.timeout", "COMPASS_API_TIMEOUT")
	viper.BindEnv("chat.default_agent", "COMPASS_AGENT")
	viper.BindEnv("chat.custom_instructions", "COMPASS_CUSTOM_INSTRUCTIONS")
	viper.BindEnv("stream.idle_timeout", "COMPASS_STREAM_IDLE_TIMEOUT")
	viper.BindEnv("auth.credentials_file", "COMPASS_CREDENTIALS_FILE")
	viper.BindEnv("mock.addr", "COMPASS_MOCK_ADDR")
}

// processDurations converts string durations to time.Duration
func processDurations(c *Config) error {
	if c.API.TimeoutStr != "" {
		d, err := time.ParseDuration(c.API.TimeoutStr)
		if err != nil {
			return fmt.Errorf("invalid api.timeout: %w", err)
		}
		c.API.Timeout = d
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 30 * time.Second
	}

	if c.Stream.IdleTimeoutStr != "" {
		d, err := time.ParseDuration(c.Stream.IdleTimeoutStr)
		if err != nil {
			return fmt.Errorf("invalid stream.idle_timeout: %w", err)
		}
		c.Stream.IdleTimeout = d
	}

	if c.Stream.ReadBuffer <= 0 {
		c.Stream.ReadBuffer = 4096
	}
	if c.API.MaxResults <= 0 {
		c.API.MaxResults = 5
	}
	return nil
}

// GetConfigFileUsed returns the path to the config file being used
func GetConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// InitializeDefaults creates a default .compass/settings.yaml file if it doesn't exist
func InitializeDefaults() error {
	if _, err := os.Stat(".compass/settings.yaml"); err == nil {
		return nil
	}

	if !promptUserForSettingsCreation() {
		return nil
	}

	if err := os.MkdirAll(".compass", 0755); err != nil {
		return fmt.Errorf("failed to create .compass directory: %w", err)
	}

	if err := WriteDefaults(".compass/settings.yaml"); err != nil {
		return err
	}

	fmt.Printf("Created default settings file at .compass/settings.yaml\n")
	return nil
}

// WriteDefaults writes every default setting to path without overwriting an
// existing file.
func WriteDefaults(path string) error {
	d := Default()

	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("logging.log_file", d.Logging.LogFile)
	v.SetDefault("logging.preserve", false)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.TimeoutStr)
	v.SetDefault("api.max_results", d.API.MaxResults)
	v.SetDefault("chat.default_agent", d.Chat.DefaultAgent)
	v.SetDefault("chat.export_format", d.Chat.ExportFormat)
	v.SetDefault("chat.custom_instructions", "")
	v.SetDefault("stream.success_marker", d.Stream.SuccessMarker)
	v.SetDefault("stream.idle_timeout", "0s")
	v.SetDefault("stream.read_buffer", d.Stream.ReadBuffer)
	v.SetDefault("auth.credentials_file", d.Auth.CredentialsFile)
	v.SetDefault("mock.addr", d.Mock.Addr)

	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write default configuration: %w", err)
	}
	return nil
}

func promptUserForSettingsCreation() bool {
	if isTestEnvironment() {
		return false
	}

	fmt.Print("No .compass/settings.yaml file found. Would you like to create one with default settings? (y/N): ")

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func isTestEnvironment() bool {
	if flag.CommandLine.Lookup("test.v") != nil {
		return true
	}
	return os.Getenv("GO_TEST") == "1" || os.Getenv("TESTING") == "1"
}
