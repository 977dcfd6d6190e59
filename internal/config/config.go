package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Remote    RemoteConfig    `yaml:"remote,omitempty"`
	Player    PlayerConfig    `yaml:"player,omitempty"`
	Captions  CaptionsConfig  `yaml:"captions,omitempty"`
	Progress  ProgressConfig  `yaml:"progress,omitempty"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat,omitempty"`
	Analytics AnalyticsConfig `yaml:"analytics,omitempty"`
	ActionLog ActionLogConfig `yaml:"action_log,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// RemoteConfig points at the GraphQL media library API that owns progress records
type RemoteConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Token    string `yaml:"token,omitempty"`
}

// PlayerConfig contains media player settings
type PlayerConfig struct {
	Type string `yaml:"type,omitempty"` // "mpv", "custom"
	Path string `yaml:"path,omitempty"`
	Args string `yaml:"args,omitempty"`
	// AdaptiveStreaming reports whether the player can consume DASH manifests.  When false, only the native playlist
	// and progressive sources are offered.
	AdaptiveStreaming *bool  `yaml:"adaptive_streaming,omitempty"`
	SocketPath        string `yaml:"socket_path,omitempty"`
}

// CaptionsConfig holds the cross-session caption preference
type CaptionsConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// ProgressConfig contains progress tracking settings
type ProgressConfig struct {
	// WatchedThreshold is the percentage that must be exceeded before a video counts as watched
	WatchedThreshold int `yaml:"watched_threshold,omitempty"`
}

// HeartbeatConfig controls how often session liveness is reported
type HeartbeatConfig struct {
	Interval time.Duration `yaml:"interval,omitempty"`
}

// AnalyticsConfig controls where engagement events are delivered
type AnalyticsConfig struct {
	// Forward sends engagement events to the remote API in addition to the local log
	Forward bool `yaml:"forward,omitempty"`
}

// ActionLogConfig contains the watch-completion log settings
type ActionLogConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig contains prometheus exposition settings
type MetricsConfig struct {
	// ListenAddr enables the /metrics listener when set, e.g. "127.0.0.1:9464"
	ListenAddr string `yaml:"listen_addr,omitempty"`
}

// LoggingConfig contains log related settings
type LoggingConfig struct {
	Level    string `yaml:"level,omitempty"`
	FilePath string `yaml:"file_path,omitempty"`
}

// AdaptiveStreamingEnabled resolves the optional adaptive streaming flag
func (p PlayerConfig) AdaptiveStreamingEnabled() bool {
	return p.AdaptiveStreaming == nil || *p.AdaptiveStreaming
}

// CaptionsEnabled resolves the optional caption preference
func (c CaptionsConfig) CaptionsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Load builds a configuration struct from multiple sources using these steps:
// 1. Create a base config with default values
// 2. If no config file exists on disk, save the default config to that location
// 3. Apply 'dynamic' properties.  Dynamic properties are those that are determined at runtime, for example log file location which is different per OS.
// 4. Load & merge the config file, overwriting any defaults with user-specified values
// 5. Apply environment variable overrides
// 6. Validate the result
func Load() (*Config, error) {
	// 1. Start with base defaults
	cfg := createBaseDefaultConfig()

	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to determine config file path: %w", err)
	}

	// 2. If no config file exists on disk, then write a default one
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// If there is an error saving the default config, then still let the application startup using the defaults.
		_ = save(cfg, configPath)
	}

	// 3. Apply dynamic defaults if necessary
	applyDynamicDefaults(cfg)

	// 4. Load the config from disk and merge it into the base defaults
	fileConfig, err := loadFromDisk(configPath)
	if err != nil {
		return nil, err
	}
	// Overrides the config with any values coming from the loaded file
	if err = mergo.Merge(cfg, fileConfig, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("error merging config loaded from disk: %w", err)
	}

	// 5. Apply the environment variable overrides which take precedence
	applyEnvVarOverrides(cfg)

	// 6. Reject values the playback engine cannot work with
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges that cannot be expressed through the yaml schema
func (c *Config) Validate() error {
	if c.Progress.WatchedThreshold < 1 || c.Progress.WatchedThreshold > 100 {
		return &ValidationError{Field: "progress.watched_threshold", Reason: "must be between 1 and 100"}
	}
	if c.Heartbeat.Interval <= 0 {
		return &ValidationError{Field: "heartbeat.interval", Reason: "must be positive"}
	}
	return nil
}

// applyDynamicDefaults sets runtime-determined default values for any properties that haven't been explicitly configured.
// Unlike static defaults, these values might change between runs based on the environment or system configuration.
func applyDynamicDefaults(cfg *Config) {
	cfg.Logging.FilePath = defaultLogFilePath()
	cfg.ActionLog.Path = defaultActionLogPath()
}

// loadFromDisk loads the YAML config from disk and returns the unmarshalled Config
func loadFromDisk(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, nil
}

func save(cfg *Config, configPath string) error {
	// Create config dir if not exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// UpdateConfig reads the existing config, applies the update function, and saves it back to disk
func UpdateConfig(updateFn func(*Config)) error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("unable to determine config file path: %w", err)
	}

	cfg, err := loadFromDisk(configPath)
	if err != nil {
		return fmt.Errorf("error loading config file from disk: %w", err)
	}

	// Apply the updates
	updateFn(cfg)

	return save(cfg, configPath)
}

// getConfigPath returns the path to the config file.  Uses the environment variable override if present, else tries
// to use OS config location defaults.
func getConfigPath() (string, error) {
	configPath := os.Getenv("HAVEN_CONFIG_PATH")
	if configPath != "" {
		return configPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "haven", "config.yaml"), nil
}

// createBaseDefaultConfig creates a config with all default values
func createBaseDefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			Endpoint: "http://localhost:8080/graphql",
		},
		Player: PlayerConfig{
			Type: "mpv",
			Path: "mpv",
		},
		Progress: ProgressConfig{
			WatchedThreshold: 95,
		},
		Heartbeat: HeartbeatConfig{
			Interval: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultLogFilePath returns the path to the log file.  Tries to use expected OS location defaults.
func defaultLogFilePath() string {
	basePath := stateDir("logs")
	if basePath == "" {
		// Fallback to logging in the current directory if no state directory could be created
		return filepath.Join(".", "haven.log")
	}
	return filepath.Join(basePath, "haven.log")
}

// defaultActionLogPath returns the path of the sqlite database holding watch completions
func defaultActionLogPath() string {
	basePath := stateDir("data")
	if basePath == "" {
		return filepath.Join(".", "haven-actions.sqlite")
	}
	return filepath.Join(basePath, "actions.sqlite")
}

// stateDir resolves (and creates) an OS specific state directory.  Returns empty string if it cannot be created.
func stateDir(leaf string) string {
	var basePath string
	homedir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case "windows":
		// Windows:  %LOCALAPPDATA%\haven\<leaf>
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			basePath = filepath.Join(appData, "haven", leaf)
		} else {
			basePath = filepath.Join(homedir, "AppData", "local", "haven", leaf)
		}
	case "darwin":
		// macOS:  ~/Library/Logs/haven for logs, Application Support for everything else
		if leaf == "logs" {
			basePath = filepath.Join(homedir, "Library", "Logs", "haven")
		} else {
			basePath = filepath.Join(homedir, "Library", "Application Support", "haven", leaf)
		}
	default:
		// Linux/BSD:  XDG_STATE_HOME
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			basePath = filepath.Join(xdgState, "haven", leaf)
		} else {
			basePath = filepath.Join(homedir, ".local", "state", "haven", leaf)
		}
	}

	if err := os.MkdirAll(basePath, 0700); err != nil {
		return ""
	}
	return basePath
}
