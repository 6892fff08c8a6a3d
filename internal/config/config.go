package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/synthizer/synthizer-rust-rewrite/internal/audio"
)

// FileLoggingConfig represents file-based logging configuration
type FileLoggingConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`           // Whether file logging is enabled
	Filename   string `json:"filename" yaml:"filename"`         // Log file path (empty = XDG cache path)
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`   // Max file size in MB before rotation
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`   // Max number of backup files to keep
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"` // Max age in days before deletion
	Compress   bool   `json:"compress" yaml:"compress"`         // Whether to compress rotated files
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Address string `json:"address" yaml:"address"` // host:port served by /metrics
}

// Config represents syzaudio configuration. Playback device selection is
// deliberately absent: devices are picked per run.
type Config struct {
	LogLevel     string             `json:"log_level" yaml:"log_level"`                         // debug, info, warn, error
	AudioBackend string             `json:"audio_backend" yaml:"audio_backend"`                 // auto, malgo, oto, null
	SampleRate   uint32             `json:"sample_rate" yaml:"sample_rate"`                     // 0 = backend preferred
	Channels     uint32             `json:"channels" yaml:"channels"`                           // 0 = backend preferred
	SoundPaths   []string           `json:"sound_paths" yaml:"sound_paths"`                     // Extra directories searched by play
	FileLogging  *FileLoggingConfig `json:"file_logging,omitempty" yaml:"file_logging,omitempty"` // File logging configuration
	Metrics      *MetricsConfig     `json:"metrics,omitempty" yaml:"metrics,omitempty"`           // Metrics endpoint configuration
}

// XDGInterface defines the interface for XDG directory operations
type XDGInterface interface {
	GetConfigPaths(filename string) []string
	GetSoundPaths() []string
	GetCachePath(purpose string) string
	CreateCacheDir(purpose string) error
	FindSoundFile(relativePath string) string
}

// configFileNames are tried in order inside each config directory
var configFileNames = []string{"config.yaml", "config.yml", "config.json"}

// ConfigManager handles loading, saving, and validating configuration
type ConfigManager struct {
	fs  afero.Fs
	xdg XDGInterface
}

// NewConfigManager creates a new configuration manager on the OS filesystem
func NewConfigManager() *ConfigManager {
	return NewConfigManagerWithFilesystem(afero.NewOsFs())
}

// NewConfigManagerWithFilesystem creates a configuration manager on fs
func NewConfigManagerWithFilesystem(fs afero.Fs) *ConfigManager {
	slog.Debug("creating new config manager")
	return &ConfigManager{
		fs:  fs,
		xdg: NewXDGDirsWithFilesystem(fs),
	}
}

// NewConfigManagerWithDependencies injects both the filesystem and the
// directory layout
func NewConfigManagerWithDependencies(fs afero.Fs, xdg XDGInterface) *ConfigManager {
	return &ConfigManager{fs: fs, xdg: xdg}
}

// XDG returns the directory layout the manager searches
func (cm *ConfigManager) XDG() XDGInterface {
	return cm.xdg
}

// GetDefaultConfig returns the default configuration
func (cm *ConfigManager) GetDefaultConfig() *Config {
	return &Config{
		LogLevel:     "warn",
		AudioBackend: audio.BackendAuto,
		SoundPaths:   []string{},
		FileLogging: &FileLoggingConfig{
			Enabled:    false,
			Filename:   "", // Empty = XDG cache path
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Metrics: &MetricsConfig{
			Enabled: false,
			Address: "127.0.0.1:9464",
		},
	}
}

// isYAML reports whether path should be read as YAML rather than JSON
func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFromFile loads configuration from a specific file. Fields the file
// leaves out keep their defaults.
func (cm *ConfigManager) LoadFromFile(filePath string) (*Config, error) {
	slog.Debug("loading config from file", "file_path", filePath)

	data, err := afero.ReadFile(cm.fs, filePath)
	if err != nil {
		slog.Error("failed to read config file", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := cm.GetDefaultConfig()
	if isYAML(filePath) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		slog.Error("failed to parse config", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to parse config %s: %w", filePath, err)
	}

	if err := cm.ValidateConfig(config); err != nil {
		return nil, err
	}

	slog.Debug("config loaded successfully",
		"file_path", filePath,
		"audio_backend", config.AudioBackend,
		"log_level", config.LogLevel)

	return config, nil
}

// SaveToFile saves configuration to a specific file, as YAML or JSON
// according to its extension
func (cm *ConfigManager) SaveToFile(config *Config, filePath string) error {
	slog.Debug("saving config to file", "file_path", filePath)

	if err := cm.ValidateConfig(config); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := cm.fs.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create config directory", "directory", dir, "error", err)
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(filePath) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		slog.Error("failed to marshal config", "error", err)
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(cm.fs, filePath, data, 0644); err != nil {
		slog.Error("failed to write config file", "file_path", filePath, "error", err)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	slog.Info("config saved successfully", "file_path", filePath)
	return nil
}

// LoadConfig loads the first config file found on the XDG search path, or
// the defaults when there is none
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	for _, name := range configFileNames {
		for _, configPath := range cm.xdg.GetConfigPaths(name) {
			if _, err := cm.fs.Stat(configPath); err == nil {
				slog.Debug("found config file", "path", configPath)
				return cm.LoadFromFile(configPath)
			}
		}
	}

	slog.Debug("no config file found, using defaults")
	return cm.GetDefaultConfig(), nil
}

// ValidateConfig validates configuration values
func (cm *ConfigManager) ValidateConfig(config *Config) error {
	var errs []string

	if config.LogLevel != "" {
		if _, err := ParseLogLevel(config.LogLevel); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if !audio.IsValidBackendType(config.AudioBackend) {
		errs = append(errs, fmt.Sprintf("invalid audio backend '%s', must be one of: %s",
			config.AudioBackend, strings.Join(audio.SupportedBackends(), ", ")))
	}

	opts := audio.DeviceOpenOptions{SampleRate: config.SampleRate, Channels: config.Channels}
	if err := opts.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if fl := config.FileLogging; fl != nil {
		if fl.MaxSizeMB < 0 {
			errs = append(errs, fmt.Sprintf("file logging max_size_mb must be >= 0, got %d", fl.MaxSizeMB))
		}
		if fl.MaxBackups < 0 {
			errs = append(errs, fmt.Sprintf("file logging max_backups must be >= 0, got %d", fl.MaxBackups))
		}
		if fl.MaxAgeDays < 0 {
			errs = append(errs, fmt.Sprintf("file logging max_age_days must be >= 0, got %d", fl.MaxAgeDays))
		}
	}

	if m := config.Metrics; m != nil && m.Enabled && m.Address == "" {
		errs = append(errs, "metrics address cannot be empty when metrics are enabled")
	}

	if len(errs) > 0 {
		errMsg := strings.Join(errs, "; ")
		slog.Error("config validation failed", "errors", errMsg)
		return fmt.Errorf("config validation failed: %s", errMsg)
	}

	return nil
}

// ApplyEnvironmentOverrides applies SYZAUDIO_* environment variables.
// Malformed values are ignored with a warning.
func (cm *ConfigManager) ApplyEnvironmentOverrides(config *Config) *Config {
	result := *config

	if logLevel := os.Getenv("SYZAUDIO_LOG_LEVEL"); logLevel != "" {
		if _, err := ParseLogLevel(logLevel); err == nil {
			result.LogLevel = logLevel
			slog.Debug("applied log level override from environment", "value", logLevel)
		} else {
			slog.Warn("invalid SYZAUDIO_LOG_LEVEL environment variable", "value", logLevel)
		}
	}

	if backend := os.Getenv("SYZAUDIO_AUDIO_BACKEND"); backend != "" {
		if audio.IsValidBackendType(backend) {
			result.AudioBackend = backend
			slog.Debug("applied audio backend override from environment", "value", backend)
		} else {
			slog.Warn("invalid SYZAUDIO_AUDIO_BACKEND environment variable", "value", backend)
		}
	}

	if v, ok := envUint32("SYZAUDIO_SAMPLE_RATE"); ok {
		result.SampleRate = v
	}
	if v, ok := envUint32("SYZAUDIO_CHANNELS"); ok {
		result.Channels = v
	}

	if addr := os.Getenv("SYZAUDIO_METRICS_ADDR"); addr != "" {
		metrics := MetricsConfig{Enabled: true, Address: addr}
		result.Metrics = &metrics
		slog.Debug("applied metrics address override from environment", "value", addr)
	}

	return &result
}

func envUint32(name string) (uint32, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		slog.Warn("invalid numeric environment variable", "name", name, "value", raw, "error", err)
		return 0, false
	}
	slog.Debug("applied override from environment", "name", name, "value", v)
	return uint32(v), true
}

// ParseLogLevel maps a configuration level name to a slog level
func ParseLogLevel(logLevel string) (slog.Level, error) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", logLevel)
	}
}

// ResolveLogFilePath resolves the log file path using XDG cache directory when filename is empty
func (cm *ConfigManager) ResolveLogFilePath(filename string) string {
	if filename != "" {
		return filename
	}
	return filepath.Join(cm.xdg.GetCachePath("logs"), "syzaudio.log")
}
