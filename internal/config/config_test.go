package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthizer/synthizer-rust-rewrite/internal/audio"
	"github.com/synthizer/synthizer-rust-rewrite/internal/fs"
)

// stubXDG roots every directory under a fixed prefix
type stubXDG struct {
	root string
}

func (s stubXDG) GetConfigPaths(filename string) []string {
	return []string{
		filepath.Join(s.root, "user", appDir, filename),
		filepath.Join(s.root, "system", appDir, filename),
	}
}

func (s stubXDG) GetSoundPaths() []string {
	return []string{filepath.Join(s.root, "sounds")}
}

func (s stubXDG) GetCachePath(purpose string) string {
	return filepath.Join(s.root, "cache", appDir, purpose)
}

func (s stubXDG) CreateCacheDir(string) error {
	return nil
}

func (s stubXDG) FindSoundFile(string) string {
	return ""
}

func newTestManager(t *testing.T) (*ConfigManager, afero.Fs) {
	t.Helper()
	memFS := fs.NewDefaultFactory().Memory()
	return NewConfigManagerWithDependencies(memFS, stubXDG{root: "/xdg"}), memFS
}

func TestDefaultConfigIsValid(t *testing.T) {
	cm, _ := newTestManager(t)

	cfg := cm.GetDefaultConfig()
	require.NoError(t, cm.ValidateConfig(cfg))

	assert.Equal(t, audio.BackendAuto, cfg.AudioBackend)
	assert.Zero(t, cfg.SampleRate, "backend picks the rate by default")
	assert.Zero(t, cfg.Channels, "backend picks the channel count by default")
	assert.False(t, cfg.Metrics.Enabled)
	assert.NotEmpty(t, cfg.Metrics.Address)
}

func TestLoadFromFileJSONAndYAML(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
	}{
		{
			name: "json",
			path: "/etc/syzaudio/config.json",
			content: `{
				"log_level": "debug",
				"audio_backend": "null",
				"sample_rate": 44100,
				"channels": 2,
				"metrics": {"enabled": true, "address": ":9000"}
			}`,
		},
		{
			name: "yaml",
			path: "/etc/syzaudio/config.yaml",
			content: strings.Join([]string{
				"log_level: debug",
				"audio_backend: null",
				"sample_rate: 44100",
				"channels: 2",
				"metrics:",
				"  enabled: true",
				`  address: ":9000"`,
			}, "\n"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm, memFS := newTestManager(t)
			require.NoError(t, afero.WriteFile(memFS, tt.path, []byte(tt.content), 0644))

			cfg, err := cm.LoadFromFile(tt.path)
			require.NoError(t, err)

			assert.Equal(t, "debug", cfg.LogLevel)
			assert.Equal(t, audio.BackendNull, cfg.AudioBackend)
			assert.Equal(t, uint32(44100), cfg.SampleRate)
			assert.Equal(t, uint32(2), cfg.Channels)
			assert.True(t, cfg.Metrics.Enabled)
			assert.Equal(t, ":9000", cfg.Metrics.Address)

			// Omitted sections keep their defaults
			require.NotNil(t, cfg.FileLogging)
			assert.Equal(t, 10, cfg.FileLogging.MaxSizeMB)
		})
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	cm, memFS := newTestManager(t)

	_, err := cm.LoadFromFile("/missing.json")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(memFS, "/bad.json", []byte("{not json"), 0644))
	_, err = cm.LoadFromFile("/bad.json")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(memFS, "/bad.yaml", []byte("log_level: [unclosed"), 0644))
	_, err = cm.LoadFromFile("/bad.yaml")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(memFS, "/invalid.json", []byte(`{"audio_backend": "pipewire"}`), 0644))
	_, err = cm.LoadFromFile("/invalid.json")
	assert.ErrorContains(t, err, "invalid audio backend")
}

func TestSaveAndReload(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			cm, _ := newTestManager(t)

			cfg := cm.GetDefaultConfig()
			cfg.AudioBackend = audio.BackendOto
			cfg.SampleRate = 48000
			cfg.SoundPaths = []string{"/opt/sounds"}

			path := filepath.Join("/out/nested", name)
			require.NoError(t, cm.SaveToFile(cfg, path))

			loaded, err := cm.LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestSaveRejectsInvalidConfig(t *testing.T) {
	cm, memFS := newTestManager(t)

	cfg := cm.GetDefaultConfig()
	cfg.Channels = audio.MaxChannels + 1

	assert.Error(t, cm.SaveToFile(cfg, "/out/config.json"))
	exists, err := afero.Exists(memFS, "/out/config.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLoadConfigDiscovery(t *testing.T) {
	t.Run("defaults when nothing exists", func(t *testing.T) {
		cm, _ := newTestManager(t)
		cfg, err := cm.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, cm.GetDefaultConfig(), cfg)
	})

	t.Run("user dir wins over system dir", func(t *testing.T) {
		cm, memFS := newTestManager(t)
		require.NoError(t, afero.WriteFile(memFS, "/xdg/system/syzaudio/config.json", []byte(`{"log_level":"error"}`), 0644))
		require.NoError(t, afero.WriteFile(memFS, "/xdg/user/syzaudio/config.json", []byte(`{"log_level":"info"}`), 0644))

		cfg, err := cm.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("yaml preferred over json", func(t *testing.T) {
		cm, memFS := newTestManager(t)
		require.NoError(t, afero.WriteFile(memFS, "/xdg/user/syzaudio/config.json", []byte(`{"log_level":"info"}`), 0644))
		require.NoError(t, afero.WriteFile(memFS, "/xdg/system/syzaudio/config.yaml", []byte("log_level: debug\n"), 0644))

		cfg, err := cm.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
	})
}

func TestValidateConfig(t *testing.T) {
	cm, _ := newTestManager(t)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty backend means auto", func(c *Config) { c.AudioBackend = "" }, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "invalid log level"},
		{"bad backend", func(c *Config) { c.AudioBackend = "system_command" }, "invalid audio backend"},
		{"rate too low", func(c *Config) { c.SampleRate = 4000 }, "sample rate"},
		{"too many channels", func(c *Config) { c.Channels = 300 }, "channels"},
		{"negative rotation", func(c *Config) { c.FileLogging.MaxBackups = -1 }, "max_backups"},
		{"metrics without address", func(c *Config) { c.Metrics = &MetricsConfig{Enabled: true} }, "metrics address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := cm.GetDefaultConfig()
			tt.mutate(cfg)

			err := cm.ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvironmentOverrides(t *testing.T) {
	cm, _ := newTestManager(t)
	base := cm.GetDefaultConfig()

	t.Setenv("SYZAUDIO_LOG_LEVEL", "debug")
	t.Setenv("SYZAUDIO_AUDIO_BACKEND", "null")
	t.Setenv("SYZAUDIO_SAMPLE_RATE", "96000")
	t.Setenv("SYZAUDIO_CHANNELS", "not-a-number")
	t.Setenv("SYZAUDIO_METRICS_ADDR", "0.0.0.0:9100")

	cfg := cm.ApplyEnvironmentOverrides(base)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, audio.BackendNull, cfg.AudioBackend)
	assert.Equal(t, uint32(96000), cfg.SampleRate)
	assert.Zero(t, cfg.Channels, "malformed values are ignored")
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "0.0.0.0:9100", cfg.Metrics.Address)

	// The input is not modified
	assert.Equal(t, "warn", base.LogLevel)
	assert.False(t, base.Metrics.Enabled)
}

func TestApplyEnvironmentOverridesRejectsInvalidValues(t *testing.T) {
	cm, _ := newTestManager(t)

	t.Setenv("SYZAUDIO_LOG_LEVEL", "loud")
	t.Setenv("SYZAUDIO_AUDIO_BACKEND", "coreaudio")

	cfg := cm.ApplyEnvironmentOverrides(cm.GetDefaultConfig())
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, audio.BackendAuto, cfg.AudioBackend)
}

func TestParseLogLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLogLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLogLevel("trace")
	assert.Error(t, err)
}

func TestResolveLogFilePath(t *testing.T) {
	cm, _ := newTestManager(t)

	assert.Equal(t, "/var/log/custom.log", cm.ResolveLogFilePath("/var/log/custom.log"))
	assert.Equal(t, "/xdg/cache/syzaudio/logs/syzaudio.log", cm.ResolveLogFilePath(""))
}
