package cli

import (
	"fmt"
	"log/slog"

	"github.com/synthizer/synthizer-rust-rewrite/internal/audio"
)

// session is one audio context for the duration of a command
type session struct {
	audio *audio.Context
}

// openSession creates the configured backend and an audio context on it,
// with backend log lines routed into slog
func (c *CLI) openSession() (*session, error) {
	backend, err := c.backendFactory.CreateBackend(c.cfg.AudioBackend)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio backend '%s': %w", c.cfg.AudioBackend, err)
	}

	bridge, err := audio.InitLogging(audio.SlogSinks(slog.Default().With("component", "backend")))
	if err != nil {
		return nil, err
	}

	metrics, err := c.audioMetrics()
	if err != nil {
		return nil, err
	}

	actx, err := audio.NewContext(backend, bridge, audio.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}

	slog.Debug("audio session opened", "backend", actx.BackendName())
	return &session{audio: actx}, nil
}

// Close tears the context down, destroying any device still open
func (s *session) Close() {
	if err := s.audio.Close(); err != nil {
		slog.Warn("failed to close audio context", "error", err)
	}
}

// audioMetrics registers the device collectors once per CLI
func (c *CLI) audioMetrics() (*audio.Metrics, error) {
	if c.metrics != nil {
		return c.metrics, nil
	}
	m, err := audio.NewMetrics(c.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register audio metrics: %w", err)
	}
	c.metrics = m
	return m, nil
}
