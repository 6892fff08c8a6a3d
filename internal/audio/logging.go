package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// LogSeverity is the level attached to every backend log line
type LogSeverity int

const (
	SeverityDebug LogSeverity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

// String returns the lower-case severity name
func (s LogSeverity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// LogSink receives a single backend log message
type LogSink func(message string)

// LogSinks holds one optional sink per severity. Error is mandatory: it
// receives every message whose own sink is missing.
type LogSinks struct {
	Error LogSink
	Warn  LogSink
	Info  LogSink
	Debug LogSink
}

// LogBridge routes backend log lines to the registered sinks
type LogBridge struct {
	sinks   LogSinks
	metrics atomic.Pointer[Metrics]
}

// InitLogging registers the sinks and returns the bridge that backends log
// through. It fails when no error sink is supplied.
func InitLogging(sinks LogSinks) (*LogBridge, error) {
	if sinks.Error == nil {
		slog.Error("cannot initialize audio logging without an error sink")
		return nil, fmt.Errorf("%w: an error sink is required", ErrLoggingInit)
	}

	slog.Debug("audio log bridge initialized",
		"has_warn", sinks.Warn != nil,
		"has_info", sinks.Info != nil,
		"has_debug", sinks.Debug != nil)

	return &LogBridge{sinks: sinks}, nil
}

// Route delivers message to the sink registered for severity, or to the error
// sink when that sink is absent. Messages are never dropped.
func (b *LogBridge) Route(severity LogSeverity, message string) {
	if b == nil {
		return
	}
	b.metrics.Load().logEvent(severity)
	b.sinkFor(severity)(message)
}

// sinkFor picks the exact-match sink with the error sink as fallback
func (b *LogBridge) sinkFor(severity LogSeverity) LogSink {
	var sink LogSink
	switch severity {
	case SeverityDebug:
		sink = b.sinks.Debug
	case SeverityInfo:
		sink = b.sinks.Info
	case SeverityWarning:
		sink = b.sinks.Warn
	case SeverityError:
		sink = b.sinks.Error
	}
	if sink == nil {
		return b.sinks.Error
	}
	return sink
}

// attachMetrics sets the collectors log events are counted in, once
func (b *LogBridge) attachMetrics(m *Metrics) {
	if m != nil {
		b.metrics.CompareAndSwap(nil, m)
	}
}

// logProc adapts the bridge to the LogProc signature backends receive
func (b *LogBridge) logProc() LogProc {
	return b.Route
}

// SlogSinks binds all four sinks to logger at the matching slog levels
func SlogSinks(logger *slog.Logger) LogSinks {
	if logger == nil {
		logger = slog.Default()
	}

	sink := func(level slog.Level) LogSink {
		return func(message string) {
			logger.Log(context.Background(), level, "audio backend", "message", message)
		}
	}

	return LogSinks{
		Error: sink(slog.LevelError),
		Warn:  sink(slog.LevelWarn),
		Info:  sink(slog.LevelInfo),
		Debug: sink(slog.LevelDebug),
	}
}
