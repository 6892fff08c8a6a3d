package audio

import (
	"errors"
	"fmt"
	"log/slog"
)

// Backend type names accepted by the factory and the configuration
const (
	BackendAuto  = "auto"
	BackendMalgo = "malgo"
	BackendOto   = "oto"
	BackendNull  = "null"
)

// BackendFactory creates Backend instances based on configuration
type BackendFactory interface {
	CreateBackend(backendType string) (Backend, error)
	GetSupportedBackends() []string
	IsValidBackendType(backendType string) bool
}

// DefaultBackendFactory implements BackendFactory with platform detection
type DefaultBackendFactory struct {
	isWSLFunc  func() bool
	cgoEnabled bool
	nullOpts   NullBackendOptions
}

// Factory errors
var (
	ErrInvalidBackendType    = errors.New("invalid backend type")
	ErrBackendCreationFailed = errors.New("backend creation failed")
)

// NewBackendFactory creates a new DefaultBackendFactory with real platform detection
func NewBackendFactory() *DefaultBackendFactory {
	return &DefaultBackendFactory{
		isWSLFunc:  IsWSL,
		cgoEnabled: cgoEnabled,
	}
}

// NewBackendFactoryWithDependencies creates a factory with injected dependencies for testing
func NewBackendFactoryWithDependencies(isWSLFunc func() bool, cgo bool, nullOpts NullBackendOptions) *DefaultBackendFactory {
	return &DefaultBackendFactory{
		isWSLFunc:  isWSLFunc,
		cgoEnabled: cgo,
		nullOpts:   nullOpts,
	}
}

// CreateBackend creates a Backend instance based on the specified type
func (f *DefaultBackendFactory) CreateBackend(backendType string) (Backend, error) {
	// Default empty string to "auto"
	if backendType == "" {
		backendType = BackendAuto
	}

	slog.Debug("creating audio backend", "type", backendType)

	switch backendType {
	case BackendAuto:
		return f.createAutoBackend()
	case BackendMalgo:
		return NewMalgoBackend(), nil
	case BackendOto:
		return NewOtoBackend(), nil
	case BackendNull:
		return NewNullBackend(f.nullOpts), nil
	default:
		slog.Error("invalid backend type requested", "type", backendType)
		return nil, fmt.Errorf("%w: %s", ErrInvalidBackendType, backendType)
	}
}

// GetSupportedBackends returns a list of all supported backend types
func (f *DefaultBackendFactory) GetSupportedBackends() []string {
	return SupportedBackends()
}

// IsValidBackendType checks if a backend type is supported
func (f *DefaultBackendFactory) IsValidBackendType(backendType string) bool {
	return IsValidBackendType(backendType)
}

// SupportedBackends lists every backend type name
func SupportedBackends() []string {
	return []string{BackendAuto, BackendMalgo, BackendOto, BackendNull}
}

// IsValidBackendType checks a backend type name. Empty means auto.
func IsValidBackendType(backendType string) bool {
	if backendType == "" {
		return true
	}
	for _, supported := range SupportedBackends() {
		if backendType == supported {
			return true
		}
	}
	return false
}

// createAutoBackend automatically selects the best backend for the current platform
func (f *DefaultBackendFactory) createAutoBackend() (Backend, error) {
	slog.Debug("auto-detecting optimal backend")

	optimalType := preferredBackend(f.isWSLFunc(), f.cgoEnabled)
	slog.Debug("auto-detection result", "selected_type", optimalType)

	switch optimalType {
	case BackendMalgo:
		return NewMalgoBackend(), nil
	case BackendOto:
		return NewOtoBackend(), nil
	case BackendNull:
		return NewNullBackend(f.nullOpts), nil
	default:
		slog.Error("auto-detection returned invalid backend type", "type", optimalType)
		return nil, fmt.Errorf("%w: auto-detection failed", ErrBackendCreationFailed)
	}
}
