package audio

import (
	"log/slog"
	"os"
	"strings"
)

// PlatformReport explains what automatic backend selection sees on this host
type PlatformReport struct {
	WSL        bool   `json:"wsl"`
	WSLMarker  string `json:"wsl_marker,omitempty"`
	CgoEnabled bool   `json:"cgo_enabled"`
	Preferred  string `json:"preferred_backend"`
}

// DetectPlatform inspects the host the way the auto backend does
func DetectPlatform() PlatformReport {
	marker := wslMarker(readKernelVersion(), os.Getenv("WSL_DISTRO_NAME"))
	report := PlatformReport{
		WSL:        marker != "",
		WSLMarker:  marker,
		CgoEnabled: cgoEnabled,
	}
	report.Preferred = preferredBackend(report.WSL, report.CgoEnabled)
	return report
}

// IsWSL reports whether the process runs under Windows Subsystem for Linux
func IsWSL() bool {
	return wslMarker(readKernelVersion(), os.Getenv("WSL_DISTRO_NAME")) != ""
}

// wslMarker names the first WSL indicator found, or "" when there is none
func wslMarker(kernelVersion, distro string) string {
	if distro != "" {
		return "WSL_DISTRO_NAME=" + distro
	}

	kernel := strings.ToLower(kernelVersion)
	switch {
	case strings.Contains(kernel, "microsoft"):
		return "microsoft kernel"
	case strings.Contains(kernel, "wsl"):
		return "wsl kernel"
	}
	return ""
}

func readKernelVersion() string {
	content, err := os.ReadFile("/proc/version")
	if err != nil {
		slog.Debug("kernel version unavailable", "error", err)
		return ""
	}
	return string(content)
}

// preferredBackend is the auto choice: malgo natively, oto under WSL where
// miniaudio crackles through the WSLg PulseAudio bridge, null without cgo
func preferredBackend(isWSL, cgo bool) string {
	var choice string
	switch {
	case !cgo:
		choice = BackendNull
		slog.Warn("built without cgo, no hardware backend available, using null output")
	case isWSL:
		choice = BackendOto
	default:
		choice = BackendMalgo
	}

	slog.Debug("preferred audio backend", "backend", choice, "is_wsl", isWSL, "cgo", cgo)
	return choice
}
