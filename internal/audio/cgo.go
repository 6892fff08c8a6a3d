//go:build cgo

package audio

// cgoEnabled tells the backend factory whether hardware backends exist
const cgoEnabled = true
