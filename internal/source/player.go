package source

import (
	"context"
	"sync/atomic"

	"github.com/synthizer/synthizer-rust-rewrite/internal/audio"
)

// Player streams a clip already in the device format. Fill is an
// audio.DataCallback: it only copies, and outputs silence once the clip is
// exhausted.
type Player struct {
	clip *Clip
	loop bool

	cursor   atomic.Int64 // next sample index
	finished atomic.Bool
	done     chan struct{}
}

// NewPlayer wraps clip. A looping player never finishes.
func NewPlayer(clip *Clip, loop bool) *Player {
	return &Player{
		clip: clip,
		loop: loop,
		done: make(chan struct{}),
	}
}

// Fill copies the next len(output) samples. A config that does not match
// the clip produces silence.
func (p *Player) Fill(output []float32, cfg audio.DeviceConfig) {
	if cfg.Channels != p.clip.Channels || len(p.clip.Samples) == 0 {
		clear(output)
		p.finish()
		return
	}

	samples := p.clip.Samples
	pos := int(p.cursor.Load())
	written := 0

	for written < len(output) {
		if pos >= len(samples) {
			if !p.loop {
				break
			}
			pos = 0
		}
		n := copy(output[written:], samples[pos:])
		written += n
		pos += n
	}
	p.cursor.Store(int64(pos))

	if written < len(output) {
		clear(output[written:])
		p.finish()
	}
}

// finish marks the end of playback once; closing a channel does not block
func (p *Player) finish() {
	if p.finished.CompareAndSwap(false, true) {
		close(p.done)
	}
}

// Done is closed once every sample has been handed to the device
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until playback finishes or ctx ends
func (p *Player) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Position returns how many frames have been delivered, modulo the clip
// length when looping
func (p *Player) Position() int {
	if p.clip.Channels == 0 {
		return 0
	}
	return int(p.cursor.Load()) / int(p.clip.Channels)
}

// Rewind restarts the clip from its first frame. It does not reopen a
// finished player.
func (p *Player) Rewind() {
	p.cursor.Store(0)
}
