package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/synthizer/synthizer-rust-rewrite/internal/audio"
	"github.com/synthizer/synthizer-rust-rewrite/internal/source"
)

// playerSlot lets a device be opened before the clip is rendered for its
// negotiated format. Until a player is installed it outputs silence.
type playerSlot struct {
	player atomic.Pointer[source.Player]
}

func (s *playerSlot) Fill(output []float32, cfg audio.DeviceConfig) {
	if p := s.player.Load(); p != nil {
		p.Fill(output, cfg)
		return
	}
	clear(output)
}

// playbackRequest describes one streaming run
type playbackRequest struct {
	label    string
	loop     bool
	duration time.Duration // zero plays until the clip ends
	render   func(audio.DeviceConfig) (*source.Clip, error)
}

func addDeviceFlags(cmd *cobra.Command) {
	cmd.Flags().String("device", "", "Device ID from `syzaudio devices` (default: platform default)")
	cmd.Flags().Uint32("sample-rate", 0, "Requested sample rate in Hz (default: from config or backend)")
	cmd.Flags().Uint32("channels", 0, "Requested channel count (default: from config or backend)")
}

// openOptions merges the device flags over the configuration
func (c *CLI) openOptions(cmd *cobra.Command) (audio.DeviceOpenOptions, error) {
	opts := audio.DeviceOpenOptions{
		SampleRate: c.cfg.SampleRate,
		Channels:   c.cfg.Channels,
	}

	if raw, _ := cmd.Flags().GetString("device"); raw != "" {
		id, err := audio.ParseDeviceID(raw)
		if err != nil {
			return opts, err
		}
		opts.DeviceID = id
	}
	if cmd.Flags().Changed("sample-rate") {
		opts.SampleRate, _ = cmd.Flags().GetUint32("sample-rate")
	}
	if cmd.Flags().Changed("channels") {
		opts.Channels, _ = cmd.Flags().GetUint32("channels")
	}
	return opts, opts.Validate()
}

func (c *CLI) newToneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tone",
		Short: "Play a sine tone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			freq, _ := cmd.Flags().GetFloat64("freq")
			duration, _ := cmd.Flags().GetDuration("duration")
			gain, _ := cmd.Flags().GetFloat32("gain")

			if duration <= 0 {
				return fmt.Errorf("duration must be positive, got %s", duration)
			}
			if gain < 0 || gain > 1 {
				return fmt.Errorf("gain must be between 0.0 and 1.0, got %f", gain)
			}

			return c.runPlayback(cmd, playbackRequest{
				label: fmt.Sprintf("%.1f Hz tone", freq),
				render: func(cfg audio.DeviceConfig) (*source.Clip, error) {
					return source.Tone(freq, duration, gain, cfg)
				},
			})
		},
	}
	addDeviceFlags(cmd)
	cmd.Flags().Float64("freq", 440, "Tone frequency in Hz")
	cmd.Flags().Duration("duration", time.Second, "Tone length")
	cmd.Flags().Float32("gain", source.DefaultToneGain, "Amplitude between 0.0 and 1.0")
	return cmd
}

func (c *CLI) newPlayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play FILE",
		Short: "Play a WAV, MP3 or AIFF file",
		Long: "Play a sound file. FILE may omit its extension and may be relative " +
			"to a configured sound path or the XDG sound directories.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loop, _ := cmd.Flags().GetBool("loop")
			duration, _ := cmd.Flags().GetDuration("duration")
			if duration < 0 {
				return fmt.Errorf("duration cannot be negative, got %s", duration)
			}

			path, err := c.resolveSound(args[0])
			if err != nil {
				return err
			}
			clip, err := c.decoders.Load(c.fs, path)
			if err != nil {
				return err
			}

			return c.runPlayback(cmd, playbackRequest{
				label:    filepath.Base(path),
				loop:     loop,
				duration: duration,
				render: func(cfg audio.DeviceConfig) (*source.Clip, error) {
					return source.Conform(clip, cfg)
				},
			})
		},
	}
	addDeviceFlags(cmd)
	cmd.Flags().Bool("loop", false, "Repeat the file until stopped")
	cmd.Flags().Duration("duration", 0, "Stop after this long (default: when the file ends)")
	return cmd
}

// resolveSound finds name as given, then under each configured sound path,
// then in the XDG sound directories
func (c *CLI) resolveSound(name string) (string, error) {
	resolver := source.NewResolver(c.fs, c.decoders.Extensions())

	candidates := []string{name}
	if !filepath.IsAbs(name) {
		for _, dir := range c.cfg.SoundPaths {
			candidates = append(candidates, filepath.Join(dir, name))
		}
		if found := c.configManager.XDG().FindSoundFile(name); found != "" {
			candidates = append(candidates, found)
		}
	}

	for _, candidate := range candidates {
		if path, err := resolver.Resolve(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", source.ErrNotFound, name)
}

// runPlayback opens a device, renders the clip for its negotiated format and
// streams it until it ends, the duration passes, or the run is interrupted
func (c *CLI) runPlayback(cmd *cobra.Command, req playbackRequest) error {
	opts, err := c.openOptions(cmd)
	if err != nil {
		return err
	}

	sess, err := c.openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.withMetricsServer(cmd.Context(), func(ctx context.Context) error {
		return c.stream(ctx, cmd, sess, opts, req)
	})
}

func (c *CLI) stream(ctx context.Context, cmd *cobra.Command, sess *session,
	opts audio.DeviceOpenOptions, req playbackRequest) error {
	slot := &playerSlot{}
	device, err := sess.audio.OpenPlaybackDevice(opts, slot.Fill)
	if err != nil {
		return err
	}
	defer device.Destroy()

	cfg := device.Config()
	clip, err := req.render(cfg)
	if err != nil {
		return err
	}
	player := source.NewPlayer(clip, req.loop)
	slot.player.Store(player)

	if err := device.Start(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Playing %s on %s (%d ch, %d Hz)\n",
		req.label, sess.audio.BackendName(), cfg.Channels, cfg.SampleRate)

	if req.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.duration)
		defer cancel()
	}

	quit := make(chan struct{})
	if c.isInteractiveInput(cmd.InOrStdin()) {
		fmt.Fprintln(cmd.OutOrStdout(), "Press Enter to pause or resume, q then Enter to stop")
		go readControls(ctx, cmd.InOrStdin(), device, quit)
	}

	select {
	case <-player.Done():
		slog.Debug("playback reached the end of the clip")
	case <-quit:
		slog.Debug("playback stopped by user")
	case <-ctx.Done():
		slog.Debug("playback interrupted", "reason", ctx.Err())
	}

	if err := device.Stop(); err != nil {
		return err
	}

	slog.Info("playback finished",
		"label", req.label,
		"frames_delivered", player.Position())
	return nil
}
