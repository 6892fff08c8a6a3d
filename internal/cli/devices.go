package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/synthizer/synthizer-rust-rewrite/internal/audio"
)

// deviceListing is the JSON shape printed by `devices --json`
type deviceListing struct {
	Backend string                   `json:"backend"`
	Devices []audio.DeviceDescriptor `json:"devices"`
	Partial bool                     `json:"partial"`
}

func (c *CLI) newDevicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List playback devices",
		Long: "List the playback devices of the selected backend. The ID column " +
			"can be passed to --device of the tone and play commands.",
		Args: cobra.NoArgs,
		RunE: c.runDevices,
	}
	cmd.Flags().Bool("json", false, "Print the listing as JSON")
	return cmd
}

func (c *CLI) runDevices(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	sess, err := c.openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	devices, result, err := sess.audio.OutputDevices()
	if err != nil {
		return err
	}
	if result.Partial {
		slog.Warn("device listing is incomplete", "delivered", result.Delivered, "cause", result.Cause)
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: listing stopped after %d device(s): %v\n",
			result.Delivered, result.Cause)
	}

	listing := deviceListing{
		Backend: sess.audio.BackendName(),
		Devices: devices,
		Partial: result.Partial,
	}
	if listing.Devices == nil {
		listing.Devices = []audio.DeviceDescriptor{}
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	}
	return writeDeviceTable(cmd.OutOrStdout(), listing)
}

func writeDeviceTable(w io.Writer, listing deviceListing) error {
	fmt.Fprintf(w, "Backend: %s\n", listing.Backend)
	if len(listing.Devices) == 0 {
		_, err := fmt.Fprintln(w, "No playback devices found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEFAULT\tNAME\tID")
	for _, d := range listing.Devices {
		marker := ""
		if d.IsPlatformDefault {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", marker, d.Name, d.ID)
	}
	return tw.Flush()
}
