package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkboard/recorder/internal/capture"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "Show available output formats and presets",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("format preference order:")
			for _, f := range capture.DefaultPreferences() {
				fmt.Printf("  %-24s %s\n", f.String(), f.MIME())
			}
			base := capture.BaselineFormat()
			fmt.Printf("baseline (always available): %s\n\n", base.String())

			fmt.Println("presets:")
			for _, name := range capture.PresetNames() {
				p := capture.PresetByName(name)
				fmt.Printf("  %-10s %d fps, %d bps, max edge %d\n",
					p.Name, p.FrameRate, p.Bitrate, p.MaxLongEdge)
			}
		},
	}
}
