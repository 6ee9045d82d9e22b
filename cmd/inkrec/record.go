package main

import (
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkboard/recorder/internal/capture"
	"github.com/inkboard/recorder/internal/logging"
)

func newRecordCmd() *cobra.Command {
	var (
		duration time.Duration
		width    int
		height   int
		preset   string
		output   string
		cursor   string
		caption  string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a synthetic demo scene",
		Long:  "Runs the full capture pipeline against a procedurally animated surface and writes the resulting Matroska file. Useful for profiling and for verifying codec availability on a machine.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.L("cli")

			p := capture.PresetByName(preset)
			frameRate := cfg.FrameRate
			bitrate := cfg.Bitrate
			maxEdge := cfg.MaxLongEdge
			if preset != "" {
				frameRate = p.FrameRate
				bitrate = p.Bitrate
				maxEdge = p.MaxLongEdge
			}

			region := capture.Region{Width: width, Height: height}
			scene := newDemoScene(width, height)

			overlays := capture.OverlayFunc(func() capture.OverlaySnapshot {
				snap := capture.OverlaySnapshot{
					Cursor: capture.CursorState{
						Position: scene.cursorAt(time.Now()),
						Effect:   cursorEffect(cursor),
					},
				}
				if caption != "" {
					snap.Caption = capture.CaptionState{
						Enabled:  true,
						Text:     caption,
						Position: image.Point{X: width / 2, Y: height - height/8},
						Style:    capture.DefaultCaptionStyle(),
					}
				}
				return snap
			})

			rec := capture.NewRecorder(capture.RecorderOptions{
				Region:      region,
				Surfaces:    []capture.Sampleable{scene},
				Overlays:    overlays,
				FrameRate:   frameRate,
				Bitrate:     bitrate,
				Padding:     cfg.Padding,
				MaxLongEdge: maxEdge,
			})

			if err := rec.Start(); err != nil {
				return err
			}
			log.Info("recording", "format", rec.Format().String(), "duration", duration.String())

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			select {
			case <-time.After(duration):
			case sig := <-sigCh:
				log.Info("interrupted", "signal", sig.String())
			}
			signal.Stop(sigCh)

			artifact, err := rec.Stop()
			if err != nil {
				return fmt.Errorf("finalize recording: %w", err)
			}

			outDir := cfg.OutputDir
			if outDir == "" {
				outDir = "."
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return err
			}
			name := output
			if name == "" {
				name = fmt.Sprintf("inkrec-%s.mkv", time.Now().Format("20060102-150405"))
			}
			path := filepath.Join(outDir, name)
			if err := os.WriteFile(path, artifact.Data, 0644); err != nil {
				return fmt.Errorf("write recording: %w", err)
			}

			fmt.Printf("wrote %s (%d bytes, %s, %s)\n",
				path, len(artifact.Data), artifact.Duration.Round(time.Second), artifact.MIME)
			return nil
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 5*time.Second, "recording length")
	cmd.Flags().IntVar(&width, "width", 1280, "demo scene width")
	cmd.Flags().IntVar(&height, "height", 720, "demo scene height")
	cmd.Flags().StringVar(&preset, "preset", "", "quality preset (balanced, sharp, bandwidth)")
	cmd.Flags().StringVarP(&output, "out", "o", "", "output file name")
	cmd.Flags().StringVar(&cursor, "cursor", "highlight", "cursor effect (none, highlight, spotlight)")
	cmd.Flags().StringVar(&caption, "caption", "", "caption text to overlay")
	return cmd
}

func cursorEffect(name string) capture.CursorEffect {
	switch name {
	case "highlight":
		return capture.CursorEffectHighlight
	case "spotlight":
		return capture.CursorEffectSpotlight
	default:
		return capture.CursorEffectNone
	}
}
