package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkboard/recorder/internal/config"
	"github.com/inkboard/recorder/internal/logging"
)

var (
	version = "dev"

	cfgFile string
	cfg     *config.Config
)

func main() {
	root := &cobra.Command{
		Use:           "inkrec",
		Short:         "Screen recording pipeline",
		Long:          "inkrec composes a capture region with cursor, camera and caption overlays and encodes it into a Matroska recording.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			for _, verr := range cfg.Validate() {
				fmt.Fprintf(os.Stderr, "config: %v\n", verr)
			}

			if cfg.LogFile != "" {
				w, err := logging.NewRotatingWriter(cfg.LogFile, 0, 0)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				logging.Init(cfg.LogFormat, cfg.LogLevel, w)
				return nil
			}
			logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stderr)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	root.AddCommand(newRecordCmd())
	root.AddCommand(newFormatsCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "inkrec: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("inkrec %s\n", version)
		},
	}
}
