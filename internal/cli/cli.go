// Package cli implements the sliceview command-line interface.
//
// The CLI drives the viewer headlessly against a running analysis backend:
// it uploads a DICOM series, renders the three orthogonal projections to PNG
// files and runs Gaussian profile or MTF analyses over a region of interest.
//
// # Commands
//
//   - render: load a series and write axial, sagittal and coronal PNGs
//   - analyze: load a series, analyze an ROI and write the chart PNG
//   - config init: write a default configuration file
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers and
// the loaded configuration are passed through context.Context.
package cli

import (
	"context"
	"fmt"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"sliceview/pkg/config"
)

const defaultConfigPath = "sliceview.yaml"

var (
	version string
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the sliceview CLI.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// annotationRewritesConfig marks commands that replace the configuration
// file and so must run even when the current one fails to load.
const annotationRewritesConfig = "rewrites-config"

func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
		serverURL  string
	)

	root := &cobra.Command{
		Use:           "sliceview",
		Short:         "Render orthogonal MRI/CT slices and analyze regions of interest",
		Long:          `sliceview uploads a DICOM series to the analysis backend, renders its axial, sagittal and coronal projections and plots Gaussian profile and MTF analyses of user regions.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}

			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				if cmd.Annotations[annotationRewritesConfig] == "" {
					return err
				}
				cfg = config.DefaultConfig()
			}
			if cfg.Output.Verbose {
				level = charmlog.DebugLevel
			}
			if serverURL != "" {
				cfg.Server.URL = serverURL
			}

			logger := newLogger(cmd.ErrOrStderr(), level)
			if err != nil {
				logger.Warn("Ignoring unusable configuration", "path", configPath, "err", err)
			}
			ctx := withLogger(cmd.Context(), logger)
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("sliceview %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "configuration file (.yaml or .toml)")
	root.PersistentFlags().StringVar(&serverURL, "server", "", "backend base URL (overrides the config file)")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newConfigCmd())

	return root
}
