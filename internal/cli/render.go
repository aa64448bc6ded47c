package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"sliceview/internal/models"
	"sliceview/pkg/viewer"
	"sliceview/pkg/visualization"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	outDir   string         // output directory, defaults to output.dir from the config
	slices   map[string]int // slice index per projection name
	zoom     float64        // zoom factor applied to every projection
	pan      []float64      // pan offset in canvas pixels, as x,y
	contrast []float64      // contrast drag in pixels, as dx,dy
	window   viewOverrides
}

func newRenderCmd() *cobra.Command {
	opts := renderOpts{zoom: 1}

	cmd := &cobra.Command{
		Use:   "render <dicom-dir-or-file>...",
		Short: "Render the axial, sagittal and coronal projections to PNG",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.window.set = changedFlags(cmd, "window-center", "window-width")
			return runRender(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "output directory")
	cmd.Flags().StringToIntVar(&opts.slices, "slice", nil, "slice index per projection, e.g. axial=5,coronal=12")
	cmd.Flags().Float64Var(&opts.zoom, "zoom", opts.zoom, "zoom factor, clamped to [0.5, 5]")
	cmd.Flags().Float64SliceVar(&opts.pan, "pan", nil, "pan offset in pixels as x,y")
	cmd.Flags().Float64SliceVar(&opts.contrast, "contrast", nil, "contrast drag in pixels as dx,dy (center += 2*dx, width += 2*dy)")
	cmd.Flags().Float64Var(&opts.window.windowCenter, "window-center", 0, "initial window center")
	cmd.Flags().Float64Var(&opts.window.windowWidth, "window-width", 0, "initial window width")

	return cmd
}

func runRender(cmd *cobra.Command, args []string, opts renderOpts) error {
	ctx := cmd.Context()
	cfg := configFromContext(ctx)
	logger := loggerFromContext(ctx)

	if err := validatePair("pan", opts.pan); err != nil {
		return err
	}
	if err := validatePair("contrast", opts.contrast); err != nil {
		return err
	}
	slices, err := parseSlices(opts.slices)
	if err != nil {
		return err
	}

	v, err := openSession(ctx, args, opts.window)
	if err != nil {
		return err
	}
	defer v.Close()

	for p, idx := range slices {
		if err := v.SetSlice(p, idx); err != nil {
			return err
		}
	}
	for _, p := range models.Projections {
		if len(opts.contrast) == 2 {
			v.ToggleContrast(p)
			v.Drag(p, opts.contrast[0], opts.contrast[1])
			v.ToggleContrast(p)
		}
		if opts.zoom != 1 {
			v.Zoom(p, opts.zoom)
		}
		if len(opts.pan) == 2 {
			v.Drag(p, opts.pan[0], opts.pan[1])
		}
	}
	if err := v.Settle(ctx); err != nil {
		return err
	}

	outDir := opts.outDir
	if outDir == "" {
		outDir = cfg.Output.Dir
	}
	return saveProjections(cmd, v, outDir, logger.Warn)
}

func saveProjections(cmd *cobra.Command, v *viewer.Viewer, outDir string, warn func(msg any, keyvals ...any)) error {
	saved := 0
	for _, p := range models.Projections {
		path := filepath.Join(outDir, p.String()+".png")
		if _, ok := v.Displayed(p); !ok {
			warn("projection not rendered", "projection", p)
			continue
		}
		if err := visualization.SaveCanvas(v.Canvas(p), path); err != nil {
			return err
		}
		st := v.Viewport(p)
		center, width := st.Window()
		fmt.Fprintf(cmd.OutOrStdout(), "%s\tslice %d/%d\tzoom %.2f\twindow %g/%g\t%s\n",
			p, st.SliceIndex(), st.MaxSlices(), st.Zoom(), center, width, path)
		saved++
	}
	if saved == 0 {
		return fmt.Errorf("no projection could be rendered")
	}
	return nil
}

// parseSlices converts projection names to projections.
func parseSlices(in map[string]int) (map[models.Projection]int, error) {
	out := make(map[models.Projection]int, len(in))
	for name, idx := range in {
		p, err := models.ParseProjection(name)
		if err != nil {
			return nil, err
		}
		out[p] = idx
	}
	return out, nil
}

func validatePair(flag string, v []float64) error {
	if len(v) != 0 && len(v) != 2 {
		return fmt.Errorf("--%s expects two values, got %d", flag, len(v))
	}
	return nil
}

// changedFlags reports which of names were set on the command line.
func changedFlags(cmd *cobra.Command, names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = cmd.Flags().Changed(n)
	}
	return set
}
