package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"sliceview/internal/models"
	"sliceview/pkg/chart"
	"sliceview/pkg/viewer"
	"sliceview/pkg/visualization"
)

// analyzeOpts holds the command-line flags for the analyze command.
type analyzeOpts struct {
	projection string
	slice      int
	kind       string
	roi        []float64 // data-space x1,y1,x2,y2
	output     string    // chart PNG path
	saveView   bool      // also save the analyzed projection
	window     viewOverrides
}

func newAnalyzeCmd() *cobra.Command {
	opts := analyzeOpts{projection: "axial", kind: "gaussian"}

	cmd := &cobra.Command{
		Use:   "analyze <dicom-dir-or-file>...",
		Short: "Run a Gaussian profile or MTF analysis over an ROI and plot it",
		Long: `analyze loads a DICOM series, selects an ROI on one projection and plots the
backend's analysis. For gaussian the ROI is a rectangle given by two corners;
for mtf it is a line from (x1,y1) to (x2,y2). Coordinates are image pixels.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.window.set = changedFlags(cmd, "window-center", "window-width")
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.projection, "projection", "p", opts.projection, "projection: axial, sagittal or coronal")
	cmd.Flags().IntVarP(&opts.slice, "slice", "s", 0, "slice index")
	cmd.Flags().StringVarP(&opts.kind, "kind", "k", opts.kind, "analysis: gaussian or mtf")
	cmd.Flags().Float64SliceVar(&opts.roi, "roi", nil, "ROI in image pixels as x1,y1,x2,y2")
	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "chart PNG path (default <output.dir>/<kind>.png)")
	cmd.Flags().BoolVar(&opts.saveView, "save-view", false, "also save the analyzed projection PNG")
	cmd.Flags().Float64Var(&opts.window.windowCenter, "window-center", 0, "initial window center")
	cmd.Flags().Float64Var(&opts.window.windowWidth, "window-width", 0, "initial window width")
	_ = cmd.MarkFlagRequired("roi")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts analyzeOpts) error {
	ctx := cmd.Context()
	cfg := configFromContext(ctx)

	p, err := models.ParseProjection(opts.projection)
	if err != nil {
		return err
	}
	kind, err := models.ParseAnalysisKind(opts.kind)
	if err != nil {
		return err
	}
	if len(opts.roi) != 4 {
		return fmt.Errorf("--roi expects four values x1,y1,x2,y2, got %d", len(opts.roi))
	}

	v, err := openSession(ctx, args, opts.window)
	if err != nil {
		return err
	}
	defer v.Close()

	if opts.slice != 0 {
		if err := v.SetSlice(p, opts.slice); err != nil {
			return err
		}
		if err := v.Settle(ctx); err != nil {
			return err
		}
	}

	start := models.Point{X: opts.roi[0], Y: opts.roi[1]}
	end := models.Point{X: opts.roi[2], Y: opts.roi[3]}
	if err := selectROI(v, p, kind, start, end); err != nil {
		return err
	}
	if err := v.Settle(ctx); err != nil {
		return err
	}
	if err := v.AnalysisError(); err != nil {
		return fmt.Errorf("%s analysis failed: %w", kind, err)
	}

	out := opts.output
	if out == "" {
		out = filepath.Join(cfg.Output.Dir, kind.String()+".png")
	}
	if err := visualization.SaveCanvas(v.ChartCanvas(), out); err != nil {
		return err
	}
	if opts.saveView {
		view := filepath.Join(filepath.Dir(out), p.String()+".png")
		if err := visualization.SaveCanvas(v.Canvas(p), view); err != nil {
			return err
		}
	}

	printResult(cmd.OutOrStdout(), v.LastResult())
	fmt.Fprintf(cmd.OutOrStdout(), "chart: %s\n", out)
	return nil
}

// selectROI replays the pointer gesture that draws an ROI between two
// image-space points.
func selectROI(v *viewer.Viewer, p models.Projection, kind models.AnalysisKind, start, end models.Point) error {
	from, err := v.ToCanvas(p, start)
	if err != nil {
		return err
	}
	to, err := v.ToCanvas(p, end)
	if err != nil {
		return err
	}

	if err := v.StartSelection(p, kind); err != nil {
		return err
	}
	if err := v.PointerDown(p, from); err != nil {
		v.CancelSelection()
		return err
	}
	v.PointerMove(p, to)
	return v.PointerUp(p, to)
}

func printResult(w io.Writer, res models.AnalysisResult) {
	switch {
	case res.Gaussian != nil:
		for _, line := range chart.GaussianAnnotations(res.Gaussian) {
			fmt.Fprintln(w, line)
		}
	case res.MTF != nil:
		markers := chart.Markers(res.MTF.Frequencies, res.MTF.MTF)
		if len(markers) == 0 {
			fmt.Fprintln(w, "no MTF crossings")
		}
		for _, m := range markers {
			fmt.Fprintln(w, chart.MarkerLabel(m))
		}
	}
}
