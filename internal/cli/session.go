package cli

import (
	"context"
	"fmt"

	"sliceview/pkg/backend"
	"sliceview/pkg/config"
	"sliceview/pkg/viewer"
	"sliceview/pkg/viewport"
)

// viewOverrides are command-line adjustments of the configured view.
type viewOverrides struct {
	windowCenter float64
	windowWidth  float64
	set          map[string]bool
}

// openSession creates a viewer backed by the configured server and loads
// the DICOM files named by paths. The caller owns the returned viewer and
// must Close it.
func openSession(ctx context.Context, paths []string, ov viewOverrides) (*viewer.Viewer, error) {
	cfg := configFromContext(ctx)
	logger := loggerFromContext(ctx)

	files, err := collectFiles(paths)
	if err != nil {
		return nil, err
	}

	client := backend.NewClient(cfg.Server.URL, backend.Options{
		Timeout:  cfg.Timeout(),
		Attempts: cfg.Server.Retries,
		Delay:    cfg.RetryDelay(),
		Logger:   logger,
	})
	opts := viewerOptions(cfg, ov)
	opts.Logger = logger
	v, err := viewer.New(client, opts)
	if err != nil {
		return nil, err
	}

	prog := newProgress(logger)
	v.LoadDataset(files)
	if err := v.Settle(ctx); err != nil {
		v.Close()
		return nil, err
	}
	if err := v.Error(); err != nil {
		v.Close()
		return nil, err
	}
	prog.done(fmt.Sprintf("Loaded %d files from %s", len(files), client.BaseURL()))
	return v, nil
}

func viewerOptions(cfg *config.Config, ov viewOverrides) viewer.Options {
	d := viewport.Defaults{
		WindowCenter: cfg.View.WindowCenter,
		WindowWidth:  cfg.View.WindowWidth,
		Zoom:         1,
	}
	if ov.set["window-center"] {
		d.WindowCenter = ov.windowCenter
	}
	if ov.set["window-width"] {
		d.WindowWidth = ov.windowWidth
	}
	return viewer.Options{
		Defaults:       d,
		CacheCapacity:  cfg.Cache.Capacity,
		WheelZoomStep:  cfg.View.WheelZoomStep,
		ViewportWidth:  cfg.View.ViewportWidth,
		ViewportHeight: cfg.View.ViewportHeight,
		ChartWidth:     cfg.Chart.Width,
		ChartHeight:    cfg.Chart.Height,
	}
}
