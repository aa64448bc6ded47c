package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"sliceview/pkg/backend"
	"sliceview/pkg/config"
)

// fakeServer serves the four backend endpoints with canned data.
type fakeServer struct {
	mu       sync.Mutex
	uploaded []string
	rois     []backend.WireROI
	slices   map[string]int
}

func (f *fakeServer) routes(t *testing.T) http.Handler {
	img := image.NewGray(image.Rect(0, 0, 64, 48))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	img.SetGray(0, 0, color.Gray{Y: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	r := chi.NewRouter()
	r.Post(backend.PathLoadFiles, func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Files []struct {
				Name string `json:"name"`
			} `json:"files"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)
		f.mu.Lock()
		for _, file := range body.Files {
			f.uploaded = append(f.uploaded, file.Name)
		}
		f.mu.Unlock()
		writeJSON(w, map[string]any{"cache_id": "cli-session", "shape": []int{12, 48, 64}})
	})
	r.Post(backend.PathProjection, func(w http.ResponseWriter, req *http.Request) {
		var body backend.ProjectionRequest
		_ = json.NewDecoder(req.Body).Decode(&body)
		f.mu.Lock()
		f.slices[body.Projection] = body.SliceIdx
		f.mu.Unlock()
		writeJSON(w, map[string]any{"image": dataURL, "shape": []int{48, 64}})
	})
	analysis := func(res any) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			var body backend.AnalysisRequest
			_ = json.NewDecoder(req.Body).Decode(&body)
			f.mu.Lock()
			f.rois = append(f.rois, body.ROI)
			f.mu.Unlock()
			writeJSON(w, res)
		}
	}
	r.Post(backend.PathGaussian, analysis(map[string]any{
		"x_data": []float64{0, 1, 2, 3}, "y_data": []float64{1, 4, 4, 1}, "y_fit": []float64{1, 4, 4, 1},
		"fwhm": 2.346, "center": 1.5, "r_squared": 0.99871,
	}))
	r.Post(backend.PathMTF, analysis(map[string]any{
		"frequencies": []float64{0, 0.1, 0.2, 0.3}, "mtf": []float64{1, 0.6, 0.4, 0},
	}))
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// setup starts a fake backend and writes a small DICOM directory.
func setup(t *testing.T) (*fakeServer, string, string) {
	t.Helper()
	f := &fakeServer{slices: map[string]int{}}
	srv := httptest.NewServer(f.routes(t))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	series := filepath.Join(dir, "series")
	require.NoError(t, os.MkdirAll(series, 0755))
	for _, name := range []string{"b.dcm", "a.DCM", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(series, name), []byte{1, 2, 3}, 0644))
	}
	return f, srv.URL, dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRenderWritesProjections(t *testing.T) {
	f, url, dir := setup(t)
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "render", filepath.Join(dir, "series"),
		"--server", url, "--config", filepath.Join(dir, "none.yaml"),
		"--out", outDir, "--slice", "coronal=7", "--zoom", "2")
	require.NoError(t, err)

	for _, name := range []string{"axial", "sagittal", "coronal"} {
		path := filepath.Join(outDir, name+".png")
		require.FileExists(t, path)
		require.Contains(t, out, path)
	}
	require.Contains(t, out, "slice 7/64")
	require.Contains(t, out, "zoom 2.00")

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, []string{"a.DCM", "b.dcm"}, f.uploaded)
	require.Equal(t, 7, f.slices["coronal"])
}

func TestAnalyzeGaussian(t *testing.T) {
	f, url, dir := setup(t)
	chartPath := filepath.Join(dir, "charts", "profile.png")

	out, err := run(t, "analyze", filepath.Join(dir, "series"),
		"--server", url, "--config", filepath.Join(dir, "none.yaml"),
		"--kind", "gaussian", "--roi", "30,20,10,5", "--out", chartPath, "--save-view")
	require.NoError(t, err)
	require.FileExists(t, chartPath)
	require.FileExists(t, filepath.Join(dir, "charts", "axial.png"))
	require.Contains(t, out, "FWHM: 2.35 mm")
	require.Contains(t, out, "R²: 0.9987")

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, []backend.WireROI{{X1: 10, Y1: 5, X2: 30, Y2: 20}}, f.rois)
}

func TestAnalyzeMTF(t *testing.T) {
	f, url, dir := setup(t)

	out, err := run(t, "analyze", filepath.Join(dir, "series"),
		"--server", url, "--config", filepath.Join(dir, "none.yaml"),
		"--projection", "sagittal", "--slice", "3", "--kind", "mtf",
		"--roi", "40,10,5,10", "--out", filepath.Join(dir, "mtf.png"))
	require.NoError(t, err)
	require.Contains(t, out, "MTF=0.5: 0.150")

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Equal(t, []backend.WireROI{{X1: 40, Y1: 10, X2: 5, Y2: 10}}, f.rois)
	require.Equal(t, 3, f.slices["sagittal"])
}

func TestAnalyzeRejectsBadFlags(t *testing.T) {
	_, url, dir := setup(t)
	base := []string{"analyze", filepath.Join(dir, "series"), "--server", url, "--config", filepath.Join(dir, "none.yaml")}

	_, err := run(t, append(base, "--roi", "1,2,3")...)
	require.ErrorContains(t, err, "four values")

	_, err = run(t, append(base, "--roi", "1,2,3,4", "--projection", "oblique")...)
	require.ErrorContains(t, err, "invalid projection")

	_, err = run(t, append(base, "--roi", "1,2,3,4", "--kind", "snr")...)
	require.ErrorContains(t, err, "invalid analysis kind")
}

func TestRenderBackendDown(t *testing.T) {
	_, _, dir := setup(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	cfgPath := filepath.Join(dir, "fast.yaml")
	cfg := config.DefaultConfig()
	cfg.Server.URL = srv.URL
	cfg.Server.Retries = 1
	require.NoError(t, config.SaveConfig(cfg, cfgPath))

	_, err := run(t, "render", filepath.Join(dir, "series"), "--config", cfgPath)
	require.ErrorIs(t, err, backend.ErrNetwork)
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sliceview.toml")

	_, err := run(t, "config", "init", path, "--config", filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, *config.DefaultConfig(), *cfg)

	_, err = run(t, "config", "init", path, "--config", filepath.Join(dir, "none.yaml"))
	require.ErrorContains(t, err, "already exists")

	_, err = run(t, "config", "init", path, "--force", "--config", filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
}

func TestConfigInitRepairsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sliceview.yaml")
	require.NoError(t, os.WriteFile(path, []byte("view:\n  windowWidth: 0\n"), 0644))

	_, err := run(t, "render", dir, "--config", path)
	require.ErrorContains(t, err, "windowWidth")

	_, err = run(t, "config", "init", path, "--force", "--config", path)
	require.NoError(t, err)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, *config.DefaultConfig(), *cfg)

	// A broken default file does not block writing a different one.
	other := filepath.Join(dir, "other.toml")
	_, err = run(t, "config", "init", other, "--config", path+".bad")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("view: [\n"), 0644))
	_, err = run(t, "config", "init", other, "--force", "--config", path)
	require.NoError(t, err)
	require.FileExists(t, other)
}

func TestCollectFiles(t *testing.T) {
	_, _, dir := setup(t)
	series := filepath.Join(dir, "series")

	files, err := collectFiles([]string{series})
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "a.DCM", files[0].Name)
	require.Equal(t, []byte{1, 2, 3}, []byte(files[0].Data))

	// Files named explicitly are taken regardless of extension.
	files, err = collectFiles([]string{filepath.Join(series, "notes.txt")})
	require.NoError(t, err)
	require.Len(t, files, 1)

	_, err = collectFiles([]string{t.TempDir()})
	require.ErrorContains(t, err, "no DICOM files")

	_, err = collectFiles([]string{filepath.Join(dir, "missing")})
	require.Error(t, err)
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.0.0", "abc123", "2024-01-01")
	defer SetVersion("", "", "")

	if version != "1.0.0" || commit != "abc123" || date != "2024-01-01" {
		t.Errorf("SetVersion did not update version info: %q %q %q", version, commit, date)
	}
	if !strings.HasPrefix(newRootCmd().Version, "1.0.0") {
		t.Errorf("root command version = %q, want 1.0.0", newRootCmd().Version)
	}
}
