package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"sliceview/internal/models"
)

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	img.SetGray(0, 0, color.Gray{Y: 200})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestClient(t *testing.T, r http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", Options{Attempts: 3, Delay: time.Millisecond})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestByteArrayMarshalsAsNumbers(t *testing.T) {
	out, err := json.Marshal(File{Name: "a.dcm", Data: ByteArray{0, 7, 255}})
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"a.dcm","data":[0,7,255]}`, string(out))

	out, err = json.Marshal(File{Name: "empty.dcm"})
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"empty.dcm","data":[]}`, string(out))
}

func TestNewWireROIRounds(t *testing.T) {
	roi := models.ROI{Kind: models.MTF, Start: models.Point{X: 10.4, Y: -9.6}, End: models.Point{X: 70.5, Y: 30.49}}
	require.Equal(t, WireROI{X1: 10, Y1: -10, X2: 71, Y2: 30}, NewWireROI(roi))

	halves := models.ROI{Kind: models.Gaussian, Start: models.Point{X: -2.5, Y: -0.5}, End: models.Point{X: 2.5, Y: 0.5}}
	require.Equal(t, WireROI{X1: -2, Y1: 0, X2: 3, Y2: 1}, NewWireROI(halves))
}

func TestLoadDataset(t *testing.T) {
	r := chi.NewRouter()
	r.Post(PathLoadFiles, func(w http.ResponseWriter, req *http.Request) {
		require.NotEmpty(t, req.Header.Get(requestIDHeader))
		var body struct {
			Files []struct {
				Name string `json:"name"`
				Data []int  `json:"data"`
			} `json:"files"`
		}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		require.Len(t, body.Files, 2)
		require.Equal(t, []int{1, 2, 3}, body.Files[0].Data)
		writeJSON(w, http.StatusOK, map[string]any{"cache_id": "abc", "shape": []int{10, 20, 30}})
	})
	c := newTestClient(t, r)

	ds, err := c.LoadDataset(context.Background(), []File{
		{Name: "1.dcm", Data: ByteArray{1, 2, 3}},
		{Name: "2.dcm", Data: ByteArray{4}},
	})
	require.NoError(t, err)
	require.Equal(t, "abc", ds.CacheID)
	require.Equal(t, models.Shape{10, 20, 30}, ds.Shape)
}

func TestLoadDatasetBadShape(t *testing.T) {
	r := chi.NewRouter()
	r.Post(PathLoadFiles, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"cache_id": "abc", "shape": []int{10, 20}})
	})
	c := newTestClient(t, r)

	_, err := c.LoadDataset(context.Background(), []File{{Name: "x.dcm"}})
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestLoadDatasetRejectsNoFiles(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", Options{})
	_, err := c.LoadDataset(context.Background(), nil)
	require.Error(t, err)
}

func TestGetProjection(t *testing.T) {
	dataURL := pngDataURL(t, 8, 4)
	r := chi.NewRouter()
	r.Post(PathProjection, func(w http.ResponseWriter, req *http.Request) {
		var body ProjectionRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		require.Equal(t, ProjectionRequest{
			CacheID: "abc", Projection: "coronal", SliceIdx: 7, WindowCenter: 40, WindowWidth: 400,
		}, body)
		writeJSON(w, http.StatusOK, map[string]any{"image": dataURL, "shape": []int{4, 8}})
	})
	c := newTestClient(t, r)

	img, err := c.GetProjection(context.Background(), ProjectionRequest{
		CacheID: "abc", Projection: "coronal", SliceIdx: 7, WindowCenter: 40, WindowWidth: 400,
	})
	require.NoError(t, err)
	require.Equal(t, 4, img.Rows)
	require.Equal(t, 8, img.Cols)
	require.Equal(t, 8, img.Image.Bounds().Dx())
}

func TestGetProjectionShapeFromImage(t *testing.T) {
	dataURL := pngDataURL(t, 5, 3)
	r := chi.NewRouter()
	r.Post(PathProjection, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"image": dataURL})
	})
	c := newTestClient(t, r)

	img, err := c.GetProjection(context.Background(), ProjectionRequest{CacheID: "abc"})
	require.NoError(t, err)
	require.Equal(t, 3, img.Rows)
	require.Equal(t, 5, img.Cols)
}

func TestGetProjectionBadImage(t *testing.T) {
	r := chi.NewRouter()
	r.Post(PathProjection, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"image": "data:image/png;base64,!!!", "shape": []int{1, 1}})
	})
	c := newTestClient(t, r)

	_, err := c.GetProjection(context.Background(), ProjectionRequest{CacheID: "abc"})
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestAnalysisEndpoints(t *testing.T) {
	r := chi.NewRouter()
	r.Post(PathGaussian, func(w http.ResponseWriter, req *http.Request) {
		var body AnalysisRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		require.Equal(t, WireROI{X1: 1, Y1: 2, X2: 3, Y2: 4}, body.ROI)
		writeJSON(w, http.StatusOK, map[string]any{
			"x_data": []float64{0, 1}, "y_data": []float64{2, 3}, "y_fit": []float64{2.1, 2.9},
			"fwhm": 2.5, "center": 0.5, "r_squared": 0.98,
		})
	})
	r.Post(PathMTF, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"frequencies": []float64{0, 0.5}, "mtf": []float64{1, 0.2}})
	})
	c := newTestClient(t, r)

	req := AnalysisRequest{CacheID: "abc", Projection: "axial", SliceIdx: 0, ROI: WireROI{1, 2, 3, 4}}
	g, err := c.GaussianProfile(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 2.5, g.FWHM)
	require.Equal(t, []float64{2.1, 2.9}, g.YFit)

	m, err := c.MTFAnalysis(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 0.2}, m.MTF)
}

func TestAnalysisMismatchedSeries(t *testing.T) {
	r := chi.NewRouter()
	r.Post(PathMTF, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"frequencies": []float64{0}, "mtf": []float64{1, 0.2}})
	})
	c := newTestClient(t, r)

	_, err := c.MTFAnalysis(context.Background(), AnalysisRequest{CacheID: "abc"})
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Post(PathGaussian, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Data not found"})
	})
	c := newTestClient(t, r)

	_, err := c.GaussianProfile(context.Background(), AnalysisRequest{CacheID: "gone"})
	require.ErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Equal(t, "Data not found", apiErr.Message)
	require.Equal(t, int32(1), calls.Load())
}

func TestServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Post(PathMTF, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "busy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"frequencies": []float64{0}, "mtf": []float64{1}})
	})
	c := newTestClient(t, r)

	m, err := c.MTFAnalysis(context.Background(), AnalysisRequest{CacheID: "abc"})
	require.NoError(t, err)
	require.Equal(t, []float64{1}, m.MTF)
	require.Equal(t, int32(3), calls.Load())
}

func TestServerErrorExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Post(PathMTF, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	c := newTestClient(t, r)

	_, err := c.MTFAnalysis(context.Background(), AnalysisRequest{CacheID: "abc"})
	require.ErrorIs(t, err, ErrNetwork)
	require.True(t, IsRetryable(err))
	require.Equal(t, int32(3), calls.Load())
}

func TestBadRequestCarriesMessage(t *testing.T) {
	r := chi.NewRouter()
	r.Post(PathLoadFiles, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No valid DICOM files"})
	})
	c := newTestClient(t, r)

	_, err := c.LoadDataset(context.Background(), []File{{Name: "x.txt"}})
	require.ErrorIs(t, err, ErrBadResponse)
	require.Contains(t, err.Error(), "No valid DICOM files")
}

func TestRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, 5, time.Hour, func() error {
		calls++
		return &RetryableError{Err: ErrNetwork}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestDecodeDataURL(t *testing.T) {
	img, err := DecodeDataURL(pngDataURL(t, 2, 2))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())

	_, err = DecodeDataURL("data:image/png,plain")
	require.ErrorIs(t, err, ErrBadResponse)

	_, err = DecodeDataURL("data:image/png;base64")
	require.ErrorIs(t, err, ErrBadResponse)
}
