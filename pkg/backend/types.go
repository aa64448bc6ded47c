package backend

import (
	"strconv"

	"sliceview/internal/models"
)

// Endpoint paths of the analysis backend.
const (
	PathLoadFiles     = "/api/load-dicom-files"
	PathProjection    = "/api/get-projection"
	PathGaussian      = "/api/gaussian-profile"
	PathMTF           = "/api/mtf-analysis"
	requestIDHeader   = "X-Request-ID"
	contentTypeHeader = "Content-Type"
)

// ByteArray is raw file content encoded as a JSON array of numbers, which
// is what the load endpoint expects instead of base64.
type ByteArray []byte

// MarshalJSON writes b as [n,n,...].
func (b ByteArray) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	out := make([]byte, 0, 2+len(b)*4)
	out = append(out, '[')
	for i, v := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	return append(out, ']'), nil
}

// File is one DICOM file uploaded to the load endpoint.
type File struct {
	Name string    `json:"name"`
	Data ByteArray `json:"data"`
}

type loadRequest struct {
	Files []File `json:"files"`
}

type loadResponse struct {
	CacheID string `json:"cache_id"`
	Shape   []int  `json:"shape"`
}

// Dataset is a successfully loaded volume.
type Dataset struct {
	// CacheID is the opaque session token scoping all later requests
	CacheID string

	// Shape is the slice count per projection
	Shape models.Shape
}

// ProjectionRequest asks for one windowed slice image.
type ProjectionRequest struct {
	CacheID      string  `json:"cache_id"`
	Projection   string  `json:"projection"`
	SliceIdx     int     `json:"slice_idx"`
	WindowCenter float64 `json:"window_center"`
	WindowWidth  float64 `json:"window_width"`
}

type projectionResponse struct {
	Image string `json:"image"`
	Shape []int  `json:"shape"`
}

// WireROI is a data-space ROI in whole pixels.
type WireROI struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// NewWireROI rounds a data-space ROI to whole pixels.
func NewWireROI(roi models.ROI) WireROI {
	r := roi.Rounded()
	return WireROI{
		X1: int(r.Start.X),
		Y1: int(r.Start.Y),
		X2: int(r.End.X),
		Y2: int(r.End.Y),
	}
}

// AnalysisRequest asks for a Gaussian profile or MTF over an ROI.
type AnalysisRequest struct {
	CacheID    string  `json:"cache_id"`
	Projection string  `json:"projection"`
	SliceIdx   int     `json:"slice_idx"`
	ROI        WireROI `json:"roi"`
}

type errorResponse struct {
	Error string `json:"error"`
}
