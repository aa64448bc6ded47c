package backend

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

// DecodeDataURL decodes an embeddable "data:image/...;base64," URL into an
// image. A bare base64 payload without the data: prefix is accepted too.
func DecodeDataURL(s string) (image.Image, error) {
	payload := s
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, fmt.Errorf("%w: malformed data URL", ErrBadResponse)
		}
		meta := s[len("data:"):comma]
		if !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("%w: data URL is not base64 encoded", ErrBadResponse)
		}
		payload = s[comma+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: error decoding image payload: %v", ErrBadResponse, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: error decoding image: %v", ErrBadResponse, err)
	}
	return img, nil
}
