package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"invoice-automation/backend/internal/billing"
)

var errEmptyImage = errors.New("image payload is empty")

// maxImagePixels bounds the decoded size of any embedded image
const maxImagePixels = 4096 * 4096

// embeddedImage is an image ready to be registered with gofpdf
type embeddedImage struct {
	data      []byte
	imageType string // "PNG" or "JPG"
	width     int
	height    int
}

// decodeImagePayload accepts raw image bytes, a data URI or a bare base64
// string and returns something gofpdf can embed. JPEG data is passed through;
// every other format is flattened onto white and re-encoded as 8-bit PNG.
func decodeImagePayload(payload billing.ImagePayload) (*embeddedImage, error) {
	raw, err := imageBytes(payload)
	if err != nil {
		return nil, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxImagePixels)
	}

	if format == "jpeg" {
		// make sure the body is readable, not just the header
		if _, _, err := image.Decode(bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("failed to decode jpeg: %w", err)
		}
		return &embeddedImage{data: raw, imageType: "JPG", width: cfg.Width, height: cfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", format, err)
	}

	bounds := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return nil, fmt.Errorf("failed to re-encode image: %w", err)
	}
	return &embeddedImage{data: buf.Bytes(), imageType: "PNG", width: bounds.Dx(), height: bounds.Dy()}, nil
}

// imageBytes strips a data URI prefix and base64-decodes when needed
func imageBytes(payload billing.ImagePayload) ([]byte, error) {
	if payload.IsZero() {
		return nil, errEmptyImage
	}

	text := strings.TrimSpace(string(payload))
	if strings.HasPrefix(text, "data:") {
		comma := strings.IndexByte(text, ',')
		if comma < 0 {
			return nil, errors.New("malformed data URI")
		}
		meta, body := text[len("data:"):comma], text[comma+1:]
		if !strings.HasSuffix(meta, ";base64") {
			return []byte(body), nil
		}
		return decodeBase64(body)
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(payload)); err == nil {
		return payload, nil
	}
	return decodeBase64(text)
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)

	if data, err := base64.StdEncoding.DecodeString(s); err == nil && len(data) > 0 {
		return data, nil
	}
	data, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	if len(data) == 0 {
		return nil, errEmptyImage
	}
	return data, nil
}

// fitBox scales w x h to fit inside boxW x boxH keeping the aspect ratio
func fitBox(w, h int, boxW, boxH float64) (float64, float64) {
	scale := boxW / float64(w)
	if s := boxH / float64(h); s < scale {
		scale = s
	}
	return float64(w) * scale, float64(h) * scale
}
