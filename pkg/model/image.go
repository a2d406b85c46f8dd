package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Image is a raster image widget, used as the UnderWater sea bed texture.
type Image struct {
	syncState
	value  []byte
	format string
}

// NewImage wraps encoded image bytes such as a PNG file.
func NewImage(value []byte, format string) *Image {
	img := &Image{value: value, format: format}
	img.self = img
	return img
}

// LoadImage reads an image file. The format is taken from the extension.
func LoadImage(path string) (*Image, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: load image: %w", err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "jpg" {
		format = "jpeg"
	}
	return NewImage(b, format), nil
}

// Spec implements Widget.
func (img *Image) Spec() Spec {
	return Spec{
		ModelName:     "ImageModel",
		ViewName:      "ImageView",
		Module:        "@jupyter-widgets/controls",
		ModuleVersion: "^1.5.0",
	}
}

// Value returns the encoded image bytes.
func (img *Image) Value() []byte { return img.value }

// Format returns the image format, e.g. "png".
func (img *Image) Format() string { return img.format }

// WireState implements Widget.
func (img *Image) WireState(Encoder) (map[string]any, error) {
	return map[string]any{
		"value":  img.value,
		"format": img.format,
		"width":  "",
		"height": "",
	}, nil
}

// Refs implements Widget.
func (img *Image) Refs() []Widget { return nil }
