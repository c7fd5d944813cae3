// Package ggrenderer encodes captured frames for the frame store and
// composes letterboxed video frames on gg canvases.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/timelapse/pkg/ports"
)

// Renderer is the frame codec and compositor shared by capture and assembly.
type Renderer struct{}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{}
}

// CreateCanvas returns a letterbox canvas filled with bg.
func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()
	return &Canvas{dc: dc}
}

// DecodeImage reads a stored frame. FormatAuto also accepts the PNG frames
// of older recorders.
func (r *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	src := bytes.NewReader(data)
	switch format {
	case ports.FormatJPEG:
		return jpeg.Decode(src)
	case ports.FormatPNG:
		return png.Decode(src)
	}
	frame, _, err := image.Decode(src)
	return frame, err
}

// DecodeConfig returns a stored frame's size without decoding its pixels.
func (r *Renderer) DecodeConfig(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// EncodeImage serializes a frame for the frame store.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: frameQuality(quality)}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode frame as JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode frame as PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported frame format: %d", format)
	}
	return buf.Bytes(), nil
}

// frameQuality maps the session quality onto the JPEG range.
func frameQuality(q int) int {
	return max(1, min(q, 100))
}

// ResizeImage scales a frame to its placement inside the video canvas.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas is one video frame being composed.
type Canvas struct {
	dc *gg.Context
}

// DrawImage places a scaled frame at its letterbox offset.
func (c *Canvas) DrawImage(img image.Image, x, y int) {
	c.dc.DrawImage(img, x, y)
}

// ToImage returns the composed video frame.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

var _ ports.Canvas = (*Canvas)(nil)
