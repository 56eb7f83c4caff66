package pipeline

import (
	"image"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
)

// EnhanceConfig controls bounded upscaling.
type EnhanceConfig struct {
	// UpscaleFactor of 1.0 or less disables enhancement.
	UpscaleFactor float64
	// MaxSize caps each axis independently, so the aspect ratio may change
	// when only one axis hits the cap.
	MaxSize int
}

// DefaultEnhanceConfig mirrors the pipeline defaults.
func DefaultEnhanceConfig() EnhanceConfig {
	return EnhanceConfig{UpscaleFactor: 2.0, MaxSize: 2048}
}

// Enhancer upscales images with a Lanczos filter. Enhancement is only ever
// additive: a factor at or below 1.0 returns the input unchanged.
type Enhancer struct {
	config EnhanceConfig
}

// NewEnhancer creates an enhancer.
func NewEnhancer(config EnhanceConfig) *Enhancer {
	return &Enhancer{config: config}
}

// Enhance resamples the image to min(round(dim*factor), maxSize) per axis.
func (e *Enhancer) Enhance(img image.Image) image.Image {
	if e.config.UpscaleFactor <= 1.0 {
		return img
	}

	bounds := img.Bounds()
	width := scaled(bounds.Dx(), e.config.UpscaleFactor, e.config.MaxSize)
	height := scaled(bounds.Dy(), e.config.UpscaleFactor, e.config.MaxSize)
	slog.Debug("Upscaling image", "factor", e.config.UpscaleFactor, "width", width, "height", height)
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

func scaled(dim int, factor float64, maxSize int) int {
	target := int(math.Round(float64(dim) * factor))
	if maxSize > 0 && target > maxSize {
		return maxSize
	}
	return target
}
