package pipeline

import (
	"image"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/wanglei-dev/goodscut/internal/segment"
)

// Segmenter classifies pixels into segment classes given a foreground seed
// rectangle. The default is the built-in iterative classifier; anything
// honoring the same class convention can be swapped in.
type Segmenter interface {
	Segment(img image.Image, rect image.Rectangle, iterations int) []uint8
}

type grabCutSegmenter struct{}

func (grabCutSegmenter) Segment(img image.Image, rect image.Rectangle, iterations int) []uint8 {
	return segment.GrabCut(img, rect, iterations)
}

// BackgroundConfig controls the segmentation policy.
type BackgroundConfig struct {
	// Iterations is the classifier iteration count.
	Iterations int
	// DilationIterations grows the foreground mask to keep soft object
	// edges; zero disables dilation.
	DilationIterations int
}

// DefaultBackgroundConfig mirrors the pipeline defaults.
func DefaultBackgroundConfig() BackgroundConfig {
	return BackgroundConfig{Iterations: 5, DilationIterations: 1}
}

// BackgroundRemover produces an alpha-masked cutout of the image foreground.
// Remove is a pure function of the input image and configuration.
type BackgroundRemover struct {
	config    BackgroundConfig
	segmenter Segmenter
}

// NewBackgroundRemover creates a remover with the built-in segmenter.
func NewBackgroundRemover(config BackgroundConfig) *BackgroundRemover {
	return &BackgroundRemover{config: config, segmenter: grabCutSegmenter{}}
}

// Remove segments the image with a seed rectangle inset one pixel from each
// edge and returns an RGBA image whose color channels are zeroed outside the
// foreground and whose alpha channel is the binary mask scaled to 255.
func (r *BackgroundRemover) Remove(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	slog.Debug("Running background removal", "width", w, "height", h, "iterations", r.config.Iterations)

	classes := r.segmenter.Segment(src, seedRect(w, h), r.config.Iterations)
	mask := segment.BinaryMask(classes)
	if r.config.DilationIterations > 0 {
		mask = segment.Dilate(mask, w, h, r.config.DilationIterations)
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := mask[y*w+x]
			si := src.PixOffset(x, y)
			oi := out.PixOffset(x, y)
			out.Pix[oi+0] = src.Pix[si+0] * m
			out.Pix[oi+1] = src.Pix[si+1] * m
			out.Pix[oi+2] = src.Pix[si+2] * m
			out.Pix[oi+3] = m * 255
		}
	}
	return out
}

// seedRect is inset one pixel per edge, degenerating to 1x1 for images
// smaller than 3px in either dimension.
func seedRect(w, h int) image.Rectangle {
	x0 := min(1, w-1)
	y0 := min(1, h-1)
	x1 := max(w-1, x0+1)
	y1 := max(h-1, y0+1)
	return image.Rect(x0, y0, min(x1, w), min(y1, h))
}
