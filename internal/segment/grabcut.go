// Package segment provides a small, deterministic foreground/background
// segmentation primitive: a rectangle-seeded iterative classifier in the
// grabCut mold, plus the morphology needed to clean its mask up.
package segment

import "image"

// Pixel classes. Definite classes come from the seed; probable classes are
// reassigned on every iteration.
const (
	Background         uint8 = 0
	Foreground         uint8 = 1
	ProbablyBackground uint8 = 2
	ProbablyForeground uint8 = 3
)

// GrabCut classifies every pixel of img. Pixels inside rect are seeded as
// probable foreground, everything outside as definite background. Each
// iteration recomputes the mean color of both populations and reassigns the
// probable pixels to whichever model they sit closer to. The result is one
// class per pixel in row-major order.
func GrabCut(img image.Image, rect image.Rectangle, iterations int) []uint8 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	classes := make([]uint8, w*h)
	colors := sampleColors(img)

	rect = rect.Intersect(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (image.Point{x, y}).In(rect) {
				classes[y*w+x] = ProbablyForeground
			}
		}
	}

	for i := 0; i < iterations; i++ {
		bgMean, bgN := meanColor(colors, classes, Background, ProbablyBackground)
		fgMean, fgN := meanColor(colors, classes, Foreground, ProbablyForeground)
		if bgN == 0 || fgN == 0 {
			break
		}

		changed := false
		for p, class := range classes {
			if class == Background || class == Foreground {
				continue
			}
			next := ProbablyBackground
			if dist2(colors[p], fgMean) < dist2(colors[p], bgMean) {
				next = ProbablyForeground
			}
			if next != class {
				classes[p] = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return classes
}

// IsForeground reports whether a class belongs to the foreground mask.
func IsForeground(class uint8) bool {
	return class == Foreground || class == ProbablyForeground
}

// BinaryMask reduces classes to a {0,1} mask.
func BinaryMask(classes []uint8) []uint8 {
	mask := make([]uint8, len(classes))
	for i, class := range classes {
		if IsForeground(class) {
			mask[i] = 1
		}
	}
	return mask
}

// Dilate grows a {0,1} mask with a 3x3 structuring element for the given
// number of iterations, clamped back to {0,1}.
func Dilate(mask []uint8, w, h, iterations int) []uint8 {
	current := mask
	for i := 0; i < iterations; i++ {
		next := make([]uint8, len(current))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if neighborhoodSet(current, w, h, x, y) {
					next[y*w+x] = 1
				}
			}
		}
		current = next
	}
	return current
}

func neighborhoodSet(mask []uint8, w, h, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			if mask[ny*w+nx] != 0 {
				return true
			}
		}
	}
	return false
}

type rgb struct {
	r, g, b float64
}

func sampleColors(img image.Image) []rgb {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	colors := make([]rgb, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			colors[y*w+x] = rgb{float64(r >> 8), float64(g >> 8), float64(b >> 8)}
		}
	}
	return colors
}

func meanColor(colors []rgb, classes []uint8, a, b uint8) (rgb, int) {
	var sum rgb
	n := 0
	for p, class := range classes {
		if class != a && class != b {
			continue
		}
		sum.r += colors[p].r
		sum.g += colors[p].g
		sum.b += colors[p].b
		n++
	}
	if n == 0 {
		return rgb{}, 0
	}
	return rgb{sum.r / float64(n), sum.g / float64(n), sum.b / float64(n)}, n
}

func dist2(a, b rgb) float64 {
	dr, dg, db := a.r-b.r, a.g-b.g, a.b-b.b
	return dr*dr + dg*dg + db*db
}
