package captcha

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Variant is one named preprocessing pipeline applied to a challenge image
// before recognition.
type Variant struct {
	Name  string
	Apply func(image.Image) image.Image
}

// Variants returns the preprocessing pipelines in evaluation order. Each
// targets a different failure mode of the portal's challenge renderer:
// fixed binarization for clean images, adaptive thresholding for uneven
// backgrounds, contrast/edge enhancement without binarization, and noise
// removal for speckled images.
func Variants() []Variant {
	return []Variant{
		{Name: "basic", Apply: preprocessBasic},
		{Name: "adaptive", Apply: preprocessAdaptive},
		{Name: "enhanced", Apply: preprocessEnhanced},
		{Name: "denoise", Apply: preprocessDenoise},
	}
}

// preprocessBasic applies a fixed global threshold, a morphological opening
// to drop speckles, then a dilation to reconnect broken strokes.
func preprocessBasic(img image.Image) image.Image {
	g := toGray(img)
	bin := threshold(g, 150)
	opened := dilateGray(erodeGray(bin, 2), 2)
	return invertGray(dilateGray(opened, 2))
}

// preprocessAdaptive blurs, applies a local mean threshold, then the same
// morphological cleanup as the basic pipeline.
func preprocessAdaptive(img image.Image) image.Image {
	g := toGray(imaging.Blur(imaging.Grayscale(img), 1.2))
	bin := adaptiveThreshold(g, 11, 2)
	opened := dilateGray(erodeGray(bin, 1), 1)
	return invertGray(dilateGray(opened, 2))
}

// preprocessEnhanced boosts contrast, sharpness and edges without
// binarizing, for images where thresholding eats thin strokes.
func preprocessEnhanced(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 60)
	out = imaging.Sharpen(out, 2.0)
	// Edge-enhance kernel.
	return imaging.Convolve3x3(out, [9]float64{
		0, -1, 0,
		-1, 5, -1,
		0, -1, 0,
	}, nil)
}

// preprocessDenoise removes salt-and-pepper noise with a median filter
// before binarizing and reconnecting strokes.
func preprocessDenoise(img image.Image) image.Image {
	g := median3(toGray(img))
	bin := threshold(g, 127)
	return invertGray(dilateGray(bin, 2))
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return g
}

// threshold binarizes to ink=255 / background=0 (inverted, so the
// morphological operators treat glyph strokes as the foreground).
func threshold(g *image.Gray, level uint8) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if g.GrayAt(x, y).Y < level {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// adaptiveThreshold binarizes against the local mean of a block×block
// neighborhood minus a constant c. Output is inverted like threshold.
func adaptiveThreshold(g *image.Gray, block, c int) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	half := block / 2
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var sum, n int
			for dy := -half; dy <= half; dy++ {
				for dx := -half; dx <= half; dx++ {
					px, py := x+dx, y+dy
					if px < b.Min.X || px >= b.Max.X || py < b.Min.Y || py >= b.Max.Y {
						continue
					}
					sum += int(g.GrayAt(px, py).Y)
					n++
				}
			}
			mean := sum / n
			if int(g.GrayAt(x, y).Y) < mean-c {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// dilateGray grows foreground (255) regions with a k×k box kernel.
func dilateGray(g *image.Gray, k int) *image.Gray {
	return morph(g, k, func(cur, px uint8) uint8 {
		if px > cur {
			return px
		}
		return cur
	}, 0)
}

// erodeGray shrinks foreground regions with a k×k box kernel.
func erodeGray(g *image.Gray, k int) *image.Gray {
	return morph(g, k, func(cur, px uint8) uint8 {
		if px < cur {
			return px
		}
		return cur
	}, 255)
}

func morph(g *image.Gray, k int, combine func(cur, px uint8) uint8, seed uint8) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			acc := seed
			for dy := 0; dy < k; dy++ {
				for dx := 0; dx < k; dx++ {
					px, py := x+dx, y+dy
					if px >= b.Max.X || py >= b.Max.Y {
						continue
					}
					acc = combine(acc, g.GrayAt(px, py).Y)
				}
			}
			out.SetGray(x, y, color.Gray{Y: acc})
		}
	}
	return out
}

// median3 applies a 3×3 median filter.
func median3(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	var window [9]uint8
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					px, py := x+dx, y+dy
					if px < b.Min.X || px >= b.Max.X || py < b.Min.Y || py >= b.Max.Y {
						continue
					}
					window[n] = g.GrayAt(px, py).Y
					n++
				}
			}
			out.SetGray(x, y, color.Gray{Y: medianOf(window[:n])})
		}
	}
	return out
}

func medianOf(vals []uint8) uint8 {
	// Insertion sort; the window never exceeds 9 entries.
	for i := 1; i < len(vals); i++ {
		for j := i; j > 0 && vals[j-1] > vals[j]; j-- {
			vals[j-1], vals[j] = vals[j], vals[j-1]
		}
	}
	return vals[len(vals)/2]
}

// invertGray flips foreground back to dark-on-light for recognition.
func invertGray(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetGray(x, y, color.Gray{Y: 255 - g.GrayAt(x, y).Y})
		}
	}
	return out
}
