package imgproc

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Adjust 调整亮度、对比度、饱和度，factor 为 1.0 时不处理
//
//	brightness: 与纯黑混合
//	contrast:   与整图平均亮度的灰色混合
//	saturation: 与逐像素的灰度混合
func Adjust(img image.Image, brightness, contrast, saturation float64) *image.NRGBA {
	out := ToNRGBA(img)

	if brightness != 1.0 {
		out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
			return color.NRGBA{
				R: blend(0, c.R, brightness),
				G: blend(0, c.G, brightness),
				B: blend(0, c.B, brightness),
				A: c.A,
			}
		})
	}

	if contrast != 1.0 {
		mean := float64(meanLuminance(out))
		out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
			return color.NRGBA{
				R: blend(mean, c.R, contrast),
				G: blend(mean, c.G, contrast),
				B: blend(mean, c.B, contrast),
				A: c.A,
			}
		})
	}

	if saturation != 1.0 {
		out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
			l := float64(luminance(c))
			return color.NRGBA{
				R: blend(l, c.R, saturation),
				G: blend(l, c.G, saturation),
				B: blend(l, c.B, saturation),
				A: c.A,
			}
		})
	}

	return out
}

// blend degenerate + factor*(v-degenerate)，结果截断取整；factor > 1 时是外推
func blend(degenerate float64, v uint8, factor float64) uint8 {
	return clamp8(degenerate + factor*(float64(v)-degenerate))
}

func luminance(c color.NRGBA) uint8 {
	return luma(c.R, c.G, c.B)
}

func meanLuminance(img *image.NRGBA) uint8 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			sum += uint64(luminance(color.NRGBA{R: row[i], G: row[i+1], B: row[i+2]}))
		}
	}
	return uint8(float64(sum)/float64(w*h) + 0.5)
}
