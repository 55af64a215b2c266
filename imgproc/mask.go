package imgproc

import (
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

var ErrEmptyMask = errors.New("mask has no foreground pixels")

// ToGray 转成单通道 mask（亮度），忽略 alpha，原点移到 (0,0)
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	src := ToNRGBA(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*src.Stride + x*4
			gray.Pix[y*gray.Stride+x] = luma(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
		}
	}
	return gray
}

// BinaryMask 大于 threshold 的像素为 255，其余为 0
func BinaryMask(mask *image.Gray, threshold uint8) *image.Gray {
	out := image.NewGray(mask.Bounds())
	for i, v := range mask.Pix {
		if v > threshold {
			out.Pix[i] = 255
		}
	}
	return out
}

// FitMask 把 mask 缩放到 size 大小
func FitMask(mask *image.Gray, size image.Point) *image.Gray {
	if mask.Bounds().Size() == size {
		return mask
	}
	dst := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	draw.BiLinear.Scale(dst, dst.Bounds(), mask, mask.Bounds(), draw.Src, nil)
	return dst
}

// Erode size x size 的最小值滤波，窗口锚点在中心；size <= 0 原样返回
func Erode(mask *image.Gray, size int) *image.Gray {
	if size <= 0 {
		return mask
	}
	w, h := mask.Bounds().Dx(), mask.Bounds().Dy()
	before := size / 2
	after := size - 1 - before

	// 可分离：先横向再纵向
	tmp := image.NewGray(mask.Bounds())
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x := 0; x < w; x++ {
			m := uint8(255)
			for k := max(0, x-before); k <= min(w-1, x+after); k++ {
				if row[k] < m {
					m = row[k]
				}
			}
			tmp.Pix[y*tmp.Stride+x] = m
		}
	}

	out := image.NewGray(mask.Bounds())
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			m := uint8(255)
			for k := max(0, y-before); k <= min(h-1, y+after); k++ {
				if v := tmp.Pix[k*tmp.Stride+x]; v < m {
					m = v
				}
			}
			out.Pix[y*out.Stride+x] = m
		}
	}
	return out
}

// BlurMask 高斯模糊，核大小为 2*radius+1，sigma 按 OpenCV 的默认公式推导
func BlurMask(mask *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		return mask
	}
	blurred := imaging.Blur(mask, KernelSigma(2*radius+1))

	out := image.NewGray(image.Rect(0, 0, blurred.Bounds().Dx(), blurred.Bounds().Dy()))
	for i := 0; i < len(out.Pix); i++ {
		out.Pix[i] = blurred.Pix[i*4]
	}
	return out
}

// KernelSigma ksize -> sigma，sigma = 0.3*((ksize-1)*0.5 - 1) + 0.8
func KernelSigma(ksize int) float64 {
	return 0.3*(float64(ksize-1)*0.5-1) + 0.8
}

// MaskBBox 从 mask 计算主体 bounding box
// 把值 > threshold 的像素当作“主体”，找所有主体像素的坐标
func MaskBBox(mask *image.Gray, threshold uint8) (image.Rectangle, error) {
	w, h := mask.Bounds().Dx(), mask.Bounds().Dy()

	minX, minY := w, h
	maxX, maxY := 0, 0
	found := false

	for y := 0; y < h; y++ {
		row := y * mask.Stride
		for x := 0; x < w; x++ {
			if mask.Pix[row+x] > threshold {
				found = true
				minX = min(minX, x)
				minY = min(minY, y)
				maxX = max(maxX, x)
				maxY = max(maxY, y)
			}
		}
	}

	if !found {
		return image.Rectangle{}, ErrEmptyMask
	}

	return image.Rect(minX, minY, maxX+1, maxY+1), nil
}

// Coverage 前景像素占比
func Coverage(mask *image.Gray, threshold uint8) float64 {
	total := len(mask.Pix)
	if total == 0 {
		return 0
	}
	n := 0
	for _, v := range mask.Pix {
		if v > threshold {
			n++
		}
	}
	return math.Round(float64(n)/float64(total)*1e4) / 1e4
}
