package imgproc

import (
	"image"
	"image/color"
)

// Composite 用 mask 把前景合成到纯色背景上：out = img*m + bg*(1-m)，m = mask/255。
// 合成前 mask 会先被腐蚀 erode 像素、再以 blur 为半径做高斯模糊。
func Composite(img image.Image, mask *image.Gray, bg color.NRGBA, erode, blur int) *image.NRGBA {
	src := ToNRGBA(img)
	m := prepareMask(mask, src.Bounds().Size(), erode, blur)

	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	out := image.NewNRGBA(src.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := float64(m.Pix[y*m.Stride+x]) / 255.0
			si := y*src.Stride + x*4
			di := y*out.Stride + x*4
			out.Pix[di] = uint8(float64(src.Pix[si])*a + float64(bg.R)*(1-a))
			out.Pix[di+1] = uint8(float64(src.Pix[si+1])*a + float64(bg.G)*(1-a))
			out.Pix[di+2] = uint8(float64(src.Pix[si+2])*a + float64(bg.B)*(1-a))
			out.Pix[di+3] = 255
		}
	}
	return out
}

// CompositeTransparent 不铺背景，把处理后的 mask 直接写进 alpha 通道
func CompositeTransparent(img image.Image, mask *image.Gray, erode, blur int) *image.NRGBA {
	src := ToNRGBA(img)
	m := prepareMask(mask, src.Bounds().Size(), erode, blur)

	out := image.NewNRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*out.Stride+x*4+3] = m.Pix[y*m.Stride+x]
		}
	}
	return out
}

func prepareMask(mask *image.Gray, size image.Point, erode, blur int) *image.Gray {
	m := FitMask(ToGray(mask), size)
	m = Erode(m, erode)
	return BlurMask(m, blur)
}
