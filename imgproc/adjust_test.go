package imgproc

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjust_Identity(t *testing.T) {
	img := gradient(8, 8)
	out := Adjust(img, 1, 1, 1)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestAdjust_Brightness(t *testing.T) {
	img := gradient(4, 4)

	dark := Adjust(img, 0, 1, 1)
	c := dark.NRGBAAt(3, 3)
	assert.Equal(t, color.NRGBA{A: 255}, c)

	bright := Adjust(img, 2, 1, 1)
	assert.Equal(t, uint8(60), bright.NRGBAAt(3, 0).R)
	assert.Equal(t, uint8(255), bright.NRGBAAt(0, 0).B)
}

func TestAdjust_ContrastZeroGivesMeanGray(t *testing.T) {
	img := gradient(4, 4)
	out := Adjust(img, 1, 0, 1)

	first := out.NRGBAAt(0, 0)
	assert.Equal(t, first.R, first.G)
	assert.Equal(t, first.R, first.B)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, first, out.NRGBAAt(x, y))
		}
	}
}

func TestAdjust_SaturationZeroGivesGrayscale(t *testing.T) {
	img := gradient(4, 4)
	out := Adjust(img, 1, 1, 0)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := out.NRGBAAt(x, y)
			assert.Equal(t, c.R, c.G)
			assert.Equal(t, c.G, c.B)
			assert.Equal(t, luminance(img.NRGBAAt(x, y)), c.R)
		}
	}
}

func TestAdjust_BlendTruncates(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 201, G: 3, B: 255, A: 255})

	out := Adjust(img, 0.5, 1, 1)
	assert.Equal(t, color.NRGBA{R: 100, G: 1, B: 127, A: 255}, out.NRGBAAt(0, 0))

	out = Adjust(img, 1.5, 1, 1)
	assert.Equal(t, color.NRGBA{R: 255, G: 4, B: 255, A: 255}, out.NRGBAAt(0, 0))
}
