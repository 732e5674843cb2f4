package render

import (
	"image"

	"github.com/gogpu/gg"
)

// coverageOf extracts the alpha channel of a rasterized scratch image
// as one byte per pixel.
func coverageOf(img image.Image, w, h int) []uint8 {
	cov := make([]uint8, w*h)
	if rgba, ok := img.(*image.RGBA); ok {
		for i := range cov {
			cov[i] = rgba.Pix[i*4+3]
		}
		return cov
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			cov[y*w+x] = uint8(a >> 8)
		}
	}
	return cov
}

// compositeOver paints col onto dst wherever cov has coverage,
// attenuated by alpha (Porter-Duff source-over, premultiplied).
func compositeOver(dst *image.RGBA, cov []uint8, col gg.RGBA, alpha float64) {
	sr, sg, sb := col.R*255, col.G*255, col.B*255
	for i, c := range cov {
		if c == 0 {
			continue
		}
		a := float64(c) / 255 * alpha * col.A
		if a <= 0 {
			continue
		}
		inv := 1 - a
		p := i * 4
		dst.Pix[p+0] = clampByte(sr*a + float64(dst.Pix[p+0])*inv)
		dst.Pix[p+1] = clampByte(sg*a + float64(dst.Pix[p+1])*inv)
		dst.Pix[p+2] = clampByte(sb*a + float64(dst.Pix[p+2])*inv)
		dst.Pix[p+3] = clampByte(255*a + float64(dst.Pix[p+3])*inv)
	}
}

// compositeOut clears dst wherever cov has coverage (Porter-Duff
// destination-out). This is the eraser: destination pixels are removed
// rather than painted.
func compositeOut(dst *image.RGBA, cov []uint8, alpha float64) {
	for i, c := range cov {
		if c == 0 {
			continue
		}
		keep := 1 - float64(c)/255*alpha
		if keep < 0 {
			keep = 0
		}
		p := i * 4
		dst.Pix[p+0] = clampByte(float64(dst.Pix[p+0]) * keep)
		dst.Pix[p+1] = clampByte(float64(dst.Pix[p+1]) * keep)
		dst.Pix[p+2] = clampByte(float64(dst.Pix[p+2]) * keep)
		dst.Pix[p+3] = clampByte(float64(dst.Pix[p+3]) * keep)
	}
}

// blurCoverage approximates a Gaussian blur of the coverage plane with
// three separable box passes. gg keeps its blur filter internal, so the
// shadow pass carries its own.
func blurCoverage(cov []uint8, w, h int, radius float64) []uint8 {
	r := int(radius/2 + 0.5)
	if r < 1 {
		r = 1
	}
	src := make([]uint8, len(cov))
	copy(src, cov)
	tmp := make([]uint8, len(cov))
	for pass := 0; pass < 3; pass++ {
		boxBlurH(src, tmp, w, h, r)
		boxBlurV(tmp, src, w, h, r)
	}
	return src
}

func boxBlurH(src, dst []uint8, w, h, r int) {
	norm := 2*r + 1
	for y := 0; y < h; y++ {
		row := y * w
		sum := 0
		for x := -r; x <= r; x++ {
			sum += int(sample(src, row, x, w))
		}
		for x := 0; x < w; x++ {
			dst[row+x] = uint8(sum / norm)
			sum += int(sample(src, row, x+r+1, w)) - int(sample(src, row, x-r, w))
		}
	}
}

func boxBlurV(src, dst []uint8, w, h, r int) {
	norm := 2*r + 1
	for x := 0; x < w; x++ {
		sum := 0
		for y := -r; y <= r; y++ {
			sum += int(sampleCol(src, x, y, w, h))
		}
		for y := 0; y < h; y++ {
			dst[y*w+x] = uint8(sum / norm)
			sum += int(sampleCol(src, x, y+r+1, w, h)) - int(sampleCol(src, x, y-r, w, h))
		}
	}
}

func sample(row []uint8, base, x, w int) uint8 {
	if x < 0 || x >= w {
		return 0
	}
	return row[base+x]
}

func sampleCol(src []uint8, x, y, w, h int) uint8 {
	if y < 0 || y >= h {
		return 0
	}
	return src[y*w+x]
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
