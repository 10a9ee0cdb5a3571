package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	ico "github.com/sergeymakinen/go-ico"
	xdraw "golang.org/x/image/draw"
)

const (
	iconMasterSize = 256
	appIconSize    = 128
	trayIconSize   = 18
	trayICOSize    = 32
)

var (
	appIconPNG  = mustEncodePNG(scaleIcon(renderIcon(color.RGBA{R: 34, G: 139, B: 230, A: 255}), appIconSize))
	trayIconPNG = mustEncodePNG(scaleIcon(renderIcon(color.RGBA{A: 255}), trayIconSize))
	trayIconICO = mustEncodeICO(scaleIcon(renderIcon(color.RGBA{R: 34, G: 139, B: 230, A: 255}), trayICOSize))
)

// renderIcon draws the master icon: a page with a folded corner and three
// text lines, filled with fg on a transparent background.
func renderIcon(fg color.RGBA) *image.RGBA {
	const (
		size   = iconMasterSize
		left   = 48
		right  = 208
		top    = 24
		bottom = 232
		fold   = 56
		stroke = 14
	)
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	inPage := func(x, y int) bool {
		if x < left || x >= right || y < top || y >= bottom {
			return false
		}
		inCorner := x >= right-fold && y < top+fold
		return !inCorner || x-(right-fold) <= y-top
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if !inPage(x, y) {
				continue
			}
			inCorner := x >= right-fold && y < top+fold
			border := x < left+stroke || x >= right-stroke || y < top+stroke || y >= bottom-stroke
			diagonal := inCorner && (y-top)-(x-(right-fold)) < stroke
			foldEdge := (inCorner && x < right-fold+stroke) || (inCorner && y >= top+fold-stroke)
			line := x >= left+40 && x < right-40 &&
				((y >= 100 && y < 116) || (y >= 136 && y < 152) || (y >= 172 && y < 188 && x < right-80))
			if border || diagonal || foldEdge || line {
				img.SetRGBA(x, y, fg)
			}
		}
	}
	return img
}

// scaleIcon resamples src to a size×size image.
func scaleIcon(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

func mustEncodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("encode icon png: " + err.Error())
	}
	return buf.Bytes()
}

func mustEncodeICO(img image.Image) []byte {
	var buf bytes.Buffer
	if err := ico.Encode(&buf, img); err != nil {
		panic("encode icon ico: " + err.Error())
	}
	return buf.Bytes()
}
