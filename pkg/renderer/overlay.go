package renderer

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DrawStatsOverlay draws a small HUD with frame statistics onto the top
// left corner of a rendered frame. Each line is drawn with a one-pixel
// shadow so it stays readable over bright pixels.
func DrawStatsOverlay(img *image.RGBA, stats FrameStats) {
	lines := []string{
		fmt.Sprintf("frame %d", stats.FrameIndex),
		fmt.Sprintf("%d spp, %v", stats.SamplesPerPixel, stats.Elapsed.Round(1e6)),
	}
	DrawOverlay(img, lines)
}

// DrawOverlay draws text lines onto the image using the built-in 7x13
// bitmap face.
func DrawOverlay(img *image.RGBA, lines []string) {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + 2

	for i, line := range lines {
		x, y := 6, 6+(i+1)*lineHeight
		drawText(img, face, line, x+1, y+1, color.RGBA{A: 255})
		drawText(img, face, line, x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
}

func drawText(img *image.RGBA, face font.Face, text string, x, y int, c color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
