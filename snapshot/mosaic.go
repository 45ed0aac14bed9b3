package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/inconsolata"
)

// Mosaic composites tiles into a grid with cols columns on a black
// background. Tiles may have ragged sizes; each cell is sized to the largest
// tile.
func Mosaic(tiles []image.Image, cols int) image.Image {
	if cols < 1 {
		cols = 1
	}

	rows := len(tiles) / cols
	if len(tiles)%cols != 0 {
		rows++
	}

	maxWidth, maxHeight := 1, 1
	for _, tile := range tiles {
		if x := tile.Bounds().Dx(); x > maxWidth {
			maxWidth = x
		}
		if y := tile.Bounds().Dy(); y > maxHeight {
			maxHeight = y
		}
	}
	if rows < 1 {
		rows = 1
	}

	out := image.NewRGBA(image.Rect(0, 0, cols*maxWidth, rows*maxHeight))
	draw.Draw(out, out.Bounds(), &image.Uniform{color.Black}, image.Point{}, draw.Src)

	for i, tile := range tiles {
		startX := (i % cols) * maxWidth
		startY := (i / cols) * maxHeight

		cell := image.Rect(startX, startY, startX+tile.Bounds().Dx(), startY+tile.Bounds().Dy())
		draw.Draw(out, cell, tile, tile.Bounds().Min, draw.Src)
	}

	return out
}

// drawLabels writes the slice index in each tile's corner and the volume
// name along the bottom edge, using the bundled bitmap face so no font file
// needs to exist on the host.
func drawLabels(mosaic image.Image, name string, indices []int, cols, tileSize int) image.Image {
	ctx := gg.NewContextForImage(mosaic)
	ctx.SetFontFace(inconsolata.Regular8x16)
	ctx.SetRGB(1, 1, 1)

	for i, z := range indices {
		x := float64((i%cols)*tileSize + 2)
		y := float64((i/cols)*tileSize + 14)
		ctx.DrawString(fmt.Sprintf("z=%d", z), x, y)
	}

	ctx.SetRGB(1, 1, 0)
	ctx.DrawString(name, 2, float64(ctx.Height())-4)

	return ctx.Image()
}
