package snapshot

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestWindowScale(t *testing.T) {
	for _, v := range []struct {
		intensity, max float64
		want           uint16
	}{
		{0, 100, 0},
		{-5, 100, 0},
		{100, 100, math.MaxUint16},
		{50, 100, math.MaxUint16 / 2},
		{10, 0, 0},
	} {
		if got := WindowScale(v.intensity, v.max); got != v.want {
			t.Fatalf("WindowScale(%g, %g): want %d, got %d", v.intensity, v.max, v.want, got)
		}
	}
}

func TestDefaultSkip(t *testing.T) {
	for _, v := range []struct {
		n, max, want int
	}{
		{10, 36, 1},
		{36, 36, 1},
		{37, 36, 2},
		{72, 36, 2},
		{73, 36, 3},
		{200, 36, 6},
	} {
		if got := DefaultSkip(v.n, v.max); got != v.want {
			t.Fatalf("DefaultSkip(%d, %d): want %d, got %d", v.n, v.max, v.want, got)
		}
	}
}

func TestSliceIndices(t *testing.T) {
	got := SliceIndices(7, 3)
	want := []int{0, 3, 6}
	if len(got) != len(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v, got %v", want, got)
		}
	}

	if got := SliceIndices(5, 0); len(got) != 5 {
		t.Fatalf("skip 0 should behave as 1, got %v", got)
	}
}

func TestMosaicGeometry(t *testing.T) {
	tile := func(w, h int, c color.Color) image.Image {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for x := 0; x < w; x++ {
			for y := 0; y < h; y++ {
				img.Set(x, y, c)
			}
		}
		return img
	}

	white := color.RGBA{255, 255, 255, 255}
	tiles := []image.Image{
		tile(4, 4, white), tile(4, 4, white), tile(4, 4, white),
		tile(4, 4, white), tile(2, 2, white),
	}

	out := Mosaic(tiles, 3)

	// 5 tiles in 3 columns means a 2x3 grid of 4x4 cells
	if got := out.Bounds(); got.Dx() != 12 || got.Dy() != 8 {
		t.Fatalf("mosaic bounds wrong: %v", got)
	}

	// Second-row, second-column cell holds the small tile with a black border
	if r, g, b, _ := out.At(4, 4).RGBA(); r == 0 || g == 0 || b == 0 {
		t.Fatal("small tile pixel should be white")
	}
	if r, g, b, _ := out.At(7, 7).RGBA(); r != 0 || g != 0 || b != 0 {
		t.Fatal("cell padding should stay black")
	}

	// The last cell of the grid was never filled
	if r, g, b, _ := out.At(9, 5).RGBA(); r != 0 || g != 0 || b != 0 {
		t.Fatal("empty cell should stay black")
	}
}
