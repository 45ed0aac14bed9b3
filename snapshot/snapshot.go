// Package snapshot renders an axial mosaic PNG from a Nifti volume so a
// conversion can be eyeballed without opening a viewer.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/disintegration/imaging"
	"github.com/henghuang/nifti"
)

// MaxTiles caps the mosaic size when no explicit skip is requested.
const MaxTiles = 36

// Options controls the mosaic rendering.
type Options struct {
	// Cols is the number of mosaic columns (default 6).
	Cols int

	// Skip takes every Nth axial slice. Zero means pick a skip that keeps
	// the mosaic at or below MaxTiles slices.
	Skip int

	// Label draws the volume name and per-tile slice indices.
	Label bool

	// TileSize is the square bounding box each slice is fit into
	// (default 128).
	TileSize int
}

func (o Options) withDefaults() Options {
	if o.Cols <= 0 {
		o.Cols = 6
	}
	if o.TileSize <= 0 {
		o.TileSize = 128
	}

	return o
}

// OutputName is the conventional snapshot name for a volume: its stem plus
// "_snapshot.png", in dir.
func OutputName(dir, volumePath string) string {
	stem := filepath.Base(volumePath)
	stem = strings.TrimSuffix(stem, ".nii.gz")
	stem = strings.TrimSuffix(stem, ".nii")

	return filepath.Join(dir, stem+"_snapshot.png")
}

// Render reads the Nifti volume at path and writes an axial mosaic PNG to
// outPNG.
func Render(path, outPNG string, opt Options) error {
	opt = opt.withDefaults()

	if _, err := os.Stat(path); err != nil {
		return pfx.Err(err)
	}

	var vol nifti.Nifti1Image
	vol.LoadImage(path, true)

	dims := vol.GetDims()
	xm, ym, zm := dims[0], dims[1], dims[2]
	if xm == 0 || ym == 0 || zm == 0 {
		return pfx.Err(fmt.Errorf("%s has a zero-sized dimension (%dx%dx%d)", path, xm, ym, zm))
	}

	skip := opt.Skip
	if skip <= 0 {
		skip = DefaultSkip(zm, MaxTiles)
	}

	indices := SliceIndices(zm, skip)
	tiles := make([]image.Image, 0, len(indices))
	for _, z := range indices {
		tile := renderSlice(&vol, xm, ym, z)
		tiles = append(tiles, imaging.Fit(tile, opt.TileSize, opt.TileSize, imaging.Lanczos))
	}

	mosaic := Mosaic(tiles, opt.Cols)
	if opt.Label {
		mosaic = drawLabels(mosaic, filepath.Base(path), indices, opt.Cols, opt.TileSize)
	}

	f, err := os.Create(outPNG)
	if err != nil {
		return pfx.Err(err)
	}

	if err := png.Encode(f, mosaic); err != nil {
		f.Close()
		return pfx.Err(err)
	}

	if err := f.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// renderSlice draws one axial slice at time 0, scaling intensities to the
// slice's own maximum.
func renderSlice(vol *nifti.Nifti1Image, xm, ym, z int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, xm, ym))

	// First pass finds the maximum, second pass scales
	maxIntensity := 0.0
	for i := 0; i < 2; i++ {
		for x := 0; x < xm; x++ {
			for y := 0; y < ym; y++ {
				intensity := float64(vol.GetAt(x, y, z, 0))
				if i == 0 {
					if intensity > maxIntensity {
						maxIntensity = intensity
					}

					continue
				}

				gray := color.Gray16{Y: WindowScale(intensity, maxIntensity)}
				img.Set(x, y, color.RGBA64Model.Convert(gray))
			}
		}
	}

	return img
}

// WindowScale maps an intensity into the full uint16 display range, clamping
// negatives to zero.
func WindowScale(intensity, maxIntensity float64) uint16 {
	if intensity < 0 {
		intensity = 0
	}
	if maxIntensity <= 0 {
		return 0
	}

	return uint16(float64(math.MaxUint16) * intensity / maxIntensity)
}

// DefaultSkip picks the smallest skip that keeps n slices at or below
// maxTiles.
func DefaultSkip(n, maxTiles int) int {
	if n <= maxTiles {
		return 1
	}

	return int(math.Ceil(float64(n) / float64(maxTiles)))
}

// SliceIndices returns every skip-th slice index in [0, n).
func SliceIndices(n, skip int) []int {
	if skip < 1 {
		skip = 1
	}

	out := make([]int, 0, n/skip+1)
	for z := 0; z < n; z += skip {
		out = append(out, z)
	}

	return out
}
