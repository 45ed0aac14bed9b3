// niftisnapshot renders an axial mosaic PNG from a .nii or .nii.gz volume.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/neurospin/dcmio/snapshot"
)

func main() {
	var filename, output string
	var cols, skip int
	var label bool

	flag.StringVar(&filename, "file", "", "Name of the .nii or .nii.gz file to snapshot.")
	flag.StringVar(&output, "out", "", "Output PNG path, or a directory (the PNG is then named {volume}_snapshot.png).")
	flag.IntVar(&cols, "cols", 6, "Number of mosaic columns.")
	flag.IntVar(&skip, "skip", 0, "Take every Nth axial slice. 0 picks a skip that keeps the mosaic at 36 slices or fewer.")
	flag.BoolVar(&label, "label", true, "Draw the volume name and slice indices on the mosaic.")

	flag.Parse()
	if filename == "" || output == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if stat, err := os.Stat(output); err == nil && stat.IsDir() {
		output = snapshot.OutputName(output, filename)
	}

	opt := snapshot.Options{Cols: cols, Skip: skip, Label: label}
	if err := snapshot.Render(filename, output, opt); err != nil {
		log.Fatalln(err)
	}

	log.Println("Wrote", output)
}
