// dicomsummary walks a directory of DICOM files and prints one line per
// series: number, description, modality, echo time and file count. Useful
// for deciding which acquisition number to convert.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/neurospin/dcmio/dcmmeta"
)

func main() {
	var dicomDir, format string

	flag.StringVar(&dicomDir, "dicom", "", "Path to a folder containing DICOM files.")
	flag.StringVar(&format, "format", "text", "Output format: 'text' or 'json'.")

	flag.Parse()
	if dicomDir == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	series, err := dcmmeta.ScanDir(dicomDir)
	if err != nil {
		log.Fatalln(err)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(series); err != nil {
			log.Fatalln(err)
		}
	case "text":
		w := bufio.NewWriter(os.Stdout)
		fmt.Fprintf(w, "%-8s %-32s %-8s %-10s %-10s %s\n", "series", "description", "modality", "TE (ms)", "TR (ms)", "files")
		for _, s := range series {
			fmt.Fprintf(w, "%-8d %-32s %-8s %-10g %-10g %d\n",
				s.SeriesNumber, s.SeriesDescription, s.Modality, s.EchoTimeMS, s.RepetitionTimeMS, s.Files)
		}
		w.Flush()
	default:
		log.Fatalf("unrecognized format %q (options are 'text' and 'json')", format)
	}
}
