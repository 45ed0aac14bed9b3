// Package dcmmeta recovers a small amount of metadata from DICOM files:
// enough to default the output modality, fill Nifti headers with echo and
// repetition times, and summarize a directory by series. Pixel data is never
// decoded.
package dcmmeta

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// SeriesInfo holds the metadata we consider useful from one DICOM series.
type SeriesInfo struct {
	SeriesNumber      int     `json:"series_number"`
	SeriesDescription string  `json:"series_description"`
	Modality          string  `json:"modality"`
	ProtocolName      string  `json:"protocol_name"`
	EchoTimeMS        float64 `json:"echo_time_ms"`
	RepetitionTimeMS  float64 `json:"repetition_time_ms"`
	AcquisitionDate   string  `json:"acquisition_date"`
	Files             int     `json:"files"`
}

// ReadFile extracts SeriesInfo from a single DICOM file.
func ReadFile(path string) (SeriesInfo, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return SeriesInfo{}, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	out := SeriesInfo{
		SeriesNumber:      elementInt(ds, tag.SeriesNumber),
		SeriesDescription: elementString(ds, tag.SeriesDescription),
		Modality:          elementString(ds, tag.Modality),
		ProtocolName:      elementString(ds, tag.ProtocolName),
		EchoTimeMS:        elementFloat(ds, tag.EchoTime),
		RepetitionTimeMS:  elementFloat(ds, tag.RepetitionTime),
		AcquisitionDate:   elementString(ds, tag.AcquisitionDate),
		Files:             1,
	}

	return out, nil
}

// First returns the metadata of the first parseable DICOM file below dir.
// Files that fail to parse are skipped: scanner exports routinely mix
// DICOMDIR indexes and vendor reports in with the slices.
func First(dir string) (SeriesInfo, error) {
	var found *SeriesInfo

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || found != nil {
			return err
		}

		info, err := ReadFile(path)
		if err != nil {
			return nil
		}
		found = &info

		return filepath.SkipAll
	})
	if err != nil {
		return SeriesInfo{}, pfx.Err(err)
	}

	if found == nil {
		return SeriesInfo{}, pfx.Err(fmt.Errorf("no parseable DICOM files below %s", dir))
	}

	return *found, nil
}

// ScanDir parses every file below dir and groups the results by series
// number, returning them in series order.
func ScanDir(dir string) ([]SeriesInfo, error) {
	bySeries := make(map[int]*SeriesInfo)
	parsed := 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		info, err := ReadFile(path)
		if err != nil {
			return nil
		}
		parsed++

		if existing, ok := bySeries[info.SeriesNumber]; ok {
			existing.Files++
			return nil
		}
		bySeries[info.SeriesNumber] = &info

		return nil
	})
	if err != nil {
		return nil, pfx.Err(err)
	}

	if parsed == 0 {
		return nil, pfx.Err(fmt.Errorf("no parseable DICOM files below %s", dir))
	}

	out := make([]SeriesInfo, 0, len(bySeries))
	for _, info := range bySeries {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeriesNumber < out[j].SeriesNumber })

	return out, nil
}

// elementString returns the first string value of t, or "".
func elementString(ds dicom.Dataset, t tag.Tag) string {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}

	if vals, ok := el.Value.GetValue().([]string); ok && len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}

	return ""
}

// elementFloat parses the first value of a decimal-string element, or 0.
func elementFloat(ds dicom.Dataset, t tag.Tag) float64 {
	s := elementString(ds, t)
	if s == "" {
		return 0
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}

	return v
}

// elementInt parses the first value of an integer-string element, or 0.
func elementInt(ds dicom.Dataset, t tag.Tag) int {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return 0
	}

	switch vals := el.Value.GetValue().(type) {
	case []string:
		if len(vals) == 0 {
			return 0
		}
		v, err := strconv.Atoi(strings.TrimSpace(vals[0]))
		if err != nil {
			return 0
		}
		return v
	case []int:
		if len(vals) == 0 {
			return 0
		}
		return vals[0]
	}

	return 0
}
