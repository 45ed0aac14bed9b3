// Package dcmconv wraps the dcm2nii and dcm2niix DICOM-to-Nifti converters.
// The converters themselves are external binaries; this package only builds
// their command lines, runs them into a scratch directory, and collects what
// they produced.
package dcmconv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/carbocation/pfx"

	"github.com/neurospin/dcmio/runner"
)

// Tool selects which converter binary to run.
type Tool string

const (
	Dcm2niix Tool = "dcm2niix"
	Dcm2nii  Tool = "dcm2nii"
)

// ParseTool validates a -tool flag value.
func ParseTool(s string) (Tool, error) {
	switch Tool(s) {
	case Dcm2niix, Dcm2nii:
		return Tool(s), nil
	}

	return "", pfx.Err(fmt.Errorf("unrecognized conversion tool %q (options are %q and %q)", s, Dcm2niix, Dcm2nii))
}

// Converter runs one of the wrapped converter binaries.
type Converter struct {
	Tool Tool

	// Path overrides the PATH lookup of the tool binary when set.
	Path string
}

// Args builds the converter command line that reads dicomDir and writes into
// scratch. Both tools are asked for gzipped output; dcm2niix additionally
// emits BIDS JSON sidecars.
func (c Converter) Args(dicomDir, scratch string) []string {
	switch c.Tool {
	case Dcm2nii:
		// mricron-era flags: anonymize, gzip, date/protocol naming off so
		// the rename pass sees stable names
		return []string{"-a", "y", "-g", "y", "-d", "n", "-e", "n", "-o", scratch, dicomDir}
	default:
		return []string{"-z", "y", "-b", "y", "-o", scratch, dicomDir}
	}
}

// VersionArgs are the arguments that make the tool print its version banner.
func (c Converter) VersionArgs() []string {
	// Both tools print a version header on any run; -v is least disruptive
	return []string{"-v"}
}

// Convert runs the converter on dicomDir, writing into scratch, and returns
// the run result plus the sorted list of files the tool created there. An
// empty scratch after a clean exit is an error: the converter found nothing
// to convert.
func (c Converter) Convert(ctx context.Context, dicomDir, scratch string) (runner.Result, []string, error) {
	bin, err := runner.Look(string(c.Tool), c.Path)
	if err != nil {
		return runner.Result{}, nil, err
	}

	// The tool runs with scratch as its working directory, so a relative
	// input path must be anchored to the caller's directory first
	dicomDir, err = filepath.Abs(dicomDir)
	if err != nil {
		return runner.Result{}, nil, pfx.Err(err)
	}

	before, err := listFiles(scratch)
	if err != nil {
		return runner.Result{}, nil, err
	}

	res, err := runner.Run(ctx, scratch, bin, c.Args(dicomDir, scratch)...)
	if err != nil {
		return res, nil, err
	}

	produced, err := newFiles(scratch, before)
	if err != nil {
		return res, nil, err
	}
	if len(produced) == 0 {
		return res, nil, pfx.Err(fmt.Errorf("%s produced no output files from %s", c.Tool, dicomDir))
	}

	return res, produced, nil
}

// Version reports the converter's self-reported version line.
func (c Converter) Version(ctx context.Context) string {
	bin, err := runner.Look(string(c.Tool), c.Path)
	if err != nil {
		return "unknown"
	}

	return runner.Version(ctx, bin, c.VersionArgs()...)
}

func listFiles(dir string) (map[string]bool, error) {
	out := make(map[string]bool)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pfx.Err(err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			out[e.Name()] = true
		}
	}

	return out, nil
}

// newFiles lists the files in dir that were not present in before, sorted.
func newFiles(dir string, before map[string]bool) ([]string, error) {
	after, err := listFiles(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for name := range after {
		if !before[name] {
			out = append(out, filepath.Join(dir, name))
		}
	}
	sort.Strings(out)

	return out, nil
}
