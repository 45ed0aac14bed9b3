// Package defacing wraps the pydeface, mri_deface and mask_face anonymization
// tools. As with conversion, the algorithms live in the external binaries;
// this package builds command lines and collects outputs.
package defacing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/carbocation/pfx"

	"github.com/neurospin/dcmio/runner"
)

// Tool selects which defacing binary to run.
type Tool string

const (
	Pydeface  Tool = "pydeface"
	MRIDeface Tool = "mri_deface"
	MaskFace  Tool = "mask_face"
)

// ParseTool validates a -tool flag value.
func ParseTool(s string) (Tool, error) {
	switch Tool(s) {
	case Pydeface, MRIDeface, MaskFace:
		return Tool(s), nil
	}

	return "", pfx.Err(fmt.Errorf("unrecognized defacing tool %q (options are %q, %q and %q)",
		s, Pydeface, MRIDeface, MaskFace))
}

// Defacer runs one of the wrapped defacing binaries.
type Defacer struct {
	Tool Tool

	// Path overrides the PATH lookup of the tool binary when set.
	Path string

	// BrainTemplate and FaceTemplate are the .gca atlases mri_deface
	// requires. Unset values are resolved by withTemplateDefaults before
	// the command line is built.
	BrainTemplate string
	FaceTemplate  string
}

// Args builds the defacer command line that reads input and writes into the
// scratch directory. Template paths must already be resolved.
func (d Defacer) Args(input, scratch string) []string {
	defaced := filepath.Join(scratch, "defaced.nii.gz")

	switch d.Tool {
	case MRIDeface:
		return []string{input, d.BrainTemplate, d.FaceTemplate, defaced}
	case MaskFace:
		return []string{input, "-o", scratch}
	default:
		return []string{input, "--outfile", defaced, "--force"}
	}
}

// VersionArgs are the arguments that make the tool print its version banner.
func (d Defacer) VersionArgs() []string {
	if d.Tool == MRIDeface {
		return []string{"--version"}
	}

	return []string{"-v"}
}

// Deface runs the defacer on input, writing into scratch, and returns the
// run result plus the sorted list of files created there.
func (d Defacer) Deface(ctx context.Context, input, scratch string) (runner.Result, []string, error) {
	bin, err := runner.Look(string(d.Tool), d.Path)
	if err != nil {
		return runner.Result{}, nil, err
	}

	// The tool runs with scratch as its working directory, so a relative
	// input path must be anchored to the caller's directory first
	input, err = filepath.Abs(input)
	if err != nil {
		return runner.Result{}, nil, pfx.Err(err)
	}

	d = d.withTemplateDefaults(bin)

	res, err := runner.Run(ctx, scratch, bin, d.Args(input, scratch)...)
	if err != nil {
		return res, nil, err
	}

	produced, err := listFiles(scratch)
	if err != nil {
		return res, nil, err
	}
	if len(produced) == 0 {
		return res, nil, pfx.Err(fmt.Errorf("%s produced no output files from %s", d.Tool, input))
	}

	return res, produced, nil
}

// withTemplateDefaults fills unset mri_deface atlas paths. FreeSurfer
// installs the atlases under $FREESURFER_HOME/average; without that
// environment variable the tool's own directory is tried.
func (d Defacer) withTemplateDefaults(bin string) Defacer {
	if d.Tool != MRIDeface {
		return d
	}

	base := filepath.Dir(bin)
	if home := os.Getenv("FREESURFER_HOME"); home != "" {
		base = filepath.Join(home, "average")
	}

	if d.BrainTemplate == "" {
		d.BrainTemplate = filepath.Join(base, "talairach_mixed_with_skull.gca")
	}
	if d.FaceTemplate == "" {
		d.FaceTemplate = filepath.Join(base, "face.gca")
	}

	return d
}

// Version reports the defacer's self-reported version line.
func (d Defacer) Version(ctx context.Context) string {
	bin, err := runner.Look(string(d.Tool), d.Path)
	if err != nil {
		return "unknown"
	}

	return runner.Version(ctx, bin, d.VersionArgs()...)
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pfx.Err(err)
	}

	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)

	return out, nil
}
