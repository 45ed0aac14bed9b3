package dcmconv

import "github.com/neurospin/dcmio/layout"

// Outputs groups the files a conversion produced by role.
type Outputs struct {
	// Converted are the Nifti volumes.
	Converted []string

	// Gradients are the diffusion b-value/b-vector text files.
	Gradients []string

	// Sidecars are the BIDS JSON metadata files dcm2niix emits.
	Sidecars []string

	// Other is anything else the tool left behind.
	Other []string
}

// All returns every grouped file in a single slice.
func (o Outputs) All() []string {
	out := make([]string, 0, len(o.Converted)+len(o.Gradients)+len(o.Sidecars)+len(o.Other))
	out = append(out, o.Converted...)
	out = append(out, o.Gradients...)
	out = append(out, o.Sidecars...)
	out = append(out, o.Other...)

	return out
}

// Classify buckets files by extension.
func Classify(files []string) Outputs {
	var out Outputs

	for _, f := range files {
		_, ext := layout.SplitExt(f)
		switch ext {
		case ".nii", ".nii.gz":
			out.Converted = append(out.Converted, f)
		case ".bval", ".bvec":
			out.Gradients = append(out.Gradients, f)
		case ".json":
			out.Sidecars = append(out.Sidecars, f)
		default:
			out.Other = append(out.Other, f)
		}
	}

	return out
}
