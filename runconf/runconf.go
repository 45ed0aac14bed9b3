// Package runconf holds the typed run configuration the pipeline commands
// build from their flags. A configuration is validated once, right after
// flag parsing, and is immutable afterwards; the JSON tags let the same
// struct double as the inputs record in the provenance logs.
package runconf

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/carbocation/pfx"

	"github.com/neurospin/dcmio/dcmconv"
	"github.com/neurospin/dcmio/defacing"
)

// ConvertOptions configures one dicom2nifti run.
type ConvertOptions struct {
	DicomDir    string `json:"dicom_dir"`
	OutDir      string `json:"out_dir"`
	Subject     string `json:"subject"`
	Protocol    string `json:"protocol"`
	Session     string `json:"session"`
	Modality    string `json:"modality"`
	Acquisition int    `json:"acquisition"`
	TablePath   string `json:"table_path,omitempty"`
	Tool        string `json:"tool"`
	ToolPath    string `json:"tool_path,omitempty"`
	Fill        bool   `json:"fill"`
	Snapshot    bool   `json:"snapshot"`
	Erase       bool   `json:"erase"`
	Verbose     bool   `json:"-"`
}

// Validate fails fast on anything that would make the run pointless: missing
// inputs, empty identifiers, a nonsensical acquisition number.
func (o ConvertOptions) Validate() error {
	if err := requireDir(o.DicomDir, "-dicom"); err != nil {
		return err
	}
	if err := requireFlags(map[string]string{
		"-out":      o.OutDir,
		"-subject":  o.Subject,
		"-protocol": o.Protocol,
		"-session":  o.Session,
	}); err != nil {
		return err
	}
	if o.Acquisition < 1 {
		return pfx.Err(fmt.Errorf("-acquisition must be >= 1, got %d", o.Acquisition))
	}
	if _, err := dcmconv.ParseTool(o.Tool); err != nil {
		return err
	}

	return nil
}

// DefaceOptions configures one deface run.
type DefaceOptions struct {
	Input     string `json:"input"`
	OutDir    string `json:"out_dir"`
	Subject   string `json:"subject"`
	Protocol  string `json:"protocol"`
	Session   string `json:"session"`
	TablePath string `json:"table_path,omitempty"`
	Tool      string `json:"tool"`
	ToolPath  string `json:"tool_path,omitempty"`

	// BrainTemplate and FaceTemplate only apply to mri_deface.
	BrainTemplate string `json:"brain_template,omitempty"`
	FaceTemplate  string `json:"face_template,omitempty"`

	Snapshot bool `json:"snapshot"`
	Erase    bool `json:"erase"`
	Verbose  bool `json:"-"`
}

func (o DefaceOptions) Validate() error {
	if err := requireFile(o.Input, "-in"); err != nil {
		return err
	}
	if !strings.HasSuffix(o.Input, ".nii") && !strings.HasSuffix(o.Input, ".nii.gz") {
		return pfx.Err(fmt.Errorf("-in must be a .nii or .nii.gz file, got %s", o.Input))
	}

	if err := requireFlags(map[string]string{
		"-out":      o.OutDir,
		"-subject":  o.Subject,
		"-protocol": o.Protocol,
		"-session":  o.Session,
	}); err != nil {
		return err
	}

	if _, err := defacing.ParseTool(o.Tool); err != nil {
		return err
	}

	return nil
}

func requireFlags(flags map[string]string) error {
	var missing []string
	for name, value := range flags {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return pfx.Err(fmt.Errorf("missing required flags: %s", strings.Join(missing, ", ")))
	}

	return nil
}

func requireDir(path, flagName string) error {
	if path == "" {
		return pfx.Err(fmt.Errorf("missing required flag %s", flagName))
	}

	stat, err := os.Stat(path)
	if err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", flagName, err))
	}
	if !stat.IsDir() {
		return pfx.Err(fmt.Errorf("%s: %s is not a directory", flagName, path))
	}

	return nil
}

func requireFile(path, flagName string) error {
	if path == "" {
		return pfx.Err(fmt.Errorf("missing required flag %s", flagName))
	}

	stat, err := os.Stat(path)
	if err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", flagName, err))
	}
	if stat.IsDir() {
		return pfx.Err(fmt.Errorf("%s: %s is a directory, not a file", flagName, path))
	}

	return nil
}
