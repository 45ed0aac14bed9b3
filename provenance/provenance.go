// Package provenance persists what each run consumed and produced as a
// triple of JSON files in the run's logs directory, so a processed dataset
// can always be traced back to its inputs and tool versions.
package provenance

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/carbocation/pfx"
)

// Outputs accumulates the files a run produced, by role. Lists are appended
// as each processing step completes.
type Outputs struct {
	ConvertedFiles []string `json:"converted_files"`
	GradientFiles  []string `json:"gradient_files"`
	SidecarFiles   []string `json:"sidecar_files"`
	DefacedFiles   []string `json:"defaced_files"`
	FilledFiles    []string `json:"filled_files"`
	SnapshotFiles  []string `json:"snapshot_files"`
	OtherFiles     []string `json:"other_files"`
}

// withEmptyLists replaces nil slices so every list serializes as [] rather
// than null.
func (o Outputs) withEmptyLists() Outputs {
	for _, list := range []*[]string{
		&o.ConvertedFiles, &o.GradientFiles, &o.SidecarFiles,
		&o.DefacedFiles, &o.FilledFiles, &o.SnapshotFiles, &o.OtherFiles,
	} {
		if *list == nil {
			*list = []string{}
		}
	}

	return o
}

// Runtime records which tool versions did the work and when.
type Runtime struct {
	Tool           string `json:"tool"`
	ToolVersion    string `json:"tool_version"`
	Wrapper        string `json:"wrapper"`
	WrapperVersion string `json:"wrapper_version"`
	GoVersion      string `json:"go_version"`
	Timestamp      string `json:"timestamp"`
}

// NewRuntime builds the runtime record for the wrapped tool, stamping it with
// the wrapper's own build information and the current time.
func NewRuntime(tool, toolVersion string) Runtime {
	out := Runtime{
		Tool:        tool,
		ToolVersion: toolVersion,
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.Wrapper = info.Path
	out.GoVersion = info.GoVersion
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			out.WrapperVersion = s.Value
		}
	}

	return out
}

// Write emits inputs.json, outputs.json and runtime.json into logsDir. The
// inputs value is the command's options struct, which doubles as the flat
// input record the logs need.
func Write(logsDir string, inputs interface{}, outputs Outputs, rt Runtime) error {
	for _, doc := range []struct {
		name  string
		value interface{}
	}{
		{"inputs.json", inputs},
		{"outputs.json", outputs.withEmptyLists()},
		{"runtime.json", rt},
	} {
		if err := writeJSON(filepath.Join(logsDir, doc.name), doc.value); err != nil {
			return err
		}
	}

	return nil
}

func writeJSON(path string, value interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		f.Close()
		return pfx.Err(err)
	}

	if err := f.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}
