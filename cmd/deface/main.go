// deface anonymizes a head scan by wrapping one of the pydeface, mri_deface
// or mask_face tools, renames the defaced volume into the study layout,
// optionally renders a snapshot, and writes JSON provenance logs.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/neurospin/dcmio/defacing"
	"github.com/neurospin/dcmio/layout"
	"github.com/neurospin/dcmio/provenance"
	"github.com/neurospin/dcmio/runconf"
	"github.com/neurospin/dcmio/snapshot"
	"github.com/neurospin/dcmio/transcode"
)

func main() {
	var opts runconf.DefaceOptions

	flag.StringVar(&opts.Input, "in", "", "Path to the .nii or .nii.gz head scan to deface.")
	flag.StringVar(&opts.OutDir, "out", "", "Path to the root of the output tree.")
	flag.StringVar(&opts.Subject, "subject", "", "Raw subject identifier.")
	flag.StringVar(&opts.Protocol, "protocol", "", "Study protocol name, used in the output path.")
	flag.StringVar(&opts.Session, "session", "V1", "Session (timepoint) identifier.")
	flag.StringVar(&opts.TablePath, "table", "", "Optional JSON transcoding table ({rawID: anonID}), local or gs://.")
	flag.StringVar(&opts.Tool, "tool", "pydeface", "Defacer to use: 'pydeface', 'mri_deface' or 'mask_face'.")
	flag.StringVar(&opts.ToolPath, "toolpath", "", "Path to the defacer binary (if not in your PATH).")
	flag.StringVar(&opts.BrainTemplate, "brain-template", "", "Brain atlas (.gca) for mri_deface.")
	flag.StringVar(&opts.FaceTemplate, "face-template", "", "Face atlas (.gca) for mri_deface.")
	flag.BoolVar(&opts.Snapshot, "snapshot", false, "Render an axial mosaic PNG of the defaced volume.")
	flag.BoolVar(&opts.Erase, "erase", false, "Delete and recreate the output leaf directory if it already exists.")
	flag.BoolVar(&opts.Verbose, "v", false, "Verbose progress output.")

	flag.Parse()
	if opts.Input == "" || opts.OutDir == "" || opts.Subject == "" || opts.Protocol == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		log.Fatalln(err)
	}
}

func run(opts runconf.DefaceOptions) error {
	ctx := context.Background()

	// An unrecognized -tool is fatal before any filesystem mutation
	tool, err := defacing.ParseTool(opts.Tool)
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	var table transcode.Table
	if opts.TablePath != "" {
		if table, err = transcode.Load(opts.TablePath); err != nil {
			return err
		}
	}
	anon, err := table.Lookup(opts.Subject)
	if err != nil {
		return err
	}

	target := layout.Target{
		Root:        opts.OutDir,
		Subject:     anon,
		Protocol:    opts.Protocol,
		Session:     opts.Session,
		Modality:    "defaced",
		Acquisition: 1,
	}
	if opts.Verbose {
		log.Println("Defacing", opts.Input, "with", tool, "into", target.LeafDir())
	}
	if err := target.Prepare(opts.Erase); err != nil {
		return err
	}

	scratch, err := os.MkdirTemp("", "deface-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	defacer := defacing.Defacer{
		Tool:          tool,
		Path:          opts.ToolPath,
		BrainTemplate: opts.BrainTemplate,
		FaceTemplate:  opts.FaceTemplate,
	}
	res, produced, err := defacer.Deface(ctx, opts.Input, scratch)
	if err != nil {
		return err
	}
	if err := res.WriteLogs(target.LogsDir()); err != nil {
		return err
	}

	placed, err := target.Place(produced)
	if err != nil {
		return err
	}

	outputs := provenance.Outputs{}
	for _, f := range placed {
		if strings.HasSuffix(f, ".nii") || strings.HasSuffix(f, ".nii.gz") {
			outputs.DefacedFiles = append(outputs.DefacedFiles, f)
		} else {
			outputs.OtherFiles = append(outputs.OtherFiles, f)
		}
	}
	if opts.Verbose {
		log.Println("Defaced", len(outputs.DefacedFiles), "volume(s)")
	}

	if opts.Snapshot {
		for _, volume := range outputs.DefacedFiles {
			out := snapshot.OutputName(target.LeafDir(), volume)
			if err := snapshot.Render(volume, out, snapshot.Options{Label: true}); err != nil {
				return err
			}
			outputs.SnapshotFiles = append(outputs.SnapshotFiles, out)
		}
	}

	rt := provenance.NewRuntime(string(tool), defacer.Version(ctx))

	return provenance.Write(target.LogsDir(), opts, outputs, rt)
}
