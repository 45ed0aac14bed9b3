// dicom2nifti converts one DICOM acquisition to Nifti by wrapping dcm2niix
// (or the older dcm2nii), renames the outputs into the study layout,
// optionally fills the Nifti header with timing metadata and renders a
// snapshot, and writes JSON provenance logs next to the outputs.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/neurospin/dcmio/dcmconv"
	"github.com/neurospin/dcmio/dcmmeta"
	"github.com/neurospin/dcmio/layout"
	"github.com/neurospin/dcmio/niimeta"
	"github.com/neurospin/dcmio/provenance"
	"github.com/neurospin/dcmio/runconf"
	"github.com/neurospin/dcmio/snapshot"
	"github.com/neurospin/dcmio/transcode"
)

func main() {
	var opts runconf.ConvertOptions

	flag.StringVar(&opts.DicomDir, "dicom", "", "Path to the folder containing the DICOM files of one acquisition.")
	flag.StringVar(&opts.OutDir, "out", "", "Path to the root of the output tree.")
	flag.StringVar(&opts.Subject, "subject", "", "Raw subject identifier.")
	flag.StringVar(&opts.Protocol, "protocol", "", "Study protocol name, used in the output path.")
	flag.StringVar(&opts.Session, "session", "V1", "Session (timepoint) identifier.")
	flag.StringVar(&opts.Modality, "modality", "", "Modality code. Defaults to the Modality tag of the first DICOM file.")
	flag.IntVar(&opts.Acquisition, "acquisition", 1, "Acquisition number within the session.")
	flag.StringVar(&opts.TablePath, "table", "", "Optional JSON transcoding table ({rawID: anonID}), local or gs://.")
	flag.StringVar(&opts.Tool, "tool", "dcm2niix", "Converter to use: 'dcm2niix' or 'dcm2nii'.")
	flag.StringVar(&opts.ToolPath, "toolpath", "", "Path to the converter binary (if not in your PATH).")
	flag.BoolVar(&opts.Fill, "fill", false, "Fill the Nifti descrip field with the echo and repetition times.")
	flag.BoolVar(&opts.Snapshot, "snapshot", false, "Render an axial mosaic PNG of each converted volume.")
	flag.BoolVar(&opts.Erase, "erase", false, "Delete and recreate the output leaf directory if it already exists.")
	flag.BoolVar(&opts.Verbose, "v", false, "Verbose progress output.")

	flag.Parse()
	if opts.DicomDir == "" || opts.OutDir == "" || opts.Subject == "" || opts.Protocol == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		log.Fatalln(err)
	}
}

func run(opts runconf.ConvertOptions) error {
	ctx := context.Background()

	// Tool dispatch and validation run before any filesystem mutation
	tool, err := dcmconv.ParseTool(opts.Tool)
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

	meta, err := dcmmeta.First(opts.DicomDir)
	if err != nil {
		return err
	}

	modality := opts.Modality
	if modality == "" {
		modality = meta.Modality
	}
	if modality == "" {
		modality = "MR"
	}

	target := layout.Target{
		Root:        opts.OutDir,
		Subject:     anon,
		Protocol:    opts.Protocol,
		Session:     opts.Session,
		Modality:    modality,
		Acquisition: opts.Acquisition,
	}
	if opts.Verbose {
		log.Println("Converting", opts.DicomDir, "into", target.LeafDir())
	}
	if err := target.Prepare(opts.Erase); err != nil {
		return err
	}

	scratch, err := os.MkdirTemp("", "dicom2nifti-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	converter := dcmconv.Converter{Tool: tool, Path: opts.ToolPath}
	res, produced, err := converter.Convert(ctx, opts.DicomDir, scratch)
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
	grouped := dcmconv.Classify(placed)
	if opts.Verbose {
		log.Println("Converted", len(grouped.Converted), "volume(s)")
	}

	outputs := provenance.Outputs{
		ConvertedFiles: grouped.Converted,
		GradientFiles:  grouped.Gradients,
		SidecarFiles:   grouped.Sidecars,
		OtherFiles:     grouped.Other,
	}

	if opts.Fill {
		for _, volume := range grouped.Converted {
			if err := niimeta.FillDescription(volume, meta.EchoTimeMS, meta.RepetitionTimeMS); err != nil {
				return err
			}
			outputs.FilledFiles = append(outputs.FilledFiles, volume)
		}
		if opts.Verbose {
			log.Printf("Filled %d header(s) with TE=%g TR=%g", len(outputs.FilledFiles), meta.EchoTimeMS, meta.RepetitionTimeMS)
		}
	}

	if opts.Snapshot {
		for _, volume := range grouped.Converted {
			out := snapshot.OutputName(target.LeafDir(), volume)
			if err := snapshot.Render(volume, out, snapshot.Options{Label: true}); err != nil {
				return err
			}
			outputs.SnapshotFiles = append(outputs.SnapshotFiles, out)
		}
	}

	rt := provenance.NewRuntime(string(tool), converter.Version(ctx))

	return provenance.Write(target.LogsDir(), opts, outputs, rt)
}
