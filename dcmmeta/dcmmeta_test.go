package dcmmeta

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func mustNewElement(t *testing.T, tg tag.Tag, value interface{}) *dicom.Element {
	t.Helper()

	elem, err := dicom.NewElement(tg, value)
	if err != nil {
		t.Fatalf("failed to create element %v: %v", tg, err)
	}

	return elem
}

// writeDicom writes a minimal metadata-only DICOM file for one series.
func writeDicom(t *testing.T, dir, name string, seriesNumber int, description string) string {
	t.Helper()

	elements := []*dicom.Element{
		mustNewElement(t, tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
		mustNewElement(t, tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(t, tag.MediaStorageSOPInstanceUID, []string{fmt.Sprintf("1.2.826.0.1.3680043.8.498.%d", seriesNumber)}),
		mustNewElement(t, tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(t, tag.SOPInstanceUID, []string{fmt.Sprintf("1.2.826.0.1.3680043.8.498.%d", seriesNumber)}),
		mustNewElement(t, tag.Modality, []string{"MR"}),
		mustNewElement(t, tag.SeriesNumber, []string{fmt.Sprintf("%d", seriesNumber)}),
		mustNewElement(t, tag.SeriesDescription, []string{description}),
		mustNewElement(t, tag.ProtocolName, []string{"t1_mprage_sag"}),
		mustNewElement(t, tag.EchoTime, []string{"2.46"}),
		mustNewElement(t, tag.RepetitionTime, []string{"2300"}),
		mustNewElement(t, tag.AcquisitionDate, []string{"20150612"}),
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := dicom.Write(f, dicom.Dataset{Elements: elements}); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDicom(t, dir, "i0001.dcm", 4, "T1 MPRAGE")

	info, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if info.SeriesNumber != 4 {
		t.Fatalf("series number: want 4, got %d", info.SeriesNumber)
	}
	if info.SeriesDescription != "T1 MPRAGE" {
		t.Fatalf("series description: got %q", info.SeriesDescription)
	}
	if info.Modality != "MR" {
		t.Fatalf("modality: got %q", info.Modality)
	}
	if info.ProtocolName != "t1_mprage_sag" {
		t.Fatalf("protocol: got %q", info.ProtocolName)
	}
	if info.EchoTimeMS != 2.46 {
		t.Fatalf("echo time: got %g", info.EchoTimeMS)
	}
	if info.RepetitionTimeMS != 2300 {
		t.Fatalf("repetition time: got %g", info.RepetitionTimeMS)
	}
	if info.AcquisitionDate != "20150612" {
		t.Fatalf("acquisition date: got %q", info.AcquisitionDate)
	}
}

func TestFirstSkipsNonDicom(t *testing.T) {
	dir := t.TempDir()

	// A non-DICOM file that sorts before the DICOM one
	if err := os.WriteFile(filepath.Join(dir, "DICOMDIR"), []byte("not a dicom"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeDicom(t, dir, "i0001.dcm", 2, "localizer")

	info, err := First(dir)
	if err != nil {
		t.Fatal(err)
	}
	if info.SeriesNumber != 2 {
		t.Fatalf("want series 2, got %d", info.SeriesNumber)
	}
}

func TestFirstFailsOnEmptyDir(t *testing.T) {
	if _, err := First(t.TempDir()); err == nil {
		t.Fatal("an empty directory should fail")
	}
}

func TestScanDirGroupsBySeries(t *testing.T) {
	dir := t.TempDir()

	writeDicom(t, dir, "a1.dcm", 5, "B0 map")
	writeDicom(t, dir, "a2.dcm", 5, "B0 map")
	writeDicom(t, dir, "b1.dcm", 2, "localizer")

	series, err := ScanDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	if len(series) != 2 {
		t.Fatalf("want 2 series, got %d: %+v", len(series), series)
	}
	if series[0].SeriesNumber != 2 || series[0].Files != 1 {
		t.Fatalf("first series wrong: %+v", series[0])
	}
	if series[1].SeriesNumber != 5 || series[1].Files != 2 {
		t.Fatalf("second series wrong: %+v", series[1])
	}
}
