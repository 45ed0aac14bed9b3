package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeTool writes an executable shell script into dir and returns its path.
func fakeTool(t *testing.T, dir, name, script string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestRunCapturesOutput(t *testing.T) {
	bin := fakeTool(t, t.TempDir(), "converter", "echo converted a.nii\necho warning >&2\n")

	res, err := Run(context.Background(), "", bin, "-z", "y")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(res.Stdout), "converted a.nii") {
		t.Fatalf("stdout not captured: %q", res.Stdout)
	}
	if !strings.Contains(string(res.Stderr), "warning") {
		t.Fatalf("stderr not captured: %q", res.Stderr)
	}
	if res.ExitCode != 0 {
		t.Fatalf("want exit 0, got %d", res.ExitCode)
	}
	if want := []string{bin, "-z", "y"}; strings.Join(res.Command, " ") != strings.Join(want, " ") {
		t.Fatalf("command not recorded: %v", res.Command)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	bin := fakeTool(t, t.TempDir(), "converter", "echo no input >&2\nexit 3\n")

	res, err := Run(context.Background(), "", bin)
	if err == nil {
		t.Fatal("want an error on non-zero exit")
	}
	if res.ExitCode != 3 {
		t.Fatalf("want exit 3, got %d", res.ExitCode)
	}
	if !strings.Contains(err.Error(), "no input") {
		t.Fatalf("error should include stderr, got %v", err)
	}
}

func TestRunUsesWorkdir(t *testing.T) {
	work := t.TempDir()
	bin := fakeTool(t, t.TempDir(), "toucher", "touch out.nii\n")

	if _, err := Run(context.Background(), work, bin); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(work, "out.nii")); err != nil {
		t.Fatalf("tool should run in workdir: %v", err)
	}
}

func TestWriteLogs(t *testing.T) {
	dir := t.TempDir()

	res := Result{
		Command: []string{"dcm2niix", "-o", "/tmp/x"},
		Stdout:  []byte("Convert 1 DICOM\n"),
		Stderr:  []byte("warn\n"),
	}
	if err := res.WriteLogs(dir); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "stdout.log"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "dcm2niix -o /tmp/x\nConvert 1 DICOM\n"; string(b) != want {
		t.Fatalf("stdout.log: want %q, got %q", want, b)
	}

	b, err = os.ReadFile(filepath.Join(dir, "stderr.log"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "warn\n" {
		t.Fatalf("stderr.log: got %q", b)
	}
}

func TestVersion(t *testing.T) {
	dir := t.TempDir()

	bin := fakeTool(t, dir, "dcm2niix", "echo\necho 'Chris Rorden dcm2niiX version v1.0.20211006'\nexit 1\n")
	if v := Version(context.Background(), bin, "-v"); !strings.Contains(v, "v1.0.20211006") {
		t.Fatalf("version line not extracted: %q", v)
	}

	if v := Version(context.Background(), filepath.Join(dir, "missing"), "-v"); v != "unknown" {
		t.Fatalf("missing binary should report unknown, got %q", v)
	}
}

func TestLook(t *testing.T) {
	dir := t.TempDir()
	bin := fakeTool(t, dir, "pydeface", "exit 0\n")

	got, err := Look("pydeface", bin)
	if err != nil {
		t.Fatal(err)
	}
	if got != bin {
		t.Fatalf("override should win: %q", got)
	}

	if _, err := Look("pydeface", filepath.Join(dir, "missing")); err == nil {
		t.Fatal("missing override should fail")
	}

	// A relative override resolves to an absolute path
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldwd)

	got, err = Look("pydeface", "./pydeface")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(got) || filepath.Base(got) != "pydeface" {
		t.Fatalf("relative override should resolve absolute, got %q", got)
	}

	if _, err := Look("definitely-not-a-binary-12345", ""); err == nil {
		t.Fatal("PATH miss should fail")
	}
}
