// Package layout implements the on-disk naming convention for converted
// acquisitions. One acquisition maps to one leaf directory below the output
// root, and every file produced for it is renamed to the acquisition's base
// name plus the original extension.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/carbocation/pfx"
)

// Target identifies one acquisition within the output tree.
type Target struct {
	Root        string
	Subject     string
	Protocol    string
	Session     string
	Modality    string
	Acquisition int
}

// SeriesName is the modality plus the zero-padded acquisition number, e.g.
// "MR001".
func (t Target) SeriesName() string {
	return fmt.Sprintf("%s%03d", t.Modality, t.Acquisition)
}

// LeafDir is <root>/<subject>/<protocol>/<session>/<modality><acq>.
func (t Target) LeafDir() string {
	return filepath.Join(t.Root, t.Subject, t.Protocol, t.Session, t.SeriesName())
}

// LogsDir holds the per-run provenance JSON files.
func (t Target) LogsDir() string {
	return filepath.Join(t.LeafDir(), "logs")
}

// BaseName is the stem every output file is renamed to:
// <subject>_<session>_<modality><acq>.
func (t Target) BaseName() string {
	return fmt.Sprintf("%s_%s_%s", t.Subject, t.Session, t.SeriesName())
}

// Prepare creates the leaf and logs directories. When erase is set and the
// leaf already exists, it is deleted first and recreated empty.
func (t Target) Prepare(erase bool) error {
	leaf := t.LeafDir()

	if erase {
		if _, err := os.Stat(leaf); err == nil {
			if err := os.RemoveAll(leaf); err != nil {
				return pfx.Err(err)
			}
		}
	}

	if err := os.MkdirAll(t.LogsDir(), 0o755); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// SplitExt splits a filename into stem and extension, treating the stacked
// ".nii.gz" suffix as a single extension.
func SplitExt(name string) (stem, ext string) {
	base := filepath.Base(name)

	if strings.HasSuffix(base, ".nii.gz") {
		return strings.TrimSuffix(base, ".nii.gz"), ".nii.gz"
	}

	ext = filepath.Ext(base)

	return strings.TrimSuffix(base, ext), ext
}

// Place moves files into the leaf directory under the convention name. Files
// sharing an extension are numbered in sorted order: the first keeps the bare
// base name, later ones get a _02, _03, ... suffix before the extension. The
// returned paths are the new locations, ordered by extension group and then
// by original name.
func (t Target) Place(files []string) ([]string, error) {
	byExt := make(map[string][]string)
	for _, f := range files {
		_, ext := SplitExt(f)
		byExt[ext] = append(byExt[ext], f)
	}

	exts := make([]string, 0, len(byExt))
	for ext := range byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	placed := make([]string, 0, len(files))
	for _, ext := range exts {
		group := byExt[ext]
		sort.Strings(group)

		for i, src := range group {
			name := t.BaseName()
			if i > 0 {
				name = fmt.Sprintf("%s_%02d", name, i+1)
			}

			dst := filepath.Join(t.LeafDir(), name+ext)
			if err := moveFile(src, dst); err != nil {
				return nil, pfx.Err(err)
			}

			placed = append(placed, dst)
		}
	}

	return placed, nil
}

// moveFile renames src to dst, falling back to copy+delete when the rename
// crosses filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	if err := os.WriteFile(dst, in, 0o644); err != nil {
		return err
	}

	return os.Remove(src)
}
