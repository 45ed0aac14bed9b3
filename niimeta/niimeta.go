// Package niimeta reads and patches NIfTI-1 headers in place. It exists so
// the converter wrapper can fill the free-text descrip field with the echo
// and repetition times recovered from the source DICOM files; everything
// else about the volume is left untouched.
package niimeta

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/carbocation/pfx"
)

// HeaderSize is the fixed size of a NIfTI-1 header on disk.
const HeaderSize = 348

// Header is the NIfTI-1 header layout, field for field. Only fixed-size
// types appear so the struct can round-trip through encoding/binary.
type Header struct {
	SizeOfHdr      int32
	DataTypeUnused [10]byte
	DBNameUnused   [18]byte
	ExtentsUnused  int32
	SessionUnused  int16
	RegularUnused  byte
	DimInfo        byte

	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	DataType      int16
	BitPix        int16
	SliceStart    int16
	PixDim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XYZTUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	TOffset       float32
	GlmaxUnused   int32
	GlminUnused   int32

	Descrip [80]byte
	AuxFile [24]byte

	QFormCode int16
	SFormCode int16

	QuaternB float32
	QuaternC float32
	QuaternD float32
	QOffsetX float32
	QOffsetY float32
	QOffsetZ float32

	SRowX [4]float32
	SRowY [4]float32
	SRowZ [4]float32

	IntentName [16]byte

	Magic [4]byte
}

// Description returns the descrip field as a string, without trailing NULs.
func (h Header) Description() string {
	return strings.TrimRight(string(h.Descrip[:]), "\x00")
}

// SetDescription stores s in the descrip field, truncating to 79 bytes so a
// terminating NUL always remains.
func (h *Header) SetDescription(s string) {
	h.Descrip = [80]byte{}
	if len(s) > 79 {
		s = s[:79]
	}
	copy(h.Descrip[:], s)
}

func (h Header) valid() bool {
	magic := string(h.Magic[:])

	return h.SizeOfHdr == HeaderSize && (magic == "n+1\x00" || magic == "ni1\x00")
}

// decodeHeader interprets b, trying little-endian first and falling back to
// big-endian files.
func decodeHeader(b []byte) (Header, binary.ByteOrder, error) {
	var h Header

	var order binary.ByteOrder = binary.LittleEndian
	if err := binary.Read(bytes.NewReader(b), order, &h); err != nil {
		return h, order, pfx.Err(err)
	}

	if !h.valid() {
		order = binary.BigEndian
		if err := binary.Read(bytes.NewReader(b), order, &h); err != nil {
			return h, order, pfx.Err(err)
		}
	}

	if !h.valid() {
		return h, order, pfx.Err(fmt.Errorf("not a NIfTI-1 file (header size %d, magic %q)", h.SizeOfHdr, h.Magic))
	}

	return h, order, nil
}

// ReadHeader reads the header of a .nii or .nii.gz file.
func ReadHeader(path string) (Header, binary.ByteOrder, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, pfx.Err(err)
	}
	defer f.Close()

	var r io.Reader = f
	if isGzip(path) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return Header{}, nil, pfx.Err(err)
		}
		defer gz.Close()
		r = gz
	}

	b := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, b); err != nil {
		return Header{}, nil, pfx.Err(err)
	}

	return decodeHeader(b)
}

// FillDescription rewrites the descrip field of the volume at path with
// "TE=<te>;TR=<tr>" (milliseconds), preserving the file's byte order and
// everything after the header. Gzipped volumes are rewritten whole; plain
// ones are patched in place.
func FillDescription(path string, te, tr float64) error {
	desc := fmt.Sprintf("TE=%g;TR=%g", te, tr)

	if isGzip(path) {
		return patchGzip(path, desc)
	}

	return patchPlain(path, desc)
}

func patchPlain(path, desc string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	b := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, b); err != nil {
		return pfx.Err(err)
	}

	h, order, err := decodeHeader(b)
	if err != nil {
		return err
	}
	h.SetDescription(desc)

	var buf bytes.Buffer
	if err := binary.Write(&buf, order, h); err != nil {
		return pfx.Err(err)
	}

	if _, err := f.WriteAt(buf.Bytes(), 0); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func patchGzip(path, desc string) error {
	f, err := os.Open(path)
	if err != nil {
		return pfx.Err(err)
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return pfx.Err(err)
	}

	raw, err := io.ReadAll(gz)
	gz.Close()
	f.Close()
	if err != nil {
		return pfx.Err(err)
	}
	if len(raw) < HeaderSize {
		return pfx.Err(fmt.Errorf("%s: truncated NIfTI file (%d bytes)", path, len(raw)))
	}

	h, order, err := decodeHeader(raw[:HeaderSize])
	if err != nil {
		return err
	}
	h.SetDescription(desc)

	var buf bytes.Buffer
	if err := binary.Write(&buf, order, h); err != nil {
		return pfx.Err(err)
	}
	copy(raw[:HeaderSize], buf.Bytes())

	out, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	zw := gzip.NewWriter(out)
	if _, err := zw.Write(raw); err != nil {
		out.Close()
		return pfx.Err(err)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return pfx.Err(err)
	}

	if err := out.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func isGzip(path string) bool {
	return strings.HasSuffix(path, ".gz")
}
