package warp

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
)

// ErrBadArchive is returned when a map archive cannot be parsed.
var ErrBadArchive = errors.New("bad map archive")

// Array names inside a map archive.
const (
	ArrayX = "mapX"
	ArrayY = "mapY"
)

var npyMagic = []byte("\x93NUMPY")

// WriteMaps writes m as an .npz archive holding two float32 arrays, mapX and
// mapY, each shaped (Height, Width).
func WriteMaps(w io.Writer, m *Map) error {
	if err := m.validate(); err != nil {
		return err
	}
	zw := zip.NewWriter(w)
	for _, arr := range []struct {
		name string
		data []float32
	}{{ArrayX, m.X}, {ArrayY, m.Y}} {
		fw, err := zw.Create(arr.name + ".npy")
		if err != nil {
			return err
		}
		if err := writeNPY(fw, arr.data, m.Height, m.Width); err != nil {
			return err
		}
	}
	return zw.Close()
}

// SaveMaps writes m to an .npz file.
func SaveMaps(path string, m *Map) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteMaps(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadMaps parses an archive written by WriteMaps.
func ReadMaps(r io.ReaderAt, size int64) (*Map, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}

	arrays := make(map[string][]float32)
	var shape [2]int
	for _, name := range []string{ArrayX, ArrayY} {
		zf, err := findEntry(zr, name+".npy")
		if err != nil {
			return nil, err
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
		}
		data, rows, cols, err := readNPY(rc, zf.UncompressedSize64)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if name == ArrayX {
			shape = [2]int{rows, cols}
		} else if shape != [2]int{rows, cols} {
			return nil, fmt.Errorf("%w: mapX is %dx%d but mapY is %dx%d", ErrBadArchive, shape[0], shape[1], rows, cols)
		}
		arrays[name] = data
	}

	return &Map{
		Width:  shape[1],
		Height: shape[0],
		X:      arrays[ArrayX],
		Y:      arrays[ArrayY],
	}, nil
}

// LoadMaps reads an .npz map archive from disk.
func LoadMaps(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return ReadMaps(f, info.Size())
}

func findEntry(zr *zip.Reader, name string) (*zip.File, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: missing %s", ErrBadArchive, name)
}

// writeNPY writes a version 1.0 .npy array of little-endian float32 in C order.
func writeNPY(w io.Writer, data []float32, rows, cols int) error {
	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", rows, cols)
	// magic(6) + version(2) + header length(2) + header, padded to 64 bytes.
	total := len(npyMagic) + 4 + len(header) + 1
	if pad := total % 64; pad != 0 {
		header += string(bytes.Repeat([]byte{' '}, 64-pad))
	}
	header += "\n"

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}

	raw := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	_, err := w.Write(raw)
	return err
}

var (
	descrRe = regexp.MustCompile(`'descr':\s*'([^']*)'`)
	orderRe = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	shapeRe = regexp.MustCompile(`'shape':\s*\(\s*(\d+)\s*,\s*(\d+)\s*,?\s*\)`)
)

// readNPY parses one array from an entry of size bytes. The header and the
// shape are checked against size before anything is allocated.
func readNPY(r io.Reader, size uint64) (data []float32, rows, cols int, err error) {
	pre := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(r, pre); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	if !bytes.Equal(pre[:len(npyMagic)], npyMagic) {
		return nil, 0, 0, fmt.Errorf("%w: not an npy array", ErrBadArchive)
	}

	var headerLen, used uint64
	switch major := pre[len(npyMagic)]; major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, 0, 0, fmt.Errorf("%w: %v", ErrBadArchive, err)
		}
		headerLen, used = uint64(n), uint64(len(pre)+2)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, 0, 0, fmt.Errorf("%w: %v", ErrBadArchive, err)
		}
		headerLen, used = uint64(n), uint64(len(pre)+4)
	default:
		return nil, 0, 0, fmt.Errorf("%w: npy version %d", ErrBadArchive, major)
	}
	if used > size || headerLen > size-used {
		return nil, 0, 0, fmt.Errorf("%w: header length %d exceeds entry size %d", ErrBadArchive, headerLen, size)
	}
	used += headerLen

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}

	descr := descrRe.FindSubmatch(header)
	if descr == nil || string(descr[1]) != "<f4" {
		return nil, 0, 0, fmt.Errorf("%w: want <f4 data", ErrBadArchive)
	}
	if order := orderRe.FindSubmatch(header); order == nil || string(order[1]) != "False" {
		return nil, 0, 0, fmt.Errorf("%w: want C order", ErrBadArchive)
	}
	shape := shapeRe.FindSubmatch(header)
	if shape == nil {
		return nil, 0, 0, fmt.Errorf("%w: want a 2-D shape", ErrBadArchive)
	}
	rows, rerr := strconv.Atoi(string(shape[1]))
	cols, cerr := strconv.Atoi(string(shape[2]))
	if rerr != nil || cerr != nil || !validSize(cols, rows) {
		return nil, 0, 0, fmt.Errorf("%w: shape (%s, %s)", ErrBadArchive, shape[1], shape[2])
	}
	if need := 4 * uint64(rows) * uint64(cols); need > size-used {
		return nil, 0, 0, fmt.Errorf("%w: shape (%d, %d) needs %d bytes, entry has %d", ErrBadArchive, rows, cols, need, size-used)
	}

	raw := make([]byte, 4*rows*cols)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	data = make([]float32, rows*cols)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return data, rows, cols, nil
}
