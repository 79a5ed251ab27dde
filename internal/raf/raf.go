package raf

import (
	"encoding/binary"
	"fmt"

	"raf-importer/internal/filesystem"
)

// RAF container layout. All integers are big-endian; offsets count from
// the start of the file.
const (
	magic = "FUJIFILMCCD-RAW "

	previewOffsetPos = 84
	previewLengthPos = 88
	cfaDirOffsetPos  = 92
	cfaDirLengthPos  = 96
	headerSize       = 100

	// sensorDimsTag is the CFA directory record holding the raw sensor
	// height and width as two big-endian uint16s.
	sensorDimsTag = 0x0100
)

// Container holds the directory pointers and sensor records parsed from
// one RAF file.
type Container struct {
	PreviewOffset uint32
	PreviewLength uint32
	SensorWidth   int
	SensorHeight  int
}

// ParseContainer reads and validates the RAF header of the file at path.
func ParseContainer(path string) (*Container, error) {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseContainer(data)
}

func parseContainer(data []byte) (*Container, error) {
	if len(data) < len(magic) || string(data[:len(magic)]) != magic {
		return nil, ErrNotRAF
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: truncated header (%d bytes)", ErrNotRAF, len(data))
	}
	c := &Container{
		PreviewOffset: binary.BigEndian.Uint32(data[previewOffsetPos:]),
		PreviewLength: binary.BigEndian.Uint32(data[previewLengthPos:]),
	}
	c.SensorHeight, c.SensorWidth = sensorDims(data)
	return c, nil
}

// sensorDims walks the CFA directory records. Absent or malformed
// records yield zeros; the orientation heuristics skip zero dimensions.
func sensorDims(data []byte) (height, width int) {
	off := binary.BigEndian.Uint32(data[cfaDirOffsetPos:])
	length := binary.BigEndian.Uint32(data[cfaDirLengthPos:])
	end := uint64(off) + uint64(length)
	if off == 0 || length < 4 || end > uint64(len(data)) {
		return 0, 0
	}
	dir := data[off:end]
	count := binary.BigEndian.Uint32(dir)
	pos := 4
	for i := uint32(0); i < count; i++ {
		if pos+4 > len(dir) {
			return 0, 0
		}
		tag := binary.BigEndian.Uint16(dir[pos:])
		size := int(binary.BigEndian.Uint16(dir[pos+2:]))
		pos += 4
		if pos+size > len(dir) {
			return 0, 0
		}
		if tag == sensorDimsTag && size >= 4 {
			return int(binary.BigEndian.Uint16(dir[pos:])), int(binary.BigEndian.Uint16(dir[pos+2:]))
		}
		pos += size
	}
	return 0, 0
}

// ExtractPreview returns the embedded JPEG bytes of the RAF at path.
func ExtractPreview(path string) ([]byte, error) {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return extractPreview(data)
}

func extractPreview(data []byte) ([]byte, error) {
	c, err := parseContainer(data)
	if err != nil {
		return nil, err
	}
	if c.PreviewOffset == 0 || c.PreviewLength == 0 {
		return nil, ErrNoPreview
	}
	end := uint64(c.PreviewOffset) + uint64(c.PreviewLength)
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("%w: preview extends past end of file", ErrNoPreview)
	}
	jpeg := data[c.PreviewOffset:end]
	if len(jpeg) < 2 || jpeg[0] != 0xff || jpeg[1] != 0xd8 {
		return nil, fmt.Errorf("%w: missing JPEG SOI marker", ErrNoPreview)
	}
	return jpeg, nil
}
