package cover

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/mod/semver"
)

const (
	// pointsMagic leads every artifact so unrelated files are rejected
	// before decompression is attempted.
	pointsMagic = "MMP1"
	// PointsExt replaces the source extension on artifact files.
	PointsExt = ".mmp"
	// pointsFormat identifies the payload layout behind the magic.
	pointsFormat = 1
)

// ErrNotPointsArtifact reports input that does not start with the
// artifact magic.
var ErrNotPointsArtifact = errors.New("not a points artifact")

// pointsPayload is the serialized artifact body. Offsets are delta
// encoded in index order and indices are implicit by position.
type pointsPayload struct {
	Format  int    `msgpack:"f"`
	Tool    string `msgpack:"t"`
	Source  string `msgpack:"s"`
	Offsets []int  `msgpack:"o"`
	Kinds   []byte `msgpack:"k"`
}

// EncodePoints serializes a file's final point sequence. The sequence
// must be dense in index order; anything else means the table was
// corrupted and encoding fails.
func EncodePoints(source string, points []Point) ([]byte, error) {
	payload := pointsPayload{
		Format:  pointsFormat,
		Tool:    Version,
		Source:  source,
		Offsets: make([]int, len(points)),
		Kinds:   make([]byte, len(points)),
	}
	prev := 0
	for i, p := range points {
		if p.Index != i {
			return nil, fmt.Errorf("points for %s not dense: index %d at position %d", source, p.Index, i)
		}
		payload.Offsets[i] = p.Offset - prev
		prev = p.Offset
		payload.Kinds[i] = byte(p.Kind)
	}
	data, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, err
	}
	out := append([]byte{}, pointsMagic...)
	return ZstdCompress(out, data), nil
}

// DecodePoints parses an artifact, returning the source name and the
// ordered point sequence it records.
func DecodePoints(data []byte) (string, []Point, error) {
	if !bytes.HasPrefix(data, []byte(pointsMagic)) {
		return "", nil, ErrNotPointsArtifact
	}
	raw, err := ZstdDecompress(nil, data[len(pointsMagic):])
	if err != nil {
		return "", nil, fmt.Errorf("corrupt points artifact: %w", err)
	}
	var payload pointsPayload
	if err := msgpack.Unmarshal(raw, &payload); err != nil {
		return "", nil, fmt.Errorf("corrupt points artifact: %w", err)
	}
	if payload.Format != pointsFormat {
		return "", nil, fmt.Errorf("unsupported points format %d", payload.Format)
	}
	if semver.Major(payload.Tool) != semver.Major(Version) {
		return "", nil, fmt.Errorf("points artifact written by incompatible tool %s", payload.Tool)
	}
	if len(payload.Offsets) != len(payload.Kinds) {
		return "", nil, fmt.Errorf("points artifact length mismatch: %d offsets, %d kinds",
			len(payload.Offsets), len(payload.Kinds))
	}
	points := make([]Point, len(payload.Offsets))
	offset := 0
	for i := range payload.Offsets {
		offset += payload.Offsets[i]
		kind := Kind(payload.Kinds[i])
		if kind >= kindCount {
			return "", nil, fmt.Errorf("points artifact holds unknown kind %d", payload.Kinds[i])
		}
		points[i] = Point{Offset: offset, Index: i, Kind: kind}
	}
	return payload.Source, points, nil
}

// PointsPath derives the artifact path for an instrumented copy.
func PointsPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + PointsExt
}

// FilePointsWriter persists artifacts beside instrumented output
// files. PathFor maps a registered source name to its artifact path.
type FilePointsWriter struct {
	PathFor func(file string) string
}

func (w *FilePointsWriter) WritePoints(file string, points []Point) error {
	data, err := EncodePoints(file, points)
	if err != nil {
		return err
	}
	path := w.PathFor(file)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return WriteFileAtomic(path, data, 0o644)
}
