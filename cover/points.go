package cover

import (
	"fmt"
	"slices"

	"github.com/go-analyze/bulk"
)

// Point is one instrumentation site within a file.
type Point struct {
	// Offset is the byte position of the marked expression in the
	// original source.
	Offset int `msgpack:"o"`
	// Index is the point's position in the file's registration order.
	Index int `msgpack:"i"`
	// Kind classifies the marked construct.
	Kind Kind `msgpack:"k"`
}

// PointTable accumulates coverage points across one instrumentation
// run. Indices are dense per file and assigned in registration order;
// once assigned they never move, since runtimes correlate counters to
// points purely by index.
type PointTable struct {
	points  map[string][]Point
	offsets map[string]map[int]int
}

func NewPointTable() *PointTable {
	return &PointTable{
		points:  make(map[string][]Point),
		offsets: make(map[string]map[int]int),
	}
}

// Register records a point at the given source offset. When the offset
// was already registered for the file, the existing index is returned
// with alreadyMarked set and the table is unchanged.
func (t *PointTable) Register(file string, offset int, kind Kind) (index int, alreadyMarked bool) {
	t.EnsureFileKnown(file)
	if idx, ok := t.offsets[file][offset]; ok {
		return idx, true
	}
	index = len(t.points[file])
	t.points[file] = append(t.points[file], Point{Offset: offset, Index: index, Kind: kind})
	t.offsets[file][offset] = index
	return index, false
}

// EnsureFileKnown makes the file visible to Files and the finalizer
// even when no point is ever registered for it.
func (t *PointTable) EnsureFileKnown(file string) {
	if _, ok := t.points[file]; !ok {
		t.points[file] = nil
		t.offsets[file] = make(map[int]int)
	}
}

// CountFor returns the number of points registered for a file so far.
func (t *PointTable) CountFor(file string) int {
	return len(t.points[file])
}

// PointsFor returns a copy of the file's points in index order.
func (t *PointTable) PointsFor(file string) []Point {
	return slices.Clone(t.points[file])
}

// Files returns every known file in sorted order.
func (t *PointTable) Files() []string {
	files := bulk.MapKeysSlice(t.points)
	slices.Sort(files)
	return files
}

// Restore installs previously computed points for a file, as recovered
// from the result cache. The slice must be dense in index order with
// unique offsets.
func (t *PointTable) Restore(file string, points []Point) error {
	offsets := make(map[int]int, len(points))
	for i, p := range points {
		if p.Index != i {
			return fmt.Errorf("restored points for %s out of order: index %d at position %d", file, p.Index, i)
		}
		if _, dup := offsets[p.Offset]; dup {
			return fmt.Errorf("restored points for %s repeat offset %d", file, p.Offset)
		}
		offsets[p.Offset] = i
	}
	t.points[file] = slices.Clone(points)
	t.offsets[file] = offsets
	return nil
}
