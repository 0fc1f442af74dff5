package cover

import (
	"errors"
	"fmt"

	"github.com/mmltools/mmlcov/mml"
)

// Session carries the state of one instrumentation run: the point
// table, the set of files that already received setup code, the kind
// registry, and the mode. A session is single-threaded; files are
// instrumented one at a time and finalized once at the end.
type Session struct {
	mode  Mode
	reg   *KindRegistry
	table *PointTable
	seen  map[string]bool
}

func NewSession(mode Mode, reg *KindRegistry) *Session {
	return &Session{
		mode:  mode,
		reg:   reg,
		table: NewPointTable(),
		seen:  make(map[string]bool),
	}
}

// InstrumentFile rewrites a parsed file in place, registering its
// points under name. Setup phrases are prepended only after every
// phrase is walked, so counter arrays are sized with the file's final
// point count. A file seen earlier in the run is never set up twice,
// and a file with no phrases gets a table entry but no setup.
func (s *Session) InstrumentFile(name string, f *mml.File) {
	in := &instrumenter{file: name, mode: s.mode, reg: s.reg, table: s.table}
	for _, ph := range f.Phrases {
		in.walkPhrase(ph)
	}
	s.table.EnsureFileKnown(name)
	if len(f.Phrases) == 0 || s.seen[name] {
		return
	}
	s.seen[name] = true
	setup := s.mode.setupPhrases(name, s.table.CountFor(name))
	f.Phrases = append(setup, f.Phrases...)
}

// RestoreFile installs cached points for a file without re-walking
// it, marking the file touched so the finalizer persists it.
func (s *Session) RestoreFile(name string, points []Point) error {
	if err := s.table.Restore(name, points); err != nil {
		return err
	}
	s.seen[name] = true
	return nil
}

// Points returns the file's registered points in index order.
func (s *Session) Points(file string) []Point {
	return s.table.PointsFor(file)
}

// Files returns every file the session has touched, sorted.
func (s *Session) Files() []string {
	return s.table.Files()
}

// PointsWriter persists one file's final point sequence.
type PointsWriter interface {
	WritePoints(file string, points []Point) error
}

// Finalize persists the point table for every touched file, including
// files that registered zero points. A failure on one file is
// reported with its name and does not stop the remaining files.
func (s *Session) Finalize(w PointsWriter) error {
	for file := range s.seen {
		s.table.EnsureFileKnown(file)
	}
	var errs []error
	for _, file := range s.table.Files() {
		if err := w.WritePoints(file, s.table.PointsFor(file)); err != nil {
			errs = append(errs, fmt.Errorf("write points for %s: %w", file, err))
		}
	}
	return errors.Join(errs...)
}
