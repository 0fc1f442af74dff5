package cover

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// SourceExt is the extension instrumented sources carry.
const SourceExt = ".mml"

// FileExists reports whether the named file exists.
func FileExists(filename string) bool {
	if _, err := os.Stat(filename); err != nil {
		return !os.IsNotExist(err)
	}
	return true
}

// SourceFile pairs a file's location on disk with the relative name
// used to register and report its points.
type SourceFile struct {
	Path string
	Rel  string
}

// FindSourceFiles expands the given arguments into the sorted list of
// sources to process. Directory arguments are walked recursively for
// files with the source extension; file arguments are taken as-is.
func FindSourceFiles(args []string) ([]SourceFile, error) {
	var files []SourceFile
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, SourceFile{Path: arg, Rel: filepath.Base(arg)})
			continue
		}
		root := filepath.Clean(arg)
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || filepath.Ext(path) != SourceExt {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, SourceFile{Path: path, Rel: filepath.ToSlash(rel)})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.SortFunc(files, func(a, b SourceFile) int {
		return strings.Compare(a.Rel, b.Rel)
	})
	return files, nil
}

// WriteFileAtomic writes data to a temporary file beside path and
// moves it into place, so readers never observe a partial write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmpName)
		return errors.Join(werr, cerr)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return replaceFile(tmpName, path)
}

func replaceFile(source, destination string) error {
	if _, err := os.Stat(destination); err == nil {
		if err = os.Remove(destination); err != nil {
			return err
		}
	}

	// Rename the source to the destination (requires same filesystem)
	return os.Rename(source, destination)
}
