package goibis

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goibis/goibis/ibis"
)

// DefaultExtensions maps the conventional file extensions to dialects.
var DefaultExtensions = map[string]ibis.Dialect{
	".ibs": ibis.DialectIBS,
	".pkg": ibis.DialectPKG,
	".ebd": ibis.DialectEBD,
}

// DialectFromPath returns the dialect for path's extension, ignoring
// case. It reports false, with DialectIBS, when the extension is not in
// exts.
func DialectFromPath(path string, exts map[string]ibis.Dialect) (ibis.Dialect, bool) {
	d, ok := exts[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return ibis.DialectIBS, false
	}
	return d, true
}

// Source lists and opens IBIS files.
type Source interface {
	// ListFiles returns the paths of all files with a known extension.
	ListFiles(exts map[string]ibis.Dialect) ([]string, error)

	// Open returns the content of a path returned by ListFiles.
	Open(path string) (io.ReadCloser, error)
}

// --- Dir Source (single directory) ---

type dirSource struct {
	path string
}

// Dir creates a Source over the files of a single directory (no
// recursion).
func Dir(path string) (Source, error) {
	if err := checkDir(path); err != nil {
		return nil, err
	}
	return &dirSource{path: path}, nil
}

func (s *dirSource) ListFiles(exts map[string]ibis.Dialect) ([]string, error) {
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.path, entry.Name())
		if _, ok := DialectFromPath(path, exts); ok {
			files = append(files, path)
		}
	}
	return files, nil
}

func (s *dirSource) Open(path string) (io.ReadCloser, error) { return os.Open(path) }

// --- DirTree Source (recursive directory) ---

type treeSource struct {
	root string
}

// DirTree creates a Source that walks a directory tree. Unreadable
// subdirectories are skipped.
func DirTree(root string) (Source, error) {
	if err := checkDir(root); err != nil {
		return nil, err
	}
	return &treeSource{root: root}, nil
}

func (s *treeSource) ListFiles(exts map[string]ibis.Dialect) ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := DialectFromPath(path, exts); ok {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (s *treeSource) Open(path string) (io.ReadCloser, error) { return os.Open(path) }

// --- FS Source (for embed.FS, testing) ---

type fsSource struct {
	fsys fs.FS

	once  sync.Once
	files []string
	err   error
}

// FS creates a Source backed by an fs.FS. The tree is walked once, on
// the first ListFiles call.
func FS(fsys fs.FS) Source {
	return &fsSource{fsys: fsys}
}

func (s *fsSource) ListFiles(exts map[string]ibis.Dialect) ([]string, error) {
	s.once.Do(func() {
		s.err = fs.WalkDir(s.fsys, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				s.files = append(s.files, path)
			}
			return nil
		})
	})
	if s.err != nil {
		return nil, s.err
	}
	var files []string
	for _, path := range s.files {
		if _, ok := DialectFromPath(path, exts); ok {
			files = append(files, path)
		}
	}
	return files, nil
}

func (s *fsSource) Open(path string) (io.ReadCloser, error) { return s.fsys.Open(path) }

// --- Multi Source (combines multiple sources) ---

type multiSource struct {
	sources []Source
}

// Multi combines sources. Paths are opened through the source that
// listed them.
func Multi(sources ...Source) Source {
	return &multiSource{sources: sources}
}

func (s *multiSource) ListFiles(exts map[string]ibis.Dialect) ([]string, error) {
	var files []string
	for _, src := range s.sources {
		f, err := src.ListFiles(exts)
		if err != nil {
			return nil, err
		}
		files = append(files, f...)
	}
	return files, nil
}

func (s *multiSource) Open(path string) (io.ReadCloser, error) {
	var firstErr error
	for _, src := range s.sources {
		r, err := src.Open(path)
		if err == nil {
			return r, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = fs.ErrNotExist
	}
	return nil, firstErr
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}
	return nil
}
