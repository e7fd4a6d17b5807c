// Package archive mounts an application: a zip file or a directory, read
// through io/fs.
package archive

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wrx-engine/errors"
	"github.com/wippyai/wrx-engine/value"
)

// DefaultName is the application looked up when none is given.
const DefaultName = "go.wrx.zip"

// Putter receives loaded files. The engine's object table satisfies it.
type Putter interface {
	Put(key string, v value.Value) error
}

// Archive is a mounted application.
type Archive struct {
	fsys   fs.FS
	closer io.Closer
	path   string
}

// Open mounts path. A directory is served as is; any other file is read as
// a zip archive.
func Open(path string) (*Archive, error) {
	if path == "" {
		path = DefaultName
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Load("mount "+path, err)
	}
	if info.IsDir() {
		Logger().Debug("mounted directory", zap.String("path", path))
		return &Archive{fsys: os.DirFS(path), path: path}, nil
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Load("open zip "+path, err)
	}
	Logger().Debug("mounted zip",
		zap.String("path", path),
		zap.Int("entries", len(zr.File)))
	return &Archive{fsys: zr, closer: zr, path: path}, nil
}

// FromFS wraps an existing file system.
func FromFS(fsys fs.FS, name string) *Archive {
	return &Archive{fsys: fsys, path: name}
}

// Path returns the mounted location.
func (a *Archive) Path() string { return a.path }

// FS exposes the archive as a file system.
func (a *Archive) FS() fs.FS { return a.fsys }

// ReadFile returns the contents of a file by its logical path.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	data, err := fs.ReadFile(a.fsys, clean(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.PhaseArchive, errors.KindNotFound).
				Path(name).
				Detail("%s not in %s", name, a.path).
				Cause(err).
				Build()
		}
		return nil, errors.Load("read "+name, err)
	}
	return data, nil
}

// List returns every regular file in the archive, sorted.
func (a *Archive) List() ([]string, error) {
	var names []string
	err := fs.WalkDir(a.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Load("list "+a.path, err)
	}
	sort.Strings(names)
	return names, nil
}

// LoadInto stores every file matching one of patterns in dst as a Binary
// value keyed by its logical path. It returns the loaded names.
func (a *Archive) LoadInto(dst Putter, patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	names, err := a.List()
	if err != nil {
		return nil, err
	}
	var loaded []string
	for _, name := range names {
		ok, err := matchAny(patterns, name)
		if err != nil {
			return loaded, errors.New(errors.PhaseArchive, errors.KindInvalidInput).
				Detail("bad pattern").
				Cause(err).
				Build()
		}
		if !ok {
			continue
		}
		data, err := a.ReadFile(name)
		if err != nil {
			return loaded, err
		}
		if err := dst.Put(name, value.NewBinary(name, data)); err != nil {
			return loaded, err
		}
		loaded = append(loaded, name)
	}
	Logger().Debug("preloaded files",
		zap.String("archive", a.path),
		zap.Int("count", len(loaded)))
	return loaded, nil
}

// Close releases the underlying zip reader, if any.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

func matchAny(patterns []string, name string) (bool, error) {
	for _, p := range patterns {
		ok, err := path.Match(p, name)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func clean(name string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		return "."
	}
	return name
}
