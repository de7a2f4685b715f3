// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package assets finds model, texture and shader files in directories,
// kar archives and the resources built into the binary.
package assets

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobuffalo/packd"
	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"

	"github.com/devblok/postfx/utility/kar"
)

// Source is a read-only collection of named files.
type Source interface {

	// ReadFile returns the contents of the named file. A missing
	// file is reported with an error satisfying IsNotExist.
	ReadFile(name string) ([]byte, error)

	// List returns the names of all files, sorted.
	List() ([]string, error)
}

// IsNotExist reports whether err means the file is not in a source.
func IsNotExist(err error) bool {
	err = errors.Cause(err)
	return os.IsNotExist(err) || err == kar.ErrNoFile
}

// Dir is a Source over a directory on disk.
type Dir string

// ReadFile implements interface
func (d Dir) ReadFile(name string) ([]byte, error) {
	return ioutil.ReadFile(filepath.Join(string(d), filepath.FromSlash(name)))
}

// List implements interface
func (d Dir) List() ([]string, error) {
	var names []string
	root := string(d)
	if err := filepath.Walk(root, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if f.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Box is a Source over a packr box.
type Box struct {
	packr.Box
}

// Builtin returns the resources compiled into the binary: the default
// shaders, a cube model and a crate texture.
func Builtin() Box {
	return Box{packr.NewBox("./data")}
}

// ReadFile implements interface
func (b Box) ReadFile(name string) ([]byte, error) {
	return b.Find(name)
}

// List implements interface
func (b Box) List() ([]string, error) {
	var names []string
	if err := b.Walk(func(path string, f packd.File) error {
		names = append(names, filepath.ToSlash(path))
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Archive is a Source over a kar archive.
type Archive struct {
	*kar.Archive

	closer func() error
}

// NewArchive wraps an opened kar archive.
func NewArchive(ar *kar.Archive) *Archive {
	return &Archive{Archive: ar}
}

// OpenArchive memory maps a kar archive from disk.
func OpenArchive(path string) (*Archive, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	ar, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, errors.Wrap(err, "kar.Open(): "+path)
	}
	return &Archive{Archive: ar, closer: r.Close}, nil
}

// ReadFile implements interface
func (a *Archive) ReadFile(name string) ([]byte, error) {
	return a.ReadAll(strings.TrimPrefix(name, "/"))
}

// List implements interface
func (a *Archive) List() ([]string, error) {
	return a.Archive.List(), nil
}

// Close unmaps the archive.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

// Chain searches sources in order, the first one holding a file wins.
type Chain []Source

// ReadFile implements interface
func (c Chain) ReadFile(name string) ([]byte, error) {
	for _, s := range c {
		data, err := s.ReadFile(name)
		if err == nil {
			return data, nil
		}
		if !IsNotExist(err) {
			return nil, err
		}
	}
	return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
}

// List implements interface
func (c Chain) List() ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for _, s := range c {
		list, err := s.List()
		if err != nil {
			return nil, err
		}
		for _, name := range list {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}
