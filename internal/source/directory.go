// Package source provides the concrete datasource backends of the toolbox:
// directory scanners, synthetic generators, frame grabbers, object stores,
// databases and live feeds. Each backend implements the capability
// interfaces from internal/datasource that match what it can do.
//
// Backends are not safe for concurrent use on their own; the wrapping
// datasource.Source serializes all backend calls.
package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fvbommel/sortorder"
	"github.com/pkg/errors"

	"github.com/dlscope/dlscope/internal/datasource"
)

// Directory is an indexed backend over the files of a directory, ordered by
// natural sort of their names. Payloads are the raw file contents.
type Directory struct {
	root  string
	exts  map[string]bool
	files []string
}

// NewDirectory creates a directory backend rooted at root. When extensions
// are given (e.g. ".png", ".jpg") only matching files are listed; otherwise
// every regular file counts.
func NewDirectory(root string, extensions ...string) *Directory {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Directory{root: root, exts: exts}
}

// Kind implements datasource.Backend.
func (d *Directory) Kind() string { return "directory" }

// Available reports whether the root exists and is a directory.
func (d *Directory) Available() bool {
	info, err := os.Stat(d.root)
	return err == nil && info.IsDir()
}

// PrepareData scans the directory and builds the sorted file list.
func (d *Directory) PrepareData(ctx context.Context) error {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return errors.Wrapf(err, "scanning %s", d.root)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if len(d.exts) > 0 && !d.exts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Slice(files, func(i, j int) bool {
		return sortorder.NaturalLess(files[i], files[j])
	})
	d.files = files
	return nil
}

// UnprepareData drops the file list.
func (d *Directory) UnprepareData() error {
	d.files = nil
	return nil
}

// Len implements datasource.IndexedBackend.
func (d *Directory) Len() int { return len(d.files) }

// FetchIndex reads the file at the given position.
func (d *Directory) FetchIndex(ctx context.Context, index int) (datasource.Datapoint, error) {
	name := d.files[index]
	return d.LoadDatapointFromFile(filepath.Join(d.root, name))
}

// LoadDatapointFromFile loads a single datapoint from an arbitrary file.
func (d *Directory) LoadDatapointFromFile(path string) (datasource.Datapoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return datasource.Datapoint{}, errors.Wrapf(err, "reading %s", path)
	}
	return datasource.Datapoint{Bytes: data, Name: filepath.Base(path)}, nil
}
