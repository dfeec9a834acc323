// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

// Package status persists, per source, the modification time of the newest
// file imported so far. The file is plain JSON so operators can inspect and
// reset it by hand.
package status

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/efficientgo/core/errors"
)

type sourceStatus struct {
	LastMtime string `json:"last_mtime"`
}

// File tracks import progress per source. Not safe for concurrent use.
type File struct {
	path    string
	sources map[string]sourceStatus
}

// Open loads the status file, creating an empty one when missing.
func Open(path string) (*File, error) {
	f := &File{path: path, sources: map[string]sourceStatus{}}

	b, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return f, f.Flush()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read status file %s", path)
	}
	if err := json.Unmarshal(b, &f.sources); err != nil {
		return nil, errors.Wrapf(err, "unmarshal status file %s", path)
	}
	return f, nil
}

// LastImport returns the recorded time for a source, the epoch when the
// source has never been imported.
func (f *File) LastImport(source string) (time.Time, error) {
	s, ok := f.sources[source]
	if !ok || s.LastMtime == "" {
		return time.Unix(0, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.LastMtime)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "status for source %s holds invalid time %q", source, s.LastMtime)
	}
	return t, nil
}

// SetLastImport records the newest imported modification time for a source.
// Flush must be called to persist it.
func (f *File) SetLastImport(source string, t time.Time) {
	f.sources[source] = sourceStatus{LastMtime: t.Local().Format(time.RFC3339Nano)}
}

// Flush writes the status file atomically via a rename.
func (f *File) Flush() error {
	b, err := json.MarshalIndent(f.sources, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal status")
	}
	tmp := f.path + ".tmp"
	if err := ioutil.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrapf(err, "write status file %s", tmp)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.Wrapf(err, "rename status file to %s", f.path)
	}
	return nil
}

// Path returns the location of the status file.
func (f *File) Path() string { return f.path }

// EnsureDir creates the directory holding the status file.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
