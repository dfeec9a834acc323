// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

// Package scan finds the data files a source still has to import: objects in
// the source directory whose name matches the source pattern and whose
// modification time is after the recorded status time.
package scan

import (
	"context"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/efficientgo/core/errors"
	"github.com/thanos-io/objstore"
)

// FileInfo describes one data file to import.
type FileInfo struct {
	// Name is the full object name within the bucket.
	Name       string
	ModifiedAt time.Time
}

// Scanner lists new files for a single source directory.
type Scanner struct {
	bkt     objstore.BucketReader
	dir     string
	pattern *regexp.Regexp
}

// NewScanner builds a scanner for dir. The pattern must match the whole base
// name of an object; an empty pattern accepts every object.
func NewScanner(bkt objstore.BucketReader, dir, pattern string) (*Scanner, error) {
	var re *regexp.Regexp
	if pattern != "" {
		var err error
		if re, err = regexp.Compile("^(?:" + pattern + ")$"); err != nil {
			return nil, errors.Wrapf(err, "compile pattern %q", pattern)
		}
	}
	return &Scanner{bkt: bkt, dir: dir, pattern: re}, nil
}

// NewerThan returns the files modified strictly after the given time, ordered
// by modification time ascending (ties broken by name). Objects that vanish
// between listing and stat (e.g. temp files) are dropped silently.
func (s *Scanner) NewerThan(ctx context.Context, after time.Time) ([]FileInfo, error) {
	var files []FileInfo
	err := s.bkt.Iter(ctx, s.dir, func(name string) error {
		if strings.HasSuffix(name, objstore.DirDelim) {
			return nil
		}
		if s.pattern != nil && !s.pattern.MatchString(path.Base(name)) {
			return nil
		}
		attrs, err := s.bkt.Attributes(ctx, name)
		if s.bkt.IsObjNotFoundErr(err) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "attributes of %s", name)
		}
		if !attrs.LastModified.After(after) {
			return nil
		}
		files = append(files, FileInfo{Name: name, ModifiedAt: attrs.LastModified})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "iter %s", s.dir)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModifiedAt.Equal(files[j].ModifiedAt) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModifiedAt.Before(files[j].ModifiedAt)
	})
	return files, nil
}
