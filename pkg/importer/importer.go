// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

// Package importer drives an import run: per source, load the descriptor,
// find the files that appeared since the last run, stream their records into
// the sink and advance the status file.
package importer

import (
	"context"
	"path"
	"sort"

	"github.com/efficientgo/core/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/thanos-io/objstore"

	"github.com/influx-tools/influximport/pkg/descriptor"
	"github.com/influx-tools/influximport/pkg/parser"
	parserfactory "github.com/influx-tools/influximport/pkg/parser/factory"
	"github.com/influx-tools/influximport/pkg/point"
	"github.com/influx-tools/influximport/pkg/scan"
	"github.com/influx-tools/influximport/pkg/sink"
	"github.com/influx-tools/influximport/pkg/status"
)

// Importer imports all configured sources. One-shot, not safe for concurrent
// use.
type Importer struct {
	logger log.Logger
	cfg    Config
	bkt    objstore.BucketReader
	st     *status.File
	out    sink.Writer
	dryRun bool
}

func New(logger log.Logger, cfg Config, bkt objstore.BucketReader, st *status.File, out sink.Writer, dryRun bool) *Importer {
	return &Importer{logger: logger, cfg: cfg, bkt: bkt, st: st, out: out, dryRun: dryRun}
}

// Run imports every configured source, or only the named ones when sources is
// not empty. A failing source aborts the run; its status entry stays behind
// so the next run retries the same files.
func (i *Importer) Run(ctx context.Context, sources []string) error {
	names, err := i.sourceNames(sources)
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := i.runSource(ctx, name, i.cfg.Files.Sources[name]); err != nil {
			return errors.Wrapf(err, "source %s", name)
		}
	}
	return nil
}

// sourceNames resolves the source filter against the configuration. Sources
// run in name order so runs are deterministic.
func (i *Importer) sourceNames(filter []string) ([]string, error) {
	if len(filter) == 0 {
		names := make([]string, 0, len(i.cfg.Files.Sources))
		for name := range i.cfg.Files.Sources {
			names = append(names, name)
		}
		sort.Strings(names)
		return names, nil
	}

	for _, name := range filter {
		if _, ok := i.cfg.Files.Sources[name]; !ok {
			return nil, errors.Newf("unknown source %s", name)
		}
	}
	names := append([]string(nil), filter...)
	sort.Strings(names)
	return names, nil
}

func (i *Importer) runSource(ctx context.Context, name string, src SourceConfig) error {
	logger := log.With(i.logger, "source", name)

	desc, err := descriptor.Load(ctx, i.bkt, path.Join(i.cfg.Files.BaseDir, src.Descriptor))
	if err != nil {
		return err
	}
	p, err := parserfactory.NewParser(src.Format, desc)
	if err != nil {
		return err
	}

	last, err := i.st.LastImport(name)
	if err != nil {
		return err
	}
	sc, err := scan.NewScanner(i.bkt, path.Join(i.cfg.Files.BaseDir, src.Subdir), src.Pattern)
	if err != nil {
		return err
	}
	files, err := sc.NewerThan(ctx, last)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		level.Debug(logger).Log("msg", "no new files")
		return nil
	}

	var points int
	emit := func(pt point.Point) error {
		points++
		return i.out.Write(ctx, pt)
	}

	newest := last
	for _, f := range files {
		if err := i.importFile(ctx, f.Name, p, emit); err != nil {
			return err
		}
		if f.ModifiedAt.After(newest) {
			newest = f.ModifiedAt
		}
	}
	if err := i.out.Flush(ctx); err != nil {
		return err
	}

	i.st.SetLastImport(name, newest)
	if !i.dryRun {
		if err := i.st.Flush(); err != nil {
			return err
		}
	}

	level.Info(logger).Log("msg", "source imported", "files", len(files), "points", points, "last_mtime", newest)
	return nil
}

func (i *Importer) importFile(ctx context.Context, name string, p parser.Parser, emit parser.EmitFunc) (err error) {
	rc, err := i.bkt.Get(ctx, name)
	if err != nil {
		return errors.Wrapf(err, "get %s", name)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := p.Parse(ctx, rc, emit); err != nil {
		return errors.Wrapf(err, "parse %s", name)
	}
	return nil
}
