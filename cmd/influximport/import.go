// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package main

import (
	"context"
	"path"

	"github.com/efficientgo/core/errors"
	"github.com/efficientgo/tools/extkingpin"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/thanos-io/objstore/client"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v2"

	"github.com/influx-tools/influximport/pkg/importer"
	sinkfactory "github.com/influx-tools/influximport/pkg/sink/factory"
	"github.com/influx-tools/influximport/pkg/status"
	"github.com/influx-tools/influximport/pkg/version"
)

func registerImport(m map[string]setupFunc, app *kingpin.Application) {
	cmd := app.Command("import", "Import new data files into InfluxDB.")
	configFlag := extkingpin.RegisterPathOrContent(cmd, "config", "YAML configuration for the import.", extkingpin.WithRequired())
	dryRun := cmd.Flag("dry-run", "Parse and print points instead of writing them; the status file is left untouched.").Bool()
	sources := cmd.Flag("source", "Limit the run to the named source. Repeatable.").Strings()

	m[cmd.FullCommand()] = func(g *run.Group, logger log.Logger) error {
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			confYaml, err := configFlag.Content()
			if err != nil {
				return err
			}
			cfg, err := importer.ParseConfig(confYaml)
			if err != nil {
				return err
			}
			return runImport(ctx, logger, cfg, *sources, *dryRun)
		}, func(error) {
			cancel()
		})
		return nil
	}
}

func runImport(ctx context.Context, logger log.Logger, cfg importer.Config, sources []string, dryRun bool) (err error) {
	storageConf, err := yaml.Marshal(cfg.Files.Storage)
	if err != nil {
		return errors.Wrap(err, "storage configuration")
	}
	bkt, err := client.NewBucket(logger, storageConf, nil, path.Join("influximport", version.Version))
	if err != nil {
		return errors.Wrap(err, "creating storage")
	}
	defer func() {
		if cerr := bkt.Close(); cerr != nil {
			level.Warn(logger).Log("msg", "closing storage failed", "err", cerr)
		}
	}()

	if err := status.EnsureDir(cfg.Files.StatusFile); err != nil {
		return errors.Wrap(err, "creating status directory")
	}
	st, err := status.Open(cfg.Files.StatusFile)
	if err != nil {
		return err
	}

	out, err := sinkfactory.NewWriter(ctx, logger, cfg.Database, dryRun)
	if err != nil {
		return errors.Wrap(err, "creating sink")
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return importer.New(logger, cfg, bkt, st, out, dryRun).Run(ctx, sources)
}
