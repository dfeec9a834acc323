// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package factory

import (
	"context"
	"os"

	"github.com/go-kit/log"

	"github.com/influx-tools/influximport/pkg/sink"
	"github.com/influx-tools/influximport/pkg/sink/debug"
	"github.com/influx-tools/influximport/pkg/sink/influx"
)

// NewWriter returns the sink points are imported into. A dry run prints the
// points to stdout instead of touching InfluxDB.
func NewWriter(ctx context.Context, logger log.Logger, cfg sink.Config, dryRun bool) (sink.Writer, error) {
	if dryRun {
		return debug.NewWriter(os.Stdout, nil), nil
	}
	return influx.NewWriter(ctx, logger, cfg)
}
