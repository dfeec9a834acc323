// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package sink

import (
	"context"

	"github.com/prometheus/common/model"

	"github.com/influx-tools/influximport/pkg/point"
)

// Config contains the options determining the InfluxDB endpoint to write to.
type Config struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`

	BatchSize    int            `yaml:"batch_size"`
	FlushTimeout model.Duration `yaml:"flush_timeout"`
	MaxRetries   uint64         `yaml:"max_retries"`
}

// Writer consumes points, buffering them into batches.
type Writer interface {
	// Write buffers one point; a full buffer is flushed transparently.
	Write(ctx context.Context, p point.Point) error
	// Flush forces a partial batch out.
	Flush(ctx context.Context) error
	Close() error
}
