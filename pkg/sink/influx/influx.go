// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package influx

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/efficientgo/core/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/influx-tools/influximport/pkg/point"
	"github.com/influx-tools/influximport/pkg/sink"
)

// Compile-time check if Writer implements sink.Writer interface.
var _ sink.Writer = &Writer{}

// Writer buffers points and writes them to InfluxDB with the blocking write
// API, one call per batch. Failed batches are retried with exponential
// backoff before the error is surfaced.
type Writer struct {
	logger log.Logger
	cfg    sink.Config

	client influxdb2.Client
	write  api.WriteAPIBlocking

	buf     []*write.Point
	written int
}

// NewWriter connects to InfluxDB and verifies the endpoint with a ping.
func NewWriter(ctx context.Context, logger log.Logger, cfg sink.Config) (*Writer, error) {
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().SetBatchSize(uint(cfg.BatchSize)))

	up, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "ping %s", cfg.URL)
	}
	if !up {
		client.Close()
		return nil, errors.Newf("influxdb at %s is not ready", cfg.URL)
	}

	return &Writer{
		logger: logger,
		cfg:    cfg,
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		buf:    make([]*write.Point, 0, cfg.BatchSize),
	}, nil
}

func (w *Writer) Write(ctx context.Context, p point.Point) error {
	if err := p.Validate(); err != nil {
		return err
	}
	w.buf = append(w.buf, influxdb2.NewPoint(p.Measurement, p.Tags, p.Fields, p.Timestamp))
	if len(w.buf) < w.cfg.BatchSize {
		return nil
	}
	return w.Flush(ctx)
}

func (w *Writer) Flush(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}

	flushCtx := ctx
	if w.cfg.FlushTimeout > 0 {
		var cancel context.CancelFunc
		flushCtx, cancel = context.WithTimeout(ctx, time.Duration(w.cfg.FlushTimeout))
		defer cancel()
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), w.cfg.MaxRetries), flushCtx)
	if err := backoff.Retry(func() error {
		return w.write.WritePoint(flushCtx, w.buf...)
	}, bo); err != nil {
		return errors.Wrapf(err, "write batch of %d points to bucket %s", len(w.buf), w.cfg.Bucket)
	}

	w.written += len(w.buf)
	level.Debug(w.logger).Log("msg", "batch written", "points", len(w.buf), "total", w.written)
	w.buf = w.buf[:0]
	return nil
}

func (w *Writer) Close() error {
	w.client.Close()
	return nil
}

// Written returns the number of points flushed to InfluxDB so far.
func (w *Writer) Written() int { return w.written }
