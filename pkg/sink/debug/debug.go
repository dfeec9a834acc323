// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package debug

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/influx-tools/influximport/pkg/point"
	"github.com/influx-tools/influximport/pkg/sink"
)

// Compile-time check if Writer implements sink.Writer interface.
var _ sink.Writer = &Writer{}

// Writer renders points into a readable table instead of writing them
// anywhere. Used for dry runs and in example tests. Uses tabwriter so the
// columns line up and sorts tags and fields so the output is deterministic.
//
// If next is present, points are forwarded there as well.
type Writer struct {
	w       *tabwriter.Writer
	next    sink.Writer
	started bool
}

func NewWriter(w io.Writer, next sink.Writer) *Writer {
	tabw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	return &Writer{w: tabw, next: next}
}

func (w *Writer) Write(ctx context.Context, p point.Point) error {
	if !w.started {
		// Adding | <-   -> | around the lines to avoid dealing with trailing
		// spaces in example output checking.
		fmt.Fprint(w.w, "| measurement\ttimestamp\ttags\tfields\t|\n")
		w.started = true
	}

	fmt.Fprintf(w.w, "| %s\t%s\t%s\t%s\t|\n",
		p.Measurement,
		p.Timestamp.UTC().Format(time.RFC3339),
		pairs(p.TagKeys(), func(k string) string { return p.Tags[k] }),
		pairs(p.FieldKeys(), func(k string) string { return fmt.Sprintf("%v", p.Fields[k]) }),
	)

	if w.next != nil {
		return w.next.Write(ctx, p)
	}
	return nil
}

func (w *Writer) Flush(ctx context.Context) error {
	if w.next != nil {
		return w.next.Flush(ctx)
	}
	return nil
}

func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return err
	}
	if w.next != nil {
		return w.next.Close()
	}
	return nil
}

func pairs(keys []string, value func(string) string) string {
	if len(keys) == 0 {
		return "-"
	}
	kv := make([]string, 0, len(keys))
	for _, k := range keys {
		kv = append(kv, k+"="+value(k))
	}
	return strings.Join(kv, ",")
}
