// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package parser

import (
	"context"
	"io"

	"github.com/influx-tools/influximport/pkg/point"
)

// Format identifies a supported input file format.
type Format string

const (
	CSV   Format = "CSV"
	JSONL Format = "JSONL"
	SENML Format = "SENML"
)

// EmitFunc receives points in file order. Returning an error aborts the parse.
type EmitFunc func(point.Point) error

// Parser turns the content of a single data file into points.
type Parser interface {
	// Parse reads records from r and emits them in file order.
	Parse(ctx context.Context, r io.Reader, emit EmitFunc) error
}
