// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package factory

import (
	"strings"

	"github.com/efficientgo/core/errors"

	"github.com/influx-tools/influximport/pkg/descriptor"
	"github.com/influx-tools/influximport/pkg/parser"
	"github.com/influx-tools/influximport/pkg/parser/csv"
	"github.com/influx-tools/influximport/pkg/parser/jsonl"
	"github.com/influx-tools/influximport/pkg/parser/senml"
)

// NewParser creates parser.Parser for the given format and source descriptor.
func NewParser(format parser.Format, desc descriptor.Descriptor) (parser.Parser, error) {
	switch parser.Format(strings.ToUpper(string(format))) {
	case parser.CSV:
		return csv.NewParser(desc)
	case parser.JSONL:
		return jsonl.NewParser(desc)
	case parser.SENML:
		return senml.NewParser(desc)
	default:
		return nil, errors.Newf("unsupported parser format %s", format)
	}
}
