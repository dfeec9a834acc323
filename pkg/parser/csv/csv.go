// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package csv

import (
	"context"
	"encoding/csv"
	"io"
	"unicode/utf8"

	"github.com/efficientgo/core/errors"

	"github.com/influx-tools/influximport/pkg/descriptor"
	"github.com/influx-tools/influximport/pkg/parser"
	"github.com/influx-tools/influximport/pkg/point"
)

// Compile-time check if Parser implements parser.Parser interface.
var _ parser.Parser = &Parser{}

// Parser reads CSV files according to a source descriptor. Column names come
// either from the header row or from the descriptor's explicit columns list.
type Parser struct {
	desc descriptor.Descriptor
}

func NewParser(desc descriptor.Descriptor) (*Parser, error) {
	hasHeader := desc.CSV.Header == nil || *desc.CSV.Header
	if !hasHeader && len(desc.CSV.Columns) == 0 {
		return nil, errors.New("csv without a header row needs an explicit columns list")
	}
	if d := desc.CSV.Delimiter; d != "" && utf8.RuneCountInString(d) != 1 {
		return nil, errors.Newf("csv delimiter %q must be a single character", d)
	}
	if len(desc.Fields) == 0 {
		return nil, errors.New("csv descriptor without fields")
	}
	return &Parser{desc: desc}, nil
}

func (p *Parser) Parse(ctx context.Context, r io.Reader, emit parser.EmitFunc) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	if p.desc.CSV.Delimiter != "" {
		cr.Comma, _ = utf8.DecodeRuneInString(p.desc.CSV.Delimiter)
	}

	columns := p.desc.CSV.Columns
	hasHeader := p.desc.CSV.Header == nil || *p.desc.CSV.Header
	if hasHeader {
		header, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read csv header")
		}
		columns = header
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	if _, ok := index[p.desc.Timestamp.Column]; !ok {
		return errors.Newf("timestamp column %q not present in csv", p.desc.Timestamp.Column)
	}

	line := 1
	if hasHeader {
		line++
	}
	for ; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read csv line %d", line)
		}

		pt, ok, err := p.row(row, index)
		if err != nil {
			return errors.Wrapf(err, "csv line %d", line)
		}
		if !ok {
			continue
		}
		if err := emit(pt); err != nil {
			return err
		}
	}
}

// row converts a single record. ok is false when none of the field columns
// carry a value, in which case the row is dropped.
func (p *Parser) row(row []string, index map[string]int) (point.Point, bool, error) {
	cell := func(column string) (string, bool) {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return "", false
		}
		return row[i], row[i] != ""
	}

	fields := make(map[string]interface{}, len(p.desc.Fields))
	for _, f := range p.desc.Fields {
		raw, ok := cell(f.Column)
		if !ok {
			continue
		}
		v, err := f.Convert(raw)
		if err != nil {
			return point.Point{}, false, err
		}
		fields[f.Name] = v
	}
	if len(fields) == 0 {
		return point.Point{}, false, nil
	}

	raw, ok := cell(p.desc.Timestamp.Column)
	if !ok {
		return point.Point{}, false, errors.Newf("empty timestamp column %q", p.desc.Timestamp.Column)
	}
	ts, err := p.desc.Timestamp.ParseTime(raw)
	if err != nil {
		return point.Point{}, false, err
	}

	tags := make(map[string]string, len(p.desc.Tags)+len(p.desc.StaticTags))
	for k, v := range p.desc.StaticTags {
		tags[k] = v
	}
	for _, t := range p.desc.Tags {
		if raw, ok := cell(t.Column); ok {
			tags[t.Name] = raw
		}
	}

	return point.Point{
		Measurement: p.desc.Measurement,
		Tags:        tags,
		Fields:      fields,
		Timestamp:   ts,
	}, true, nil
}
