// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package senml

import (
	"context"
	"io"
	"io/ioutil"
	"math"
	"time"

	"github.com/efficientgo/core/errors"
	"github.com/mainflux/senml"

	"github.com/influx-tools/influximport/pkg/descriptor"
	"github.com/influx-tools/influximport/pkg/parser"
	"github.com/influx-tools/influximport/pkg/point"
)

// Compile-time check if Parser implements parser.Parser interface.
var _ parser.Parser = &Parser{}

// Parser reads SenML JSON packs. The payload is self-describing, so the
// descriptor only contributes an optional measurement override and static
// tags; without an override each record's resolved name is the measurement.
type Parser struct {
	desc descriptor.Descriptor
}

func NewParser(desc descriptor.Descriptor) (*Parser, error) {
	return &Parser{desc: desc}, nil
}

func (p *Parser) Parse(ctx context.Context, r io.Reader, emit parser.EmitFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := ioutil.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "read senml payload")
	}

	pack, err := senml.Decode(payload, senml.JSON)
	if err != nil {
		return errors.Wrap(err, "decode senml")
	}
	normalized, err := senml.Normalize(pack)
	if err != nil {
		return errors.Wrap(err, "normalize senml")
	}

	for _, rec := range normalized.Records {
		pt, ok := p.record(rec)
		if !ok {
			continue
		}
		if err := emit(pt); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) record(rec senml.Record) (point.Point, bool) {
	fields := make(map[string]interface{}, 2)
	if rec.Value != nil {
		fields["value"] = *rec.Value
	}
	if rec.BoolValue != nil {
		fields["bool_value"] = *rec.BoolValue
	}
	if rec.StringValue != nil {
		fields["string_value"] = *rec.StringValue
	}
	if rec.DataValue != nil {
		fields["data_value"] = *rec.DataValue
	}
	if rec.Sum != nil {
		fields["sum"] = *rec.Sum
	}
	if len(fields) == 0 {
		return point.Point{}, false
	}

	measurement := p.desc.Measurement
	if measurement == "" {
		measurement = rec.Name
	}

	tags := make(map[string]string, len(p.desc.StaticTags)+2)
	for k, v := range p.desc.StaticTags {
		tags[k] = v
	}
	if measurement != rec.Name && rec.Name != "" {
		tags["name"] = rec.Name
	}
	if rec.Unit != "" {
		tags["unit"] = rec.Unit
	}

	sec, dec := math.Modf(rec.Time)
	ts := time.Unix(int64(sec), int64(dec*1e9)).UTC()

	return point.Point{
		Measurement: measurement,
		Tags:        tags,
		Fields:      fields,
		Timestamp:   ts,
	}, true
}
