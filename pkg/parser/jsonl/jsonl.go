// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package jsonl

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/efficientgo/core/errors"
	"github.com/tidwall/gjson"

	"github.com/influx-tools/influximport/pkg/descriptor"
	"github.com/influx-tools/influximport/pkg/parser"
	"github.com/influx-tools/influximport/pkg/point"
)

// Compile-time check if Parser implements parser.Parser interface.
var _ parser.Parser = &Parser{}

// Parser reads files with one JSON document per line. Descriptor columns are
// gjson paths evaluated against each record. With records_path set, each line
// may carry an array of records under that path.
type Parser struct {
	desc descriptor.Descriptor
}

func NewParser(desc descriptor.Descriptor) (*Parser, error) {
	if len(desc.Fields) == 0 {
		return nil, errors.New("jsonl descriptor without fields")
	}
	return &Parser{desc: desc}, nil
}

func (p *Parser) Parse(ctx context.Context, r io.Reader, emit parser.EmitFunc) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		doc := gjson.Parse(text)
		if !doc.IsObject() && !doc.IsArray() {
			return errors.Newf("jsonl line %d: not a JSON document", line)
		}

		records := []gjson.Result{doc}
		if p.desc.JSONL.RecordsPath != "" {
			records = doc.Get(p.desc.JSONL.RecordsPath).Array()
		}
		for _, rec := range records {
			pt, ok, err := p.record(rec)
			if err != nil {
				return errors.Wrapf(err, "jsonl line %d", line)
			}
			if !ok {
				continue
			}
			if err := emit(pt); err != nil {
				return err
			}
		}
	}
	return errors.Wrap(sc.Err(), "read jsonl")
}

func (p *Parser) record(rec gjson.Result) (point.Point, bool, error) {
	fields := make(map[string]interface{}, len(p.desc.Fields))
	for _, f := range p.desc.Fields {
		v := rec.Get(f.Column)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		converted, err := convert(f, v)
		if err != nil {
			return point.Point{}, false, err
		}
		fields[f.Name] = converted
	}
	if len(fields) == 0 {
		return point.Point{}, false, nil
	}

	tsRaw := rec.Get(p.desc.Timestamp.Column)
	if !tsRaw.Exists() {
		return point.Point{}, false, errors.Newf("missing timestamp path %q", p.desc.Timestamp.Column)
	}
	ts, err := p.desc.Timestamp.ParseTime(tsRaw.String())
	if err != nil {
		return point.Point{}, false, err
	}

	tags := make(map[string]string, len(p.desc.Tags)+len(p.desc.StaticTags))
	for k, v := range p.desc.StaticTags {
		tags[k] = v
	}
	for _, t := range p.desc.Tags {
		if v := rec.Get(t.Column); v.Exists() && v.Type != gjson.Null {
			tags[t.Name] = v.String()
		}
	}

	return point.Point{
		Measurement: p.desc.Measurement,
		Tags:        tags,
		Fields:      fields,
		Timestamp:   ts,
	}, true, nil
}

// convert interprets the gjson value per the field type. JSON numbers and
// booleans are accepted directly, anything else goes through the string
// conversion of the descriptor.
func convert(f descriptor.FieldSpec, v gjson.Result) (interface{}, error) {
	switch f.Type {
	case descriptor.Float:
		if v.Type == gjson.Number {
			return v.Float(), nil
		}
	case descriptor.Int:
		if v.Type == gjson.Number {
			return v.Int(), nil
		}
	case descriptor.Bool:
		if v.Type == gjson.True || v.Type == gjson.False {
			return v.Bool(), nil
		}
	case descriptor.String:
		return v.String(), nil
	}
	return f.Convert(v.String())
}
