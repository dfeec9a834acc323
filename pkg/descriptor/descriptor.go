// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

// Package descriptor defines the per-source mapping files that tell parsers
// how to turn file records into points: the target measurement, which column
// holds the timestamp and how to parse it, and which columns become tags and
// fields.
package descriptor

import (
	"context"
	"io/ioutil"
	"strconv"
	"strings"
	"time"

	"github.com/efficientgo/core/errors"
	"github.com/thanos-io/objstore"
	"gopkg.in/yaml.v2"
)

// FieldType determines how a raw cell value is converted before being written.
type FieldType string

const (
	Float  FieldType = "float"
	Int    FieldType = "int"
	Bool   FieldType = "bool"
	String FieldType = "string"
)

// Well-known timestamp layouts. Anything else is treated as a Go time layout.
const (
	LayoutRFC3339 = "rfc3339"
	LayoutUnix    = "unix"
	LayoutUnixMs  = "unix_ms"
)

// TimestampSpec describes where the record timestamp comes from and how to
// parse it.
type TimestampSpec struct {
	Column   string `yaml:"column"`
	Layout   string `yaml:"layout"`
	Timezone string `yaml:"timezone"`

	loc *time.Location
}

// TagSpec maps a record column to a tag. Name defaults to Column.
type TagSpec struct {
	Column string `yaml:"column"`
	Name   string `yaml:"name"`
}

// FieldSpec maps a record column to a typed field. Name defaults to Column.
type FieldSpec struct {
	Column string    `yaml:"column"`
	Name   string    `yaml:"name"`
	Type   FieldType `yaml:"type"`
}

// CSVSpec holds CSV-specific parsing options.
type CSVSpec struct {
	Delimiter string `yaml:"delimiter"`
	// Header indicates the first row carries column names. When false,
	// Columns must name every column in file order.
	Header  *bool    `yaml:"header"`
	Columns []string `yaml:"columns"`
}

// JSONLSpec holds JSON-lines-specific parsing options. Column values in the
// tag, field and timestamp specs are gjson paths.
type JSONLSpec struct {
	// RecordsPath optionally points to an array of records within each line.
	RecordsPath string `yaml:"records_path"`
}

// Descriptor is the parsed form of a source mapping file.
type Descriptor struct {
	Measurement string            `yaml:"measurement"`
	Timestamp   TimestampSpec     `yaml:"timestamp"`
	Tags        []TagSpec         `yaml:"tags"`
	StaticTags  map[string]string `yaml:"static_tags"`
	Fields      []FieldSpec       `yaml:"fields"`
	CSV         CSVSpec           `yaml:"csv"`
	JSONL       JSONLSpec         `yaml:"jsonl"`
}

// Load reads and prepares a descriptor stored in the given bucket.
func Load(ctx context.Context, bkt objstore.BucketReader, path string) (Descriptor, error) {
	rc, err := bkt.Get(ctx, path)
	if err != nil {
		return Descriptor{}, errors.Wrapf(err, "get descriptor %s", path)
	}
	defer rc.Close()

	b, err := ioutil.ReadAll(rc)
	if err != nil {
		return Descriptor{}, errors.Wrapf(err, "read descriptor %s", path)
	}
	return Parse(b)
}

// Parse unmarshals a descriptor and resolves its defaults.
func Parse(b []byte) (Descriptor, error) {
	var d Descriptor
	if err := yaml.UnmarshalStrict(b, &d); err != nil {
		return Descriptor{}, errors.Wrap(err, "unmarshal descriptor")
	}
	if err := d.prepare(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

func (d *Descriptor) prepare() error {
	if d.Timestamp.Layout == "" {
		d.Timestamp.Layout = LayoutRFC3339
	}
	loc := time.UTC
	if d.Timestamp.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(d.Timestamp.Timezone); err != nil {
			return errors.Wrapf(err, "load timezone %s", d.Timestamp.Timezone)
		}
	}
	d.Timestamp.loc = loc

	for i, t := range d.Tags {
		if t.Column == "" {
			return errors.Newf("tag %d without a column", i)
		}
		if t.Name == "" {
			d.Tags[i].Name = t.Column
		}
	}
	for i, f := range d.Fields {
		if f.Column == "" {
			return errors.Newf("field %d without a column", i)
		}
		if f.Name == "" {
			d.Fields[i].Name = f.Column
		}
		switch f.Type {
		case "":
			d.Fields[i].Type = Float
		case Float, Int, Bool, String:
		default:
			return errors.Newf("field %s has unknown type %q", f.Column, f.Type)
		}
	}
	return nil
}

// ParseTime parses a raw timestamp cell according to the spec layout.
func (s TimestampSpec) ParseTime(raw string) (time.Time, error) {
	switch s.Layout {
	case LayoutRFC3339:
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "parse timestamp %q", raw)
		}
		return t, nil
	case LayoutUnix:
		sec, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "parse unix timestamp %q", raw)
		}
		return time.Unix(0, int64(sec*float64(time.Second))).UTC(), nil
	case LayoutUnixMs:
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "parse unix_ms timestamp %q", raw)
		}
		return time.Unix(0, ms*int64(time.Millisecond)).UTC(), nil
	default:
		t, err := time.ParseInLocation(s.Layout, raw, s.loc)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "parse timestamp %q with layout %q", raw, s.Layout)
		}
		return t, nil
	}
}

// Convert turns a raw cell value into the typed field value.
func (f FieldSpec) Convert(raw string) (interface{}, error) {
	switch f.Type {
	case Float:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s: parse float %q", f.Name, raw)
		}
		return v, nil
	case Int:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s: parse int %q", f.Name, raw)
		}
		return v, nil
	case Bool:
		v, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return nil, errors.Wrapf(err, "field %s: parse bool %q", f.Name, raw)
		}
		return v, nil
	case String:
		return raw, nil
	default:
		return nil, errors.Newf("field %s has unknown type %q", f.Name, f.Type)
	}
}
