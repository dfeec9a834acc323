// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package point

import (
	"sort"
	"time"

	"github.com/efficientgo/core/errors"
)

// Point is a single timestamped measurement to be written to InfluxDB.
// Field values are limited to string, bool, int64 and float64.
type Point struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]interface{}
	Timestamp   time.Time
}

// Validate returns an error when the point cannot be represented in the
// InfluxDB data model.
func (p Point) Validate() error {
	if p.Measurement == "" {
		return errors.New("point without a measurement")
	}
	if len(p.Fields) == 0 {
		return errors.Newf("point %q without fields", p.Measurement)
	}
	if p.Timestamp.IsZero() {
		return errors.Newf("point %q without a timestamp", p.Measurement)
	}
	for k, v := range p.Fields {
		switch v.(type) {
		case string, bool, int64, float64:
		default:
			return errors.Newf("point %q field %q has unsupported type %T", p.Measurement, k, v)
		}
	}
	return nil
}

// TagKeys returns the point's tag keys sorted alphabetically.
func (p Point) TagKeys() []string {
	ks := make([]string, 0, len(p.Tags))
	for k := range p.Tags {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

// FieldKeys returns the point's field keys sorted alphabetically.
func (p Point) FieldKeys() []string {
	ks := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
