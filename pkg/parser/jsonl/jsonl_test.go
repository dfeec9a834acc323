// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package jsonl

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/efficientgo/core/testutil"

	"github.com/influx-tools/influximport/pkg/descriptor"
	"github.com/influx-tools/influximport/pkg/point"
)

func collect(t *testing.T, p *Parser, content string) []point.Point {
	t.Helper()
	var pts []point.Point
	testutil.Ok(t, p.Parse(context.Background(), strings.NewReader(content), func(pt point.Point) error {
		pts = append(pts, pt)
		return nil
	}))
	return pts
}

func TestParse_NestedPaths(t *testing.T) {
	d, err := descriptor.Parse([]byte(`
measurement: energy
timestamp:
  column: meta.ts
  layout: unix
tags:
  - column: meta.meter
    name: meter_id
fields:
  - column: reading.power
    name: power
  - column: reading.valid
    type: bool
`))
	testutil.Ok(t, err)
	p, err := NewParser(d)
	testutil.Ok(t, err)

	pts := collect(t, p, strings.Join([]string{
		`{"meta": {"ts": 1709288100, "meter": "m1"}, "reading": {"power": 12.5, "valid": true}}`,
		``,
		`{"meta": {"ts": 1709288160, "meter": "m2"}, "reading": {"power": 13}}`,
	}, "\n"))

	testutil.Equals(t, 2, len(pts))
	testutil.Equals(t, point.Point{
		Measurement: "energy",
		Tags:        map[string]string{"meter_id": "m1"},
		Fields:      map[string]interface{}{"power": 12.5, "valid": true},
		Timestamp:   time.Unix(1709288100, 0).UTC(),
	}, pts[0])
	testutil.Equals(t, 13.0, pts[1].Fields["power"])
}

func TestParse_RecordsPath(t *testing.T) {
	d, err := descriptor.Parse([]byte(`
measurement: energy
timestamp:
  column: ts
  layout: unix
fields:
  - column: power
jsonl:
  records_path: readings
`))
	testutil.Ok(t, err)
	p, err := NewParser(d)
	testutil.Ok(t, err)

	pts := collect(t, p, `{"readings": [{"ts": 1709288100, "power": 1}, {"ts": 1709288160, "power": 2}]}`)
	testutil.Equals(t, 2, len(pts))
	testutil.Equals(t, 2.0, pts[1].Fields["power"])
}

func TestParse_StringifiedNumbers(t *testing.T) {
	d, err := descriptor.Parse([]byte(`
measurement: energy
timestamp:
  column: ts
  layout: unix
fields:
  - column: power
`))
	testutil.Ok(t, err)
	p, err := NewParser(d)
	testutil.Ok(t, err)

	// Numbers shipped as strings go through the descriptor conversion.
	pts := collect(t, p, `{"ts": "1709288100", "power": "12.5"}`)
	testutil.Equals(t, 1, len(pts))
	testutil.Equals(t, 12.5, pts[0].Fields["power"])
}

func TestParse_Errors(t *testing.T) {
	d, err := descriptor.Parse([]byte(`
measurement: energy
timestamp:
  column: ts
  layout: unix
fields:
  - column: power
`))
	testutil.Ok(t, err)
	p, err := NewParser(d)
	testutil.Ok(t, err)

	run := func(content string) error {
		return p.Parse(context.Background(), strings.NewReader(content), func(point.Point) error { return nil })
	}

	testutil.NotOk(t, run("not json"))

	// Missing timestamp path on a record that has fields.
	err = run(`{"power": 1}`)
	testutil.NotOk(t, err)
	testutil.Equals(t, true, strings.Contains(err.Error(), "line 1"))

	// Null fields are skipped, making this record empty.
	testutil.Equals(t, 0, len(collect(t, p, `{"ts": 1709288100, "power": null}`)))
}
