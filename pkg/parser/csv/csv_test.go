// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package csv

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

func weatherDescriptor(t *testing.T) descriptor.Descriptor {
	t.Helper()
	d, err := descriptor.Parse([]byte(`
measurement: weather
timestamp:
  column: time
tags:
  - column: station
    name: station_id
static_tags:
  campaign: "2024"
fields:
  - column: temp
    name: temperature
  - column: occupied
    type: bool
`))
	testutil.Ok(t, err)
	return d
}

func TestParse_Header(t *testing.T) {
	p, err := NewParser(weatherDescriptor(t))
	testutil.Ok(t, err)

	pts := collect(t, p, `time,station,temp,occupied
2024-03-01T10:00:00Z,st1,20.5,true
2024-03-01T10:10:00Z,st2,21.0,false
`)

	testutil.Equals(t, 2, len(pts))
	testutil.Equals(t, point.Point{
		Measurement: "weather",
		Tags:        map[string]string{"station_id": "st1", "campaign": "2024"},
		Fields:      map[string]interface{}{"temperature": 20.5, "occupied": true},
		Timestamp:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}, pts[0])
	testutil.Equals(t, 21.0, pts[1].Fields["temperature"])
}

func TestParse_EmptyCells(t *testing.T) {
	p, err := NewParser(weatherDescriptor(t))
	testutil.Ok(t, err)

	pts := collect(t, p, `time,station,temp,occupied
2024-03-01T10:00:00Z,st1,20.5,
2024-03-01T10:10:00Z,,,
2024-03-01T10:20:00Z,st1,,true
`)

	// The all-empty row is dropped, empty cells emit no field or tag.
	testutil.Equals(t, 2, len(pts))
	testutil.Equals(t, map[string]interface{}{"temperature": 20.5}, pts[0].Fields)
	testutil.Equals(t, map[string]interface{}{"occupied": true}, pts[1].Fields)
	testutil.Equals(t, map[string]string{"campaign": "2024", "station_id": "st1"}, pts[1].Tags)
}

func TestParse_NoHeader(t *testing.T) {
	d, err := descriptor.Parse([]byte(`
measurement: weather
timestamp:
  column: time
fields:
  - column: temp
csv:
  delimiter: ";"
  header: false
  columns: [time, temp]
`))
	testutil.Ok(t, err)
	p, err := NewParser(d)
	testutil.Ok(t, err)

	pts := collect(t, p, "2024-03-01T10:00:00Z;20.5\n2024-03-01T10:10:00Z;21.5\n")
	testutil.Equals(t, 2, len(pts))
	testutil.Equals(t, 21.5, pts[1].Fields["temp"])
}

func TestParse_Errors(t *testing.T) {
	p, err := NewParser(weatherDescriptor(t))
	testutil.Ok(t, err)

	run := func(content string) error {
		return p.Parse(context.Background(), strings.NewReader(content), func(point.Point) error { return nil })
	}

	// Malformed timestamp names the line.
	err = run("time,station,temp,occupied\nlater,st1,20.5,true\n")
	testutil.NotOk(t, err)
	testutil.Equals(t, true, strings.Contains(err.Error(), "line 2"))

	// Timestamp column missing entirely.
	testutil.NotOk(t, run("ts,temp\n2024-03-01T10:00:00Z,20.5\n"))

	// Non-numeric value for a float field.
	testutil.NotOk(t, run("time,station,temp,occupied\n2024-03-01T10:00:00Z,st1,warm,true\n"))
}

func TestParse_EmptyFile(t *testing.T) {
	p, err := NewParser(weatherDescriptor(t))
	testutil.Ok(t, err)
	testutil.Equals(t, 0, len(collect(t, p, "")))
}

func TestParse_MultiByteDelimiter(t *testing.T) {
	d, err := descriptor.Parse([]byte(`
measurement: weather
timestamp:
  column: time
fields:
  - column: temp
csv:
  delimiter: "→"
`))
	testutil.Ok(t, err)
	p, err := NewParser(d)
	testutil.Ok(t, err)

	pts := collect(t, p, "time→temp\n2024-03-01T10:00:00Z→20.5\n")
	testutil.Equals(t, 1, len(pts))
	testutil.Equals(t, 20.5, pts[0].Fields["temp"])
}

func TestParse_Canceled(t *testing.T) {
	p, err := NewParser(weatherDescriptor(t))
	testutil.Ok(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = p.Parse(ctx, strings.NewReader("time,station,temp,occupied\n2024-03-01T10:00:00Z,st1,20.5,true\n"), func(point.Point) error {
		t.Fatal("no point expected after cancellation")
		return nil
	})
	testutil.NotOk(t, err)
	testutil.Equals(t, context.Canceled, err)
}

func TestNewParser_Invalid(t *testing.T) {
	d, err := descriptor.Parse([]byte("csv:\n  header: false\nfields:\n  - column: temp"))
	testutil.Ok(t, err)
	_, err = NewParser(d)
	testutil.NotOk(t, err)

	d, err = descriptor.Parse([]byte("measurement: weather"))
	testutil.Ok(t, err)
	_, err = NewParser(d)
	testutil.NotOk(t, err)

	// Multi-rune delimiters are rejected up front.
	d, err = descriptor.Parse([]byte("csv:\n  delimiter: '||'\nfields:\n  - column: temp"))
	testutil.Ok(t, err)
	_, err = NewParser(d)
	testutil.NotOk(t, err)
}
