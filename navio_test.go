// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package navedit

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const navLine = "2023 11 14 22 13 20.250000 1700000000.250000 140.5000000000 -35.2500000000 45.000 10.000 5.5000 1.250 -0.500 0.1250\r\n"

var navSample = Sample{
	Epoch:   1700000000.25,
	Lon:     140.5,
	Lat:     -35.25,
	Heading: 45,
	Speed:   10,
	Depth:   5.5,
	Roll:    1.25,
	Pitch:   -0.5,
	Heave:   0.125,
}

func TestNavWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewNavWriter(&buf)
	require.NoError(t, w.Append(NewRecord(&navSample)))
	assert.Equal(t, navLine, buf.String())
	assert.Equal(t, 1, w.Count())
}

func TestNavReader(t *testing.T) {
	in := "# edited navigation\n\n" + navLine + navLine
	r := NewNavReader(strings.NewReader(in))

	for i := 0; i < 2; i++ {
		s, err := r.Next()
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(navSample, *s))
	}
	_, err := r.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestNavReaderMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{"short", "2023 11 14 22 13 20.0 1700000000.0 140.5\n", "line 1: expected 15 fields"},
		{"number", "\n" + strings.Replace(navLine, "140.5000000000", "east", 1), "line 2: field 8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNavReader(strings.NewReader(tt.in)).Next()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestNavRoundTrip(t *testing.T) {
	smp := trackSamples(5)
	b := NewBuffer(10, nil)
	_, err := b.Load(&sliceSource{smp: smp})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = b.Dump(NewNavWriter(&buf), 0)
	require.NoError(t, err)

	b2 := NewBuffer(10, nil)
	res, err := b2.Load(NewNavReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Loaded)
	assert.True(t, res.ReachedEnd)
	for i, p := range b2.Records() {
		assert.InDelta(t, smp[i].Epoch, p.Epoch, 1e-6)
		assert.InDelta(t, smp[i].Lon, p.Lon, 1e-10)
		assert.InDelta(t, smp[i].Lat, p.Lat, 1e-10)
		assert.Equal(t, smp[i].Speed, p.Speed)
	}
}

func TestTrackCollector(t *testing.T) {
	tc := NewTrackCollector()
	recs := recordsOf(trackSamples(4))
	recs[2].Excluded = true
	for _, p := range recs {
		require.NoError(t, tc.Append(p))
	}
	assert.Equal(t, 4, tc.Len())

	fc := tc.FeatureCollection()
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "LineString", fc.Features[0].Geometry.GeoJSONType())
	assert.Equal(t, "MultiPoint", fc.Features[1].Geometry.GeoJSONType())
	assert.InDelta(t, 3*Distance(recs[0].Pos(), recs[1].Pos()), tc.Length(), 1e-3)

	var buf bytes.Buffer
	_, err := tc.WriteTo(&buf)
	require.NoError(t, err)
	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	assert.Equal(t, "track", doc.Features[0].Properties["name"])
	assert.Equal(t, float64(4), doc.Features[0].Properties["records"])
	assert.Equal(t, "2023-11-14T22:13:20Z", doc.Features[0].Properties["start"])
	assert.Equal(t, "2023-11-14T22:13:23Z", doc.Features[0].Properties["end"])
}

func TestTrackCollectorModel(t *testing.T) {
	tc := NewTrackCollector()
	recs := recordsOf(trackSamples(3))
	recs[1].LonModel += 0.001
	for _, p := range recs {
		require.NoError(t, tc.Append(p))
	}
	fc := tc.FeatureCollection()
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "model", fc.Features[1].Properties["name"])
}

func TestTrackCollectorEmpty(t *testing.T) {
	fc := NewTrackCollector().FeatureCollection()
	assert.Empty(t, fc.Features)
}
