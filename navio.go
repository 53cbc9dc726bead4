// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package navedit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

//-------------------------------------------------------------------
// Text navigation reader
//-------------------------------------------------------------------

// Number of fields in a navigation line:
// YYYY MM DD HH MM SS.ffffff epoch lon lat heading speed depth roll pitch heave
const navFields = 15

// Source reading fixed-field navigation text lines
type NavReader struct {
	s    *bufio.Scanner
	line int
}

func NewNavReader(r io.Reader) *NavReader {
	return &NavReader{s: bufio.NewScanner(r)}
}

// Read the next record. Blank lines and lines starting with '#' are skipped.
func (p *NavReader) Next() (*Sample, error) {
	for p.s.Scan() {
		p.line++
		l := strings.TrimSpace(p.s.Text())
		if len(l) == 0 || l[0] == '#' {
			continue
		}
		smp, err := parseNavLine(l)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}
		return smp, nil
	}
	if err := p.s.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func parseNavLine(l string) (*Sample, error) {
	f := strings.Fields(l)
	if len(f) != navFields {
		return nil, fmt.Errorf("expected %d fields, got %d", navFields, len(f))
	}
	var v [navFields - 6]float64
	for i := range v {
		x, err := strconv.ParseFloat(f[6+i], 64)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", 7+i, err)
		}
		v[i] = x
	}
	return &Sample{
		Epoch:   v[0],
		Lon:     v[1],
		Lat:     v[2],
		Heading: v[3],
		Speed:   v[4],
		Depth:   v[5],
		Roll:    v[6],
		Pitch:   v[7],
		Heave:   v[8],
	}, nil
}

//-------------------------------------------------------------------
// Text navigation writer
//-------------------------------------------------------------------

// Sink writing one fixed-field line per record
type NavWriter struct {
	w io.Writer
	n int
}

func NewNavWriter(w io.Writer) *NavWriter {
	return &NavWriter{w: w}
}

func (p *NavWriter) Append(r *Record) error {
	_, err := fmt.Fprintf(p.w, "%s %16.6f %.10f %.10f %.3f %.3f %.4f %.3f %.3f %.4f\r\n",
		r.Time, r.Epoch, r.Lon, r.Lat, r.Heading, r.Speed, r.Depth, r.Roll, r.Pitch, r.Heave)
	if err != nil {
		return err
	}
	p.n++
	return nil
}

// Number of records written
func (p *NavWriter) Count() int {
	return p.n
}

//-------------------------------------------------------------------
// GeoJSON track
//-------------------------------------------------------------------

// Sink collecting the edited track for GeoJSON export
type TrackCollector struct {
	track    orb.LineString
	model    orb.LineString
	excluded orb.MultiPoint
	modeled  bool // Some modeled position differs from the live one
	length   float64
	first    float64
	last     float64
}

func NewTrackCollector() *TrackCollector {
	return &TrackCollector{}
}

func (p *TrackCollector) Append(r *Record) error {
	if len(p.track) == 0 {
		p.first = r.Epoch
	}
	p.last = r.Epoch
	if n := len(p.track); n > 0 {
		p.length += Distance(p.track[n-1], r.Pos())
	}
	p.track = append(p.track, r.Pos())
	p.model = append(p.model, r.ModelPos())
	if r.ModelPos() != r.Pos() {
		p.modeled = true
	}
	if r.Excluded {
		p.excluded = append(p.excluded, r.Pos())
	}
	return nil
}

func (p *TrackCollector) Len() int {
	return len(p.track)
}

// Track length [m]
func (p *TrackCollector) Length() float64 {
	return p.length
}

// Feature collection with the track line, the excluded fixes and the modeled track
func (p *TrackCollector) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if len(p.track) == 0 {
		return fc
	}
	f := geojson.NewFeature(p.track)
	f.Properties["name"] = "track"
	f.Properties["records"] = len(p.track)
	f.Properties["start"] = NewTimeFields(p.first).ToTime().Format(time.RFC3339Nano)
	f.Properties["end"] = NewTimeFields(p.last).ToTime().Format(time.RFC3339Nano)
	f.Properties["length_m"] = p.length
	f.BBox = geojson.NewBBox(p.track.Bound())
	fc.Append(f)
	if len(p.excluded) > 0 {
		e := geojson.NewFeature(p.excluded)
		e.Properties["name"] = "excluded"
		e.Properties["records"] = len(p.excluded)
		fc.Append(e)
	}
	if p.modeled {
		mf := geojson.NewFeature(p.model)
		mf.Properties["name"] = "model"
		fc.Append(mf)
	}
	return fc
}

// Write the collected track as GeoJSON
func (p *TrackCollector) WriteTo(w io.Writer) (int64, error) {
	b, err := p.FeatureCollection().MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("failed to encode track: %w", err)
	}
	n, err := w.Write(b)
	return int64(n), err
}
