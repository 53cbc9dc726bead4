// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package navedit

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// Editable channel of a navigation record
type Channel int

const (
	ChTime Channel = iota
	ChLon
	ChLat
	ChSpeed
	ChHeading
	ChDepth
	NumChannels int = iota
)

// All editable channels in display order
var Channels = []Channel{ChTime, ChLon, ChLat, ChSpeed, ChHeading, ChDepth}

func (c Channel) String() string {
	switch c {
	case ChTime:
		return "time"
	case ChLon:
		return "lon"
	case ChLat:
		return "lat"
	case ChSpeed:
		return "speed"
	case ChHeading:
		return "heading"
	case ChDepth:
		return "depth"
	default:
		return "UNKNOWN!"
	}
}

func (c Channel) IsValid() bool {
	return c >= ChTime && int(c) < NumChannels
}

// Longitude and latitude are position channels
func (c Channel) IsPosition() bool {
	return c == ChLon || c == ChLat
}

func ParseChannel(s string) (Channel, error) {
	for _, c := range Channels {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrChannel, s)
}

// One raw positioning sample delivered by a source
type Sample struct {
	Epoch   float64 // Epoch seconds (UTC)
	Lon     float64 // [deg]
	Lat     float64 // [deg]
	Speed   float64 // [km/h]
	Heading float64 // [deg]
	Depth   float64 // Sensor depth [m]
	Roll    float64 // [deg]
	Pitch   float64 // [deg]
	Heave   float64 // [m]
}

// Navigation record held in the edit buffer
type Record struct {
	ID     int // Index in the resident window
	Record int // Global sequence number

	Time        TimeFields // Calendar time of Epoch
	Epoch       float64    // Epoch seconds
	EpochOrg    float64
	FileTime    float64 // Seconds since the first record of the file
	Interval    float64 // Seconds since the previous record
	IntervalOrg float64

	Lon      float64
	Lat      float64
	LonOrg   float64
	LatOrg   float64
	LonModel float64 // Written by the active model
	LatModel float64
	ModelOK  bool // False when the gaussian mean lacked bracketing data

	Speed      float64 // [km/h]
	SpeedOrg   float64
	SMG        float64 // Speed made good [km/h]
	Heading    float64 // [deg]
	HeadingOrg float64
	CMG        float64 // Course made good [deg]
	Depth      float64
	DepthOrg   float64
	Roll       float64
	Pitch      float64
	Heave      float64

	Sel      [NumChannels]bool // Selection per channel
	Excluded bool              // Omitted from position model constraints
}

// Build a fresh record from a sample. Original values are copied from the sample.
func NewRecord(s *Sample) *Record {
	return &Record{
		Time:       NewTimeFields(s.Epoch),
		Epoch:      s.Epoch,
		EpochOrg:   s.Epoch,
		Lon:        s.Lon,
		Lat:        s.Lat,
		LonOrg:     s.Lon,
		LatOrg:     s.Lat,
		LonModel:   s.Lon,
		LatModel:   s.Lat,
		Speed:      s.Speed,
		SpeedOrg:   s.Speed,
		Heading:    s.Heading,
		HeadingOrg: s.Heading,
		Depth:      s.Depth,
		DepthOrg:   s.Depth,
		Roll:       s.Roll,
		Pitch:      s.Pitch,
		Heave:      s.Heave,
	}
}

// Live value of channel c
func (p *Record) Value(c Channel) float64 {
	switch c {
	case ChTime:
		return p.Epoch
	case ChLon:
		return p.Lon
	case ChLat:
		return p.Lat
	case ChSpeed:
		return p.Speed
	case ChHeading:
		return p.Heading
	case ChDepth:
		return p.Depth
	}
	panic(fmt.Sprintf("navedit: invalid channel %d", c))
}

// Stored original value of channel c
func (p *Record) Original(c Channel) float64 {
	switch c {
	case ChTime:
		return p.EpochOrg
	case ChLon:
		return p.LonOrg
	case ChLat:
		return p.LatOrg
	case ChSpeed:
		return p.SpeedOrg
	case ChHeading:
		return p.HeadingOrg
	case ChDepth:
		return p.DepthOrg
	}
	panic(fmt.Sprintf("navedit: invalid channel %d", c))
}

// Set the live value of channel c. Time dependent fields are left to the caller.
func (p *Record) SetValue(c Channel, v float64) {
	switch c {
	case ChTime:
		p.Epoch = v
	case ChLon:
		p.Lon = v
	case ChLat:
		p.Lat = v
	case ChSpeed:
		p.Speed = v
	case ChHeading:
		p.Heading = v
	case ChDepth:
		p.Depth = v
	default:
		panic(fmt.Sprintf("navedit: invalid channel %d", c))
	}
}

func (p *Record) Pos() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func (p *Record) ModelPos() orb.Point {
	return orb.Point{p.LonModel, p.LatModel}
}
