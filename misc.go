// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package navedit

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// ------------------------------------
// Mini functions
// ------------------------------------

func SQ(x float64) float64 {
	return x * x
}

// ------------------------------------
// For command argument parsing
// ------------------------------------

// Comma separated channel list
type ChannelVar []Channel

func (p *ChannelVar) Set(s string) error {
	*p = ChannelVar{}
	for _, a := range strings.Split(s, ",") {
		c, err := ParseChannel(strings.TrimSpace(a))
		if err != nil {
			return err
		}
		if !slices.Contains(*p, c) {
			*p = append(*p, c)
		}
	}
	return nil
}

func (p *ChannelVar) String() string {
	if p == nil {
		return ""
	}
	a := make([]string, len(*p))
	for i, c := range *p {
		a[i] = c.String()
	}
	return strings.Join(a, ",")
}

func (p *ChannelVar) Contains(c Channel) bool {
	return slices.Contains(*p, c)
}

// Position offset "lon,lat" [deg]
type OffsetVar struct {
	Lon, Lat float64
}

func (p *OffsetVar) Set(s string) error {
	a := strings.Split(s, ",")
	if len(a) != 2 {
		return fmt.Errorf("offset must be \"lon,lat\": %q", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(a[0]), 64)
	if err != nil {
		return err
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(a[1]), 64)
	if err != nil {
		return err
	}
	p.Lon, p.Lat = lon, lat
	return nil
}

func (p *OffsetVar) String() string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g", p.Lon, p.Lat)
}

// Date and Time Parser (for command arguments)
type TimeStr time.Time

func (p *TimeStr) MarshalText() (text []byte, err error) {
	return time.Time(*p).MarshalText()
}

func (p *TimeStr) UnmarshalText(text []byte) error {
	t, err := time.Parse("2006/01/02 15:04:05", string(text))
	if err != nil {
		return err
	}
	*p = TimeStr(t)
	return nil
}

func NewTimeStr(t time.Time) *TimeStr {
	m := new(TimeStr)
	*m = TimeStr(t)
	return m
}

// Epoch seconds, 0 for the zero time
func (p *TimeStr) Epoch() float64 {
	t := time.Time(*p)
	if t.IsZero() {
		return 0
	}
	return EpochOf(t)
}
