// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package navedit

import (
	"fmt"
	"math"
	"time"
)

// Broken-down calendar time: year, month, day, hour, minute, second, microsecond
type TimeFields [7]int

// Convert epoch seconds (UTC, since 1970/1/1 00:00:00) to calendar fields
func NewTimeFields(epoch float64) TimeFields {
	s := math.Floor(epoch)
	us := int64(math.Round((epoch - s) * 1e6))
	sec := int64(s)
	if us >= 1000000 {
		sec++
		us -= 1000000
	}
	t := time.Unix(sec, 0).UTC()
	return TimeFields{
		t.Year(), int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Second(), int(us),
	}
}

func (p TimeFields) ToTime() time.Time {
	return time.Date(p[0], time.Month(p[1]), p[2], p[3], p[4], p[5], p[6]*1000, time.UTC)
}

// Fixed-width form used by the navigation text format
func (p TimeFields) String() string {
	return fmt.Sprintf("%4.4d %2.2d %2.2d %2.2d %2.2d %2.2d.%6.6d", p[0], p[1], p[2], p[3], p[4], p[5], p[6])
}

// Epoch seconds of a time.Time
func EpochOf(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
