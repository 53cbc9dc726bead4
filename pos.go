// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package navedit

import (
	"math"

	"github.com/paulmach/orb"
)

// Positions are orb.Point values: [0] longitude, [1] latitude, in degrees.

// Meters-to-degrees scale factors at latitude lat [deg]
func CoorScale(lat float64) (mtodeglon, mtodeglat float64) {
	r := DTR * lat
	mtodeglon = 1.0 / math.Abs(c1*math.Cos(r)+c2*math.Cos(3*r)+c3*math.Cos(5*r))
	mtodeglat = 1.0 / math.Abs(c4+c5*math.Cos(2*r)+c6*math.Cos(4*r)+c7*math.Cos(6*r))
	return
}

// East and north displacement [m] from a to b, scaled at the latitude of a
func Displacement(a, b orb.Point) (dx, dy float64) {
	mtodeglon, mtodeglat := CoorScale(a.Lat())
	dx = (b.Lon() - a.Lon()) / mtodeglon
	dy = (b.Lat() - a.Lat()) / mtodeglat
	return
}

// Approximate distance [m] between a and b
func Distance(a, b orb.Point) float64 {
	dx, dy := Displacement(a, b)
	return math.Sqrt(SQ(dx) + SQ(dy))
}
