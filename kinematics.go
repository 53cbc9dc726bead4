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

// Speed made good [km/h] and course made good [deg] between two fixes.
// heading is returned as the course when the fixes coincide.
func SmgCmg(t1 float64, p1 orb.Point, t2 float64, p2 orb.Point, heading float64) (smg, cmg float64) {
	dx, dy := Displacement(p1, p2)
	dt := t2 - t1
	dist := math.Sqrt(SQ(dx) + SQ(dy))
	if dt > 0 {
		smg = KPH * dist / dt
	}
	if dist > 0 {
		cmg = RTD * math.Atan2(dx/dist, dy/dist)
	} else {
		cmg = heading
	}
	if cmg < 0 {
		cmg += 360
	}
	return
}

// Update speed and course made good of record i from its neighbor.
// Record 0 looks forward, every other record looks back.
func UpdateSmgCmg(recs []*Record, i int) {
	if i < 0 || i >= len(recs) {
		return
	}
	p := recs[i]
	var a, b *Record
	switch {
	case i > 0:
		a, b = recs[i-1], p
	case len(recs) > 1:
		a, b = p, recs[1]
	default:
		p.SMG = 0
		p.CMG = p.Heading
		return
	}
	p.SMG, p.CMG = SmgCmg(a.Epoch, a.Pos(), b.Epoch, b.Pos(), p.Heading)
}

// Update speed and course made good of all records
func UpdateKinematics(recs []*Record) {
	for i := range recs {
		UpdateSmgCmg(recs, i)
	}
}
