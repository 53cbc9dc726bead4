// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package navedit

import "errors"

var (
	ErrEmptyView     = errors.New("no records in the active view")
	ErrNoSelection   = errors.New("no records selected")
	ErrSinkWrite     = errors.New("failed to write navigation record")
	ErrAllocation    = errors.New("failed to allocate solver arrays")
	ErrNoConstraints = errors.New("no unexcluded records to constrain the inversion")
	ErrChannel       = errors.New("invalid channel")
	ErrInterval      = errors.New("interval bounds not set")
	ErrModelOff      = errors.New("no model is active")
	ErrModelFailed   = errors.New("model update failed")
)

// Bit set of what an operation modified
type Change uint

const (
	ChangeSelection Change = 1 << iota
	ChangeTime
	ChangePosition
	ChangeSpeedHeading
	ChangeDepth
	ChangeFlags
	ChangeModel
	ChangeRecords // Records added, removed or shifted
	ChangeView

	ChangeNone Change = 0
)

func (c Change) Has(f Change) bool {
	return c&f != 0
}

// Time or position changed, so speed/course made good are stale
func (c Change) Kinematic() bool {
	return c.Has(ChangeTime | ChangePosition | ChangeRecords)
}
