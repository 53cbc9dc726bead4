// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package navedit

import (
	"errors"
	"fmt"
)

// Change bits produced by editing channel c
func channelChange(c Channel) Change {
	switch c {
	case ChTime:
		return ChangeTime
	case ChLon, ChLat:
		return ChangePosition
	case ChSpeed, ChHeading:
		return ChangeSpeedHeading
	}
	return ChangeDepth
}

func (s *Session) checkEdit(c Channel) error {
	if !c.IsValid() {
		return fmt.Errorf("%w: %d", ErrChannel, c)
	}
	if s.viewCount == 0 {
		return ErrEmptyView
	}
	return nil
}

// Selecting in one channel drops the selections of all other channels
func (s *Session) exclusive(c Channel) {
	for _, p := range s.buf.Records() {
		for k := range p.Sel {
			if Channel(k) != c {
				p.Sel[k] = false
			}
		}
	}
}

//-------------------------------------------------------------------
// Selection
//-------------------------------------------------------------------

// Select count records of channel c starting at buffer index from.
// The range is clipped to the active view.
func (s *Session) Select(c Channel, from, count int) (Change, error) {
	return s.setSelection(c, from, count, true)
}

// Deselect count records of channel c starting at buffer index from
func (s *Session) Deselect(c Channel, from, count int) (Change, error) {
	return s.setSelection(c, from, count, false)
}

func (s *Session) setSelection(c Channel, from, count int, sel bool) (Change, error) {
	if err := s.checkEdit(c); err != nil {
		return ChangeNone, err
	}
	lo := max(from, s.viewFrom)
	hi := min(from+count, s.viewFrom+s.viewCount)
	if sel {
		s.exclusive(c)
	}
	recs := s.buf.Records()
	for i := lo; i < hi; i++ {
		recs[i].Sel[c] = sel
	}
	return ChangeSelection, nil
}

// Select every record of channel c in the active view
func (s *Session) SelectAll(c Channel) (Change, error) {
	return s.Select(c, s.viewFrom, s.viewCount)
}

// Deselect channel c over the whole buffer
func (s *Session) DeselectAll(c Channel) (Change, error) {
	if !c.IsValid() {
		return ChangeNone, fmt.Errorf("%w: %d", ErrChannel, c)
	}
	for _, p := range s.buf.Records() {
		p.Sel[c] = false
	}
	return ChangeSelection, nil
}

// Select records of channel c in the active view with file relative time in [t0, t1]
func (s *Session) SelectTimeRange(c Channel, t0, t1 float64) (Change, error) {
	if err := s.checkEdit(c); err != nil {
		return ChangeNone, err
	}
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	s.exclusive(c)
	n := 0
	for _, p := range s.ViewRecords() {
		if p.FileTime >= t0 && p.FileTime <= t1 {
			p.Sel[c] = true
			n++
		}
	}
	if n == 0 {
		return ChangeSelection, ErrNoSelection
	}
	return ChangeSelection, nil
}

// Number of selected records of channel c in the active view
func (s *Session) Selected(c Channel) int {
	n := 0
	for _, p := range s.ViewRecords() {
		if p.Sel[c] {
			n++
		}
	}
	return n
}

//-------------------------------------------------------------------
// Interpolation
//-------------------------------------------------------------------

func prevUnselected(recs []*Record, c Channel, i int) int {
	for j := i - 1; j >= 0; j-- {
		if !recs[j].Sel[c] {
			return j
		}
	}
	return -1
}

func nextUnselected(recs []*Record, c Channel, i int) int {
	for j := i + 1; j < len(recs); j++ {
		if !recs[j].Sel[c] {
			return j
		}
	}
	return -1
}

// Value of channel c at record i between unselected records ib < i < ia
func interpBetween(recs []*Record, c Channel, i, ib, ia int) float64 {
	vb, va := recs[ib].Value(c), recs[ia].Value(c)
	if c == ChTime {
		return vb + (va-vb)*float64(i-ib)/float64(ia-ib)
	}
	tb, ta := recs[ib].Epoch, recs[ia].Epoch
	if ta <= tb {
		return (vb + va) / 2
	}
	return vb + (va-vb)*(recs[i].Epoch-tb)/(ta-tb)
}

// Value of channel c at record i from the unselected records before it only
func extrapolate(recs []*Record, c Channel, i, ib int) float64 {
	vb := recs[ib].Value(c)
	if c != ChTime && !c.IsPosition() {
		return vb
	}
	ib2 := prevUnselected(recs, c, ib)
	if ib2 < 0 {
		return vb
	}
	v2 := recs[ib2].Value(c)
	if c == ChTime {
		return vb + (vb-v2)*float64(i-ib)/float64(ib-ib2)
	}
	tb, t2 := recs[ib].Epoch, recs[ib2].Epoch
	if tb <= t2 {
		return vb
	}
	return vb + (vb-v2)*(recs[i].Epoch-tb)/(tb-t2)
}

// Replace selected values of channel c in the active view from the nearest
// unselected neighbours, which may lie outside the view.
// Interpolated time and position values are synthetic and get excluded.
func (s *Session) Interpolate(c Channel) (Change, error) {
	if err := s.checkEdit(c); err != nil {
		return ChangeNone, err
	}
	recs := s.buf.Records()
	n := 0
	for i := s.viewFrom; i < s.viewFrom+s.viewCount; i++ {
		p := recs[i]
		if !p.Sel[c] {
			continue
		}
		ib := prevUnselected(recs, c, i)
		ia := nextUnselected(recs, c, i)
		var v float64
		switch {
		case ib >= 0 && ia >= 0:
			v = interpBetween(recs, c, i, ib, ia)
		case ib >= 0:
			v = extrapolate(recs, c, i, ib)
		case ia >= 0:
			v = recs[ia].Value(c)
		default:
			continue
		}
		s.setValue(i, c, v)
		if c == ChTime || c.IsPosition() {
			p.Excluded = true
		}
		n++
	}
	if n == 0 {
		return ChangeNone, ErrNoSelection
	}
	return s.finishEdit(c, c == ChTime || c.IsPosition())
}

// Interpolate every channel
func (s *Session) InterpolateAll() (Change, error) {
	ch := ChangeNone
	var last error
	for _, c := range Channels {
		cc, err := s.Interpolate(c)
		ch |= cc
		if err != nil && !errors.Is(err, ErrNoSelection) {
			return ch, err
		}
		last = err
	}
	if ch == ChangeNone {
		return ch, last
	}
	return ch, nil
}

// Replace selected values in the active view that repeat their predecessor by
// interpolating between the bracketing distinct values
func (s *Session) InterpolateRepeats(c Channel) (Change, error) {
	if err := s.checkEdit(c); err != nil {
		return ChangeNone, err
	}
	recs := s.buf.Records()
	end := s.viewFrom + s.viewCount
	n := 0
	for i := max(s.viewFrom, 1); i < min(end, len(recs)-1); i++ {
		if !recs[i].Sel[c] || recs[i].Value(c) != recs[i-1].Value(c) {
			continue
		}
		ib := i - 1
		ia := -1
		for j := i + 1; j < len(recs); j++ {
			if recs[j].Value(c) != recs[i].Value(c) {
				ia = j
				break
			}
		}
		if ia < 0 {
			break
		}
		vb, va := recs[ib].Value(c), recs[ia].Value(c)
		tb, ta := recs[ib].Epoch, recs[ia].Epoch
		for j := i; j < min(ia, end); j++ {
			if !recs[j].Sel[c] {
				continue
			}
			var v float64
			if c == ChTime || ta <= tb {
				v = vb + (va-vb)*float64(j-ib)/float64(ia-ib)
			} else {
				v = vb + (va-vb)*(recs[j].Epoch-tb)/(ta-tb)
			}
			s.setValue(j, c, v)
			if c == ChTime || c.IsPosition() {
				recs[j].Excluded = true
			}
			n++
		}
		i = ia - 1
	}
	if n == 0 {
		return ChangeNone, ErrNoSelection
	}
	return s.finishEdit(c, c == ChTime || c.IsPosition())
}

// Restore the original values of selected records of channel c in the active view
func (s *Session) Revert(c Channel) (Change, error) {
	if err := s.checkEdit(c); err != nil {
		return ChangeNone, err
	}
	n := 0
	for i := s.viewFrom; i < s.viewFrom+s.viewCount; i++ {
		p := s.buf.At(i)
		if !p.Sel[c] {
			continue
		}
		s.setValue(i, c, p.Original(c))
		n++
	}
	if n == 0 {
		return ChangeNone, ErrNoSelection
	}
	return s.finishEdit(c, false)
}

// Exclude selected position records in the active view from the models
func (s *Session) Flag(c Channel) (Change, error) {
	return s.setExcluded(c, true)
}

// Include selected position records in the active view in the models again
func (s *Session) Unflag(c Channel) (Change, error) {
	return s.setExcluded(c, false)
}

func (s *Session) setExcluded(c Channel, ex bool) (Change, error) {
	if err := s.checkEdit(c); err != nil {
		return ChangeNone, err
	}
	if !c.IsPosition() {
		return ChangeNone, fmt.Errorf("%w: %s can not be flagged", ErrChannel, c)
	}
	n := 0
	for _, p := range s.ViewRecords() {
		if p.Sel[c] {
			p.Excluded = ex
			n++
		}
	}
	if n == 0 {
		return ChangeNone, ErrNoSelection
	}
	return s.refresh(ChangeFlags)
}

func (s *Session) setValue(i int, c Channel, v float64) {
	if c == ChTime {
		s.buf.Retime(i, v)
		return
	}
	s.buf.At(i).SetValue(c, v)
}

func (s *Session) finishEdit(c Channel, flags bool) (Change, error) {
	ch := channelChange(c)
	if c == ChTime {
		s.buf.UpdateIntervals()
	}
	if flags {
		ch |= ChangeFlags
	}
	return s.refresh(ch)
}

//-------------------------------------------------------------------
// Time repair
//-------------------------------------------------------------------

// Spread runs of non-increasing times evenly between the surrounding good times.
// Returns the number of records retimed.
func (s *Session) FixTime() (int, Change, error) {
	recs := s.buf.Records()
	if len(recs) == 0 {
		return 0, ChangeNone, ErrEmptyView
	}
	n := 0
	istart := 0
	tstart := recs[0].Epoch
	for i := 1; i < len(recs); i++ {
		if recs[i].Epoch <= tstart {
			continue
		}
		tend := recs[i].Epoch
		for j := istart + 1; j < i; j++ {
			s.buf.Retime(j, tstart+float64(j-istart)*(tend-tstart)/float64(i-istart))
			n++
		}
		istart, tstart = i, tend
	}
	if n == 0 {
		return 0, ChangeNone, nil
	}
	s.buf.UpdateIntervals()
	s.log.Info("fixed time stamps", "retimed", n)
	ch, err := s.refresh(ChangeTime)
	return n, ch, err
}

// Delete records whose time does not increase past the last good time, and
// records after a large gap that are followed by a non-increasing step.
// Returns the number of records deleted.
func (s *Session) DeleteBadTime() (int, Change, error) {
	recs := s.buf.Records()
	if len(recs) == 0 {
		return 0, ChangeNone, ErrEmptyView
	}
	bad := make([]bool, len(recs))
	lastgood := recs[0].Epoch
	for i := 1; i < len(recs); i++ {
		dt := recs[i].Epoch - lastgood
		switch {
		case dt <= 0:
			bad[i] = true
		case dt > s.badTimeGap && i < len(recs)-1 && recs[i+1].Epoch <= recs[i].Epoch:
			bad[i] = true
		default:
			lastgood = recs[i].Epoch
		}
	}
	n := s.buf.Delete(func(p *Record) bool { return bad[p.ID] })
	if n == 0 {
		return 0, ChangeNone, nil
	}
	s.clampView()
	s.log.Info("deleted bad time stamps", "deleted", n, "resident", s.buf.Len())
	ch, err := s.refresh(ChangeRecords | ChangeTime)
	return n, ch, err
}

//-------------------------------------------------------------------
// Model and made good substitution
//-------------------------------------------------------------------

// Replace selected positions in the active view with the modeled positions
func (s *Session) UseModel() (Change, error) {
	if s.viewCount == 0 {
		return ChangeNone, ErrEmptyView
	}
	if s.model.Kind == ModelOff {
		return ChangeNone, ErrModelOff
	}
	n := 0
	for _, p := range s.ViewRecords() {
		if p.Sel[ChLon] || p.Sel[ChLat] {
			p.Lon = p.LonModel
			p.Lat = p.LatModel
			n++
		}
	}
	if n == 0 {
		return ChangeNone, ErrNoSelection
	}
	UpdateKinematics(s.buf.Records())
	return ChangePosition, nil
}

// Replace selected speeds in the active view with the speed made good
func (s *Session) UseSpeedMadeGood() (Change, error) {
	return s.useMadeGood(ChSpeed, func(p *Record) { p.Speed = p.SMG })
}

// Replace selected headings in the active view with the course made good
func (s *Session) UseCourseMadeGood() (Change, error) {
	return s.useMadeGood(ChHeading, func(p *Record) { p.Heading = p.CMG })
}

func (s *Session) useMadeGood(c Channel, set func(*Record)) (Change, error) {
	if s.viewCount == 0 {
		return ChangeNone, ErrEmptyView
	}
	n := 0
	for _, p := range s.ViewRecords() {
		if p.Sel[c] {
			set(p)
			n++
		}
	}
	if n == 0 {
		return ChangeNone, ErrNoSelection
	}
	return s.refresh(ChangeSpeedHeading)
}
