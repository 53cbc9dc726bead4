// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package navedit

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Options of an edit session
type SessionOpt struct {
	Capacity   int     // Resident window size
	BadTimeGap float64 // Gap treated as suspicious by DeleteBadTime [s]
	OffsetLon  float64 // Position offset applied to loaded records [deg]
	OffsetLat  float64
	Model      ModelOpt
	Logger     *slog.Logger
}

func NewSessionOpt() *SessionOpt {
	return &SessionOpt{
		Capacity:   DefaultCapacity,
		BadTimeGap: DefaultBadTimeGap,
		Model:      *NewModelOpt(),
	}
}

// Which bound of the two-point interval pick
type IntervalBound int

const (
	IntervalFirst IntervalBound = iota
	IntervalSecond
	IntervalApply
	IntervalReset
)

type intervalPick struct {
	t1, t2     float64
	set1, set2 bool
}

// Edit session over one navigation stream. A session is not safe for concurrent use.
type Session struct {
	ID         string
	buf        *Buffer
	model      ModelOpt
	badTimeGap float64
	offsetLon  float64 // Offset already applied to resident records
	offsetLat  float64
	viewFrom   int
	viewCount  int
	interval   intervalPick
	invStats   InversionStats
	log        *slog.Logger

	// Called after a load that detected duplicate or reversed time stamps
	OnDisorder func(LoadResult)
}

func NewSession(opt *SessionOpt) *Session {
	if opt == nil {
		opt = NewSessionOpt()
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	id := uuid.NewString()
	log = log.With("session", id)
	s := &Session{
		ID:         id,
		buf:        NewBuffer(opt.Capacity, log),
		model:      opt.Model,
		badTimeGap: opt.BadTimeGap,
		offsetLon:  opt.OffsetLon,
		offsetLat:  opt.OffsetLat,
		log:        log,
	}
	s.buf.SetOffset(opt.OffsetLon, opt.OffsetLat)
	return s
}

func (s *Session) Buffer() *Buffer {
	return s.buf
}

// All resident records
func (s *Session) Records() []*Record {
	return s.buf.Records()
}

// Load the next page of records, then refresh derived values and the model
func (s *Session) Load(src Source) (LoadResult, error) {
	res, err := s.buf.Load(src)
	s.resetView()
	UpdateKinematics(s.buf.Records())
	merr := s.updateModel()
	if res.Disorder && s.OnDisorder != nil {
		s.OnDisorder(res)
	}
	if err != nil {
		return res, err
	}
	return res, merr
}

// Write all but hold records to sink
func (s *Session) Dump(sink Sink, hold int) (int, error) {
	n, err := s.buf.Dump(sink, hold)
	s.resetView()
	return n, err
}

//-------------------------------------------------------------------
// Model
//-------------------------------------------------------------------

func (s *Session) Model() ModelKind {
	return s.model.Kind
}

func (s *Session) ModelOpt() ModelOpt {
	return s.model
}

// Switch the active model and recompute it
func (s *Session) SetModel(kind ModelKind) (Change, error) {
	s.model.Kind = kind
	return ChangeModel, s.updateModel()
}

// Change the dead reckoning drift [deg/h]
func (s *Session) SetDrift(lon, lat float64) (Change, error) {
	s.model.DriftLon = lon
	s.model.DriftLat = lat
	if s.model.Kind != ModelDR {
		return ChangeNone, nil
	}
	return ChangeModel, s.updateModel()
}

// Diagnostics of the last inversion
func (s *Session) InversionStats() InversionStats {
	return s.invStats
}

// Recompute the active model
func (s *Session) UpdateModel() error {
	return s.updateModel()
}

func (s *Session) updateModel() error {
	recs := s.buf.Records()
	if len(recs) == 0 {
		return nil
	}
	switch s.model.Kind {
	case ModelOff:
	case ModelMean:
		GaussianMean(recs, s.model.MeanWindow)
	case ModelDR:
		DeadReckon(recs, s.model.DriftLon, s.model.DriftLat, s.model.DrGap)
	case ModelInversion:
		st, err := Invert(s.ViewRecords(), &s.model, s.log)
		if err != nil {
			s.log.Error("inversion failed", "error", err)
			return fmt.Errorf("%w: %w", ErrModelFailed, err)
		}
		s.invStats = st
		s.log.Debug("inversion done", "rows_lon", st.Lon.Rows, "rows_lat", st.Lat.Rows,
			"bound_lon", st.Lon.EigenBound, "bound_lat", st.Lat.EigenBound)
	}
	return nil
}

// Keep derived values consistent after an edit
func (s *Session) refresh(ch Change) (Change, error) {
	switch {
	case ch.Kinematic():
		UpdateKinematics(s.buf.Records())
		if s.model.Kind == ModelOff {
			return ch, nil
		}
	case ch.Has(ChangeSpeedHeading) && s.model.Kind == ModelDR:
	case ch.Has(ChangeFlags) && (s.model.Kind == ModelMean || s.model.Kind == ModelInversion):
	default:
		return ch, nil
	}
	return ch | ChangeModel, s.updateModel()
}

//-------------------------------------------------------------------
// Offset
//-------------------------------------------------------------------

// Shift resident positions to the new offset and use it for later loads
func (s *Session) ApplyOffset(lon, lat float64) (Change, error) {
	dlon := lon - s.offsetLon
	dlat := lat - s.offsetLat
	for _, p := range s.buf.Records() {
		p.Lon += dlon
		p.Lat += dlat
	}
	s.offsetLon, s.offsetLat = lon, lat
	s.buf.SetOffset(lon, lat)
	if dlon == 0 && dlat == 0 {
		return ChangeNone, nil
	}
	return s.refresh(ChangePosition)
}

//-------------------------------------------------------------------
// Active view
//-------------------------------------------------------------------

// Start and length of the active view
func (s *Session) View() (from, count int) {
	return s.viewFrom, s.viewCount
}

func (s *Session) ViewRecords() []*Record {
	return s.buf.Records()[s.viewFrom : s.viewFrom+s.viewCount]
}

// Set the active view, clamped into the resident window
func (s *Session) SetView(from, count int) Change {
	n := s.buf.Len()
	from = min(max(from, 0), max(n-1, 0))
	count = min(max(count, 0), n-from)
	if from == s.viewFrom && count == s.viewCount {
		return ChangeNone
	}
	s.viewFrom, s.viewCount = from, count
	return ChangeView
}

// Move the view by n records keeping its length
func (s *Session) Step(n int) Change {
	count := s.viewCount
	from := min(max(s.viewFrom+n, 0), max(s.buf.Len()-count, 0))
	return s.SetView(from, count)
}

// Move the view to the start of the buffer
func (s *Session) ViewStart() Change {
	return s.SetView(0, s.viewCount)
}

// Move the view to the end of the buffer
func (s *Session) ViewEnd() Change {
	return s.SetView(s.buf.Len()-s.viewCount, s.viewCount)
}

// View the whole buffer
func (s *Session) ShowAll() Change {
	return s.SetView(0, s.buf.Len())
}

func (s *Session) resetView() {
	s.viewFrom = 0
	s.viewCount = s.buf.Len()
}

func (s *Session) clampView() {
	s.SetView(s.viewFrom, s.viewCount)
}

// Two-point interval pick on file relative time [s].
// IntervalApply sets the view to the records between the two bounds.
func (s *Session) SetInterval(which IntervalBound, t float64) (Change, error) {
	if s.buf.Len() == 0 {
		return ChangeNone, ErrEmptyView
	}
	iv := &s.interval
	switch which {
	case IntervalFirst:
		iv.t1, iv.set1 = t, true
	case IntervalSecond:
		iv.t2, iv.set2 = t, true
	case IntervalReset:
		*iv = intervalPick{}
	case IntervalApply:
		if !iv.set1 || !iv.set2 || iv.t1 == iv.t2 {
			return ChangeNone, ErrInterval
		}
		if iv.t1 > iv.t2 {
			iv.t1, iv.t2 = iv.t2, iv.t1
		}
		from, count := -1, 0
		for i, p := range s.buf.Records() {
			if p.FileTime < iv.t1 || p.FileTime > iv.t2 {
				continue
			}
			if from < 0 {
				from = i
			}
			count = i - from + 1
		}
		if from < 0 {
			return ChangeNone, ErrEmptyView
		}
		return s.SetView(from, count), nil
	default:
		return ChangeNone, fmt.Errorf("invalid interval bound %d", which)
	}
	return ChangeNone, nil
}
