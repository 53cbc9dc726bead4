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
	"math"
	"strings"
)

// Smoothing model estimating the true position track
type ModelKind int

const (
	ModelOff ModelKind = iota
	ModelMean
	ModelDR
	ModelInversion
)

func (p ModelKind) String() string {
	switch p {
	case ModelOff:
		return "off"
	case ModelMean:
		return "mean"
	case ModelDR:
		return "dr"
	case ModelInversion:
		return "inversion"
	default:
		return "UNKNOWN!"
	}
}

func ParseModelKind(s string) (ModelKind, error) {
	switch strings.ToLower(s) {
	case "", "off":
		return ModelOff, nil
	case "mean", "gaussian":
		return ModelMean, nil
	case "dr", "deadreckoning":
		return ModelDR, nil
	case "inversion", "invert":
		return ModelInversion, nil
	}
	return ModelOff, fmt.Errorf("unknown model %q", s)
}

// flag.Value
func (p *ModelKind) Set(s string) error {
	k, err := ParseModelKind(s)
	if err != nil {
		return err
	}
	*p = k
	return nil
}

// Method used to solve the inversion
type SolverMethod int

const (
	SolverChebyshev SolverMethod = iota
	SolverDirect
)

func (p SolverMethod) String() string {
	switch p {
	case SolverChebyshev:
		return "chebyshev"
	case SolverDirect:
		return "direct"
	default:
		return "UNKNOWN!"
	}
}

func ParseSolverMethod(s string) (SolverMethod, error) {
	switch strings.ToLower(s) {
	case "", "chebyshev":
		return SolverChebyshev, nil
	case "direct":
		return SolverDirect, nil
	}
	return SolverChebyshev, fmt.Errorf("unknown solver method %q", s)
}

// Model parameters
type ModelOpt struct {
	Kind        ModelKind
	MeanWindow  float64 // Gaussian mean time window [s]
	DriftLon    float64 // Dead reckoning drift [deg/h]
	DriftLat    float64 // Dead reckoning drift [deg/h]
	DrGap       float64 // Dead reckoning restarts after a gap this long [s]
	SpeedWeight float64 // Inversion velocity smoothness weight
	AccelWeight float64 // Inversion acceleration smoothness weight
	Method      SolverMethod
	Solve       SolveOpt
}

func NewModelOpt() *ModelOpt {
	return &ModelOpt{
		Kind:        ModelOff,
		MeanWindow:  DefaultMeanTimeWindow,
		DrGap:       DefaultDrGap,
		SpeedWeight: DefaultSpeedWeight,
		AccelWeight: DefaultAccelWeight,
		Method:      SolverChebyshev,
		Solve:       *NewSolveOpt(),
	}
}

// Gaussian weighted mean of unexcluded positions within the time window.
// Records lacking data on either side are filled by interpolating the
// neighboring valid means.
func GaussianMean(recs []*Record, window float64) {
	n := len(recs)
	if n == 0 {
		return
	}
	a := -4.0 / SQ(window)
	jstart := 0
	for _, p := range recs {
		var wsum, slon, slat float64
		nsum, nneg, npos := 0, 0, 0
		for j := jstart; j < n; j++ {
			q := recs[j]
			dt := q.Epoch - p.Epoch
			if dt > window {
				break
			}
			if q.Excluded || math.Abs(dt) > window {
				continue
			}
			w := math.Exp(a * dt * dt)
			if nsum == 0 {
				jstart = j
			}
			nsum++
			if dt < 0 {
				nneg++
			} else if dt > 0 {
				npos++
			}
			wsum += w
			slon += w * q.Lon
			slat += w * q.Lat
		}
		if nneg > 0 && npos > 0 {
			p.ModelOK = true
			p.LonModel = slon / wsum
			p.LatModel = slat / wsum
		} else {
			p.ModelOK = false
		}
	}

	// Nearest valid mean before and after each record
	before := make([]int, n)
	after := make([]int, n)
	last := -1
	for i := 0; i < n; i++ {
		before[i] = last
		if recs[i].ModelOK {
			last = i
		}
	}
	last = -1
	for i := n - 1; i >= 0; i-- {
		after[i] = last
		if recs[i].ModelOK {
			last = i
		}
	}

	// Fill gaps
	for i, p := range recs {
		if p.ModelOK {
			continue
		}
		jb, ja := before[i], after[i]
		switch {
		case jb >= 0 && ja >= 0 && recs[ja].Epoch > recs[jb].Epoch:
			f := (p.Epoch - recs[jb].Epoch) / (recs[ja].Epoch - recs[jb].Epoch)
			p.LonModel = recs[jb].LonModel + f*(recs[ja].LonModel-recs[jb].LonModel)
			p.LatModel = recs[jb].LatModel + f*(recs[ja].LatModel-recs[jb].LatModel)
		case jb >= 0:
			p.LonModel = recs[jb].LonModel
			p.LatModel = recs[jb].LatModel
		case ja >= 0:
			p.LonModel = recs[ja].LonModel
			p.LatModel = recs[ja].LatModel
		default:
			p.LonModel = p.Lon
			p.LatModel = p.Lat
		}
	}
}

// Dead reckoning from the first record using speed and heading plus a constant drift.
// A time gap of at least gap seconds restarts the integration at the measured position.
func DeadReckon(recs []*Record, driftLon, driftLat, gap float64) {
	for i, p := range recs {
		p.ModelOK = true
		if i == 0 {
			p.LonModel = p.Lon
			p.LatModel = p.Lat
			continue
		}
		prev := recs[i-1]
		dt := p.Epoch - prev.Epoch
		if dt >= gap {
			p.LonModel = p.Lon
			p.LatModel = p.Lat
			continue
		}
		mtodeglon, mtodeglat := CoorScale(p.Lat)
		dx := math.Sin(DTR*p.Heading) * p.Speed * dt / KPH
		dy := math.Cos(DTR*p.Heading) * p.Speed * dt / KPH
		p.LonModel = prev.LonModel + dx*mtodeglon + dt*driftLon/3600
		p.LatModel = prev.LatModel + dy*mtodeglat + dt*driftLat/3600
	}
}

// Diagnostics of an inversion
type InversionStats struct {
	Lon SolveStats
	Lat SolveStats
}

// Smooth positions by a regularized least squares inversion, independently for
// longitude and latitude. Excluded records at the ends take the nearest
// constrained solution. On error the modeled values are left untouched.
func Invert(recs []*Record, opt *ModelOpt, log *slog.Logger) (st InversionStats, err error) {
	if len(recs) == 0 {
		return st, ErrEmptyView
	}

	// Average position of the constrained records
	var lonAvg, latAvg float64
	first, last, navg := -1, -1, 0
	for i, p := range recs {
		if p.Excluded {
			continue
		}
		lonAvg += p.LonOrg
		latAvg += p.LatOrg
		navg++
		if first < 0 {
			first = i
		}
		last = i
	}
	if navg == 0 {
		return st, ErrNoConstraints
	}
	lonAvg /= float64(navg)
	latAvg /= float64(navg)
	mtodeglon, mtodeglat := CoorScale(latAvg)
	if opt.Method == SolverChebyshev && len(recs) > ChebyshevWarnRecords {
		if log == nil {
			log = slog.Default()
		}
		log.Warn("long view may not converge by chebyshev iteration, consider the direct solver",
			"records", len(recs), "limit", ChebyshevWarnRecords, "cycles", opt.Solve.Cycles)
	}

	var xlon, xlat []float64
	xlon, st.Lon, err = invertAxis(recs, opt, func(p *Record) float64 {
		return (p.LonOrg - lonAvg) / mtodeglon
	}, log)
	if err != nil {
		return st, fmt.Errorf("longitude inversion failed: %w", err)
	}
	xlat, st.Lat, err = invertAxis(recs, opt, func(p *Record) float64 {
		return (p.LatOrg - latAvg) / mtodeglat
	}, log)
	if err != nil {
		return st, fmt.Errorf("latitude inversion failed: %w", err)
	}

	for i, p := range recs {
		k := min(max(i, first), last)
		p.LonModel = lonAvg + mtodeglon*xlon[k]
		p.LatModel = latAvg + mtodeglat*xlat[k]
		p.ModelOK = true
	}
	return st, nil
}

// Build and solve the system of one coordinate. anchor returns the de-meaned value [m].
func invertAxis(recs []*Record, opt *ModelOpt, anchor func(*Record) float64, log *slog.Logger) ([]float64, SolveStats, error) {
	n := len(recs)
	s, err := NewSparseSystem(n, 3*n)
	if err != nil {
		return nil, SolveStats{}, err
	}
	ws, wa := opt.SpeedWeight, opt.AccelWeight
	for i, p := range recs {

		// Constrain to the original value unless excluded
		if !p.Excluded {
			if err := s.AddRow(anchor(p), Term{i, 1}); err != nil {
				return nil, SolveStats{}, err
			}
		}

		// Constrain speed
		if ws > 0 && i > 0 && p.Epoch > recs[i-1].Epoch {
			dt := p.Epoch - recs[i-1].Epoch
			if err := s.AddRow(0, Term{i - 1, -ws / dt}, Term{i, ws / dt}); err != nil {
				return nil, SolveStats{}, err
			}
		}

		// Constrain acceleration
		if wa > 0 && i > 0 && i < n-1 && recs[i+1].Epoch > recs[i-1].Epoch {
			dt2 := SQ(recs[i+1].Epoch - recs[i-1].Epoch)
			if err := s.AddRow(0, Term{i - 1, wa / dt2}, Term{i, -2 * wa / dt2}, Term{i + 1, wa / dt2}); err != nil {
				return nil, SolveStats{}, err
			}
		}
	}

	if opt.Method == SolverDirect {
		nr, nc := s.Dims()
		x, err := s.SolveDense()
		return x, SolveStats{Rows: nr, Cols: nc}, err
	}
	return s.Solve(&opt.Solve, log)
}
