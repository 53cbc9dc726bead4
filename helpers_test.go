// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package navedit

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// Source over an in-memory slice; fails with err after failAt samples when err is set
type sliceSource struct {
	smp    []Sample
	i      int
	failAt int
	err    error
}

func (p *sliceSource) Next() (*Sample, error) {
	if p.err != nil && p.i == p.failAt {
		return nil, p.err
	}
	if p.i >= len(p.smp) {
		return nil, io.EOF
	}
	s := p.smp[p.i]
	p.i++
	return &s, nil
}

// Sink keeping copies of the appended records
type recordSink struct {
	recs   []Record
	failAt int // Fail on this append when > 0
}

var errSinkFull = errors.New("disk full")

func (p *recordSink) Append(r *Record) error {
	if p.failAt > 0 && len(p.recs) == p.failAt {
		return errSinkFull
	}
	p.recs = append(p.recs, *r)
	return nil
}

// n samples one second apart moving north east from (140, 35)
func trackSamples(n int) []Sample {
	s := make([]Sample, n)
	for i := range s {
		s[i] = Sample{
			Epoch:   1.7e9 + float64(i),
			Lon:     140 + 0.0001*float64(i),
			Lat:     35 + 0.0001*float64(i),
			Speed:   10,
			Heading: 45,
			Depth:   5,
		}
	}
	return s
}

func newTestSession(t *testing.T, smp []Sample, kind ModelKind) *Session {
	t.Helper()
	opt := NewSessionOpt()
	opt.Capacity = 1000
	opt.Model.Kind = kind
	s := NewSession(opt)
	_, err := s.Load(&sliceSource{smp: smp})
	require.NoError(t, err)
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
