// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package navedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Samples at the given times and longitudes with distinct latitudes
func samplesAt(times, lons []float64) []Sample {
	s := make([]Sample, len(times))
	for i := range s {
		s[i] = Sample{
			Epoch:   times[i],
			Lon:     lons[i],
			Lat:     35 + 0.001*float64(i),
			Speed:   float64(i + 1),
			Heading: 10 * float64(i),
		}
	}
	return s
}

func TestInterpolateInterior(t *testing.T) {
	s := newTestSession(t, samplesAt([]float64{0, 10, 20}, []float64{1, 99, 3}), ModelOff)
	_, err := s.Select(ChLon, 1, 1)
	require.NoError(t, err)

	ch, err := s.Interpolate(ChLon)
	require.NoError(t, err)
	assert.True(t, ch.Has(ChangePosition))
	assert.True(t, ch.Has(ChangeFlags))
	p := s.Buffer().At(1)
	assert.Equal(t, 2.0, p.Lon)
	assert.True(t, p.Excluded)
	assert.Equal(t, 99.0, p.LonOrg)
	assert.False(t, s.Buffer().At(0).Excluded)
}

func TestInterpolateBoundary(t *testing.T) {
	s := newTestSession(t, samplesAt([]float64{0, 10, 20}, []float64{5, 7, 9}), ModelOff)

	// No neighbour before: nearest after is held
	_, err := s.Select(ChLon, 0, 1)
	require.NoError(t, err)
	_, err = s.Interpolate(ChLon)
	require.NoError(t, err)
	assert.Equal(t, 7.0, s.Buffer().At(0).Lon)

	// No neighbour after: positions extrapolate from the two before
	s = newTestSession(t, samplesAt([]float64{0, 10, 20}, []float64{1, 2, 8}), ModelOff)
	_, err = s.Select(ChLon, 2, 1)
	require.NoError(t, err)
	_, err = s.Interpolate(ChLon)
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.Buffer().At(2).Lon)

	// Other channels hold the value before
	_, err = s.Select(ChSpeed, 2, 1)
	require.NoError(t, err)
	ch, err := s.Interpolate(ChSpeed)
	require.NoError(t, err)
	assert.Equal(t, ChangeSpeedHeading, ch)
	assert.Equal(t, 2.0, s.Buffer().At(2).Speed)
	assert.False(t, s.Buffer().At(2).Sel[ChLon])
}

func TestInterpolateTime(t *testing.T) {
	s := newTestSession(t, samplesAt([]float64{100, 110, 155, 130}, []float64{1, 2, 3, 4}), ModelOff)
	assert.True(t, s.Buffer().Disorder())
	_, err := s.Select(ChTime, 2, 1)
	require.NoError(t, err)

	ch, err := s.Interpolate(ChTime)
	require.NoError(t, err)
	assert.True(t, ch.Has(ChangeTime))
	p := s.Buffer().At(2)
	assert.Equal(t, 120.0, p.Epoch)
	assert.Equal(t, 20.0, p.FileTime)
	assert.Equal(t, 10.0, p.Interval)
	assert.Equal(t, NewTimeFields(120), p.Time)
	assert.Equal(t, 10.0, s.Buffer().At(3).Interval)
	assert.True(t, p.Excluded)
}

func TestInterpolateNothingSelected(t *testing.T) {
	s := newTestSession(t, trackSamples(5), ModelOff)
	_, err := s.Interpolate(ChDepth)
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = s.Interpolate(Channel(42))
	assert.ErrorIs(t, err, ErrChannel)
}

func TestInterpolateAll(t *testing.T) {
	s := newTestSession(t, samplesAt([]float64{0, 10, 20}, []float64{1, 99, 3}), ModelOff)
	_, err := s.Select(ChLon, 1, 1)
	require.NoError(t, err)
	ch, err := s.InterpolateAll()
	require.NoError(t, err)
	assert.True(t, ch.Has(ChangePosition))
	assert.Equal(t, 2.0, s.Buffer().At(1).Lon)
}

func TestEmptyView(t *testing.T) {
	s := NewSession(nil)
	_, err := s.Interpolate(ChLon)
	assert.ErrorIs(t, err, ErrEmptyView)
	_, err = s.Revert(ChLon)
	assert.ErrorIs(t, err, ErrEmptyView)
	_, _, err = s.FixTime()
	assert.ErrorIs(t, err, ErrEmptyView)
	_, _, err = s.DeleteBadTime()
	assert.ErrorIs(t, err, ErrEmptyView)
	_, err = s.UseModel()
	assert.ErrorIs(t, err, ErrEmptyView)
}

func TestSelectionExclusive(t *testing.T) {
	s := newTestSession(t, trackSamples(6), ModelOff)
	ch, err := s.Select(ChLon, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, ChangeSelection, ch)
	assert.Equal(t, 3, s.Selected(ChLon))

	_, err = s.Select(ChSpeed, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Selected(ChLon))
	assert.Equal(t, 1, s.Selected(ChSpeed))

	_, err = s.Deselect(ChSpeed, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Selected(ChSpeed))

	// Selection is clipped to the active view
	s.SetView(2, 2)
	_, err = s.SelectAll(ChDepth)
	require.NoError(t, err)
	s.ShowAll()
	assert.Equal(t, 2, s.Selected(ChDepth))
	assert.True(t, s.Buffer().At(2).Sel[ChDepth])
	assert.True(t, s.Buffer().At(3).Sel[ChDepth])

	_, err = s.DeselectAll(ChDepth)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Selected(ChDepth))
}

func TestSelectTimeRange(t *testing.T) {
	s := newTestSession(t, trackSamples(10), ModelOff)
	_, err := s.SelectTimeRange(ChHeading, 6, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Selected(ChHeading))

	_, err = s.SelectTimeRange(ChHeading, 100, 200)
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestRevertRoundTrip(t *testing.T) {
	s := newTestSession(t, noisyTrack(), ModelOff)
	orig := make([]float64, s.Buffer().Len())
	for i, p := range s.Records() {
		orig[i] = p.Lon
	}

	_, err := s.SelectAll(ChLon)
	require.NoError(t, err)
	_, err = s.Select(ChLon, 0, 1)
	require.NoError(t, err)
	s.Buffer().At(0).Sel[ChLon] = false
	_, err = s.Interpolate(ChLon)
	require.NoError(t, err)
	assert.NotEqual(t, orig[5], s.Buffer().At(5).Lon)

	ch, err := s.Revert(ChLon)
	require.NoError(t, err)
	assert.True(t, ch.Has(ChangePosition))
	for i, p := range s.Records() {
		assert.Equal(t, orig[i], p.Lon)
		assert.Equal(t, p.LonOrg, p.Lon)
	}
}

func TestRevertTime(t *testing.T) {
	s := newTestSession(t, trackSamples(4), ModelOff)
	s.Buffer().Retime(2, 0)
	_, err := s.Select(ChTime, 2, 1)
	require.NoError(t, err)

	_, err = s.Revert(ChTime)
	require.NoError(t, err)
	p := s.Buffer().At(2)
	assert.Equal(t, p.EpochOrg, p.Epoch)
	assert.Equal(t, 2.0, p.FileTime)
	assert.Equal(t, 1.0, p.Interval)
}

func TestFlag(t *testing.T) {
	s := newTestSession(t, trackSamples(5), ModelMean)
	_, err := s.Flag(ChLat)
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = s.Select(ChSpeed, 1, 2)
	require.NoError(t, err)
	_, err = s.Flag(ChSpeed)
	assert.ErrorIs(t, err, ErrChannel)

	_, err = s.Select(ChLat, 1, 2)
	require.NoError(t, err)
	ch, err := s.Flag(ChLat)
	require.NoError(t, err)
	assert.True(t, ch.Has(ChangeFlags))
	assert.True(t, ch.Has(ChangeModel))
	assert.True(t, s.Buffer().At(1).Excluded)
	assert.True(t, s.Buffer().At(2).Excluded)
	assert.False(t, s.Buffer().At(3).Excluded)

	_, err = s.Unflag(ChLat)
	require.NoError(t, err)
	assert.False(t, s.Buffer().At(1).Excluded)
}

func TestFixTime(t *testing.T) {
	s := newTestSession(t, samplesAt([]float64{0, 1, 1, 1, 5, 6}, []float64{0, 1, 2, 3, 4, 5}), ModelOff)
	n, ch, err := s.FixTime()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, ch.Has(ChangeTime))

	var times []float64
	for _, p := range s.Records() {
		times = append(times, p.Epoch)
	}
	assert.InDeltaSlice(t, []float64{0, 1, 1 + 4.0/3, 1 + 8.0/3, 5, 6}, times, 1e-12)

	// Already increasing
	n, ch, err = s.FixTime()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, ChangeNone, ch)
}

func TestDeleteBadTime(t *testing.T) {
	s := newTestSession(t, samplesAt([]float64{0, 1, 1, 2, 0.5, 3}, []float64{0, 1, 2, 3, 4, 5}), ModelOff)
	before := s.Buffer().Len()

	n, ch, err := s.DeleteBadTime()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, ch.Has(ChangeRecords))
	assert.Equal(t, before-2, s.Buffer().Len())

	var times []float64
	for _, p := range s.Records() {
		times = append(times, p.Epoch)
	}
	assert.Equal(t, []float64{0, 1, 2, 3}, times)
	from, count := s.View()
	assert.Equal(t, 0, from)
	assert.Equal(t, 4, count)
}

func TestDeleteBadTimeAfterGap(t *testing.T) {
	s := newTestSession(t, samplesAt([]float64{0, 1, 100, 50, 51}, []float64{0, 1, 2, 3, 4}), ModelOff)
	n, _, err := s.DeleteBadTime()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var times []float64
	for _, p := range s.Records() {
		times = append(times, p.Epoch)
	}
	assert.Equal(t, []float64{0, 1, 50, 51}, times)
}

func TestInterpolateRepeats(t *testing.T) {
	s := newTestSession(t, samplesAt([]float64{0, 1, 2, 3, 4}, []float64{1, 2, 2, 2, 5}), ModelOff)
	_, err := s.SelectAll(ChLon)
	require.NoError(t, err)

	_, err = s.InterpolateRepeats(ChLon)
	require.NoError(t, err)
	var lons []float64
	for _, p := range s.Records() {
		lons = append(lons, p.Lon)
	}
	assert.InDeltaSlice(t, []float64{1, 2, 3, 4, 5}, lons, 1e-12)

	// Nothing repeats any more
	_, err = s.InterpolateRepeats(ChLon)
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestInterpolateWithinView(t *testing.T) {
	s := newTestSession(t, samplesAt([]float64{0, 10, 20, 30, 40, 50}, []float64{1, 99, 3, 4, 99, 6}), ModelOff)
	_, err := s.Select(ChLon, 1, 1)
	require.NoError(t, err)
	_, err = s.Select(ChLon, 4, 1)
	require.NoError(t, err)

	// Selections left behind by a step stay untouched
	s.SetView(3, 3)
	_, err = s.Interpolate(ChLon)
	require.NoError(t, err)
	assert.Equal(t, 5.0, s.Buffer().At(4).Lon)
	assert.Equal(t, 99.0, s.Buffer().At(1).Lon)
	assert.True(t, s.Buffer().At(1).Sel[ChLon])

	// Neighbours outside the view still bracket the edit
	s.SetView(1, 1)
	_, err = s.Interpolate(ChLon)
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.Buffer().At(1).Lon)
}

func TestInterpolateRepeatsWithinView(t *testing.T) {
	s := newTestSession(t, samplesAt([]float64{0, 1, 2, 3, 4}, []float64{1, 2, 2, 2, 5}), ModelOff)
	_, err := s.SelectAll(ChLon)
	require.NoError(t, err)

	s.SetView(0, 3)
	_, err = s.InterpolateRepeats(ChLon)
	require.NoError(t, err)
	var lons []float64
	for _, p := range s.Records() {
		lons = append(lons, p.Lon)
	}
	assert.InDeltaSlice(t, []float64{1, 2, 3, 2, 5}, lons, 1e-12)
}

func TestUseModel(t *testing.T) {
	s := newTestSession(t, noisyTrack(), ModelOff)
	_, err := s.SelectAll(ChLon)
	require.NoError(t, err)
	_, err = s.UseModel()
	assert.ErrorIs(t, err, ErrModelOff)

	ch, err := s.SetModel(ModelMean)
	require.NoError(t, err)
	assert.Equal(t, ChangeModel, ch)
	want := s.Buffer().At(5).LonModel
	_, err = s.UseModel()
	require.NoError(t, err)
	assert.Equal(t, want, s.Buffer().At(5).Lon)
}

func TestUseMadeGood(t *testing.T) {
	s := newTestSession(t, trackSamples(5), ModelOff)
	_, err := s.UseSpeedMadeGood()
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = s.SelectAll(ChSpeed)
	require.NoError(t, err)
	_, err = s.UseSpeedMadeGood()
	require.NoError(t, err)
	for _, p := range s.Records() {
		assert.Equal(t, p.SMG, p.Speed)
	}

	_, err = s.SelectAll(ChHeading)
	require.NoError(t, err)
	_, err = s.UseCourseMadeGood()
	require.NoError(t, err)
	for _, p := range s.Records() {
		assert.Equal(t, p.CMG, p.Heading)
	}
}
