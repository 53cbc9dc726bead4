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
	"io"
	"log/slog"

	"golang.org/x/exp/slices"
)

// Sequential source of navigation samples. Next returns io.EOF when exhausted.
type Source interface {
	Next() (*Sample, error)
}

// Sequential sink of edited navigation records
type Sink interface {
	Append(p *Record) error
}

// Outcome of a load
type LoadResult struct {
	Loaded     int  // Records appended by this load
	ReachedEnd bool // Source exhausted
	Disorder   bool // Duplicate or reversed time stamps among resident records
}

// Window of navigation records paged over a sequential source and sink
type Buffer struct {
	recs        []*Record
	capacity    int
	totalLoaded int
	totalDumped int
	seq         int     // Global sequence number of the next loaded record
	fileStart   float64 // Epoch of the first record of the file
	started     bool
	offsetLon   float64 // Offset added to newly loaded positions
	offsetLat   float64
	disorder    bool
	log         *slog.Logger
}

func NewBuffer(capacity int, log *slog.Logger) *Buffer {
	if log == nil {
		log = slog.Default()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		recs:     make([]*Record, 0, min(capacity, 4096)),
		capacity: capacity,
		log:      log,
	}
}

func (b *Buffer) Len() int {
	return len(b.recs)
}

func (b *Buffer) Capacity() int {
	return b.capacity
}

// Resident records in buffer order. The slice is owned by the buffer.
func (b *Buffer) Records() []*Record {
	return b.recs
}

func (b *Buffer) At(i int) *Record {
	return b.recs[i]
}

func (b *Buffer) TotalLoaded() int {
	return b.totalLoaded
}

func (b *Buffer) TotalDumped() int {
	return b.totalDumped
}

// Epoch of the first record of the file
func (b *Buffer) FileStart() float64 {
	return b.fileStart
}

// Disorder detected by the last load
func (b *Buffer) Disorder() bool {
	return b.disorder
}

// Set the position offset added to records loaded from now on
func (b *Buffer) SetOffset(lon, lat float64) {
	b.offsetLon = lon
	b.offsetLat = lat
}

func (b *Buffer) Offset() (lon, lat float64) {
	return b.offsetLon, b.offsetLat
}

// Append records from src until the window is full or src is exhausted
func (b *Buffer) Load(src Source) (LoadResult, error) {
	var res LoadResult
	for len(b.recs) < b.capacity {
		s, err := src.Next()
		if errors.Is(err, io.EOF) {
			res.ReachedEnd = true
			break
		}
		if err != nil {
			b.finishLoad(&res)
			return res, fmt.Errorf("failed to read navigation record: %w", err)
		}

		// Get first time value of the file
		if !b.started {
			b.fileStart = s.Epoch
			b.started = true
		}

		p := NewRecord(s)
		p.ID = len(b.recs)
		p.Record = b.seq
		p.FileTime = p.Epoch - b.fileStart

		// Apply offsets
		p.Lon += b.offsetLon
		p.Lat += b.offsetLat
		p.LonModel = p.Lon
		p.LatModel = p.Lat

		// Exclude repeated positions
		if n := len(b.recs); n > 0 && p.Lon == b.recs[n-1].Lon && p.Lat == b.recs[n-1].Lat {
			p.Excluded = true
		}

		b.recs = append(b.recs, p)
		b.seq++
		res.Loaded++
	}
	b.finishLoad(&res)
	b.log.Info("navigation loaded", "loaded", res.Loaded, "resident", len(b.recs),
		"total_loaded", b.totalLoaded, "end", res.ReachedEnd)
	if res.Disorder {
		b.log.Warn("duplicate or reverse order time stamps detected", "resident", len(b.recs))
	}
	return res, nil
}

func (b *Buffer) finishLoad(res *LoadResult) {
	b.totalLoaded += res.Loaded
	b.UpdateIntervals()
	b.disorder = b.checkDisorder()
	res.Disorder = b.disorder
}

// True if any adjacent pair of resident records has non-increasing time
func (b *Buffer) checkDisorder() bool {
	for i := 1; i < len(b.recs); i++ {
		if b.recs[i].Epoch <= b.recs[i-1].Epoch {
			return true
		}
	}
	return false
}

// Write all but the last hold records to sink and shift the held records to the front.
// Nothing is dumped when hold is not smaller than the resident count.
func (b *Buffer) Dump(sink Sink, hold int) (int, error) {
	hold = max(hold, 0)
	n := len(b.recs) - hold
	if n <= 0 {
		return 0, nil
	}

	// Write out edited data
	if sink != nil {
		for _, p := range b.recs[:n] {
			if err := sink.Append(p); err != nil {
				return 0, fmt.Errorf("%w (record %d): %v", ErrSinkWrite, p.Record, err)
			}
		}
	}

	// Copy data to be held
	copy(b.recs, b.recs[n:])
	clear(b.recs[hold:])
	b.recs = b.recs[:hold]
	b.renumber()

	// The new first record lost its predecessor
	b.UpdateIntervals()
	UpdateSmgCmg(b.recs, 0)
	b.totalDumped += n
	b.log.Info("navigation dumped", "dumped", n, "resident", len(b.recs), "total_dumped", b.totalDumped)
	return n, nil
}

// Remove records matching del, keeping the survivors in order. Returns the number removed.
func (b *Buffer) Delete(del func(*Record) bool) int {
	n := len(b.recs)
	b.recs = slices.DeleteFunc(b.recs, del)
	clear(b.recs[len(b.recs):n])
	if len(b.recs) != n {
		b.renumber()
		b.UpdateIntervals()
	}
	return n - len(b.recs)
}

func (b *Buffer) renumber() {
	for i, p := range b.recs {
		p.ID = i
	}
}

// Set the epoch of record i with its calendar and file relative times
func (b *Buffer) Retime(i int, epoch float64) {
	p := b.recs[i]
	p.Epoch = epoch
	p.Time = NewTimeFields(epoch)
	p.FileTime = epoch - b.fileStart
}

// Recompute time intervals. Record 0 inherits the interval of record 1.
func (b *Buffer) UpdateIntervals() {
	for i := 1; i < len(b.recs); i++ {
		b.recs[i].Interval = b.recs[i].Epoch - b.recs[i-1].Epoch
		b.recs[i].IntervalOrg = b.recs[i].EpochOrg - b.recs[i-1].EpochOrg
	}
	switch len(b.recs) {
	case 0:
	case 1:
		b.recs[0].Interval = 0
		b.recs[0].IntervalOrg = 0
	default:
		b.recs[0].Interval = b.recs[1].Interval
		b.recs[0].IntervalOrg = b.recs[1].IntervalOrg
	}
}
