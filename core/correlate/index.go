// Package correlate merges the independently ordered telemetry streams
// into a single time-ordered sequence while keeping memory proportional
// to the set of vehicles with an open trip, not to the input size.
package correlate

import (
	"container/heap"
	"context"
	"io"

	"github.com/kilianp07/fleetscope/core/stream"
	"github.com/kilianp07/fleetscope/core/telemetry"
)

// Index is a pull-based k-way merge over the stream readers. Point
// records surface at their sample time. Interval records (trips,
// charging sessions) are ingested at their start time, held open, and
// released downstream once the watermark passes their end time, so a
// consumer sees a trip only after every record the trip covers.
//
// The correlation key is (vehicle identity, currently-open trip): once a
// trip closes and the vehicle has no open charging session, its state is
// evicted and a reused identifier starts from scratch.
type Index struct {
	srcs   []*source
	open   intervalHeap
	active map[string]*vehicleState
	peak   int
	primed bool
	err    error
}

type source struct {
	r    stream.Reader
	head telemetry.Record
	done bool
}

type vehicleState struct {
	openSessions int
	tripClosed   bool
}

// New builds an Index over the given readers. Readers must each be
// internally ordered by timestamp; violations surface as stream
// corruption from the readers themselves.
func New(readers ...stream.Reader) *Index {
	srcs := make([]*source, 0, len(readers))
	for _, r := range readers {
		if r == nil {
			continue
		}
		srcs = append(srcs, &source{r: r})
	}
	return &Index{srcs: srcs, active: make(map[string]*vehicleState)}
}

// Next returns the next record in global time order, io.EOF once all
// streams and open intervals are drained. Errors are sticky.
func (idx *Index) Next(ctx context.Context) (telemetry.Record, error) {
	if idx.err != nil {
		return nil, idx.err
	}
	if !idx.primed {
		for _, s := range idx.srcs {
			if err := idx.advance(ctx, s); err != nil {
				idx.err = err
				return nil, err
			}
		}
		idx.primed = true
	}
	for {
		best := idx.minSource()

		if len(idx.open) > 0 {
			top := idx.open[0]
			if best == nil || closesBefore(top, best.head) {
				heap.Pop(&idx.open)
				idx.onClose(top)
				return top, nil
			}
		}
		if best == nil {
			return nil, io.EOF
		}

		rec := best.head
		if err := idx.advance(ctx, best); err != nil {
			idx.err = err
			return nil, err
		}
		if iv, ok := rec.(telemetry.Interval); ok {
			heap.Push(&idx.open, iv)
			idx.onOpen(iv)
			continue
		}
		idx.touch(rec.Vehicle())
		return rec, nil
	}
}

// ActiveSize is the current number of vehicles with unfinalized state.
func (idx *Index) ActiveSize() int { return len(idx.active) }

// PeakActive is the largest active set observed so far.
func (idx *Index) PeakActive() int { return idx.peak }

func (idx *Index) advance(ctx context.Context, s *source) error {
	rec, err := s.r.Next(ctx)
	switch {
	case err == io.EOF:
		s.done = true
		s.head = nil
		return nil
	case err != nil:
		return err
	}
	s.head = rec
	return nil
}

func (idx *Index) minSource() *source {
	var best *source
	for _, s := range idx.srcs {
		if s.done {
			continue
		}
		if best == nil || recordLess(s.head, best.head) {
			best = s
		}
	}
	return best
}

func (idx *Index) touch(vehicle string) *vehicleState {
	st, ok := idx.active[vehicle]
	if !ok {
		st = &vehicleState{}
		idx.active[vehicle] = st
		if len(idx.active) > idx.peak {
			idx.peak = len(idx.active)
		}
	}
	return st
}

func (idx *Index) onOpen(iv telemetry.Interval) {
	st := idx.touch(iv.Vehicle())
	if iv.Kind() == telemetry.KindChargingEvent {
		st.openSessions++
	}
}

func (idx *Index) onClose(iv telemetry.Interval) {
	st := idx.touch(iv.Vehicle())
	switch iv.Kind() {
	case telemetry.KindTripSummary:
		st.tripClosed = true
	case telemetry.KindChargingEvent:
		st.openSessions--
	}
	if st.tripClosed && st.openSessions <= 0 {
		delete(idx.active, iv.Vehicle())
	}
}

// recordLess orders by timestamp, then stream priority, then vehicle.
func recordLess(a, b telemetry.Record) bool {
	if a.Time() != b.Time() {
		return a.Time() < b.Time()
	}
	if a.Kind() != b.Kind() {
		return a.Kind() < b.Kind()
	}
	return a.Vehicle() < b.Vehicle()
}

// closesBefore decides whether the open interval top must be released
// before the pending source head is consumed. Point records at the same
// timestamp win (samples before battery before trip/charging); interval
// heads at the same timestamp are ingested first, which is safe because
// ingestion emits nothing.
func closesBefore(top telemetry.Interval, head telemetry.Record) bool {
	if top.EndTime() != head.Time() {
		return top.EndTime() < head.Time()
	}
	_, headIsInterval := head.(telemetry.Interval)
	return !headIsInterval && top.Kind() < head.Kind()
}

type intervalHeap []telemetry.Interval

func (h intervalHeap) Len() int { return len(h) }

// Less releases charging sessions before a trip closing at the same
// time, so a session ending exactly at the trip arrival still reaches
// the consumer while the trip is open.
func (h intervalHeap) Less(i, j int) bool {
	if h[i].EndTime() != h[j].EndTime() {
		return h[i].EndTime() < h[j].EndTime()
	}
	if h[i].Kind() != h[j].Kind() {
		return h[i].Kind() > h[j].Kind()
	}
	return h[i].Vehicle() < h[j].Vehicle()
}

func (h intervalHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *intervalHeap) Push(x any) { *h = append(*h, x.(telemetry.Interval)) }

func (h *intervalHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
