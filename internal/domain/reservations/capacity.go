package reservations

import (
	"sort"
	"time"

	"hotelops/internal/domain/shared/daterange"
)

// PeakConcurrency returns the highest number of active reservations that share
// a single night inside window. The reservation with id skip is ignored so an
// amendment does not count against itself.
func PeakConcurrency(existing []*Reservation, window daterange.DateRange, skip ID) int {
	type edge struct {
		at    time.Time
		delta int
	}
	edges := make([]edge, 0, 2*len(existing))
	for _, r := range existing {
		if !r.Active() || (skip != "" && r.ID == skip) {
			continue
		}
		clamped, ok := r.Range.Clamp(window)
		if !ok {
			continue
		}
		edges = append(edges, edge{at: clamped.CheckIn, delta: 1}, edge{at: clamped.CheckOut, delta: -1})
	}
	// Departures sort before arrivals on the same day: the ranges are half-open.
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].at.Equal(edges[j].at) {
			return edges[i].delta < edges[j].delta
		}
		return edges[i].at.Before(edges[j].at)
	})
	peak, current := 0, 0
	for _, e := range edges {
		current += e.delta
		if current > peak {
			peak = current
		}
	}
	return peak
}

// HasTypeCapacity reports whether one more stay fits among sellable rooms of a
// type given the reservations already holding that type during window.
func HasTypeCapacity(existing []*Reservation, window daterange.DateRange, skip ID, sellableRooms int) bool {
	return PeakConcurrency(existing, window, skip)+1 <= sellableRooms
}
