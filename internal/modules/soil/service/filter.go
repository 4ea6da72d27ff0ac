package service

import (
	"math"
	"sync"

	"soilmon/internal/modules/soil/types"
)

// DefaultThreshold applies to all four fields alike.
const DefaultThreshold = 1.0

// ChangeFilter holds the last accepted bus sample and decides whether a new
// one differs enough to be written. One instance is shared by every delivery.
type ChangeFilter struct {
	mu        sync.Mutex
	threshold float64
	last      types.Sample
	set       bool
}

func NewChangeFilter(threshold float64) *ChangeFilter {
	return &ChangeFilter{threshold: threshold}
}

// Accept reports whether s should be persisted. The first sample is always
// accepted; later ones need at least one field to move by more than the
// threshold. An accepted sample becomes the new baseline before Accept
// returns, so concurrent near-duplicates compare against it.
func (f *ChangeFilter) Accept(s types.Sample) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.set && !differs(f.last, s, f.threshold) {
		return false
	}
	f.last = s
	f.set = true
	return true
}

// Last returns the current baseline and whether one has been set.
func (f *ChangeFilter) Last() (types.Sample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.set
}

func differs(a, b types.Sample, threshold float64) bool {
	return math.Abs(a.Nitrogen-b.Nitrogen) > threshold ||
		math.Abs(a.Phosphorus-b.Phosphorus) > threshold ||
		math.Abs(a.Potassium-b.Potassium) > threshold ||
		math.Abs(a.PH-b.PH) > threshold
}
