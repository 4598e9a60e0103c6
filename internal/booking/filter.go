package booking

import (
	"context"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"cabin-booking-backend/internal/model"
)

// Filters are the attribute predicates of a cabin search. Zero values mean
// "match all". StartDate/EndDate activate the availability filter only when
// both parse into a valid range; partial or inverted input deactivates the
// date filter instead of erroring.
type Filters struct {
	Type        string
	MinCapacity int
	ServiceIDs  []int64
	StartDate   string
	EndDate     string
}

// dateRange returns the active date filter, or ok=false when none is active.
func (f Filters) dateRange() (DateRange, bool) {
	if f.StartDate == "" || f.EndDate == "" {
		return DateRange{}, false
	}
	r, err := ParseDateRange(f.StartDate, f.EndDate)
	if err != nil {
		return DateRange{}, false
	}
	return r, true
}

// FilterEngine combines date availability with static attribute filters to
// produce the visible cabin list.
type FilterEngine struct {
	checker *AvailabilityChecker
	gen     atomic.Uint64
}

// NewFilterEngine creates a filter engine on top of an availability checker.
func NewFilterEngine(c *AvailabilityChecker) *FilterEngine {
	return &FilterEngine{checker: c}
}

// Apply filters cabins. When a date range is active the availability of every
// currently-Available cabin is checked concurrently; the result is only
// produced after all checks join. A failed check excludes that one cabin
// (fail closed) rather than aborting the filter. If a newer Apply starts
// while this one is in flight, the stale result is dropped with
// ErrSuperseded so out-of-order completions never overwrite newer state.
func (e *FilterEngine) Apply(ctx context.Context, cabins []model.Cabin, f Filters) ([]model.Cabin, error) {
	token := e.gen.Add(1)

	r, dateActive := f.dateRange()

	var availableIDs map[int64]bool
	if dateActive {
		// Cabins under maintenance or already Reserved are excluded from the
		// date path upfront; only currently-Available ones are worth checking.
		var candidates []model.Cabin
		for _, c := range cabins {
			if c.Status == model.StatusAvailable {
				candidates = append(candidates, c)
			}
		}
		availableIDs = e.fanOutChecks(ctx, candidates, r)
	}

	if e.gen.Load() != token {
		return nil, ErrSuperseded
	}

	out := make([]model.Cabin, 0, len(cabins))
	for _, c := range cabins {
		if dateActive {
			if !availableIDs[c.ID] {
				continue
			}
		} else if c.Status == model.StatusUnderMaintenance {
			continue
		}
		if !matchesAttributes(c, f) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// fanOutChecks runs one availability check per candidate cabin concurrently
// and returns the set of ids that are free for r.
func (e *FilterEngine) fanOutChecks(ctx context.Context, candidates []model.Cabin, r DateRange) map[int64]bool {
	type checkResult struct {
		id   int64
		free bool
	}

	results := make(chan checkResult, len(candidates))
	var wg sync.WaitGroup
	for _, c := range candidates {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			free, err := e.checker.IsAvailable(ctx, id, r)
			if err != nil {
				// Fail closed: an unreachable store must not sell the cabin.
				log.Printf("date filter: availability check failed for cabin %d: %v", id, err)
				free = false
			}
			results <- checkResult{id: id, free: free}
		}(c.ID)
	}
	wg.Wait()
	close(results)

	free := make(map[int64]bool, len(candidates))
	for res := range results {
		if res.free {
			free[res.id] = true
		}
	}
	return free
}

func matchesAttributes(c model.Cabin, f Filters) bool {
	if f.Type != "" && !strings.EqualFold(string(c.Type), f.Type) {
		return false
	}
	if f.MinCapacity > 0 && c.Capacity < f.MinCapacity {
		return false
	}
	if len(f.ServiceIDs) > 0 {
		have := make(map[int64]bool, len(c.Services))
		for _, s := range c.Services {
			have[s.ID] = true
		}
		for _, want := range f.ServiceIDs {
			if !have[want] {
				return false
			}
		}
	}
	return true
}
