// Package coverage sums normalized usage into groups and derives coverage
// percentages for groups and roll-ups.
package coverage

import (
	"runtime"
	"sort"
	"sync"

	"github.com/guimove/ricoverage/internal/model"
)

// Aggregate sums records per (region, engine, base size). Records are sorted
// before summation so any ordering of the same input produces bit-identical
// sums. The input slice is not modified.
func Aggregate(records []model.UsageRecord) map[model.GroupKey]model.CoverageGroup {
	sorted := make([]model.UsageRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Key != b.Key {
			return a.Key.Less(b.Key)
		}
		if a.CoveredAmount != b.CoveredAmount {
			return a.CoveredAmount < b.CoveredAmount
		}
		return a.TotalAmount < b.TotalAmount
	})

	groups := make(map[model.GroupKey]model.CoverageGroup)
	for _, r := range sorted {
		g := groups[r.Key]
		g.Key = r.Key
		g.CoveredAmount += r.CoveredAmount
		g.TotalAmount += r.TotalAmount
		g.Records++
		groups[r.Key] = g
	}
	return groups
}

// Aggregator runs Aggregate over (region, engine) partitions on a bounded
// worker pool. Partitions never share a group key, so the result equals the
// serial Aggregate.
type Aggregator struct {
	Parallelism int
}

// NewAggregator creates an aggregator sized to the machine.
func NewAggregator() *Aggregator {
	return &Aggregator{Parallelism: runtime.NumCPU()}
}

// Aggregate sums records, in parallel when more than one worker is allowed.
func (a *Aggregator) Aggregate(records []model.UsageRecord) map[model.GroupKey]model.CoverageGroup {
	if a == nil || a.Parallelism <= 1 {
		return Aggregate(records)
	}

	partitions := make(map[model.GroupKey][]model.UsageRecord)
	for _, r := range records {
		p := r.Key.Partition()
		partitions[p] = append(partitions[p], r)
	}
	if len(partitions) <= 1 {
		return Aggregate(records)
	}

	results := make([]map[model.GroupKey]model.CoverageGroup, 0, len(partitions))
	var mu sync.Mutex

	sem := make(chan struct{}, a.Parallelism)
	var wg sync.WaitGroup

	for _, part := range partitions {
		wg.Add(1)
		go func(recs []model.UsageRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			groups := Aggregate(recs)
			mu.Lock()
			results = append(results, groups)
			mu.Unlock()
		}(part)
	}

	wg.Wait()

	merged := make(map[model.GroupKey]model.CoverageGroup)
	for _, groups := range results {
		for k, g := range groups {
			merged[k] = g
		}
	}
	return merged
}
