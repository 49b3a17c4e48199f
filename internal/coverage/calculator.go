package coverage

import (
	"sort"

	"github.com/guimove/ricoverage/internal/model"
)

// Dimension selects what a roll-up groups by.
type Dimension int

const (
	ByRegion Dimension = iota
	ByEngine
	Overall
)

// Compute returns one result per group, sorted by key.
func Compute(groups map[model.GroupKey]model.CoverageGroup) []model.CoverageResult {
	results := make([]model.CoverageResult, 0, len(groups))
	for _, g := range sortedGroups(groups) {
		results = append(results, model.NewCoverageResult(g.Key, g.CoveredAmount, g.TotalAmount))
	}
	return results
}

// RollUp sums child amounts along a dimension and recomputes the percentage
// from the sums. Results are sorted by key.
func RollUp(groups map[model.GroupKey]model.CoverageGroup, by Dimension) []model.CoverageResult {
	type sums struct{ covered, total float64 }

	var order []model.GroupKey
	acc := make(map[model.GroupKey]*sums)
	for _, g := range sortedGroups(groups) {
		k := rollUpKey(g.Key, by)
		s, ok := acc[k]
		if !ok {
			s = &sums{}
			acc[k] = s
			order = append(order, k)
		}
		s.covered += g.CoveredAmount
		s.total += g.TotalAmount
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Less(order[j]) })
	results := make([]model.CoverageResult, 0, len(order))
	for _, k := range order {
		results = append(results, model.NewCoverageResult(k, acc[k].covered, acc[k].total))
	}
	return results
}

// OverallResult is the single roll-up across every group.
func OverallResult(groups map[model.GroupKey]model.CoverageGroup) model.CoverageResult {
	if r := RollUp(groups, Overall); len(r) > 0 {
		return r[0]
	}
	return model.NewCoverageResult(model.GroupKey{}, 0, 0)
}

func rollUpKey(k model.GroupKey, by Dimension) model.GroupKey {
	switch by {
	case ByRegion:
		return model.GroupKey{RegionCode: k.RegionCode}
	case ByEngine:
		return model.GroupKey{Engine: k.Engine}
	default:
		return model.GroupKey{}
	}
}

func sortedGroups(groups map[model.GroupKey]model.CoverageGroup) []model.CoverageGroup {
	out := make([]model.CoverageGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}
