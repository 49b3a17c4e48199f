package reconcile

import (
	"sort"

	"github.com/guimove/ricoverage/internal/model"
)

// Summarize rolls cost entries up overall, per region and per engine.
func Summarize(entries []model.CostCoverageEntry) model.CostSummary {
	s := model.CostSummary{
		Overall:  model.CostRollUp{},
		ByRegion: rollUp(entries, func(k model.GroupKey) model.GroupKey { return model.GroupKey{RegionCode: k.RegionCode} }),
		ByEngine: rollUp(entries, func(k model.GroupKey) model.GroupKey { return model.GroupKey{Engine: k.Engine} }),
	}
	if overall := rollUp(entries, func(model.GroupKey) model.GroupKey { return model.GroupKey{} }); len(overall) == 1 {
		s.Overall = overall[0]
	}
	return s
}

func rollUp(entries []model.CostCoverageEntry, keyFn func(model.GroupKey) model.GroupKey) []model.CostRollUp {
	acc := make(map[model.GroupKey]*model.CostRollUp)
	var order []model.GroupKey

	for _, e := range entries {
		k := keyFn(e.Key)
		r, ok := acc[k]
		if !ok {
			acc[k] = &model.CostRollUp{
				Key:                    k,
				OnDemandEquivalentCost: e.OnDemandEquivalentCost,
				UncoveredOnDemandCost:  e.UncoveredOnDemandCost,
			}
			order = append(order, k)
			continue
		}
		r.OnDemandEquivalentCost = addNull(r.OnDemandEquivalentCost, e.OnDemandEquivalentCost)
		r.UncoveredOnDemandCost = addNull(r.UncoveredOnDemandCost, e.UncoveredOnDemandCost)
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Less(order[j]) })
	out := make([]model.CostRollUp, 0, len(order))
	for _, k := range order {
		r := acc[k]
		r.CostCoveragePct = costCoverage(r.OnDemandEquivalentCost, r.UncoveredOnDemandCost)
		out = append(out, *r)
	}
	return out
}
