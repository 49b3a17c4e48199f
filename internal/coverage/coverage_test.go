package coverage

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guimove/ricoverage/internal/model"
)

func key(region, engine, size string) model.GroupKey {
	return model.GroupKey{RegionCode: region, Engine: engine, BaseInstanceSize: size}
}

func sampleRecords() []model.UsageRecord {
	var recs []model.UsageRecord
	regions := []string{"us-east-1", "eu-west-1", "ap-northeast-1"}
	engines := []string{"Aurora MySQL", "PostgreSQL"}
	sizes := []string{"db.r6g.large", "db.m5.large"}
	i := 0
	for _, r := range regions {
		for _, e := range engines {
			for _, s := range sizes {
				for n := 0; n < 5; n++ {
					i++
					total := 0.1*float64(i) + 1.0/3.0
					recs = append(recs, model.UsageRecord{
						Key:           key(r, e, s),
						TotalAmount:   total,
						CoveredAmount: total * 0.7,
					})
				}
			}
		}
	}
	return recs
}

func TestAggregate(t *testing.T) {
	recs := []model.UsageRecord{
		{Key: key("us-east-1", "MySQL", "db.r5.large"), CoveredAmount: 1, TotalAmount: 2},
		{Key: key("us-east-1", "MySQL", "db.r5.large"), CoveredAmount: 3, TotalAmount: 4},
		{Key: key("us-east-1", "MySQL", "db.m5.large"), CoveredAmount: 0, TotalAmount: 1},
	}

	groups := Aggregate(recs)
	require.Len(t, groups, 2)

	g := groups[key("us-east-1", "MySQL", "db.r5.large")]
	assert.Equal(t, 4.0, g.CoveredAmount)
	assert.Equal(t, 6.0, g.TotalAmount)
	assert.Equal(t, 2, g.Records)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	recs := sampleRecords()
	want := Aggregate(recs)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]model.UsageRecord, len(recs))
		copy(shuffled, recs)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		assert.Equal(t, want, Aggregate(shuffled), "permutation %d", i)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	recs := sampleRecords()
	first := Aggregate(recs)
	second := Aggregate(recs)
	assert.Equal(t, first, second)
}

func TestAggregate_DoesNotModifyInput(t *testing.T) {
	recs := []model.UsageRecord{
		{Key: key("us-west-2", "MySQL", "db.r5.large"), TotalAmount: 2},
		{Key: key("eu-west-1", "MySQL", "db.r5.large"), TotalAmount: 1},
	}
	Aggregate(recs)
	assert.Equal(t, "us-west-2", recs[0].Key.RegionCode)
}

func TestAggregator_MatchesSerial(t *testing.T) {
	recs := sampleRecords()
	want := Aggregate(recs)

	for _, workers := range []int{0, 1, 2, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			agg := &Aggregator{Parallelism: workers}
			assert.Equal(t, want, agg.Aggregate(recs))
		})
	}

	assert.Equal(t, want, NewAggregator().Aggregate(recs))
}

func TestCompute(t *testing.T) {
	groups := map[model.GroupKey]model.CoverageGroup{
		key("us-east-1", "MySQL", "db.r5.large"): {Key: key("us-east-1", "MySQL", "db.r5.large"), CoveredAmount: 3, TotalAmount: 4},
		key("eu-west-1", "MySQL", "db.r5.large"): {Key: key("eu-west-1", "MySQL", "db.r5.large"), CoveredAmount: 0, TotalAmount: 0},
	}

	results := Compute(groups)
	require.Len(t, results, 2)

	assert.Equal(t, "eu-west-1", results[0].Key.RegionCode, "results are sorted by key")
	assert.False(t, results[0].HasUsage(), "zero total is no usage, not 0%")
	assert.Equal(t, model.NoUsage, results[0].CoverageString())

	require.True(t, results[1].HasUsage())
	assert.Equal(t, 75.0, *results[1].CoveragePct)

	for _, r := range results {
		assert.GreaterOrEqual(t, r.Covered, 0.0)
		assert.LessOrEqual(t, r.Covered, r.Total)
	}
}

func TestRollUp_RecomputesFromSums(t *testing.T) {
	groups := Aggregate([]model.UsageRecord{
		{Key: key("us-east-1", "MySQL", "db.r5.large"), CoveredAmount: 1, TotalAmount: 1},
		{Key: key("us-east-1", "PostgreSQL", "db.m5.large"), CoveredAmount: 0, TotalAmount: 9},
		{Key: key("eu-west-1", "MySQL", "db.r5.large"), CoveredAmount: 2, TotalAmount: 4},
	})

	byRegion := RollUp(groups, ByRegion)
	require.Len(t, byRegion, 2)
	assert.Equal(t, model.GroupKey{RegionCode: "eu-west-1"}, byRegion[0].Key)
	assert.Equal(t, 50.0, *byRegion[0].CoveragePct)

	// 1/10, not the 50% mean of 100% and 0%
	assert.Equal(t, model.GroupKey{RegionCode: "us-east-1"}, byRegion[1].Key)
	assert.InDelta(t, 10.0, *byRegion[1].CoveragePct, 1e-9)

	byEngine := RollUp(groups, ByEngine)
	require.Len(t, byEngine, 2)
	assert.Equal(t, "MySQL", byEngine[0].Key.Engine)
	assert.Equal(t, 5.0, byEngine[0].Total)
	assert.Equal(t, 3.0, byEngine[0].Covered)

	overall := OverallResult(groups)
	assert.Equal(t, 14.0, overall.Total)
	assert.Equal(t, 3.0, overall.Covered)
}

func TestOverallResult_Empty(t *testing.T) {
	r := OverallResult(nil)
	assert.False(t, r.HasUsage())
}
