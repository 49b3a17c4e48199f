package model

import (
	"github.com/shopspring/decimal"
)

// GroupKey identifies an aggregation group. Roll-up keys leave the parts they
// do not group by empty.
type GroupKey struct {
	RegionCode       string `json:"region_code,omitempty"`
	Engine           string `json:"engine,omitempty"`
	BaseInstanceSize string `json:"base_instance_size,omitempty"`
}

// String renders the key as "region/engine/size", skipping empty parts.
func (k GroupKey) String() string {
	s := ""
	for _, part := range []string{k.RegionCode, k.Engine, k.BaseInstanceSize} {
		if part == "" {
			continue
		}
		if s != "" {
			s += "/"
		}
		s += part
	}
	return s
}

// Less orders keys by region, then engine, then base size.
func (k GroupKey) Less(other GroupKey) bool {
	if k.RegionCode != other.RegionCode {
		return k.RegionCode < other.RegionCode
	}
	if k.Engine != other.Engine {
		return k.Engine < other.Engine
	}
	return k.BaseInstanceSize < other.BaseInstanceSize
}

// Partition returns the (region, engine) part of the key.
func (k GroupKey) Partition() GroupKey {
	return GroupKey{RegionCode: k.RegionCode, Engine: k.Engine}
}

// NormalizedInstanceClass is an instance class split into its parts.
type NormalizedInstanceClass struct {
	Prefix     string  `json:"prefix,omitempty"` // "db" for RDS classes
	Family     string  `json:"family"`           // e.g. "r6g"
	Size       string  `json:"size"`             // e.g. "2xlarge"
	BaseSize   string  `json:"base_size"`        // e.g. "db.r6g.large"
	SizeFactor float64 `json:"size_factor"`      // AWS normalization factor of Size
}

// UsageRecord is a coverage row expressed in base-size-equivalent units.
type UsageRecord struct {
	Key           GroupKey `json:"key"`
	CoveredAmount float64  `json:"covered_amount"`
	TotalAmount   float64  `json:"total_amount"`
}

// CostRecord is a normalized utilization or recommendation row.
type CostRecord struct {
	Key  GroupKey   `json:"key"`
	Kind ReportKind `json:"kind"`

	// utilization
	OnDemandEquivalentCost decimal.Decimal     `json:"on_demand_equivalent_cost"`
	RICost                 decimal.Decimal     `json:"ri_cost"`
	UtilizationPct         decimal.NullDecimal `json:"utilization_pct"`

	// recommendation
	RecommendedUnits      decimal.Decimal     `json:"recommended_units"`
	EstimatedSavings      decimal.Decimal     `json:"estimated_savings"`
	Term                  string              `json:"term,omitempty"`
	PaymentOption         string              `json:"payment_option,omitempty"`
	UncoveredOnDemandCost decimal.NullDecimal `json:"uncovered_on_demand_cost"`
}

// CostReport carries the normalized records of one cost report. A nil
// *CostReport means the report was not provided.
//
// HasUncoveredCost reports whether the uncovered on-demand cost could be
// derived at all: a recommendation report carrying both upfront and
// recurring cost columns, analyzed over a positive number of days.
type CostReport struct {
	Kind             ReportKind   `json:"kind"`
	Records          []CostRecord `json:"records"`
	HasUncoveredCost bool         `json:"has_uncovered_cost"`
}

// CoverageGroup holds summed amounts for one GroupKey.
type CoverageGroup struct {
	Key           GroupKey `json:"key"`
	CoveredAmount float64  `json:"covered_amount"`
	TotalAmount   float64  `json:"total_amount"`
	Records       int      `json:"records"`
}
