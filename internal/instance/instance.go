// Package instance parses instance classes and applies AWS's instance size
// normalization factors.
package instance

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/guimove/ricoverage/internal/model"
)

// BaseSize is the size every family is normalized to.
const BaseSize = "large"

// rdsPrefix marks RDS instance classes ("db.r6g.large").
const rdsPrefix = "db"

var fixedFactors = map[string]float64{
	"nano":   0.25,
	"micro":  0.5,
	"small":  1,
	"medium": 2,
	"large":  4,
	"xlarge": 8,
}

// Multipliers AWS sells as "<N>xlarge".
var xlargeMultipliers = map[int]bool{
	2: true, 3: true, 4: true, 6: true, 8: true, 9: true, 10: true,
	12: true, 16: true, 18: true, 24: true, 32: true, 48: true,
}

// NormalizationError is returned for malformed classes and unknown sizes.
type NormalizationError struct {
	Class  string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize instance class %q: %s", e.Class, e.Reason)
}

// Factor returns the normalization factor of a size token.
func Factor(size string) (float64, bool) {
	if f, ok := fixedFactors[size]; ok {
		return f, true
	}
	mult, ok := strings.CutSuffix(size, "xlarge")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(mult)
	if err != nil || !xlargeMultipliers[n] {
		return 0, false
	}
	return fixedFactors["xlarge"] * float64(n), true
}

// Normalize splits an instance class such as "db.r6g.2xlarge" into family,
// size and base size. Trailing tokens after the size (optimized-CPU variants
// like "tpc2.mem4x") are accepted and ignored.
func Normalize(class string) (model.NormalizedInstanceClass, error) {
	raw := class
	class = strings.ToLower(strings.TrimSpace(class))

	parts := strings.Split(class, ".")
	var n model.NormalizedInstanceClass
	if len(parts) > 0 && parts[0] == rdsPrefix {
		n.Prefix = rdsPrefix
		parts = parts[1:]
	}
	if len(parts) < 2 {
		return n, &NormalizationError{Class: raw, Reason: "expected <family>.<size>"}
	}

	n.Family, n.Size = parts[0], parts[1]
	if !validFamily(n.Family) {
		return n, &NormalizationError{Class: raw, Reason: fmt.Sprintf("invalid family %q", n.Family)}
	}

	factor, ok := Factor(n.Size)
	if !ok {
		return n, &NormalizationError{Class: raw, Reason: fmt.Sprintf("unrecognized size %q", n.Size)}
	}
	n.SizeFactor = factor
	n.BaseSize = join(n.Prefix, n.Family, BaseSize)
	return n, nil
}

// Ratio returns how many base-size units one instance of n is worth.
func Ratio(n model.NormalizedInstanceClass) float64 {
	return n.SizeFactor / fixedFactors[BaseSize]
}

// SizeFlexible reports whether AWS applies RI size flexibility to an engine:
// Aurora, MySQL, MariaDB, PostgreSQL and Oracle BYOL.
func SizeFlexible(engine string) bool {
	e := strings.ToLower(engine)
	switch {
	case strings.Contains(e, "aurora"),
		strings.Contains(e, "mysql"),
		strings.Contains(e, "mariadb"),
		strings.Contains(e, "postgres"):
		return true
	case strings.Contains(e, "oracle"):
		return strings.Contains(e, "byol") || strings.Contains(e, "bring your own")
	}
	return false
}

// SizeFactor is one row of the normalization table.
type SizeFactor struct {
	Size   string
	Factor float64
	Units  float64 // multiples of the base size
}

// Table returns every recognized size ordered by factor.
func Table() []SizeFactor {
	var rows []SizeFactor
	for s, f := range fixedFactors {
		rows = append(rows, SizeFactor{Size: s, Factor: f})
	}
	for m := range xlargeMultipliers {
		rows = append(rows, SizeFactor{Size: fmt.Sprintf("%dxlarge", m), Factor: fixedFactors["xlarge"] * float64(m)})
	}
	for i := range rows {
		rows[i].Units = rows[i].Factor / fixedFactors[BaseSize]
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Factor < rows[j].Factor })
	return rows
}

func validFamily(f string) bool {
	if f == "" || f[0] < 'a' || f[0] > 'z' {
		return false
	}
	for _, r := range f {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}

func join(prefix, family, size string) string {
	if prefix == "" {
		return family + "." + size
	}
	return prefix + "." + family + "." + size
}
