// Package quantity computes areas and volumes over a model snapshot.
// Two area standards are implemented, DIN 277 (building-wide area
// schema) and WoFlV (residential counted area). Every result row pins
// the standard version and rule id it was produced under, so stored
// results can be told apart after a rule revision.
package quantity

import (
	"github.com/raumwerk/raumwerk/pkg/config"
	"github.com/raumwerk/raumwerk/pkg/model"
)

// Standard identifiers accepted by ComputeAreas.
const (
	StandardDIN277 = "din277"
	StandardWoFlV  = "woflv"
)

// AreaBreakdown is one space's contribution under a standard.
type AreaBreakdown struct {
	SpaceID            string  `json:"space_id"`
	SpaceName          string  `json:"space_name"`
	Standard           string  `json:"standard"`
	StandardVersion    string  `json:"standard_version"`
	Category           string  `json:"category,omitempty"`
	RoomType           string  `json:"room_type,omitempty"`
	NetAreaM2          float64 `json:"net_area_m2"`
	GrossAreaM2        float64 `json:"gross_area_m2"`
	ConstructionAreaM2 float64 `json:"construction_area_m2,omitempty"`
	HeightFactor       float64 `json:"height_factor"`
	UsageFactor        float64 `json:"usage_factor"`
	WeightedAreaM2     float64 `json:"weighted_area_m2"`

	// Incomplete marks a row that could not be fully computed. The row
	// still appears in the result; Reason says what was missing.
	Incomplete bool   `json:"incomplete,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// AreaResult is the outcome of an area computation over a snapshot.
type AreaResult struct {
	Standard        string          `json:"standard"`
	StandardVersion string          `json:"standard_version"`
	Breakdowns      []AreaBreakdown `json:"breakdowns"`
	DIN277          *DIN277Totals   `json:"din277,omitempty"`
	WoFlV           *WoFlVTotals    `json:"woflv,omitempty"`
}

// Calculator evaluates the quantity rules from a rule set.
type Calculator struct {
	rules config.RuleSet
}

// NewCalculator returns a calculator bound to the given rule set.
func NewCalculator(rules config.RuleSet) *Calculator {
	return &Calculator{rules: rules}
}

// ComputeAreas computes per-space area breakdowns and totals under the
// requested standard. Unknown standards return ErrRuleVersionMismatch.
// Spaces with missing geometry yield Incomplete rows, never an error.
func (c *Calculator) ComputeAreas(snap *model.Snapshot, standard string) (*AreaResult, error) {
	switch standard {
	case StandardDIN277:
		return c.computeDIN277(snap), nil
	case StandardWoFlV:
		return c.computeWoFlV(snap), nil
	default:
		return nil, model.RuleVersionError("ComputeAreas", standard)
	}
}

func incompleteRow(sp *model.Space, standard, version, reason string) AreaBreakdown {
	return AreaBreakdown{
		SpaceID:         sp.ID,
		SpaceName:       sp.DisplayName(),
		Standard:        standard,
		StandardVersion: version,
		Incomplete:      true,
		Reason:          reason,
	}
}

func round2(v float64) float64 {
	return float64(int64(v*100+sign(v)*0.5)) / 100
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
