package quantity

import (
	"fmt"
	"strings"

	"github.com/raumwerk/raumwerk/pkg/model"
)

// WoFlVTotals aggregates the counted residential area of a snapshot,
// grouped by combined counting factor.
type WoFlVTotals struct {
	FootprintM2    float64 `json:"grundflaeche_m2"`
	LivingAreaM2   float64 `json:"wohnflaeche_m2"`
	CountedFullM2  float64 `json:"counted_100_m2"`
	CountedHalfM2  float64 `json:"counted_50_m2"`
	CountedQuarter float64 `json:"counted_25_m2"`
	NotCountedM2   float64 `json:"not_counted_m2"`
	// CountingRatio is LivingAreaM2 / FootprintM2 (Anrechnungsquote).
	CountingRatio float64  `json:"counting_ratio"`
	Warnings      []string `json:"warnings,omitempty"`
}

// heightFactor returns the counting factor for a clear height.
func (c *Calculator) heightFactor(heightM float64) float64 {
	w := c.rules.WoFlV
	switch {
	case heightM >= w.FullHeightM:
		return w.FullFactor
	case heightM >= w.HalfHeightM:
		return w.HalfFactor
	default:
		return 0
	}
}

// roomTypeFactor resolves the usage factor from the space name.
// The factor table is matched in configured order, specific entries
// before general ones, so "Wintergarten beheizt" wins over
// "Wintergarten". Unmatched names count as living space at factor 1.
func (c *Calculator) roomTypeFactor(name string) (string, float64) {
	search := strings.ToLower(name)
	for _, rt := range c.rules.WoFlV.RoomTypeFactors {
		for _, kw := range rt.Keywords {
			if strings.Contains(search, kw) {
				return rt.Type, rt.Factor
			}
		}
	}
	return "wohnraum", 1.0
}

func (c *Calculator) computeWoFlV(snap *model.Snapshot) *AreaResult {
	rules := c.rules.WoFlV
	result := &AreaResult{
		Standard:        StandardWoFlV,
		StandardVersion: rules.Version,
		WoFlV:           &WoFlVTotals{},
	}
	totals := result.WoFlV

	for _, id := range snap.SpaceIDs() {
		sp := snap.Spaces[id]
		area, ok := sp.Area()
		if !ok {
			result.Breakdowns = append(result.Breakdowns,
				incompleteRow(sp, StandardWoFlV, rules.Version, "no footprint area"))
			continue
		}

		roomType, usageFactor := c.roomTypeFactor(sp.DisplayName() + " " + sp.Usage)

		var weighted, effectiveHeightFactor float64
		if len(sp.HeightZones) > 0 {
			// Sloped ceiling: weight each height zone separately, the
			// row's height factor becomes the area-weighted mean.
			var zoneArea float64
			for _, z := range sp.HeightZones {
				weighted += z.AreaM2 * c.heightFactor(z.HeightM)
				zoneArea += z.AreaM2
			}
			if zoneArea > 0 {
				effectiveHeightFactor = weighted / zoneArea
			}
			if diff := zoneArea - area; diff > 0.01 || diff < -0.01 {
				totals.Warnings = append(totals.Warnings, fmt.Sprintf(
					"space %s: height zones cover %.2f m² of %.2f m² footprint",
					sp.DisplayName(), zoneArea, area))
			}
			weighted *= usageFactor
		} else {
			height := c.rules.DIN277.DefaultHeightM
			if sp.HeightM != nil {
				height = *sp.HeightM
			} else {
				totals.Warnings = append(totals.Warnings, fmt.Sprintf(
					"space %s: no height, assuming %.2f m",
					sp.DisplayName(), height))
			}
			effectiveHeightFactor = c.heightFactor(height)
			weighted = area * effectiveHeightFactor * usageFactor
		}

		row := AreaBreakdown{
			SpaceID:         sp.ID,
			SpaceName:       sp.DisplayName(),
			Standard:        StandardWoFlV,
			StandardVersion: rules.Version,
			RoomType:        roomType,
			NetAreaM2:       area,
			HeightFactor:    effectiveHeightFactor,
			UsageFactor:     usageFactor,
			WeightedAreaM2:  round2(weighted),
		}
		result.Breakdowns = append(result.Breakdowns, row)

		totals.FootprintM2 += area
		totals.LivingAreaM2 += row.WeightedAreaM2

		switch combined := effectiveHeightFactor * usageFactor; {
		case combined >= 1.0:
			totals.CountedFullM2 += row.WeightedAreaM2
		case combined >= 0.5:
			totals.CountedHalfM2 += row.WeightedAreaM2
		case combined >= 0.25:
			totals.CountedQuarter += row.WeightedAreaM2
		default:
			totals.NotCountedM2 += area
		}
	}

	totals.FootprintM2 = round2(totals.FootprintM2)
	totals.LivingAreaM2 = round2(totals.LivingAreaM2)
	totals.CountedFullM2 = round2(totals.CountedFullM2)
	totals.CountedHalfM2 = round2(totals.CountedHalfM2)
	totals.CountedQuarter = round2(totals.CountedQuarter)
	totals.NotCountedM2 = round2(totals.NotCountedM2)
	if totals.FootprintM2 > 0 {
		totals.CountingRatio = round3(totals.LivingAreaM2 / totals.FootprintM2)
	}
	return result
}
