package quantity

import (
	"strings"

	"github.com/raumwerk/raumwerk/pkg/model"
)

// DIN277Totals aggregates the DIN 277 area schema for a snapshot.
// NRF = NUF + TF + VF; BGF = NRF + KGF.
type DIN277Totals struct {
	BGFM2 float64 `json:"bgf_m2"`
	KGFM2 float64 `json:"kgf_m2"`
	NRFM2 float64 `json:"nrf_m2"`
	NUFM2 float64 `json:"nuf_m2"`
	TFM2  float64 `json:"tf_m2"`
	VFM2  float64 `json:"vf_m2"`

	NUFByCategory map[string]float64 `json:"nuf_by_category"`

	BRIM3 float64 `json:"bri_m3"`
	NRIM3 float64 `json:"nri_m3"`

	// BGFEstimated is set when no gross footprints were modeled and
	// BGF was derived from NRF via the configured efficiency ratio.
	BGFEstimated bool `json:"bgf_estimated,omitempty"`

	NUFNRFRatio float64 `json:"nuf_nrf_ratio"`
	NRFBGFRatio float64 `json:"nrf_bgf_ratio"`
	VFNRFRatio  float64 `json:"vf_nrf_ratio"`
}

// din277Category pairs a category code with its name keywords.
// Checked in order; first match wins, unmatched spaces fall to NUF 7.
type din277Category struct {
	code     string
	keywords []string
}

var din277Categories = []din277Category{
	{"NUF 1", []string{"wohn", "schlaf", "kind", "aufenthalt", "living", "bedroom"}},
	{"NUF 2", []string{"büro", "office", "besprechung", "meeting", "konferenz"}},
	{"NUF 3", []string{"werkstatt", "produktion", "labor", "workshop"}},
	{"NUF 4", []string{"lager", "archiv", "abstellraum", "storage"}},
	{"NUF 5", []string{"schule", "unterricht", "seminar", "hörsaal", "classroom"}},
	{"NUF 6", []string{"behandlung", "pflege", "patient", "arzt", "medical"}},
	{"NUF 7", []string{"küche", "bad", "wc", "dusch", "essen", "kitchen", "bath", "toilet", "restaurant", "kantine"}},
	{"TF", []string{"technik", "heizung", "lüftung", "elektro", "server", "hausanschluss", "technical"}},
	{"VF", []string{"flur", "gang", "treppe", "aufzug", "foyer", "eingang", "corridor", "stair", "elevator", "lobby", "hall"}},
}

// ClassifyDIN277 maps a space name to its DIN 277 category code.
// Unmatched names fall into NUF 7 (sonstige Nutzungen).
func ClassifyDIN277(name string) string {
	search := strings.ToLower(name)
	for _, cat := range din277Categories {
		for _, kw := range cat.keywords {
			if strings.Contains(search, kw) {
				return cat.code
			}
		}
	}
	return "NUF 7"
}

func (c *Calculator) computeDIN277(snap *model.Snapshot) *AreaResult {
	rules := c.rules.DIN277
	result := &AreaResult{
		Standard:        StandardDIN277,
		StandardVersion: rules.Version,
		DIN277: &DIN277Totals{
			NUFByCategory: make(map[string]float64),
		},
	}
	totals := result.DIN277

	volumes := c.ComputeVolumes(snap)
	construction := ComputeConstructionAreas(snap)

	grossComplete := true
	var grossSum float64
	var heightSum float64
	var heightCount int

	for _, id := range snap.SpaceIDs() {
		sp := snap.Spaces[id]
		area, ok := sp.Area()
		if !ok {
			result.Breakdowns = append(result.Breakdowns,
				incompleteRow(sp, StandardDIN277, rules.Version, "no footprint area"))
			grossComplete = false
			continue
		}

		category := ClassifyDIN277(sp.DisplayName() + " " + sp.Usage)
		row := AreaBreakdown{
			SpaceID:         sp.ID,
			SpaceName:       sp.DisplayName(),
			Standard:        StandardDIN277,
			StandardVersion: rules.Version,
			Category:        category,
			NetAreaM2:       area,
			HeightFactor:    1,
			UsageFactor:     1,
			WeightedAreaM2:  area,
		}
		row.ConstructionAreaM2 = round2(construction[sp.ID])
		if sp.GrossFootprintM2 != nil {
			row.GrossAreaM2 = *sp.GrossFootprintM2
			grossSum += *sp.GrossFootprintM2
		} else {
			grossComplete = false
		}
		result.Breakdowns = append(result.Breakdowns, row)

		totals.NRFM2 += area
		switch category {
		case "TF":
			totals.TFM2 += area
		case "VF":
			totals.VFM2 += area
		default:
			totals.NUFM2 += area
			totals.NUFByCategory[category] += area
		}

		if v, ok := volumes[sp.ID]; ok && !v.Incomplete {
			totals.NRIM3 += v.VolumeM3
		}
		if sp.HeightM != nil && *sp.HeightM > 0 {
			heightSum += *sp.HeightM
			heightCount++
		}
	}

	if grossComplete && grossSum > 0 {
		totals.BGFM2 = grossSum
	} else if totals.NRFM2 > 0 {
		totals.BGFM2 = totals.NRFM2 / rules.GrossEfficiency
		totals.BGFEstimated = true
	}
	if totals.BGFM2 > totals.NRFM2 {
		totals.KGFM2 = totals.BGFM2 - totals.NRFM2
	}

	avgHeight := 3.0
	if heightCount > 0 {
		avgHeight = heightSum / float64(heightCount)
	}
	totals.BRIM3 = totals.BGFM2 * avgHeight

	if totals.NRFM2 > 0 {
		totals.NUFNRFRatio = round3(totals.NUFM2 / totals.NRFM2)
		totals.VFNRFRatio = round3(totals.VFM2 / totals.NRFM2)
	}
	if totals.BGFM2 > 0 {
		totals.NRFBGFRatio = round3(totals.NRFM2 / totals.BGFM2)
	}
	return result
}

func round3(v float64) float64 {
	return float64(int64(v*1000+sign(v)*0.5)) / 1000
}
