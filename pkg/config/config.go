// Package config carries every regulatory constant the engine applies.
// The numeric thresholds come from the standard texts (DIN 277:2021-08,
// WoFlV 2004, DIN 18040-1/-2, DIN 4102) and are configuration, not code:
// a future standard revision changes a YAML file and a version string,
// never a calculation silently.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// RoomTypeFactor is a WoFlV usage weighting matched by name keyword.
// Factors are checked in declaration order, specific before general.
type RoomTypeFactor struct {
	Type     string   `yaml:"type" validate:"required"`
	Factor   float64  `yaml:"factor" validate:"gte=0,lte=1"`
	Keywords []string `yaml:"keywords" validate:"min=1"`
}

// DIN277Rules pins the DIN 277 calculation constants.
type DIN277Rules struct {
	Version string `yaml:"version" validate:"required"`
	// GrossEfficiency is the assumed NRF/BGF ratio used to estimate the
	// gross floor area when no gross footprint is modeled.
	GrossEfficiency float64 `yaml:"gross_efficiency" validate:"gt=0,lt=1"`
	// VolumeToleranceRatio is the allowed relative deviation between a
	// stored volume and area x height before the checker flags it.
	VolumeToleranceRatio float64 `yaml:"volume_tolerance_ratio" validate:"gt=0,lt=1"`
	// DefaultHeightM substitutes a missing room height for volume
	// estimation.
	DefaultHeightM float64 `yaml:"default_height_m" validate:"gt=0"`
}

// WoFlVRules pins the residential-area weighting constants.
type WoFlVRules struct {
	Version string `yaml:"version" validate:"required"`
	// Height weighting: >= FullHeightM counts at FullFactor,
	// [HalfHeightM, FullHeightM) at HalfFactor, below HalfHeightM at 0.
	FullHeightM     float64          `yaml:"full_height_m" validate:"gt=0"`
	HalfHeightM     float64          `yaml:"half_height_m" validate:"gt=0"`
	FullFactor      float64          `yaml:"full_factor" validate:"gt=0,lte=1"`
	HalfFactor      float64          `yaml:"half_factor" validate:"gt=0,lt=1"`
	RoomTypeFactors []RoomTypeFactor `yaml:"room_type_factors" validate:"min=1,dive"`
}

// AccessibilityRules holds the DIN 18040 requirement set in meters.
type AccessibilityRules struct {
	Standard           string  `yaml:"standard" validate:"required"`
	DoorClearWidthM    float64 `yaml:"door_clear_width_m" validate:"gt=0"`
	DoorClearHeightM   float64 `yaml:"door_clear_height_m" validate:"gt=0"`
	CorridorWidthM     float64 `yaml:"corridor_width_m" validate:"gt=0"`
	BathroomMinAreaM2  float64 `yaml:"bathroom_min_area_m2" validate:"gt=0"`
	StairWidthM        float64 `yaml:"stair_width_m" validate:"gt=0"`
	MinClearHeightM    float64 `yaml:"min_clear_height_m" validate:"gt=0"`
	MaxThresholdM      float64 `yaml:"max_threshold_m" validate:"gt=0"`
	RampRequiredAboveM float64 `yaml:"ramp_required_above_m" validate:"gt=0"`
}

// ExRules configures explosion-protection classification.
type ExRules struct {
	// MinVentilationVolumeM3 is the net room volume required for a
	// space classified Zone 0/1 or 20/21; smaller rooms are flagged as
	// hazardous-area conflicts.
	MinVentilationVolumeM3 float64 `yaml:"min_ventilation_volume_m3" validate:"gt=0"`
}

// FireRules configures fire-compartment separation.
type FireRules struct {
	// SeparationMinutes is the minimum fire-resistance duration for an
	// element to count as a compartment boundary (F90 per DIN 4102).
	SeparationMinutes int `yaml:"separation_minutes" validate:"gt=0"`
}

// RuleSet bundles all jurisdiction rules consumed by the engine.
type RuleSet struct {
	DIN277        DIN277Rules        `yaml:"din277" validate:"required"`
	WoFlV         WoFlVRules         `yaml:"woflv" validate:"required"`
	Accessibility AccessibilityRules `yaml:"accessibility" validate:"required"`
	Ex            ExRules            `yaml:"ex" validate:"required"`
	Fire          FireRules          `yaml:"fire" validate:"required"`
}

// Config is the full engine configuration.
type Config struct {
	Rules     RuleSet `yaml:"rules" validate:"required"`
	HTTPPort  int     `yaml:"http_port" validate:"gte=0,lte=65535"`
	StorePath string  `yaml:"store_path"`
}

// Default returns the built-in rule set with the authoritative
// constants from the standard texts.
func Default() Config {
	return Config{
		HTTPPort:  8080,
		StorePath: "raumwerk.db",
		Rules: RuleSet{
			DIN277: DIN277Rules{
				Version:              "DIN 277:2021-08",
				GrossEfficiency:      0.80,
				VolumeToleranceRatio: 0.05,
				DefaultHeightM:       2.50,
			},
			WoFlV: WoFlVRules{
				Version:     "WoFlV 2004",
				FullHeightM: 2.00,
				HalfHeightM: 1.00,
				FullFactor:  1.0,
				HalfFactor:  0.5,
				RoomTypeFactors: []RoomTypeFactor{
					{Type: "wintergarten_beheizt", Factor: 1.0, Keywords: []string{"wintergarten beheizt"}},
					{Type: "wintergarten_unbeheizt", Factor: 0.5, Keywords: []string{"wintergarten"}},
					{Type: "schwimmbad", Factor: 0.5, Keywords: []string{"schwimm", "pool", "sauna"}},
					{Type: "balkon", Factor: 0.25, Keywords: []string{"balkon", "loggia", "dachgarten"}},
					{Type: "terrasse", Factor: 0.25, Keywords: []string{"terrasse", "freisitz"}},
					{Type: "keller", Factor: 0.0, Keywords: []string{"keller", "wasch", "trocken", "heizung", "technik"}},
					{Type: "garage", Factor: 0.0, Keywords: []string{"garage", "carport", "stellplatz"}},
					{Type: "flur", Factor: 1.0, Keywords: []string{"flur", "diele", "gang"}},
					{Type: "wohnraum", Factor: 1.0, Keywords: []string{"wohn", "schlaf", "kind", "küche", "bad", "dusch", "ess", "arbeits"}},
				},
			},
			Accessibility: AccessibilityRules{
				Standard:           "DIN 18040-1",
				DoorClearWidthM:    0.90,
				DoorClearHeightM:   2.10,
				CorridorWidthM:     1.50,
				BathroomMinAreaM2:  4.50,
				StairWidthM:        1.20,
				MinClearHeightM:    2.30,
				MaxThresholdM:      0.02,
				RampRequiredAboveM: 0.02,
			},
			Ex: ExRules{
				MinVentilationVolumeM3: 30.0,
			},
			Fire: FireRules{
				SeparationMinutes: 90,
			},
		},
	}
}

// Residential switches the accessibility requirement set to
// DIN 18040-2 (residential buildings).
func (r AccessibilityRules) Residential() AccessibilityRules {
	r.Standard = "DIN 18040-2"
	r.DoorClearWidthM = 0.80
	r.CorridorWidthM = 1.20
	r.BathroomMinAreaM2 = 3.60
	r.StairWidthM = 1.00
	return r
}

// Load reads a YAML config file over the defaults and validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the struct tags on the full configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.Rules.WoFlV.HalfHeightM >= c.Rules.WoFlV.FullHeightM {
		return fmt.Errorf("validate config: woflv half height %.2f must be below full height %.2f",
			c.Rules.WoFlV.HalfHeightM, c.Rules.WoFlV.FullHeightM)
	}
	return nil
}
