package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Rules.DIN277.Version != "DIN 277:2021-08" {
		t.Errorf("DIN277 version = %q", cfg.Rules.DIN277.Version)
	}
	if cfg.Rules.Fire.SeparationMinutes != 90 {
		t.Errorf("fire separation = %d, want 90", cfg.Rules.Fire.SeparationMinutes)
	}
	if cfg.Rules.Accessibility.DoorClearWidthM != 0.90 {
		t.Errorf("door clear width = %v, want 0.90", cfg.Rules.Accessibility.DoorClearWidthM)
	}
}

func TestResidentialVariant(t *testing.T) {
	res := Default().Rules.Accessibility.Residential()
	if res.Standard != "DIN 18040-2" {
		t.Errorf("standard = %q, want DIN 18040-2", res.Standard)
	}
	if res.DoorClearWidthM != 0.80 {
		t.Errorf("door clear width = %v, want 0.80", res.DoorClearWidthM)
	}
	if res.BathroomMinAreaM2 != 3.60 {
		t.Errorf("bathroom min area = %v, want 3.60", res.BathroomMinAreaM2)
	}
	// The public-building set stays untouched.
	if Default().Rules.Accessibility.Standard != "DIN 18040-1" {
		t.Error("Residential() must not mutate the default set")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	yaml := `
http_port: 9000
rules:
  fire:
    separation_minutes: 60
  ex:
    min_ventilation_volume_m3: 50
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTPPort != 9000 {
		t.Errorf("http_port = %d, want 9000", cfg.HTTPPort)
	}
	if cfg.Rules.Fire.SeparationMinutes != 60 {
		t.Errorf("separation_minutes = %d, want 60", cfg.Rules.Fire.SeparationMinutes)
	}
	if cfg.Rules.Ex.MinVentilationVolumeM3 != 50 {
		t.Errorf("min_ventilation_volume_m3 = %v, want 50", cfg.Rules.Ex.MinVentilationVolumeM3)
	}
	// Untouched sections keep their defaults.
	if cfg.Rules.WoFlV.FullHeightM != 2.00 {
		t.Errorf("woflv full height = %v, want 2.00", cfg.Rules.WoFlV.FullHeightM)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative separation", "rules:\n  fire:\n    separation_minutes: -1\n"},
		{"efficiency above one", "rules:\n  din277:\n    gross_efficiency: 1.5\n"},
		{"half height above full", "rules:\n  woflv:\n    half_height_m: 2.5\n"},
		{"unparsable yaml", "rules: [not a map\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rules.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() on missing file expected error")
	}
}
