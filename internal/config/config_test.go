package config

import (
	"path/filepath"
	"testing"

	"github.com/san-kum/sysdyn/internal/dynamo"
)

func TestBuild(t *testing.T) {
	f := GetPreset("teacup")
	if f == nil {
		t.Fatal("expected teacup preset")
	}
	model, cfg, err := f.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if model.Len() != 4 {
		t.Errorf("expected 4 variables, got %d", model.Len())
	}
	if cfg.EndTime != 30 {
		t.Errorf("expected stop 30, got %v", cfg.EndTime)
	}
	if cfg.Dt != 0.125 {
		t.Errorf("expected dt 0.125, got %v", cfg.Dt)
	}
	v, ok := model.Get("teacup_temperature")
	if !ok {
		t.Fatal("expected teacup_temperature")
	}
	if v.Kind != dynamo.KindStock {
		t.Errorf("expected stock, got %s", v.Kind)
	}
}

func TestBuild_LowercasesNames(t *testing.T) {
	f := &ModelFile{
		Stop: 10, Dt: 0.5,
		Variables: []VarSpec{
			{Name: "Population", Kind: "stock", Equation: "Births", Initial: "100"},
			{Name: "Births", Kind: "flow", Equation: "0.02 * Population"},
		},
	}
	model, _, err := f.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, ok := model.Get("population"); !ok {
		t.Error("expected lowercase name population")
	}
}

func TestBuild_BadKind(t *testing.T) {
	f := &ModelFile{
		Variables: []VarSpec{{Name: "x", Kind: "reservoir", Equation: "1"}},
	}
	if _, _, err := f.Build(); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestBuild_BadPoint(t *testing.T) {
	f := &ModelFile{
		Variables: []VarSpec{{Name: "f", Kind: "lookup", Points: [][]float64{{0, 1}, {1}}}},
	}
	if _, _, err := f.Build(); err == nil {
		t.Error("expected error for malformed point")
	}
}

func TestBuild_Defaults(t *testing.T) {
	f := &ModelFile{
		Variables: []VarSpec{{Name: "c", Kind: "constant", Equation: "1"}},
	}
	_, cfg, err := f.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	def := dynamo.DefaultConfig()
	if cfg.Dt != def.Dt || cfg.EndTime != def.EndTime {
		t.Errorf("expected default time settings, got %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := Save(path, GetPreset("sir")); err != nil {
		t.Fatalf("save: %v", err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Name != "sir" {
		t.Errorf("expected name sir, got %s", f.Name)
	}
	if len(f.Variables) != 9 {
		t.Errorf("expected 9 variables, got %d", len(f.Variables))
	}
}

func TestPresetsBuild(t *testing.T) {
	for _, name := range ListPresets() {
		f := GetPreset(name)
		if _, _, err := f.Build(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}
