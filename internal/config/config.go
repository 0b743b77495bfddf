// Package config loads and saves model files. A model file is a YAML
// document carrying the simulation settings and every variable definition;
// Build turns one into a compiled-ready model plus its run configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/sysdyn/internal/dynamo"
)

type ModelFile struct {
	Name      string            `yaml:"name"`
	Doc       string            `yaml:"doc,omitempty"`
	Start     float64           `yaml:"start"`
	Stop      float64           `yaml:"stop"`
	Dt        float64           `yaml:"dt"`
	Report    float64           `yaml:"report,omitempty"`
	Overrides map[string]string `yaml:"overrides,omitempty"`
	Variables []VarSpec         `yaml:"variables"`
}

type VarSpec struct {
	Name        string      `yaml:"name"`
	Kind        string      `yaml:"kind"`
	Equation    string      `yaml:"equation,omitempty"`
	Initial     string      `yaml:"initial,omitempty"`
	Duration    string      `yaml:"duration,omitempty"`
	AverageTime string      `yaml:"average_time,omitempty"`
	Period      string      `yaml:"period,omitempty"`
	Order       int         `yaml:"order,omitempty"`
	Points      [][]float64 `yaml:"points,omitempty"`
	Doc         string      `yaml:"doc,omitempty"`
	Units       string      `yaml:"units,omitempty"`
}

func Load(path string) (*ModelFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f ModelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

func Save(path string, f *ModelFile) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Build converts the file into a model and a run configuration. Variable
// names are lowercased, matching how equations resolve references. Zero
// time settings fall back to the defaults.
func (f *ModelFile) Build() (*dynamo.Model, dynamo.Config, error) {
	cfg := dynamo.DefaultConfig()
	cfg.StartTime = f.Start
	if f.Stop != 0 {
		cfg.EndTime = f.Stop
	}
	if f.Dt != 0 {
		cfg.Dt = f.Dt
	}
	if f.Report != 0 {
		cfg.ReportInterval = f.Report
	}
	if len(f.Overrides) > 0 {
		cfg.Overrides = make(map[string]string, len(f.Overrides))
		for k, v := range f.Overrides {
			cfg.Overrides[strings.ToLower(k)] = v
		}
	}

	vars := make([]dynamo.Variable, 0, len(f.Variables))
	for _, vs := range f.Variables {
		kind, err := dynamo.ParseKind(vs.Kind)
		if err != nil {
			return nil, cfg, fmt.Errorf("variable %q: %w", vs.Name, err)
		}
		v := dynamo.Variable{
			Name:        strings.ToLower(vs.Name),
			Kind:        kind,
			Equation:    vs.Equation,
			Initial:     vs.Initial,
			Duration:    vs.Duration,
			AverageTime: vs.AverageTime,
			Period:      vs.Period,
			Order:       vs.Order,
			Doc:         vs.Doc,
			Units:       vs.Units,
		}
		for _, p := range vs.Points {
			if len(p) != 2 {
				return nil, cfg, fmt.Errorf("variable %q: point needs [x, y], got %v", vs.Name, p)
			}
			v.Points = append(v.Points, dynamo.Point{X: p[0], Y: p[1]})
		}
		vars = append(vars, v)
	}

	model, err := dynamo.NewModel(vars)
	if err != nil {
		return nil, cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, cfg, err
	}
	return model, cfg, nil
}
