package dynamo

import (
	"fmt"
	"math"
)

// Config holds the settings for one simulation run.
type Config struct {
	StartTime      float64
	EndTime        float64
	Dt             float64
	ReportInterval float64 // zero means report every step
	// Overrides replaces variables' defining expressions before the
	// dependency graph is built, for scenario and sensitivity runs.
	Overrides map[string]string
}

// DefaultConfig returns conventional settings for small models.
func DefaultConfig() Config {
	return Config{
		StartTime:      0,
		EndTime:        20,
		Dt:             0.25,
		ReportInterval: 1,
	}
}

// Steps returns the number of integration steps in the configured range.
func (c Config) Steps() int {
	return int(math.Round((c.EndTime - c.StartTime) / c.Dt))
}

// ReportEvery returns how many steps separate reporting points.
func (c Config) ReportEvery() int {
	if c.ReportInterval == 0 {
		return 1
	}
	return int(math.Round(c.ReportInterval / c.Dt))
}

// Validate rejects configurations before any simulation state exists.
func (c Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w, got %v", ErrBadTimeStep, c.Dt)
	}
	if c.EndTime <= c.StartTime {
		return fmt.Errorf("%w, got [%v, %v]", ErrBadTimeRange, c.StartTime, c.EndTime)
	}
	if c.ReportInterval != 0 {
		if c.ReportInterval < 0 {
			return fmt.Errorf("%w, got %v", ErrBadReportInterval, c.ReportInterval)
		}
		ratio := c.ReportInterval / c.Dt
		if math.Abs(ratio-math.Round(ratio)) > 1e-9 || math.Round(ratio) < 1 {
			return fmt.Errorf("%w, got interval %v with dt %v", ErrBadReportInterval, c.ReportInterval, c.Dt)
		}
	}
	return nil
}
