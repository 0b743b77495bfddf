package config

import "sort"

// Presets are built-in models, usable directly or saved as a starting
// point for a custom model file.
var Presets = map[string]*ModelFile{
	"teacup": {
		Name:  "teacup",
		Doc:   "A cup of tea cooling toward room temperature.",
		Start: 0, Stop: 30, Dt: 0.125, Report: 0.5,
		Variables: []VarSpec{
			{Name: "teacup_temperature", Kind: "stock", Equation: "-heat_loss", Initial: "180", Units: "degrees"},
			{Name: "heat_loss", Kind: "flow", Equation: "(teacup_temperature - room_temperature) / characteristic_time", Units: "degrees/minute"},
			{Name: "room_temperature", Kind: "constant", Equation: "70", Units: "degrees"},
			{Name: "characteristic_time", Kind: "constant", Equation: "10", Units: "minutes"},
		},
	},
	"sir": {
		Name:  "sir",
		Doc:   "Susceptible-infectious-recovered epidemic.",
		Start: 0, Stop: 100, Dt: 0.125, Report: 1,
		Variables: []VarSpec{
			{Name: "susceptible", Kind: "stock", Equation: "-infections", Initial: "total_population - 1"},
			{Name: "infectious", Kind: "stock", Equation: "infections - recoveries", Initial: "1"},
			{Name: "recovered", Kind: "stock", Equation: "recoveries", Initial: "0"},
			{Name: "infections", Kind: "flow", Equation: "contact_rate * infectivity * susceptible * infectious / total_population"},
			{Name: "recoveries", Kind: "flow", Equation: "infectious / infectious_period"},
			{Name: "total_population", Kind: "constant", Equation: "10000"},
			{Name: "contact_rate", Kind: "constant", Equation: "6"},
			{Name: "infectivity", Kind: "constant", Equation: "0.05"},
			{Name: "infectious_period", Kind: "constant", Equation: "5", Units: "days"},
		},
	},
	"predator_prey": {
		Name:  "predator_prey",
		Doc:   "Lotka-Volterra predator and prey populations.",
		Start: 0, Stop: 50, Dt: 0.02, Report: 0.5,
		Variables: []VarSpec{
			{Name: "prey", Kind: "stock", Equation: "prey_births - predation", Initial: "100"},
			{Name: "predators", Kind: "stock", Equation: "predator_births - predator_deaths", Initial: "20"},
			{Name: "prey_births", Kind: "flow", Equation: "prey_birth_rate * prey"},
			{Name: "predation", Kind: "flow", Equation: "predation_rate * prey * predators"},
			{Name: "predator_births", Kind: "flow", Equation: "conversion_efficiency * predation"},
			{Name: "predator_deaths", Kind: "flow", Equation: "predator_death_rate * predators"},
			{Name: "prey_birth_rate", Kind: "constant", Equation: "0.5"},
			{Name: "predation_rate", Kind: "constant", Equation: "0.01"},
			{Name: "conversion_efficiency", Kind: "constant", Equation: "0.2"},
			{Name: "predator_death_rate", Kind: "constant", Equation: "0.4"},
		},
	},
	"supply_chain": {
		Name:  "supply_chain",
		Doc:   "Inventory responding to a demand step through a shipping delay.",
		Start: 0, Stop: 60, Dt: 0.25, Report: 1,
		Variables: []VarSpec{
			{Name: "inventory", Kind: "stock", Equation: "arrivals - shipments", Initial: "desired_inventory"},
			{Name: "arrivals", Kind: "delay", Equation: "orders", Duration: "shipping_time", Order: 3},
			{Name: "orders", Kind: "flow", Equation: "max(0, expected_demand + (desired_inventory - inventory) / adjustment_time)"},
			{Name: "shipments", Kind: "flow", Equation: "min(demand, inventory / dt_min)"},
			{Name: "expected_demand", Kind: "smooth", Equation: "demand", AverageTime: "demand_averaging_time"},
			{Name: "demand", Kind: "auxiliary", Equation: "base_demand + step(20, 10)"},
			{Name: "base_demand", Kind: "constant", Equation: "100"},
			{Name: "desired_inventory", Kind: "constant", Equation: "400"},
			{Name: "shipping_time", Kind: "constant", Equation: "4"},
			{Name: "adjustment_time", Kind: "constant", Equation: "2"},
			{Name: "demand_averaging_time", Kind: "constant", Equation: "6"},
			{Name: "dt_min", Kind: "constant", Equation: "0.25"},
		},
	},
}

func GetPreset(name string) *ModelFile {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
