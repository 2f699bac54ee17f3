package testkit

import (
	"fmt"
	"math/rand"

	"ninebox/domain/employee"
)

// EmployeeGeneratorConfig configures the synthetic roster generator.
type EmployeeGeneratorConfig struct {
	Count       int      `json:"count"`
	Span        int      `json:"span"` // direct reports per manager
	Locations   []string `json:"locations"`
	Functions   []string `json:"functions"`
	Levels      []string `json:"levels"`
	TenureBands []string `json:"tenure_bands"`
	HighRate    float64  `json:"high_rate"`
	LowRate     float64  `json:"low_rate"`
	// LocationHighRate overrides HighRate for the named locations.
	LocationHighRate map[string]float64 `json:"location_high_rate,omitempty"`
	Seed             int64              `json:"seed"`
}

// DefaultEmployeeConfig returns a mid-sized, unbiased roster.
func DefaultEmployeeConfig() EmployeeGeneratorConfig {
	return EmployeeGeneratorConfig{
		Count:       500,
		Span:        6,
		Locations:   []string{"USA", "UK", "Germany", "India"},
		Functions:   []string{"Engineering", "Sales", "Marketing", "Operations", "Finance"},
		Levels:      []string{"L1", "L2", "L3", "L4", "L5", "L6"},
		TenureBands: []string{"0-1y", "1-3y", "3-5y", "5y+"},
		HighRate:    0.2,
		LowRate:     0.2,
		Seed:        42,
	}
}

var (
	firstNames = []string{
		"Alex", "Blair", "Casey", "Devon", "Emery", "Finley", "Gray", "Harper", "Indy", "Jordan",
		"Kai", "Logan", "Morgan", "Noel", "Oakley", "Parker", "Quinn", "Riley", "Sage", "Taylor",
	}
	lastNames = []string{
		"Abbott", "Baker", "Chen", "Diaz", "Evans", "Fischer", "Garcia", "Hughes", "Ito", "Jensen",
		"Khan", "Lopez", "Moreau", "Novak", "Okafor", "Patel", "Quist", "Rossi", "Silva", "Tanaka",
	}
)

// EmployeeGenerator produces deterministic rosters for tests and demos.
type EmployeeGenerator struct {
	config EmployeeGeneratorConfig
	rng    *rand.Rand
}

func NewEmployeeGenerator(config EmployeeGeneratorConfig) *EmployeeGenerator {
	if config.Span <= 0 {
		config.Span = 1
	}
	return &EmployeeGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds the roster. Employee 1 is the root; employee i reports to
// employee (i-2)/Span + 1, which yields a balanced tree with unique names.
func (g *EmployeeGenerator) Generate() []employee.Record {
	records := make([]employee.Record, g.config.Count)
	for i := range records {
		r := employee.Record{
			ID:          i + 1,
			Name:        EmployeeName(i),
			Title:       "Individual Contributor",
			Location:    pick(g.rng, g.config.Locations),
			JobFunction: pick(g.rng, g.config.Functions),
			JobLevel:    pick(g.rng, g.config.Levels),
			Tenure:      pick(g.rng, g.config.TenureBands),
		}
		if i > 0 {
			r.Manager = EmployeeName((i - 1) / g.config.Span)
		}
		high := g.config.HighRate
		if v, ok := g.config.LocationHighRate[r.Location]; ok {
			high = v
		}
		r.Performance = g.rating(high)
		r.Potential = g.rating(g.config.HighRate)
		records[i] = r
	}
	for i := range records {
		if i*g.config.Span+1 < len(records) {
			records[i].Title = "Manager"
		}
	}
	return records
}

// GeneratePopulation wraps Generate in an immutable population.
func (g *EmployeeGenerator) GeneratePopulation() employee.Population {
	return employee.NewPopulation(g.Generate())
}

func (g *EmployeeGenerator) rating(high float64) employee.Rating {
	x := g.rng.Float64()
	switch {
	case x < high:
		return employee.RatingHigh
	case x < high+g.config.LowRate:
		return employee.RatingLow
	}
	return employee.RatingMedium
}

// EmployeeName returns the i-th generated name. Names are unique for every i.
func EmployeeName(i int) string {
	n := len(firstNames) * len(lastNames)
	name := fmt.Sprintf("%s %s", firstNames[i%len(firstNames)], lastNames[(i/len(firstNames))%len(lastNames)])
	if i >= n {
		name = fmt.Sprintf("%s %d", name, i/n+1)
	}
	return name
}

func pick(rng *rand.Rand, values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[rng.Intn(len(values))]
}
