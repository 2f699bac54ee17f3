package employee

import (
	"strconv"
	"strings"

	"ninebox/domain/core"
)

// Rating is a three-level performance or potential rating.
type Rating string

const (
	RatingLow    Rating = "Low"
	RatingMedium Rating = "Medium"
	RatingHigh   Rating = "High"
)

// Ratings lists the buckets in display order.
var Ratings = []Rating{RatingLow, RatingMedium, RatingHigh}

// ParseRating accepts the canonical names case-insensitively plus the 1-3
// numeric scale used by most rating exports.
func ParseRating(s string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "l", "1":
		return RatingLow, nil
	case "medium", "med", "m", "2":
		return RatingMedium, nil
	case "high", "h", "3":
		return RatingHigh, nil
	}
	return "", core.NewInvalidRatingError(s)
}

func (r Rating) Valid() bool {
	return r == RatingLow || r == RatingMedium || r == RatingHigh
}

// Record is the read-only employee view consumed by the analytics engine.
// Manager holds the manager's name, not an identifier, and may be empty.
type Record struct {
	ID          int    `json:"employee_id" db:"employee_id" validate:"required"`
	Name        string `json:"name" db:"name" validate:"required"`
	Title       string `json:"job_title,omitempty" db:"job_title"`
	Location    string `json:"location" db:"location"`
	JobFunction string `json:"job_function" db:"job_function"`
	JobLevel    string `json:"job_level" db:"job_level"`
	Tenure      string `json:"tenure_category" db:"tenure_category"`
	Manager     string `json:"manager,omitempty" db:"manager"`
	Performance Rating `json:"performance" db:"performance" validate:"required,oneof=Low Medium High"`
	Potential   Rating `json:"potential" db:"potential" validate:"required,oneof=Low Medium High"`
}

// GridPosition is the 9-box cell label, performance first.
func (r Record) GridPosition() string {
	return string(r.Performance) + "/" + string(r.Potential)
}

// HashFields implements core.HashFields.
func (r Record) HashFields() []string {
	return []string{
		strconv.Itoa(r.ID), r.Name, r.Title, r.Location, r.JobFunction,
		r.JobLevel, r.Tenure, r.Manager, string(r.Performance), string(r.Potential),
	}
}

// Population is an immutable employee collection. Callers must not modify
// the slice returned by Records.
type Population struct {
	records []Record
	hash    core.PopulationHash
}

// NewPopulation copies records so later caller mutations cannot leak in.
func NewPopulation(records []Record) Population {
	cp := make([]Record, len(records))
	copy(cp, records)
	return Population{records: cp, hash: core.ComputePopulationHash(cp)}
}

func (p Population) Records() []Record         { return p.records }
func (p Population) Len() int                  { return len(p.records) }
func (p Population) Hash() core.PopulationHash { return p.hash }
