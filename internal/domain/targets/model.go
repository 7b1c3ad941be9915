package targets

import (
	"errors"
	"strings"

	"github.com/Spok95/alumtrack/internal/domain"
)

var ErrNotFound = errors.New("targets: not found")

// Target плановый объём продаж марки на месяц.
type Target struct {
	ID               int64
	AlloyType        string
	TargetQuantityKg float64
	Month            int
	Year             int
}

type Input struct {
	AlloyType        string
	TargetQuantityKg float64
	Month            int
	Year             int
}

// Filter необязательные условия выборки; nil означает «любой».
type Filter struct {
	Year  *int
	Month *int
}

func (in *Input) Normalize() {
	in.AlloyType = strings.TrimSpace(in.AlloyType)
}

func (in Input) Validate() error {
	if strings.TrimSpace(in.AlloyType) == "" {
		return domain.Invalid("alloy_type", "must not be empty")
	}
	if err := domain.NonNegative("target_quantity_kg", in.TargetQuantityKg); err != nil {
		return err
	}
	if in.Month < 1 || in.Month > 12 {
		return domain.Invalid("month", "must be between 1 and 12")
	}
	if in.Year < 1 || in.Year > 9999 {
		return domain.Invalid("year", "must be between 1 and 9999")
	}
	return nil
}

func (t *Target) Apply(in Input) {
	t.AlloyType = in.AlloyType
	t.TargetQuantityKg = in.TargetQuantityKg
	t.Month = in.Month
	t.Year = in.Year
}
