package purchases

import (
	"errors"
	"strings"
	"time"

	"github.com/Spok95/alumtrack/internal/domain"
)

var ErrNotFound = errors.New("purchases: not found")

// Purchase партия закупленного сырья.
type Purchase struct {
	ID           int64
	AlloyType    string
	Purity       float64
	QuantityKg   float64
	PricePerKg   float64
	PurchaseDate time.Time
	Supplier     *string
	Notes        *string
	RemainingKg  float64
}

// Input поля, которые задаёт пользователь (создание, обновление, импорт).
type Input struct {
	AlloyType    string
	Purity       float64
	QuantityKg   float64
	PricePerKg   float64
	PurchaseDate time.Time
	Supplier     *string
	Notes        *string
}

func (in *Input) Normalize() {
	in.AlloyType = strings.TrimSpace(in.AlloyType)
	in.Supplier = trimOptional(in.Supplier)
	in.Notes = trimOptional(in.Notes)
}

func (in Input) Validate() error {
	if strings.TrimSpace(in.AlloyType) == "" {
		return domain.Invalid("alloy_type", "must not be empty")
	}
	if err := domain.NonNegative("purity", in.Purity); err != nil {
		return err
	}
	if err := domain.NonNegative("quantity_kg", in.QuantityKg); err != nil {
		return err
	}
	if err := domain.NonNegative("price_per_kg", in.PricePerKg); err != nil {
		return err
	}
	if in.PurchaseDate.IsZero() {
		return domain.Invalid("purchase_date", "is required")
	}
	return nil
}

// Apply переносит поля ввода в запись. Остаток сбрасывается на новое количество.
func (p *Purchase) Apply(in Input) {
	p.AlloyType = in.AlloyType
	p.Purity = in.Purity
	p.QuantityKg = in.QuantityKg
	p.PricePerKg = in.PricePerKg
	p.PurchaseDate = in.PurchaseDate
	p.Supplier = in.Supplier
	p.Notes = in.Notes
	p.RemainingKg = in.QuantityKg
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
