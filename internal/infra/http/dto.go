package http

import (
	"github.com/Spok95/alumtrack/internal/domain/allocation"
	"github.com/Spok95/alumtrack/internal/domain/inventory"
	"github.com/Spok95/alumtrack/internal/domain/purchases"
	"github.com/Spok95/alumtrack/internal/domain/targets"
	"github.com/Spok95/alumtrack/internal/importer"
)

const dateLayout = "2006-01-02"

type purchaseRequest struct {
	AlloyType    string  `json:"alloy_type"`
	Purity       float64 `json:"purity"`
	QuantityKg   float64 `json:"quantity_kg"`
	PricePerKg   float64 `json:"price_per_kg"`
	PurchaseDate string  `json:"purchase_date"`
	Supplier     *string `json:"supplier"`
	Notes        *string `json:"notes"`
}

func (req purchaseRequest) input() (purchases.Input, error) {
	in := purchases.Input{
		AlloyType:  req.AlloyType,
		Purity:     req.Purity,
		QuantityKg: req.QuantityKg,
		PricePerKg: req.PricePerKg,
		Supplier:   req.Supplier,
		Notes:      req.Notes,
	}
	if req.PurchaseDate != "" {
		d, err := importer.ParseDate(req.PurchaseDate)
		if err != nil {
			return in, invalid("purchase_date", err.Error())
		}
		in.PurchaseDate = d
	}
	in.Normalize()
	return in, in.Validate()
}

type purchaseResponse struct {
	ID           int64   `json:"id"`
	AlloyType    string  `json:"alloy_type"`
	Purity       float64 `json:"purity"`
	QuantityKg   float64 `json:"quantity_kg"`
	PricePerKg   float64 `json:"price_per_kg"`
	PurchaseDate string  `json:"purchase_date"`
	Supplier     *string `json:"supplier"`
	Notes        *string `json:"notes"`
	RemainingKg  float64 `json:"remaining_quantity_kg"`
}

func toPurchase(p purchases.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:           p.ID,
		AlloyType:    p.AlloyType,
		Purity:       p.Purity,
		QuantityKg:   p.QuantityKg,
		PricePerKg:   p.PricePerKg,
		PurchaseDate: p.PurchaseDate.Format(dateLayout),
		Supplier:     p.Supplier,
		Notes:        p.Notes,
		RemainingKg:  p.RemainingKg,
	}
}

type targetRequest struct {
	AlloyType        string  `json:"alloy_type"`
	TargetQuantityKg float64 `json:"target_quantity_kg"`
	Month            int     `json:"month"`
	Year             int     `json:"year"`
}

func (req targetRequest) input() (targets.Input, error) {
	in := targets.Input{
		AlloyType:        req.AlloyType,
		TargetQuantityKg: req.TargetQuantityKg,
		Month:            req.Month,
		Year:             req.Year,
	}
	in.Normalize()
	return in, in.Validate()
}

type targetResponse struct {
	ID               int64   `json:"id"`
	AlloyType        string  `json:"alloy_type"`
	TargetQuantityKg float64 `json:"target_quantity_kg"`
	Month            int     `json:"month"`
	Year             int     `json:"year"`
}

func toTarget(t targets.Target) targetResponse {
	return targetResponse{
		ID:               t.ID,
		AlloyType:        t.AlloyType,
		TargetQuantityKg: t.TargetQuantityKg,
		Month:            t.Month,
		Year:             t.Year,
	}
}

type alloyTotal struct {
	AlloyType  string  `json:"alloy_type"`
	QuantityKg float64 `json:"quantity_kg"`
	Value      float64 `json:"value"`
}

type summaryResponse struct {
	TotalKg    float64      `json:"total_inventory_kg"`
	TotalValue float64      `json:"total_inventory_value"`
	ByAlloy    []alloyTotal `json:"by_alloy"`
}

func toSummary(s inventory.Summary) summaryResponse {
	out := summaryResponse{TotalKg: s.TotalKg, TotalValue: s.TotalValue, ByAlloy: []alloyTotal{}}
	for _, a := range s.ByAlloy {
		out.ByAlloy = append(out.ByAlloy, alloyTotal(a))
	}
	return out
}

type mixLine struct {
	AlloyType  string  `json:"alloy_type"`
	PurchaseID int64   `json:"purchase_id"`
	QuantityKg float64 `json:"quantity_used_kg"`
	PricePerKg float64 `json:"price_per_kg"`
	Cost       float64 `json:"cost"`
}

type toBuyLine struct {
	AlloyType string  `json:"alloy_type"`
	MissingKg float64 `json:"missing_quantity_kg"`
}

type optimizeResponse struct {
	OptimalMix []mixLine   `json:"optimal_mix"`
	ToBuy      []toBuyLine `json:"to_buy"`
	TotalCost  float64     `json:"total_cost_for_targets"`
}

func toOptimize(res allocation.Result) optimizeResponse {
	out := optimizeResponse{
		OptimalMix: make([]mixLine, 0, len(res.Steps)),
		ToBuy:      make([]toBuyLine, 0, len(res.Shortfalls)),
		TotalCost:  res.TotalCost,
	}
	for _, s := range res.Steps {
		out.OptimalMix = append(out.OptimalMix, mixLine{
			AlloyType:  string(s.Grade),
			PurchaseID: int64(s.LotID),
			QuantityKg: s.Quantity,
			PricePerKg: s.UnitCost,
			Cost:       s.Cost,
		})
	}
	for _, sf := range res.Shortfalls {
		out.ToBuy = append(out.ToBuy, toBuyLine{AlloyType: string(sf.Grade), MissingKg: sf.Missing})
	}
	return out
}
