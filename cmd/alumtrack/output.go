package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/Spok95/alumtrack/internal/domain/allocation"
	"github.com/Spok95/alumtrack/internal/domain/purchases"
	"github.com/Spok95/alumtrack/internal/export"
	"github.com/Spok95/alumtrack/internal/importer"
	"github.com/Spok95/alumtrack/internal/infra/metrics"
	"github.com/Spok95/alumtrack/internal/planning"
)

type stepJSON struct {
	AlloyType  string  `json:"alloy_type"`
	PurchaseID int64   `json:"purchase_id"`
	QuantityKg float64 `json:"quantity_used_kg"`
	PricePerKg float64 `json:"price_per_kg"`
	Cost       float64 `json:"cost"`
}

type shortfallJSON struct {
	AlloyType string  `json:"alloy_type"`
	MissingKg float64 `json:"missing_kg"`
}

type planJSON struct {
	Period    string          `json:"period"`
	Steps     []stepJSON      `json:"steps"`
	ToBuy     []shortfallJSON `json:"to_buy"`
	TotalCost float64         `json:"total_cost"`
}

func toPlanJSON(p planning.Period, res allocation.Result) planJSON {
	out := planJSON{
		Period:    p.String(),
		Steps:     make([]stepJSON, 0, len(res.Steps)),
		ToBuy:     make([]shortfallJSON, 0, len(res.Shortfalls)),
		TotalCost: res.TotalCost,
	}
	for _, s := range res.Steps {
		out.Steps = append(out.Steps, stepJSON{
			AlloyType:  string(s.Grade),
			PurchaseID: int64(s.LotID),
			QuantityKg: s.Quantity,
			PricePerKg: s.UnitCost,
			Cost:       s.Cost,
		})
	}
	for _, sf := range res.Shortfalls {
		out.ToBuy = append(out.ToBuy, shortfallJSON{AlloyType: string(sf.Grade), MissingKg: sf.Missing})
	}
	return out
}

func printPlan(w io.Writer, format string, p planning.Period, res allocation.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toPlanJSON(p, res))
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "PLAN %s\n", p.String())
		fmt.Fprintln(tw, "ALLOY\tLOT\tKG\tPRICE\tCOST")
		for _, s := range res.Steps {
			fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\n", s.Grade, s.LotID, s.Quantity, s.UnitCost, s.Cost)
		}
		fmt.Fprintf(tw, "TOTAL\t\t\t\t%.2f\n", res.TotalCost)
		if len(res.Shortfalls) > 0 {
			fmt.Fprintln(tw, "\nTO BUY\tKG")
			for _, sf := range res.Shortfalls {
				fmt.Fprintf(tw, "%s\t%.2f\n", sf.Grade, sf.Missing)
			}
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writePlanXLSX(path string, p planning.Period, res allocation.Result) error {
	data, err := export.PlanXLSX(p.String(), res)
	if err != nil {
		return fmt.Errorf("build xlsx: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readPurchasesFile(path string) ([]purchases.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ins, err := importer.Parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ins, nil
}

func recordImport(n int64) {
	metrics.PurchasesImported.WithLabelValues("cli").Add(float64(n))
}
