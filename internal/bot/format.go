package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/alumtrack/internal/domain/allocation"
	"github.com/Spok95/alumtrack/internal/domain/inventory"
	"github.com/Spok95/alumtrack/internal/planning"
)

// periodArg разбирает аргумент команды; пустой означает текущий месяц.
func periodArg(arg string, now time.Time) (planning.Period, error) {
	if strings.TrimSpace(arg) == "" {
		return planning.Period{Year: now.Year(), Month: int(now.Month())}, nil
	}
	return planning.ParsePeriod(arg)
}

func formatSummary(s inventory.Summary) string {
	if len(s.ByAlloy) == 0 {
		return "Склад пуст."
	}
	var sb strings.Builder
	sb.WriteString("Остатки на складе:\n")
	for _, a := range s.ByAlloy {
		fmt.Fprintf(&sb, "• %s: %.2f кг на %.2f\n", a.AlloyType, a.QuantityKg, a.Value)
	}
	fmt.Fprintf(&sb, "\nИтого: %.2f кг на %.2f", s.TotalKg, s.TotalValue)
	return sb.String()
}

func formatPlan(p planning.Period, res allocation.Result) string {
	if len(res.Steps) == 0 && len(res.Shortfalls) == 0 {
		return fmt.Sprintf("На %s целей продаж нет.", p.String())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "План на %s\n", p.String())
	if len(res.Steps) > 0 {
		sb.WriteString("\nИз остатков:\n")
		for _, s := range res.Steps {
			fmt.Fprintf(&sb, "• %s, партия #%d: %.2f кг × %.2f = %.2f\n",
				s.Grade, s.LotID, s.Quantity, s.UnitCost, s.Cost)
		}
	}
	if len(res.Shortfalls) > 0 {
		sb.WriteString("\nДокупить:\n")
		for _, sf := range res.Shortfalls {
			fmt.Fprintf(&sb, "• %s: %.2f кг\n", sf.Grade, sf.Missing)
		}
	}
	fmt.Fprintf(&sb, "\nСтоимость из остатков: %.2f", res.TotalCost)
	return sb.String()
}
