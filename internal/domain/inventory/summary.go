package inventory

import (
	"cmp"
	"slices"

	"github.com/Spok95/alumtrack/internal/domain/purchases"
)

// Summarize считает остатки по партиям с положительным остатком.
// Стоимость остатка = remaining × price_per_kg.
func Summarize(stock []purchases.Purchase) Summary {
	idx := map[string]int{}
	s := Summary{ByAlloy: []AlloyTotal{}}
	for _, p := range stock {
		if p.RemainingKg <= 0 {
			continue
		}
		value := p.RemainingKg * p.PricePerKg
		s.TotalKg += p.RemainingKg
		s.TotalValue += value

		i, ok := idx[p.AlloyType]
		if !ok {
			i = len(s.ByAlloy)
			idx[p.AlloyType] = i
			s.ByAlloy = append(s.ByAlloy, AlloyTotal{AlloyType: p.AlloyType})
		}
		s.ByAlloy[i].QuantityKg += p.RemainingKg
		s.ByAlloy[i].Value += value
	}
	slices.SortFunc(s.ByAlloy, func(a, b AlloyTotal) int { return cmp.Compare(a.AlloyType, b.AlloyType) })
	return s
}
