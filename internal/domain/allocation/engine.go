package allocation

import (
	"cmp"
	"slices"
)

// Allocate подбирает партии под спрос с минимальной стоимостью:
// по каждой марке отдельно, от самой дешёвой партии к дорогой.
// Партии не изменяются, результат строится заново на каждый вызов.
func Allocate(demand []DemandLine, lots []Lot) Result {
	need := make(map[Grade]float64, len(demand))
	for _, d := range demand {
		need[d.Grade] += d.Quantity
	}

	byGrade := make(map[Grade][]Lot)
	for _, l := range lots {
		if _, ok := need[l.Grade]; !ok {
			continue
		}
		byGrade[l.Grade] = append(byGrade[l.Grade], l)
	}

	grades := make([]Grade, 0, len(need))
	for g := range need {
		grades = append(grades, g)
	}
	slices.Sort(grades)

	var res Result
	for _, g := range grades {
		left := need[g]

		batch := byGrade[g]
		slices.SortFunc(batch, func(a, b Lot) int {
			if c := cmp.Compare(a.UnitCost, b.UnitCost); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})

		for _, l := range batch {
			if left <= 0 {
				break
			}
			use := min(l.Remaining, left)
			if use <= 0 {
				continue
			}
			cost := use * l.UnitCost
			res.Steps = append(res.Steps, Step{
				Grade:    g,
				LotID:    l.ID,
				Quantity: use,
				UnitCost: l.UnitCost,
				Cost:     cost,
			})
			res.TotalCost += cost
			left -= use
		}

		if left > 0 {
			res.Shortfalls = append(res.Shortfalls, Shortfall{Grade: g, Missing: left})
		}
	}
	return res
}
