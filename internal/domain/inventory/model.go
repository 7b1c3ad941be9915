package inventory

type AlloyTotal struct {
	AlloyType  string
	QuantityKg float64
	Value      float64
}

// Summary сводка остатков: всего кг, стоимость и разбивка по маркам.
type Summary struct {
	TotalKg    float64
	TotalValue float64
	ByAlloy    []AlloyTotal
}
