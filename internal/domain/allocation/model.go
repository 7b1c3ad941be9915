package allocation

// Grade марка сплава, ключ сопоставления партий и спроса.
type Grade string

// LotID идентификатор партии (id закупки).
type LotID int64

// Lot партия на складе.
type Lot struct {
	ID        LotID
	Grade     Grade
	UnitCost  float64 // за кг
	Remaining float64 // кг
}

type DemandLine struct {
	Grade    Grade
	Quantity float64
}

// Step: сколько берём из конкретной партии.
type Step struct {
	Grade    Grade
	LotID    LotID
	Quantity float64
	UnitCost float64
	Cost     float64
}

// Shortfall недостающий объём по марке (надо докупить).
type Shortfall struct {
	Grade   Grade
	Missing float64
}

type Result struct {
	Steps      []Step
	Shortfalls []Shortfall
	TotalCost  float64
}
