package planning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/alumtrack/internal/domain/allocation"
	"github.com/Spok95/alumtrack/internal/domain/purchases"
	"github.com/Spok95/alumtrack/internal/domain/targets"
	"github.com/Spok95/alumtrack/internal/infra/db"
	"github.com/Spok95/alumtrack/internal/infra/metrics"
)

// Source отдаёт цели периода и партии с положительным остатком.
type Source interface {
	Load(ctx context.Context, p Period) ([]targets.Target, []purchases.Purchase, error)
}

// PGSource читает цели и остатки из одного снимка базы.
type PGSource struct{ pool *pgxpool.Pool }

func NewPGSource(pool *pgxpool.Pool) *PGSource { return &PGSource{pool: pool} }

func (s *PGSource) Load(ctx context.Context, p Period) ([]targets.Target, []purchases.Purchase, error) {
	var (
		demand []targets.Target
		stock  []purchases.Purchase
	)
	err := db.ReadSnapshot(ctx, s.pool, func(q db.DBTX) error {
		var err error
		if demand, err = targets.NewRepo(q).ListByPeriod(ctx, p.Year, p.Month); err != nil {
			return fmt.Errorf("load targets: %w", err)
		}
		if stock, err = purchases.NewRepo(q).ListInStock(ctx); err != nil {
			return fmt.Errorf("load stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return demand, stock, nil
}

type Service struct {
	src Source
	log *slog.Logger
}

func NewService(src Source, log *slog.Logger) *Service {
	return &Service{src: src, log: log}
}

// Optimize считает оптимальное использование остатков под цели месяца.
// Склад не меняется: это только план.
func (s *Service) Optimize(ctx context.Context, p Period) (allocation.Result, error) {
	if err := p.Validate(); err != nil {
		return allocation.Result{}, err
	}
	start := time.Now()

	demand, stock, err := s.src.Load(ctx, p)
	if err != nil {
		metrics.OptimizeRuns.WithLabelValues("error").Inc()
		return allocation.Result{}, err
	}

	res := allocation.Allocate(DemandLines(demand), Lots(stock))

	metrics.OptimizeDuration.Observe(time.Since(start).Seconds())
	outcome := "ok"
	if len(res.Shortfalls) > 0 {
		outcome = "shortfall"
	}
	metrics.OptimizeRuns.WithLabelValues(outcome).Inc()
	for _, sf := range res.Shortfalls {
		metrics.ShortfallKg.WithLabelValues(string(sf.Grade)).Set(sf.Missing)
	}

	s.log.Debug("optimization done",
		"period", p.String(),
		"targets", len(demand),
		"lots", len(stock),
		"steps", len(res.Steps),
		"shortfalls", len(res.Shortfalls),
		"total_cost", res.TotalCost,
	)
	return res, nil
}

// DemandLines переводит цели продаж в строки спроса движка.
func DemandLines(ts []targets.Target) []allocation.DemandLine {
	out := make([]allocation.DemandLine, 0, len(ts))
	for _, t := range ts {
		out = append(out, allocation.DemandLine{
			Grade:    allocation.Grade(t.AlloyType),
			Quantity: t.TargetQuantityKg,
		})
	}
	return out
}

// Lots переводит закупки в партии движка; пустые остатки отбрасываются.
func Lots(ps []purchases.Purchase) []allocation.Lot {
	out := make([]allocation.Lot, 0, len(ps))
	for _, p := range ps {
		if p.RemainingKg <= 0 {
			continue
		}
		out = append(out, allocation.Lot{
			ID:        allocation.LotID(p.ID),
			Grade:     allocation.Grade(p.AlloyType),
			UnitCost:  p.PricePerKg,
			Remaining: p.RemainingKg,
		})
	}
	return out
}
