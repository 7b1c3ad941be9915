package targets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Spok95/alumtrack/internal/infra/db"
)

type Repo struct{ db db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{db: q} }

const selectCols = `id, alloy_type, target_quantity_kg, month, year`

func scan(row pgx.Row) (*Target, error) {
	var t Target
	if err := row.Scan(&t.ID, &t.AlloyType, &t.TargetQuantityKg, &t.Month, &t.Year); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) Create(ctx context.Context, in Input) (*Target, error) {
	var t Target
	t.Apply(in)
	row := r.db.QueryRow(ctx, `
		INSERT INTO sales_targets (alloy_type, target_quantity_kg, month, year)
		VALUES ($1,$2,$3,$4)
		RETURNING `+selectCols,
		t.AlloyType, t.TargetQuantityKg, t.Month, t.Year)
	return scan(row)
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Target, error) {
	var (
		where []string
		args  []any
	)
	if f.Year != nil {
		args = append(args, *f.Year)
		where = append(where, fmt.Sprintf("year = $%d", len(args)))
	}
	if f.Month != nil {
		args = append(args, *f.Month)
		where = append(where, fmt.Sprintf("month = $%d", len(args)))
	}

	q := `SELECT ` + selectCols + ` FROM sales_targets`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Target{}
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ListByPeriod возвращает все цели за конкретный месяц.
func (r *Repo) ListByPeriod(ctx context.Context, year, month int) ([]Target, error) {
	return r.List(ctx, Filter{Year: &year, Month: &month})
}

func (r *Repo) Update(ctx context.Context, id int64, in Input) (*Target, error) {
	t := Target{ID: id}
	t.Apply(in)
	row := r.db.QueryRow(ctx, `
		UPDATE sales_targets SET alloy_type=$2, target_quantity_kg=$3, month=$4, year=$5
		WHERE id=$1
		RETURNING `+selectCols,
		t.ID, t.AlloyType, t.TargetQuantityKg, t.Month, t.Year)
	out, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return out, err
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sales_targets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
