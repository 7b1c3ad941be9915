package purchases

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Spok95/alumtrack/internal/infra/db"
)

type Repo struct{ db db.DBTX }

func NewRepo(q db.DBTX) *Repo { return &Repo{db: q} }

const selectCols = `id, alloy_type, purity, quantity_kg, price_per_kg, purchase_date, supplier, notes, remaining_quantity_kg`

func scan(row pgx.Row) (*Purchase, error) {
	var p Purchase
	if err := row.Scan(
		&p.ID,
		&p.AlloyType,
		&p.Purity,
		&p.QuantityKg,
		&p.PricePerKg,
		&p.PurchaseDate,
		&p.Supplier,
		&p.Notes,
		&p.RemainingKg,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, in Input) (*Purchase, error) {
	var p Purchase
	p.Apply(in)
	row := r.db.QueryRow(ctx, `
		INSERT INTO purchases (alloy_type, purity, quantity_kg, price_per_kg, purchase_date, supplier, notes, remaining_quantity_kg)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+selectCols,
		p.AlloyType, p.Purity, p.QuantityKg, p.PricePerKg, p.PurchaseDate, p.Supplier, p.Notes, p.RemainingKg)
	return scan(row)
}

// CreateMany вставляет все строки одной транзакцией через COPY: либо все, либо ничего.
func (r *Repo) CreateMany(ctx context.Context, ins []Input) (int64, error) {
	if len(ins) == 0 {
		return 0, nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"purchases"},
		[]string{"alloy_type", "purity", "quantity_kg", "price_per_kg", "purchase_date", "supplier", "notes", "remaining_quantity_kg"},
		pgx.CopyFromSlice(len(ins), func(i int) ([]any, error) {
			var p Purchase
			p.Apply(ins[i])
			return []any{p.AlloyType, p.Purity, p.QuantityKg, p.PricePerKg, p.PurchaseDate, p.Supplier, p.Notes, p.RemainingKg}, nil
		}),
	)
	if err != nil {
		return 0, err
	}
	return n, tx.Commit(ctx)
}

func (r *Repo) List(ctx context.Context) ([]Purchase, error) {
	return r.list(ctx, `SELECT `+selectCols+` FROM purchases ORDER BY id`)
}

// ListInStock только партии с положительным остатком.
func (r *Repo) ListInStock(ctx context.Context) ([]Purchase, error) {
	return r.list(ctx, `SELECT `+selectCols+` FROM purchases WHERE remaining_quantity_kg > 0 ORDER BY id`)
}

func (r *Repo) list(ctx context.Context, q string) ([]Purchase, error) {
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Purchase{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id int64) (*Purchase, error) {
	p, err := scan(r.db.QueryRow(ctx, `SELECT `+selectCols+` FROM purchases WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Update перезаписывает все пользовательские поля и сбрасывает остаток на новое количество.
func (r *Repo) Update(ctx context.Context, id int64, in Input) (*Purchase, error) {
	p := Purchase{ID: id}
	p.Apply(in)
	row := r.db.QueryRow(ctx, `
		UPDATE purchases SET
			alloy_type=$2, purity=$3, quantity_kg=$4, price_per_kg=$5,
			purchase_date=$6, supplier=$7, notes=$8, remaining_quantity_kg=$9
		WHERE id=$1
		RETURNING `+selectCols,
		p.ID, p.AlloyType, p.Purity, p.QuantityKg, p.PricePerKg, p.PurchaseDate, p.Supplier, p.Notes, p.RemainingKg)
	out, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return out, err
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM purchases WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
