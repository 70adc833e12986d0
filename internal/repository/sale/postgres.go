package sale

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"venusstore/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres creates a Postgres-backed Repository. Schema comes from the
// embedded migrations (see internal/migrate).
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Load(ctx context.Context) ([]domain.Sale, error) {
	const q = `
SELECT id, kind, quantity, price, buyer_id, method, sold_at
FROM sales
ORDER BY seq
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		var s domain.Sale
		var kind, method string
		if err := rows.Scan(&s.ID, &kind, &s.Quantity, &s.Price, &s.BuyerID, &method, &s.SoldAt); err != nil {
			return nil, err
		}
		s.Kind = domain.ProductKind(kind)
		s.Method = domain.PaymentMethod(method)
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (r *postgresRepo) Append(ctx context.Context, s domain.Sale) error {
	const q = `
INSERT INTO sales (id, kind, quantity, price, buyer_id, method, sold_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := r.pool.Exec(ctx, q, s.ID, string(s.Kind), s.Quantity, s.Price, s.BuyerID, string(s.Method), s.SoldAt)
	return err
}

func (r *postgresRepo) Reset(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `TRUNCATE sales`)
	return err
}
