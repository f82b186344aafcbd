package postgres

import (
	"context"
	"fmt"

	"telegram-subscription-shop/internal/domain/model"
	"telegram-subscription-shop/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.GreetingRepository = (*PostgresGreetingRepo)(nil)

type PostgresGreetingRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresGreetingRepo(pool *pgxpool.Pool) *PostgresGreetingRepo {
	return &PostgresGreetingRepo{pool: pool}
}

func (r *PostgresGreetingRepo) List(ctx context.Context) ([]*model.Greeting, error) {
	const sql = `
SELECT id, message, created_at
  FROM greetings
 ORDER BY created_at, id;
`
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("List greetings: %w", err)
	}
	defer rows.Close()
	out := make([]*model.Greeting, 0)
	for rows.Next() {
		var g model.Greeting
		if err := rows.Scan(&g.ID, &g.Message, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan greeting: %w", err)
		}
		out = append(out, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List greetings: %w", err)
	}
	return out, nil
}

// Create inserts g and fills in its generated id and timestamp.
func (r *PostgresGreetingRepo) Create(ctx context.Context, g *model.Greeting) error {
	const sql = `
INSERT INTO greetings (message)
VALUES ($1)
RETURNING id, created_at;
`
	if err := r.pool.QueryRow(ctx, sql, g.Message).Scan(&g.ID, &g.CreatedAt); err != nil {
		return fmt.Errorf("Create greeting: %w", err)
	}
	return nil
}
