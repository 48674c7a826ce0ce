package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesero-labs/mesero/internal/conversation/domain"
	"github.com/mesero-labs/mesero/pkg/retry"
)

const (
	retryAttempts = 3
	retryBase     = 100 * time.Millisecond
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Append(ctx context.Context, customerID int64, role domain.Role, text string) error {
	return retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx, `INSERT INTO conversation_entries (customer_id, role, text)
			VALUES ($1, $2, $3)`, customerID, role, text)
		return err
	})
}

// Window returns the last n entries in chronological order.
func (r *Repository) Window(ctx context.Context, customerID int64, n int) ([]domain.Entry, error) {
	var entries []domain.Entry
	err := retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, `SELECT id, customer_id, role, text, created_at
			FROM (SELECT id, customer_id, role, text, created_at FROM conversation_entries
				WHERE customer_id=$1 ORDER BY id DESC LIMIT $2) tail
			ORDER BY id`, customerID, n)
		if err != nil {
			return err
		}
		defer rows.Close()

		entries = entries[:0]
		for rows.Next() {
			var e domain.Entry
			if err := rows.Scan(&e.ID, &e.CustomerID, &e.Role, &e.Text, &e.CreatedAt); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
