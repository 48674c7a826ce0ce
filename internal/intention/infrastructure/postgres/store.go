package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesero-labs/mesero/internal/intention/domain"
	"github.com/mesero-labs/mesero/pkg/retry"
)

const (
	retryAttempts = 3
	retryBase     = 100 * time.Millisecond
)

// Store persists the single pending-intention slot per customer. Put is a
// full replace; callers that need the previous value must Get first.
type Store struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewStore(log *slog.Logger, pool *pgxpool.Pool) *Store {
	return &Store{log: log, pool: pool}
}

func (s *Store) Get(ctx context.Context, customerID int64) (*domain.PendingIntention, error) {
	var p domain.PendingIntention
	err := retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `SELECT customer_id, next_step, reference_code, notes,
			last_agent_message, last_customer_message, payload, updated_at
			FROM pending_intentions WHERE customer_id=$1`, customerID).
			Scan(&p.CustomerID, &p.NextStep, &p.ReferenceCode, &p.Notes,
				&p.LastAgentMessage, &p.LastCustomerMessage, &p.Payload, &p.UpdatedAt)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Put(ctx context.Context, p domain.PendingIntention) error {
	return retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `INSERT INTO pending_intentions
			(customer_id, next_step, reference_code, notes, last_agent_message, last_customer_message, payload, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			ON CONFLICT (customer_id) DO UPDATE SET
				next_step = EXCLUDED.next_step,
				reference_code = EXCLUDED.reference_code,
				notes = EXCLUDED.notes,
				last_agent_message = EXCLUDED.last_agent_message,
				last_customer_message = EXCLUDED.last_customer_message,
				payload = EXCLUDED.payload,
				updated_at = now()`,
			p.CustomerID, p.NextStep, p.ReferenceCode, p.Notes, p.LastAgentMessage, p.LastCustomerMessage, p.Payload)
		return err
	})
}

func (s *Store) Delete(ctx context.Context, customerID int64) error {
	return retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `DELETE FROM pending_intentions WHERE customer_id=$1`, customerID)
		return err
	})
}
