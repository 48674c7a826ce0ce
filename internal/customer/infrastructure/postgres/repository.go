package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesero-labs/mesero/internal/customer/domain"
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

const columns = `id, restaurant_id, channel_address, display_name, address_text, lat, lng,
	site_id, first_address, profile_complete, tax_id, document_id, created_at, updated_at`

func scan(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.RestaurantID, &c.ChannelAddress, &c.DisplayName, &c.AddressText,
		&c.Lat, &c.Lng, &c.SiteID, &c.FirstAddress, &c.ProfileComplete, &c.TaxID, &c.DocumentID,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreate resolves the customer for an inbound message, inserting a fresh
// row on first contact. The upsert keeps the display name current.
func (r *Repository) GetOrCreate(ctx context.Context, restaurantID int64, channelAddress, displayName string) (*domain.Customer, error) {
	var c *domain.Customer
	err := retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		row := r.pool.QueryRow(ctx, `INSERT INTO customers (restaurant_id, channel_address, display_name)
			VALUES ($1, $2, $3)
			ON CONFLICT (restaurant_id, channel_address)
			DO UPDATE SET display_name = CASE WHEN $3 <> '' THEN $3 ELSE customers.display_name END,
				updated_at = now()
			RETURNING `+columns, restaurantID, channelAddress, displayName)
		var err error
		c, err = scan(row)
		return err
	})
	return c, err
}

func (r *Repository) Get(ctx context.Context, customerID int64) (*domain.Customer, error) {
	var c *domain.Customer
	err := retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM customers WHERE id=$1`, customerID)
		var err error
		c, err = scan(row)
		return err
	})
	return c, err
}

// SetAddress records the free-text address with its resolved coordinates and
// clears the first-address flag.
func (r *Repository) SetAddress(ctx context.Context, customerID int64, addressText string, lat, lng float64) error {
	return retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx, `UPDATE customers SET address_text=$2, lat=$3, lng=$4,
			first_address=false, updated_at=now() WHERE id=$1`, customerID, addressText, lat, lng)
		return err
	})
}

func (r *Repository) AssignSite(ctx context.Context, customerID, siteID int64) error {
	return retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx, `UPDATE customers SET site_id=$2, updated_at=now() WHERE id=$1`,
			customerID, siteID)
		return err
	})
}

// SetProfile fills the registration fields and marks the profile complete.
func (r *Repository) SetProfile(ctx context.Context, customerID int64, displayName, taxID, documentID string) error {
	return retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx, `UPDATE customers SET display_name=$2, tax_id=$3, document_id=$4,
			profile_complete=true, updated_at=now() WHERE id=$1`, customerID, displayName, taxID, documentID)
		return err
	})
}
