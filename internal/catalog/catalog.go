// Package catalog exposes the menu and pickup sites the conversation refers
// to. Read-only from the agent's point of view.
package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MenuItem struct {
	ID         int64
	Name       string
	PriceCents int64
	Available  bool
}

type Site struct {
	ID      int64
	Name    string
	Address string
	Lat     float64
	Lng     float64
}

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Menu(ctx context.Context, restaurantID int64) ([]MenuItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, price_cents, available
		FROM menu_items WHERE restaurant_id=$1 AND available ORDER BY id`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.PriceCents, &m.Available); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *Repository) Sites(ctx context.Context, restaurantID int64) ([]Site, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, address, lat, lng
		FROM sites WHERE restaurant_id=$1 ORDER BY id`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		var s Site
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.Lat, &s.Lng); err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

// MatchSite resolves a free-text answer to one of the restaurant's sites by
// case-insensitive substring match, nil when nothing matches.
func MatchSite(sites []Site, text string) *Site {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}
	for i := range sites {
		name := strings.ToLower(sites[i].Name)
		if strings.Contains(needle, name) || strings.Contains(name, needle) {
			return &sites[i]
		}
	}
	return nil
}
