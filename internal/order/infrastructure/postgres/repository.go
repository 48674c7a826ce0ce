package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesero-labs/mesero/internal/order/application"
	"github.com/mesero-labs/mesero/internal/order/domain"
	"github.com/mesero-labs/mesero/pkg/retry"
	"github.com/mesero-labs/mesero/pkg/tracing"
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

const orderColumns = `id, customer_id, code, status, is_temporary, items_subtotal, delivery_fee,
	final_total, delivery_method, payment_method, eta_minutes, distance_km, site_id,
	payment_ref, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.Code, &o.Status, &o.IsTemporary, &o.ItemsSubtotal,
		&o.DeliveryFee, &o.FinalTotal, &o.Delivery, &o.Payment, &o.ETAMinutes, &o.DistanceKM,
		&o.SiteID, &o.PaymentRef, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// RecentPending returns the newest pending order inside the validity window,
// or nil. Stale pending orders are deliberately invisible so a new draft can
// supersede them.
func (r *Repository) RecentPending(ctx context.Context, customerID int64) (*domain.Order, error) {
	var o *domain.Order
	err := retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders
			WHERE customer_id=$1 AND status='pending' AND created_at > now() - $2::interval
			ORDER BY created_at DESC LIMIT 1`, customerID, domain.PendingWindow.String())
		var err error
		o, err = scanOrder(row)
		if err != nil || o == nil {
			return err
		}
		return r.loadLines(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	var o *domain.Order
	err := retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID)
		var err error
		o, err = scanOrder(row)
		if err != nil || o == nil {
			return err
		}
		return r.loadLines(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) GetByCode(ctx context.Context, customerID int64, code string) (*domain.Order, error) {
	var o *domain.Order
	err := retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_id=$1 AND code=$2`,
			customerID, code)
		var err error
		o, err = scanOrder(row)
		if err != nil || o == nil {
			return err
		}
		return r.loadLines(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) loadLines(ctx context.Context, o *domain.Order) error {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, catalog_item_id, name, quantity,
		unit_price, total, specification FROM order_lines WHERE order_id=$1 ORDER BY id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	o.Lines = o.Lines[:0]
	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.CatalogItemID, &l.Name, &l.Quantity,
			&l.UnitPrice, &l.Total, &l.Specification); err != nil {
			return err
		}
		o.Lines = append(o.Lines, l)
	}
	return rows.Err()
}

// CreateDraft allocates the next sequential order code under a row lock,
// inserts the temporary order and one line per matched item, and records an
// OrderDrafted outbox row in the same transaction.
func (r *Repository) CreateDraft(ctx context.Context, customerID int64, req domain.ChangeRequest) (*domain.Order, error) {
	req.Intent = domain.ChangeAdd
	plan, err := application.Reconcile(nil, req)
	if err != nil {
		return nil, err
	}

	var o *domain.Order
	err = retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		var err error
		o, err = r.createDraft(ctx, customerID, plan)
		return err
	})
	return o, err
}

func (r *Repository) createDraft(ctx context.Context, customerID int64, plan application.Plan) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var seq int64
	err = tx.QueryRow(ctx, `UPDATE order_codes SET last_code = last_code + 1 WHERE id = 1
		RETURNING last_code`).Scan(&seq)
	if err != nil {
		return nil, err
	}
	code := domain.FormatCode(seq)

	var subtotal int64
	for _, l := range plan.Inserts {
		subtotal += l.Total
	}

	var orderID int64
	err = tx.QueryRow(ctx, `INSERT INTO orders
		(customer_id, code, code_seq, status, is_temporary, items_subtotal, delivery_fee, final_total)
		VALUES ($1, $2, $3, 'pending', true, $4, 0, $4)
		RETURNING id`, customerID, code, seq, subtotal).Scan(&orderID)
	if err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	for _, l := range plan.Inserts {
		batch.Queue(`INSERT INTO order_lines (order_id, catalog_item_id, name, quantity, unit_price, total, specification)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			orderID, l.CatalogItemID, l.Name, l.Quantity, l.UnitPrice, l.Total, l.Specification)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(domain.OrderDrafted{Code: code, CustomerID: customerID, SubtotalCents: subtotal})
	if err := insertOutbox(ctx, tx, code, "OrderDrafted", payload, tracing.Traceparent(ctx)); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, orderID)
}

// ApplyPlan writes a reconciliation plan in one transaction.
func (r *Repository) ApplyPlan(ctx context.Context, orderID int64, plan application.Plan) error {
	return retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		return r.applyPlan(ctx, orderID, plan)
	})
}

func (r *Repository) applyPlan(ctx context.Context, orderID int64, plan application.Plan) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	batch := &pgx.Batch{}
	for _, l := range plan.Inserts {
		batch.Queue(`INSERT INTO order_lines (order_id, catalog_item_id, name, quantity, unit_price, total, specification)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (order_id, catalog_item_id)
			DO UPDATE SET quantity=$4, unit_price=$5, total=$6, specification=$7`,
			orderID, l.CatalogItemID, l.Name, l.Quantity, l.UnitPrice, l.Total, l.Specification)
	}
	for _, l := range plan.Updates {
		batch.Queue(`UPDATE order_lines SET quantity=$2, total=$3, specification=$4 WHERE id=$1`,
			l.ID, l.Quantity, l.Total, l.Specification)
	}
	for _, id := range plan.Deletes {
		batch.Queue(`DELETE FROM order_lines WHERE id=$1`, id)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RecomputeTotals sets items_subtotal to the live sum over the line rows, not
// an incremental delta, and refreshes final_total.
func (r *Repository) RecomputeTotals(ctx context.Context, orderID int64) (int64, error) {
	var subtotal int64
	err := retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		return r.pool.QueryRow(ctx, `UPDATE orders o
			SET items_subtotal = s.sum, final_total = s.sum + o.delivery_fee, updated_at = now()
			FROM (SELECT COALESCE(SUM(total), 0) AS sum FROM order_lines WHERE order_id = $1) s
			WHERE o.id = $1
			RETURNING o.items_subtotal`, orderID).Scan(&subtotal)
	})
	return subtotal, err
}

// Finalize flips is_temporary off. Finalizing twice is a no-op returning the
// same order; the OrderConfirmed event is only recorded on the first
// transition.
func (r *Repository) Finalize(ctx context.Context, customerID int64, code string) (*domain.Order, error) {
	var o *domain.Order
	err := retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		var err error
		o, err = r.finalize(ctx, customerID, code)
		return err
	})
	return o, err
}

func (r *Repository) finalize(ctx context.Context, customerID int64, code string) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE customer_id=$1 AND code=$2 FOR UPDATE`, customerID, code)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNoMatchingOrder
	}
	if o.IsTemporary {
		if _, err := tx.Exec(ctx, `UPDATE orders SET is_temporary=false, updated_at=now() WHERE id=$1`, o.ID); err != nil {
			return nil, err
		}
		o.IsTemporary = false
		payload, _ := json.Marshal(domain.OrderConfirmed{Code: o.Code, CustomerID: customerID, TotalCents: o.FinalTotal})
		if err := insertOutbox(ctx, tx, o.Code, "OrderConfirmed", payload, tracing.Traceparent(ctx)); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) SetDelivery(ctx context.Context, orderID int64, m domain.DeliveryMethod) error {
	return r.exec(ctx, `UPDATE orders SET delivery_method=$2,
		final_total = items_subtotal + delivery_fee, updated_at=now() WHERE id=$1`, orderID, m)
}

func (r *Repository) SetPaymentMethod(ctx context.Context, orderID int64, m domain.PaymentMethod) error {
	return r.exec(ctx, `UPDATE orders SET payment_method=$2,
		final_total = items_subtotal + delivery_fee, updated_at=now() WHERE id=$1`, orderID, m)
}

func (r *Repository) SetDeliveryQuote(ctx context.Context, orderID int64, feeCents int64, etaMinutes int, distanceKM float64) error {
	return r.exec(ctx, `UPDATE orders SET delivery_fee=$2, eta_minutes=$3, distance_km=$4,
		final_total = items_subtotal + $2, updated_at=now() WHERE id=$1`,
		orderID, feeCents, etaMinutes, distanceKM)
}

func (r *Repository) SetPaymentRef(ctx context.Context, orderID int64, externalID string) error {
	return r.exec(ctx, `UPDATE orders SET payment_ref=$2, updated_at=now() WHERE id=$1`, orderID, externalID)
}

// MarkPaid moves the order to paid and records the PaymentApproved event in
// the same transaction.
func (r *Repository) MarkPaid(ctx context.Context, orderID int64) error {
	return retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		return r.markPaid(ctx, orderID)
	})
}

func (r *Repository) markPaid(ctx context.Context, orderID int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var code, ref string
	err = tx.QueryRow(ctx, `UPDATE orders SET status='paid', updated_at=now() WHERE id=$1
		RETURNING code, payment_ref`, orderID).Scan(&code, &ref)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNoMatchingOrder
	}
	if err != nil {
		return err
	}
	payload, _ := json.Marshal(domain.PaymentApproved{Code: code, ExternalID: ref})
	if err := insertOutbox(ctx, tx, code, "PaymentApproved", payload, tracing.Traceparent(ctx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) exec(ctx context.Context, sql string, args ...any) error {
	return retry.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		ct, err := r.pool.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return domain.ErrNoMatchingOrder
		}
		return nil
	})
}

func insertOutbox(ctx context.Context, tx pgx.Tx, aggregateID, eventType string, payload []byte, traceparent string) error {
	_, err := tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		VALUES ('order', $1, $2, $3, $4, 'pending')`, aggregateID, eventType, payload, traceparent)
	return err
}
