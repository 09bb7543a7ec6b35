package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/storelane/storelane/internal/domain/order"
	ierr "github.com/storelane/storelane/internal/errors"
	"github.com/storelane/storelane/internal/logger"
	pg "github.com/storelane/storelane/internal/postgres"
	"github.com/storelane/storelane/internal/types"
)

type orderRepository struct {
	db     pg.IClient
	logger *logger.Logger
}

// NewOrderRepository creates a postgres-backed order repository. Orders and
// their lines are written together so a partially persisted order can never
// be observed.
func NewOrderRepository(db pg.IClient, logger *logger.Logger) order.Repository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

// orderRow adds the array column mapping on top of the domain model.
type orderRow struct {
	order.Order
	AppliedDiscountIDsArr pq.StringArray `db:"applied_discount_ids"`
}

func (r *orderRow) toModel() *order.Order {
	o := r.Order
	o.AppliedDiscountIDs = []string(r.AppliedDiscountIDsArr)
	return &o
}

func orderToRow(o *order.Order) *orderRow {
	return &orderRow{
		Order:                 *o,
		AppliedDiscountIDsArr: pq.StringArray(o.AppliedDiscountIDs),
	}
}

const orderColumns = `
	id, order_number, customer_id, order_status,
	subtotal, discount_total, shipping_cost, tax_total, total, applied_discount_ids,
	shop_id, status, created_at, updated_at, created_by, updated_by`

const orderLineColumns = `
	id, order_id, product_id, variant_id, unit_price, quantity,
	line_total, discount_amount, is_gift`

func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (
			:id, :order_number, :customer_id, :order_status,
			:subtotal, :discount_total, :shipping_cost, :tax_total, :total, :applied_discount_ids,
			:shop_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	q := r.db.GetQuerier(ctx)
	if _, err := q.NamedExec(query, orderToRow(o)); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("An order with this number already exists").
				WithReportableDetails(map[string]any{"order_number": o.OrderNumber}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create order").
			Mark(ierr.ErrDatabase)
	}

	return r.insertLines(ctx, o.Lines)
}

func (r *orderRepository) insertLines(ctx context.Context, lines []*order.Line) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_lines (` + orderLineColumns + `)
		VALUES (
			:id, :order_id, :product_id, :variant_id, :unit_price, :quantity,
			:line_total, :discount_amount, :is_gift
		)`

	q := r.db.GetQuerier(ctx)
	for _, line := range lines {
		if _, err := q.NamedExec(query, line); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to create order line").
				WithReportableDetails(map[string]any{"product_id": line.ProductID}).
				Mark(ierr.ErrDatabase)
		}
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var row orderRow
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1 AND shop_id = $2 AND status != $3`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &row, query,
		id, types.GetShopID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewErrorf("order %s not found", id).
				WithHint("The order does not exist").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get order").
			Mark(ierr.ErrDatabase)
	}

	o := row.toModel()
	if err := r.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var row orderRow
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE order_number = $1 AND shop_id = $2 AND status != $3`

	err := r.db.GetQuerier(ctx).GetContext(ctx, &row, query,
		orderNumber, types.GetShopID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewErrorf("order %s not found", orderNumber).
				WithHint("The order does not exist").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get order").
			Mark(ierr.ErrDatabase)
	}

	o := row.toModel()
	if err := r.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepository) loadLines(ctx context.Context, o *order.Order) error {
	query := `
		SELECT ` + orderLineColumns + `
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id ASC`

	var lines []*order.Line
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &lines, query, o.ID); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to load order lines").
			Mark(ierr.ErrDatabase)
	}
	o.Lines = lines
	return nil
}

// Update rewrites the order header and replaces its lines. Confirmation of
// a draft goes through here, so the line set must follow re-validation.
func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	query := `
		UPDATE orders SET
			order_status = :order_status,
			subtotal = :subtotal, discount_total = :discount_total,
			shipping_cost = :shipping_cost, tax_total = :tax_total, total = :total,
			applied_discount_ids = :applied_discount_ids,
			status = :status, updated_at = :updated_at, updated_by = :updated_by
		WHERE id = :id AND shop_id = :shop_id`

	q := r.db.GetQuerier(ctx)
	result, err := q.NamedExec(query, orderToRow(o))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update order").
			Mark(ierr.ErrDatabase)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ierr.NewErrorf("order %s not found", o.ID).
			WithHint("The order does not exist").
			Mark(ierr.ErrNotFound)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = $1`, o.ID); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to replace order lines").
			Mark(ierr.ErrDatabase)
	}
	return r.insertLines(ctx, o.Lines)
}
