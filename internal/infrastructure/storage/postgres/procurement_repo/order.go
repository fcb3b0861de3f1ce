package procurement_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/procurement"
	"fabrika/internal/infrastructure/storage/postgres"
)

const orderTable = "doc_orders"

// OrderRepo implements procurement.OrderRepository.
type OrderRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	columns   []string
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns:   postgres.ExtractDBColumns[procurement.PurchaseOrder](),
	}
}

// GetByID loads one order.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*procurement.PurchaseOrder, error) {
	return r.get(ctx, orderID, false)
}

// GetForUpdate loads an order with a row lock. The progress-billing cap
// check serializes on it; must run inside a transaction.
func (r *OrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*procurement.PurchaseOrder, error) {
	return r.get(ctx, orderID, true)
}

func (r *OrderRepo) get(ctx context.Context, orderID id.ID, forUpdate bool) (*procurement.PurchaseOrder, error) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE id = $1",
		strings.Join(r.columns, ", "), orderTable,
	)
	if forUpdate {
		sql += " FOR UPDATE"
	}

	var o procurement.PurchaseOrder
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &o, sql, orderID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

// GetByQuote returns the order created from a quote.
func (r *OrderRepo) GetByQuote(ctx context.Context, quoteID id.ID) (*procurement.PurchaseOrder, error) {
	q := r.builder.Select(r.columns...).
		From(orderTable).
		Where(squirrel.Eq{"quote_id": quoteID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o procurement.PurchaseOrder
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", quoteID)
		}
		return nil, fmt.Errorf("get order by quote: %w", err)
	}
	return &o, nil
}

// Create stores a new order.
func (r *OrderRepo) Create(ctx context.Context, o *procurement.PurchaseOrder) error {
	query := r.builder.Insert(orderTable).SetMap(postgres.StructToMap(o))

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// Update persists all mutable fields with an optimistic version check.
func (r *OrderRepo) Update(ctx context.Context, o *procurement.PurchaseOrder) error {
	values := postgres.StructToMap(o)
	delete(values, "id")

	query := r.builder.Update(orderTable).
		SetMap(values).
		Where(squirrel.Eq{"id": o.ID}).
		Where(squirrel.Eq{"version": o.Version - 1})

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("order", o.ID)
	}
	return nil
}

// UpdatePaidToDate overwrites the paid-to-date projection.
func (r *OrderRepo) UpdatePaidToDate(ctx context.Context, orderID id.ID, paid types.Money) error {
	query := r.builder.Update(orderTable).
		Set("paid_to_date", paid).
		Where(squirrel.Eq{"id": orderID})

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update paid to date: %w", err)
	}
	return nil
}

// OpenByMaterial returns undelivered orders for a material, oldest first.
// Deterministic ordering keeps FIFO matching stable across runs.
func (r *OrderRepo) OpenByMaterial(ctx context.Context, materialID id.ID) ([]*procurement.PurchaseOrder, error) {
	cols := make([]string, len(r.columns))
	for i, c := range r.columns {
		cols[i] = "o." + c
	}

	q := r.builder.Select(cols...).
		From(orderTable + " o").
		Join("doc_quotes q ON q.id = o.quote_id").
		Where(squirrel.Eq{"q.material_id": materialID}).
		Where(squirrel.NotEq{"o.delivery_status": procurement.DeliveryComplete}).
		OrderBy("o.created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var orders []*procurement.PurchaseOrder
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &orders, sql, args...); err != nil {
		return nil, fmt.Errorf("select open orders: %w", err)
	}
	return orders, nil
}

// List returns orders by filter, newest first.
func (r *OrderRepo) List(ctx context.Context, filter procurement.OrderFilter) ([]*procurement.PurchaseOrder, error) {
	cols := make([]string, len(r.columns))
	for i, c := range r.columns {
		cols[i] = "o." + c
	}

	q := r.builder.Select(cols...).From(orderTable + " o")

	if filter.MaterialID != nil || filter.SupplierID != nil {
		q = q.Join("doc_quotes q ON q.id = o.quote_id")
		if filter.MaterialID != nil {
			q = q.Where(squirrel.Eq{"q.material_id": *filter.MaterialID})
		}
		if filter.SupplierID != nil {
			q = q.Where(squirrel.Eq{"q.supplier_id": *filter.SupplierID})
		}
	}
	if filter.DeliveryStatus != nil {
		q = q.Where(squirrel.Eq{"o.delivery_status": *filter.DeliveryStatus})
	}

	q = q.OrderBy("o.created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var orders []*procurement.PurchaseOrder
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &orders, sql, args...); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return orders, nil
}

// Ensure interface compliance.
var _ procurement.OrderRepository = (*OrderRepo)(nil)
