// Package ledger_repo provides the PostgreSQL implementation of the stock
// ledger repository.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"fabrika/internal/core/apperror"
	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/ledger"
	"fabrika/internal/infrastructure/storage/postgres"
)

const movementsTable = "reg_stock_movements"

var movementColumns = []string{
	"line_id", "material_id", "warehouse_id",
	"quantity", "direction", "date",
	"order_id", "supplier_id",
	"ref_kind", "ref_id", "ref_direction",
	"note", "created_at",
}

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func movementValues(m *ledger.Movement) []any {
	return []any{
		m.LineID, m.MaterialID, m.WarehouseID,
		m.Quantity, m.Direction, m.Date,
		m.OrderID, m.SupplierID,
		m.RefKind, m.RefID, m.RefDirection,
		m.Note, m.CreatedAt,
	}
}

// Insert appends movements. Uses COPY when inside a transaction.
func (r *LedgerRepo) Insert(ctx context.Context, movements []ledger.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(movements))
		for i := range movements {
			rows = append(rows, movementValues(&movements[i]))
		}
		if _, err := inserter.CopyFromSlice(ctx, movementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(movementsTable).Columns(movementColumns...)
	for i := range movements {
		q = q.Values(movementValues(&movements[i])...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

// InsertIfAbsent appends a movement unless its reference leg already
// exists. Relies on the partial unique index over
// (ref_kind, ref_id, ref_direction, material_id, warehouse_id).
func (r *LedgerRepo) InsertIfAbsent(ctx context.Context, m ledger.Movement) (bool, error) {
	sql, args, err := r.insertIfAbsentSQL(&m)
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("insert movement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LedgerRepo) insertIfAbsentSQL(m *ledger.Movement) (string, []any, error) {
	// The arbiter index is partial, so the conflict target must repeat
	// its predicate for Postgres to infer it.
	return r.builder.Insert(movementsTable).
		Columns(movementColumns...).
		Values(movementValues(m)...).
		Suffix("ON CONFLICT (ref_kind, ref_id, ref_direction, material_id, warehouse_id) WHERE ref_kind IS NOT NULL DO NOTHING").
		ToSql()
}

// DeleteByRef removes all movements written under a document reference.
func (r *LedgerRepo) DeleteByRef(ctx context.Context, kind ledger.RefKind, refID id.ID) error {
	q := r.builder.Delete(movementsTable).
		Where(squirrel.Eq{"ref_kind": kind, "ref_id": refID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}
	return nil
}

// BindOrder sets the order link only when the movement is still unbound.
func (r *LedgerRepo) BindOrder(ctx context.Context, lineID, orderID id.ID) (bool, error) {
	sql := `
		UPDATE reg_stock_movements
		SET order_id = $2
		WHERE line_id = $1 AND order_id IS NULL
	`

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, lineID, orderID)
	if err != nil {
		return false, fmt.Errorf("bind order: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Balance returns sum(in) - sum(out) - sum(return) for one pair.
func (r *LedgerRepo) Balance(ctx context.Context, materialID, warehouseID id.ID) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(
			SUM(CASE WHEN direction = 'in' THEN quantity ELSE -quantity END),
			0
		)
		FROM reg_stock_movements
		WHERE material_id = $1 AND warehouse_id = $2
	`

	var scaled int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, materialID, warehouseID).Scan(&scaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("calculate balance: %w", err)
	}
	return types.NewQuantityFromInt64Scaled(scaled), nil
}

// AvailableBalance aggregates across warehouses whose kind is not
// consumption; goods entering consumption locations count as used.
func (r *LedgerRepo) AvailableBalance(ctx context.Context, materialID id.ID) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(
			SUM(CASE WHEN m.direction = 'in' THEN m.quantity ELSE -m.quantity END),
			0
		)
		FROM reg_stock_movements m
		JOIN cat_warehouses w ON w.id = m.warehouse_id
		WHERE m.material_id = $1 AND w.kind <> 'consumption'
	`

	var scaled int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, materialID).Scan(&scaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("calculate available balance: %w", err)
	}
	return types.NewQuantityFromInt64Scaled(scaled), nil
}

// PendingInVendor returns in minus out over vendor-virtual warehouses for
// one order.
func (r *LedgerRepo) PendingInVendor(ctx context.Context, orderID id.ID) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(
			SUM(CASE WHEN m.direction = 'in' THEN m.quantity ELSE -m.quantity END),
			0
		)
		FROM reg_stock_movements m
		JOIN cat_warehouses w ON w.id = m.warehouse_id
		WHERE m.order_id = $1 AND w.kind = 'vendor_virtual'
	`

	var scaled int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, orderID).Scan(&scaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("calculate pending in vendor: %w", err)
	}
	return types.NewQuantityFromInt64Scaled(scaled), nil
}

// ListByRef retrieves movements written under a document reference.
func (r *LedgerRepo) ListByRef(ctx context.Context, kind ledger.RefKind, refID id.ID) ([]ledger.Movement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"ref_kind": kind, "ref_id": refID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []ledger.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}

// GetByLineID retrieves a single movement by its line identifier.
func (r *LedgerRepo) GetByLineID(ctx context.Context, lineID id.ID) (*ledger.Movement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"line_id": lineID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m ledger.Movement
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("movement", lineID)
		}
		return nil, fmt.Errorf("select movement: %w", err)
	}
	return &m, nil
}

// History returns movements for a material, newest first.
func (r *LedgerRepo) History(ctx context.Context, materialID id.ID, filter ledger.HistoryFilter) ([]ledger.Movement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"material_id": materialID})

	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Direction != nil {
		q = q.Where(squirrel.Eq{"direction": *filter.Direction})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.ToDate})
	}

	q = q.OrderBy("date DESC", "created_at DESC")

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

	var movements []ledger.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	return movements, nil
}

// Ensure interface compliance.
var _ ledger.Repository = (*LedgerRepo)(nil)
