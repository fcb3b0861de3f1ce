package ledger_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabrika/internal/core/id"
	"fabrika/internal/core/types"
	"fabrika/internal/domain/ledger"
)

// The dedup index on reg_stock_movements is partial (WHERE ref_kind IS
// NOT NULL). Postgres only infers a partial unique index as conflict
// arbiter when the ON CONFLICT target repeats its predicate, so the
// generated statement must carry it verbatim.
func TestInsertIfAbsentSQL_ConflictTargetMatchesPartialIndex(t *testing.T) {
	repo := NewLedgerRepo(nil)

	m := ledger.NewMovement(id.New(), id.New(), types.NewQuantityFromInt(5), ledger.DirectionIn, time.Now()).
		WithRef(ledger.Ref{Kind: ledger.RefKindInvoiceLine, ID: id.New(), Direction: ledger.RefIn})

	sql, args, err := repo.insertIfAbsentSQL(&m)
	require.NoError(t, err)

	assert.Contains(t, sql,
		"ON CONFLICT (ref_kind, ref_id, ref_direction, material_id, warehouse_id) WHERE ref_kind IS NOT NULL DO NOTHING")
	assert.Len(t, args, len(movementColumns))
}
