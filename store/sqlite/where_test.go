package sqlite

import (
	"testing"

	"github.com/pvzops/workforce-engine/engine"
	"github.com/stretchr/testify/assert"
)

func TestWhere_Empty(t *testing.T) {
	clause, args := where(nil, nil)
	assert.Empty(t, clause)
	assert.Nil(t, args)
}

func TestWhere_LowersEveryOperator(t *testing.T) {
	conds := []engine.Condition{
		{Field: engine.FieldPVZ, Op: engine.OpEq, Values: []any{"pvz-1"}},
		{Field: engine.FieldDate, Op: engine.OpBetween, Values: []any{"2024-01-01", "2024-01-31"}},
		{Field: engine.FieldStatus, Op: engine.OpIn, Values: []any{"closed", "approved"}},
		{Field: engine.FieldType, Op: engine.OpNotIn, Values: []any{"sick"}},
		{Field: engine.FieldActual, Op: engine.OpNotNull},
	}

	clause, args := where(conds, columns{engine.FieldPVZ: "s.pvz_id"})

	assert.Equal(t,
		" WHERE s.pvz_id = ? AND date BETWEEN ? AND ? AND status IN (?, ?) AND type NOT IN (?) AND actual_hours IS NOT NULL",
		clause)
	assert.Equal(t, []any{"pvz-1", "2024-01-01", "2024-01-31", "closed", "approved", "sick"}, args)
}
