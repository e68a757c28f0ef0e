package sqlite

import (
	"strings"

	"github.com/pvzops/workforce-engine/engine"
)

// columns maps logical filter fields to qualified column names for one query.
type columns map[string]string

func (c columns) resolve(field string) string {
	if col, ok := c[field]; ok {
		return col
	}
	return field
}

// where lowers filter conditions into a WHERE clause and its arguments.
// No conditions yields an empty clause.
func where(conds []engine.Condition, cols columns) (string, []any) {
	if len(conds) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(conds))
	var args []any
	for _, c := range conds {
		col := cols.resolve(c.Field)
		switch c.Op {
		case engine.OpBetween:
			parts = append(parts, col+" BETWEEN ? AND ?")
			args = append(args, c.Values[0], c.Values[1])
		case engine.OpIn, engine.OpNotIn:
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(c.Values)), ", ")
			parts = append(parts, col+" "+string(c.Op)+" ("+placeholders+")")
			args = append(args, c.Values...)
		case engine.OpNotNull:
			parts = append(parts, col+" IS NOT NULL")
		default:
			parts = append(parts, col+" "+string(c.Op)+" ?")
			args = append(args, c.Values[0])
		}
	}

	return " WHERE " + strings.Join(parts, " AND "), args
}
