package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pvzops/workforce-engine/engine"
)

// =============================================================================
// DIRECTORY STORE (engine.DirectoryStore interface)
// =============================================================================
//
// Employees and PVZs are owned elsewhere; these tables mirror what the engine
// needs for joins, rates and existence checks.

const employeeColumns = `id, name, role, base_rate, status, home_pvz_id`

// SaveEmployee inserts or replaces an employee.
func (r *repo) SaveEmployee(ctx context.Context, e engine.Employee) error {
	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			base_rate = excluded.base_rate,
			status = excluded.status,
			home_pvz_id = excluded.home_pvz_id
	`
	status := e.Status
	if status == "" {
		status = "active"
	}
	_, err := r.q.ExecContext(ctx, query,
		string(e.ID), e.Name, e.Role, e.BaseRate.String(), status, nullString(string(e.HomePVZID)))
	if err != nil {
		return engine.NewStorageError("save employee", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID.
func (r *repo) GetEmployee(ctx context.Context, id engine.EmployeeID) (*engine.Employee, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, string(id))
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &engine.NotFoundError{Kind: "employee", ID: string(id)}
	}
	if err != nil {
		return nil, engine.NewStorageError("get employee", err)
	}
	return &e, nil
}

// ListEmployees returns all employees ordered by name.
func (r *repo) ListEmployees(ctx context.Context) ([]engine.Employee, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, engine.NewStorageError("list employees", err)
	}
	defer rows.Close()

	var employees []engine.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, engine.NewStorageError("scan employee", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, engine.NewStorageError("list employees", err)
	}
	return employees, nil
}

// SavePVZ inserts or renames a pickup point.
func (r *repo) SavePVZ(ctx context.Context, p engine.PVZ) error {
	query := `INSERT INTO pvzs (id, name) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET name = excluded.name`
	if _, err := r.q.ExecContext(ctx, query, string(p.ID), p.Name); err != nil {
		return engine.NewStorageError("save pvz", err)
	}
	return nil
}

// GetPVZ retrieves a pickup point by ID.
func (r *repo) GetPVZ(ctx context.Context, id engine.PVZID) (*engine.PVZ, error) {
	var p engine.PVZ
	var pid string
	err := r.q.QueryRowContext(ctx, `SELECT id, name FROM pvzs WHERE id = ?`, string(id)).Scan(&pid, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &engine.NotFoundError{Kind: "pvz", ID: string(id)}
	}
	if err != nil {
		return nil, engine.NewStorageError("get pvz", err)
	}
	p.ID = engine.PVZID(pid)
	return &p, nil
}

func scanEmployee(sc scanner) (engine.Employee, error) {
	var (
		e        engine.Employee
		id, rate string
		homePVZ  sql.NullString
	)
	if err := sc.Scan(&id, &e.Name, &e.Role, &rate, &e.Status, &homePVZ); err != nil {
		return e, err
	}
	e.ID = engine.EmployeeID(id)
	e.BaseRate = engine.MustParseDecimal(rate)
	e.HomePVZID = engine.PVZID(homePVZ.String)
	return e, nil
}
