package engine

// =============================================================================
// FILTERS - Composable query predicates
// =============================================================================
//
// Every read path takes a filter value instead of assembling predicate strings.
// A filter lowers to a list of Conditions over logical field names; the store
// maps those to its own columns. Optional scopes (an empty pvz id, a nil window)
// contribute no condition at all.

type Op string

const (
	OpEq      Op = "="
	OpIn      Op = "IN"
	OpNotIn   Op = "NOT IN"
	OpBetween Op = "BETWEEN"
	OpNotNull Op = "IS NOT NULL"
)

// Logical field names shared by filters and stores.
const (
	FieldPVZ      = "pvz_id"
	FieldEmployee = "employee_id"
	FieldDate     = "date"
	FieldStatus   = "status"
	FieldActual   = "actual_hours"
	FieldType     = "type"
	FieldSource   = "source"
	FieldMonth    = "month"
	FieldTxDate   = "transaction_date"
)

type Condition struct {
	Field  string
	Op     Op
	Values []any
}

// ShiftFilter selects shifts.
type ShiftFilter struct {
	PVZID              PVZID
	EmployeeID         EmployeeID
	Window             *Period
	Statuses           []ShiftStatus
	ExcludeStatuses    []ShiftStatus
	RequireActualHours bool
}

func NewShiftFilter() ShiftFilter { return ShiftFilter{} }

func (f ShiftFilter) ForPVZ(id PVZID) ShiftFilter           { f.PVZID = id; return f }
func (f ShiftFilter) ForEmployee(id EmployeeID) ShiftFilter { f.EmployeeID = id; return f }
func (f ShiftFilter) InWindow(p Period) ShiftFilter         { f.Window = &p; return f }

func (f ShiftFilter) WithStatus(statuses ...ShiftStatus) ShiftFilter {
	f.Statuses = append(append([]ShiftStatus(nil), f.Statuses...), statuses...)
	return f
}

func (f ShiftFilter) WithoutStatus(statuses ...ShiftStatus) ShiftFilter {
	f.ExcludeStatuses = append(append([]ShiftStatus(nil), f.ExcludeStatuses...), statuses...)
	return f
}

func (f ShiftFilter) WithActualHours() ShiftFilter { f.RequireActualHours = true; return f }

func (f ShiftFilter) Conditions() []Condition {
	var conds []Condition
	if f.PVZID != "" {
		conds = append(conds, Condition{Field: FieldPVZ, Op: OpEq, Values: []any{string(f.PVZID)}})
	}
	if f.EmployeeID != "" {
		conds = append(conds, Condition{Field: FieldEmployee, Op: OpEq, Values: []any{string(f.EmployeeID)}})
	}
	if f.Window != nil {
		conds = append(conds, Condition{Field: FieldDate, Op: OpBetween,
			Values: []any{f.Window.Start.String(), f.Window.End.String()}})
	}
	if len(f.Statuses) > 0 {
		conds = append(conds, Condition{Field: FieldStatus, Op: OpIn, Values: shiftStatusValues(f.Statuses)})
	}
	if len(f.ExcludeStatuses) > 0 {
		conds = append(conds, Condition{Field: FieldStatus, Op: OpNotIn, Values: shiftStatusValues(f.ExcludeStatuses)})
	}
	if f.RequireActualHours {
		conds = append(conds, Condition{Field: FieldActual, Op: OpNotNull})
	}
	return conds
}

func shiftStatusValues(statuses []ShiftStatus) []any {
	values := make([]any, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return values
}

// TransactionFilter selects ledger rows.
type TransactionFilter struct {
	PVZID  PVZID
	Window *Period
	Type   TransactionType
	Source TransactionSource
}

func NewTransactionFilter() TransactionFilter { return TransactionFilter{} }

func (f TransactionFilter) ForPVZ(id PVZID) TransactionFilter                { f.PVZID = id; return f }
func (f TransactionFilter) InWindow(p Period) TransactionFilter              { f.Window = &p; return f }
func (f TransactionFilter) OfType(t TransactionType) TransactionFilter       { f.Type = t; return f }
func (f TransactionFilter) FromSource(s TransactionSource) TransactionFilter { f.Source = s; return f }

func (f TransactionFilter) Conditions() []Condition {
	var conds []Condition
	if f.PVZID != "" {
		conds = append(conds, Condition{Field: FieldPVZ, Op: OpEq, Values: []any{string(f.PVZID)}})
	}
	if f.Window != nil {
		conds = append(conds, Condition{Field: FieldTxDate, Op: OpBetween,
			Values: []any{f.Window.Start.String(), f.Window.End.String()}})
	}
	if f.Type != "" {
		conds = append(conds, Condition{Field: FieldType, Op: OpEq, Values: []any{string(f.Type)}})
	}
	if f.Source != "" {
		conds = append(conds, Condition{Field: FieldSource, Op: OpEq, Values: []any{string(f.Source)}})
	}
	return conds
}

// ExpenseFilter selects expense requests.
type ExpenseFilter struct {
	PVZID  PVZID
	Status ExpenseStatus
}

func (f ExpenseFilter) Conditions() []Condition {
	var conds []Condition
	if f.PVZID != "" {
		conds = append(conds, Condition{Field: FieldPVZ, Op: OpEq, Values: []any{string(f.PVZID)}})
	}
	if f.Status != "" {
		conds = append(conds, Condition{Field: FieldStatus, Op: OpEq, Values: []any{string(f.Status)}})
	}
	return conds
}

// PayrollFilter selects payroll records. Month is normalized to the first day.
type PayrollFilter struct {
	PVZID      PVZID
	EmployeeID EmployeeID
	Month      *Date
}

func (f PayrollFilter) Conditions() []Condition {
	var conds []Condition
	if f.PVZID != "" {
		conds = append(conds, Condition{Field: FieldPVZ, Op: OpEq, Values: []any{string(f.PVZID)}})
	}
	if f.EmployeeID != "" {
		conds = append(conds, Condition{Field: FieldEmployee, Op: OpEq, Values: []any{string(f.EmployeeID)}})
	}
	if f.Month != nil {
		conds = append(conds, Condition{Field: FieldMonth, Op: OpEq, Values: []any{f.Month.StartOfMonth().String()}})
	}
	return conds
}
