package workforce

import (
	"context"
	"slices"

	"github.com/pvzops/workforce-engine/engine"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// SHIFT LIFECYCLE
// =============================================================================

// shiftTransitions lists, for each target status, the statuses it may be reached from.
var shiftTransitions = map[engine.ShiftStatus][]engine.ShiftStatus{
	engine.ShiftOpen:   {engine.ShiftPending},
	engine.ShiftClosed: {engine.ShiftPending, engine.ShiftOpen},
}

type CreateShiftRequest struct {
	PVZID        engine.PVZID
	EmployeeID   engine.EmployeeID
	Date         engine.Date
	Type         engine.ShiftType
	PlannedHours *decimal.Decimal
}

// CreateShift records a manually entered pending shift. A second shift for
// the same employee and date is a ConflictError.
func (s *Service) CreateShift(ctx context.Context, req CreateShiftRequest) (*engine.Shift, error) {
	switch {
	case req.PVZID == "":
		return nil, engine.NewValidationError("pvz_id", "is required")
	case req.EmployeeID == "":
		return nil, engine.NewValidationError("employee_id", "is required")
	case req.Date.IsZero():
		return nil, engine.NewValidationError("date", "is required")
	}

	shiftType := req.Type
	if shiftType == "" {
		shiftType = engine.ShiftScheduled
	}
	if !shiftType.IsValid() {
		return nil, engine.NewValidationError("type", "unknown shift type "+string(shiftType))
	}

	planned := s.plannedHours()
	if req.PlannedHours != nil {
		if req.PlannedHours.IsNegative() {
			return nil, engine.NewValidationError("planned_hours", "must not be negative")
		}
		planned = *req.PlannedHours
	}

	shift := engine.Shift{
		ID:           engine.ShiftID(s.newID()),
		EmployeeID:   req.EmployeeID,
		PVZID:        req.PVZID,
		Date:         req.Date,
		Type:         shiftType,
		Status:       engine.ShiftPending,
		PlannedHours: planned,
	}

	err := s.Store.WithTx(ctx, func(tx engine.Store) error {
		if _, err := tx.GetPVZ(ctx, req.PVZID); err != nil {
			return err
		}
		if _, err := tx.GetEmployee(ctx, req.EmployeeID); err != nil {
			return err
		}
		return tx.CreateShift(ctx, shift)
	})
	if err != nil {
		return nil, err
	}

	s.log().Info("shift created",
		zap.String("shift_id", string(shift.ID)),
		zap.String("employee_id", string(shift.EmployeeID)),
		zap.String("date", shift.Date.String()),
	)
	return s.Store.GetShift(ctx, shift.ID)
}

// OpenShift marks a pending shift as started.
func (s *Service) OpenShift(ctx context.Context, id engine.ShiftID) (*engine.Shift, error) {
	return s.transitionShift(ctx, id, engine.ShiftOpen, nil)
}

// CloseShift records the hours actually worked. Only closed (and later
// approved) shifts count toward payroll.
func (s *Service) CloseShift(ctx context.Context, id engine.ShiftID, actualHours decimal.Decimal) (*engine.Shift, error) {
	if actualHours.IsNegative() {
		return nil, engine.NewValidationError("actual_hours", "must not be negative")
	}
	return s.transitionShift(ctx, id, engine.ShiftClosed, &actualHours)
}

func (s *Service) transitionShift(ctx context.Context, id engine.ShiftID, to engine.ShiftStatus, actualHours *decimal.Decimal) (*engine.Shift, error) {
	from := shiftTransitions[to]

	current, err := s.Store.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(from, current.Status) {
		return nil, shiftTransitionError(id, current.Status, to)
	}

	ok, err := s.Store.UpdateShiftStatus(ctx, id, from, to, actualHours)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race: report against whatever status won.
		latest, err := s.Store.GetShift(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, shiftTransitionError(id, latest.Status, to)
	}

	s.log().Info("shift transitioned",
		zap.String("shift_id", string(id)),
		zap.String("from", string(current.Status)),
		zap.String("to", string(to)),
	)
	return s.Store.GetShift(ctx, id)
}

func shiftTransitionError(id engine.ShiftID, from, to engine.ShiftStatus) error {
	return &engine.InvalidTransitionError{Kind: "shift", ID: string(id), From: string(from), To: string(to)}
}
