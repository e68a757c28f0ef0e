package workforce

import (
	"context"

	"github.com/pvzops/workforce-engine/engine"
	"go.uber.org/zap"
)

// =============================================================================
// SCHEDULE GENERATOR
// =============================================================================

type GenerateRequest struct {
	PVZID     engine.PVZID
	TeamA     []engine.EmployeeID
	TeamB     []engine.EmployeeID
	StartDate engine.Date
	EndDate   engine.Date
}

type GenerateResult struct {
	Generated      int // rows actually inserted
	TotalAttempted int // (employee, day) pairs considered
}

func (r GenerateRequest) validate() error {
	if r.PVZID == "" {
		return engine.NewValidationError("pvz_id", "is required")
	}
	if r.StartDate.IsZero() {
		return engine.NewValidationError("start_date", "is required")
	}
	if r.EndDate.IsZero() {
		return engine.NewValidationError("end_date", "is required")
	}
	return nil
}

// GenerateSchedule writes the A/B rotation for req as pending scheduled
// shifts. Existing (employee, date) shifts are skipped, not overwritten. The
// batch is one transaction: a storage failure leaves no shift behind.
// A window whose start is after its end generates nothing.
func (s *Service) GenerateSchedule(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if err := req.validate(); err != nil {
		return GenerateResult{}, err
	}

	window := engine.Period{Start: req.StartDate, End: req.EndDate}
	if window.IsEmpty() {
		return GenerateResult{}, nil
	}

	plan := PlanRotation(req.TeamA, req.TeamB, window)
	result := GenerateResult{TotalAttempted: len(plan)}
	if len(plan) == 0 {
		return result, nil
	}

	planned := s.plannedHours()
	err := s.Store.WithTx(ctx, func(tx engine.Store) error {
		if err := checkReferences(ctx, tx, req.PVZID, plan); err != nil {
			return err
		}

		for _, a := range plan {
			inserted, err := tx.InsertShiftIfAbsent(ctx, engine.Shift{
				ID:           engine.ShiftID(s.newID()),
				EmployeeID:   a.EmployeeID,
				PVZID:        req.PVZID,
				Date:         a.Date,
				Type:         engine.ShiftScheduled,
				Status:       engine.ShiftPending,
				PlannedHours: planned,
			})
			if err != nil {
				return err
			}
			if inserted {
				result.Generated++
			}
		}
		return nil
	})
	if err != nil {
		return GenerateResult{}, err
	}

	s.log().Info("schedule generated",
		zap.String("pvz_id", string(req.PVZID)),
		zap.Stringer("window", window),
		zap.Int("generated", result.Generated),
		zap.Int("attempted", result.TotalAttempted),
	)
	return result, nil
}

// checkReferences verifies the pvz and every planned employee exist.
func checkReferences(ctx context.Context, tx engine.Store, pvzID engine.PVZID, plan []Assignment) error {
	if _, err := tx.GetPVZ(ctx, pvzID); err != nil {
		return err
	}
	checked := make(map[engine.EmployeeID]bool)
	for _, a := range plan {
		if checked[a.EmployeeID] {
			continue
		}
		if _, err := tx.GetEmployee(ctx, a.EmployeeID); err != nil {
			return err
		}
		checked[a.EmployeeID] = true
	}
	return nil
}
