package workforce

import (
	"context"

	"github.com/pvzops/workforce-engine/engine"
	"go.uber.org/zap"
)

// =============================================================================
// TIMESHEET
// =============================================================================

func monthFilter(month engine.Date, pvzID engine.PVZID) (engine.ShiftFilter, error) {
	if month.IsZero() {
		return engine.ShiftFilter{}, engine.NewValidationError("month", "is required")
	}
	return engine.NewShiftFilter().ForPVZ(pvzID).InWindow(engine.MonthOf(month)), nil
}

// GetTimesheet returns every shift in the month containing month, joined
// with employee and pvz names, in date order. An empty pvzID spans all pvzs.
func (s *Service) GetTimesheet(ctx context.Context, month engine.Date, pvzID engine.PVZID) ([]engine.TimesheetRow, error) {
	filter, err := monthFilter(month, pvzID)
	if err != nil {
		return nil, err
	}
	return s.Store.Timesheet(ctx, filter)
}

// ApproveTimesheet moves every shift of the month that is not yet approved
// to approved and returns how many changed. A repeated call returns 0.
func (s *Service) ApproveTimesheet(ctx context.Context, month engine.Date, pvzID engine.PVZID) (int64, error) {
	filter, err := monthFilter(month, pvzID)
	if err != nil {
		return 0, err
	}

	updated, err := s.Store.SetShiftStatus(ctx, filter.WithoutStatus(engine.ShiftApproved), engine.ShiftApproved)
	if err != nil {
		return 0, err
	}

	s.log().Info("timesheet approved",
		zap.String("month", month.MonthString()),
		zap.String("pvz_id", string(pvzID)),
		zap.Int64("updated", updated),
	)
	return updated, nil
}
