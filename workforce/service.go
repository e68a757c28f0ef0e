/*
Package workforce schedules shifts and turns them into timesheets.

PURPOSE:
  Owns every write to the shift collection:
  1. Schedule generation: batch A/B rotation over a date window
  2. Shift lifecycle: manual entry, open, close with actual hours
  3. Timesheets: monthly joined view, bulk approval, XLSX export

SHIFT LIFECYCLE:
  pending ──▶ open ──▶ closed ──▶ approved
     │                   ▲
     └───────────────────┘        (close straight from pending)

  Approval is a bulk operation over a month (ApproveTimesheet). Payroll
  reads closed and approved shifts that carry actual hours.

IDEMPOTENCE:
  The store holds at most one shift per (employee, date). Generation inserts
  with skip-on-conflict, so rerunning the same window inserts nothing.

EXAMPLE:
  svc := workforce.NewService(store, logger)
  res, err := svc.GenerateSchedule(ctx, workforce.GenerateRequest{
      PVZID: "pvz-1", TeamA: a, TeamB: b, StartDate: start, EndDate: end,
  })

SEE ALSO:
  - rotation.go: Rotation plan
  - engine/store.go: ShiftStore
  - payroll: consumes closed shifts
*/
package workforce

import (
	"github.com/google/uuid"
	"github.com/pvzops/workforce-engine/engine"
	"github.com/pvzops/workforce-engine/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultPlannedHours is used when neither the request nor the service sets planned hours.
var DefaultPlannedHours = decimal.NewFromInt(12)

type Service struct {
	Store  engine.TxStore
	Logger *zap.Logger

	// PlannedHours is stamped on generated shifts.
	PlannedHours decimal.Decimal

	NewID func() string
}

func NewService(store engine.TxStore, log *zap.Logger) *Service {
	return &Service{
		Store:        store,
		Logger:       logger.OrNop(log).Named("workforce"),
		PlannedHours: DefaultPlannedHours,
		NewID:        uuid.NewString,
	}
}

func (s *Service) plannedHours() decimal.Decimal {
	if s.PlannedHours.IsPositive() {
		return s.PlannedHours
	}
	return DefaultPlannedHours
}

func (s *Service) log() *zap.Logger { return logger.OrNop(s.Logger) }

func (s *Service) newID() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}
