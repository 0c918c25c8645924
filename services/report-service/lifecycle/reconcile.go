package lifecycle

import (
	"context"
	"fmt"

	"lapordesa/services/report-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type LoadFix struct {
	StaffID primitive.ObjectID `json:"staffId"`
	Name    string             `json:"name"`
	Before  int                `json:"before"`
	After   int                `json:"after"`
}

type ReconcileResult struct {
	LoadFixes      []LoadFix            `json:"loadFixes"`
	ReportsStarted []primitive.ObjectID `json:"reportsStarted"`
	ReportsReset   []primitive.ObjectID `json:"reportsReset"`
}

// Reconcile repairs state left behind by an interrupted multi-step change:
// each staff load is recomputed from the tasks assigned to them, pending
// reports that have tasks move to in progress, and in-progress reports
// without tasks return to pending.
func (s *Service) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	result := &ReconcileResult{
		LoadFixes:      []LoadFix{},
		ReportsStarted: []primitive.ObjectID{},
		ReportsReset:   []primitive.ObjectID{},
	}

	loads, err := s.tasks.LoadByAssignee(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count assigned tasks: %w", err)
	}
	staff, err := s.staff.List(ctx, models.StaffQuery{})
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	for _, member := range staff {
		want := loads[member.ID]
		if member.CurrentLoad == want {
			continue
		}
		if err := s.staff.SetLoad(ctx, member.ID, want); err != nil {
			return nil, fmt.Errorf("failed to set load for %s: %w", member.ID.Hex(), err)
		}
		result.LoadFixes = append(result.LoadFixes, LoadFix{
			StaffID: member.ID, Name: member.Name, Before: member.CurrentLoad, After: want,
		})
	}

	withTasks, err := s.tasks.ReportIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list referenced reports: %w", err)
	}
	referenced := make(map[primitive.ObjectID]bool, len(withTasks))
	for _, id := range withTasks {
		referenced[id] = true
	}

	pending, err := s.reports.IDsByStatus(ctx, models.ReportPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reports: %w", err)
	}
	for _, id := range pending {
		if !referenced[id] {
			continue
		}
		if _, err := s.reports.UpdateStatus(ctx, id, models.ReportInProgress, nil); err != nil {
			return nil, fmt.Errorf("failed to start report %s: %w", id.Hex(), err)
		}
		result.ReportsStarted = append(result.ReportsStarted, id)
	}

	inProgress, err := s.reports.IDsByStatus(ctx, models.ReportInProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to list in-progress reports: %w", err)
	}
	for _, id := range inProgress {
		if referenced[id] {
			continue
		}
		if _, err := s.reports.UpdateStatus(ctx, id, models.ReportPending, nil); err != nil {
			return nil, fmt.Errorf("failed to reset report %s: %w", id.Hex(), err)
		}
		result.ReportsReset = append(result.ReportsReset, id)
	}

	s.logger.Info("[OK] Reconcile finished",
		zap.Int("load_fixes", len(result.LoadFixes)),
		zap.Int("reports_started", len(result.ReportsStarted)),
		zap.Int("reports_reset", len(result.ReportsReset)))
	return result, nil
}
