package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lapordesa/pkg/queue"
	"lapordesa/services/report-service/models"
	"lapordesa/services/report-service/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxInsertAttempts bounds retries when a concurrent request claims the same
// task number between the existence check and the insert.
const maxInsertAttempts = 3

type CreateTaskInput struct {
	// ReportRef is a report id or a nomor_laporan.
	ReportRef  string
	AssigneeID string
	Priority   string
	DueDate    *time.Time
	Notes      string
	// Notify defaults to true when nil.
	Notify *bool
}

// CreateTask assigns a report to a staff member. The task insert, the report
// status change and the load increment are applied together or not at all.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput, actor Actor) (*models.TaskView, error) {
	if strings.TrimSpace(in.ReportRef) == "" || strings.TrimSpace(in.AssigneeID) == "" {
		return nil, validationError("reportId and assigneeId are required")
	}
	priority := strings.ToLower(strings.TrimSpace(in.Priority))
	if priority != "" && !models.ValidPriority(priority) {
		return nil, validationError("priority must be tinggi, sedang or rendah")
	}

	report, err := s.resolveReport(ctx, in.ReportRef)
	if err != nil {
		return nil, err
	}
	assigneeID, err := parseID(strings.TrimSpace(in.AssigneeID))
	if err != nil {
		return nil, err
	}
	assignee, err := s.staff.FindByID(ctx, assigneeID)
	if err != nil {
		return nil, notFound(err, ErrStaffNotFound, "failed to load staff")
	}

	priority = s.resolvePriority(ctx, priority, report.Description)

	var task *models.Task
	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		number, err := s.nextNumber(ctx, TaskNumberPrefix, s.tasks.NumberExists)
		if err != nil {
			return nil, err
		}

		now := s.now()
		candidate := &models.Task{
			TaskNumber:  number,
			ReportID:    report.ID,
			Title:       report.Title,
			Description: report.Description,
			Priority:    priority,
			Status:      models.TaskNotStarted,
			AssigneeID:  assignee.ID,
			AssignedBy:  actor.ID,
			DueDate:     in.DueDate,
			Notes:       in.Notes,
			Attachments: []string{},
			History: []models.HistoryEntry{{
				Action:      models.HistoryAssign,
				Description: "Ditugaskan ke " + assignee.Name,
				Actor:       actor.name(),
				CreatedAt:   now,
			}},
			CreatedAt: now,
			UpdatedAt: now,
		}

		err = s.atomically(ctx, "create task", func(ctx context.Context, undo *undoLog) error {
			candidate.ID = primitive.NilObjectID
			return s.applyCreate(ctx, undo, candidate, report)
		})
		if errors.Is(err, store.ErrDuplicate) {
			s.logger.Warn("[WARN] Task number taken concurrently, retrying", zap.String("task_number", number))
			continue
		}
		if err != nil {
			return nil, err
		}
		task = candidate
		break
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrNumberExhausted, TaskNumberPrefix)
	}

	s.logger.Info("[OK] Task created",
		zap.String("task_id", task.ID.Hex()),
		zap.String("task_number", task.TaskNumber),
		zap.String("report_id", report.ID.Hex()),
		zap.String("assignee_id", assignee.ID.Hex()))

	report.Status = models.ReportInProgress
	s.publish(ctx, queue.KeyReportUpdated, report.Event())

	if in.Notify == nil || *in.Notify {
		title := report.ReportNumber
		if title == "" {
			title = task.TaskNumber
		}
		s.notifyAssignee(ctx, task, title, report.Title+" ditugaskan kepada Anda")
	}

	return s.taskView(ctx, task)
}

func (s *Service) applyCreate(ctx context.Context, undo *undoLog, task *models.Task, report *models.Report) error {
	if err := s.tasks.Insert(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	undo.push("delete task", func(ctx context.Context) error {
		_, err := s.tasks.Delete(ctx, task.ID)
		return err
	})

	previous := report.Status
	if _, err := s.reports.UpdateStatus(ctx, report.ID, models.ReportInProgress, nil); err != nil {
		return notFound(err, ErrReportNotFound, "failed to update report status")
	}
	undo.push("restore report status", func(ctx context.Context) error {
		_, err := s.reports.UpdateStatus(ctx, report.ID, previous, nil)
		return err
	})

	if err := s.staff.AdjustLoad(ctx, task.AssigneeID, 1); err != nil {
		return notFound(err, ErrStaffNotFound, "failed to increment staff load")
	}
	return nil
}

// resolvePriority prefers the explicit value, then the classifier prediction,
// then sedang.
func (s *Service) resolvePriority(ctx context.Context, explicit, description string) string {
	if explicit != "" {
		return explicit
	}

	ctx, cancel := context.WithTimeout(ctx, s.classifierTimeout)
	defer cancel()

	p, err := s.classifier.PredictPriority(ctx, description)
	if err == nil && models.ValidPriority(p) {
		return p
	}
	fallbackTotal.WithLabelValues(dependencyPriority).Inc()
	s.logger.Warn("[WARN] Priority prediction failed, using sedang",
		zap.String("predicted", p), zap.Error(err))
	return models.PriorityMedium
}

// releaseLoad decrements a former assignee's load. A missing staff record is
// logged and ignored so that deleting or reassigning still succeeds.
func (s *Service) releaseLoad(ctx context.Context, staffID primitive.ObjectID) (bool, error) {
	err := s.staff.AdjustLoad(ctx, staffID, -1)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("[WARN] Former assignee not found, load not decremented",
			zap.String("staff_id", staffID.Hex()))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to decrement staff load: %w", err)
	}
	return true, nil
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
	AssigneeID  *string
	DueDate     *time.Time
	// ClearDueDate removes the due date; ignored when DueDate is set.
	ClearDueDate bool
	Notes        *string
	Notify       bool
}

// UpdateTask applies any subset of changes and records them in one history
// entry. A status change moves the report along; a reassignment moves one
// unit of load from the old assignee to the new one.
func (s *Service) UpdateTask(ctx context.Context, id string, in UpdateTaskInput, actor Actor) (*models.TaskView, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var priority, status string
	if in.Priority != nil {
		priority = strings.ToLower(strings.TrimSpace(*in.Priority))
		if priority != "" && !models.ValidPriority(priority) {
			return nil, validationError("priority must be tinggi, sedang or rendah")
		}
	}
	if in.Status != nil {
		status = strings.TrimSpace(*in.Status)
		if status != "" && !models.ValidTaskStatus(status) {
			return nil, validationError("status must be belum, sedang or selesai")
		}
	}

	current, err := s.tasks.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "failed to load task")
	}

	updated := *current
	updated.History = append([]models.HistoryEntry(nil), current.History...)
	var changes []string

	if in.Title != nil {
		if title := strings.TrimSpace(*in.Title); title != "" && title != current.Title {
			updated.Title = title
			changes = append(changes, "Judul diperbarui")
		}
	}
	if in.Description != nil {
		if desc := strings.TrimSpace(*in.Description); desc != "" && desc != current.Description {
			updated.Description = desc
			changes = append(changes, "Deskripsi diperbarui")
		}
	}
	if priority != "" && priority != current.Priority {
		updated.Priority = priority
		changes = append(changes, "Prioritas menjadi "+priority)
	}
	statusChanged := status != "" && status != current.Status
	if statusChanged {
		updated.Status = status
		changes = append(changes, "Status menjadi "+models.TaskStatusLabel(status))
	}

	var newAssignee *models.Staff
	if in.AssigneeID != nil {
		if hex := strings.TrimSpace(*in.AssigneeID); hex != "" && hex != current.AssigneeID.Hex() {
			aid, err := parseID(hex)
			if err != nil {
				return nil, err
			}
			newAssignee, err = s.staff.FindByID(ctx, aid)
			if err != nil {
				return nil, notFound(err, ErrStaffNotFound, "failed to load staff")
			}
			updated.AssigneeID = newAssignee.ID
			changes = append(changes, "Dialihkan ke "+newAssignee.Name)
		}
	}

	switch {
	case in.DueDate != nil:
		if current.DueDate == nil || !current.DueDate.Equal(*in.DueDate) {
			due := *in.DueDate
			updated.DueDate = &due
			changes = append(changes, "Tenggat diperbarui")
		}
	case in.ClearDueDate && current.DueDate != nil:
		updated.DueDate = nil
		changes = append(changes, "Tenggat dihapus")
	}
	if in.Notes != nil && *in.Notes != current.Notes {
		updated.Notes = *in.Notes
		changes = append(changes, "Catatan diperbarui")
	}

	now := s.now()
	if len(changes) > 0 {
		updated.History = append(updated.History, models.HistoryEntry{
			Action:      models.HistoryUpdate,
			Description: strings.Join(changes, ", "),
			Actor:       actor.name(),
			CreatedAt:   now,
		})
	}
	updated.UpdatedAt = now

	var report *models.Report
	err = s.atomically(ctx, "update task", func(ctx context.Context, undo *undoLog) error {
		if err := s.tasks.Replace(ctx, &updated); err != nil {
			return notFound(err, ErrTaskNotFound, "failed to save task")
		}
		undo.push("restore task", func(ctx context.Context) error {
			return s.tasks.Replace(ctx, current)
		})

		if statusChanged {
			r, err := s.moveReport(ctx, undo, current.ReportID, models.ReportStatusForTask(updated.Status))
			if err != nil {
				return err
			}
			report = r
		}

		if newAssignee != nil {
			released, err := s.releaseLoad(ctx, current.AssigneeID)
			if err != nil {
				return err
			}
			if released {
				undo.push("restore previous assignee load", func(ctx context.Context) error {
					return s.staff.AdjustLoad(ctx, current.AssigneeID, 1)
				})
			}
			if err := s.staff.AdjustLoad(ctx, newAssignee.ID, 1); err != nil {
				return notFound(err, ErrStaffNotFound, "failed to increment staff load")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("[OK] Task updated",
		zap.String("task_id", id), zap.Strings("changes", changes))

	if report != nil {
		s.publish(ctx, queue.KeyReportUpdated, report.Event())
	}
	if in.Notify {
		s.notifyAssignee(ctx, &updated, updated.TaskNumber, updated.Title+" diperbarui")
	}

	return s.taskView(ctx, &updated)
}

// moveReport sets the report status and registers the undo. A report that no
// longer exists is skipped.
func (s *Service) moveReport(ctx context.Context, undo *undoLog, reportID primitive.ObjectID, status string) (*models.Report, error) {
	before, err := s.reports.FindByID(ctx, reportID)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("[WARN] Task references a missing report", zap.String("report_id", reportID.Hex()))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	after, err := s.reports.UpdateStatus(ctx, reportID, status, nil)
	if err != nil {
		return nil, notFound(err, ErrReportNotFound, "failed to update report status")
	}
	previous := before.Status
	undo.push("restore report status", func(ctx context.Context) error {
		_, err := s.reports.UpdateStatus(ctx, reportID, previous, nil)
		return err
	})
	return after, nil
}

func (s *Service) UpdateTaskPriority(ctx context.Context, id, priority string, actor Actor) (*models.TaskView, error) {
	priority = strings.ToLower(strings.TrimSpace(priority))
	if priority == "" {
		return nil, validationError("priority is required")
	}
	if !models.ValidPriority(priority) {
		return nil, validationError("priority must be tinggi, sedang or rendah")
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "failed to load task")
	}

	now := s.now()
	task.Priority = priority
	task.History = append(task.History, models.HistoryEntry{
		Action:      models.HistoryUpdate,
		Description: "Prioritas menjadi " + priority,
		Actor:       actor.name(),
		CreatedAt:   now,
	})
	task.UpdatedAt = now

	if err := s.tasks.Replace(ctx, task); err != nil {
		return nil, notFound(err, ErrTaskNotFound, "failed to save task")
	}
	return s.taskView(ctx, task)
}

// DeleteTask removes the task, releases the assignee's load and resets the
// report to pending when no other task references it.
func (s *Service) DeleteTask(ctx context.Context, id string) (*models.Task, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var deleted *models.Task
	var report *models.Report
	err = s.atomically(ctx, "delete task", func(ctx context.Context, undo *undoLog) error {
		t, err := s.tasks.Delete(ctx, oid)
		if err != nil {
			return notFound(err, ErrTaskNotFound, "failed to delete task")
		}
		deleted = t
		undo.push("restore task", func(ctx context.Context) error {
			return s.tasks.Insert(ctx, t)
		})

		released, err := s.releaseLoad(ctx, t.AssigneeID)
		if err != nil {
			return err
		}
		if released {
			undo.push("restore staff load", func(ctx context.Context) error {
				return s.staff.AdjustLoad(ctx, t.AssigneeID, 1)
			})
		}

		remaining, err := s.tasks.CountByReport(ctx, t.ReportID)
		if err != nil {
			return fmt.Errorf("failed to count report tasks: %w", err)
		}
		if remaining == 0 {
			r, err := s.moveReport(ctx, undo, t.ReportID, models.ReportPending)
			if err != nil {
				return err
			}
			report = r
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("[OK] Task deleted",
		zap.String("task_id", id), zap.Bool("report_reset", report != nil))
	if report != nil {
		s.publish(ctx, queue.KeyReportUpdated, report.Event())
	}
	return deleted, nil
}

type TaskFilter struct {
	Page       int
	Limit      int
	Search     string
	Priority   string
	Status     string
	AssigneeID string
	ReportID   string
}

type TaskPage struct {
	Tasks []models.TaskView
	Total int64
	Page  int
	Limit int
	Stats models.TaskStats
}

func (s *Service) ListTasks(ctx context.Context, f TaskFilter) (*TaskPage, error) {
	assigneeID, err := parseOptionalID(f.AssigneeID)
	if err != nil {
		return nil, err
	}
	reportID, err := parseOptionalID(f.ReportID)
	if err != nil {
		return nil, err
	}

	q := models.TaskQuery{
		Search:     f.Search,
		Priority:   f.Priority,
		Status:     f.Status,
		AssigneeID: assigneeID,
		ReportID:   reportID,
	}
	q.Page, q.Limit = store.NormalizePage(f.Page, f.Limit, store.DefaultTaskLimit)

	tasks, total, err := s.tasks.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	views, err := s.composeTasks(ctx, tasks)
	if err != nil {
		return nil, err
	}
	stats, err := s.tasks.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute task statistics: %w", err)
	}
	return &TaskPage{Tasks: views, Total: total, Page: q.Page, Limit: q.Limit, Stats: stats}, nil
}

func (s *Service) GetTask(ctx context.Context, id string) (*models.TaskView, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "failed to load task")
	}
	return s.taskView(ctx, task)
}

func (s *Service) TaskStatistics(ctx context.Context) (*models.TaskStats, error) {
	stats, err := s.tasks.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute task statistics: %w", err)
	}
	return &stats, nil
}

func (s *Service) taskView(ctx context.Context, task *models.Task) (*models.TaskView, error) {
	views, err := s.composeTasks(ctx, []models.Task{*task})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// composeTasks attaches assignees and report summaries with one lookup per
// collection.
func (s *Service) composeTasks(ctx context.Context, tasks []models.Task) ([]models.TaskView, error) {
	views := make([]models.TaskView, 0, len(tasks))
	if len(tasks) == 0 {
		return views, nil
	}

	staffIDs := make([]primitive.ObjectID, 0, len(tasks))
	reportIDs := make([]primitive.ObjectID, 0, len(tasks))
	for _, t := range tasks {
		staffIDs = append(staffIDs, t.AssigneeID)
		reportIDs = append(reportIDs, t.ReportID)
	}

	staff, err := s.staff.FindByIDs(ctx, staffIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignees: %w", err)
	}
	reports, err := s.reports.FindByIDs(ctx, reportIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}

	staffByID := make(map[primitive.ObjectID]*models.Staff, len(staff))
	for i := range staff {
		staffByID[staff[i].ID] = &staff[i]
	}
	reportByID := make(map[primitive.ObjectID]*models.Report, len(reports))
	for i := range reports {
		reportByID[reports[i].ID] = &reports[i]
	}

	for _, t := range tasks {
		view := models.TaskView{Task: t, Assignee: staffByID[t.AssigneeID]}
		if r, ok := reportByID[t.ReportID]; ok {
			view.Report = r.Summary()
		}
		views = append(views, view)
	}
	return views, nil
}
