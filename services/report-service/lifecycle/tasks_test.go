package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"lapordesa/pkg/classifier"
	"lapordesa/pkg/queue"
	"lapordesa/services/report-service/models"
	"lapordesa/services/report-service/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateTaskEffects(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	budi := f.staff(t, "Budi")

	view := f.assign(t, r, budi)

	assert.Regexp(t, `^TSK-\d{4}$`, view.TaskNumber)
	assert.Equal(t, models.TaskNotStarted, view.Status)
	require.Len(t, view.History, 1)
	assert.Equal(t, models.HistoryAssign, view.History[0].Action)
	assert.Equal(t, "Ditugaskan ke Budi", view.History[0].Description)
	assert.Equal(t, "Admin Desa", view.History[0].Actor)
	assert.Equal(t, r.Title, view.Title)
	assert.Equal(t, r.Description, view.Description)
	require.NotNil(t, view.Assignee)
	assert.Equal(t, "Budi", view.Assignee.Name)
	require.NotNil(t, view.Report)
	assert.Equal(t, r.ReportNumber, view.Report.ReportNumber)

	assert.Equal(t, models.ReportInProgress, f.report(t, r.ID).Status)
	assert.Equal(t, 1, f.load(t, budi.ID))
	assert.Contains(t, f.events.Keys(), queue.KeyNotificationCreated)
}

func TestCreateTaskByReportNumber(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	budi := f.staff(t, "Budi")

	view, err := f.svc.CreateTask(context.Background(), CreateTaskInput{
		ReportRef:  r.ReportNumber,
		AssigneeID: budi.ID.Hex(),
		Notify:     boolPtr(false),
	}, Actor{})
	require.NoError(t, err)
	assert.Equal(t, r.ID, view.ReportID)
	assert.Equal(t, DefaultActorName, view.History[0].Actor)
	assert.NotContains(t, f.events.Keys(), queue.KeyNotificationCreated)
}

func TestCreateTaskMissingReferences(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	ctx := context.Background()
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	budi := f.staff(t, "Budi")

	_, err := f.svc.CreateTask(ctx, CreateTaskInput{ReportRef: r.ID.Hex()}, Actor{})
	assert.EqualError(t, err, "validation failed: reportId and assigneeId are required")

	_, err = f.svc.CreateTask(ctx, CreateTaskInput{ReportRef: "LPR-0000", AssigneeID: budi.ID.Hex()}, Actor{})
	assert.ErrorIs(t, err, ErrReportNotFound)

	_, err = f.svc.CreateTask(ctx, CreateTaskInput{ReportRef: r.ID.Hex(), AssigneeID: "665f1c2e8b3a4d0012345678"}, Actor{})
	assert.ErrorIs(t, err, ErrStaffNotFound)

	assert.Equal(t, models.ReportPending, f.report(t, r.ID).Status)
	assert.Zero(t, f.load(t, budi.ID))
}

func TestCreateTaskCompensatesWhenLoadIncrementFails(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	budi := f.staff(t, "Budi")
	f.mem.FailOn["staff.AdjustLoad"] = errors.New("write conflict")

	_, err := f.svc.CreateTask(context.Background(), CreateTaskInput{
		ReportRef: r.ID.Hex(), AssigneeID: budi.ID.Hex(),
	}, Actor{})
	require.Error(t, err)

	page, err := f.svc.ListTasks(context.Background(), TaskFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Equal(t, models.ReportPending, f.report(t, r.ID).Status)
	assert.Zero(t, f.load(t, budi.ID))
}

func TestTaskNumberRetriesOnCollision(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	budi := f.staff(t, "Budi")

	f.svc.suffix = sequence(1111)
	first := f.assign(t, r, budi)
	f.svc.suffix = sequence(1111, 1111, 2222)
	second := f.assign(t, r, budi)

	assert.Equal(t, "TSK-1111", first.TaskNumber)
	assert.Equal(t, "TSK-2222", second.TaskNumber)
}

func TestTaskNumberGenerationIsBounded(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	budi := f.staff(t, "Budi")
	f.svc.suffix = sequence(1111)
	f.assign(t, r, budi)

	_, err := f.svc.CreateTask(context.Background(), CreateTaskInput{
		ReportRef: r.ID.Hex(), AssigneeID: budi.ID.Hex(),
	}, Actor{})
	assert.ErrorIs(t, err, ErrNumberExhausted)
	assert.Equal(t, 1, f.load(t, budi.ID))
}

func TestCreateTaskPriorityPolicy(t *testing.T) {
	c := &mockClassifier{}
	c.On("Analyze", mock.Anything, mock.Anything).Return(classifier.Analysis{}, classifier.ErrUnavailable)
	f := newFixture(t, c)
	ctx := context.Background()
	budi := f.staff(t, "Budi")

	predicted := f.submit(t, "Banjir setinggi lutut", "Lingkungan")
	failed := f.submit(t, "Pohon tumbang", "Lingkungan")
	invalid := f.submit(t, "Lampu mati", "Infrastruktur")
	c.On("PredictPriority", mock.Anything, predicted.Description).Return(models.PriorityHigh, nil)
	c.On("PredictPriority", mock.Anything, failed.Description).Return("", errors.New("quota exceeded"))
	c.On("PredictPriority", mock.Anything, invalid.Description).Return("urgent", nil)

	explicit, err := f.svc.CreateTask(ctx, CreateTaskInput{ReportRef: predicted.ID.Hex(), AssigneeID: budi.ID.Hex(), Priority: "Rendah"}, Actor{})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, explicit.Priority)

	cases := map[string]string{
		predicted.ID.Hex(): models.PriorityHigh,
		failed.ID.Hex():    models.PriorityMedium,
		invalid.ID.Hex():   models.PriorityMedium,
	}
	for ref, want := range cases {
		view, err := f.svc.CreateTask(ctx, CreateTaskInput{ReportRef: ref, AssigneeID: budi.ID.Hex()}, Actor{})
		require.NoError(t, err)
		assert.Equal(t, want, view.Priority, ref)
	}

	_, err = f.svc.CreateTask(ctx, CreateTaskInput{ReportRef: predicted.ID.Hex(), AssigneeID: budi.ID.Hex(), Priority: "urgent"}, Actor{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteLastAndNonLastTask(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	ctx := context.Background()
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	budi := f.staff(t, "Budi")
	first := f.assign(t, r, budi)
	second := f.assign(t, r, budi)
	require.Equal(t, 2, f.load(t, budi.ID))

	_, err := f.svc.DeleteTask(ctx, first.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.ReportInProgress, f.report(t, r.ID).Status)
	assert.Equal(t, 1, f.load(t, budi.ID))

	deleted, err := f.svc.DeleteTask(ctx, second.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, second.TaskNumber, deleted.TaskNumber)
	assert.Equal(t, models.ReportPending, f.report(t, r.ID).Status)
	assert.Zero(t, f.load(t, budi.ID))

	_, err = f.svc.DeleteTask(ctx, second.ID.Hex())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDeleteTaskFloorsLoadAtZero(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	ctx := context.Background()
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	budi := f.staff(t, "Budi")
	task := f.assign(t, r, budi)
	require.NoError(t, f.mem.Staff().SetLoad(ctx, budi.ID, 0))

	_, err := f.svc.DeleteTask(ctx, task.ID.Hex())
	require.NoError(t, err)
	assert.Zero(t, f.load(t, budi.ID))
}

func TestDeleteTaskCompensatesWhenReportResetFails(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	ctx := context.Background()
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	budi := f.staff(t, "Budi")
	task := f.assign(t, r, budi)
	f.mem.FailOn["reports.UpdateStatus"] = errors.New("primary stepped down")

	_, err := f.svc.DeleteTask(ctx, task.ID.Hex())
	require.Error(t, err)

	restored, err := f.svc.GetTask(ctx, task.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, task.TaskNumber, restored.TaskNumber)
	assert.Equal(t, 1, f.load(t, budi.ID))
	assert.Equal(t, models.ReportInProgress, f.report(t, r.ID).Status)
}

func TestReassignmentConservesLoad(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	ctx := context.Background()
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	budi := f.staff(t, "Budi")
	ani := f.staff(t, "Ani")
	task := f.assign(t, r, budi)

	view, err := f.svc.UpdateTask(ctx, task.ID.Hex(), UpdateTaskInput{AssigneeID: strPtr(ani.ID.Hex())}, Actor{})
	require.NoError(t, err)

	assert.Equal(t, ani.ID, view.AssigneeID)
	assert.Equal(t, "Ani", view.Assignee.Name)
	assert.Zero(t, f.load(t, budi.ID))
	assert.Equal(t, 1, f.load(t, ani.ID))
	require.Len(t, view.History, 2)
	assert.Equal(t, "Dialihkan ke Ani", view.History[1].Description)

	// A stale zero load on the old assignee stays at zero.
	require.NoError(t, f.mem.Staff().SetLoad(ctx, ani.ID, 0))
	_, err = f.svc.UpdateTask(ctx, task.ID.Hex(), UpdateTaskInput{AssigneeID: strPtr(budi.ID.Hex())}, Actor{})
	require.NoError(t, err)
	assert.Zero(t, f.load(t, ani.ID))
	assert.Equal(t, 1, f.load(t, budi.ID))
}

func TestUpdateTaskUnknownAssigneeMutatesNothing(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	ctx := context.Background()
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	budi := f.staff(t, "Budi")
	task := f.assign(t, r, budi)

	_, err := f.svc.UpdateTask(ctx, task.ID.Hex(), UpdateTaskInput{
		Status:     strPtr(models.TaskDone),
		AssigneeID: strPtr("665f1c2e8b3a4d0012345678"),
	}, Actor{})
	assert.ErrorIs(t, err, ErrStaffNotFound)

	assert.Equal(t, 1, f.load(t, budi.ID))
	assert.Equal(t, models.ReportInProgress, f.report(t, r.ID).Status)
	current, err := f.svc.GetTask(ctx, task.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.TaskNotStarted, current.Status)
	assert.Len(t, current.History, 1)
}

func TestUpdateTaskRecordsOneCombinedHistoryEntry(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	ctx := context.Background()
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	budi := f.staff(t, "Budi")
	task := f.assign(t, r, budi)
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	view, err := f.svc.UpdateTask(ctx, task.ID.Hex(), UpdateTaskInput{
		Title:    strPtr("Perbaikan jalan RT 5"),
		Priority: strPtr(models.PriorityHigh),
		Status:   strPtr(models.TaskDone),
		DueDate:  &due,
		Notes:    strPtr("Material sudah dipesan"),
		Notify:   true,
	}, Actor{Name: "Pak Kades"})
	require.NoError(t, err)

	require.Len(t, view.History, 2)
	entry := view.History[1]
	assert.Equal(t, models.HistoryUpdate, entry.Action)
	assert.Equal(t, "Pak Kades", entry.Actor)
	assert.Equal(t, "Judul diperbarui, Prioritas menjadi tinggi, Status menjadi Selesai, Tenggat diperbarui, Catatan diperbarui", entry.Description)
	assert.Equal(t, models.ReportCompleted, f.report(t, r.ID).Status)
	assert.Equal(t, 1, f.load(t, budi.ID))

	unread, err := f.svc.UnreadCount(ctx, models.RecipientStaff, budi.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	view, err = f.svc.UpdateTask(ctx, task.ID.Hex(), UpdateTaskInput{Status: strPtr(models.TaskInProgress)}, Actor{})
	require.NoError(t, err)
	assert.Equal(t, models.ReportInProgress, f.report(t, r.ID).Status)
	assert.Len(t, view.History, 3)

	view, err = f.svc.UpdateTask(ctx, task.ID.Hex(), UpdateTaskInput{Notes: strPtr("Material sudah dipesan")}, Actor{})
	require.NoError(t, err)
	assert.Len(t, view.History, 3, "no-op edits leave history alone")
}

func TestUpdateTaskValidation(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	ctx := context.Background()

	_, err := f.svc.UpdateTask(ctx, "665f1c2e8b3a4d0012345678", UpdateTaskInput{}, Actor{})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = f.svc.UpdateTask(ctx, "665f1c2e8b3a4d0012345678", UpdateTaskInput{Status: strPtr("done")}, Actor{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.UpdateTask(ctx, "xyz", UpdateTaskInput{}, Actor{})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestUpdateTaskPriority(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	ctx := context.Background()
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	task := f.assign(t, r, f.staff(t, "Budi"))

	_, err := f.svc.UpdateTaskPriority(ctx, task.ID.Hex(), "", Actor{})
	assert.EqualError(t, err, "validation failed: priority is required")

	_, err = f.svc.UpdateTaskPriority(ctx, task.ID.Hex(), "urgent", Actor{})
	assert.EqualError(t, err, "validation failed: priority must be tinggi, sedang or rendah")

	view, err := f.svc.UpdateTaskPriority(ctx, task.ID.Hex(), models.PriorityLow, Actor{})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, view.Priority)
	require.Len(t, view.History, 2)
	assert.Equal(t, "Prioritas menjadi rendah", view.History[1].Description)
}

func TestListTasksFiltersAndStats(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	ctx := context.Background()
	budi := f.staff(t, "Budi")
	ani := f.staff(t, "Ani")
	roads := f.submit(t, "Jalan rusak", "Infrastruktur")
	water := f.submit(t, "Air keruh", "Kesehatan")
	f.assign(t, roads, budi)
	f.assign(t, water, ani)
	t3 := f.assign(t, water, budi)
	_, err := f.svc.UpdateTask(ctx, t3.ID.Hex(), UpdateTaskInput{Status: strPtr(models.TaskDone), Priority: strPtr(models.PriorityHigh)}, Actor{})
	require.NoError(t, err)

	page, err := f.svc.ListTasks(ctx, TaskFilter{AssigneeID: budi.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.Limit)
	for _, v := range page.Tasks {
		assert.Equal(t, "Budi", v.Assignee.Name)
		assert.NotNil(t, v.Report)
	}

	page, err = f.svc.ListTasks(ctx, TaskFilter{Search: "air", Status: models.TaskDone})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, t3.ID, page.Tasks[0].ID)

	assert.Equal(t, int64(3), page.Stats.Total)
	assert.Equal(t, int64(2), page.Stats.Status.NotStarted)
	assert.Equal(t, int64(1), page.Stats.Status.Done)
	assert.Equal(t, int64(1), page.Stats.Priority.High)
	assert.Equal(t, int64(2), page.Stats.Priority.Medium)

	_, err = f.svc.ListTasks(ctx, TaskFilter{ReportID: "nope"})
	assert.ErrorIs(t, err, ErrInvalidID)

	detail, err := f.svc.GetReport(ctx, water.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, detail.Tasks, 2)
}

// Citizen reports a broken road with no classifier configured, the admin
// assigns it to Budi and later deletes the task.
func TestExampleScenario(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	ctx := context.Background()

	r, err := f.svc.SubmitReport(ctx, SubmitReportInput{Description: "Jalan rusak di RT 5", Category: "Infrastruktur"})
	require.NoError(t, err)
	assert.Equal(t, "Lainnya", r.AICategory)
	assert.Equal(t, "Netral", r.AISentiment)
	assert.Equal(t, []string{}, r.AIKeywords)

	budi := f.staff(t, "Budi")
	before := f.load(t, budi.ID)
	task := f.assign(t, r, budi)
	assert.Equal(t, "belum", task.Status)
	assert.Equal(t, "in progress", f.report(t, r.ID).Status)
	assert.Equal(t, before+1, f.load(t, budi.ID))

	_, err = f.svc.DeleteTask(ctx, task.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "pending", f.report(t, r.ID).Status)
	assert.Equal(t, before, f.load(t, budi.ID))
}

func TestAtomicModeSkipsCompensation(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	f.svc.tx = memstore.NewTransactor(true)
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	budi := f.staff(t, "Budi")

	task := f.assign(t, r, budi)
	assert.Equal(t, 1, f.load(t, budi.ID))
	_, err := f.svc.DeleteTask(context.Background(), task.ID.Hex())
	require.NoError(t, err)
	assert.Zero(t, f.load(t, budi.ID))
}
