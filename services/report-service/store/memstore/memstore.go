// Package memstore provides in-memory repositories with the same semantics as
// the MongoDB store. It backs the lifecycle and handler tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"lapordesa/services/report-service/models"
	"lapordesa/services/report-service/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds every collection behind one lock.
type Store struct {
	mu            sync.Mutex
	reports       map[primitive.ObjectID]models.Report
	tasks         map[primitive.ObjectID]models.Task
	staff         map[primitive.ObjectID]models.Staff
	notifications map[primitive.ObjectID]models.Notification

	// FailOn makes the named operation return the error once, e.g.
	// "staff.AdjustLoad". Used to exercise compensation paths.
	FailOn map[string]error
}

func New() *Store {
	return &Store{
		reports:       map[primitive.ObjectID]models.Report{},
		tasks:         map[primitive.ObjectID]models.Task{},
		staff:         map[primitive.ObjectID]models.Staff{},
		notifications: map[primitive.ObjectID]models.Notification{},
		FailOn:        map[string]error{},
	}
}

func (s *Store) fail(op string) error {
	if err, ok := s.FailOn[op]; ok {
		delete(s.FailOn, op)
		return err
	}
	return nil
}

func (s *Store) Reports() *Reports             { return &Reports{s} }
func (s *Store) Tasks() *Tasks                 { return &Tasks{s} }
func (s *Store) Staff() *Staff                 { return &Staff{s} }
func (s *Store) Notifications() *Notifications { return &Notifications{s} }

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func paginate[T any](items []T, page, limit, defaultLimit int) []T {
	page, limit = store.NormalizePage(page, limit, defaultLimit)
	skip := store.Skip(page, limit)
	if skip >= int64(len(items)) {
		return []T{}
	}
	start := int(skip)
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]T{}, items[start:end]...)
}

func idLess(a, b primitive.ObjectID) bool {
	return a.Hex() < b.Hex()
}

// Reports

type Reports struct{ s *Store }

func (r *Reports) Insert(ctx context.Context, rep *models.Report) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("reports.Insert"); err != nil {
		return err
	}
	if rep.ID.IsZero() {
		rep.ID = primitive.NewObjectID()
	}
	r.s.reports[rep.ID] = *rep
	return nil
}

func (r *Reports) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rep, ok := r.s.reports[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rep, nil
}

func (r *Reports) FindByNumber(ctx context.Context, number string) (*models.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *models.Report
	for _, rep := range r.s.reports {
		if rep.ReportNumber != number {
			continue
		}
		if found == nil || rep.CreatedAt.Before(found.CreatedAt) ||
			(rep.CreatedAt.Equal(found.CreatedAt) && idLess(rep.ID, found.ID)) {
			c := rep
			found = &c
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

func (r *Reports) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Report
	for _, id := range ids {
		if rep, ok := r.s.reports[id]; ok {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (r *Reports) NumberExists(ctx context.Context, number string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rep := range r.s.reports {
		if rep.ReportNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *Reports) List(ctx context.Context, q models.ReportQuery) ([]models.Report, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	search := strings.TrimSpace(q.Search)
	var matched []models.Report
	for _, rep := range r.s.reports {
		if q.Status != "" && rep.Status != q.Status {
			continue
		}
		if q.Category != "" && rep.Category != q.Category {
			continue
		}
		if search != "" {
			hit := containsFold(rep.Title, search) || containsFold(rep.Description, search) ||
				(q.MatchNumber && containsFold(rep.ReportNumber, search))
			if !hit {
				continue
			}
		}
		matched = append(matched, rep)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less, equal bool
		if q.SortBy == models.SortByTitle {
			less, equal = a.Title < b.Title, a.Title == b.Title
		} else {
			less, equal = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		}
		if equal {
			less = idLess(a.ID, b.ID)
		}
		if q.Desc {
			return !less && !(equal && a.ID == b.ID)
		}
		return less
	})

	return paginate(matched, q.Page, q.Limit, store.DefaultReportLimit), int64(len(matched)), nil
}

func (r *Reports) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, comment *string) (*models.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("reports.UpdateStatus"); err != nil {
		return nil, err
	}
	rep, ok := r.s.reports[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	rep.Status = status
	if comment != nil {
		rep.Comment = *comment
	}
	rep.UpdatedAt = time.Now()
	r.s.reports[id] = rep
	return &rep, nil
}

func (r *Reports) IDsByStatus(ctx context.Context, status string) ([]primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []primitive.ObjectID
	for id, rep := range r.s.reports {
		if rep.Status == status {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *Reports) Stats(ctx context.Context) (models.ReportStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stats := models.ReportStats{ByCategory: map[string]int64{}}
	for _, rep := range r.s.reports {
		stats.Total++
		switch rep.Status {
		case models.ReportPending:
			stats.ByStatus.Pending++
		case models.ReportInProgress:
			stats.ByStatus.InProgress++
		case models.ReportCompleted:
			stats.ByStatus.Completed++
		}
		stats.ByCategory[rep.AICategory]++
	}
	return stats, nil
}

// Tasks

type Tasks struct{ s *Store }

func (t *Tasks) Insert(ctx context.Context, task *models.Task) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if err := t.s.fail("tasks.Insert"); err != nil {
		return err
	}
	for _, existing := range t.s.tasks {
		if existing.TaskNumber == task.TaskNumber {
			return store.ErrDuplicate
		}
	}
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	t.s.tasks[task.ID] = cloneTask(*task)
	return nil
}

func cloneTask(task models.Task) models.Task {
	task.History = append([]models.HistoryEntry(nil), task.History...)
	task.Attachments = append([]string(nil), task.Attachments...)
	return task
}

func (t *Tasks) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	task, ok := t.s.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := cloneTask(task)
	return &c, nil
}

func (t *Tasks) NumberExists(ctx context.Context, number string) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, task := range t.s.tasks {
		if task.TaskNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (t *Tasks) Replace(ctx context.Context, task *models.Task) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if err := t.s.fail("tasks.Replace"); err != nil {
		return err
	}
	if _, ok := t.s.tasks[task.ID]; !ok {
		return store.ErrNotFound
	}
	t.s.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (t *Tasks) Delete(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if err := t.s.fail("tasks.Delete"); err != nil {
		return nil, err
	}
	task, ok := t.s.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(t.s.tasks, id)
	return &task, nil
}

func (t *Tasks) CountByReport(ctx context.Context, reportID primitive.ObjectID) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var n int64
	for _, task := range t.s.tasks {
		if task.ReportID == reportID {
			n++
		}
	}
	return n, nil
}

func (t *Tasks) List(ctx context.Context, q models.TaskQuery) ([]models.Task, int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	search := strings.TrimSpace(q.Search)
	var matched []models.Task
	for _, task := range t.s.tasks {
		if q.Priority != "" && task.Priority != q.Priority {
			continue
		}
		if q.Status != "" && task.Status != q.Status {
			continue
		}
		if q.AssigneeID != nil && task.AssigneeID != *q.AssigneeID {
			continue
		}
		if q.ReportID != nil && task.ReportID != *q.ReportID {
			continue
		}
		if search != "" && !(containsFold(task.Title, search) || containsFold(task.Description, search) || containsFold(task.TaskNumber, search)) {
			continue
		}
		matched = append(matched, cloneTask(task))
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return idLess(b.ID, a.ID)
	})
	return paginate(matched, q.Page, q.Limit, store.DefaultTaskLimit), int64(len(matched)), nil
}

func (t *Tasks) Stats(ctx context.Context) (models.TaskStats, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var stats models.TaskStats
	for _, task := range t.s.tasks {
		stats.Total++
		switch task.Status {
		case models.TaskNotStarted:
			stats.Status.NotStarted++
		case models.TaskInProgress:
			stats.Status.InProgress++
		case models.TaskDone:
			stats.Status.Done++
		}
		switch task.Priority {
		case models.PriorityHigh:
			stats.Priority.High++
		case models.PriorityMedium:
			stats.Priority.Medium++
		case models.PriorityLow:
			stats.Priority.Low++
		}
	}
	return stats, nil
}

func (t *Tasks) LoadByAssignee(ctx context.Context) (map[primitive.ObjectID]int, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := map[primitive.ObjectID]int{}
	for _, task := range t.s.tasks {
		out[task.AssigneeID]++
	}
	return out, nil
}

func (t *Tasks) ReportIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, task := range t.s.tasks {
		if !seen[task.ReportID] {
			seen[task.ReportID] = true
			ids = append(ids, task.ReportID)
		}
	}
	return ids, nil
}

// Staff

type Staff struct{ s *Store }

func (st *Staff) Insert(ctx context.Context, m *models.Staff) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	st.s.staff[m.ID] = *m
	return nil
}

func (st *Staff) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Staff, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	m, ok := st.s.staff[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (st *Staff) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Staff, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	var out []models.Staff
	for _, id := range ids {
		if m, ok := st.s.staff[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (st *Staff) List(ctx context.Context, q models.StaffQuery) ([]models.Staff, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	search := strings.TrimSpace(q.Search)
	out := []models.Staff{}
	for _, m := range st.s.staff {
		if q.IsActive != nil && m.IsActive != *q.IsActive {
			continue
		}
		if search != "" && !(containsFold(m.Name, search) || containsFold(m.Email, search) || containsFold(m.Department, search)) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return idLess(out[j].ID, out[i].ID)
	})
	return out, nil
}

func (st *Staff) Update(ctx context.Context, id primitive.ObjectID, u models.StaffUpdate) (*models.Staff, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	m, ok := st.s.staff[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.Email != nil {
		m.Email = *u.Email
	}
	if u.Phone != nil {
		m.Phone = *u.Phone
	}
	if u.Department != nil {
		m.Department = *u.Department
	}
	if u.AvatarURL != nil {
		m.AvatarURL = *u.AvatarURL
	}
	if u.IsActive != nil {
		m.IsActive = *u.IsActive
	}
	if u.Skills != nil {
		m.Skills = u.Skills
	}
	if u.MaxCapacity != nil {
		m.MaxCapacity = *u.MaxCapacity
	}
	m.UpdatedAt = time.Now()
	st.s.staff[id] = m
	return &m, nil
}

func (st *Staff) ToggleActive(ctx context.Context, id primitive.ObjectID) (*models.Staff, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	m, ok := st.s.staff[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	m.IsActive = !m.IsActive
	m.UpdatedAt = time.Now()
	st.s.staff[id] = m
	return &m, nil
}

func (st *Staff) AdjustLoad(ctx context.Context, id primitive.ObjectID, delta int) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if err := st.s.fail("staff.AdjustLoad"); err != nil {
		return err
	}
	m, ok := st.s.staff[id]
	if !ok {
		return store.ErrNotFound
	}
	m.CurrentLoad += delta
	if m.CurrentLoad < 0 {
		m.CurrentLoad = 0
	}
	st.s.staff[id] = m
	return nil
}

func (st *Staff) SetLoad(ctx context.Context, id primitive.ObjectID, load int) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	m, ok := st.s.staff[id]
	if !ok {
		return store.ErrNotFound
	}
	if load < 0 {
		load = 0
	}
	m.CurrentLoad = load
	st.s.staff[id] = m
	return nil
}

// Notifications

type Notifications struct{ s *Store }

func matchesRecipient(n models.Notification, recipientType string, recipientID *primitive.ObjectID) bool {
	if recipientType != "" && n.RecipientType != recipientType {
		return false
	}
	if recipientID != nil && (n.RecipientID == nil || *n.RecipientID != *recipientID) {
		return false
	}
	return true
}

func (ns *Notifications) Insert(ctx context.Context, n *models.Notification) error {
	ns.s.mu.Lock()
	defer ns.s.mu.Unlock()
	if err := ns.s.fail("notifications.Insert"); err != nil {
		return err
	}
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	ns.s.notifications[n.ID] = *n
	return nil
}

func (ns *Notifications) List(ctx context.Context, q models.NotificationQuery) ([]models.Notification, error) {
	ns.s.mu.Lock()
	defer ns.s.mu.Unlock()
	out := []models.Notification{}
	for _, n := range ns.s.notifications {
		if !matchesRecipient(n, q.RecipientType, q.RecipientID) {
			continue
		}
		if q.IsRead != nil && n.IsRead != *q.IsRead {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return idLess(out[j].ID, out[i].ID)
	})
	limit := q.Limit
	if limit < 1 {
		limit = models.DefaultNotificationLimit
	}
	if limit > store.MaxLimit {
		limit = store.MaxLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (ns *Notifications) MarkRead(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	ns.s.mu.Lock()
	defer ns.s.mu.Unlock()
	n, ok := ns.s.notifications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	n.IsRead = true
	n.UpdatedAt = time.Now()
	ns.s.notifications[id] = n
	return &n, nil
}

func (ns *Notifications) MarkAllRead(ctx context.Context, recipientType string, recipientID *primitive.ObjectID) (int64, error) {
	ns.s.mu.Lock()
	defer ns.s.mu.Unlock()
	var changed int64
	for id, n := range ns.s.notifications {
		if n.IsRead || !matchesRecipient(n, recipientType, recipientID) {
			continue
		}
		n.IsRead = true
		ns.s.notifications[id] = n
		changed++
	}
	return changed, nil
}

func (ns *Notifications) CountUnread(ctx context.Context, recipientType string, recipientID *primitive.ObjectID) (int64, error) {
	ns.s.mu.Lock()
	defer ns.s.mu.Unlock()
	var n int64
	for _, note := range ns.s.notifications {
		if !note.IsRead && matchesRecipient(note, recipientType, recipientID) {
			n++
		}
	}
	return n, nil
}

// Transactor runs fn directly. With atomic set the lifecycle service skips its
// compensation steps, as it would against a replica set.
type Transactor struct {
	atomic bool
}

func NewTransactor(atomic bool) *Transactor {
	return &Transactor{atomic: atomic}
}

func (t *Transactor) Atomic() bool {
	return t.atomic
}

func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
