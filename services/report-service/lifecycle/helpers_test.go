package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lapordesa/pkg/classifier"
	"lapordesa/services/report-service/models"
	"lapordesa/services/report-service/store/memstore"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Analyze(ctx context.Context, text string) (classifier.Analysis, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(classifier.Analysis), args.Error(1)
}

func (m *mockClassifier) PredictPriority(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

// blockingClassifier waits for the caller's deadline.
type blockingClassifier struct{}

func (blockingClassifier) Analyze(ctx context.Context, text string) (classifier.Analysis, error) {
	<-ctx.Done()
	return classifier.Analysis{}, ctx.Err()
}

func (blockingClassifier) PredictPriority(ctx context.Context, text string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

type failingBlobs struct{}

func (failingBlobs) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	return "", errors.New("minio down")
}

type fixture struct {
	svc    *Service
	mem    *memstore.Store
	events *recordingPublisher
}

var fixedNow = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, c classifier.Classifier) *fixture {
	t.Helper()
	mem := memstore.New()
	events := &recordingPublisher{}
	svc := New(Deps{
		Reports:       mem.Reports(),
		Tasks:         mem.Tasks(),
		Staff:         mem.Staff(),
		Notifications: mem.Notifications(),
		Tx:            memstore.NewTransactor(false),
		Classifier:    c,
		Events:        events,
	})
	svc.now = func() time.Time { return fixedNow }
	return &fixture{svc: svc, mem: mem, events: events}
}

// sequence makes the number generator return the given suffixes, repeating
// the last one.
func sequence(values ...int) func() int {
	i := 0
	return func() int {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v
	}
}

func (f *fixture) submit(t *testing.T, description, category string) *models.Report {
	t.Helper()
	r, err := f.svc.SubmitReport(context.Background(), SubmitReportInput{
		ReporterID:   "warga-1",
		ReporterName: "Warga",
		Description:  description,
		Category:     category,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) staff(t *testing.T, name string) *models.Staff {
	t.Helper()
	s, err := f.svc.CreateStaff(context.Background(), CreateStaffInput{Name: name})
	require.NoError(t, err)
	return s
}

func (f *fixture) report(t *testing.T, id primitive.ObjectID) *models.Report {
	t.Helper()
	r, err := f.mem.Reports().FindByID(context.Background(), id)
	require.NoError(t, err)
	return r
}

func (f *fixture) load(t *testing.T, id primitive.ObjectID) int {
	t.Helper()
	s, err := f.mem.Staff().FindByID(context.Background(), id)
	require.NoError(t, err)
	return s.CurrentLoad
}

func (f *fixture) assign(t *testing.T, r *models.Report, s *models.Staff) *models.TaskView {
	t.Helper()
	view, err := f.svc.CreateTask(context.Background(), CreateTaskInput{
		ReportRef:  r.ID.Hex(),
		AssigneeID: s.ID.Hex(),
		Priority:   models.PriorityMedium,
	}, Actor{Name: "Admin Desa"})
	require.NoError(t, err)
	return view
}

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }
