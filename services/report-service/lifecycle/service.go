// Package lifecycle implements the report and task lifecycle: submission,
// assignment to staff, updates and deletion with their staff load and report
// status side effects, plus the staff directory and notifications.
package lifecycle

import (
	"context"
	"time"

	"lapordesa/pkg/classifier"
	"lapordesa/pkg/queue"
	"lapordesa/pkg/security"

	"go.uber.org/zap"
)

const (
	DefaultClassifierTimeout = 15 * time.Second
	DefaultUploadTimeout     = 10 * time.Second
	DefaultReportTitle       = "Laporan Warga"
	DefaultActorName         = "Admin"
)

type Deps struct {
	Reports       ReportRepository
	Tasks         TaskRepository
	Staff         StaffRepository
	Notifications NotificationRepository
	Tx            Transactor

	Classifier classifier.Classifier
	// Blobs, Events and Sealer are optional.
	Blobs  BlobStore
	Events EventPublisher
	Sealer *security.Sealer

	Logger            *zap.Logger
	ClassifierTimeout time.Duration
	UploadTimeout     time.Duration
}

type Service struct {
	reports       ReportRepository
	tasks         TaskRepository
	staff         StaffRepository
	notifications NotificationRepository
	tx            Transactor

	classifier classifier.Classifier
	blobs      BlobStore
	events     EventPublisher
	sealer     *security.Sealer

	logger            *zap.Logger
	classifierTimeout time.Duration
	uploadTimeout     time.Duration

	now    func() time.Time
	suffix func() int
}

func New(d Deps) *Service {
	s := &Service{
		reports:           d.Reports,
		tasks:             d.Tasks,
		staff:             d.Staff,
		notifications:     d.Notifications,
		tx:                d.Tx,
		classifier:        d.Classifier,
		blobs:             d.Blobs,
		events:            d.Events,
		sealer:            d.Sealer,
		logger:            d.Logger,
		classifierTimeout: d.ClassifierTimeout,
		uploadTimeout:     d.UploadTimeout,
		now:               time.Now,
		suffix:            randomSuffix,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.classifier == nil {
		s.classifier = classifier.KeywordClassifier{}
	}
	if s.classifierTimeout <= 0 {
		s.classifierTimeout = DefaultClassifierTimeout
	}
	if s.uploadTimeout <= 0 {
		s.uploadTimeout = DefaultUploadTimeout
	}
	return s
}

// Actor identifies the admin performing a change, recorded in task history.
type Actor struct {
	ID   string
	Name string
}

func (a Actor) name() string {
	if a.Name == "" {
		return DefaultActorName
	}
	return a.Name
}

type undoLog struct {
	steps []undoStep
}

type undoStep struct {
	name string
	fn   func(ctx context.Context) error
}

func (u *undoLog) push(name string, fn func(ctx context.Context) error) {
	u.steps = append(u.steps, undoStep{name: name, fn: fn})
}

func (u *undoLog) rollback(ctx context.Context, logger *zap.Logger) {
	for i := len(u.steps) - 1; i >= 0; i-- {
		step := u.steps[i]
		if err := step.fn(ctx); err != nil {
			logger.Error("[ERROR] Compensation step failed, run reconcile",
				zap.String("step", step.name), zap.Error(err))
		}
	}
}

// atomically runs a multi-document change. With transactions available the
// store rolls back on error; otherwise the undo steps pushed by fn are run in
// reverse order.
func (s *Service) atomically(ctx context.Context, op string, fn func(ctx context.Context, undo *undoLog) error) error {
	if s.tx != nil && s.tx.Atomic() {
		return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			return fn(ctx, &undoLog{})
		})
	}

	undo := &undoLog{}
	if err := fn(ctx, undo); err != nil {
		undo.rollback(context.WithoutCancel(ctx), s.logger.With(zap.String("operation", op)))
		return err
	}
	return nil
}

// publish is best effort; a missing broker never fails the request.
func (s *Service) publish(ctx context.Context, routingKey string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, routingKey, payload); err != nil {
		fallbackTotal.WithLabelValues(dependencyPublisher).Inc()
		s.logger.Warn("[WARN] Failed to publish event",
			zap.String("routing_key", routingKey), zap.Error(err))
	}
}

var (
	_ EventPublisher = (*queue.Publisher)(nil)
)
