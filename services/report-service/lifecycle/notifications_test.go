package lifecycle

import (
	"context"
	"testing"

	"lapordesa/pkg/classifier"
	"lapordesa/pkg/queue"
	"lapordesa/services/report-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNotificationDefaultsAndValidation(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	ctx := context.Background()

	n, err := f.svc.CreateNotification(ctx, CreateNotificationInput{Message: "Rapat koordinasi besok"})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationTask, n.Type)
	assert.Equal(t, models.RecipientStaff, n.RecipientType)
	assert.False(t, n.IsRead)
	assert.Equal(t, []string{queue.KeyNotificationCreated}, f.events.Keys())

	_, err = f.svc.CreateNotification(ctx, CreateNotificationInput{})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.CreateNotification(ctx, CreateNotificationInput{Message: "x", Type: "email"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.CreateNotification(ctx, CreateNotificationInput{Message: "x", RecipientID: "bad"})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestNotificationReadFlags(t *testing.T) {
	f := newFixture(t, classifier.KeywordClassifier{})
	ctx := context.Background()
	budi := f.staff(t, "Budi")
	ani := f.staff(t, "Ani")
	r := f.submit(t, "Jalan rusak", "Infrastruktur")
	f.assign(t, r, budi)
	f.assign(t, r, budi)
	f.assign(t, r, ani)
	_, err := f.svc.CreateNotification(ctx, CreateNotificationInput{
		Message: "Laporan baru masuk", Type: models.NotificationReport, RecipientType: models.RecipientAdmin,
	})
	require.NoError(t, err)

	list, err := f.svc.ListNotifications(ctx, NotificationFilter{RecipientType: models.RecipientStaff, RecipientID: budi.ID.Hex()})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, r.ReportNumber, list[0].Title)
	assert.Equal(t, r.Title+" ditugaskan kepada Anda", list[0].Message)

	read, err := f.svc.MarkNotificationRead(ctx, list[0].ID.Hex())
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	count, err := f.svc.UnreadCount(ctx, models.RecipientStaff, budi.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	changed, err := f.svc.MarkAllNotificationsRead(ctx, models.RecipientStaff, budi.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	count, err = f.svc.UnreadCount(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "ani and admin notifications stay unread")

	unread, err := f.svc.ListNotifications(ctx, NotificationFilter{IsRead: boolPtr(false), Limit: 1})
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	_, err = f.svc.MarkNotificationRead(ctx, "665f1c2e8b3a4d0012345678")
	assert.ErrorIs(t, err, ErrNotificationNotFound)
	_, err = f.svc.UnreadCount(ctx, "warga", "")
	assert.ErrorIs(t, err, ErrValidation)
}
