package store

import (
	"math"
	"testing"

	"lapordesa/services/report-service/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNormalizePage(t *testing.T) {
	page, limit := NormalizePage(0, 0, DefaultReportLimit)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)

	page, limit = NormalizePage(3, 500, DefaultTaskLimit)
	assert.Equal(t, 3, page)
	assert.Equal(t, MaxLimit, limit)

	page, limit = NormalizePage(1<<60+1, 10, DefaultReportLimit)
	assert.Equal(t, math.MaxInt/10, page)
	assert.Equal(t, 10, limit)
	assert.Positive(t, Skip(page, limit))
}

func TestReportFilter(t *testing.T) {
	f := reportFilter(models.ReportQuery{Status: "pending", Category: "Infrastruktur", Search: "jalan.*"})
	assert.Equal(t, "pending", f["status_laporan"])
	assert.Equal(t, "Infrastruktur", f["kategori"])

	or, ok := f["$or"].(bson.A)
	assert.True(t, ok)
	assert.Len(t, or, 2)
	judul := or[0].(bson.M)["judul"].(bson.M)
	assert.Equal(t, `jalan\.\*`, judul["$regex"], "search text is matched literally")
	assert.Equal(t, "i", judul["$options"])

	f = reportFilter(models.ReportQuery{Search: "LPR-12", MatchNumber: true})
	assert.Len(t, f["$or"], 3)

	assert.Empty(t, reportFilter(models.ReportQuery{Search: "   "}))
}

func TestReportSortHasIDTieBreak(t *testing.T) {
	s := reportSort(models.ReportQuery{SortBy: "judul", Desc: false})
	assert.Equal(t, bson.D{{Key: "judul", Value: 1}, {Key: "_id", Value: 1}}, s)

	s = reportSort(models.ReportQuery{SortBy: "lokasi", Desc: true})
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, s)
}

func TestTaskFilter(t *testing.T) {
	staffID := primitive.NewObjectID()
	f := taskFilter(models.TaskQuery{Priority: "tinggi", Status: "belum", AssigneeID: &staffID, Search: "TSK"})
	assert.Equal(t, "tinggi", f["priority"])
	assert.Equal(t, "belum", f["status"])
	assert.Equal(t, staffID, f["assignedTo"])
	assert.Len(t, f["$or"], 3)
}

func TestStaffUpdateSetSkipsLoad(t *testing.T) {
	name := "Budi"
	set := staffUpdateSet(models.StaffUpdate{Name: &name})
	assert.Equal(t, "Budi", set["name"])
	assert.NotContains(t, set, "currentLoad")
	assert.Contains(t, set, "updatedAt")
}

func TestNotificationFilter(t *testing.T) {
	id := primitive.NewObjectID()
	unread := false
	f := notificationFilter(models.NotificationQuery{RecipientType: "petugas", RecipientID: &id, IsRead: &unread})
	assert.Equal(t, bson.M{"recipientType": "petugas", "recipient": id, "isRead": false}, f)
}
