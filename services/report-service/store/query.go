package store

import (
	"math"
	"regexp"
	"strings"

	"lapordesa/services/report-service/models"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	DefaultPage        = 1
	DefaultReportLimit = 10
	DefaultTaskLimit   = 20
	MaxLimit           = 100
)

// NormalizePage clamps page and limit to sane values. Page is capped so that
// page*limit never overflows; a capped page is always past the last item.
func NormalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}

// Skip is the number of documents before the given page.
func Skip(page, limit int) int64 {
	return int64(page-1) * int64(limit)
}

// containsPattern is a case-insensitive substring match on literal text.
func containsPattern(search string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
}

func reportFilter(q models.ReportQuery) bson.M {
	filter := bson.M{}
	if q.Status != "" {
		filter["status_laporan"] = q.Status
	}
	if q.Category != "" {
		filter["kategori"] = q.Category
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		or := bson.A{
			bson.M{"judul": containsPattern(s)},
			bson.M{"deskripsi": containsPattern(s)},
		}
		if q.MatchNumber {
			or = append(or, bson.M{"nomor_laporan": containsPattern(s)})
		}
		filter["$or"] = or
	}
	return filter
}

// reportSort orders by the requested key and breaks ties on _id in the same
// direction so pages are stable.
func reportSort(q models.ReportQuery) bson.D {
	key := models.SortByCreatedAt
	if q.SortBy == models.SortByTitle {
		key = models.SortByTitle
	}
	dir := 1
	if q.Desc {
		dir = -1
	}
	return bson.D{{Key: key, Value: dir}, {Key: "_id", Value: dir}}
}

func taskFilter(q models.TaskQuery) bson.M {
	filter := bson.M{}
	if q.Priority != "" {
		filter["priority"] = q.Priority
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.AssigneeID != nil {
		filter["assignedTo"] = *q.AssigneeID
	}
	if q.ReportID != nil {
		filter["laporan"] = *q.ReportID
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		filter["$or"] = bson.A{
			bson.M{"title": containsPattern(s)},
			bson.M{"description": containsPattern(s)},
			bson.M{"taskNumber": containsPattern(s)},
		}
	}
	return filter
}

var taskSort = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func staffFilter(q models.StaffQuery) bson.M {
	filter := bson.M{}
	if q.IsActive != nil {
		filter["isActive"] = *q.IsActive
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		filter["$or"] = bson.A{
			bson.M{"name": containsPattern(s)},
			bson.M{"email": containsPattern(s)},
			bson.M{"department": containsPattern(s)},
		}
	}
	return filter
}

func notificationFilter(q models.NotificationQuery) bson.M {
	filter := recipientFilter(q.RecipientType, q.RecipientID)
	if q.IsRead != nil {
		filter["isRead"] = *q.IsRead
	}
	return filter
}
