package main

import (
	"net/http"

	"lapordesa/pkg/response"
	"lapordesa/services/report-service/lifecycle"

	"github.com/go-chi/chi/v5"
)

func (s *server) listNotifications(w http.ResponseWriter, r *http.Request) {
	isRead, err := queryBool(r, "isRead")
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	q := r.URL.Query()
	list, err := s.svc.ListNotifications(r.Context(), lifecycle.NotificationFilter{
		RecipientType: q.Get("recipientType"),
		RecipientID:   q.Get("recipientId"),
		IsRead:        isRead,
		Limit:         queryInt(r, "limit"),
	})
	if err != nil {
		s.writeError(w, r, err, "Gagal mengambil notifikasi")
		return
	}
	response.Success(w, http.StatusOK, "Daftar notifikasi", list)
}

func (s *server) createNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title         string                 `json:"title"`
		Message       string                 `json:"message"`
		Type          string                 `json:"notificationType"`
		RecipientType string                 `json:"recipientType"`
		RecipientID   string                 `json:"recipient"`
		TaskID        string                 `json:"task"`
		ReportID      string                 `json:"laporan"`
		Metadata      map[string]interface{} `json:"metadata"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	n, err := s.svc.CreateNotification(r.Context(), lifecycle.CreateNotificationInput{
		Title:         req.Title,
		Message:       req.Message,
		Type:          req.Type,
		RecipientType: req.RecipientType,
		RecipientID:   req.RecipientID,
		TaskID:        req.TaskID,
		ReportID:      req.ReportID,
		Metadata:      req.Metadata,
	})
	if err != nil {
		s.writeError(w, r, err, "Gagal menyimpan notifikasi")
		return
	}
	response.Success(w, http.StatusCreated, "Notifikasi dibuat", n)
}

func (s *server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.MarkNotificationRead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err, "Gagal memperbarui notifikasi")
		return
	}
	response.Success(w, http.StatusOK, "Notifikasi dibaca", n)
}

func (s *server) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RecipientType string `json:"recipientType"`
		RecipientID   string `json:"recipientId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	updated, err := s.svc.MarkAllNotificationsRead(r.Context(), req.RecipientType, req.RecipientID)
	if err != nil {
		s.writeError(w, r, err, "Gagal memperbarui notifikasi")
		return
	}
	response.Success(w, http.StatusOK, "Semua notifikasi dibaca", map[string]int64{"updated": updated})
}

func (s *server) unreadCount(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count, err := s.svc.UnreadCount(r.Context(), q.Get("recipientType"), q.Get("recipientId"))
	if err != nil {
		s.writeError(w, r, err, "Gagal menghitung notifikasi")
		return
	}
	response.Success(w, http.StatusOK, "Jumlah notifikasi belum dibaca", map[string]int64{"count": count})
}
