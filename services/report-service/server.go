package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lapordesa/pkg/middleware"
	"lapordesa/pkg/response"
	"lapordesa/services/report-service/lifecycle"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

type server struct {
	svc       *lifecycle.Service
	logger    *zap.Logger
	jwtSecret []byte
}

func newServer(svc *lifecycle.Service, logger *zap.Logger, jwtSecret []byte) *server {
	return &server{svc: svc, logger: logger, jwtSecret: jwtSecret}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.MetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, "Report service is healthy", nil)
	})
	r.Handle("/metrics", middleware.GetMetricsHandler())

	admin := func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(s.jwtSecret))
		r.Use(middleware.RequireRole(middleware.RoleAdmin))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/reports", func(r chi.Router) {
			r.With(middleware.OptionalAuth(s.jwtSecret)).Post("/", s.createReport)
			r.Get("/public", s.listPublicReports)
			r.Get("/public/{id}", s.getPublicReport)

			r.Group(func(r chi.Router) {
				admin(r)
				r.Get("/", s.listReports)
				r.Get("/statistics", s.reportStatistics)
				r.Get("/{id}", s.getReport)
				r.Put("/{id}/status", s.updateReportStatus)
			})
		})

		r.Group(func(r chi.Router) {
			admin(r)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", s.listTasks)
				r.Post("/", s.createTask)
				r.Get("/stats", s.taskStatistics)
				r.Get("/{id}", s.getTask)
				r.Put("/{id}", s.updateTask)
				r.Patch("/{id}/priority", s.updateTaskPriority)
				r.Delete("/{id}", s.deleteTask)
			})

			r.Route("/staff", func(r chi.Router) {
				r.Get("/", s.listStaff)
				r.Post("/", s.createStaff)
				r.Put("/{id}", s.updateStaff)
				r.Patch("/{id}/status", s.toggleStaffStatus)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.listNotifications)
				r.Post("/", s.createNotification)
				r.Get("/unread-count", s.unreadCount)
				r.Post("/mark-read", s.markAllNotificationsRead)
				r.Patch("/{id}/read", s.markNotificationRead)
			})
		})
	})

	return r
}

// writeError maps lifecycle errors to status codes. Internal error text is
// logged, never returned.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		response.Error(w, http.StatusBadRequest, "Data tidak valid", err.Error())
	case errors.Is(err, lifecycle.ErrReportNotFound):
		response.Error(w, http.StatusNotFound, "Laporan tidak ditemukan", "")
	case errors.Is(err, lifecycle.ErrTaskNotFound):
		response.Error(w, http.StatusNotFound, "Tugas tidak ditemukan", "")
	case errors.Is(err, lifecycle.ErrStaffNotFound):
		response.Error(w, http.StatusNotFound, "Petugas tidak ditemukan", "")
	case errors.Is(err, lifecycle.ErrNotificationNotFound):
		response.Error(w, http.StatusNotFound, "Notifikasi tidak ditemukan", "")
	case errors.Is(err, lifecycle.ErrNumberExhausted):
		middleware.WithTrace(s.logger, r).Error("[ERROR] "+message, zap.Error(err))
		response.Error(w, http.StatusServiceUnavailable, "Silakan coba lagi", "")
	default:
		middleware.WithTrace(s.logger, r).Error("[ERROR] "+message, zap.Error(err))
		response.Error(w, http.StatusInternalServerError, message, "")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request payload", lifecycle.ErrValidation)
	}
	return nil
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

// queryBool returns nil when the parameter is absent.
func queryBool(r *http.Request, key string) (*bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", lifecycle.ErrValidation, key)
	}
	return &b, nil
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: dueDate must be a date", lifecycle.ErrValidation)
}

func actorFrom(r *http.Request) lifecycle.Actor {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return lifecycle.Actor{}
	}
	return lifecycle.Actor{ID: claims.UserID, Name: claims.Name}
}
