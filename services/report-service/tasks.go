package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"lapordesa/pkg/response"
	"lapordesa/services/report-service/lifecycle"

	"github.com/go-chi/chi/v5"
)

func (s *server) createTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReportID         string `json:"reportId"`
		AssigneeID       string `json:"assigneeId"`
		Priority         string `json:"priority"`
		DueDate          string `json:"dueDate"`
		Notes            string `json:"notes"`
		SendNotification *bool  `json:"sendNotification"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "")
		return
	}

	in := lifecycle.CreateTaskInput{
		ReportRef:  req.ReportID,
		AssigneeID: req.AssigneeID,
		Priority:   req.Priority,
		Notes:      req.Notes,
		Notify:     req.SendNotification,
	}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			s.writeError(w, r, err, "")
			return
		}
		in.DueDate = due
	}

	task, err := s.svc.CreateTask(r.Context(), in, actorFrom(r))
	if err != nil {
		s.writeError(w, r, err, "Gagal membuat tugas")
		return
	}
	response.Success(w, http.StatusCreated, "Tugas berhasil dibuat", task)
}

func (s *server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.svc.ListTasks(r.Context(), lifecycle.TaskFilter{
		Page:       queryInt(r, "page"),
		Limit:      queryInt(r, "limit"),
		Search:     q.Get("search"),
		Priority:   q.Get("priority"),
		Status:     q.Get("status"),
		AssigneeID: q.Get("assigneeId"),
		ReportID:   q.Get("reportId"),
	})
	if err != nil {
		s.writeError(w, r, err, "Gagal mengambil tugas")
		return
	}
	response.List(w, "Daftar tugas", page.Tasks, response.NewPagination(page.Page, page.Limit, page.Total), page.Stats)
}

func (s *server) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.svc.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err, "Gagal mengambil tugas")
		return
	}
	response.Success(w, http.StatusOK, "Detail tugas", task)
}

func (s *server) updateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title            *string         `json:"title"`
		Description      *string         `json:"description"`
		Priority         *string         `json:"priority"`
		Status           *string         `json:"status"`
		AssigneeID       *string         `json:"assigneeId"`
		DueDate          json.RawMessage `json:"dueDate"`
		Notes            *string         `json:"notes"`
		SendNotification bool            `json:"sendNotification"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "")
		return
	}

	in := lifecycle.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		AssigneeID:  req.AssigneeID,
		Notes:       req.Notes,
		Notify:      req.SendNotification,
	}
	// dueDate: absent leaves it, null or "" clears it.
	if len(req.DueDate) > 0 {
		var raw *string
		if err := json.Unmarshal(req.DueDate, &raw); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: dueDate must be a string", lifecycle.ErrValidation), "")
			return
		}
		if raw == nil || *raw == "" {
			in.ClearDueDate = true
		} else {
			due, err := parseDate(*raw)
			if err != nil {
				s.writeError(w, r, err, "")
				return
			}
			in.DueDate = due
		}
	}

	task, err := s.svc.UpdateTask(r.Context(), chi.URLParam(r, "id"), in, actorFrom(r))
	if err != nil {
		s.writeError(w, r, err, "Gagal memperbarui tugas")
		return
	}
	response.Success(w, http.StatusOK, "Tugas diperbarui", task)
}

func (s *server) updateTaskPriority(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Priority string `json:"priority"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	task, err := s.svc.UpdateTaskPriority(r.Context(), chi.URLParam(r, "id"), req.Priority, actorFrom(r))
	if err != nil {
		s.writeError(w, r, err, "Gagal memperbarui prioritas")
		return
	}
	response.Success(w, http.StatusOK, "Prioritas diperbarui", task)
}

func (s *server) deleteTask(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err, "Gagal menghapus tugas")
		return
	}
	response.Success(w, http.StatusOK, "Tugas dihapus", nil)
}

func (s *server) taskStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.TaskStatistics(r.Context())
	if err != nil {
		s.writeError(w, r, err, "Gagal menghitung statistik")
		return
	}
	response.Success(w, http.StatusOK, "Statistik tugas", stats)
}
