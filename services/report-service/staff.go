package main

import (
	"net/http"
	"strings"

	"lapordesa/pkg/response"
	"lapordesa/services/report-service/lifecycle"
	"lapordesa/services/report-service/models"

	"github.com/go-chi/chi/v5"
)

type staffRequest struct {
	Name        *string  `json:"name"`
	Email       *string  `json:"email"`
	Phone       *string  `json:"phone"`
	Role        *string  `json:"role"`
	Department  *string  `json:"department"`
	AvatarURL   *string  `json:"avatarUrl"`
	IsActive    *bool    `json:"isActive"`
	Skills      []string `json:"skills"`
	MaxCapacity *int     `json:"maxCapacity"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *server) listStaff(w http.ResponseWriter, r *http.Request) {
	active, err := queryBool(r, "isActive")
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	staff, err := s.svc.ListStaff(r.Context(), models.StaffQuery{
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
		IsActive: active,
	})
	if err != nil {
		s.writeError(w, r, err, "Gagal mengambil petugas")
		return
	}
	response.Success(w, http.StatusOK, "Daftar petugas", staff)
}

func (s *server) createStaff(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	member, err := s.svc.CreateStaff(r.Context(), lifecycle.CreateStaffInput{
		Name:        deref(req.Name),
		Email:       deref(req.Email),
		Phone:       deref(req.Phone),
		Role:        deref(req.Role),
		Department:  deref(req.Department),
		AvatarURL:   deref(req.AvatarURL),
		IsActive:    req.IsActive,
		Skills:      req.Skills,
		MaxCapacity: req.MaxCapacity,
	})
	if err != nil {
		s.writeError(w, r, err, "Gagal menyimpan petugas")
		return
	}
	response.Success(w, http.StatusCreated, "Petugas berhasil dibuat", member)
}

// updateStaff ignores currentLoad in the body; only task changes move it.
func (s *server) updateStaff(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	member, err := s.svc.UpdateStaff(r.Context(), chi.URLParam(r, "id"), models.StaffUpdate{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Department:  req.Department,
		AvatarURL:   req.AvatarURL,
		IsActive:    req.IsActive,
		Skills:      req.Skills,
		MaxCapacity: req.MaxCapacity,
	})
	if err != nil {
		s.writeError(w, r, err, "Gagal memperbarui petugas")
		return
	}
	response.Success(w, http.StatusOK, "Petugas diperbarui", member)
}

func (s *server) toggleStaffStatus(w http.ResponseWriter, r *http.Request) {
	member, err := s.svc.ToggleStaffStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err, "Gagal mengubah status petugas")
		return
	}
	response.Success(w, http.StatusOK, "Status petugas diperbarui", member)
}
