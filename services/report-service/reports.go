package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lapordesa/pkg/middleware"
	"lapordesa/pkg/response"
	"lapordesa/services/report-service/lifecycle"
	"lapordesa/services/report-service/models"

	"github.com/go-chi/chi/v5"
)

const (
	imageField    = "upload_foto"
	maxImageBytes = 5 << 20
)

func (s *server) createReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+maxJSONBody)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		response.Error(w, http.StatusBadRequest, "Form laporan tidak valid", "gambar maksimal 5MB")
		return
	}

	in := lifecycle.SubmitReportInput{
		ReporterID:   r.FormValue("warga_id"),
		ReporterName: r.FormValue("nama_warga"),
		Title:        r.FormValue("judul"),
		Description:  r.FormValue("deskripsi"),
		Category:     r.FormValue("kategori"),
		Location:     r.FormValue("lokasi"),
		Anonymous:    r.FormValue("is_anonymous") == "true" || r.FormValue("privacy") == "anonymous",
	}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok && claims.Role == middleware.RoleCitizen {
		in.ReporterID = claims.UserID
		in.ReporterName = claims.Name
	}

	image, err := readImage(r)
	if err != nil {
		s.writeError(w, r, err, "Gagal membaca gambar")
		return
	}
	in.Image = image

	report, err := s.svc.SubmitReport(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err, "Gagal menyimpan laporan")
		return
	}
	response.Success(w, http.StatusCreated, "Laporan berhasil dibuat", report.Public())
}

func readImage(r *http.Request) (*lifecycle.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		return nil, fmt.Errorf("%w: image larger than 5MB", lifecycle.ErrValidation)
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: only image uploads are accepted", lifecycle.ErrValidation)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("%w: image larger than 5MB", lifecycle.ErrValidation)
	}
	return &lifecycle.Upload{Filename: header.Filename, ContentType: contentType, Data: data}, nil
}

func reportQuery(r *http.Request) models.ReportQuery {
	q := r.URL.Query()
	return models.ReportQuery{
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
		Status:   q.Get("status"),
		Category: q.Get("kategori"),
		Search:   strings.TrimSpace(q.Get("search")),
		SortBy:   q.Get("sortBy"),
		Desc:     q.Get("order") != "asc",
	}
}

func (s *server) listPublicReports(w http.ResponseWriter, r *http.Request) {
	page, err := s.svc.ListReports(r.Context(), reportQuery(r), lifecycle.ViewPublic)
	if err != nil {
		s.writeError(w, r, err, "Gagal mengambil laporan")
		return
	}
	response.List(w, "Daftar laporan", page.Public(), response.NewPagination(page.Page, page.Limit, page.Total), nil)
}

func (s *server) listReports(w http.ResponseWriter, r *http.Request) {
	page, err := s.svc.ListReports(r.Context(), reportQuery(r), lifecycle.ViewAdmin)
	if err != nil {
		s.writeError(w, r, err, "Gagal mengambil laporan")
		return
	}
	response.List(w, "Daftar laporan", page.Reports, response.NewPagination(page.Page, page.Limit, page.Total), nil)
}

func (s *server) getPublicReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.GetPublicReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err, "Gagal mengambil laporan")
		return
	}
	response.Success(w, http.StatusOK, "Detail laporan", report)
}

func (s *server) getReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err, "Gagal mengambil laporan")
		return
	}
	response.Success(w, http.StatusOK, "Detail laporan", report)
}

func (s *server) reportStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.ReportStatistics(r.Context())
	if err != nil {
		s.writeError(w, r, err, "Gagal menghitung statistik")
		return
	}
	response.Success(w, http.StatusOK, "Statistik laporan", stats)
}

func (s *server) updateReportStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status      string  `json:"status_laporan"`
		LegacyState string  `json:"status"`
		Comment     *string `json:"komentar"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "")
		return
	}
	status := req.Status
	if status == "" {
		status = req.LegacyState
	}

	report, err := s.svc.UpdateReportStatus(r.Context(), chi.URLParam(r, "id"), status, req.Comment)
	if err != nil {
		s.writeError(w, r, err, "Gagal memperbarui status laporan")
		return
	}
	response.Success(w, http.StatusOK, "Status laporan diperbarui", report)
}
