package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const AnonymousReporterName = "Pelapor Anonim"

type Report struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReportNumber string             `bson:"nomor_laporan" json:"nomor_laporan"`
	ReporterID   string             `bson:"warga_id,omitempty" json:"warga_id,omitempty"`
	// ReporterIDEnc holds the reporter id (AES-GCM) for anonymous reports,
	// whose ReporterID is left empty. It is never serialised.
	ReporterIDEnc string    `bson:"warga_id_enc,omitempty" json:"-"`
	ReporterName  string    `bson:"nama_warga,omitempty" json:"nama_warga,omitempty"`
	IsAnonymous   bool      `bson:"is_anonymous" json:"is_anonymous"`
	Title         string    `bson:"judul" json:"judul"`
	Description   string    `bson:"deskripsi" json:"deskripsi"`
	Location      string    `bson:"lokasi,omitempty" json:"lokasi,omitempty"`
	ImageURL      string    `bson:"gambar,omitempty" json:"gambar,omitempty"`
	Category      string    `bson:"kategori" json:"kategori"`
	AICategory    string    `bson:"kategori_ai" json:"kategori_ai"`
	AISentiment   string    `bson:"sentimen_ai" json:"sentimen_ai"`
	AIKeywords    []string  `bson:"keywords_ai" json:"keywords_ai"`
	Comment       string    `bson:"komentar,omitempty" json:"komentar,omitempty"`
	Status        string    `bson:"status_laporan" json:"status_laporan"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PublicReport is the citizen-facing projection: no reporter id, and the
// reporter name is masked for anonymous submissions.
type PublicReport struct {
	ID           primitive.ObjectID `json:"id"`
	ReportNumber string             `json:"nomor_laporan"`
	ReporterName string             `json:"nama_warga,omitempty"`
	Title        string             `json:"judul"`
	Description  string             `json:"deskripsi"`
	Location     string             `json:"lokasi,omitempty"`
	ImageURL     string             `json:"gambar,omitempty"`
	Category     string             `json:"kategori"`
	AICategory   string             `json:"kategori_ai"`
	AISentiment  string             `json:"sentimen_ai"`
	AIKeywords   []string           `json:"keywords_ai"`
	Comment      string             `json:"komentar,omitempty"`
	Status       string             `json:"status_laporan"`
	CreatedAt    time.Time          `json:"createdAt"`
}

func (r *Report) Public() PublicReport {
	name := r.ReporterName
	if r.IsAnonymous {
		name = AnonymousReporterName
	}
	keywords := r.AIKeywords
	if keywords == nil {
		keywords = []string{}
	}
	return PublicReport{
		ID:           r.ID,
		ReportNumber: r.ReportNumber,
		ReporterName: name,
		Title:        r.Title,
		Description:  r.Description,
		Location:     r.Location,
		ImageURL:     r.ImageURL,
		Category:     r.Category,
		AICategory:   r.AICategory,
		AISentiment:  r.AISentiment,
		AIKeywords:   keywords,
		Comment:      r.Comment,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
	}
}

// ReportDetail is the admin single-report view with the tasks handling it.
type ReportDetail struct {
	Report
	Tasks []Task `json:"tasks"`
}

// ReportSummary is attached to task views.
type ReportSummary struct {
	ID           primitive.ObjectID `json:"id"`
	ReportNumber string             `json:"nomor_laporan"`
	Title        string             `json:"judul"`
	Description  string             `json:"deskripsi"`
	Category     string             `json:"kategori"`
	Status       string             `json:"status_laporan"`
	Location     string             `json:"lokasi,omitempty"`
	ImageURL     string             `json:"gambar,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}

func (r *Report) Summary() *ReportSummary {
	return &ReportSummary{
		ID:           r.ID,
		ReportNumber: r.ReportNumber,
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		Status:       r.Status,
		Location:     r.Location,
		ImageURL:     r.ImageURL,
		CreatedAt:    r.CreatedAt,
	}
}

const (
	SortByCreatedAt = "createdAt"
	SortByTitle     = "judul"
)

type ReportQuery struct {
	Page     int
	Limit    int
	Status   string
	Category string
	Search   string
	SortBy   string
	Desc     bool
	// MatchNumber extends Search to nomor_laporan (admin listing).
	MatchNumber bool
}

type ReportStats struct {
	Total      int64            `json:"total"`
	ByStatus   ReportStatusStat `json:"byStatus"`
	ByCategory map[string]int64 `json:"byCategory"`
}

type ReportStatusStat struct {
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
}

type ReportEvent struct {
	ID           string    `json:"id"`
	ReportNumber string    `json:"nomor_laporan"`
	Title        string    `json:"judul"`
	Description  string    `json:"deskripsi"`
	Category     string    `json:"kategori"`
	AICategory   string    `json:"kategori_ai"`
	Status       string    `json:"status_laporan"`
	IsAnonymous  bool      `json:"is_anonymous"`
	ReporterID   string    `json:"warga_id,omitempty"`
	ReporterName string    `json:"nama_warga,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r *Report) Event() ReportEvent {
	return ReportEvent{
		ID:           r.ID.Hex(),
		ReportNumber: r.ReportNumber,
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		AICategory:   r.AICategory,
		Status:       r.Status,
		IsAnonymous:  r.IsAnonymous,
		ReporterID:   r.ReporterID,
		ReporterName: r.ReporterName,
		CreatedAt:    r.CreatedAt,
	}
}
