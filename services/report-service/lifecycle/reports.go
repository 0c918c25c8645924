package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lapordesa/pkg/classifier"
	"lapordesa/pkg/queue"
	"lapordesa/services/report-service/models"
	"lapordesa/services/report-service/store"

	"go.uber.org/zap"
)

type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type SubmitReportInput struct {
	ReporterID   string
	ReporterName string
	Title        string
	Description  string
	Category     string
	Location     string
	Anonymous    bool
	Image        *Upload
}

// SubmitReport stores a new pending report. Image upload and classification
// failures are absorbed: the report is stored without an image and with the
// fallback analysis.
func (s *Service) SubmitReport(ctx context.Context, in SubmitReportInput) (*models.Report, error) {
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if in.Description == "" {
		return nil, validationError("deskripsi is required")
	}
	if in.Category == "" {
		return nil, validationError("kategori is required")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = DefaultReportTitle
	}

	now := s.now()
	report := &models.Report{
		ReportNumber: s.reportNumber(ctx),
		ReporterID:   in.ReporterID,
		ReporterName: in.ReporterName,
		IsAnonymous:  in.Anonymous,
		Title:        title,
		Description:  in.Description,
		Category:     in.Category,
		Location:     strings.TrimSpace(in.Location),
		Status:       models.ReportPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if in.Anonymous && in.ReporterID != "" {
		report.ReporterID = ""
		if s.sealer != nil {
			enc, err := s.sealer.Seal(reporterPurpose, in.ReporterID)
			if err != nil {
				return nil, fmt.Errorf("failed to seal reporter id: %w", err)
			}
			report.ReporterIDEnc = enc
		}
	}

	if in.Image != nil && len(in.Image.Data) > 0 {
		report.ImageURL = s.uploadImage(ctx, in.Image)
	}

	analysis, fellBack, err := classifier.AnalyzeOrFallback(ctx, s.classifier, in.Description, s.classifierTimeout)
	if fellBack {
		fallbackTotal.WithLabelValues(dependencyClassifier).Inc()
		s.logger.Warn("[WARN] Classifier unavailable, using fallback analysis", zap.Error(err))
	}
	report.AICategory = analysis.Category
	report.AISentiment = analysis.Sentiment
	report.AIKeywords = analysis.Keywords
	if report.AIKeywords == nil {
		report.AIKeywords = []string{}
	}

	if err := s.reports.Insert(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	s.logger.Info("[OK] Report saved",
		zap.String("report_id", report.ID.Hex()),
		zap.String("nomor_laporan", report.ReportNumber),
		zap.Bool("anonymous", report.IsAnonymous))

	s.publish(ctx, queue.KeyReportCreated, report.Event())
	return report, nil
}

func (s *Service) uploadImage(ctx context.Context, img *Upload) string {
	if s.blobs == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	url, err := s.blobs.Upload(ctx, img.Filename, img.ContentType, img.Data)
	if err != nil {
		fallbackTotal.WithLabelValues(dependencyBlobStore).Inc()
		s.logger.Warn("[WARN] Image upload failed, saving report without image", zap.Error(err))
		return ""
	}
	return url
}

// reporterPurpose binds sealed reporter ids to the field they came from.
const reporterPurpose = "warga_id"

type View int

const (
	ViewPublic View = iota
	ViewAdmin
)

type ReportPage struct {
	Reports []models.Report
	Total   int64
	Page    int
	Limit   int
}

func (p *ReportPage) Public() []models.PublicReport {
	out := make([]models.PublicReport, 0, len(p.Reports))
	for i := range p.Reports {
		out = append(out, p.Reports[i].Public())
	}
	return out
}

func (s *Service) ListReports(ctx context.Context, q models.ReportQuery, view View) (*ReportPage, error) {
	if q.SortBy != "" && q.SortBy != models.SortByCreatedAt && q.SortBy != models.SortByTitle {
		return nil, validationError("sortBy must be createdAt or judul")
	}
	if q.Status != "" && !models.ValidReportStatus(q.Status) {
		return nil, validationError("unknown status")
	}
	q.MatchNumber = view == ViewAdmin
	q.Page, q.Limit = store.NormalizePage(q.Page, q.Limit, store.DefaultReportLimit)

	reports, total, err := s.reports.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return &ReportPage{Reports: reports, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func (s *Service) GetPublicReport(ctx context.Context, id string) (*models.PublicReport, error) {
	report, err := s.findReport(ctx, id)
	if err != nil {
		return nil, err
	}
	public := report.Public()
	return &public, nil
}

// GetReport is the admin view: the reporter id is unsealed for anonymous
// reports and the tasks referencing the report are attached.
func (s *Service) GetReport(ctx context.Context, id string) (*models.ReportDetail, error) {
	report, err := s.findReport(ctx, id)
	if err != nil {
		return nil, err
	}

	if report.ReporterIDEnc != "" && s.sealer != nil {
		if plain, err := s.sealer.Open(reporterPurpose, report.ReporterIDEnc); err == nil {
			report.ReporterID = plain
		} else {
			s.logger.Warn("[WARN] Failed to unseal reporter id", zap.String("report_id", id), zap.Error(err))
		}
	}

	tasks, _, err := s.tasks.List(ctx, models.TaskQuery{ReportID: &report.ID, Limit: store.MaxLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to load report tasks: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return &models.ReportDetail{Report: *report, Tasks: tasks}, nil
}

func (s *Service) findReport(ctx context.Context, id string) (*models.Report, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	report, err := s.reports.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err, ErrReportNotFound, "failed to load report")
	}
	return report, nil
}

// resolveReport accepts either an ObjectID hex or a nomor_laporan.
func (s *Service) resolveReport(ctx context.Context, ref string) (*models.Report, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, validationError("report reference is required")
	}
	if oid, err := parseID(ref); err == nil {
		report, err := s.reports.FindByID(ctx, oid)
		if err == nil {
			return report, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to load report: %w", err)
		}
	}
	report, err := s.reports.FindByNumber(ctx, ref)
	if err != nil {
		return nil, notFound(err, ErrReportNotFound, "failed to load report")
	}
	return report, nil
}

// UpdateReportStatus is the admin override. A nil comment leaves komentar as is.
func (s *Service) UpdateReportStatus(ctx context.Context, id, status string, comment *string) (*models.Report, error) {
	status = strings.TrimSpace(status)
	if !models.ValidReportStatus(status) {
		return nil, validationError("status_laporan must be pending, in progress or completed")
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	report, err := s.reports.UpdateStatus(ctx, oid, status, comment)
	if err != nil {
		return nil, notFound(err, ErrReportNotFound, "failed to update report")
	}

	s.logger.Info("[OK] Report status updated",
		zap.String("report_id", id), zap.String("status", status))
	s.publish(ctx, queue.KeyReportUpdated, report.Event())
	return report, nil
}

func (s *Service) ReportStatistics(ctx context.Context) (*models.ReportStats, error) {
	stats, err := s.reports.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute report statistics: %w", err)
	}
	if stats.ByCategory == nil {
		stats.ByCategory = map[string]int64{}
	}
	return &stats, nil
}
