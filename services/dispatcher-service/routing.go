package main

import (
	"strings"

	"lapordesa/pkg/classifier"
	"lapordesa/services/report-service/models"
)

const DefaultDepartment = "Sekretariat Desa"

var departments = map[string]string{
	"infrastruktur": "Kaur Pembangunan",
	"lingkungan":    "Kaur Pembangunan",
	"sosial":        "Kasi Kesejahteraan",
	"kesehatan":     "Kasi Kesejahteraan",
	"pelayanan":     "Kasi Pelayanan",
	"keamanan":      "Linmas",
}

// route picks the department for a new report. The AI category wins unless
// it is the fallback, in which case the category the citizen chose is used.
func route(ev models.ReportEvent) string {
	category := ev.AICategory
	if category == "" || strings.EqualFold(category, classifier.DefaultCategory) {
		category = ev.Category
	}
	if d, ok := departments[strings.ToLower(strings.TrimSpace(category))]; ok {
		return d
	}
	return DefaultDepartment
}

// redact hides the reporter before the event is logged or forwarded.
func redact(ev models.ReportEvent) models.ReportEvent {
	if ev.IsAnonymous {
		ev.ReporterID = ""
		ev.ReporterName = models.AnonymousReporterName
	}
	return ev
}
