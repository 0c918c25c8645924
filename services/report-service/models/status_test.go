package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportStatusForTask(t *testing.T) {
	assert.Equal(t, ReportInProgress, ReportStatusForTask(TaskNotStarted))
	assert.Equal(t, ReportInProgress, ReportStatusForTask(TaskInProgress))
	assert.Equal(t, ReportCompleted, ReportStatusForTask(TaskDone))
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidReportStatus("in progress"))
	assert.False(t, ValidReportStatus("in_progress"))
	assert.True(t, ValidTaskStatus("selesai"))
	assert.False(t, ValidTaskStatus("done"))
	assert.True(t, ValidPriority("rendah"))
	assert.False(t, ValidPriority("urgent"))
	assert.True(t, ValidRecipientType("petugas"))
	assert.False(t, ValidNotificationType("email"))
}

func TestPublicMasksAnonymousReporter(t *testing.T) {
	r := &Report{ReporterID: "w-1", ReporterName: "Siti", IsAnonymous: true}
	p := r.Public()
	assert.Equal(t, AnonymousReporterName, p.ReporterName)
	assert.NotNil(t, p.AIKeywords)

	r.IsAnonymous = false
	assert.Equal(t, "Siti", r.Public().ReporterName)
}

func TestTaskStatusLabel(t *testing.T) {
	assert.Equal(t, "Selesai", TaskStatusLabel(TaskDone))
	assert.Equal(t, "unknown", TaskStatusLabel("unknown"))
}
