package models

// Report statuses as stored in status_laporan.
const (
	ReportPending    = "pending"
	ReportInProgress = "in progress"
	ReportCompleted  = "completed"
)

// Task statuses.
const (
	TaskNotStarted = "belum"
	TaskInProgress = "sedang"
	TaskDone       = "selesai"
)

// Task priorities.
const (
	PriorityHigh   = "tinggi"
	PriorityMedium = "sedang"
	PriorityLow    = "rendah"
)

func ValidReportStatus(s string) bool {
	switch s {
	case ReportPending, ReportInProgress, ReportCompleted:
		return true
	}
	return false
}

func ValidTaskStatus(s string) bool {
	switch s {
	case TaskNotStarted, TaskInProgress, TaskDone:
		return true
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ReportStatusForTask translates a task status into the report vocabulary.
// A report with a task that has not been started is already being handled,
// so only a finished task completes the report.
func ReportStatusForTask(taskStatus string) string {
	if taskStatus == TaskDone {
		return ReportCompleted
	}
	return ReportInProgress
}

var taskStatusLabels = map[string]string{
	TaskNotStarted: "Belum dikerjakan",
	TaskInProgress: "Sedang dikerjakan",
	TaskDone:       "Selesai",
}

// TaskStatusLabel is the human readable label used in task history.
func TaskStatusLabel(s string) string {
	if label, ok := taskStatusLabels[s]; ok {
		return label
	}
	return s
}
