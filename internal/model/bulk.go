package model

// BulkAllocationRow одна строка массового назначения занятий.
// Нумерация строк в отчёте идёт с 2: строка 1 — заголовок файла импорта.
type BulkAllocationRow struct {
	StudentID     int64  `json:"student_id"`
	CourseID      int64  `json:"course_id"`
	ClassTitle    string `json:"class_title"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	Duration      int    `json:"duration"`
	Notes         string `json:"notes"`
}

type BulkRowSuccess struct {
	Row           int    `json:"row"`
	StudentID     int64  `json:"student_id"`
	ClassTitle    string `json:"class_title"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduleID    int64  `json:"schedule_id"`
}

type BulkRowFailure struct {
	Row   int               `json:"row"`
	Data  BulkAllocationRow `json:"data"`
	Error string            `json:"error"`
}

// BulkResult итог массового назначения: SuccessCount+FailureCount
// всегда равно числу входных строк.
type BulkResult struct {
	Successful   []BulkRowSuccess `json:"successful"`
	Failed       []BulkRowFailure `json:"failed"`
	SuccessCount int              `json:"success_count"`
	FailureCount int              `json:"failure_count"`
}
