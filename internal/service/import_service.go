package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/campusdata/sga-enroll-api/internal/models"
	appErrors "github.com/campusdata/sga-enroll-api/pkg/errors"
)

const maxImportRows = 1000

// ImportRowError reports a spreadsheet row that could not be imported.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportSummary aggregates the outcome of a bulk subject import.
type ImportSummary struct {
	Processed int              `json:"processed"`
	Created   int              `json:"created"`
	Errors    []ImportRowError `json:"errors"`
}

type subjectCreator interface {
	Create(ctx context.Context, req SubjectRequest) (*models.Subject, error)
}

// ImportService loads catalog subjects from xlsx spreadsheets. Rows fail
// individually; one bad row never aborts the batch.
type ImportService struct {
	subjects subjectCreator
	logger   *zap.Logger
}

// NewImportService constructs an ImportService.
func NewImportService(subjects subjectCreator, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{subjects: subjects, logger: logger}
}

// ImportSubjects parses the spreadsheet and creates one subject per data row.
// The first sheet must carry a header row with at least the code, name,
// academic_year and term columns.
func (s *ImportService) ImportSubjects(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file is not a valid xlsx document")
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read worksheet")
	}
	if len(rows) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "spreadsheet has no data rows")
	}
	if len(rows)-1 > maxImportRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("spreadsheet exceeds %d data rows", maxImportRows))
	}

	columns := headerIndex(rows[0])
	for _, required := range []string{"code", "name", "academic_year", "term"} {
		if columns[required] < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing required column %q", required))
		}
	}

	summary := &ImportSummary{Errors: []ImportRowError{}}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}
		summary.Processed++

		req, err := parseSubjectRow(columns, row)
		if err != nil {
			summary.Errors = append(summary.Errors, ImportRowError{Row: i + 1, Message: err.Error()})
			continue
		}
		if _, err := s.subjects.Create(ctx, req); err != nil {
			summary.Errors = append(summary.Errors, ImportRowError{Row: i + 1, Message: err.Error()})
			continue
		}
		summary.Created++
	}

	s.logger.Info("subject import finished",
		zap.Int("processed", summary.Processed),
		zap.Int("created", summary.Created),
		zap.Int("errors", len(summary.Errors)))
	return summary, nil
}

func headerIndex(header []string) map[string]int {
	idx := map[string]int{
		"code":             -1,
		"name":             -1,
		"academic_year":    -1,
		"term":             -1,
		"schedule":         -1,
		"requires_regular": -1,
		"requires_passed":  -1,
	}
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if _, known := idx[key]; known {
			idx[key] = i
		}
	}
	return idx
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseSubjectRow(columns map[string]int, row []string) (SubjectRequest, error) {
	cell := func(name string) string {
		idx := columns[name]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var req SubjectRequest
	req.Code = cell("code")
	req.Name = cell("name")

	year, err := strconv.Atoi(cell("academic_year"))
	if err != nil {
		return req, fmt.Errorf("academic_year %q is not a number", cell("academic_year"))
	}
	req.AcademicYear = year
	req.Term = models.Term(strings.ToUpper(cell("term")))

	schedule, err := parseScheduleCell(cell("schedule"))
	if err != nil {
		return req, err
	}
	req.Schedule = schedule

	if req.RequiredRegularIDs, err = parseIDList(cell("requires_regular")); err != nil {
		return req, fmt.Errorf("requires_regular: %v", err)
	}
	if req.RequiredPassedIDs, err = parseIDList(cell("requires_passed")); err != nil {
		return req, fmt.Errorf("requires_passed: %v", err)
	}
	return req, nil
}

// parseScheduleCell reads entries like "MONDAY 08:00-10:00; WEDNESDAY 10:00-12:00".
func parseScheduleCell(raw string) ([]models.ClassSlot, error) {
	if raw == "" {
		return nil, nil
	}
	var slots []models.ClassSlot
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.Fields(entry)
		if len(fields) != 2 {
			return nil, fmt.Errorf("schedule entry %q must be DAY HH:MM-HH:MM", entry)
		}
		times := strings.Split(fields[1], "-")
		if len(times) != 2 {
			return nil, fmt.Errorf("schedule entry %q must be DAY HH:MM-HH:MM", entry)
		}
		slots = append(slots, models.ClassSlot{
			Day:       strings.ToUpper(fields[0]),
			StartTime: times[0],
			EndTime:   times[1],
		})
	}
	return slots, nil
}

func parseIDList(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a subject id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
