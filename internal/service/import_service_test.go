package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func importWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportSubjects(t *testing.T) {
	repo := &mockSubjectRepo{}
	svc := NewImportService(newTestSubjectService(repo), zap.NewNop())

	buf := importWorkbook(t, [][]interface{}{
		{"code", "name", "academic_year", "term", "schedule", "requires_regular", "requires_passed"},
		{"MAT101", "Algebra", 1, "ANNUAL", "MONDAY 08:00-10:00", "", ""},
		{"MAT201", "Analysis I", 2, "annual", "MONDAY 08:00-10:00; WEDNESDAY 10:00-12:00", "1", ""},
	})

	summary, err := svc.ImportSubjects(context.Background(), buf)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Created)
	assert.Empty(t, summary.Errors)
	assert.Len(t, repo.subjects, 2)
	assert.Len(t, repo.subjects[2].Schedule, 2)
	assert.Equal(t, []int64{1}, repo.subjects[2].RequiredRegularIDs)
}

func TestImportSubjectsCollectsRowErrors(t *testing.T) {
	repo := &mockSubjectRepo{}
	svc := NewImportService(newTestSubjectService(repo), zap.NewNop())

	buf := importWorkbook(t, [][]interface{}{
		{"code", "name", "academic_year", "term", "schedule"},
		{"MAT101", "Algebra", 1, "ANNUAL", "MONDAY 08:00-10:00"},
		{"MAT102", "Geometry", "one", "ANNUAL", ""},
		{"MAT103", "Logic", 1, "ANNUAL", "MONDAY 26:00-27:00"},
	})

	summary, err := svc.ImportSubjects(context.Background(), buf)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.Created)
	require.Len(t, summary.Errors, 2)
	assert.Equal(t, 3, summary.Errors[0].Row)
	assert.Contains(t, summary.Errors[0].Message, "not a number")
	assert.Equal(t, 4, summary.Errors[1].Row)
}

func TestImportSubjectsRejectsMissingHeader(t *testing.T) {
	svc := NewImportService(newTestSubjectService(&mockSubjectRepo{}), zap.NewNop())

	buf := importWorkbook(t, [][]interface{}{
		{"code", "name"},
		{"MAT101", "Algebra"},
	})

	_, err := svc.ImportSubjects(context.Background(), buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "academic_year")
}

func TestImportSubjectsRejectsGarbage(t *testing.T) {
	svc := NewImportService(newTestSubjectService(&mockSubjectRepo{}), zap.NewNop())

	_, err := svc.ImportSubjects(context.Background(), strings.NewReader("not a spreadsheet"))
	require.Error(t, err)
}
