package repository

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lab-clarity-engine/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestStore(t *testing.T) *SQLiteReportStore {
	t.Helper()

	store, err := NewSQLiteReportStore(filepath.Join(t.TempDir(), "reports.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func testSnapshot(reportID, patientID, reportDate string, uploadDate time.Time) *domain.ReportSnapshot {
	return &domain.ReportSnapshot{
		ReportID:   reportID,
		PatientID:  patientID,
		ReportDate: reportDate,
		UploadDate: uploadDate,
		Filename:   "report.pdf",
		Parameters: []domain.Parameter{
			{Name: "Hemoglobin", Value: "11.2", Unit: "g/dL", ReferenceRange: "13 - 17", Status: domain.StatusLow, Category: "Blood Count"},
			{Name: "TSH", Value: "2.5", Unit: "mIU/L", ReferenceRange: "0.4 - 4", Status: domain.StatusNormal, Category: "Thyroid"},
		},
		HealthClarityScore: domain.HealthClarityScore{
			Score:                      82,
			SeverityLevel:              domain.SeverityModerate,
			SeverityColor:              domain.SeverityModerate.Color(),
			ParametersInRange:          1,
			ParametersNeedingAttention: 1,
			TotalParameters:            2,
		},
		OCRConfidence: 0.92,
	}
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	original := testSnapshot("report-1", "patient-a", "2026-01-15", time.Now().UTC())
	require.NoError(t, store.Save(ctx, original))

	loaded, err := store.GetByID(ctx, "patient-a", "report-1")
	require.NoError(t, err)

	assert.Equal(t, original.ReportID, loaded.ReportID)
	assert.Equal(t, original.PatientID, loaded.PatientID)
	assert.Equal(t, original.ReportDate, loaded.ReportDate)
	assert.Equal(t, original.Parameters, loaded.Parameters)
	assert.Equal(t, original.HealthClarityScore, loaded.HealthClarityScore)
	assert.InDelta(t, 0.92, loaded.OCRConfidence, 1e-9)
}

func TestSQLiteStore_GetByID_WrongPatient(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot("report-1", "patient-a", "2026-01-15", time.Now())))

	_, err := store.GetByID(ctx, "patient-b", "report-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, testSnapshot("report-1", "patient-a", "2026-01-01", base)))
	require.NoError(t, store.Save(ctx, testSnapshot("report-2", "patient-a", "2026-02-01", base.AddDate(0, 1, 0))))
	require.NoError(t, store.Save(ctx, testSnapshot("report-x", "patient-b", "2026-01-15", base)))

	summaries, err := store.List(ctx, "patient-a")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "report-2", summaries[0].ReportID)
	assert.Equal(t, "report-1", summaries[1].ReportID)
	assert.Equal(t, 82, summaries[0].HealthClarityScore)
	assert.Equal(t, domain.SeverityModerate, summaries[0].SeverityLevel)
}

func TestSQLiteStore_HistoryOldestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, testSnapshot("report-2", "patient-a", "2026-02-01", base.AddDate(0, 1, 0))))
	require.NoError(t, store.Save(ctx, testSnapshot("report-1", "patient-a", "2026-01-01", base)))

	history, err := store.History(ctx, "patient-a")
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "report-1", history[0].ReportID)
	assert.Equal(t, "report-2", history[1].ReportID)
}

func TestSQLiteStore_Latest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, testSnapshot("report-1", "patient-a", "2026-01-01", base)))
	require.NoError(t, store.Save(ctx, testSnapshot("report-2", "patient-a", "2026-02-01", base.AddDate(0, 1, 0))))

	latest, err := store.Latest(ctx, "patient-a")
	require.NoError(t, err)
	assert.Equal(t, "report-2", latest.ReportID)

	_, err = store.Latest(ctx, "patient-unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot("report-1", "patient-a", "2026-01-15", time.Now())))

	require.NoError(t, store.Delete(ctx, "patient-a", "report-1"))

	_, err := store.GetByID(ctx, "patient-a", "report-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.Delete(ctx, "patient-a", "report-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_Health(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Health(context.Background()))
}
