package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/lab-clarity-engine/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reports (
	report_id        TEXT PRIMARY KEY,
	patient_id       TEXT NOT NULL,
	report_date      TEXT NOT NULL,
	upload_date      TIMESTAMP NOT NULL,
	filename         TEXT NOT NULL DEFAULT '',
	parameters       TEXT NOT NULL,
	score            INTEGER NOT NULL,
	severity_level   TEXT NOT NULL,
	abnormal_count   INTEGER NOT NULL,
	total_parameters INTEGER NOT NULL,
	ocr_confidence   REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_reports_patient_upload ON reports (patient_id, upload_date);
`

// SQLiteReportStore is the embedded single-node report store. It uses
// the pure-Go sqlite driver, so builds stay cgo-free.
type SQLiteReportStore struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewSQLiteReportStore opens (creating if necessary) the database file
// and ensures the schema exists.
func NewSQLiteReportStore(path string, logger *logrus.Logger) (*SQLiteReportStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// The driver serializes access through a single connection; sqlite
	// does not tolerate concurrent writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteReportStore{db: db, log: logger}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logger.WithField("path", path).Info("SQLite report store opened")
	return store, nil
}

// newSQLiteStoreWithDB wraps an existing handle, for tests.
func newSQLiteStoreWithDB(db *sql.DB, logger *logrus.Logger) *SQLiteReportStore {
	return &SQLiteReportStore{db: db, log: logger}
}

func (r *SQLiteReportStore) ensureSchema() error {
	if _, err := r.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

// Save persists one analyzed snapshot.
func (r *SQLiteReportStore) Save(ctx context.Context, snapshot *domain.ReportSnapshot) error {
	params, err := json.Marshal(snapshot.Parameters)
	if err != nil {
		return fmt.Errorf("marshaling parameters: %w", err)
	}

	query := `
		INSERT INTO reports (
			report_id, patient_id, report_date, upload_date, filename,
			parameters, score, severity_level, abnormal_count, total_parameters,
			ocr_confidence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		snapshot.ReportID,
		snapshot.PatientID,
		snapshot.ReportDate,
		snapshot.UploadDate.UTC().Format(time.RFC3339Nano),
		snapshot.Filename,
		string(params),
		snapshot.HealthClarityScore.Score,
		snapshot.HealthClarityScore.SeverityLevel.String(),
		snapshot.HealthClarityScore.ParametersNeedingAttention,
		snapshot.HealthClarityScore.TotalParameters,
		snapshot.OCRConfidence,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"report_id": snapshot.ReportID,
			"error":     err,
		}).Error("Failed to save report")
		return fmt.Errorf("saving report: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"report_id":  snapshot.ReportID,
		"patient_id": snapshot.PatientID,
		"score":      snapshot.HealthClarityScore.Score,
	}).Info("Report saved")

	return nil
}

// GetByID returns a snapshot, scoped to the owning patient.
func (r *SQLiteReportStore) GetByID(ctx context.Context, patientID, reportID string) (*domain.ReportSnapshot, error) {
	query := selectSnapshotColumns + ` WHERE patient_id = ? AND report_id = ?`

	snapshot, err := scanSQLSnapshot(r.db.QueryRowContext(ctx, query, patientID, reportID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report %s: %w", reportID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting report: %w", err)
	}

	return snapshot, nil
}

// List returns compact summaries, most recent upload first.
func (r *SQLiteReportStore) List(ctx context.Context, patientID string) ([]domain.ReportSummary, error) {
	query := `
		SELECT report_id, report_date, score, severity_level, abnormal_count, total_parameters
		FROM reports
		WHERE patient_id = ?
		ORDER BY upload_date DESC`

	rows, err := r.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.ReportSummary, 0)
	for rows.Next() {
		var s domain.ReportSummary
		var severity string

		if err := rows.Scan(&s.ReportID, &s.ReportDate, &s.HealthClarityScore, &severity, &s.AbnormalCount, &s.TotalParameters); err != nil {
			return nil, fmt.Errorf("scanning report summary: %w", err)
		}

		s.SeverityLevel = domain.SeverityLevel(severity)
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating report summaries: %w", err)
	}

	return summaries, nil
}

// History returns full snapshots ordered by upload time, oldest first.
func (r *SQLiteReportStore) History(ctx context.Context, patientID string) ([]domain.ReportSnapshot, error) {
	query := selectSnapshotColumns + ` WHERE patient_id = ? ORDER BY upload_date ASC`

	rows, err := r.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading report history: %w", err)
	}
	defer rows.Close()

	snapshots := make([]domain.ReportSnapshot, 0)
	for rows.Next() {
		snapshot, err := scanSQLSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		snapshots = append(snapshots, *snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating report rows: %w", err)
	}

	return snapshots, nil
}

// Latest returns the most recently uploaded snapshot for a patient.
func (r *SQLiteReportStore) Latest(ctx context.Context, patientID string) (*domain.ReportSnapshot, error) {
	query := selectSnapshotColumns + ` WHERE patient_id = ? ORDER BY upload_date DESC LIMIT 1`

	snapshot, err := scanSQLSnapshot(r.db.QueryRowContext(ctx, query, patientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no reports for patient: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting latest report: %w", err)
	}

	return snapshot, nil
}

// Delete removes a snapshot, scoped to the owning patient.
func (r *SQLiteReportStore) Delete(ctx context.Context, patientID, reportID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE patient_id = ? AND report_id = ?`, patientID, reportID)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("report %s: %w", reportID, domain.ErrNotFound)
	}

	r.log.WithFields(logrus.Fields{
		"report_id":  reportID,
		"patient_id": patientID,
	}).Info("Report deleted")

	return nil
}

// Health pings the database.
func (r *SQLiteReportStore) Health(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database handle.
func (r *SQLiteReportStore) Close() error {
	return r.db.Close()
}

const selectSnapshotColumns = `
	SELECT report_id, patient_id, report_date, upload_date, filename,
		   parameters, score, severity_level, abnormal_count, total_parameters,
		   ocr_confidence
	FROM reports`

// sqlRow is satisfied by both *sql.Row and *sql.Rows.
type sqlRow interface {
	Scan(dest ...any) error
}

func scanSQLSnapshot(row sqlRow) (*domain.ReportSnapshot, error) {
	var snapshot domain.ReportSnapshot
	var params string
	var severity string
	var uploadDate string

	err := row.Scan(
		&snapshot.ReportID,
		&snapshot.PatientID,
		&snapshot.ReportDate,
		&uploadDate,
		&snapshot.Filename,
		&params,
		&snapshot.HealthClarityScore.Score,
		&severity,
		&snapshot.HealthClarityScore.ParametersNeedingAttention,
		&snapshot.HealthClarityScore.TotalParameters,
		&snapshot.OCRConfidence,
	)
	if err != nil {
		return nil, err
	}

	if ts, err := time.Parse(time.RFC3339Nano, uploadDate); err == nil {
		snapshot.UploadDate = ts
	}

	if err := json.Unmarshal([]byte(params), &snapshot.Parameters); err != nil {
		return nil, fmt.Errorf("unmarshaling parameters: %w", err)
	}

	snapshot.HealthClarityScore.SeverityLevel = domain.SeverityLevel(severity)
	hydrateScore(&snapshot)
	return &snapshot, nil
}
