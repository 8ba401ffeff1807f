package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/lab-clarity-engine/internal/domain"
)

// PostgresReportStore persists report snapshots in PostgreSQL. The
// parameter list is stored as a jsonb document; listing-relevant fields
// are broken out into columns so summaries never deserialize parameters.
type PostgresReportStore struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewPostgresReportStore creates a PostgreSQL-backed report store.
func NewPostgresReportStore(db *pgxpool.Pool, logger *logrus.Logger) *PostgresReportStore {
	return &PostgresReportStore{
		db:  db,
		log: logger,
	}
}

// Save persists one analyzed snapshot.
func (r *PostgresReportStore) Save(ctx context.Context, snapshot *domain.ReportSnapshot) error {
	params, err := json.Marshal(snapshot.Parameters)
	if err != nil {
		return fmt.Errorf("marshaling parameters: %w", err)
	}

	query := `
		INSERT INTO reports (
			report_id, patient_id, report_date, upload_date, filename,
			parameters, score, severity_level, abnormal_count, total_parameters,
			ocr_confidence
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err = r.db.Exec(ctx, query,
		snapshot.ReportID,
		snapshot.PatientID,
		snapshot.ReportDate,
		snapshot.UploadDate,
		snapshot.Filename,
		params,
		snapshot.HealthClarityScore.Score,
		snapshot.HealthClarityScore.SeverityLevel.String(),
		snapshot.HealthClarityScore.ParametersNeedingAttention,
		snapshot.HealthClarityScore.TotalParameters,
		snapshot.OCRConfidence,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"report_id":  snapshot.ReportID,
			"patient_id": snapshot.PatientID,
			"error":      err,
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
func (r *PostgresReportStore) GetByID(ctx context.Context, patientID, reportID string) (*domain.ReportSnapshot, error) {
	query := `
		SELECT report_id, patient_id, report_date, upload_date, filename,
			   parameters, score, severity_level, abnormal_count, total_parameters,
			   ocr_confidence
		FROM reports
		WHERE patient_id = $1 AND report_id = $2`

	snapshot, err := scanPgxSnapshot(r.db.QueryRow(ctx, query, patientID, reportID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("report %s: %w", reportID, domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"report_id": reportID,
			"error":     err,
		}).Error("Failed to get report")
		return nil, fmt.Errorf("getting report: %w", err)
	}

	return snapshot, nil
}

// List returns compact summaries, most recent upload first.
func (r *PostgresReportStore) List(ctx context.Context, patientID string) ([]domain.ReportSummary, error) {
	query := `
		SELECT report_id, report_date, score, severity_level, abnormal_count, total_parameters
		FROM reports
		WHERE patient_id = $1
		ORDER BY upload_date DESC`

	rows, err := r.db.Query(ctx, query, patientID)
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
func (r *PostgresReportStore) History(ctx context.Context, patientID string) ([]domain.ReportSnapshot, error) {
	query := `
		SELECT report_id, patient_id, report_date, upload_date, filename,
			   parameters, score, severity_level, abnormal_count, total_parameters,
			   ocr_confidence
		FROM reports
		WHERE patient_id = $1
		ORDER BY upload_date ASC`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading report history: %w", err)
	}
	defer rows.Close()

	snapshots := make([]domain.ReportSnapshot, 0)
	for rows.Next() {
		snapshot, err := scanPgxSnapshot(rows)
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
func (r *PostgresReportStore) Latest(ctx context.Context, patientID string) (*domain.ReportSnapshot, error) {
	query := `
		SELECT report_id, patient_id, report_date, upload_date, filename,
			   parameters, score, severity_level, abnormal_count, total_parameters,
			   ocr_confidence
		FROM reports
		WHERE patient_id = $1
		ORDER BY upload_date DESC
		LIMIT 1`

	snapshot, err := scanPgxSnapshot(r.db.QueryRow(ctx, query, patientID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no reports for patient: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting latest report: %w", err)
	}

	return snapshot, nil
}

// Delete removes a snapshot, scoped to the owning patient.
func (r *PostgresReportStore) Delete(ctx context.Context, patientID, reportID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM reports WHERE patient_id = $1 AND report_id = $2`, patientID, reportID)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("report %s: %w", reportID, domain.ErrNotFound)
	}

	r.log.WithFields(logrus.Fields{
		"report_id":  reportID,
		"patient_id": patientID,
	}).Info("Report deleted")

	return nil
}

// Health pings the underlying pool.
func (r *PostgresReportStore) Health(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Close releases the underlying pool.
func (r *PostgresReportStore) Close() error {
	r.db.Close()
	return nil
}

// scanPgxSnapshot scans one snapshot row from either a pgx.Row or pgx.Rows.
func scanPgxSnapshot(row pgx.Row) (*domain.ReportSnapshot, error) {
	var snapshot domain.ReportSnapshot
	var params []byte
	var severity string

	err := row.Scan(
		&snapshot.ReportID,
		&snapshot.PatientID,
		&snapshot.ReportDate,
		&snapshot.UploadDate,
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

	if err := json.Unmarshal(params, &snapshot.Parameters); err != nil {
		return nil, fmt.Errorf("unmarshaling parameters: %w", err)
	}

	snapshot.HealthClarityScore.SeverityLevel = domain.SeverityLevel(severity)
	hydrateScore(&snapshot)
	return &snapshot, nil
}

// hydrateScore rebuilds the derived score fields that are not stored as
// columns.
func hydrateScore(snapshot *domain.ReportSnapshot) {
	score := &snapshot.HealthClarityScore
	score.ParametersInRange = score.TotalParameters - score.ParametersNeedingAttention
	score.SeverityColor = score.SeverityLevel.Color()
}
