// Package repository persists analyzed report snapshots keyed by
// pseudonymous patient identifiers. Two backends implement the same
// store contract: PostgreSQL for deployments and an embedded SQLite
// store for single-node setups and local development.
package repository

import (
	"context"

	"github.com/lab-clarity-engine/internal/domain"
)

// ReportStore is the persistence contract for analyzed reports.
type ReportStore interface {
	// Save persists one analyzed snapshot.
	Save(ctx context.Context, snapshot *domain.ReportSnapshot) error

	// GetByID returns a snapshot, scoped to the owning patient.
	GetByID(ctx context.Context, patientID, reportID string) (*domain.ReportSnapshot, error)

	// List returns compact summaries for a patient, most recent upload first.
	List(ctx context.Context, patientID string) ([]domain.ReportSummary, error)

	// History returns full snapshots for a patient ordered by upload
	// time, oldest first. The trend engine consumes this ordering.
	History(ctx context.Context, patientID string) ([]domain.ReportSnapshot, error)

	// Latest returns the most recently uploaded snapshot for a patient,
	// or domain.ErrNotFound when the patient has no reports.
	Latest(ctx context.Context, patientID string) (*domain.ReportSnapshot, error)

	// Delete removes a snapshot, scoped to the owning patient.
	Delete(ctx context.Context, patientID, reportID string) error

	// Health reports whether the backing store is reachable.
	Health(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}
