// Package session issues anonymous session and patient identifiers.
// There are no accounts: a browser session maps to a stable pseudonymous
// patient identifier so longitudinal history works without storing any
// personally identifying information.
package session

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// patientIDLength is the number of hex characters kept from the digest.
const patientIDLength = 16

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// PatientIDFromSession derives the pseudonymous patient identifier for a
// session. The derivation is deterministic, so the same session always
// maps to the same patient, and one-way, so the session cannot be
// recovered from stored reports.
func PatientIDFromSession(sessionID string) string {
	digest := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(digest[:])[:patientIDLength]
}

// EnsureSession returns the given session ID if present, otherwise a
// fresh one, along with whether a new session was created.
func EnsureSession(sessionID string) (string, bool) {
	if sessionID != "" {
		return sessionID, false
	}
	return NewSessionID(), true
}
