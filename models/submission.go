package models

import "time"

// Submission records one timed attempt against a participant's registered
// category. The ledger is append-only: attempts are never deleted, only
// flagged by admin actions.
//
// State machine: pending → verified or pending → disqualified; both flags are
// terminal and may coexist (a verified run can later be disqualified — the
// disqualification overrides).
type Submission struct {
	ID         string `json:"id" gorm:"primaryKey"`
	EventID    string `json:"event_id" gorm:"not null;index"`
	UserID     string `json:"user_id" gorm:"not null;index"`
	CategoryID string `json:"category_id" gorm:"not null;index"` // canonical category id

	TimeMs      int64  `json:"time_ms" gorm:"not null"`
	EvidenceURL string `json:"evidence_url,omitempty"`

	// Required (possibly false) for emulator runs, absent for console runs.
	GlitchDeclared *bool `json:"glitch_declared,omitempty"`

	SubmittedAt      time.Time `json:"submitted_at" gorm:"not null;index"`
	Verified         bool      `json:"verified" gorm:"default:false"`
	Disqualified     bool      `json:"disqualified" gorm:"default:false"`
	DisqualifyReason string    `json:"disqualify_reason,omitempty"`

	Timestamps

	// Calculated field (not stored in DB)
	Rank int `json:"rank,omitempty" gorm:"-"`
}
