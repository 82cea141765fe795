package models

import (
	"time"

	"gorm.io/gorm"
)

// EventState is derived from the clock on every read, never stored.
type EventState string

const (
	EventUpcoming EventState = "upcoming"
	EventActive   EventState = "active"
	EventEnded    EventState = "ended"
)

// Event is a time-bounded competition scoping which categories are eligible
// and how many participants may join. Immutable after creation except through
// admin operations.
type Event struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Slug        string `json:"slug" gorm:"index"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`

	// Canonical category ids; non-empty, validated at creation.
	AllowedCategories []string `json:"allowed_categories" gorm:"type:jsonb;serializer:json"`

	StartTime       time.Time `json:"start_time" gorm:"not null"`
	EndTime         time.Time `json:"end_time" gorm:"not null"`
	MaxParticipants int       `json:"max_participants" gorm:"default:0"` // 0 = unlimited
	GlitchDetection bool      `json:"glitch_detection" gorm:"default:false"`
	AdminOnly       bool      `json:"admin_only" gorm:"default:false"`

	Timestamps

	// Calculated fields (not stored in DB)
	State            EventState `json:"state,omitempty" gorm:"-"`
	ParticipantCount int64      `json:"participant_count,omitempty" gorm:"-"`
}

// StateAt derives the lifecycle phase at the given instant.
func (e *Event) StateAt(now time.Time) EventState {
	switch {
	case now.Before(e.StartTime):
		return EventUpcoming
	case now.After(e.EndTime):
		return EventEnded
	default:
		return EventActive
	}
}

// AllowsCategory reports whether the canonical category id is in the event's
// allowed set.
func (e *Event) AllowsCategory(canonicalID string) bool {
	for _, id := range e.AllowedCategories {
		if id == canonicalID {
			return true
		}
	}
	return false
}

// Participant is one user's registration in one event. Unique per
// (event, user); never mutated after creation.
type Participant struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	EventID      string    `json:"event_id" gorm:"not null;uniqueIndex:idx_event_user"`
	UserID       string    `json:"user_id" gorm:"not null;uniqueIndex:idx_event_user"`
	Username     string    `json:"username" gorm:"not null"`
	CategoryID   string    `json:"category_id" gorm:"not null;index"` // canonical category id
	RegisteredAt time.Time `json:"registered_at" gorm:"not null"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
