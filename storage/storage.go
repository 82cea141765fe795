// Package storage defines the repository boundary for the league engine.
// Services depend on these interfaces, never on a shared global table; the
// GORM implementation is injected at startup and fakes stand in for tests.
package storage

import (
	"context"
	"errors"

	"speedrun-league-system/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

type EventStore interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
}

type ParticipantStore interface {
	CreateParticipant(ctx context.Context, participant *models.Participant) error
	GetParticipant(ctx context.Context, eventID, userID string) (*models.Participant, error)
	ListParticipants(ctx context.Context, eventID string) ([]models.Participant, error)
	CountParticipants(ctx context.Context, eventID string) (int64, error)
}

type SubmissionStore interface {
	CreateSubmission(ctx context.Context, submission *models.Submission) error
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	SaveSubmission(ctx context.Context, submission *models.Submission) error
	ListSubmissions(ctx context.Context, eventID string) ([]models.Submission, error)
}

type UserPointsStore interface {
	GetUserPoints(ctx context.Context, userID string) (*models.UserPoints, error)
	SaveUserPoints(ctx context.Context, points *models.UserPoints) error
	ListUserPoints(ctx context.Context) ([]models.UserPoints, error)
}
