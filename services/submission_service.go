package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"speedrun-league-system/models"
	"speedrun-league-system/storage"

	"github.com/google/uuid"
)

// pointsAwarder is the slice of the points engine the ledger needs. Cross-
// component effects go through this public contract only.
type pointsAwarder interface {
	AwardPoints(ctx context.Context, userID string, kind models.ActionKind, description string) (bool, error)
}

// SubmissionService owns the append-only run ledger. Every mutation bumps a
// per-event version that keys leaderboard caching and the change feed.
type SubmissionService struct {
	events       storage.EventStore
	participants storage.ParticipantStore
	submissions  storage.SubmissionStore
	points       pointsAwarder // optional

	clock func() time.Time
	newID func() string

	mu       sync.Mutex
	versions map[string]uint64
}

func NewSubmissionService(events storage.EventStore, participants storage.ParticipantStore, submissions storage.SubmissionStore, points pointsAwarder) *SubmissionService {
	return &SubmissionService{
		events:       events,
		participants: participants,
		submissions:  submissions,
		points:       points,
		clock:        time.Now,
		newID:        uuid.NewString,
		versions:     make(map[string]uint64),
	}
}

// SubmitRun appends a new pending submission for a registered participant.
// The category must equal the participant's registered category by canonical
// id, and emulator runs must carry an explicit glitch declaration (false
// means a clean run; omission is the failure case).
func (s *SubmissionService) SubmitRun(ctx context.Context, eventID, userID string, category models.Category, timeMs int64, evidenceURL string, glitchDeclared *bool) (*models.Submission, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewNotFoundError("event", eventID)
		}
		return nil, NewPersistenceError("load event", err)
	}

	participant, err := s.participants.GetParticipant(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewNotFoundError("participant", userID)
		}
		return nil, NewPersistenceError("load participant", err)
	}

	categoryID := category.CanonicalID()
	if categoryID != participant.CategoryID {
		return nil, NewStateError("submission category %s does not match registered category %s", categoryID, participant.CategoryID)
	}

	var violations []string
	if category.Platform.IsEmulator() && glitchDeclared == nil {
		violations = append(violations, "glitch declaration is required for emulator runs (false means a clean run)")
	}
	if timeMs < 0 {
		violations = append(violations, "time_ms must not be negative")
	}
	if len(violations) > 0 {
		return nil, NewValidationError(violations...)
	}

	submission := &models.Submission{
		ID:             s.newID(),
		EventID:        eventID,
		UserID:         userID,
		CategoryID:     categoryID,
		TimeMs:         timeMs,
		EvidenceURL:    evidenceURL,
		GlitchDeclared: glitchDeclared,
		SubmittedAt:    s.clock(),
	}
	if err := s.submissions.CreateSubmission(ctx, submission); err != nil {
		return nil, NewPersistenceError("create submission", err)
	}
	s.bumpVersion(eventID)

	if s.points != nil {
		desc := fmt.Sprintf("run submitted to event %s (%s)", event.Name, categoryID)
		if _, err := s.points.AwardPoints(ctx, userID, models.ActionRunUploaded, desc); err != nil {
			log.Printf("[LEDGER] points award after submission %s failed: %v", submission.ID, err)
		}
	}
	return submission, nil
}

// Verify marks a submission verified. Idempotent.
func (s *SubmissionService) Verify(ctx context.Context, submissionID string) (*models.Submission, error) {
	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if submission.Verified {
		return submission, nil
	}
	submission.Verified = true
	if err := s.submissions.SaveSubmission(ctx, submission); err != nil {
		return nil, NewPersistenceError("save submission", err)
	}
	s.bumpVersion(submission.EventID)
	return submission, nil
}

// Disqualify flags a submission. Idempotent on the flag; the latest reason
// wins. A verified submission can still be disqualified — the flag overrides.
func (s *SubmissionService) Disqualify(ctx context.Context, submissionID, reason string) (*models.Submission, error) {
	submission, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	submission.Disqualified = true
	submission.DisqualifyReason = reason
	if err := s.submissions.SaveSubmission(ctx, submission); err != nil {
		return nil, NewPersistenceError("save submission", err)
	}
	s.bumpVersion(submission.EventID)
	return submission, nil
}

// ListSubmissions returns the full ledger for an event, oldest first.
func (s *SubmissionService) ListSubmissions(ctx context.Context, eventID string) ([]models.Submission, error) {
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewNotFoundError("event", eventID)
		}
		return nil, NewPersistenceError("load event", err)
	}
	submissions, err := s.submissions.ListSubmissions(ctx, eventID)
	if err != nil {
		return nil, NewPersistenceError("list submissions", err)
	}
	return submissions, nil
}

// LedgerVersion increases on every mutation for the event. Leaderboard cache
// keys include it so stale rankings can never be served.
func (s *SubmissionService) LedgerVersion(eventID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[eventID]
}

func (s *SubmissionService) bumpVersion(eventID string) {
	s.mu.Lock()
	s.versions[eventID]++
	s.mu.Unlock()
}

func (s *SubmissionService) getSubmission(ctx context.Context, submissionID string) (*models.Submission, error) {
	submission, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewNotFoundError("submission", submissionID)
		}
		return nil, NewPersistenceError("load submission", err)
	}
	return submission, nil
}
