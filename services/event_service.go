package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"speedrun-league-system/models"
	"speedrun-league-system/storage"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// EventService owns the event and participant lifecycle. Lifecycle state is
// derived from the clock on every read; nothing caches "is active".
// Registrations for the same event are serialized through a per-event lock so
// concurrent joins cannot slip past the capacity or duplicate checks.
type EventService struct {
	events       storage.EventStore
	participants storage.ParticipantStore
	submissions  storage.SubmissionStore

	clock func() time.Time
	newID func() string

	mu         sync.Mutex
	eventLocks map[string]*sync.Mutex
}

func NewEventService(events storage.EventStore, participants storage.ParticipantStore, submissions storage.SubmissionStore) *EventService {
	return &EventService{
		events:       events,
		participants: participants,
		submissions:  submissions,
		clock:        time.Now,
		newID:        uuid.NewString,
		eventLocks:   make(map[string]*sync.Mutex),
	}
}

func (s *EventService) eventLock(eventID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.eventLocks[eventID]
	if !ok {
		lock = &sync.Mutex{}
		s.eventLocks[eventID] = lock
	}
	return lock
}

// EventDefinition is the organizer's input for a new event.
type EventDefinition struct {
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	AllowedCategories []models.Category `json:"allowed_categories"`
	StartTime         time.Time         `json:"start_time"`
	EndTime           time.Time         `json:"end_time"`
	MaxParticipants   int               `json:"max_participants"`
	GlitchDetection   bool              `json:"glitch_detection"`
	AdminOnly         bool              `json:"admin_only"`
}

// CreateEvent validates the definition, assigns a fresh id and slug and
// stores the event. Every violated rule is reported, not just the first.
func (s *EventService) CreateEvent(ctx context.Context, def EventDefinition) (*models.Event, error) {
	var violations []string
	if def.Name == "" {
		violations = append(violations, "name is required")
	}
	if len(def.AllowedCategories) == 0 {
		violations = append(violations, "allowed_categories must not be empty")
	}
	for _, c := range def.AllowedCategories {
		violations = append(violations, c.Validate()...)
	}
	if !def.EndTime.After(def.StartTime) {
		violations = append(violations, "end_time must be after start_time")
	}
	if def.MaxParticipants < 0 {
		violations = append(violations, "max_participants must not be negative")
	}
	if len(violations) > 0 {
		return nil, NewValidationError(violations...)
	}

	categoryIDs := make([]string, 0, len(def.AllowedCategories))
	for _, c := range def.AllowedCategories {
		categoryIDs = append(categoryIDs, c.CanonicalID())
	}

	event := &models.Event{
		ID:                s.newID(),
		Slug:              slug.Make(def.Name),
		Name:              def.Name,
		Description:       def.Description,
		AllowedCategories: categoryIDs,
		StartTime:         def.StartTime,
		EndTime:           def.EndTime,
		MaxParticipants:   def.MaxParticipants,
		GlitchDetection:   def.GlitchDetection,
		AdminOnly:         def.AdminOnly,
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, NewPersistenceError("create event", err)
	}
	event.State = event.StateAt(s.clock())
	return event, nil
}

// RegisterParticipant joins a user to an active event under one of its
// allowed categories. Double registration is rejected, not merged.
func (s *EventService) RegisterParticipant(ctx context.Context, eventID, userID, username string, category models.Category) (*models.Participant, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if state := event.StateAt(now); state != models.EventActive {
		return nil, NewStateError("event %q is %s, registration is only open while it is active", event.Name, state)
	}

	// Capacity and duplicate checks are check-then-insert; the per-event lock
	// makes them atomic against concurrent registrations.
	lock := s.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	if event.MaxParticipants > 0 {
		count, err := s.participants.CountParticipants(ctx, eventID)
		if err != nil {
			return nil, NewPersistenceError("count participants", err)
		}
		if count >= int64(event.MaxParticipants) {
			return nil, NewStateError("event %q is full (%d participants)", event.Name, event.MaxParticipants)
		}
	}

	categoryID := category.CanonicalID()
	if !event.AllowsCategory(categoryID) {
		return nil, NewStateError("category %s is not allowed in event %q", categoryID, event.Name)
	}

	if _, err := s.participants.GetParticipant(ctx, eventID, userID); err == nil {
		return nil, NewStateError("user %s is already registered for event %q", userID, event.Name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, NewPersistenceError("load participant", err)
	}

	participant := &models.Participant{
		ID:           s.newID(),
		EventID:      eventID,
		UserID:       userID,
		Username:     username,
		CategoryID:   categoryID,
		RegisteredAt: now,
	}
	if err := s.participants.CreateParticipant(ctx, participant); err != nil {
		return nil, NewPersistenceError("create participant", err)
	}
	return participant, nil
}

// GetActiveEvents filters stored events by derived state at call time.
func (s *EventService) GetActiveEvents(ctx context.Context) ([]models.Event, error) {
	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, NewPersistenceError("list events", err)
	}
	now := s.clock()
	var active []models.Event
	for _, e := range events {
		if e.StateAt(now) == models.EventActive {
			e.State = models.EventActive
			active = append(active, e)
		}
	}
	return active, nil
}

func (s *EventService) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	event.State = event.StateAt(s.clock())
	return event, nil
}

func (s *EventService) GetEventParticipants(ctx context.Context, eventID string) ([]models.Participant, error) {
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, err
	}
	participants, err := s.participants.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, NewPersistenceError("list participants", err)
	}
	return participants, nil
}

// EventStatistics summarizes registration and ledger activity for one event.
type EventStatistics struct {
	EventID                string           `json:"event_id"`
	ParticipantCount       int64            `json:"participant_count"`
	ParticipantsByCategory map[string]int64 `json:"participants_by_category"`
	SubmissionCount        int64            `json:"submission_count"`
	VerifiedCount          int64            `json:"verified_count"`
	DisqualifiedCount      int64            `json:"disqualified_count"`
}

func (s *EventService) GetEventStatistics(ctx context.Context, eventID string) (*EventStatistics, error) {
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, err
	}

	participants, err := s.participants.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, NewPersistenceError("list participants", err)
	}
	byCategory := make(map[string]int64)
	for _, p := range participants {
		byCategory[p.CategoryID]++
	}

	submissions, err := s.submissions.ListSubmissions(ctx, eventID)
	if err != nil {
		return nil, NewPersistenceError("list submissions", err)
	}
	stats := &EventStatistics{
		EventID:                eventID,
		ParticipantCount:       int64(len(participants)),
		ParticipantsByCategory: byCategory,
		SubmissionCount:        int64(len(submissions)),
	}
	for _, sub := range submissions {
		if sub.Verified {
			stats.VerifiedCount++
		}
		if sub.Disqualified {
			stats.DisqualifiedCount++
		}
	}
	return stats, nil
}

func (s *EventService) getEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewNotFoundError("event", eventID)
		}
		return nil, NewPersistenceError("load event", err)
	}
	return event, nil
}
