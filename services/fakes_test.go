package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"speedrun-league-system/models"
	"speedrun-league-system/storage"
)

// fakeStore is an in-memory implementation of every storage interface.
// It deep-copies aggregates on the way in and out, like a real row store, so
// a discarded in-memory mutation can never leak into "persisted" state.
type fakeStore struct {
	mu           sync.Mutex
	events       map[string]models.Event
	participants map[string]models.Participant // eventID + "/" + userID
	submissions  map[string]models.Submission
	points       map[string]models.UserPoints

	saveUserPointsErr  error
	listSubmissionsErr error
}

// errFakeStore stands in for an arbitrary backend failure.
var errFakeStore = errors.New("fake store failure")

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:       make(map[string]models.Event),
		participants: make(map[string]models.Participant),
		submissions:  make(map[string]models.Submission),
		points:       make(map[string]models.UserPoints),
	}
}

func (f *fakeStore) CreateEvent(_ context.Context, event *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[event.ID] = *event
	return nil
}

func (f *fakeStore) GetEvent(_ context.Context, id string) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &event, nil
}

func (f *fakeStore) ListEvents(_ context.Context) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []models.Event
	for _, e := range f.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })
	return events, nil
}

func participantKey(eventID, userID string) string {
	return eventID + "/" + userID
}

func (f *fakeStore) CreateParticipant(_ context.Context, participant *models.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants[participantKey(participant.EventID, participant.UserID)] = *participant
	return nil
}

func (f *fakeStore) GetParticipant(_ context.Context, eventID, userID string) (*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	participant, ok := f.participants[participantKey(eventID, userID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &participant, nil
}

func (f *fakeStore) ListParticipants(_ context.Context, eventID string) ([]models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var participants []models.Participant
	for _, p := range f.participants {
		if p.EventID == eventID {
			participants = append(participants, p)
		}
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].RegisteredAt.Before(participants[j].RegisteredAt)
	})
	return participants, nil
}

func (f *fakeStore) CountParticipants(_ context.Context, eventID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, p := range f.participants {
		if p.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CreateSubmission(_ context.Context, submission *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions[submission.ID] = *submission
	return nil
}

func (f *fakeStore) GetSubmission(_ context.Context, id string) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	submission, ok := f.submissions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &submission, nil
}

func (f *fakeStore) SaveSubmission(_ context.Context, submission *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions[submission.ID] = *submission
	return nil
}

func (f *fakeStore) ListSubmissions(_ context.Context, eventID string) ([]models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listSubmissionsErr != nil {
		return nil, f.listSubmissionsErr
	}
	var submissions []models.Submission
	for _, s := range f.submissions {
		if s.EventID == eventID {
			submissions = append(submissions, s)
		}
	}
	sort.Slice(submissions, func(i, j int) bool {
		return submissions[i].SubmittedAt.Before(submissions[j].SubmittedAt)
	})
	return submissions, nil
}

func clonePoints(u models.UserPoints) models.UserPoints {
	c := u
	c.SeasonPoints = make(map[string]int64, len(u.SeasonPoints))
	for k, v := range u.SeasonPoints {
		c.SeasonPoints[k] = v
	}
	c.ActionCounts = make(map[models.ActionKind]int64, len(u.ActionCounts))
	for k, v := range u.ActionCounts {
		c.ActionCounts[k] = v
	}
	c.LastAwarded = make(map[models.ActionKind]time.Time, len(u.LastAwarded))
	for k, v := range u.LastAwarded {
		c.LastAwarded[k] = v
	}
	c.Achievements = append([]string(nil), u.Achievements...)
	c.Medals = append([]models.Medal(nil), u.Medals...)
	c.History = append([]models.PointHistoryEntry(nil), u.History...)
	return c
}

func (f *fakeStore) GetUserPoints(_ context.Context, userID string) (*models.UserPoints, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	points, ok := f.points[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := clonePoints(points)
	return &clone, nil
}

func (f *fakeStore) SaveUserPoints(_ context.Context, points *models.UserPoints) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveUserPointsErr != nil {
		return f.saveUserPointsErr
	}
	f.points[points.UserID] = clonePoints(*points)
	return nil
}

func (f *fakeStore) ListUserPoints(_ context.Context) ([]models.UserPoints, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.UserPoints
	for _, u := range f.points {
		all = append(all, clonePoints(u))
	}
	return all, nil
}

// fakeAwarder records cross-component award calls from the ledger.
type fakeAwarder struct {
	mu    sync.Mutex
	calls []models.ActionKind
}

func (f *fakeAwarder) AwardPoints(_ context.Context, _ string, kind models.ActionKind, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind)
	return true, nil
}

// sequentialIDs returns an id generator producing prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}
