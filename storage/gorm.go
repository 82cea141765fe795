package storage

import (
	"context"
	"errors"

	"speedrun-league-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements every store interface against Postgres.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) CreateEvent(ctx context.Context, event *models.Event) error {
	return s.DB.WithContext(ctx).Create(event).Error
}

func (s *GormStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := s.DB.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (s *GormStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := s.DB.WithContext(ctx).Order("start_time ASC").Find(&events).Error
	return events, err
}

func (s *GormStore) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	return s.DB.WithContext(ctx).Create(participant).Error
}

func (s *GormStore) GetParticipant(ctx context.Context, eventID, userID string) (*models.Participant, error) {
	var participant models.Participant
	err := s.DB.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&participant).Error
	if err != nil {
		return nil, translate(err)
	}
	return &participant, nil
}

func (s *GormStore) ListParticipants(ctx context.Context, eventID string) ([]models.Participant, error) {
	var participants []models.Participant
	err := s.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("registered_at ASC").
		Find(&participants).Error
	return participants, err
}

func (s *GormStore) CountParticipants(ctx context.Context, eventID string) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Participant{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

func (s *GormStore) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	return s.DB.WithContext(ctx).Create(submission).Error
}

func (s *GormStore) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	var submission models.Submission
	if err := s.DB.WithContext(ctx).First(&submission, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &submission, nil
}

func (s *GormStore) SaveSubmission(ctx context.Context, submission *models.Submission) error {
	return s.DB.WithContext(ctx).Save(submission).Error
}

func (s *GormStore) ListSubmissions(ctx context.Context, eventID string) ([]models.Submission, error) {
	var submissions []models.Submission
	err := s.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("submitted_at ASC").
		Find(&submissions).Error
	return submissions, err
}

func (s *GormStore) GetUserPoints(ctx context.Context, userID string) (*models.UserPoints, error) {
	var points models.UserPoints
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&points).Error
	if err != nil {
		return nil, translate(err)
	}
	return &points, nil
}

// SaveUserPoints upserts the whole aggregate in one statement; the row is the
// unit of atomicity for a single user.
func (s *GormStore) SaveUserPoints(ctx context.Context, points *models.UserPoints) error {
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(points).Error
}

func (s *GormStore) ListUserPoints(ctx context.Context) ([]models.UserPoints, error) {
	var all []models.UserPoints
	err := s.DB.WithContext(ctx).Find(&all).Error
	return all, err
}
