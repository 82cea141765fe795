package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"speedrun-league-system/models"
	"speedrun-league-system/storage"

	"github.com/google/uuid"
)

// PointsConfig is the closed configuration of the points engine: the award
// table, cooldowns, rank tiers, achievements and seasonal medals.
type PointsConfig struct {
	PointValues     map[models.ActionKind]int64
	Cooldowns       map[models.ActionKind]time.Duration
	DefaultCooldown time.Duration
	RankTiers       []models.RankTier
	Achievements    []models.Achievement
	Medals          []models.MedalDefinition
	SaveAttempts    int
	RetryBackoff    time.Duration
}

func DefaultPointsConfig() PointsConfig {
	return PointsConfig{
		PointValues: models.DefaultPointValues,
		Cooldowns: map[models.ActionKind]time.Duration{
			models.ActionChatMessage: time.Second,
		},
		DefaultCooldown: 5 * time.Second,
		RankTiers:       models.DefaultRankTiers,
		Achievements:    models.DefaultAchievements,
		Medals:          models.DefaultSeasonMedals,
		SaveAttempts:    3,
		RetryBackoff:    100 * time.Millisecond,
	}
}

// PointsService owns the per-user points aggregate. All mutating operations
// on a given user are serialized through a per-user lock so concurrent awards
// can never clobber each other's increments; the rate-limit check happens
// inside the same critical section as the award decision.
type PointsService struct {
	store storage.UserPointsStore
	cfg   PointsConfig
	clock func() time.Time
	newID func() string

	mu           sync.Mutex
	userLocks    map[string]*sync.Mutex
	activeSeason string

	// Serializes season rollovers so a scheduler tick and an admin call can
	// never both close the same season.
	rolloverMu sync.Mutex
}

func NewPointsService(store storage.UserPointsStore, cfg PointsConfig) *PointsService {
	s := &PointsService{
		store:     store,
		cfg:       cfg,
		clock:     time.Now,
		newID:     uuid.NewString,
		userLocks: make(map[string]*sync.Mutex),
	}
	s.activeSeason = models.SeasonKey(s.clock())
	return s
}

func (s *PointsService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// ActiveSeason returns the season key awards currently accrue to.
func (s *PointsService) ActiveSeason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSeason
}

func (s *PointsService) cooldown(kind models.ActionKind) time.Duration {
	if d, ok := s.cfg.Cooldowns[kind]; ok {
		return d
	}
	return s.cfg.DefaultCooldown
}

// AwardPoints credits one action. Returns false without mutation when the
// action is unknown or still inside its cooldown window — both are soft
// rejections, not errors. On success the full next state (history, totals,
// season bucket, rank, achievements) is computed in memory and persisted as
// one aggregate write; a store failure leaves the caller-visible state
// untouched and maps to PersistenceError.
func (s *PointsService) AwardPoints(ctx context.Context, userID string, kind models.ActionKind, description string) (bool, error) {
	value, ok := s.cfg.PointValues[kind]
	if !ok {
		return false, nil
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	points, err := s.loadOrInit(ctx, userID)
	if err != nil {
		return false, err
	}

	now := s.clock()
	if last, ok := points.LastAwarded[kind]; ok {
		if now.Sub(last) < s.cooldown(kind) {
			return false, nil
		}
	}

	season := s.ActiveSeason()
	points.LastAwarded[kind] = now
	points.TotalPoints += value
	points.SeasonPoints[season] += value
	points.ActionCounts[kind]++
	points.CurrentRank = s.CalculateRank(points.TotalPoints).Key
	points.AppendHistory(models.PointHistoryEntry{
		Timestamp:   now,
		Action:      kind,
		Points:      value,
		Description: description,
	})
	s.evaluateAchievements(points)

	if err := s.saveWithRetry(ctx, points); err != nil {
		return false, err
	}
	return true, nil
}

// CheckAchievements re-evaluates every locked achievement against the current
// aggregate and persists any newly unlocked keys. Unlocks are one-way and
// never duplicated.
func (s *PointsService) CheckAchievements(ctx context.Context, userID string) ([]string, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	points, err := s.loadOrInit(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlocked := s.evaluateAchievements(points)
	if len(unlocked) == 0 {
		return nil, nil
	}
	if err := s.saveWithRetry(ctx, points); err != nil {
		return nil, err
	}
	return unlocked, nil
}

// evaluateAchievements unlocks every qualifying achievement in one pass.
// Action-count predicates read the monotonic counters, so trimming the
// history log can never hide a qualifying action.
func (s *PointsService) evaluateAchievements(points *models.UserPoints) []string {
	var unlocked []string
	for _, a := range s.cfg.Achievements {
		if points.HasAchievement(a.Key) {
			continue
		}
		if !achievementSatisfied(a, points) {
			continue
		}
		points.Achievements = append(points.Achievements, a.Key)
		unlocked = append(unlocked, a.Key)
	}
	return unlocked
}

func achievementSatisfied(a models.Achievement, points *models.UserPoints) bool {
	if a.RequiredPoints > 0 {
		return points.TotalPoints >= a.RequiredPoints
	}
	if len(a.RequiredActions) == 0 {
		return false
	}
	for kind, min := range a.RequiredActions {
		if points.ActionCounts[kind] < min {
			return false
		}
	}
	return true
}

// CalculateRank returns the tier with the greatest threshold not exceeding
// totalPoints.
func (s *PointsService) CalculateRank(totalPoints int64) models.RankTier {
	current := s.cfg.RankTiers[0]
	for _, tier := range s.cfg.RankTiers {
		if totalPoints >= tier.MinPoints {
			current = tier
		}
	}
	return current
}

// LeaderboardFilter scopes a points leaderboard query. An empty Season means
// all-time standings by total points.
type LeaderboardFilter struct {
	Season string
	Limit  int
}

// PointsStanding is one row of a points leaderboard.
type PointsStanding struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Points   int64  `json:"points"`
	RankTier string `json:"rank_tier"`
}

// GetLeaderboard ranks every user by total or seasonal points, descending.
// Ties break by user id for a deterministic order.
func (s *PointsService) GetLeaderboard(ctx context.Context, filter LeaderboardFilter) ([]PointsStanding, error) {
	all, err := s.store.ListUserPoints(ctx)
	if err != nil {
		return nil, NewPersistenceError("list user points", err)
	}

	var standings []PointsStanding
	for _, u := range all {
		points := u.TotalPoints
		if filter.Season != "" {
			points = u.SeasonPoints[filter.Season]
			if points == 0 {
				continue
			}
		}
		standings = append(standings, PointsStanding{
			UserID:   u.UserID,
			Username: u.Username,
			Points:   points,
			RankTier: u.CurrentRank,
		})
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		return standings[i].UserID < standings[j].UserID
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	if filter.Limit > 0 && len(standings) > filter.Limit {
		standings = standings[:filter.Limit]
	}
	return standings, nil
}

// GetUserPosition finds one user's row in the filtered leaderboard.
func (s *PointsService) GetUserPosition(ctx context.Context, userID string, filter LeaderboardFilter) (*PointsStanding, error) {
	filter.Limit = 0
	standings, err := s.GetLeaderboard(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, standing := range standings {
		if standing.UserID == userID {
			return &standing, nil
		}
	}
	return nil, NewNotFoundError("user standing", userID)
}

// GetUserPoints returns one user's aggregate, initializing an empty one for
// unknown users.
func (s *PointsService) GetUserPoints(ctx context.Context, userID string) (*models.UserPoints, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()
	return s.loadOrInit(ctx, userID)
}

// SetUsername records the display name used on points leaderboards.
func (s *PointsService) SetUsername(ctx context.Context, userID, username string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	points, err := s.loadOrInit(ctx, userID)
	if err != nil {
		return err
	}
	if points.Username == username {
		return nil
	}
	points.Username = username
	return s.saveWithRetry(ctx, points)
}

// SeasonRollover summarizes one season transition.
type SeasonRollover struct {
	ClosedSeason string           `json:"closed_season"`
	NewSeason    string           `json:"new_season"`
	Medalists    []PointsStanding `json:"medalists"`
}

// StartNewSeason closes the active season: the server-computed top-3 of the
// season leaderboard receive their medals and bonus points, then the next
// season key becomes active with an empty bucket. Prior season buckets are
// never deleted.
func (s *PointsService) StartNewSeason(ctx context.Context) (*SeasonRollover, error) {
	s.rolloverMu.Lock()
	defer s.rolloverMu.Unlock()
	return s.startNewSeason(ctx)
}

// RolloverIfDue rolls the season over only when the calendar has moved past
// the active season key. An active key at or ahead of the calendar — the
// normal case, or the state after a manual mid-month rollover — is left
// alone. Season keys are zero-padded, so string order is chronological order.
func (s *PointsService) RolloverIfDue(ctx context.Context, now time.Time) (*SeasonRollover, error) {
	s.rolloverMu.Lock()
	defer s.rolloverMu.Unlock()
	if models.SeasonKey(now) <= s.ActiveSeason() {
		return nil, nil
	}
	return s.startNewSeason(ctx)
}

func (s *PointsService) startNewSeason(ctx context.Context) (*SeasonRollover, error) {
	closing := s.ActiveSeason()
	next, err := models.NextSeasonKey(closing)
	if err != nil {
		return nil, NewValidationError(err.Error())
	}

	standings, err := s.GetLeaderboard(ctx, LeaderboardFilter{Season: closing, Limit: len(s.cfg.Medals)})
	if err != nil {
		return nil, err
	}

	for i, standing := range standings {
		medal := s.cfg.Medals[i]
		if err := s.awardMedal(ctx, standing.UserID, closing, medal); err != nil {
			return nil, err
		}
		log.Printf("[SEASON] %s medal for season %s → %s (+%d points)", medal.Name, closing, standing.UserID, medal.BonusPoints)
	}

	s.mu.Lock()
	s.activeSeason = next
	s.mu.Unlock()

	return &SeasonRollover{
		ClosedSeason: closing,
		NewSeason:    next,
		Medalists:    standings,
	}, nil
}

// awardMedal grants one podium medal. Deliberately bypasses rate limiting:
// the rollover is an administrative action, not a user action.
func (s *PointsService) awardMedal(ctx context.Context, userID, season string, medal models.MedalDefinition) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	points, err := s.loadOrInit(ctx, userID)
	if err != nil {
		return err
	}

	now := s.clock()
	points.Medals = append(points.Medals, models.Medal{
		Season:      season,
		Place:       medal.Place,
		Name:        medal.Name,
		BonusPoints: medal.BonusPoints,
		AwardedAt:   now,
	})
	points.TotalPoints += medal.BonusPoints
	points.ActionCounts[models.ActionPodiumFinish]++
	points.CurrentRank = s.CalculateRank(points.TotalPoints).Key
	points.AppendHistory(models.PointHistoryEntry{
		Timestamp:   now,
		Action:      models.ActionPodiumFinish,
		Points:      medal.BonusPoints,
		Description: fmt.Sprintf("%s, season %s", medal.Name, season),
	})
	s.evaluateAchievements(points)

	return s.saveWithRetry(ctx, points)
}

func (s *PointsService) loadOrInit(ctx context.Context, userID string) (*models.UserPoints, error) {
	points, err := s.store.GetUserPoints(ctx, userID)
	if err == nil {
		// jsonb maps round-trip as nil when empty
		if points.SeasonPoints == nil {
			points.SeasonPoints = make(map[string]int64)
		}
		if points.ActionCounts == nil {
			points.ActionCounts = make(map[models.ActionKind]int64)
		}
		if points.LastAwarded == nil {
			points.LastAwarded = make(map[models.ActionKind]time.Time)
		}
		return points, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, NewPersistenceError("load user points", err)
	}
	return &models.UserPoints{
		ID:           s.newID(),
		UserID:       userID,
		CurrentRank:  s.cfg.RankTiers[0].Key,
		SeasonPoints: make(map[string]int64),
		ActionCounts: make(map[models.ActionKind]int64),
		LastAwarded:  make(map[models.ActionKind]time.Time),
	}, nil
}

// saveWithRetry persists the aggregate with bounded retry and backoff. The
// caller discards the in-memory copy on failure, so a failed save leaves no
// visible mutation.
func (s *PointsService) saveWithRetry(ctx context.Context, points *models.UserPoints) error {
	var lastErr error
	for attempt := 0; attempt < s.cfg.SaveAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(s.cfg.RetryBackoff * time.Duration(attempt))
		}
		if lastErr = s.store.SaveUserPoints(ctx, points); lastErr == nil {
			return nil
		}
	}
	return NewPersistenceError("save user points", lastErr)
}
