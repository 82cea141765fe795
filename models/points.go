package models

import (
	"fmt"
	"time"
)

// ActionKind is the closed enumeration of point-worthy platform actions.
// The point table and achievement predicates key on it; free-form strings are
// rejected at the award boundary.
type ActionKind string

const (
	ActionRunUploaded        ActionKind = "run_uploaded"
	ActionPodiumFinish       ActionKind = "podium_finish"
	ActionArtworkUploaded    ActionKind = "artwork_uploaded"
	ActionCorrectQuizAnswer  ActionKind = "correct_quiz_answer"
	ActionForumPost          ActionKind = "forum_post"
	ActionChatMessage        ActionKind = "chat_message"
	ActionProfileCompleted   ActionKind = "profile_completed"
	ActionMarketplaceSale    ActionKind = "marketplace_sale_confirmed"
)

var AllActionKinds = []ActionKind{
	ActionRunUploaded,
	ActionPodiumFinish,
	ActionArtworkUploaded,
	ActionCorrectQuizAnswer,
	ActionForumPost,
	ActionChatMessage,
	ActionProfileCompleted,
	ActionMarketplaceSale,
}

// DefaultPointValues is the static award table.
var DefaultPointValues = map[ActionKind]int64{
	ActionRunUploaded:       50,
	ActionPodiumFinish:      100,
	ActionArtworkUploaded:   25,
	ActionCorrectQuizAnswer: 10,
	ActionForumPost:         5,
	ActionChatMessage:       1,
	ActionProfileCompleted:  20,
	ActionMarketplaceSale:   30,
}

// RankTier maps a points threshold to a named tier. Tiers are ordered by
// ascending threshold starting at 0.
type RankTier struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	MinPoints int64  `json:"min_points"`
}

var DefaultRankTiers = []RankTier{
	{Key: "rookie", Name: "Rookie", MinPoints: 0},
	{Key: "bronze", Name: "Bronze", MinPoints: 100},
	{Key: "silver", Name: "Silver", MinPoints: 500},
	{Key: "gold", Name: "Gold", MinPoints: 1500},
	{Key: "platinum", Name: "Platinum", MinPoints: 5000},
	{Key: "diamond", Name: "Diamond", MinPoints: 15000},
	{Key: "legend", Name: "Legend", MinPoints: 50000},
}

// Achievement unlocks once a user either reaches RequiredPoints or satisfies
// every (action, minimum count) pair in RequiredActions.
type Achievement struct {
	Key             string               `json:"key"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	RequiredPoints  int64                `json:"required_points,omitempty"`
	RequiredActions map[ActionKind]int64 `json:"required_actions,omitempty"`
}

var DefaultAchievements = []Achievement{
	{
		Key:             "first_run",
		Name:            "First Lap",
		Description:     "Uploaded your first run",
		RequiredActions: map[ActionKind]int64{ActionRunUploaded: 1},
	},
	{
		Key:             "grinder",
		Name:            "Grinder",
		Description:     "Uploaded 10 runs",
		RequiredActions: map[ActionKind]int64{ActionRunUploaded: 10},
	},
	{
		Key:             "podium_regular",
		Name:            "Podium Regular",
		Description:     "Finished on the podium 3 times",
		RequiredActions: map[ActionKind]int64{ActionPodiumFinish: 3},
	},
	{
		Key:             "quiz_master",
		Name:            "Quiz Master",
		Description:     "Answered 25 quiz questions correctly",
		RequiredActions: map[ActionKind]int64{ActionCorrectQuizAnswer: 25},
	},
	{
		Key:             "community_voice",
		Name:            "Community Voice",
		Description:     "Posted 50 forum posts and 200 chat messages",
		RequiredActions: map[ActionKind]int64{ActionForumPost: 50, ActionChatMessage: 200},
	},
	{
		Key:            "point_collector",
		Name:           "Point Collector",
		Description:    "Earned 1,000 points",
		RequiredPoints: 1000,
	},
	{
		Key:            "point_hoarder",
		Name:           "Point Hoarder",
		Description:    "Earned 10,000 points",
		RequiredPoints: 10000,
	},
}

// MedalDefinition describes the seasonal reward for one podium place.
type MedalDefinition struct {
	Place       int    `json:"place"`
	Name        string `json:"name"`
	BonusPoints int64  `json:"bonus_points"`
}

var DefaultSeasonMedals = []MedalDefinition{
	{Place: 1, Name: "Season Champion", BonusPoints: 500},
	{Place: 2, Name: "Season Runner-Up", BonusPoints: 300},
	{Place: 3, Name: "Season Third Place", BonusPoints: 150},
}

// Medal is a granted seasonal reward. Append-only.
type Medal struct {
	Season      string    `json:"season"`
	Place       int       `json:"place"`
	Name        string    `json:"name"`
	BonusPoints int64     `json:"bonus_points"`
	AwardedAt   time.Time `json:"awarded_at"`
}

// PointHistoryEntry is one line of a user's award log.
type PointHistoryEntry struct {
	Timestamp   time.Time  `json:"timestamp"`
	Action      ActionKind `json:"action"`
	Points      int64      `json:"points"`
	Description string     `json:"description,omitempty"`
}

// HistoryLimit bounds the retained award log. Achievement counting never
// depends on the log: ActionCounts grows monotonically and survives trimming.
const HistoryLimit = 100

// UserPoints is the per-user progression aggregate. Owned exclusively by the
// points service; one row per user, persisted wholesale as the unit of
// atomicity.
type UserPoints struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID   string `json:"user_id" gorm:"uniqueIndex;not null"`
	Username string `json:"username"`

	TotalPoints int64  `json:"total_points" gorm:"default:0"`
	CurrentRank string `json:"current_rank"` // rank tier key, derived from TotalPoints

	// Season key → points earned in that season. Buckets from prior seasons
	// are retained forever.
	SeasonPoints map[string]int64 `json:"season_points" gorm:"type:jsonb;serializer:json"`

	// Monotonic per-action counters; the source of truth for action-count
	// achievements.
	ActionCounts map[ActionKind]int64 `json:"action_counts" gorm:"type:jsonb;serializer:json"`

	// Unlocked achievement keys. Set semantics, never shrinks.
	Achievements []string `json:"achievements" gorm:"type:jsonb;serializer:json"`

	// Append-only medal list.
	Medals []Medal `json:"medals" gorm:"type:jsonb;serializer:json"`

	// Award log, trimmed to the last HistoryLimit entries.
	History []PointHistoryEntry `json:"history" gorm:"type:jsonb;serializer:json"`

	// Action kind → last award time, for rate limiting.
	LastAwarded map[ActionKind]time.Time `json:"last_awarded" gorm:"type:jsonb;serializer:json"`

	Timestamps
}

// HasAchievement reports whether the key is already unlocked.
func (u *UserPoints) HasAchievement(key string) bool {
	for _, k := range u.Achievements {
		if k == key {
			return true
		}
	}
	return false
}

// AppendHistory records an award and trims the log to HistoryLimit.
func (u *UserPoints) AppendHistory(entry PointHistoryEntry) {
	u.History = append(u.History, entry)
	if len(u.History) > HistoryLimit {
		u.History = u.History[len(u.History)-HistoryLimit:]
	}
}

// SeasonKey derives the calendar season bucket for an instant. The unit is a
// policy parameter; this design uses year + month.
func SeasonKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// NextSeasonKey returns the season following the given key.
func NextSeasonKey(key string) (string, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return "", fmt.Errorf("malformed season key %q: %w", key, err)
	}
	return SeasonKey(t.AddDate(0, 1, 0)), nil
}
