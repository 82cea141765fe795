package services

import (
	"context"
	"sort"

	"speedrun-league-system/models"
	"speedrun-league-system/storage"

	lru "github.com/hashicorp/golang-lru"
)

const leaderboardCacheSize = 256

// ledgerVersions exposes the submission ledger's per-event version counter.
type ledgerVersions interface {
	LedgerVersion(eventID string) uint64
}

// LeaderboardService derives ranked standings from the ledger. Rankings are
// recomputed fresh per call; the LRU memo is keyed by (event, category,
// ledger version, dedup flag) so any ledger mutation implicitly invalidates
// cached results for the affected event.
type LeaderboardService struct {
	submissions storage.SubmissionStore
	ledger      ledgerVersions
	cache       *lru.Cache
}

func NewLeaderboardService(submissions storage.SubmissionStore, ledger ledgerVersions) *LeaderboardService {
	cache, _ := lru.New(leaderboardCacheSize)
	return &LeaderboardService{
		submissions: submissions,
		ledger:      ledger,
		cache:       cache,
	}
}

type leaderboardKey struct {
	eventID    string
	categoryID string
	version    uint64
	best       bool
}

// Rankings returns all non-disqualified submissions for the event, optionally
// filtered by canonical category id, ascending by elapsed time. Lower time
// ranks first; equal times break by earlier submission date, then by id.
// Ranks are 1-based and contiguous. This full ranking is an intermediate
// artifact for statistics; end users see BestPerParticipant.
func (s *LeaderboardService) Rankings(ctx context.Context, eventID, categoryID string) ([]models.Submission, error) {
	return s.rankings(ctx, eventID, categoryID, false)
}

// BestPerParticipant keeps only each user's fastest submission, then re-ranks
// the reduced set. This is the leaderboard surfaced to end users.
func (s *LeaderboardService) BestPerParticipant(ctx context.Context, eventID, categoryID string) ([]models.Submission, error) {
	return s.rankings(ctx, eventID, categoryID, true)
}

func (s *LeaderboardService) rankings(ctx context.Context, eventID, categoryID string, best bool) ([]models.Submission, error) {
	key := leaderboardKey{
		eventID:    eventID,
		categoryID: categoryID,
		version:    s.ledger.LedgerVersion(eventID),
		best:       best,
	}
	if cached, ok := s.cache.Get(key); ok {
		if ranked, ok := cached.([]models.Submission); ok {
			return ranked, nil
		}
	}

	all, err := s.submissions.ListSubmissions(ctx, eventID)
	if err != nil {
		return nil, NewPersistenceError("list submissions", err)
	}

	var eligible []models.Submission
	for _, sub := range all {
		if sub.Disqualified {
			continue
		}
		if categoryID != "" && sub.CategoryID != categoryID {
			continue
		}
		eligible = append(eligible, sub)
	}
	sortByTime(eligible)

	if best {
		seen := make(map[string]bool, len(eligible))
		deduped := eligible[:0]
		for _, sub := range eligible {
			if seen[sub.UserID] {
				continue
			}
			seen[sub.UserID] = true
			deduped = append(deduped, sub)
		}
		eligible = deduped
	}

	for i := range eligible {
		eligible[i].Rank = i + 1
	}

	s.cache.Add(key, eligible)
	return eligible, nil
}

func sortByTime(subs []models.Submission) {
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].TimeMs != subs[j].TimeMs {
			return subs[i].TimeMs < subs[j].TimeMs
		}
		if !subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].SubmittedAt.Before(subs[j].SubmittedAt)
		}
		return subs[i].ID < subs[j].ID
	})
}

// Refresh precomputes the user-facing leaderboard at the current ledger
// version. Used by the change-feed worker; correctness never depends on it.
func (s *LeaderboardService) Refresh(ctx context.Context, eventID string) error {
	_, err := s.BestPerParticipant(ctx, eventID, "")
	return err
}
