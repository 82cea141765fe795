package workers

import (
	"context"
	"log"
	"time"

	"speedrun-league-system/services"

	"gorm.io/gorm"
)

// LeaderboardFeed emulates a change-feed subscription over the submission
// ledger: it polls for per-event ledger activity and re-derives the
// user-facing leaderboard when something changed. The feed is an optional
// accelerator — leaderboard queries stay correct without it because cache
// keys carry the ledger version.
type LeaderboardFeed struct {
	DB          *gorm.DB
	Leaderboard *services.LeaderboardService

	seen map[string]time.Time
}

func NewLeaderboardFeed(db *gorm.DB, leaderboard *services.LeaderboardService) *LeaderboardFeed {
	return &LeaderboardFeed{
		DB:          db,
		Leaderboard: leaderboard,
		seen:        make(map[string]time.Time),
	}
}

type ledgerActivity struct {
	EventID     string    `gorm:"column:event_id"`
	LastUpdated time.Time `gorm:"column:last_updated"`
}

// Poll watches the ledger until the context is cancelled.
func (f *LeaderboardFeed) Poll(ctx context.Context, pollInterval time.Duration) {
	log.Println("Starting leaderboard change feed (DB-backed)...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Leaderboard change feed stopped.")
			return
		case <-ticker.C:
			var activity []ledgerActivity
			err := f.DB.WithContext(ctx).
				Raw(`SELECT event_id, MAX(updated_at) AS last_updated
				     FROM submissions
				     GROUP BY event_id`).
				Scan(&activity).Error
			if err != nil {
				log.Printf("❌ Error polling submission ledger: %v", err)
				continue
			}

			for _, a := range activity {
				if last, ok := f.seen[a.EventID]; ok && !a.LastUpdated.After(last) {
					continue
				}
				f.seen[a.EventID] = a.LastUpdated
				if err := f.Leaderboard.Refresh(ctx, a.EventID); err != nil {
					log.Printf("❌ Failed to refresh leaderboard for event %s: %v", a.EventID, err)
					continue
				}
				log.Printf("📥 Ledger change detected for event %s, leaderboard refreshed", a.EventID)
			}
		}
	}
}
