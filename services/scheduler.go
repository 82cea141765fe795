// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSeasonScheduler rolls the season over once the calendar leaves the
// active season key. Hourly granularity is plenty for a monthly policy.
func (s *PointsService) StartSeasonScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			rollover, err := s.RolloverIfDue(context.Background(), time.Now())
			if err != nil {
				log.Printf("[SEASON] rollover failed: %v", err)
				return
			}
			if rollover == nil {
				return
			}
			log.Printf("✅ Season rolled over: %s → %s (%d medalists)",
				rollover.ClosedSeason, rollover.NewSeason, len(rollover.Medalists))
		}),
	)
}
