package realtime

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// StartSweeper runs h.Sweep(ttl) every interval until the returned
// scheduler is shut down. It drops matchmaking seekers whose socket died
// without a clean close.
func StartSweeper(h *Hub, ttl, every time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() { h.Sweep(ttl) }),
		gocron.WithName("presence-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule presence sweep: %w", err)
	}
	sched.Start()
	log.Info().Dur("ttl", ttl).Dur("every", every).Msg("realtime: presence sweeper started")
	return sched, nil
}
