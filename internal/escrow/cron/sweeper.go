package cronjob

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/greendefi-labs/escrow-backend/internal/escrow/service"
)

// Sweeper periodically expires oracle requests that never received a
// callback. The per-request check is explicit (CheckTimeout); the cron
// schedule just drives it.
type Sweeper struct {
	svc  *service.EscrowService
	cron *cron.Cron
}

func NewSweeper(svc *service.EscrowService) *Sweeper {
	return &Sweeper{svc: svc}
}

// Start schedules the sweep every 30 seconds.
func (s *Sweeper) Start() {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc("*/30 * * * * *", func() {
		expired := s.svc.SweepTimeouts(context.Background())
		if expired > 0 {
			log.Printf("[sweep] expired %d oracle request(s)", expired)
		}
	})
	if err != nil {
		log.Printf("Failed to create timeout sweep job: %v", err)
		return
	}

	log.Println("Timeout sweeper started (every 30s)")
	c.Start()
	s.cron = c
}

// Stop halts the schedule; a sweep already running finishes.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
