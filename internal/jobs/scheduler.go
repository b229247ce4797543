package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/queue"
)

// SessionCleanupSpec runs every day at 03:00 server time.
const SessionCleanupSpec = "0 0 3 * * *"

type Enqueuer interface {
	Enqueue(ctx context.Context, task queue.Task) error
}

type Scheduler struct {
	cron  *cron.Cron
	queue Enqueuer
	log   zerolog.Logger
}

func NewScheduler(queue Enqueuer, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()),
		queue: queue,
		log:   log.With().Str("component", "scheduler").Logger(),
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}
	if _, err := s.cron.AddFunc(SessionCleanupSpec, s.enqueueSessionCleanup); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop waits for a running job to finish, bounded by timeout.
func (s *Scheduler) Stop(timeout time.Duration) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-time.After(timeout):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) enqueueSessionCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.queue.Enqueue(ctx, queue.Task{Type: queue.TaskSessionCleanup}); err != nil {
		s.log.Error().Err(err).Msg("enqueue session cleanup failed")
		return
	}
	s.log.Debug().Msg("session cleanup enqueued")
}
