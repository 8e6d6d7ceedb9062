package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Reminder interface {
	RemindUnclaimed(ctx context.Context) (int, error)
}

// Scheduler runs the periodic feedback reminders.
type Scheduler struct {
	cron     *cron.Cron
	reminder Reminder
	timeout  time.Duration
}

func New(reminder Reminder) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		reminder: reminder,
		timeout:  time.Minute,
	}
}

// Schedule registers the reminder job under a standard five field cron spec.
func (s *Scheduler) Schedule(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.remind); err != nil {
		return fmt.Errorf("s.cron.AddFunc -> %w", err)
	}

	return nil
}

func (s *Scheduler) remind() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	sent, err := s.reminder.RemindUnclaimed(ctx)
	if err != nil {
		zap.L().Error("feedback reminders failed", zap.Error(err))
		return
	}
	zap.L().Info("feedback reminders sent", zap.Int("count", sent))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
