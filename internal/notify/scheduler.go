// Package notify delivers crafting timers once they complete.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/repository"
	"go.uber.org/zap"
)

const DefaultInterval = time.Second

var ErrAlreadyRunning = errors.New("scheduler already running")

// Notifier delivers a completed timer to its owner. An error leaves the
// timer pending so it is offered again on the next poll.
type Notifier interface {
	Notify(owner string, n *domain.CraftingNotification) error
}

// Scheduler polls the notification store and hands due timers to a
// Notifier, persisting the notified flag after each delivery.
type Scheduler struct {
	repo     repository.NotificationRepository
	notifier Notifier
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(repo repository.NotificationRepository, notifier Notifier, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		repo:     repo,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
		logger:   logger.Named("notify"),
	}
}

// Start launches the poll loop. It runs until ctx ends or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop ends the poll loop and waits for it to exit. Calling Stop on a
// scheduler that is not running does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if done == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("scheduler stopped")
}

// Run starts the scheduler and blocks until ctx ends.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.poll(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("notification poll failed", zap.Error(err))
			}
		}
	}
}

// poll delivers every due timer once and returns how many were delivered.
func (s *Scheduler) poll(ctx context.Context) (int, error) {
	owners, err := s.repo.Owners(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	delivered := 0
	for _, owner := range owners {
		list, err := s.repo.List(ctx, owner)
		if err != nil {
			s.logger.Warn("list notifications failed", zap.String("owner", owner), zap.Error(err))
			continue
		}

		var fired []string
		for _, n := range list {
			if !n.Due(now) {
				continue
			}
			if err := s.notifier.Notify(owner, n); err != nil {
				s.logger.Debug("notification deferred",
					zap.String("owner", owner),
					zap.String("notification_id", n.ID),
					zap.Error(err))
				continue
			}
			fired = append(fired, n.ID)
		}
		if len(fired) == 0 {
			continue
		}

		if err := s.repo.MarkNotified(ctx, owner, fired); err != nil {
			s.logger.Error("persist notified flag failed", zap.String("owner", owner), zap.Error(err))
			continue
		}
		delivered += len(fired)
	}
	return delivered, nil
}
