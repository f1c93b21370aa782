// filepath: internal/housekeeping/service.go
package housekeeping

import (
	"context"
	"sync"
	"time"

	"mediashelf/internal/logging"
	"mediashelf/internal/models"
)

const (
	// MinCheckInterval is the minimum time between runs to prevent busy-looping.
	MinCheckInterval = 1 * time.Minute
)

// Service provides the background worker for periodic library rescans.
type Service struct {
	Deps     Dependencies
	Interval time.Duration // zero disables the periodic run

	mu      sync.Mutex
	lastRun time.Time
	running sync.Mutex

	startOnce sync.Once
	timer     *time.Timer
	stopCh    chan struct{}
	done      chan struct{}
	cancel    context.CancelFunc
}

// NewService creates a new housekeeping service instance.
func NewService(deps Dependencies, interval time.Duration) *Service {
	return &Service{
		Deps:     deps,
		Interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start kicks off the background rescan loop. The first run happens
// immediately. With a zero interval Start does nothing. Only the first call
// has an effect.
func (s *Service) Start() {
	s.startOnce.Do(s.start)
}

func (s *Service) start() {
	if s.Interval <= 0 {
		logging.Log.Info("Periodic rescan disabled.")
		close(s.done)
		return
	}
	logging.Log.Infof("Starting background rescan service, interval %v.", s.Interval)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.timer = time.NewTimer(0) // Fire immediately on start

	go func() {
		defer close(s.done)
		for {
			select {
			case <-s.timer.C:
				if _, err := s.Trigger(ctx); err != nil && ctx.Err() == nil {
					logging.Log.Errorf("Scheduled rescan failed: %v", err)
				}
				nextRun := s.scheduleNextRun(time.Now())
				s.timer.Reset(nextRun)
				logging.Log.Infof("Next rescan scheduled in %v.", nextRun)
			case <-s.stopCh:
				s.timer.Stop()
				return
			}
		}
	}()
}

// Stop terminates the background loop, cancelling a run in progress, and
// waits for it to exit.
func (s *Service) Stop() {
	logging.Log.Info("Stopping background rescan service.")
	if s.cancel != nil {
		s.cancel()
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	<-s.done
}

// Trigger runs a rescan now and resets the timer base. Concurrent triggers
// are serialized.
func (s *Service) Trigger(ctx context.Context) (*models.ReconcileReport, error) {
	s.running.Lock()
	defer s.running.Unlock()

	report, err := RunRescan(ctx, s.Deps)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()
	return report, err
}

// LastRun returns the time the last rescan finished.
func (s *Service) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// scheduleNextRun calculates the duration until the next rescan.
func (s *Service) scheduleNextRun(now time.Time) time.Duration {
	next := s.LastRun().Add(s.Interval).Sub(now)
	if next < MinCheckInterval {
		return MinCheckInterval
	}
	return next
}
