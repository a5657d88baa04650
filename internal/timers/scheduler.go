// Package timers runs independent countdown units for a session's recipe
package timers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chefbud/voice-platform/internal/notify"
	"github.com/chefbud/voice-platform/internal/recipe"
)

// Scheduler owns one countdown goroutine per named timer. All notifications
// go through the same sink as the conversation state machine.
type Scheduler struct {
	sink notify.Sink
	log  *slog.Logger

	mu    sync.Mutex
	units map[string]*unit
}

// unit is one registered countdown. Cleanup compares identity so a
// replaced registration never removes its successor from the registry.
type unit struct {
	cancel context.CancelFunc
}

// NewScheduler creates an empty scheduler.
func NewScheduler(sink notify.Sink, log *slog.Logger) *Scheduler {
	return &Scheduler{
		sink:  sink,
		log:   log,
		units: make(map[string]*unit),
	}
}

// StartAll spawns a countdown for every timer. Registration is keyed by
// label; a duplicate label silently replaces (and cancels) the prior unit.
func (s *Scheduler) StartAll(ctx context.Context, timers []recipe.Timer) {
	for _, t := range timers {
		s.start(ctx, t)
	}
}

func (s *Scheduler) start(ctx context.Context, t recipe.Timer) {
	ctx, cancel := context.WithCancel(ctx)
	u := &unit{cancel: cancel}

	s.mu.Lock()
	if prior, ok := s.units[t.Label]; ok {
		prior.cancel()
	}
	s.units[t.Label] = u
	s.mu.Unlock()

	s.log.Debug("timer started", "label", t.Label, "duration", t.Duration)
	go s.countdown(ctx, t, u)
}

func (s *Scheduler) countdown(ctx context.Context, t recipe.Timer, u *unit) {
	timer := time.NewTimer(t.Duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		s.log.Debug("timer cancelled", "label", t.Label)
	case <-timer.C:
		s.log.Info("timer fired", "label", t.Label)
		s.sink.Say(formatExpiry(t))
	}

	s.mu.Lock()
	if s.units[t.Label] == u {
		delete(s.units, t.Label)
	}
	s.mu.Unlock()
}

// CancelAll cancels every outstanding countdown and clears the registry.
// Safe to call when units have already completed, and more than once.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for label, u := range s.units {
		u.cancel()
		delete(s.units, label)
	}
}

// Active returns the number of outstanding countdown units.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.units)
}

func formatExpiry(t recipe.Timer) string {
	return fmt.Sprintf("%s timer finished! %d minutes are up.", t.Label, int(t.Duration.Minutes()))
}
