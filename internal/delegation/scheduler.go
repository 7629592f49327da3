// Package delegation drives delegated companies: one goroutine per company,
// each running a delegation cycle on a fixed cadence.
package delegation

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"studiosim/internal/game"
	"studiosim/internal/sim"
)

type Runner interface {
	RunDelegationCycle(ctx context.Context, id string) (sim.Company, sim.CycleReport, error)
	DelegatingCompanies(ctx context.Context) ([]string, error)
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type Scheduler struct {
	ctx   context.Context
	svc   Runner
	every time.Duration
	log   *slog.Logger

	mu    sync.Mutex
	tasks map[string]*task
}

// New returns a scheduler whose tasks live until ctx is cancelled or Stop.
func New(ctx context.Context, svc Runner, every time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		ctx:   ctx,
		svc:   svc,
		every: every,
		log:   logger,
		tasks: make(map[string]*task),
	}
}

// Start begins driving id. It reports false when a task already exists.
func (s *Scheduler) Start(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; ok {
		return false
	}
	ctx, cancel := context.WithCancel(s.ctx)
	t := &task{cancel: cancel, done: make(chan struct{})}
	s.tasks[id] = t
	go s.run(ctx, id, t)
	s.log.Info("delegation started", "company_id", id)
	return true
}

// Stop cancels the task for id and waits for an in-flight cycle to finish.
func (s *Scheduler) Stop(id string) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return
	}
	t.cancel()
	<-t.done
}

func (s *Scheduler) StopAll() {
	for _, id := range s.Running() {
		s.Stop(id)
	}
}

func (s *Scheduler) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sync starts tasks for every delegating company and stops the rest.
func (s *Scheduler) Sync(ctx context.Context) error {
	ids, err := s.svc.DelegatingCompanies(ctx)
	if err != nil {
		return err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
		s.Start(id)
	}
	for _, id := range s.Running() {
		if !want[id] {
			s.Stop(id)
		}
	}
	return nil
}

func (s *Scheduler) run(ctx context.Context, id string, t *task) {
	defer func() {
		s.mu.Lock()
		if s.tasks[id] == t {
			delete(s.tasks, id)
		}
		s.mu.Unlock()
		close(t.done)
	}()

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		// The cycle is not cut short by Stop; it commits or fails on its own.
		_, rep, err := s.svc.RunDelegationCycle(context.WithoutCancel(ctx), id)
		switch {
		case err == nil:
			if rep.Tick.GameOver {
				s.log.Info("delegation ended, company bankrupt", "company_id", id)
				return
			}
		case errors.Is(err, game.ErrDelegationOff), errors.Is(err, sim.ErrGameOver), errors.Is(err, game.ErrCompanyNotFound):
			s.log.Info("delegation stopped", "company_id", id, "reason", err.Error())
			return
		default:
			s.log.Error("delegation cycle failed", "company_id", id, "err", err)
		}
	}
}
