package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"studiosim/internal/auth"
	"studiosim/internal/catalog"
	"studiosim/internal/sim"
)

// Service runs studio simulations on top of a Store. Writes to one company
// are serialized: inside a process by a per-company lock, and across
// processes sharing a store by the record version each Commit checks.
// Different companies run in parallel.
type Service struct {
	store   Store
	catalog catalog.Catalog
	sim     *sim.Simulator
	log     *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	listenMu  sync.RWMutex
	listeners []Listener
}

// NewService builds a service. A zero seed means a time-based seed.
func NewService(store Store, cat catalog.Catalog, logger *slog.Logger, seed int64) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Service{
		store:   store,
		catalog: cat,
		sim:     sim.NewSimulator(cat.Rules, sim.NewRand(seed)),
		log:     logger,
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Subscribe registers l for every event published after a successful write.
// Listeners run on the writer's goroutine and must not block.
func (s *Service) Subscribe(l Listener) {
	s.listenMu.Lock()
	s.listeners = append(s.listeners, l)
	s.listenMu.Unlock()
}

func (s *Service) publish(ev Event) {
	s.listenMu.RLock()
	ls := s.listeners
	s.listenMu.RUnlock()
	for _, l := range ls {
		l(ev)
	}
}

func (s *Service) lockCompany(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *Service) CreateCompany(ctx context.Context, name string) (Created, error) {
	if err := validateCompanyName(name); err != nil {
		return Created{}, err
	}
	name = strings.TrimSpace(name)
	key := auth.NewKey()
	hash, err := auth.HashKey(key)
	if err != nil {
		return Created{}, err
	}
	id := uuid.NewString()
	c := s.catalog.NewCompany(id, name)
	raw, err := json.Marshal(c)
	if err != nil {
		return Created{}, fmt.Errorf("encode company: %w", err)
	}
	rec := CompanyRecord{
		ID:        id,
		Name:      name,
		KeyHash:   hash,
		Snapshot:  raw,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.store.InsertCompany(ctx, rec, startPoint(c)); err != nil {
		return Created{}, err
	}
	s.log.Info("company created", "company_id", id, "name", name)
	return Created{ID: id, Key: key, Company: c}, nil
}

// Authorize checks a studio key against the stored hash.
func (s *Service) Authorize(ctx context.Context, id, key string) error {
	rec, err := s.store.Company(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.VerifyKey(rec.KeyHash, key); err != nil {
		if errors.Is(err, auth.ErrInvalidKey) {
			return ErrUnauthorized
		}
		return err
	}
	return nil
}

func (s *Service) Company(ctx context.Context, id string) (sim.Company, error) {
	unlock := s.lockCompany(id)
	defer unlock()
	_, c, err := s.load(ctx, id)
	return c, err
}

func (s *Service) View(ctx context.Context, id string) (CompanyView, error) {
	c, err := s.Company(ctx, id)
	if err != nil {
		return CompanyView{}, err
	}
	return CompanyView{
		Company:  c,
		Effects:  sim.AggregateOfficeEffects(c.Upgrades),
		Salaries: c.TotalSalaries(),
	}, nil
}

// FundsHistory returns up to limit points, oldest first.
func (s *Service) FundsHistory(ctx context.Context, id string, limit int) ([]sim.FundsPoint, error) {
	if _, err := s.store.Company(ctx, id); err != nil {
		return nil, err
	}
	return s.store.FundsHistory(ctx, id, clampHistoryLimit(limit))
}

func (s *Service) DelegatingCompanies(ctx context.Context) ([]string, error) {
	return s.store.DelegatingCompanies(ctx)
}

// Apply runs one player command. Domain failures come back as the sim
// sentinel errors together with the unchanged snapshot.
func (s *Service) Apply(ctx context.Context, id, idemKey string, cmd sim.Command) (sim.Company, error) {
	return s.mutate(ctx, id, idemKey, cmd.Kind(), func(c sim.Company) (change, error) {
		next, err := s.sim.Apply(c, cmd)
		if err != nil {
			return change{}, err
		}
		ev := Event{Kind: EventCommand}
		if len(next.Notifications) > 0 {
			ev.Notes = []string{next.Notifications[0]}
		}
		return change{next: next, event: ev}, nil
	})
}

func (s *Service) SetDelegation(ctx context.Context, id, idemKey string, enabled bool) (sim.Company, error) {
	return s.Apply(ctx, id, idemKey, sim.SetDelegation{Enabled: enabled})
}

// Advance runs one monthly tick and appends its funds point.
func (s *Service) Advance(ctx context.Context, id, idemKey string) (sim.Company, sim.TickReport, error) {
	var report sim.TickReport
	c, err := s.mutate(ctx, id, idemKey, "advance", func(c sim.Company) (change, error) {
		if c.GameOver {
			return change{}, sim.ErrGameOver
		}
		next, rep := s.sim.Advance(c)
		report = rep
		point := rep.FundsPoint
		return change{next: next, point: &point, event: tickEvent(EventTick, rep)}, nil
	})
	if err != nil {
		return c, sim.TickReport{}, err
	}
	s.logTick(id, report, "")
	return c, report, nil
}

// RunDelegationCycle lets the agent act once and advances one month. It
// fails with ErrDelegationOff when the company is not delegating.
func (s *Service) RunDelegationCycle(ctx context.Context, id string) (sim.Company, sim.CycleReport, error) {
	var report sim.CycleReport
	c, err := s.mutate(ctx, id, "", "delegation_cycle", func(c sim.Company) (change, error) {
		if c.GameOver {
			return change{}, sim.ErrGameOver
		}
		if !c.Delegation {
			return change{}, ErrDelegationOff
		}
		next, rep := s.sim.RunDelegationCycle(c)
		report = rep
		point := rep.Tick.FundsPoint
		ev := tickEvent(EventDelegation, rep.Tick)
		ev.Action = rep.Action
		return change{next: next, point: &point, event: ev}, nil
	})
	if err != nil {
		return c, sim.CycleReport{}, err
	}
	if report.Rejected != "" {
		s.log.Warn("agent action rejected", "company_id", id, "action", report.Action, "err", report.Rejected)
	}
	s.logTick(id, report.Tick, report.Action)
	return c, report, nil
}

// Reset throws away the snapshot and funds history and starts the company
// over under the same id, name and key.
func (s *Service) Reset(ctx context.Context, id, idemKey string) (sim.Company, error) {
	return s.mutate(ctx, id, idemKey, "reset", func(c sim.Company) (change, error) {
		fresh := s.catalog.NewCompany(c.ID, c.Name)
		point := startPoint(fresh)
		return change{next: fresh, point: &point, reset: true, event: Event{Kind: EventReset}}, nil
	})
}

type change struct {
	next  sim.Company
	point *sim.FundsPoint
	reset bool
	event Event
}

// Attempts at a write before giving up with ErrTxConflict, and the first
// pause between them.
const (
	maxWriteAttempts = 8
	firstWriteRetry  = 20 * time.Millisecond
)

// mutate loads the company, runs fn and commits the result. When another
// process committed in between, fn runs again on the newer snapshot.
func (s *Service) mutate(ctx context.Context, id, idemKey, action string, fn func(sim.Company) (change, error)) (sim.Company, error) {
	if idemKey == "" {
		idemKey = uuid.NewString()
	}
	unlock := s.lockCompany(id)
	defer unlock()

	var ch change
	retryDelay := firstWriteRetry
	for attempt := 1; ; attempt++ {
		rec, c, err := s.load(ctx, id)
		if err != nil {
			return sim.Company{}, err
		}
		ch, err = fn(c)
		if err != nil {
			return c, err
		}
		err = s.commit(ctx, rec, ch.next, Mutation{
			IdempotencyKey: idemKey,
			Action:         action,
			Point:          ch.point,
			ResetHistory:   ch.reset,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, ErrStaleSnapshot) {
			return c, err
		}
		if attempt == maxWriteAttempts {
			return c, fmt.Errorf("%w: company %s kept changing during %s", ErrTxConflict, id, action)
		}
		s.log.Debug("company changed underneath, retrying", "company_id", id, "action", action, "attempt", attempt)
		if err := sleepJittered(ctx, retryDelay); err != nil {
			return c, err
		}
		if retryDelay < 400*time.Millisecond {
			retryDelay *= 2
		}
	}

	ev := ch.event
	ev.CompanyID = id
	ev.CompanyName = ch.next.Name
	if ev.Action == "" {
		ev.Action = action
	}
	ev.Year, ev.Month = ch.next.Year, ch.next.Month
	ev.Funds = ch.next.Funds
	ev.GameOver = ch.next.GameOver
	ev.At = s.now().UTC()
	s.publish(ev)
	return ch.next, nil
}

// load reads and migrates a snapshot. A corrupt save is replaced by a fresh
// company and its history cleared.
func (s *Service) load(ctx context.Context, id string) (CompanyRecord, sim.Company, error) {
	rec, err := s.store.Company(ctx, id)
	if err != nil {
		return CompanyRecord{}, sim.Company{}, err
	}
	c, err := sim.Migrate(rec.Snapshot, s.catalog.Seed)
	if err == nil {
		c.ID = rec.ID
		return rec, c, nil
	}
	if !errors.Is(err, sim.ErrCorruptSave) {
		return CompanyRecord{}, sim.Company{}, err
	}
	s.log.Warn("discarding corrupt save", "company_id", id, "err", err)
	fresh := s.catalog.NewCompany(rec.ID, rec.Name)
	point := startPoint(fresh)
	if err := s.commit(ctx, rec, fresh, Mutation{
		IdempotencyKey: "recover-" + uuid.NewString(),
		Action:         "recover",
		Point:          &point,
		ResetHistory:   true,
	}); err != nil {
		return CompanyRecord{}, sim.Company{}, err
	}
	rec.Version++
	return rec, fresh, nil
}

func (s *Service) commit(ctx context.Context, rec CompanyRecord, next sim.Company, m Mutation) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode company: %w", err)
	}
	rec.Snapshot = raw
	rec.Delegating = next.Delegation
	rec.GameOver = next.GameOver
	rec.UpdatedAt = s.now().UTC()
	m.Record = rec
	return s.store.Commit(ctx, m)
}

func (s *Service) logTick(id string, rep sim.TickReport, action string) {
	attrs := []any{
		"company_id", id,
		"year", rep.Year,
		"month", rep.Month,
		"funds", rep.FundsPoint.Funds,
		"salaries", rep.Salaries,
		"revenue", rep.Revenue,
	}
	if action != "" {
		attrs = append(attrs, "action", action)
	}
	if rep.Released != nil {
		attrs = append(attrs, "released", rep.Released.Name, "review", rep.Released.ReviewScore)
	}
	if rep.GameOver {
		attrs = append(attrs, "game_over", true)
	}
	s.log.Info("month advanced", attrs...)
}

func tickEvent(kind EventKind, rep sim.TickReport) Event {
	return Event{
		Kind:     kind,
		Notes:    rep.Notes,
		Released: rep.Released,
		Awards:   rep.Awards,
	}
}

// sleepJittered waits between d/2 and d so two writers that just collided
// do not retry in lockstep.
func sleepJittered(ctx context.Context, d time.Duration) error {
	d = d/2 + rand.N(d/2+1)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func startPoint(c sim.Company) sim.FundsPoint {
	return sim.FundsPoint{Year: c.Year, Month: c.Month, Funds: c.Funds}
}

// Candidates rolls n applicants for the hiring screen. Nothing is stored;
// hiring one goes through Apply with a sim.Hire.
func (s *Service) Candidates(ctx context.Context, id string, n int) ([]sim.Hire, error) {
	c, err := s.Company(ctx, id)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > MaxCandidates {
		n = DefaultCandidates
	}
	return s.sim.Candidates(c, n), nil
}
