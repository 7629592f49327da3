package game

import (
	"context"
	"sort"
	"sync"

	"studiosim/internal/sim"
)

type memStore struct {
	mu        sync.Mutex
	companies map[string]CompanyRecord
	history   map[string][]sim.FundsPoint
	keys      map[string]bool
	commits   int
	// beforeCommit runs under the lock ahead of every Commit.
	beforeCommit func(m *memStore, mut Mutation)
}

func newMemStore() *memStore {
	return &memStore{
		companies: map[string]CompanyRecord{},
		history:   map[string][]sim.FundsPoint{},
		keys:      map[string]bool{},
	}
}

func (m *memStore) InsertCompany(_ context.Context, rec CompanyRecord, first sim.FundsPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[rec.ID] = rec
	m.history[rec.ID] = []sim.FundsPoint{first}
	return nil
}

func (m *memStore) Company(_ context.Context, id string) (CompanyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.companies[id]
	if !ok {
		return CompanyRecord{}, ErrCompanyNotFound
	}
	return rec, nil
}

func (m *memStore) Commit(_ context.Context, mut Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.beforeCommit != nil {
		m.beforeCommit(m, mut)
	}
	id := mut.Record.ID
	cur, ok := m.companies[id]
	if !ok {
		return ErrCompanyNotFound
	}
	k := id + "/" + mut.IdempotencyKey
	if m.keys[k] {
		return ErrDuplicateIdempotency
	}
	if cur.Version != mut.Record.Version {
		return ErrStaleSnapshot
	}
	m.keys[k] = true
	rec := mut.Record
	rec.Version++
	m.companies[id] = rec
	if mut.ResetHistory {
		m.history[id] = nil
	}
	if mut.Point != nil {
		m.history[id] = append(m.history[id], *mut.Point)
	}
	m.commits++
	return nil
}

func (m *memStore) FundsHistory(_ context.Context, id string, limit int) ([]sim.FundsPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.history[id]
	if len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]sim.FundsPoint(nil), h...), nil
}

func (m *memStore) DelegatingCompanies(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, rec := range m.companies {
		if rec.Delegating && !rec.GameOver {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memStore) setSnapshot(id string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setSnapshotLocked(id, raw)
}

// setSnapshotLocked overwrites a snapshot the way another process would.
func (m *memStore) setSnapshotLocked(id string, raw []byte) {
	rec := m.companies[id]
	rec.Snapshot = raw
	rec.Version++
	m.companies[id] = rec
}
