package game

import (
	"context"
	"time"

	"studiosim/internal/sim"
)

// CompanyRecord is one persisted studio. Snapshot holds the JSON-encoded
// sim.Company; Delegating and GameOver mirror it so stores can filter
// without decoding. Version counts committed writes.
type CompanyRecord struct {
	ID         string
	Name       string
	KeyHash    string
	Snapshot   []byte
	Delegating bool
	GameOver   bool
	Version    int64
	UpdatedAt  time.Time
}

// Mutation is a single atomic write: the new snapshot, the idempotency key
// that authorised it, and optionally one funds history point.
type Mutation struct {
	Record         CompanyRecord
	IdempotencyKey string
	Action         string
	Point          *sim.FundsPoint
	ResetHistory   bool
}

// Store persists companies. Commit only applies when Record.Version still
// matches the stored version, which it then bumps by one; otherwise it
// returns ErrStaleSnapshot and writes nothing. It returns
// ErrDuplicateIdempotency when the key was already used for this company,
// also writing nothing. When ResetHistory is set the funds series is cleared
// before Point is appended.
type Store interface {
	InsertCompany(ctx context.Context, rec CompanyRecord, first sim.FundsPoint) error
	Company(ctx context.Context, id string) (CompanyRecord, error)
	Commit(ctx context.Context, m Mutation) error
	FundsHistory(ctx context.Context, id string, limit int) ([]sim.FundsPoint, error)
	DelegatingCompanies(ctx context.Context) ([]string, error)
}

type Created struct {
	ID      string      `json:"id"`
	Key     string      `json:"key"`
	Company sim.Company `json:"company"`
}

// CompanyView is a snapshot plus values derived from it for display.
type CompanyView struct {
	Company  sim.Company       `json:"company"`
	Effects  sim.OfficeEffects `json:"effects"`
	Salaries int64             `json:"salaries"`
}

type EventKind string

const (
	EventCommand    EventKind = "command"
	EventTick       EventKind = "tick"
	EventDelegation EventKind = "delegation"
	EventReset      EventKind = "reset"
)

// Event is published after every successful write.
type Event struct {
	CompanyID   string            `json:"company_id"`
	CompanyName string            `json:"company_name"`
	Kind        EventKind         `json:"kind"`
	Action      string            `json:"action,omitempty"`
	Year        int               `json:"year"`
	Month       int               `json:"month"`
	Funds       int64             `json:"funds"`
	Notes       []string          `json:"notes,omitempty"`
	Released    *sim.ReleasedGame `json:"released,omitempty"`
	Awards      []sim.Award       `json:"awards,omitempty"`
	GameOver    bool              `json:"game_over"`
	At          time.Time         `json:"at"`
}

// Headline reports whether the event is worth announcing outside the game.
func (e Event) Headline() bool {
	return e.Released != nil || len(e.Awards) > 0 || (e.GameOver && e.Kind != EventCommand)
}

type Listener func(Event)
