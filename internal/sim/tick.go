package sim

import (
	"fmt"

	"github.com/google/uuid"
)

// Simulator advances companies one month at a time. It holds only the
// static rules and the injected random source; company state is always
// passed in and returned.
type Simulator struct {
	rules Rules
	rng   Rand
	newID func() string
}

func NewSimulator(rules Rules, rng Rand) *Simulator {
	if rng == nil {
		rng = NewRand(1)
	}
	return &Simulator{rules: rules, rng: rng, newID: uuid.NewString}
}

// WithIDs replaces the id generator used by commands. Tests use it to get
// stable ids.
func (s *Simulator) WithIDs(newID func() string) *Simulator {
	cp := *s
	cp.newID = newID
	return &cp
}

// TickReport summarises what one month did to the company.
type TickReport struct {
	Year       int           `json:"year"`
	Month      int           `json:"month"`
	Salaries   int64         `json:"salaries"`
	Revenue    int64         `json:"revenue"`
	Prizes     int64         `json:"prizes"`
	Released   *ReleasedGame `json:"released,omitempty"`
	Awards     []Award       `json:"awards,omitempty"`
	FundsPoint FundsPoint    `json:"funds_point"`
	Notes      []string      `json:"notes"`
	GameOver   bool          `json:"game_over"`
	Skipped    bool          `json:"skipped"`
}

// Advance runs one monthly tick. A bankrupt company is returned unchanged
// with Skipped set.
func (s *Simulator) Advance(in Company) (Company, TickReport) {
	if in.GameOver {
		return in, TickReport{Year: in.Year, Month: in.Month, GameOver: true, Skipped: true,
			FundsPoint: FundsPoint{Year: in.Year, Month: in.Month, Funds: in.Funds}}
	}
	c := in.Clone()
	year, month := c.Year, c.Month
	var notes []string

	fx := AggregateOfficeEffects(c.Upgrades)

	staff, salaries, staffNotes := StepStaff(c.Staff, fx)
	c.Staff = staff
	c.Funds -= salaries
	notes = append(notes, fmt.Sprintf("Paid $%d in salaries.", salaries))
	notes = append(notes, staffNotes...)

	notes = append(notes, stepEngineBuild(&c, fx)...)

	before := c.Funds
	rel, projectNotes := s.stepProject(&c, fx)
	revenue := c.Funds - before
	notes = append(notes, projectNotes...)

	notes = append(notes, applyResearch(&c)...)
	notes = append(notes, stepMarketing(&c)...)
	notes = append(notes, s.stepRivals(&c, year, month)...)

	report := TickReport{Salaries: salaries, Revenue: revenue, Released: rel}

	c.Month++
	if c.Month > MonthsPerYear {
		c.Month = 1
		c.Year++
		notes = append(notes, fmt.Sprintf("Happy new year %d!", c.Year))
		res := AdjudicateAwards(s.rules, c, c.Year-1)
		applyAwards(&c, res)
		report.Prizes = res.Prize
		report.Awards = res.Awards
		notes = append(notes, res.Notes...)
	}

	if c.Funds < 0 {
		notes = append(notes, fmt.Sprintf("Warning: funds are negative ($%d).", c.Funds))
		if IsBankrupt(c.Funds, salaries) {
			c.GameOver = true
			c.Delegation = false
			notes = append(notes, fmt.Sprintf("Game over! %s went bankrupt.", c.Name))
		}
	}

	c = c.WithNotice(notes...)
	report.Year, report.Month = c.Year, c.Month
	report.FundsPoint = FundsPoint{Year: c.Year, Month: c.Month, Funds: c.Funds}
	report.Notes = notes
	report.GameOver = c.GameOver
	return c, report
}

// IsBankrupt reports whether funds have fallen past the point of no return
// for the given monthly salary bill.
func IsBankrupt(funds, salaries int64) bool {
	return float64(funds) < -float64(GameOverDebt)-float64(salaries)*1.2
}
