package sim

import "fmt"

type contender struct {
	gameID    string
	name      string
	genreID   string
	review    float64
	units     int64
	points    Points
	player    bool
	rivalName string
}

// AwardResult is the outcome of one yearly ceremony.
type AwardResult struct {
	Awards     []Award
	Prize      int64
	Reputation int
	Inducted   []string
	Notes      []string
}

// AdjudicateAwards ranks everything released during year across the fixed
// categories. Only player wins carry prize money and reputation; hall of
// fame induction scans every player release ever made.
func AdjudicateAwards(rules Rules, c Company, year int) AwardResult {
	var pool []contender
	for _, g := range c.Released {
		if g.ReleaseYear != year {
			continue
		}
		pool = append(pool, contender{
			gameID: g.ID, name: g.Name, genreID: g.GenreID,
			review: g.ReviewScore, units: g.UnitsSold, points: g.Points, player: true,
		})
	}
	for _, r := range c.Rivals {
		for _, g := range r.History {
			if g.ReleaseYear != year {
				continue
			}
			pool = append(pool, contender{
				gameID: g.ID, name: g.Name, genreID: g.GenreID,
				review: g.ReviewScore, units: g.UnitsSold, rivalName: r.Name,
			})
		}
	}

	var res AwardResult
	grant := func(spec AwardSpec, w contender) {
		a := Award{
			SpecID:     spec.ID,
			Category:   spec.Category,
			Name:       spec.Name,
			GameID:     w.gameID,
			GameName:   w.name,
			Year:       year,
			Prize:      spec.Prize,
			Reputation: spec.Reputation,
			PlayerWon:  w.player,
		}
		if w.player {
			res.Prize += spec.Prize
			res.Reputation += spec.Reputation
			res.Notes = append(res.Notes, fmt.Sprintf("%s won %s! (+$%d, +%d reputation)", w.name, spec.Name, spec.Prize, spec.Reputation))
		} else {
			a.RivalName = w.rivalName
			res.Notes = append(res.Notes, fmt.Sprintf("%s went to %q by %s.", spec.Name, w.name, w.rivalName))
		}
		res.Awards = append(res.Awards, a)
	}

	for _, spec := range rules.Awards {
		var (
			w     contender
			found bool
		)
		switch spec.Category {
		case AwardGameOfTheYear:
			w, found = best(pool, nil, func(c contender) float64 { return c.review })
		case AwardBestSeller:
			w, found = best(pool, nil, func(c contender) float64 { return float64(c.units) })
		case AwardBestGraphics, AwardBestSound, AwardBestCreativity:
			axis := pointAxis(spec.Category)
			w, found = best(pool, func(c contender) bool { return c.player }, axis)
			found = found && axis(w) > 0
		case AwardBestGenre:
			w, found = best(pool, func(c contender) bool { return c.genreID == spec.GenreID }, func(c contender) float64 { return c.review })
		}
		if found {
			grant(spec, w)
		}
	}

	if spec, ok := rules.award(AwardHallOfFame); ok {
		for _, g := range c.Released {
			if g.ReviewScore < HallOfFameScore || containsID(c.HallOfFame, g.ID) || containsID(res.Inducted, g.ID) {
				continue
			}
			res.Inducted = append(res.Inducted, g.ID)
			res.Reputation += spec.Reputation
			res.Notes = append(res.Notes, fmt.Sprintf("%q was inducted into the Hall of Fame (score %.1f, +%d reputation).", g.Name, g.ReviewScore, spec.Reputation))
		}
	}

	header := fmt.Sprintf("The %d awards ceremony is over.", year)
	if len(res.Notes) == 0 {
		header = fmt.Sprintf("No awards were handed out for %d.", year)
	}
	res.Notes = append([]string{header}, res.Notes...)
	return res
}

// best returns the first contender with the strictly highest score among
// those accepted by keep.
func best(pool []contender, keep func(contender) bool, score func(contender) float64) (contender, bool) {
	var (
		out   contender
		found bool
	)
	for _, c := range pool {
		if keep != nil && !keep(c) {
			continue
		}
		if !found || score(c) > score(out) {
			out, found = c, true
		}
	}
	return out, found
}

func pointAxis(cat AwardCategory) func(contender) float64 {
	switch cat {
	case AwardBestGraphics:
		return func(c contender) float64 { return c.points.Graphics }
	case AwardBestSound:
		return func(c contender) float64 { return c.points.Sound }
	default:
		return func(c contender) float64 { return c.points.Creativity }
	}
}

func applyAwards(c *Company, res AwardResult) {
	c.Funds += res.Prize
	c.Reputation += res.Reputation
	c.Awards = append(c.Awards, res.Awards...)
	c.HallOfFame = append(c.HallOfFame, res.Inducted...)
}
