package sim

import "fmt"

func stepMarketing(c *Company) []string {
	if c.Marketing == nil {
		return nil
	}
	m := *c.Marketing
	m.MonthsLeft--
	if c.Project != nil && c.Project.ID == m.TargetGameID {
		p := c.Project.Clone()
		p.Hype += m.MonthlyHype
		c.Project = &p
	} else if i := c.releasedIndex(m.TargetGameID); i >= 0 {
		c.Released[i].CurrentHype += m.MonthlyHype
	}
	if m.MonthsLeft > 0 {
		c.Marketing = &m
		return nil
	}
	c.Reputation += m.ReputationBoost
	c.Marketing = nil
	return []string{fmt.Sprintf("Marketing push for %q wrapped up (+%d reputation).", m.TargetName, m.ReputationBoost)}
}
