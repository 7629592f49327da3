package sim

// Clone returns a deep copy so the next snapshot never aliases slices or
// pointers held by the previous one.
func (c Company) Clone() Company {
	out := c
	out.Staff = append([]StaffMember(nil), c.Staff...)
	if c.Project != nil {
		p := c.Project.Clone()
		out.Project = &p
	}
	out.Released = make([]ReleasedGame, len(c.Released))
	for i, g := range c.Released {
		g.GameProject = g.GameProject.Clone()
		out.Released[i] = g
	}
	out.Genres = append([]Genre(nil), c.Genres...)
	out.Themes = make([]Theme, len(c.Themes))
	for i, t := range c.Themes {
		out.Themes[i] = t.Clone()
	}
	out.Platforms = append([]Platform(nil), c.Platforms...)
	out.Engines = append([]GameEngine(nil), c.Engines...)
	if c.Research != nil {
		r := *c.Research
		out.Research = &r
	}
	if c.EngineBuild != nil {
		b := *c.EngineBuild
		b.Staff = append([]string(nil), c.EngineBuild.Staff...)
		out.EngineBuild = &b
	}
	out.Upgrades = make([]OfficeUpgrade, len(c.Upgrades))
	for i, u := range c.Upgrades {
		u.Tiers = append([]UpgradeTier(nil), u.Tiers...)
		out.Upgrades[i] = u
	}
	out.Awards = append([]Award(nil), c.Awards...)
	out.HallOfFame = append([]string(nil), c.HallOfFame...)
	out.Franchises = append([]Franchise(nil), c.Franchises...)
	if c.Marketing != nil {
		m := *c.Marketing
		out.Marketing = &m
	}
	out.Notifications = append([]string(nil), c.Notifications...)
	out.Rivals = make([]Competitor, len(c.Rivals))
	for i, r := range c.Rivals {
		out.Rivals[i] = r.Clone()
	}
	return out
}

func (p GameProject) Clone() GameProject {
	p.AssignedStaff = append([]string(nil), p.AssignedStaff...)
	return p
}

func (t Theme) Clone() Theme {
	if t.Multipliers == nil {
		return t
	}
	m := make(map[string]float64, len(t.Multipliers))
	for k, v := range t.Multipliers {
		m[k] = v
	}
	t.Multipliers = m
	return t
}

func (r Competitor) Clone() Competitor {
	r.PreferredGenres = append([]string(nil), r.PreferredGenres...)
	r.PreferredThemes = append([]string(nil), r.PreferredThemes...)
	r.History = append([]RivalRelease(nil), r.History...)
	if r.Project != nil {
		p := *r.Project
		r.Project = &p
	}
	return r
}

// WithNotice prepends a notification and enforces the log cap.
func (c Company) WithNotice(msgs ...string) Company {
	if len(msgs) == 0 {
		return c
	}
	next := make([]string, 0, len(msgs)+len(c.Notifications))
	for i := len(msgs) - 1; i >= 0; i-- {
		next = append(next, msgs[i])
	}
	next = append(next, c.Notifications...)
	if len(next) > NotificationCap {
		next = next[:NotificationCap]
	}
	c.Notifications = next
	return c
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
