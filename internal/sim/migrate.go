package sim

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	defaultContentMaxLevel = 5
	defaultToolMaxLevel    = 3
)

const snapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name"],
  "properties": {
    "name":          {"type": "string", "minLength": 1},
    "funds":         {"type": "number"},
    "year":          {"type": "integer"},
    "month":         {"type": "integer", "minimum": 0, "maximum": 12},
    "staff":         {"type": ["array", "null"]},
    "released":      {"type": ["array", "null"]},
    "genres":        {"type": ["array", "null"]},
    "themes":        {"type": ["array", "null"]},
    "platforms":     {"type": ["array", "null"]},
    "engines":       {"type": ["array", "null"]},
    "upgrades":      {"type": ["array", "null"]},
    "notifications": {"type": ["array", "null"]},
    "rivals":        {"type": ["array", "null"]}
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func snapshotValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("studio-snapshot.json", snapshotSchema)
	})
	return schema, schemaErr
}

// legacyItem captures the fields whose absence needs a default. Older
// snapshots carried an "unlocked" flag instead of a research level.
type legacyItem struct {
	ID               string `json:"id"`
	Unlocked         *bool  `json:"unlocked"`
	ResearchLevel    *int   `json:"research_level"`
	MaxResearchLevel *int   `json:"max_research_level"`
	ResearchCost     *int64 `json:"research_cost"`
}

type legacySnapshot struct {
	Genres    []legacyItem      `json:"genres"`
	Themes    []legacyItem      `json:"themes"`
	Platforms []legacyItem      `json:"platforms"`
	Engines   []legacyItem      `json:"engines"`
	Rivals    []json.RawMessage `json:"rivals"`
}

// Migrate decodes a persisted snapshot and fills every field that older
// saves may lack from defaults and the seed. Any structural problem yields
// ErrCorruptSave; there is no partial recovery.
func Migrate(raw []byte, seed Seed) (Company, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Company{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	v, err := snapshotValidator()
	if err != nil {
		return Company{}, fmt.Errorf("compile snapshot schema: %w", err)
	}
	if err := v.Validate(doc); err != nil {
		return Company{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}

	var c Company
	if err := json.Unmarshal(raw, &c); err != nil {
		return Company{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	var legacy legacySnapshot
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return Company{}, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}

	if c.Year == 0 {
		c.Year = InitialYear
	}
	if c.Month == 0 {
		c.Month = 1
	}

	for i := range c.Genres {
		c.Genres[i].ResearchLevel, c.Genres[i].MaxResearchLevel = levels(legacyFor(legacy.Genres, i), c.Genres[i].ResearchLevel, c.Genres[i].MaxResearchLevel, defaultContentMaxLevel)
	}
	for i := range c.Themes {
		c.Themes[i].ResearchLevel, c.Themes[i].MaxResearchLevel = levels(legacyFor(legacy.Themes, i), c.Themes[i].ResearchLevel, c.Themes[i].MaxResearchLevel, defaultContentMaxLevel)
	}
	for i := range c.Platforms {
		l := legacyFor(legacy.Platforms, i)
		p := &c.Platforms[i]
		p.ResearchLevel, p.MaxResearchLevel = levels(l, p.ResearchLevel, p.MaxResearchLevel, defaultToolMaxLevel)
		if l.ResearchCost == nil {
			p.ResearchCost = int64(math.Floor(float64(p.LicenseCost) / 4))
		}
	}
	for i := range c.Engines {
		e := &c.Engines[i]
		e.ResearchLevel, e.MaxResearchLevel = levels(legacyFor(legacy.Engines, i), e.ResearchLevel, e.MaxResearchLevel, defaultToolMaxLevel)
		if e.ResearchLevel > 0 && e.Status != EngineDeveloping && e.Status != EngineAvailable {
			e.Status = EngineLocked
		}
	}

	c.Genres = appendMissing(c.Genres, seed.Genres, func(g Genre) string { return g.ID })
	c.Themes = appendMissing(c.Themes, cloneThemes(seed.Themes), func(t Theme) string { return t.ID })
	c.Platforms = appendMissing(c.Platforms, seed.Platforms, func(p Platform) string { return p.ID })
	c.Engines = appendMissing(c.Engines, seed.Engines, func(e GameEngine) string { return e.ID })
	if len(c.Upgrades) == 0 {
		for _, u := range seed.Upgrades {
			u.Tiers = append([]UpgradeTier(nil), u.Tiers...)
			c.Upgrades = append(c.Upgrades, u)
		}
	}

	if len(legacy.Rivals) == 0 {
		c.Rivals = make([]Competitor, len(seed.Rivals))
		for i, r := range seed.Rivals {
			c.Rivals[i] = r.Clone()
		}
	} else {
		c.Rivals = mergeRivals(c.Rivals, seed.Rivals)
	}

	for i := range c.Staff {
		if !c.Staff[i].Status.Valid() {
			c.Staff[i].Status = StatusIdle
		}
	}
	if c.Released == nil {
		c.Released = []ReleasedGame{}
	}
	if len(c.Notifications) > NotificationCap {
		c.Notifications = c.Notifications[:NotificationCap]
	}
	return c.Clone(), nil
}

func legacyFor(items []legacyItem, i int) legacyItem {
	if i < len(items) {
		return items[i]
	}
	return legacyItem{}
}

func levels(l legacyItem, level, maxLevel, defaultMax int) (int, int) {
	if l.ResearchLevel == nil {
		level = 0
		if l.Unlocked != nil && *l.Unlocked {
			level = 1
		}
	}
	if l.MaxResearchLevel == nil || maxLevel <= 0 {
		maxLevel = defaultMax
	}
	if level > maxLevel {
		level = maxLevel
	}
	return level, maxLevel
}

func appendMissing[T any](have, seed []T, id func(T) string) []T {
	seen := make(map[string]bool, len(have))
	for _, h := range have {
		seen[id(h)] = true
	}
	for _, s := range seed {
		if !seen[id(s)] {
			have = append(have, s)
		}
	}
	return have
}

func cloneThemes(ts []Theme) []Theme {
	out := make([]Theme, len(ts))
	for i, t := range ts {
		out[i] = t.Clone()
	}
	return out
}

// mergeRivals keeps saved rival progress and fills anything the save lacks
// from the seed roster.
func mergeRivals(saved, seed []Competitor) []Competitor {
	byID := make(map[string]int, len(saved))
	for i, r := range saved {
		byID[r.ID] = i
	}
	out := make([]Competitor, 0, len(seed)+len(saved))
	used := make(map[string]bool, len(saved))
	for _, s := range seed {
		i, ok := byID[s.ID]
		if !ok {
			out = append(out, s.Clone())
			continue
		}
		r := saved[i].Clone()
		used[r.ID] = true
		if r.Name == "" {
			r.Name = s.Name
		}
		if r.Skill == 0 {
			r.Skill = s.Skill
		}
		if r.Reputation == 0 {
			r.Reputation = s.Reputation
		}
		if len(r.PreferredGenres) == 0 {
			r.PreferredGenres = append([]string(nil), s.PreferredGenres...)
		}
		if len(r.PreferredThemes) == 0 {
			r.PreferredThemes = append([]string(nil), s.PreferredThemes...)
		}
		if r.History == nil {
			r.History = []RivalRelease{}
		}
		out = append(out, r)
	}
	for _, r := range saved {
		if !used[r.ID] {
			out = append(out, r.Clone())
		}
	}
	return out
}
