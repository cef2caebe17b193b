// engine/achievement.go
package engine

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

type AchievementCategory string

const (
	CategoryDistance AchievementCategory = "distance"
	CategoryStreak   AchievementCategory = "streak"
	CategorySpeed    AchievementCategory = "speed"
)

// AchievementDefinition is one static catalog entry. Threshold is miles for
// distance, days for streak and mph for speed.
type AchievementDefinition struct {
	Code        string              `json:"code" yaml:"code"`
	Category    AchievementCategory `json:"category" yaml:"category"`
	Threshold   float64             `json:"threshold" yaml:"threshold"`
	Description string              `json:"description" yaml:"description"`
	Points      int                 `json:"points" yaml:"points"`
	Gems        int                 `json:"gems" yaml:"gems"`
}

// AchievementGrant ties a user to a satisfied definition. Storage keeps at
// most one grant per (UserID, Description).
type AchievementGrant struct {
	UserID      string
	Code        string
	Description string
	Points      int
	Gems        int
	GrantedAt   time.Time
}

// Catalog is an immutable, ordered list of definitions.
type Catalog struct {
	defs []AchievementDefinition
}

// NewCatalog validates defs and fills missing codes from the description.
func NewCatalog(defs []AchievementDefinition) (Catalog, error) {
	seen := make(map[string]bool, len(defs))
	out := make([]AchievementDefinition, 0, len(defs))
	for i, d := range defs {
		if d.Description == "" {
			return Catalog{}, fmt.Errorf("achievement %d: description is required", i)
		}
		if seen[d.Description] {
			return Catalog{}, fmt.Errorf("achievement %q: duplicate description", d.Description)
		}
		switch d.Category {
		case CategoryDistance, CategoryStreak, CategorySpeed:
		default:
			return Catalog{}, fmt.Errorf("achievement %q: unknown category %q", d.Description, d.Category)
		}
		if d.Threshold <= 0 {
			return Catalog{}, fmt.Errorf("achievement %q: threshold must be positive", d.Description)
		}
		if d.Code == "" {
			d.Code = slug.Make(d.Description)
		}
		seen[d.Description] = true
		out = append(out, d)
	}
	return Catalog{defs: out}, nil
}

// DefaultCatalog is the built-in achievement set.
func DefaultCatalog() Catalog {
	c, err := NewCatalog([]AchievementDefinition{
		{Category: CategoryDistance, Threshold: 3.1, Description: "Complete a 5km run", Points: 50, Gems: 5},
		{Category: CategoryDistance, Threshold: 6.2, Description: "Complete a 10km run", Points: 100, Gems: 10},
		{Category: CategoryStreak, Threshold: 7, Description: "Maintain a 7-day streak", Points: 75, Gems: 7},
		{Category: CategoryStreak, Threshold: 30, Description: "Maintain a 30-day streak", Points: 200, Gems: 30},
		{Category: CategorySpeed, Threshold: 10.8, Description: "Maintain an average speed of 3 m/s", Points: 150, Gems: 15},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Definitions returns a copy of the catalog entries.
func (c Catalog) Definitions() []AchievementDefinition {
	return append([]AchievementDefinition(nil), c.defs...)
}

func (c Catalog) Len() int { return len(c.defs) }

// AchievementEngine proposes every definition a completed run satisfies.
type AchievementEngine struct {
	catalog Catalog
}

func NewAchievementEngine(catalog Catalog) *AchievementEngine {
	return &AchievementEngine{catalog: catalog}
}

// Evaluate re-checks the whole catalog; it does not know what was granted
// before. Only a reported average speed counts for speed achievements.
func (e *AchievementEngine) Evaluate(m RunMetrics, streak StreakState) []AchievementDefinition {
	var out []AchievementDefinition
	for _, d := range e.catalog.defs {
		var ok bool
		switch d.Category {
		case CategoryDistance:
			ok = m.DistanceMiles >= d.Threshold
		case CategoryStreak:
			ok = float64(streak.CurrentStreak) >= d.Threshold
		case CategorySpeed:
			ok = m.ReportedAverage != nil && *m.ReportedAverage >= d.Threshold
		}
		if ok {
			out = append(out, d)
		}
	}
	return out
}

// Grants turns satisfied definitions into grant records for userID.
func Grants(userID string, defs []AchievementDefinition, at time.Time) []AchievementGrant {
	grants := make([]AchievementGrant, 0, len(defs))
	for _, d := range defs {
		grants = append(grants, AchievementGrant{
			UserID:      userID,
			Code:        d.Code,
			Description: d.Description,
			Points:      d.Points,
			Gems:        d.Gems,
			GrantedAt:   at,
		})
	}
	return grants
}
