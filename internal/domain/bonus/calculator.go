package bonus

import (
	"time"

	"github.com/google/uuid"
	"github.com/lutefd/courtline-api/internal/domain/matches"
	"github.com/lutefd/courtline-api/internal/domain/players"
	"github.com/lutefd/courtline-api/internal/domain/season"
)

// ManualEntry is a director-entered point adjustment, additive into the
// season bonus.
type ManualEntry struct {
	ID          uuid.UUID `json:"id"`
	TeamID      uuid.UUID `json:"teamId"`
	Points      float64   `json:"points"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EntriesDocument is the payload of the "bonuses" collection.
type EntriesDocument struct {
	Entries []ManualEntry `json:"entries"`
}

type MonthBreakdown struct {
	MonthKey     string  `json:"monthKey"`
	MatchesCount int     `json:"matchesCount"`
	Volume       float64 `json:"volume"`
	Penalty      float64 `json:"penalty"`
	FullRoster   float64 `json:"fullRoster"`
	TeamVariety  float64 `json:"teamVariety"`
	LevelVariety float64 `json:"levelVariety"`
	MixedDoubles float64 `json:"mixedDoubles"`
	Total        float64 `json:"total"`
}

// Breakdown is the full audit trail behind a team's season bonus. Total is
// uncapped; the leaderboard ranker applies the 25% cap.
type Breakdown struct {
	TeamID        uuid.UUID        `json:"teamId"`
	Months        []MonthBreakdown `json:"months"`
	ManualPoints  float64          `json:"manualPoints"`
	UniformBonus  float64          `json:"uniformBonus"`
	PracticeBonus float64          `json:"practiceBonus"`
	Total         float64          `json:"total"`
}

const (
	practicePointPerSession   = 0.5
	practiceMonthCap          = 2
	practiceSeasonCap         = 4
	underParticipationFloor   = 4
	underParticipationPenalty = -4
)

// Compute builds the team's full bonus breakdown for the season. Months are
// scored independently; "now" gates the under-participation penalty so an
// in-progress month is never penalized.
func Compute(team players.Team, all []matches.Match, roster []players.Player, entries []ManualEntry, cfg season.Season, now time.Time) Breakdown {
	byID := make(map[uuid.UUID]players.Player, len(roster))
	for _, p := range roster {
		byID[p.ID] = p
	}

	bd := Breakdown{TeamID: team.ID}
	for _, month := range cfg.Months {
		mb := computeMonth(team, all, roster, byID, month, now)
		bd.Months = append(bd.Months, mb)
		bd.Total += mb.Total
	}

	for _, e := range entries {
		if e.TeamID == team.ID {
			bd.ManualPoints += e.Points
		}
	}

	bd.UniformBonus = uniformBonus(team)
	bd.PracticeBonus = practiceBonus(team, cfg)

	bd.Total += bd.ManualPoints + bd.UniformBonus + bd.PracticeBonus
	if bd.Total < 0 {
		bd.Total = 0
	}
	return bd
}

func computeMonth(team players.Team, all []matches.Match, roster []players.Player, byID map[uuid.UUID]players.Player, month season.Month, now time.Time) MonthBreakdown {
	mb := MonthBreakdown{MonthKey: month.Key}

	appeared := make(map[uuid.UUID]bool)
	opponents := make(map[uuid.UUID]bool)
	levels := make(map[float64]bool)
	mixedCount := 0

	for _, m := range all {
		if !m.InvolvesTeam(team.ID) || season.Key(m.Date) != month.Key {
			continue
		}
		mb.MatchesCount++

		for _, id := range m.SidePlayerIDs(team.ID) {
			appeared[id] = true
		}
		if m.Team1ID == team.ID {
			opponents[m.Team2ID] = true
		} else {
			opponents[m.Team1ID] = true
		}
		levels[m.Level] = true
		if matches.ResolveTypeForTeam(m, team.ID, byID) == matches.TypeMixed {
			mixedCount++
		}
	}

	mb.Volume = volumeTier(mb.MatchesCount)
	if mb.MatchesCount < underParticipationFloor && now.After(month.End) {
		mb.Penalty = underParticipationPenalty
	}
	if fullRosterAppeared(roster, appeared) {
		mb.FullRoster = 1
	}
	if len(opponents) >= 3 {
		mb.TeamVariety = 1
	}
	if len(levels) >= 3 {
		mb.LevelVariety = 1
	}
	if mixedCount >= 2 {
		mb.MixedDoubles = 1
	}

	mb.Total = mb.Volume + mb.Penalty + mb.FullRoster + mb.TeamVariety + mb.LevelVariety + mb.MixedDoubles
	return mb
}

// volumeTier is mutually exclusive: only the highest applicable tier counts.
func volumeTier(count int) float64 {
	switch {
	case count >= 20:
		return 4
	case count >= 15:
		return 3
	case count >= 10:
		return 2
	case count >= 5:
		return 1
	default:
		return 0
	}
}

func fullRosterAppeared(roster []players.Player, appeared map[uuid.UUID]bool) bool {
	active := make(map[uuid.UUID]bool)
	for _, p := range roster {
		if p.IsActive() {
			active[p.ID] = true
		}
	}
	if len(active) == 0 || len(active) > players.MaxRosterSize {
		return false
	}
	if len(appeared) != len(active) {
		return false
	}
	for id := range active {
		if !appeared[id] {
			return false
		}
	}
	return true
}

func uniformBonus(team players.Team) float64 {
	if !team.UniformPhotoSubmitted {
		return 0
	}
	switch team.UniformType {
	case "colors":
		return 2
	case "topsbottoms":
		return 4
	case "custom":
		return 6
	default:
		return 0
	}
}

// practiceBonus caps each month at 2 points and the season total at 4. Both
// caps apply.
func practiceBonus(team players.Team, cfg season.Season) float64 {
	var total float64
	for _, month := range cfg.Months {
		pts := float64(team.PracticeCounts[month.Key]) * practicePointPerSession
		if pts > practiceMonthCap {
			pts = practiceMonthCap
		}
		total += pts
	}
	if total > practiceSeasonCap {
		total = practiceSeasonCap
	}
	return total
}
