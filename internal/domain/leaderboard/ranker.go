package leaderboard

import (
	"sort"

	"github.com/google/uuid"
	"github.com/lutefd/courtline-api/internal/domain/bonus"
	"github.com/lutefd/courtline-api/internal/domain/matches"
	"github.com/lutefd/courtline-api/internal/domain/players"
	"github.com/lutefd/courtline-api/internal/domain/season"
)

const (
	regularWinPoints = 2
	lateWinPoints    = 4
	bonusCapRatio    = 0.25
	qualifyingRanks  = 2
)

type Standing struct {
	TeamID         uuid.UUID `json:"teamId"`
	TeamName       string    `json:"teamName"`
	MatchWinPoints float64   `json:"matchWinPoints"`
	UncappedBonus  float64   `json:"uncappedBonus"`
	CappedBonus    float64   `json:"cappedBonus"`
	TotalPoints    float64   `json:"totalPoints"`
	SetsWon        int       `json:"setsWon"`
	GamesWon       int       `json:"gamesWon"`
	MatchesWon     int       `json:"matchesWon"`
	MatchesPlayed  int       `json:"matchesPlayed"`
	Rank           int       `json:"rank"`
	Qualifying     bool      `json:"qualifying"`
}

// Rank combines match-win points with the capped bonus and produces a
// total-ordered standing list: totalPoints, then setsWon, then gamesWon,
// descending. Ties beyond that keep the input team order.
func Rank(teams []players.Team, all []matches.Match, breakdowns map[uuid.UUID]bonus.Breakdown, cfg season.Season) []Standing {
	standings := make([]Standing, 0, len(teams))
	for _, team := range teams {
		s := Standing{TeamID: team.ID, TeamName: team.Name}
		for _, m := range all {
			if !m.InvolvesTeam(team.ID) {
				continue
			}
			s.MatchesPlayed++
			if m.Team1ID == team.ID {
				s.SetsWon += m.Team1Sets
				s.GamesWon += m.Team1Games
			} else {
				s.SetsWon += m.Team2Sets
				s.GamesWon += m.Team2Games
			}
			if m.WinnerTeamID() == team.ID {
				s.MatchesWon++
				if cfg.InLateMonth(m.Date) {
					s.MatchWinPoints += lateWinPoints
				} else {
					s.MatchWinPoints += regularWinPoints
				}
			}
		}

		if bd, ok := breakdowns[team.ID]; ok {
			s.UncappedBonus = bd.Total
		}
		s.CappedBonus = s.UncappedBonus
		if limit := bonusCapRatio * s.MatchWinPoints; s.CappedBonus > limit {
			s.CappedBonus = limit
		}
		s.TotalPoints = s.MatchWinPoints + s.CappedBonus
		standings = append(standings, s)
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.SetsWon != b.SetsWon {
			return a.SetsWon > b.SetsWon
		}
		return a.GamesWon > b.GamesWon
	})

	for i := range standings {
		standings[i].Rank = i + 1
		standings[i].Qualifying = i < qualifyingRanks
	}
	return standings
}
