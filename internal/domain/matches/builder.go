package matches

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lutefd/courtline-api/internal/domain/scores"
)

// SetScores holds the per-set scores from the winner's perspective.
type SetScores struct {
	Set1Winner int `json:"set1Winner"`
	Set1Loser  int `json:"set1Loser"`
	Set2Winner int `json:"set2Winner"`
	Set2Loser  int `json:"set2Loser"`

	HasSet3          bool `json:"hasSet3"`
	Set3Winner       int  `json:"set3Winner"`
	Set3Loser        int  `json:"set3Loser"`
	Set3IsTiebreaker bool `json:"set3IsTiebreaker"`
}

type Meta struct {
	MatchID        string      `json:"matchId"`
	Team1ID        uuid.UUID   `json:"team1Id"`
	Team2ID        uuid.UUID   `json:"team2Id"`
	Date           time.Time   `json:"date"`
	Level          float64     `json:"level"`
	MatchType      string      `json:"matchType,omitempty"`
	ChallengeID    *uuid.UUID  `json:"challengeId,omitempty"`
	Team1PlayerIDs []uuid.UUID `json:"team1PlayerIds,omitempty"`
	Team2PlayerIDs []uuid.UUID `json:"team2PlayerIds,omitempty"`
}

// BuildResult turns a winner selection and per-set scores into a canonical
// match record with derived set and game counts. It never partially commits:
// any rule violation returns a *scores.ValidationError and no record.
func BuildResult(winner string, s SetScores, meta Meta) (Match, error) {
	if winner != WinnerTeam1 && winner != WinnerTeam2 {
		return Match{}, scores.Invalid(fmt.Sprintf("unknown winner %q", winner))
	}

	if v := scores.ValidateSetScore(s.Set1Winner, s.Set1Loser, false, false); !v.Valid {
		return Match{}, scores.Invalid("set 1: " + v.Reason)
	}
	if v := scores.ValidateSetScore(s.Set2Winner, s.Set2Loser, false, false); !v.Valid {
		return Match{}, scores.Invalid("set 2: " + v.Reason)
	}

	set1ToWinner := s.Set1Winner > s.Set1Loser
	set2ToWinner := s.Set2Winner > s.Set2Loser
	setsSplit := set1ToWinner != set2ToWinner

	if setsSplit && !s.HasSet3 {
		return Match{}, scores.Invalid("sets are split, a third set is required")
	}
	if !setsSplit && s.HasSet3 {
		return Match{}, scores.Invalid("winner won both sets, third set should not be entered")
	}

	matchTiebreak := false
	if s.HasSet3 {
		v := scores.ValidateSetScore(s.Set3Winner, s.Set3Loser, s.Set3IsTiebreaker, true)
		if !v.Valid {
			return Match{}, scores.Invalid("set 3: " + v.Reason)
		}
		matchTiebreak = v.IsMatchTiebreak || s.Set3IsTiebreaker
	}

	winnerSets := 0
	if set1ToWinner {
		winnerSets++
	}
	if set2ToWinner {
		winnerSets++
	}
	if s.HasSet3 && s.Set3Winner > s.Set3Loser {
		winnerSets++
	}
	if winnerSets < 2 {
		return Match{}, scores.Invalid("selected winner did not win 2 of 3 sets")
	}

	isTeam1Winner := winner == WinnerTeam1
	m := Match{
		ID:                  uuid.New(),
		MatchID:             meta.MatchID,
		Team1ID:             meta.Team1ID,
		Team2ID:             meta.Team2ID,
		Date:                meta.Date,
		Level:               meta.Level,
		MatchType:           meta.MatchType,
		ChallengeID:         meta.ChallengeID,
		Team1PlayerIDs:      meta.Team1PlayerIDs,
		Team2PlayerIDs:      meta.Team2PlayerIDs,
		Winner:              winner,
		Set3Played:          s.HasSet3,
		Set3IsMatchTiebreak: matchTiebreak,
	}

	m.Set1Team1, m.Set1Team2 = orient(s.Set1Winner, s.Set1Loser, isTeam1Winner)
	m.Set2Team1, m.Set2Team2 = orient(s.Set2Winner, s.Set2Loser, isTeam1Winner)
	if s.HasSet3 {
		m.Set3Team1, m.Set3Team2 = orient(s.Set3Winner, s.Set3Loser, isTeam1Winner)
	}

	m.Team1Sets, m.Team2Sets, m.Team1Games, m.Team2Games = tally(m)
	return m, nil
}

func orient(winnerScore, loserScore int, isTeam1Winner bool) (team1, team2 int) {
	if isTeam1Winner {
		return winnerScore, loserScore
	}
	return loserScore, winnerScore
}

func tally(m Match) (team1Sets, team2Sets, team1Games, team2Games int) {
	sets := [][2]int{
		{m.Set1Team1, m.Set1Team2},
		{m.Set2Team1, m.Set2Team2},
	}
	if m.Set3Played {
		sets = append(sets, [2]int{m.Set3Team1, m.Set3Team2})
	}
	for _, set := range sets {
		team1Games += set[0]
		team2Games += set[1]
		if set[0] > set[1] {
			team1Sets++
		} else if set[1] > set[0] {
			team2Sets++
		}
	}
	return team1Sets, team2Sets, team1Games, team2Games
}
