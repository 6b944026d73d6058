package matches

import (
	"time"

	"github.com/google/uuid"
	"github.com/lutefd/courtline-api/internal/domain/players"
)

const (
	WinnerTeam1 = "team1"
	WinnerTeam2 = "team2"
)

const (
	TypeMens   = "mens"
	TypeWomens = "womens"
	TypeMixed  = "mixed"
)

type Match struct {
	ID       uuid.UUID `json:"id"`
	MatchID  string    `json:"matchId"`
	Team1ID  uuid.UUID `json:"team1Id"`
	Team2ID  uuid.UUID `json:"team2Id"`
	Date     time.Time `json:"date"`
	Level    float64   `json:"level"`

	Set1Team1 int `json:"set1Team1"`
	Set1Team2 int `json:"set1Team2"`
	Set2Team1 int `json:"set2Team1"`
	Set2Team2 int `json:"set2Team2"`
	Set3Team1 int `json:"set3Team1"`
	Set3Team2 int `json:"set3Team2"`

	Set3Played          bool `json:"set3Played"`
	Set3IsMatchTiebreak bool `json:"set3IsMatchTiebreak"`

	Winner string `json:"winner"`

	Team1Sets  int `json:"team1Sets"`
	Team2Sets  int `json:"team2Sets"`
	Team1Games int `json:"team1Games"`
	Team2Games int `json:"team2Games"`

	// MatchType is the explicit tag; legacy records leave it empty and rely
	// on gender inference.
	MatchType string `json:"matchType,omitempty"`

	ChallengeID *uuid.UUID `json:"challengeId,omitempty"`

	Team1PlayerIDs []uuid.UUID `json:"team1PlayerIds,omitempty"`
	Team2PlayerIDs []uuid.UUID `json:"team2PlayerIds,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// MatchesDocument is the payload of the "matches" collection.
type MatchesDocument struct {
	Matches []Match `json:"matches"`
}

func (m Match) InvolvesTeam(teamID uuid.UUID) bool {
	return m.Team1ID == teamID || m.Team2ID == teamID
}

func (m Match) WinnerTeamID() uuid.UUID {
	if m.Winner == WinnerTeam2 {
		return m.Team2ID
	}
	return m.Team1ID
}

func (m Match) SidePlayerIDs(teamID uuid.UUID) []uuid.UUID {
	if m.Team2ID == teamID {
		return m.Team2PlayerIDs
	}
	return m.Team1PlayerIDs
}

// ResolveTypeForTeam returns the match's type as seen from one team's side.
// The explicit tag wins; records without one fall back to inferring "mixed"
// from the genders of that side's listed players.
func ResolveTypeForTeam(m Match, teamID uuid.UUID, byID map[uuid.UUID]players.Player) string {
	if m.MatchType != "" {
		return m.MatchType
	}
	return inferFromGenders(m.SidePlayerIDs(teamID), byID)
}

func inferFromGenders(playerIDs []uuid.UUID, byID map[uuid.UUID]players.Player) string {
	var hasM, hasF bool
	for _, id := range playerIDs {
		p, ok := byID[id]
		if !ok {
			continue
		}
		switch p.Gender {
		case "M":
			hasM = true
		case "F":
			hasF = true
		}
	}
	switch {
	case hasM && hasF:
		return TypeMixed
	case hasF:
		return TypeWomens
	case hasM:
		return TypeMens
	default:
		return ""
	}
}
