package players

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const MaxRosterSize = 14

type Status string

const (
	StatusActive   Status = "active"
	StatusInjured  Status = "injured"
	StatusInactive Status = "inactive"
)

type Player struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Gender        string     `json:"gender"`
	NTRPRating    float64    `json:"ntrpRating"`
	DynamicRating *float64   `json:"dynamicRating,omitempty"`
	Status        Status     `json:"status"`
	TeamID        *uuid.UUID `json:"teamId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type Team struct {
	ID                    uuid.UUID      `json:"id"`
	Name                  string         `json:"name"`
	UniformType           string         `json:"uniformType,omitempty"`
	UniformPhotoSubmitted bool           `json:"uniformPhotoSubmitted"`
	PracticeCounts        map[string]int `json:"practiceCounts,omitempty"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
}

type Trade struct {
	ID         uuid.UUID  `json:"id"`
	PlayerID   uuid.UUID  `json:"playerId"`
	FromTeamID *uuid.UUID `json:"fromTeamId,omitempty"`
	ToTeamID   uuid.UUID  `json:"toTeamId"`
	Date       time.Time  `json:"date"`
}

// TeamsDocument is the payload of the "teams" collection: teams, players and
// trades are edited and versioned together.
type TeamsDocument struct {
	Teams   []Team   `json:"teams"`
	Players []Player `json:"players"`
	Trades  []Trade  `json:"trades"`
}

// EffectiveRating prefers the recalculated dynamic rating over the static NTRP.
func (p Player) EffectiveRating() float64 {
	if p.DynamicRating != nil {
		return *p.DynamicRating
	}
	return p.NTRPRating
}

func (p Player) IsActive() bool {
	return p.Status == StatusActive
}

func (d TeamsDocument) Roster(teamID uuid.UUID) []Player {
	roster := make([]Player, 0)
	for _, p := range d.Players {
		if p.TeamID != nil && *p.TeamID == teamID {
			roster = append(roster, p)
		}
	}
	return roster
}

func (d TeamsDocument) PlayersByID() map[uuid.UUID]Player {
	out := make(map[uuid.UUID]Player, len(d.Players))
	for _, p := range d.Players {
		out[p.ID] = p
	}
	return out
}

func (d TeamsDocument) TeamByID(teamID uuid.UUID) (Team, bool) {
	for _, t := range d.Teams {
		if t.ID == teamID {
			return t, true
		}
	}
	return Team{}, false
}

// ApplyTrade moves a player to the destination team and records the trade.
// The destination roster may not exceed MaxRosterSize.
func ApplyTrade(d TeamsDocument, tr Trade, now time.Time) (TeamsDocument, error) {
	if _, ok := d.TeamByID(tr.ToTeamID); !ok {
		return d, fmt.Errorf("destination team %s not found", tr.ToTeamID)
	}
	if len(d.Roster(tr.ToTeamID)) >= MaxRosterSize {
		return d, fmt.Errorf("destination roster is full (%d players)", MaxRosterSize)
	}

	found := false
	updated := make([]Player, len(d.Players))
	copy(updated, d.Players)
	for i, p := range updated {
		if p.ID != tr.PlayerID {
			continue
		}
		found = true
		if p.TeamID != nil && *p.TeamID == tr.ToTeamID {
			return d, fmt.Errorf("player %s is already on team %s", tr.PlayerID, tr.ToTeamID)
		}
		tr.FromTeamID = p.TeamID
		to := tr.ToTeamID
		updated[i].TeamID = &to
		updated[i].UpdatedAt = now
	}
	if !found {
		return d, fmt.Errorf("player %s not found", tr.PlayerID)
	}

	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	if tr.Date.IsZero() {
		tr.Date = now
	}

	d.Players = updated
	d.Trades = append(append([]Trade(nil), d.Trades...), tr)
	return d, nil
}
