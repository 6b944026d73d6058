package players

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestEffectiveRatingPrefersDynamic(t *testing.T) {
	p := Player{NTRPRating: 3.5}
	if got := p.EffectiveRating(); got != 3.5 {
		t.Fatalf("EffectiveRating() = %v, want 3.5", got)
	}
	dynamic := 4.2
	p.DynamicRating = &dynamic
	if got := p.EffectiveRating(); got != 4.2 {
		t.Fatalf("EffectiveRating() = %v, want 4.2", got)
	}
}

func TestRosterFiltersByTeam(t *testing.T) {
	teamA := uuid.New()
	teamB := uuid.New()
	doc := TeamsDocument{
		Players: []Player{
			{ID: uuid.New(), TeamID: &teamA},
			{ID: uuid.New(), TeamID: &teamB},
			{ID: uuid.New(), TeamID: &teamA},
			{ID: uuid.New()},
		},
	}
	if got := len(doc.Roster(teamA)); got != 2 {
		t.Fatalf("roster size = %d, want 2", got)
	}
	if got := len(doc.Roster(teamB)); got != 1 {
		t.Fatalf("roster size = %d, want 1", got)
	}
}

func TestApplyTrade(t *testing.T) {
	now := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	teamA := uuid.New()
	teamB := uuid.New()
	playerID := uuid.New()
	doc := TeamsDocument{
		Teams: []Team{
			{ID: teamA, Name: "Alpha"},
			{ID: teamB, Name: "Bravo"},
		},
		Players: []Player{
			{ID: playerID, Name: "Marta", Status: StatusActive, TeamID: &teamA},
		},
	}

	next, err := ApplyTrade(doc, Trade{PlayerID: playerID, ToTeamID: teamB}, now)
	if err != nil {
		t.Fatalf("ApplyTrade: %v", err)
	}
	if len(next.Roster(teamB)) != 1 {
		t.Fatalf("destination roster = %d, want 1", len(next.Roster(teamB)))
	}
	if len(next.Roster(teamA)) != 0 {
		t.Fatalf("source roster = %d, want 0", len(next.Roster(teamA)))
	}
	if len(next.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(next.Trades))
	}
	tr := next.Trades[0]
	if tr.FromTeamID == nil || *tr.FromTeamID != teamA {
		t.Fatalf("fromTeamId = %v, want %s", tr.FromTeamID, teamA)
	}
	if tr.ID == uuid.Nil {
		t.Fatal("trade id was not assigned")
	}

	// input document untouched
	if *doc.Players[0].TeamID != teamA {
		t.Fatal("ApplyTrade mutated its input")
	}
}

func TestApplyTradeRejections(t *testing.T) {
	now := time.Now()
	teamA := uuid.New()
	teamB := uuid.New()
	playerID := uuid.New()

	full := TeamsDocument{Teams: []Team{{ID: teamA}, {ID: teamB}}}
	for i := 0; i < MaxRosterSize; i++ {
		id := teamB
		full.Players = append(full.Players, Player{ID: uuid.New(), Name: fmt.Sprintf("p%d", i), TeamID: &id})
	}
	full.Players = append(full.Players, Player{ID: playerID, TeamID: &teamA})

	cases := []struct {
		name string
		doc  TeamsDocument
		tr   Trade
	}{
		{
			name: "unknown destination",
			doc:  TeamsDocument{Teams: []Team{{ID: teamA}}, Players: []Player{{ID: playerID, TeamID: &teamA}}},
			tr:   Trade{PlayerID: playerID, ToTeamID: uuid.New()},
		},
		{
			name: "unknown player",
			doc:  TeamsDocument{Teams: []Team{{ID: teamA}, {ID: teamB}}},
			tr:   Trade{PlayerID: uuid.New(), ToTeamID: teamB},
		},
		{
			name: "already on destination",
			doc:  TeamsDocument{Teams: []Team{{ID: teamA}, {ID: teamB}}, Players: []Player{{ID: playerID, TeamID: &teamB}}},
			tr:   Trade{PlayerID: playerID, ToTeamID: teamB},
		},
		{
			name: "destination roster full",
			doc:  full,
			tr:   Trade{PlayerID: playerID, ToTeamID: teamB},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ApplyTrade(tc.doc, tc.tr, now); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
