package matches

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lutefd/courtline-api/internal/domain/players"
)

func TestResolveTypeForTeamExplicitTagWins(t *testing.T) {
	teamID := uuid.New()
	p1, p2 := uuid.New(), uuid.New()
	byID := map[uuid.UUID]players.Player{
		p1: {ID: p1, Gender: "M"},
		p2: {ID: p2, Gender: "F"},
	}
	m := Match{Team1ID: teamID, Team1PlayerIDs: []uuid.UUID{p1, p2}, MatchType: TypeMens}
	if got := ResolveTypeForTeam(m, teamID, byID); got != TypeMens {
		t.Fatalf("explicit tag should win, got %q", got)
	}
}

func TestResolveTypeForTeamInfersFromGenders(t *testing.T) {
	teamID := uuid.New()
	m1, m2, f1 := uuid.New(), uuid.New(), uuid.New()
	byID := map[uuid.UUID]players.Player{
		m1: {ID: m1, Gender: "M"},
		m2: {ID: m2, Gender: "M"},
		f1: {ID: f1, Gender: "F"},
	}

	tests := []struct {
		name string
		ids  []uuid.UUID
		want string
	}{
		{name: "both genders", ids: []uuid.UUID{m1, f1}, want: TypeMixed},
		{name: "two men", ids: []uuid.UUID{m1, m2}, want: TypeMens},
		{name: "one woman known", ids: []uuid.UUID{f1, uuid.New()}, want: TypeWomens},
		{name: "no known players", ids: []uuid.UUID{uuid.New()}, want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := Match{Team1ID: teamID, Team1PlayerIDs: tc.ids}
			if got := ResolveTypeForTeam(m, teamID, byID); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSidePlayerIDsPicksCorrectSide(t *testing.T) {
	team1, team2 := uuid.New(), uuid.New()
	a, b := uuid.New(), uuid.New()
	m := Match{
		Team1ID: team1, Team2ID: team2,
		Team1PlayerIDs: []uuid.UUID{a},
		Team2PlayerIDs: []uuid.UUID{b},
	}
	if got := m.SidePlayerIDs(team2); len(got) != 1 || got[0] != b {
		t.Fatalf("expected team2 side players")
	}
	if got := m.SidePlayerIDs(team1); len(got) != 1 || got[0] != a {
		t.Fatalf("expected team1 side players")
	}
}
