package challenges

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lutefd/courtline-api/internal/domain/matches"
	"github.com/lutefd/courtline-api/internal/domain/players"
	"github.com/lutefd/courtline-api/internal/domain/scores"
)

func pair(byID map[uuid.UUID]players.Player, ratings ...float64) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(ratings))
	for _, r := range ratings {
		p := players.Player{ID: uuid.New(), NTRPRating: r, Status: players.StatusActive}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	return ids
}

func openChallenge(challenger uuid.UUID) Challenge {
	return Challenge{
		ID:               uuid.New(),
		ChallengeID:      "CH-014",
		ChallengerTeamID: challenger,
		ProposedDate:     time.Date(2026, 7, 4, 18, 0, 0, 0, time.UTC),
		ProposedLevel:    7.0,
		Status:           StatusOpen,
	}
}

func acceptedChallenge(challenger, challenged uuid.UUID, byID map[uuid.UUID]players.Player) Challenge {
	ch := openChallenge(challenger)
	in := AcceptInput{
		ActorTeamID:         challenged,
		Date:                time.Date(2026, 7, 8, 18, 0, 0, 0, time.UTC),
		Level:               7.0,
		ChallengerPlayerIDs: pair(byID, 3.5, 3.5),
		ActorPlayerIDs:      pair(byID, 3.0, 4.0),
	}
	out, err := Accept(ch, in, byID, time.Now().UTC())
	if err != nil {
		panic(err)
	}
	return out
}

func TestAcceptFixesDateLevelAndLineups(t *testing.T) {
	challenger, challenged := uuid.New(), uuid.New()
	byID := make(map[uuid.UUID]players.Player)
	ch := acceptedChallenge(challenger, challenged, byID)

	if ch.Status != StatusAccepted {
		t.Fatalf("status = %s, want accepted", ch.Status)
	}
	if ch.ChallengedTeamID == nil || *ch.ChallengedTeamID != challenged {
		t.Fatalf("challenged team not fixed")
	}
	if ch.AcceptedDate == nil || ch.AcceptedLevel == nil {
		t.Fatalf("date and level must be fixed on accept")
	}
	if len(ch.ChallengerPlayerIDs) != 2 || len(ch.ChallengedPlayerIDs) != 2 {
		t.Fatalf("both lineups must be fixed on accept")
	}
}

func TestAcceptGuards(t *testing.T) {
	challenger := uuid.New()
	byID := make(map[uuid.UUID]players.Player)
	okPair := pair(byID, 3.5, 3.5)

	tests := []struct {
		name    string
		mutate  func(*Challenge, *AcceptInput)
		message string
	}{
		{
			name:    "own challenge",
			mutate:  func(_ *Challenge, in *AcceptInput) { in.ActorTeamID = challenger },
			message: "a team cannot accept its own challenge",
		},
		{
			name: "directed at another team",
			mutate: func(ch *Challenge, _ *AcceptInput) {
				other := uuid.New()
				ch.ChallengedTeamID = &other
			},
			message: "challenge is directed at another team",
		},
		{
			name:    "wrong lineup size",
			mutate:  func(_ *Challenge, in *AcceptInput) { in.ActorPlayerIDs = in.ActorPlayerIDs[:1] },
			message: "each side must field exactly 2 players",
		},
		{
			name: "rating above level",
			mutate: func(_ *Challenge, in *AcceptInput) {
				in.ChallengerPlayerIDs = pair(byID, 4.0, 4.5)
			},
			message: "challenger side combined rating 8.5 exceeds level 7.0",
		},
		{
			name:    "not open",
			mutate:  func(ch *Challenge, _ *AcceptInput) { ch.Status = StatusDeclined },
			message: "challenge is declined, only open challenges can be accepted",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ch := openChallenge(challenger)
			in := AcceptInput{
				ActorTeamID:         uuid.New(),
				Date:                time.Date(2026, 7, 8, 18, 0, 0, 0, time.UTC),
				Level:               7.0,
				ChallengerPlayerIDs: okPair,
				ActorPlayerIDs:      pair(byID, 3.0, 4.0),
			}
			tc.mutate(&ch, &in)

			_, err := Accept(ch, in, byID, time.Now().UTC())
			var verr *scores.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Reason != tc.message {
				t.Fatalf("message = %q, want %q", verr.Reason, tc.message)
			}
		})
	}
}

func TestAcceptUsesDynamicRatingWhenPresent(t *testing.T) {
	challenger := uuid.New()
	byID := make(map[uuid.UUID]players.Player)

	// NTRP sums to 7.0 but the dynamic rating pushes one player to 4.1.
	ids := pair(byID, 3.5, 3.5)
	p := byID[ids[0]]
	dynamic := 4.1
	p.DynamicRating = &dynamic
	byID[ids[0]] = p

	in := AcceptInput{
		ActorTeamID:         uuid.New(),
		Date:                time.Now().UTC(),
		Level:               7.0,
		ChallengerPlayerIDs: ids,
		ActorPlayerIDs:      pair(byID, 3.0, 3.0),
	}
	_, err := Accept(openChallenge(challenger), in, byID, time.Now().UTC())
	if err == nil || !strings.Contains(err.Error(), "exceeds level") {
		t.Fatalf("dynamic rating should be used, got %v", err)
	}
}

func TestDeclineIsTerminal(t *testing.T) {
	ch := openChallenge(uuid.New())
	out, err := Decline(ch, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusDeclined {
		t.Fatalf("status = %s, want declined", out.Status)
	}

	if _, err := Decline(out, time.Now().UTC()); err == nil {
		t.Fatalf("declining twice should fail")
	}
	if _, err := Accept(out, AcceptInput{}, nil, time.Now().UTC()); err == nil {
		t.Fatalf("declined challenges cannot be accepted")
	}
}

func TestCompleteProducesMatchAndRetiresChallenge(t *testing.T) {
	byID := make(map[uuid.UUID]players.Player)
	challenger, challenged := uuid.New(), uuid.New()
	ch := acceptedChallenge(challenger, challenged, byID)

	now := time.Now().UTC()
	out, m, err := Complete(ch, matches.WinnerTeam2, matches.SetScores{
		Set1Winner: 6, Set1Loser: 3,
		Set2Winner: 6, Set2Loser: 4,
	}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", out.Status)
	}
	if m.ChallengeID == nil || *m.ChallengeID != ch.ID {
		t.Fatalf("match must reference the originating challenge")
	}
	if m.Team1ID != challenger || m.Team2ID != challenged {
		t.Fatalf("match sides must come from the challenge")
	}
	if m.Team2Sets != 2 {
		t.Fatalf("team2 sets = %d, want 2", m.Team2Sets)
	}
	if !m.Date.Equal(*ch.AcceptedDate) {
		t.Fatalf("match date must be the accepted date")
	}
}

func TestCompleteRejectsInvalidResultWithoutTransition(t *testing.T) {
	byID := make(map[uuid.UUID]players.Player)
	ch := acceptedChallenge(uuid.New(), uuid.New(), byID)

	out, _, err := Complete(ch, matches.WinnerTeam1, matches.SetScores{
		Set1Winner: 6, Set1Loser: 3,
		Set2Winner: 3, Set2Loser: 6,
	}, time.Now().UTC())
	if err == nil {
		t.Fatalf("split sets without a third set must be rejected")
	}
	if out.Status != StatusAccepted {
		t.Fatalf("failed completion must not change state, got %s", out.Status)
	}

	if _, _, err := Complete(Challenge{Status: StatusOpen}, matches.WinnerTeam1, matches.SetScores{}, time.Now().UTC()); err == nil {
		t.Fatalf("open challenges cannot be completed")
	}
}

func TestEditPendingDiffsChangedFields(t *testing.T) {
	byID := make(map[uuid.UUID]players.Player)
	ch := acceptedChallenge(uuid.New(), uuid.New(), byID)

	newDate := ch.AcceptedDate.AddDate(0, 0, 2)
	newLevel := 7.5
	out, changes, err := EditPending(ch, Edit{Date: &newDate, Level: &newLevel}, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 field changes, got %d: %+v", len(changes), changes)
	}
	if changes[0].Field != "date" || changes[1].Field != "level" {
		t.Fatalf("unexpected diff fields: %+v", changes)
	}
	if changes[1].From != "7.0" || changes[1].To != "7.5" {
		t.Fatalf("level diff = %+v", changes[1])
	}
	if !out.AcceptedDate.Equal(newDate) || *out.AcceptedLevel != newLevel {
		t.Fatalf("edit not applied")
	}

	// Unchanged edit yields no diff.
	_, changes, err = EditPending(out, Edit{Level: &newLevel}, time.Now().UTC())
	if err != nil || len(changes) != 0 {
		t.Fatalf("no-op edit should produce an empty diff, got %+v (%v)", changes, err)
	}

	// Open challenges cannot be edited.
	if _, _, err := EditPending(Challenge{Status: StatusOpen}, Edit{}, time.Now().UTC()); err == nil {
		t.Fatalf("editing an open challenge should fail")
	}
}

func TestOverdueFlag(t *testing.T) {
	byID := make(map[uuid.UUID]players.Player)
	ch := acceptedChallenge(uuid.New(), uuid.New(), byID)
	accepted := *ch.AcceptedDate

	if Overdue(ch, accepted) {
		t.Fatalf("not overdue on the accepted date")
	}
	if !Overdue(ch, accepted.AddDate(0, 0, 1)) {
		t.Fatalf("overdue one day after the accepted date")
	}
	if Overdue(Challenge{Status: StatusOpen}, accepted.AddDate(0, 0, 5)) {
		t.Fatalf("open challenges are never overdue")
	}
}
