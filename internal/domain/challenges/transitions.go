package challenges

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lutefd/courtline-api/internal/domain/matches"
	"github.com/lutefd/courtline-api/internal/domain/players"
	"github.com/lutefd/courtline-api/internal/domain/scores"
)

// Transitions only move forward: open -> accepted -> completed, or
// open -> declined. Each function returns the next state without mutating its
// input; persistence is the caller's concern.

type AcceptInput struct {
	ActorTeamID         uuid.UUID   `json:"actorTeamId"`
	Date                time.Time   `json:"date"`
	Level               float64     `json:"level"`
	ChallengerPlayerIDs []uuid.UUID `json:"challengerPlayerIds"`
	ActorPlayerIDs      []uuid.UUID `json:"actorPlayerIds"`
}

// Accept fixes the date, level and both lineups. The actor may not be the
// challenger, and each side's combined rating must not exceed the agreed
// level.
func Accept(ch Challenge, in AcceptInput, byID map[uuid.UUID]players.Player, now time.Time) (Challenge, error) {
	if ch.Status != StatusOpen {
		return ch, scores.Invalid(fmt.Sprintf("challenge is %s, only open challenges can be accepted", ch.Status))
	}
	if in.ActorTeamID == ch.ChallengerTeamID {
		return ch, scores.Invalid("a team cannot accept its own challenge")
	}
	if ch.ChallengedTeamID != nil && *ch.ChallengedTeamID != in.ActorTeamID {
		return ch, scores.Invalid("challenge is directed at another team")
	}
	if len(in.ChallengerPlayerIDs) != playersPerSide || len(in.ActorPlayerIDs) != playersPerSide {
		return ch, scores.Invalid(fmt.Sprintf("each side must field exactly %d players", playersPerSide))
	}

	sides := []struct {
		name string
		ids  []uuid.UUID
	}{
		{name: "challenger", ids: in.ChallengerPlayerIDs},
		{name: "accepting", ids: in.ActorPlayerIDs},
	}
	for _, side := range sides {
		combined, err := combinedRating(side.ids, byID)
		if err != nil {
			return ch, err
		}
		if combined > in.Level {
			return ch, scores.Invalid(fmt.Sprintf("%s side combined rating %.1f exceeds level %.1f", side.name, combined, in.Level))
		}
	}

	actor := in.ActorTeamID
	date := in.Date
	level := in.Level
	ch.ChallengedTeamID = &actor
	ch.AcceptedDate = &date
	ch.AcceptedLevel = &level
	ch.ChallengerPlayerIDs = in.ChallengerPlayerIDs
	ch.ChallengedPlayerIDs = in.ActorPlayerIDs
	ch.Status = StatusAccepted
	ch.UpdatedAt = now
	return ch, nil
}

// Decline terminates an open challenge.
func Decline(ch Challenge, now time.Time) (Challenge, error) {
	if ch.Status != StatusOpen {
		return ch, scores.Invalid(fmt.Sprintf("challenge is %s, only open challenges can be declined", ch.Status))
	}
	ch.Status = StatusDeclined
	ch.UpdatedAt = now
	return ch, nil
}

// Complete converts an accepted challenge into a persisted match via the
// result builder and retires the challenge from the pending view.
func Complete(ch Challenge, winner string, s matches.SetScores, now time.Time) (Challenge, matches.Match, error) {
	if ch.Status != StatusAccepted {
		return ch, matches.Match{}, scores.Invalid(fmt.Sprintf("challenge is %s, only accepted challenges can be completed", ch.Status))
	}
	if ch.ChallengedTeamID == nil || ch.AcceptedDate == nil || ch.AcceptedLevel == nil {
		return ch, matches.Match{}, scores.Invalid("challenge acceptance details are incomplete")
	}

	id := ch.ID
	m, err := matches.BuildResult(winner, s, matches.Meta{
		MatchID:        ch.ChallengeID,
		Team1ID:        ch.ChallengerTeamID,
		Team2ID:        *ch.ChallengedTeamID,
		Date:           *ch.AcceptedDate,
		Level:          *ch.AcceptedLevel,
		ChallengeID:    &id,
		Team1PlayerIDs: ch.ChallengerPlayerIDs,
		Team2PlayerIDs: ch.ChallengedPlayerIDs,
	})
	if err != nil {
		return ch, matches.Match{}, err
	}
	m.CreatedAt = now

	ch.Status = StatusCompleted
	ch.UpdatedAt = now
	return ch, m, nil
}

type Edit struct {
	Date                *time.Time  `json:"date,omitempty"`
	Level               *float64    `json:"level,omitempty"`
	ChallengerPlayerIDs []uuid.UUID `json:"challengerPlayerIds,omitempty"`
	ChallengedPlayerIDs []uuid.UUID `json:"challengedPlayerIds,omitempty"`
}

type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// EditPending adjusts an accepted challenge before completion and returns the
// diff of changed fields for the audit log.
func EditPending(ch Challenge, edit Edit, now time.Time) (Challenge, []FieldChange, error) {
	if ch.Status != StatusAccepted {
		return ch, nil, scores.Invalid(fmt.Sprintf("challenge is %s, only accepted challenges can be edited", ch.Status))
	}

	changes := make([]FieldChange, 0)
	if edit.Date != nil && (ch.AcceptedDate == nil || !edit.Date.Equal(*ch.AcceptedDate)) {
		changes = append(changes, FieldChange{Field: "date", From: formatDate(ch.AcceptedDate), To: edit.Date.Format(time.RFC3339)})
		d := *edit.Date
		ch.AcceptedDate = &d
	}
	if edit.Level != nil && (ch.AcceptedLevel == nil || *edit.Level != *ch.AcceptedLevel) {
		changes = append(changes, FieldChange{Field: "level", From: formatLevel(ch.AcceptedLevel), To: fmt.Sprintf("%.1f", *edit.Level)})
		l := *edit.Level
		ch.AcceptedLevel = &l
	}
	if edit.ChallengerPlayerIDs != nil && !sameIDs(edit.ChallengerPlayerIDs, ch.ChallengerPlayerIDs) {
		if len(edit.ChallengerPlayerIDs) != playersPerSide {
			return ch, nil, scores.Invalid(fmt.Sprintf("each side must field exactly %d players", playersPerSide))
		}
		changes = append(changes, FieldChange{Field: "challengerPlayers", From: formatIDs(ch.ChallengerPlayerIDs), To: formatIDs(edit.ChallengerPlayerIDs)})
		ch.ChallengerPlayerIDs = edit.ChallengerPlayerIDs
	}
	if edit.ChallengedPlayerIDs != nil && !sameIDs(edit.ChallengedPlayerIDs, ch.ChallengedPlayerIDs) {
		if len(edit.ChallengedPlayerIDs) != playersPerSide {
			return ch, nil, scores.Invalid(fmt.Sprintf("each side must field exactly %d players", playersPerSide))
		}
		changes = append(changes, FieldChange{Field: "challengedPlayers", From: formatIDs(ch.ChallengedPlayerIDs), To: formatIDs(edit.ChallengedPlayerIDs)})
		ch.ChallengedPlayerIDs = edit.ChallengedPlayerIDs
	}

	if len(changes) > 0 {
		ch.UpdatedAt = now
	}
	return ch, changes, nil
}

func combinedRating(ids []uuid.UUID, byID map[uuid.UUID]players.Player) (float64, error) {
	var total float64
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return 0, scores.Invalid(fmt.Sprintf("unknown player %s", id))
		}
		total += p.EffectiveRating()
	}
	return total, nil
}

func sameIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatLevel(l *float64) string {
	if l == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *l)
}

func formatIDs(ids []uuid.UUID) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id.String()
	}
	return out
}
