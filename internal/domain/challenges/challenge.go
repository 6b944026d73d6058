package challenges

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusCompleted Status = "completed"
)

const playersPerSide = 2

type Challenge struct {
	ID          uuid.UUID `json:"id"`
	ChallengeID string    `json:"challengeId"`

	ChallengerTeamID uuid.UUID `json:"challengerTeamId"`
	// ChallengedTeamID is nil for an open challenge until a team accepts.
	ChallengedTeamID *uuid.UUID `json:"challengedTeamId,omitempty"`

	ProposedDate  time.Time `json:"proposedDate"`
	ProposedLevel float64   `json:"proposedLevel"`

	AcceptedDate  *time.Time `json:"acceptedDate,omitempty"`
	AcceptedLevel *float64   `json:"acceptedLevel,omitempty"`

	ChallengerPlayerIDs []uuid.UUID `json:"challengerPlayerIds,omitempty"`
	ChallengedPlayerIDs []uuid.UUID `json:"challengedPlayerIds,omitempty"`

	Status Status `json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChallengesDocument is the payload of the "challenges" collection.
type ChallengesDocument struct {
	Challenges []Challenge `json:"challenges"`
}

func (d ChallengesDocument) ByID(id uuid.UUID) (Challenge, int, bool) {
	for i, ch := range d.Challenges {
		if ch.ID == id {
			return ch, i, true
		}
	}
	return Challenge{}, -1, false
}

// Pending reports the challenges still awaiting action.
func (d ChallengesDocument) Pending() []Challenge {
	out := make([]Challenge, 0)
	for _, ch := range d.Challenges {
		if ch.Status == StatusOpen || ch.Status == StatusAccepted {
			out = append(out, ch)
		}
	}
	return out
}

// Overdue is advisory only: an accepted challenge whose agreed date is at
// least one calendar day in the past.
func Overdue(ch Challenge, today time.Time) bool {
	if ch.Status != StatusAccepted || ch.AcceptedDate == nil {
		return false
	}
	return !today.Before(ch.AcceptedDate.AddDate(0, 0, 1))
}
