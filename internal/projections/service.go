package projections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lutefd/courtline-api/internal/domain/bonus"
	"github.com/lutefd/courtline-api/internal/domain/challenges"
	"github.com/lutefd/courtline-api/internal/domain/leaderboard"
	"github.com/lutefd/courtline-api/internal/domain/matches"
	"github.com/lutefd/courtline-api/internal/domain/players"
	"github.com/lutefd/courtline-api/internal/domain/season"
	"github.com/lutefd/courtline-api/internal/storage/docstore"
)

// StandingsDocument is the persisted "standings" projection: derived data,
// rewritten wholesale after every result write.
type StandingsDocument struct {
	Standings  []leaderboard.Standing `json:"standings"`
	ComputedAt time.Time              `json:"computedAt"`
}

type Service struct {
	store docstore.Store
	cfg   season.Season
}

func NewService(store docstore.Store, cfg season.Season) *Service {
	return &Service{store: store, cfg: cfg}
}

// Recompute rebuilds the leaderboard from the teams, matches and bonuses
// collections and force-writes the standings projection. Derived data has no
// version guard of its own: the latest recompute wins.
func (s *Service) Recompute(ctx context.Context, now time.Time) ([]leaderboard.Standing, error) {
	var teamsDoc players.TeamsDocument
	if err := s.load(ctx, docstore.CollectionTeams, &teamsDoc); err != nil {
		return nil, err
	}
	var matchesDoc matches.MatchesDocument
	if err := s.load(ctx, docstore.CollectionMatches, &matchesDoc); err != nil {
		return nil, err
	}
	var entriesDoc bonus.EntriesDocument
	if err := s.load(ctx, docstore.CollectionBonuses, &entriesDoc); err != nil {
		return nil, err
	}

	breakdowns := make(map[uuid.UUID]bonus.Breakdown, len(teamsDoc.Teams))
	for _, team := range teamsDoc.Teams {
		breakdowns[team.ID] = bonus.Compute(team, matchesDoc.Matches, teamsDoc.Roster(team.ID), entriesDoc.Entries, s.cfg, now)
	}

	standings := leaderboard.Rank(teamsDoc.Teams, matchesDoc.Matches, breakdowns, s.cfg)

	payload, err := json.Marshal(StandingsDocument{Standings: standings, ComputedAt: now})
	if err != nil {
		return nil, fmt.Errorf("encode standings: %w", err)
	}
	if _, err := s.store.Force(ctx, docstore.CollectionStandings, payload); err != nil {
		return nil, fmt.Errorf("persist standings: %w", err)
	}
	return standings, nil
}

// TeamBreakdown recomputes one team's bonus audit trail on demand.
func (s *Service) TeamBreakdown(ctx context.Context, teamID uuid.UUID, now time.Time) (bonus.Breakdown, error) {
	var teamsDoc players.TeamsDocument
	if err := s.load(ctx, docstore.CollectionTeams, &teamsDoc); err != nil {
		return bonus.Breakdown{}, err
	}
	team, ok := teamsDoc.TeamByID(teamID)
	if !ok {
		return bonus.Breakdown{}, fmt.Errorf("team %s not found", teamID)
	}

	var matchesDoc matches.MatchesDocument
	if err := s.load(ctx, docstore.CollectionMatches, &matchesDoc); err != nil {
		return bonus.Breakdown{}, err
	}
	var entriesDoc bonus.EntriesDocument
	if err := s.load(ctx, docstore.CollectionBonuses, &entriesDoc); err != nil {
		return bonus.Breakdown{}, err
	}

	return bonus.Compute(team, matchesDoc.Matches, teamsDoc.Roster(teamID), entriesDoc.Entries, s.cfg, now), nil
}

// PendingChallenges lists open and accepted challenges with their advisory
// overdue flags.
func (s *Service) PendingChallenges(ctx context.Context, today time.Time) ([]PendingChallenge, error) {
	var doc challenges.ChallengesDocument
	if err := s.load(ctx, docstore.CollectionChallenges, &doc); err != nil {
		return nil, err
	}
	out := make([]PendingChallenge, 0)
	for _, ch := range doc.Pending() {
		out = append(out, PendingChallenge{
			Challenge: ch,
			Overdue:   challenges.Overdue(ch, today),
		})
	}
	return out, nil
}

type PendingChallenge struct {
	challenges.Challenge
	Overdue bool `json:"overdue"`
}

// load decodes a collection payload; a collection that has never been written
// decodes as its zero value.
func (s *Service) load(ctx context.Context, key string, dst any) error {
	doc, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load %q: %w", key, err)
	}
	if err := json.Unmarshal(doc.Data, dst); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}
