package httpserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lutefd/courtline-api/internal/auth"
	"github.com/lutefd/courtline-api/internal/domain/challenges"
	"github.com/lutefd/courtline-api/internal/domain/matches"
	"github.com/lutefd/courtline-api/internal/domain/players"
	"github.com/lutefd/courtline-api/internal/domain/scores"
	"github.com/lutefd/courtline-api/internal/domain/season"
	"github.com/lutefd/courtline-api/internal/events"
	"github.com/lutefd/courtline-api/internal/metrics"
	"github.com/lutefd/courtline-api/internal/projections"
	"github.com/lutefd/courtline-api/internal/storage/docstore"
	docsync "github.com/lutefd/courtline-api/internal/sync"
)

type Dependencies struct {
	Store     docstore.Store
	Bus       *events.Bus
	JWTSecret string
	Season    season.Season
}

type Server struct {
	store       docstore.Store
	coordinator *docsync.Coordinator
	projection  *projections.Service
	bus         *events.Bus
	auth        auth.Middleware
	jwtSecret   string
	cfg         season.Season
	recorder    *metrics.Recorder
}

func NewServer(deps Dependencies) *Server {
	return &Server{
		store:       deps.Store,
		coordinator: docsync.NewCoordinator(deps.Store, deps.Bus),
		projection:  projections.NewService(deps.Store, deps.Season),
		bus:         deps.Bus,
		auth:        auth.NewMiddleware(deps.JWTSecret),
		jwtSecret:   deps.JWTSecret,
		cfg:         deps.Season,
		recorder:    metrics.NewRecorder(),
	}
}

var collectionKeys = map[string]bool{
	docstore.CollectionTeams:      true,
	docstore.CollectionMatches:    true,
	docstore.CollectionBonuses:    true,
	docstore.CollectionChallenges: true,
	docstore.CollectionCaptains:   true,
	docstore.CollectionPhotos:     true,
	docstore.CollectionStandings:  true,
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)

	api := http.NewServeMux()
	api.HandleFunc("GET /v1/collections/{key}", s.handleGetCollection)
	api.HandleFunc("PUT /v1/collections/{key}", s.handleSaveCollection)
	api.HandleFunc("POST /v1/collections/{key}/resolve", s.handleResolveCollection)
	api.HandleFunc("GET /v1/importlock", s.handleGetImportLock)
	api.HandleFunc("PUT /v1/importlock", s.handleSetImportLock)
	api.HandleFunc("DELETE /v1/importlock", s.handleClearImportLock)
	api.HandleFunc("GET /v1/challenges", s.handlePendingChallenges)
	api.HandleFunc("POST /v1/challenges", s.handleCreateChallenge)
	api.HandleFunc("POST /v1/challenges/{id}/accept", s.handleAcceptChallenge)
	api.HandleFunc("POST /v1/challenges/{id}/decline", s.handleDeclineChallenge)
	api.HandleFunc("POST /v1/challenges/{id}/complete", s.handleCompleteChallenge)
	api.HandleFunc("PATCH /v1/challenges/{id}", s.handleEditChallenge)
	api.HandleFunc("DELETE /v1/challenges/{id}", s.handleDeleteChallenge)
	api.HandleFunc("POST /v1/matches", s.handleRecordMatch)
	api.HandleFunc("GET /v1/leaderboard", s.handleLeaderboard)
	api.HandleFunc("GET /v1/teams/{id}/bonus", s.handleTeamBonus)
	api.HandleFunc("POST /v1/trades", s.handleApplyTrade)
	api.HandleFunc("POST /v1/scores/validate", s.handleValidateScore)
	api.HandleFunc("GET /v1/metrics", s.handleMetrics)
	mux.Handle("/v1/", s.auth.Guard(api))

	return s.observe(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var doc auth.CaptainsDocument
	if err := s.loadCollection(r, docstore.CollectionCaptains, &doc); err != nil {
		writeError(w, err)
		return
	}
	token, err := auth.Login(doc, payload.Username, payload.Password, s.jwtSecret, time.Now().UTC())
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !collectionKeys[key] {
		http.NotFound(w, r)
		return
	}
	doc, err := s.store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, "collection not found", http.StatusNotFound)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSaveCollection(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !collectionKeys[key] || key == docstore.CollectionStandings {
		http.NotFound(w, r)
		return
	}
	var payload struct {
		Data            json.RawMessage `json:"data"`
		ExpectedVersion int64           `json:"expectedVersion"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.coordinator.Save(r.Context(), key, payload.Data, payload.ExpectedVersion)
	if err != nil {
		writeError(w, err)
		return
	}
	if result.Conflict != nil {
		writeConflict(w, result.Conflict)
		return
	}

	if err := s.recomputeAfter(r, key); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"version": result.Version})
}

func (s *Server) handleResolveCollection(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !collectionKeys[key] || key == docstore.CollectionStandings {
		http.NotFound(w, r)
		return
	}
	var payload struct {
		Choice docsync.Resolution `json:"choice"`
		Data   json.RawMessage    `json:"data,omitempty"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if payload.Choice != docsync.ResolutionReload && payload.Choice != docsync.ResolutionOverwrite {
		http.Error(w, "choice must be reload or overwrite", http.StatusBadRequest)
		return
	}

	doc, err := s.coordinator.Resolve(r.Context(), key, payload.Choice, payload.Data)
	if err != nil {
		writeError(w, err)
		return
	}
	if payload.Choice == docsync.ResolutionOverwrite {
		if err := s.recomputeAfter(r, key); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGetImportLock(w http.ResponseWriter, r *http.Request) {
	lock, err := s.coordinator.ImportLock(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lock": lock})
}

func (s *Server) handleSetImportLock(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	var payload struct {
		Operation string `json:"operation"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	lock, err := s.coordinator.SetImportLock(r.Context(), identity.Username, payload.Operation, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lock": lock})
}

func (s *Server) handleClearImportLock(w http.ResponseWriter, r *http.Request) {
	if err := s.coordinator.ClearImportLock(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePendingChallenges(w http.ResponseWriter, r *http.Request) {
	pending, err := s.projection.PendingChallenges(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"challenges": pending})
}

func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var payload struct {
		ChallengeID      string     `json:"challengeId"`
		ChallengerTeamID uuid.UUID  `json:"challengerTeamId"`
		ChallengedTeamID *uuid.UUID `json:"challengedTeamId,omitempty"`
		ProposedDate     time.Time  `json:"proposedDate"`
		ProposedLevel    float64    `json:"proposedLevel"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if identity.TeamID != nil {
		payload.ChallengerTeamID = *identity.TeamID
	}
	if payload.ChallengerTeamID == uuid.Nil {
		http.Error(w, "challengerTeamId is required", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	ch := challenges.Challenge{
		ID:               uuid.New(),
		ChallengeID:      payload.ChallengeID,
		ChallengerTeamID: payload.ChallengerTeamID,
		ChallengedTeamID: payload.ChallengedTeamID,
		ProposedDate:     payload.ProposedDate,
		ProposedLevel:    payload.ProposedLevel,
		Status:           challenges.StatusOpen,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	created, ok := s.mutateChallenges(w, r, "", func(doc *challenges.ChallengesDocument) (challenges.Challenge, error) {
		doc.Challenges = append(doc.Challenges, ch)
		return ch, nil
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleAcceptChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := parseID(w, r)
	if !ok {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())

	var in challenges.AcceptInput
	if err := decodeJSON(r, &in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if identity.TeamID != nil {
		in.ActorTeamID = *identity.TeamID
	}

	var teamsDoc players.TeamsDocument
	if err := s.loadCollection(r, docstore.CollectionTeams, &teamsDoc); err != nil {
		writeError(w, err)
		return
	}
	byID := teamsDoc.PlayersByID()
	now := time.Now().UTC()

	accepted, ok := s.mutateChallenges(w, r, events.ChallengeAccepted, func(doc *challenges.ChallengesDocument) (challenges.Challenge, error) {
		ch, i, found := doc.ByID(challengeID)
		if !found {
			return challenges.Challenge{}, errChallengeNotFound
		}
		next, err := challenges.Accept(ch, in, byID, now)
		if err != nil {
			return challenges.Challenge{}, err
		}
		doc.Challenges[i] = next
		return next, nil
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, accepted)
}

func (s *Server) handleDeclineChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := parseID(w, r)
	if !ok {
		return
	}
	now := time.Now().UTC()

	declined, ok := s.mutateChallenges(w, r, events.ChallengeDeclined, func(doc *challenges.ChallengesDocument) (challenges.Challenge, error) {
		ch, i, found := doc.ByID(challengeID)
		if !found {
			return challenges.Challenge{}, errChallengeNotFound
		}
		next, err := challenges.Decline(ch, now)
		if err != nil {
			return challenges.Challenge{}, err
		}
		doc.Challenges[i] = next
		return next, nil
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, declined)
}

func (s *Server) handleCompleteChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := parseID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Winner string            `json:"winner"`
		Sets   matches.SetScores `json:"sets"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	now := time.Now().UTC()

	var built matches.Match
	completed, ok := s.mutateChallenges(w, r, events.ChallengeCompleted, func(doc *challenges.ChallengesDocument) (challenges.Challenge, error) {
		ch, i, found := doc.ByID(challengeID)
		if !found {
			return challenges.Challenge{}, errChallengeNotFound
		}
		next, m, err := challenges.Complete(ch, payload.Winner, payload.Sets, now)
		if err != nil {
			return challenges.Challenge{}, err
		}
		doc.Challenges[i] = next
		built = m
		return next, nil
	})
	if !ok {
		return
	}

	if err := s.appendMatch(r, built); err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.projection.Recompute(r.Context(), now); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"challenge": completed, "match": built})
}

func (s *Server) handleEditChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := parseID(w, r)
	if !ok {
		return
	}
	var edit challenges.Edit
	if err := decodeJSON(r, &edit); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	now := time.Now().UTC()

	var diff []challenges.FieldChange
	edited, ok := s.mutateChallenges(w, r, events.ChallengeEdited, func(doc *challenges.ChallengesDocument) (challenges.Challenge, error) {
		ch, i, found := doc.ByID(challengeID)
		if !found {
			return challenges.Challenge{}, errChallengeNotFound
		}
		next, changes, err := challenges.EditPending(ch, edit, now)
		if err != nil {
			return challenges.Challenge{}, err
		}
		doc.Challenges[i] = next
		diff = changes
		return next, nil
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"challenge": edited, "changes": diff})
}

func (s *Server) handleDeleteChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := parseID(w, r)
	if !ok {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())

	deleted, ok := s.mutateChallenges(w, r, events.ChallengeDeleted, func(doc *challenges.ChallengesDocument) (challenges.Challenge, error) {
		ch, i, found := doc.ByID(challengeID)
		if !found {
			return challenges.Challenge{}, errChallengeNotFound
		}
		if identity.Role != auth.RoleDirector && (identity.TeamID == nil || *identity.TeamID != ch.ChallengerTeamID) {
			return challenges.Challenge{}, errForbidden
		}
		doc.Challenges = append(doc.Challenges[:i], doc.Challenges[i+1:]...)
		return ch, nil
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

func (s *Server) handleRecordMatch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Winner string            `json:"winner"`
		Sets   matches.SetScores `json:"sets"`
		Meta   matches.Meta      `json:"meta"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	now := time.Now().UTC()

	m, err := matches.BuildResult(payload.Winner, payload.Sets, payload.Meta)
	if err != nil {
		writeError(w, err)
		return
	}
	m.CreatedAt = now

	if err := s.appendMatch(r, m); err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.projection.Recompute(r.Context(), now); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	standings, err := s.projection.Recompute(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"standings": standings})
}

func (s *Server) handleTeamBonus(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid team id", http.StatusBadRequest)
		return
	}
	breakdown, err := s.projection.TeamBreakdown(r.Context(), teamID, time.Now().UTC())
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleApplyTrade(w http.ResponseWriter, r *http.Request) {
	var tr players.Trade
	if err := decodeJSON(r, &tr); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	now := time.Now().UTC()

	doc, err := s.store.Get(r.Context(), docstore.CollectionTeams)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, "teams collection not found", http.StatusNotFound)
			return
		}
		writeError(w, err)
		return
	}
	var teamsDoc players.TeamsDocument
	if err := json.Unmarshal(doc.Data, &teamsDoc); err != nil {
		writeError(w, err)
		return
	}

	next, err := players.ApplyTrade(teamsDoc, tr, now)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := json.Marshal(next)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := s.coordinator.Save(r.Context(), docstore.CollectionTeams, data, doc.Version)
	if err != nil {
		writeError(w, err)
		return
	}
	if result.Conflict != nil {
		writeConflict(w, result.Conflict)
		return
	}

	s.bus.Audit(r.Context(), events.Event{Name: events.TradeApplied, Payload: tr})
	if _, err := s.projection.Recompute(r.Context(), now); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"version": result.Version})
}

func (s *Server) handleValidateScore(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		A            int  `json:"a"`
		B            int  `json:"b"`
		IsTiebreaker bool `json:"isTiebreaker"`
		IsThirdSet   bool `json:"isThirdSet"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v := scores.ValidateSetScore(payload.A, payload.B, payload.IsTiebreaker, payload.IsThirdSet)
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.recorder.Snapshot())
}

var (
	errChallengeNotFound = errors.New("challenge not found")
	errForbidden         = errors.New("forbidden")
)

// mutateChallenges loads the challenges collection, applies fn, and writes it
// back guarded by the version it read. Concurrent edits surface as 409. On
// failure the response is already written and ok is false.
func (s *Server) mutateChallenges(w http.ResponseWriter, r *http.Request, eventName string, fn func(*challenges.ChallengesDocument) (challenges.Challenge, error)) (challenges.Challenge, bool) {
	var version int64
	var doc challenges.ChallengesDocument
	stored, err := s.store.Get(r.Context(), docstore.CollectionChallenges)
	switch {
	case err == nil:
		version = stored.Version
		if err := json.Unmarshal(stored.Data, &doc); err != nil {
			writeError(w, err)
			return challenges.Challenge{}, false
		}
	case errors.Is(err, docstore.ErrNotFound):
	default:
		writeError(w, err)
		return challenges.Challenge{}, false
	}

	ch, err := fn(&doc)
	if err != nil {
		switch {
		case errors.Is(err, errChallengeNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, errForbidden):
			http.Error(w, err.Error(), http.StatusForbidden)
		default:
			writeError(w, err)
		}
		return challenges.Challenge{}, false
	}

	data, err := json.Marshal(doc)
	if err != nil {
		writeError(w, err)
		return challenges.Challenge{}, false
	}
	result, err := s.coordinator.Save(r.Context(), docstore.CollectionChallenges, data, version)
	if err != nil {
		writeError(w, err)
		return challenges.Challenge{}, false
	}
	if result.Conflict != nil {
		writeConflict(w, result.Conflict)
		return challenges.Challenge{}, false
	}

	if eventName != "" {
		s.bus.Audit(r.Context(), events.Event{Name: eventName, Payload: ch})
	}
	return ch, true
}

// appendMatch adds a built result to the matches collection with a version
// guard against concurrent result entry.
func (s *Server) appendMatch(r *http.Request, m matches.Match) error {
	var version int64
	var doc matches.MatchesDocument
	stored, err := s.store.Get(r.Context(), docstore.CollectionMatches)
	switch {
	case err == nil:
		version = stored.Version
		if err := json.Unmarshal(stored.Data, &doc); err != nil {
			return err
		}
	case errors.Is(err, docstore.ErrNotFound):
	default:
		return err
	}

	doc.Matches = append(doc.Matches, m)
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	result, err := s.coordinator.Save(r.Context(), docstore.CollectionMatches, data, version)
	if err != nil {
		return err
	}
	if result.Conflict != nil {
		return result.Conflict
	}
	return nil
}

func (s *Server) loadCollection(r *http.Request, key string, dst any) error {
	doc, err := s.store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil
		}
		return err
	}
	return json.Unmarshal(doc.Data, dst)
}

// recomputeAfter refreshes the standings projection when a collection that
// feeds it changed.
func (s *Server) recomputeAfter(r *http.Request, key string) error {
	switch key {
	case docstore.CollectionTeams, docstore.CollectionMatches, docstore.CollectionBonuses:
		_, err := s.projection.Recompute(r.Context(), time.Now().UTC())
		return err
	}
	return nil
}

func writeConflict(w http.ResponseWriter, c *docstore.ConflictError) {
	writeJSON(w, http.StatusConflict, map[string]any{
		"error":           "version conflict",
		"collection":      c.Key,
		"expectedVersion": c.Expected,
		"currentVersion":  c.Current,
	})
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid challenge id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		latency := time.Since(start)
		s.recorder.Record(metrics.RequestSample{
			Path:      r.URL.Path,
			Method:    r.Method,
			Status:    rec.status,
			Latency:   latency,
			Timestamp: start,
		})
		log.Printf("%s %s status=%d duration=%s", r.Method, r.URL.Path, rec.status, latency)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
