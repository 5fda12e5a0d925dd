package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/yourusername/awsim/internal/historyid"
	"github.com/yourusername/awsim/pkg/engine"
	"github.com/yourusername/awsim/pkg/league"
	"github.com/yourusername/awsim/pkg/session"
)

// Sample size limits.
const (
	defaultSampleMatches = 100
	maxSampleMatches     = 10000
)

// Handlers holds the HTTP handlers and the shared simulation state.
type Handlers struct {
	engine  *engine.Engine
	table   *league.Table
	store   *session.Store
	version string
	pool    *WorkerPool
}

// NewHandlers creates a new Handlers instance without a worker pool. The
// league table may be nil, in which case league and session endpoints
// report the server as not ready.
func NewHandlers(e *engine.Engine, table *league.Table, version string) *Handlers {
	return NewHandlersWithPool(e, table, version, nil)
}

// NewHandlersWithPool creates a new Handlers instance with a worker pool.
func NewHandlersWithPool(e *engine.Engine, table *league.Table, version string, pool *WorkerPool) *Handlers {
	h := &Handlers{
		engine:  e,
		table:   table,
		version: version,
		pool:    pool,
	}
	if e != nil && table != nil {
		h.store = session.NewStore(session.NewMachine(e, table))
	}
	return h
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

// errorStatus maps a domain error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrInvalidAction):
		return http.StatusBadRequest, "INVALID_ACTION"
	case errors.Is(err, engine.ErrUnknownStrategy):
		return http.StatusBadRequest, "UNKNOWN_STRATEGY"
	case errors.Is(err, engine.ErrUnknownOpponent):
		return http.StatusBadRequest, "UNKNOWN_OPPONENT"
	case errors.Is(err, historyid.ErrInvalidID), errors.Is(err, engine.ErrInconsistentHistory):
		return http.StatusBadRequest, "INVALID_HISTORY"
	case errors.Is(err, engine.ErrMatchOver):
		return http.StatusConflict, "MATCH_OVER"
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND"
	case errors.Is(err, session.ErrInvalidEvent):
		return http.StatusConflict, "INVALID_EVENT"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	writeError(w, status, err.Error(), code)
}

// acquireFast takes a fast worker slot if a pool is configured. The
// returned release must be called when ok.
func (h *Handlers) acquireFast(w http.ResponseWriter, r *http.Request) (release func(), ok bool) {
	if h.pool == nil {
		return func() {}, true
	}
	if err := h.pool.AcquireFast(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return nil, false
	}
	return h.pool.ReleaseFast, true
}

func (h *Handlers) acquireSlow(w http.ResponseWriter, r *http.Request) (release func(), ok bool) {
	if h.pool == nil {
		return func() {}, true
	}
	if err := h.pool.AcquireSlow(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return nil, false
	}
	return h.pool.ReleaseSlow, true
}

func (h *Handlers) ready(w http.ResponseWriter) bool {
	if h.table == nil || h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "league not computed", "NOT_READY")
		return false
	}
	return true
}

// decodeJSON decodes the request body, writing an INVALID_JSON error on
// failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return false
	}
	return true
}

// parseHistory reads a history from either its id or its notation.
func parseHistory(id, notation string) (engine.History, error) {
	if id != "" {
		return historyid.Decode(id)
	}
	h, err := engine.ParseHistory(notation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", historyid.ErrInvalidID, err)
	}
	if len(h) > engine.RoundsPerMatch {
		return nil, fmt.Errorf("%w: %d rounds", historyid.ErrInvalidID, len(h))
	}
	return h, nil
}

func (h *Handlers) decide(req DecideRequest) (*DecideResponse, error) {
	s, err := engine.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, err
	}
	hist, err := parseHistory(req.HistoryID, req.History)
	if err != nil {
		return nil, err
	}
	a, err := h.engine.Decide(s, hist)
	if err != nil {
		return nil, err
	}
	return &DecideResponse{Strategy: s, Action: a, Rounds: len(hist)}, nil
}

func (h *Handlers) round(req RoundRequest) (*RoundResponse, error) {
	opp, err := engine.OpponentByID(req.Opponent)
	if err != nil {
		return nil, err
	}
	own, err := engine.ParseAction(req.Action)
	if err != nil {
		return nil, err
	}
	var hist engine.History
	if req.HistoryID != "" {
		if hist, err = historyid.Decode(req.HistoryID); err != nil {
			return nil, err
		}
	}
	m, err := engine.ReplayMatch(opp.Strategy, hist)
	if err != nil {
		return nil, err
	}
	next, out, err := h.engine.PlayRound(own, opp.Strategy, m)
	if err != nil {
		return nil, err
	}

	playerHist := next.History(engine.SideA)
	id, err := historyid.Encode(playerHist)
	if err != nil {
		return nil, err
	}
	resp := &RoundResponse{
		Outcome:   out,
		HistoryID: id,
		History:   playerHist.String(),
		Player:    next.A,
		Computer:  next.B,
		Done:      next.Done(),
	}
	if resp.Done {
		pa, pb, err := next.Payoffs()
		if err != nil {
			return nil, err
		}
		resp.PlayerPayoff, resp.ComputerPayoff = &pa, &pb
	}
	return resp, nil
}

// parseEvent converts an event request to a machine event.
func parseEvent(req EventRequest) (session.Event, error) {
	kind, err := session.ParseEventKind(req.Event)
	if err != nil {
		return session.Event{}, err
	}
	ev := session.Event{Kind: kind}
	switch kind {
	case session.Choose:
		if ev.Action, err = engine.ParseAction(req.Action); err != nil {
			return session.Event{}, err
		}
	case session.Bet:
		if req.Opponent == nil {
			return session.Event{}, fmt.Errorf("bet: %w: missing opponent", engine.ErrUnknownOpponent)
		}
		ev.Opponent = *req.Opponent
	}
	return ev, nil
}

func (h *Handlers) applyEvent(id string, req EventRequest) (*SessionResponse, error) {
	ev, err := parseEvent(req)
	if err != nil {
		return nil, err
	}
	s, err := h.store.Apply(id, ev)
	if err != nil {
		return nil, err
	}
	return sessionToResponse(s, h.store.Machine()), nil
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Ready:   h.table != nil,
	}
	if h.engine != nil {
		resp.Seed = h.engine.Seed()
	}
	if h.store != nil {
		resp.Sessions = h.store.Len()
	}

	// Include pool stats if available
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}

	writeJSON(w, http.StatusOK, resp)
}

// Opponents handles GET /api/opponents
func (h *Handlers) Opponents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, engine.Roster())
}

// Decide handles POST /api/decide
func (h *Handlers) Decide(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquireFast(w, r)
	if !ok {
		return
	}
	defer release()

	var req DecideRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.decide(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Resolve handles POST /api/resolve
func (h *Handlers) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := engine.ParseAction(req.A)
	if err != nil {
		writeDomainError(w, fmt.Errorf("side A: %w", err))
		return
	}
	b, err := engine.ParseAction(req.B)
	if err != nil {
		writeDomainError(w, fmt.Errorf("side B: %w", err))
		return
	}
	da, db, err := engine.Resolve(a, b)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResolveResponse{A: a, B: b, DeltaA: da, DeltaB: db})
}

// Match handles POST /api/match
func (h *Handlers) Match(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquireFast(w, r)
	if !ok {
		return
	}
	defer release()

	var req MatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := engine.ParseStrategy(req.A)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	b, err := engine.ParseStrategy(req.B)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := h.engine.RunMatch(a, b)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Round handles POST /api/round
func (h *Handlers) Round(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquireFast(w, r)
	if !ok {
		return
	}
	defer release()

	var req RoundRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.round(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Sample handles POST /api/sample
func (h *Handlers) Sample(w http.ResponseWriter, r *http.Request) {
	// Acquire slow worker slot if pool is configured
	release, ok := h.acquireSlow(w, r)
	if !ok {
		return
	}
	defer release()

	var req SampleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := engine.ParseStrategy(req.A)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	b, err := engine.ParseStrategy(req.B)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	n := req.Matches
	if n == 0 {
		n = defaultSampleMatches
	}
	if n < 1 || n > maxSampleMatches {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("matches must be between 1 and %d", maxSampleMatches), "INVALID_SAMPLE")
		return
	}
	res, err := league.Sample(h.engine, a, b, n)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// League handles GET /api/league
func (h *Handlers) League(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	writeJSON(w, http.StatusOK, leagueToResponse(h.table))
}

// CreateSession handles POST /api/sessions
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	s := h.store.Create()
	writeJSON(w, http.StatusCreated, sessionToResponse(s, h.store.Machine()))
}

// GetSession handles GET /api/sessions/{id}
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	s, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(s, h.store.Machine()))
}

// DeleteSession handles DELETE /api/sessions/{id}
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id := r.PathValue("id")
	if _, err := h.store.Get(id); err != nil {
		writeDomainError(w, err)
		return
	}
	h.store.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// SessionEvent handles POST /api/sessions/{id}/events
func (h *Handlers) SessionEvent(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	release, ok := h.acquireFast(w, r)
	if !ok {
		return
	}
	defer release()

	var req EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.applyEvent(r.PathValue("id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
