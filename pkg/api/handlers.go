package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/gofibs/internal/errs"
	"github.com/yourusername/gofibs/pkg/clip"
	"github.com/yourusername/gofibs/pkg/engine"
	"github.com/yourusername/gofibs/pkg/match"
	"github.com/yourusername/gofibs/pkg/session"
	"github.com/yourusername/gofibs/pkg/store"
)

const (
	maxLineBody = 64 << 10
	maxLogBody  = 8 << 20

	defaultRecent = 20
	maxRecent     = 500
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	version string
	pool    *WorkerPool
	store   *store.Store
	log     *zap.Logger
}

// NewHandlers creates a new Handlers instance. pool and st may be nil: a
// nil pool runs every request immediately, a nil store disables the match
// archive.
func NewHandlers(version string, pool *WorkerPool, st *store.Store, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		version: version,
		pool:    pool,
		store:   st,
		log:     log,
	}
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

// requestError is a failed request with its HTTP status and error code.
type requestError struct {
	status int
	code   string
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }

func badRequest(code string, err error) *requestError {
	return &requestError{status: http.StatusBadRequest, code: code, err: err}
}

func writeRequestError(w http.ResponseWriter, err error) {
	var re *requestError
	if errors.As(err, &re) {
		writeError(w, re.status, re.err.Error(), re.code)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error(), "INTERNAL")
}

// decode reads a JSON request body of at most limit bytes.
func decode(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request too large", "TOO_LARGE")
		} else {
			writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		}
		return false
	}
	return true
}

func (h *Handlers) acquireFast(w http.ResponseWriter, r *http.Request) bool {
	if h.pool == nil {
		return true
	}
	if err := h.pool.AcquireFast(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return false
	}
	return true
}

func (h *Handlers) releaseFast() {
	if h.pool != nil {
		h.pool.ReleaseFast()
	}
}

func (h *Handlers) acquireSlow(ctx context.Context) error {
	if h.pool == nil {
		return nil
	}
	return h.pool.AcquireSlow(ctx)
}

func (h *Handlers) releaseSlow() {
	if h.pool != nil {
		h.pool.ReleaseSlow()
	}
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Store:   h.store != nil,
	}

	// Include pool stats if available
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseLine runs the parser on a single line.
func parseLine(req ParseRequest) (*ParseResponse, error) {
	if strings.TrimSpace(req.Line) == "" {
		return nil, badRequest("MISSING_LINE", errors.New("line is required"))
	}
	tokens, ok := clip.Parse(req.Line)
	if !ok {
		return nil, &requestError{
			status: http.StatusUnprocessableEntity,
			code:   "UNRECOGNIZED",
			err:    errors.New("line not recognized"),
		}
	}
	code := tokens.MessageCode()
	return &ParseResponse{Code: code.String(), Value: int(code), Tokens: tokens}, nil
}

// Parse handles POST /api/parse
func (h *Handlers) Parse(w http.ResponseWriter, r *http.Request) {
	if !h.acquireFast(w, r) {
		return
	}
	defer h.releaseFast()

	var req ParseRequest
	if !decode(w, r, maxLineBody, &req) {
		return
	}
	resp, err := parseLine(req)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseSide converts a side name. The empty string yields engine.None.
func parseSide(s string) (engine.Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return engine.None, nil
	case "white", "self", "o":
		return engine.White, nil
	case "black", "opponent", "x":
		return engine.Black, nil
	}
	return engine.None, fmt.Errorf("%w: %q", errs.ErrInvalidSide, s)
}

// checkMove classifies the move between two board lines.
func checkMove(req CheckMoveRequest) (*CheckMoveResponse, error) {
	if req.Before == "" || req.After == "" {
		return nil, badRequest("MISSING_BOARD", errors.New("before and after boards are required"))
	}
	before, err := clip.DecodeBoard(req.Before)
	if err != nil {
		return nil, badRequest("INVALID_BOARD", fmt.Errorf("before: %w", err))
	}
	after, err := clip.DecodeBoard(req.After)
	if err != nil {
		return nil, badRequest("INVALID_BOARD", fmt.Errorf("after: %w", err))
	}

	side, err := parseSide(req.Side)
	if err != nil {
		return nil, badRequest("INVALID_SIDE", err)
	}
	if side == engine.None {
		side = before.Position.Turn
	}
	if side == engine.None {
		return nil, badRequest("INVALID_SIDE", fmt.Errorf("%w: nobody on roll", errs.ErrInvalidSide))
	}
	if before.Position.Dice == [2]int{} {
		return nil, badRequest("INVALID_DICE", fmt.Errorf("%w: before board has no dice", errs.ErrInvalidDice))
	}

	dir := before.Direction
	if dir == 0 {
		dir = -1
	}
	if side == engine.Black {
		dir = -dir
	}
	mv := engine.CheckMove(before.Position, after.Position, side)
	return MoveToResponse(mv, side, dir, after.Position), nil
}

// CheckMove handles POST /api/checkmove
func (h *Handlers) CheckMove(w http.ResponseWriter, r *http.Request) {
	if !h.acquireFast(w, r) {
		return
	}
	defer h.releaseFast()

	var req CheckMoveRequest
	if !decode(w, r, maxLineBody, &req) {
		return
	}
	resp, err := checkMove(req)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// replay runs a session over the log of req and archives the resulting
// matches if requested. fn, if not nil, sees every non-blank line.
func (h *Handlers) replay(ctx context.Context, req ReplayRequest, fn func(session.Line)) (*ReplayResponse, error) {
	if strings.TrimSpace(req.Log) == "" {
		return nil, badRequest("MISSING_LOG", errors.New("log is required"))
	}
	if req.Save && h.store == nil {
		return nil, &requestError{
			status: http.StatusServiceUnavailable,
			code:   "NO_STORE",
			err:    errors.New("match archive not configured"),
		}
	}

	s := session.New(session.WithName(req.Name), session.WithLogger(h.log))
	st, err := s.ReplayFunc(strings.NewReader(req.Log), fn)
	if err != nil {
		return nil, badRequest("INVALID_LOG", err)
	}

	resp := &ReplayResponse{Stats: st, Matches: []store.Summary{}}
	for _, m := range s.Matches() {
		resp.Matches = append(resp.Matches, store.Summarize(m))
		if req.MAT {
			var buf bytes.Buffer
			if err := match.ExportMAT(&buf, m); err != nil {
				return nil, fmt.Errorf("exporting match %s: %w", m.ID, err)
			}
			resp.MAT = append(resp.MAT, buf.String())
		}
		if req.Save {
			if err := h.store.Save(ctx, m); err != nil {
				return nil, err
			}
		}
	}
	resp.Saved = req.Save
	h.log.Info("session replayed",
		zap.Int("lines", st.Lines),
		zap.Int("failed", st.Failed),
		zap.Int("matches", len(resp.Matches)),
		zap.Bool("saved", resp.Saved))
	return resp, nil
}

// Replay handles POST /api/replay
func (h *Handlers) Replay(w http.ResponseWriter, r *http.Request) {
	if err := h.acquireSlow(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return
	}
	defer h.releaseSlow()

	var req ReplayRequest
	if !decode(w, r, maxLogBody, &req) {
		return
	}
	resp, err := h.replay(r.Context(), req, nil)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "match archive not configured", "NO_STORE")
		return false
	}
	return true
}

// Matches handles GET /api/matches?n=...
func (h *Handlers) Matches(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	n := defaultRecent
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer", "INVALID_LIMIT")
			return
		}
		n = min(v, maxRecent)
	}

	sums, err := h.store.Recent(r.Context(), n)
	if err != nil {
		h.log.Error("listing matches", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error(), "STORE_ERROR")
		return
	}
	if sums == nil {
		sums = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, sums)
}

// GetMatch handles GET /api/matches/{id}
func (h *Handlers) GetMatch(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match id", "INVALID_ID")
		return
	}

	sum, err := h.store.Load(r.Context(), id)
	switch {
	case errors.Is(err, errs.ErrMatchNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
		return
	case err != nil:
		h.log.Error("loading match", zap.Stringer("match", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error(), "STORE_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
