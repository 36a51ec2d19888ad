package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"

	"github.com/yourusername/gofibs/internal/positionid"
	"github.com/yourusername/gofibs/pkg/clip"
	"github.com/yourusername/gofibs/pkg/engine"
	"github.com/yourusername/gofibs/pkg/session"
	"github.com/yourusername/gofibs/pkg/store"
)

func testPosition(scores [2]int) engine.Position {
	p := engine.NewPosition()
	p.Players = [2]string{"You", "someplayer"}
	p.Scores = scores
	p.MatchLength = 3
	return p
}

// openingBoards returns the starting board with 6-2 to play and the board
// after 24/18 13/11.
func openingBoards() (before, after string) {
	b := testPosition([2]int{})
	b.Turn = engine.White
	b.Dice = [2]int{6, 2}

	a := testPosition([2]int{})
	a.Points[23] = 1
	a.Points[17] = 1
	a.Points[12] = 4
	a.Points[10] = 1
	a.Turn = engine.Black

	return clip.FormatBoard(b, 1, -1), clip.FormatBoard(a, 1, -1)
}

// testLog is a game of a 3 point match that the client wins when the
// opponent refuses a double.
func testLog() string {
	before, after := openingBoards()
	return strings.Join([]string{
		"** You are now playing a 3 point match with someplayer",
		"You roll 6 and 2.",
		before,
		after,
		"someplayer rolls 5 and 3.",
		"someplayer moves 1-4 12-17 .",
		"You double.",
		"someplayer gives up. You win 1 point.",
		"You win the game and get 1 point. Congratulations!",
		clip.FormatBoard(testPosition([2]int{1, 0}), 1, -1),
	}, "\n")
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return store.New(rdb)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var e ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&e); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	return e.Code
}

// TestHealthHandler tests the health endpoint.
func TestHealthHandler(t *testing.T) {
	h := NewHandlers("test-version", nil, nil, nil)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()

	h.Health(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	if health.Status != "ok" {
		t.Errorf("Status = %q, want %q", health.Status, "ok")
	}
	if health.Version != "test-version" {
		t.Errorf("Version = %q, want %q", health.Version, "test-version")
	}
	if health.Store || health.Pool != nil {
		t.Errorf("Store = %v, Pool = %v, want false, nil", health.Store, health.Pool)
	}
}

func TestHealthHandlerPoolAndStore(t *testing.T) {
	h := NewHandlers("1.0.0", NewWorkerPool(PoolConfig{MaxFastWorkers: 7, MaxSlowWorkers: 2}), newTestStore(t), nil)

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest("GET", "/api/health", nil))

	var health HealthResponse
	json.NewDecoder(w.Result().Body).Decode(&health)

	if !health.Store {
		t.Error("Expected store = true when a store is set")
	}
	if health.Pool == nil || health.Pool.MaxFast != 7 || health.Pool.MaxSlow != 2 {
		t.Errorf("Pool = %+v", health.Pool)
	}
}

func TestParseHandler(t *testing.T) {
	h := NewHandlers("1.0.0", NewWorkerPool(DefaultPoolConfig()), nil, nil)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"rolls", ParseRequest{Line: "You roll 6 and 2."}, http.StatusOK, ""},
		{"empty line", ParseRequest{Line: "  "}, http.StatusBadRequest, "MISSING_LINE"},
		{"unrecognized", ParseRequest{Line: "hello world foo"}, http.StatusUnprocessableEntity, "UNRECOGNIZED"},
		{"invalid JSON", "{not json", http.StatusBadRequest, "INVALID_JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h.Parse, "/api/parse", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantCode != "" {
				if got := errorCode(t, w); got != tt.wantCode {
					t.Errorf("code = %q, want %q", got, tt.wantCode)
				}
			}
		})
	}
}

func TestParseHandlerTokens(t *testing.T) {
	h := NewHandlers("1.0.0", nil, nil, nil)
	w := postJSON(t, h.Parse, "/api/parse", ParseRequest{Line: "You roll 6 and 2."})

	var resp struct {
		Code   string `json:"code"`
		Value  int    `json:"value"`
		Tokens []struct {
			Kind  string      `json:"kind"`
			Value interface{} `json:"value"`
		} `json:"tokens"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if resp.Code != "rolls" || resp.Value != int(clip.Rolls) {
		t.Errorf("Code = %q (%d), want rolls (%d)", resp.Code, resp.Value, clip.Rolls)
	}
	var kinds []string
	for _, tok := range resp.Tokens {
		kinds = append(kinds, tok.Kind)
	}
	if diff := cmp.Diff([]string{"uint", "name", "uint", "uint"}, kinds); diff != "" {
		t.Errorf("token kinds mismatch (-want +got):\n%s", diff)
	}
	if len(resp.Tokens) == 4 && resp.Tokens[1].Value != "You" {
		t.Errorf("name token = %v, want You", resp.Tokens[1].Value)
	}
}

func TestCheckMoveHandler(t *testing.T) {
	h := NewHandlers("1.0.0", nil, nil, nil)
	before, after := openingBoards()

	w := postJSON(t, h.CheckMove, "/api/checkmove", CheckMoveRequest{Before: before, After: after})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got CheckMoveResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	want := CheckMoveResponse{
		Side:   "white",
		Status: "legal",
		Legal:  true,
		Movements: []MovementResponse{
			{From: 24, To: 18, Die: 6},
			{From: 13, To: 11, Die: 2},
		},
		Move: "24/18 13/11",
		FIBS: "24-18 13-11",
	}
	if a, err := clip.DecodeBoard(after); err == nil {
		want.Position = positionid.Encode(a.Position)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CheckMove mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckMoveHandlerErrors(t *testing.T) {
	h := NewHandlers("1.0.0", nil, nil, nil)
	before, after := openingBoards()

	tests := []struct {
		name     string
		req      CheckMoveRequest
		wantCode string
	}{
		{"missing", CheckMoveRequest{Before: before}, "MISSING_BOARD"},
		{"bad board", CheckMoveRequest{Before: "board:x", After: after}, "INVALID_BOARD"},
		{"bad side", CheckMoveRequest{Before: before, After: after, Side: "green"}, "INVALID_SIDE"},
		{"no dice", CheckMoveRequest{Before: after, After: before, Side: "white"}, "INVALID_DICE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h.CheckMove, "/api/checkmove", tt.req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if got := errorCode(t, w); got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestReplayHandler(t *testing.T) {
	h := NewHandlers("1.0.0", NewWorkerPool(DefaultPoolConfig()), nil, zaptest.NewLogger(t))

	w := postJSON(t, h.Replay, "/api/replay", ReplayRequest{Log: testLog(), MAT: true})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp ReplayResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	if want := (session.Stats{Lines: 10, Parsed: 10}); resp.Stats != want {
		t.Errorf("Stats = %+v, want %+v", resp.Stats, want)
	}
	if len(resp.Matches) != 1 {
		t.Fatalf("len(Matches) = %d, want 1", len(resp.Matches))
	}
	m := resp.Matches[0]
	if m.Players != [2]string{"You", "someplayer"} || m.Scores != [2]int{1, 0} || len(m.Games) != 2 {
		t.Errorf("match = %+v", m)
	}
	if resp.Saved {
		t.Error("Saved = true without save request")
	}
	if len(resp.MAT) != 1 || !strings.Contains(resp.MAT[0], "3 point match") {
		t.Errorf("MAT = %q", resp.MAT)
	}
	if stats := h.pool.Stats(); stats.TotalSlow != 1 || stats.ActiveSlow != 0 {
		t.Errorf("pool stats = %+v", stats)
	}
}

func TestReplayHandlerErrors(t *testing.T) {
	h := NewHandlers("1.0.0", nil, nil, nil)

	w := postJSON(t, h.Replay, "/api/replay", ReplayRequest{})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "MISSING_LOG" {
		t.Errorf("empty log: status = %d", w.Code)
	}

	w = postJSON(t, h.Replay, "/api/replay", ReplayRequest{Log: testLog(), Save: true})
	if w.Code != http.StatusServiceUnavailable || errorCode(t, w) != "NO_STORE" {
		t.Errorf("save without store: status = %d", w.Code)
	}
}

func TestMatchRoutes(t *testing.T) {
	s := NewServer(DefaultConfig(), "1.0.0", newTestStore(t), zaptest.NewLogger(t))
	handler := s.Handler()

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			json.NewEncoder(&buf).Encode(body)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(method, path, &buf))
		return w
	}

	w := do("POST", "/api/replay", ReplayRequest{Log: testLog(), Save: true})
	if w.Code != http.StatusOK {
		t.Fatalf("replay status = %d: %s", w.Code, w.Body.String())
	}
	var replayed ReplayResponse
	json.NewDecoder(w.Body).Decode(&replayed)
	if !replayed.Saved || len(replayed.Matches) != 1 {
		t.Fatalf("replay = %+v", replayed)
	}
	id := replayed.Matches[0].ID

	w = do("GET", "/api/matches", nil)
	var recent []store.Summary
	if err := json.NewDecoder(w.Body).Decode(&recent); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != id {
		t.Errorf("recent = %+v", recent)
	}

	w = do("GET", "/api/matches/"+id, nil)
	var got store.Summary
	json.NewDecoder(w.Body).Decode(&got)
	if w.Code != http.StatusOK || got.ID != id || got.Scores != [2]int{1, 0} {
		t.Errorf("GET match: status %d, summary %+v", w.Code, got)
	}

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/api/matches/00000000-0000-0000-0000-000000000001", http.StatusNotFound},
		{"/api/matches/not-a-uuid", http.StatusBadRequest},
		{"/api/matches?n=0", http.StatusBadRequest},
		{"/api/matches?n=x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := do("GET", tt.path, nil); w.Code != tt.wantStatus {
			t.Errorf("GET %s status = %d, want %d", tt.path, w.Code, tt.wantStatus)
		}
	}
}

func TestMatchesWithoutStore(t *testing.T) {
	h := NewHandlers("1.0.0", nil, nil, nil)
	w := httptest.NewRecorder()
	h.Matches(w, httptest.NewRequest("GET", "/api/matches", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestReplaySSE(t *testing.T) {
	h := NewHandlers("1.0.0", NewWorkerPool(DefaultPoolConfig()), nil, nil)

	w := postJSON(t, h.ReplaySSE, "/api/replay/stream", ReplayRequest{Log: testLog()})
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	if n := strings.Count(body, "event: line\n"); n != 10 {
		t.Errorf("%d line events, want 10", n)
	}
	for _, ev := range []string{"event: result\n", "event: done\n"} {
		if !strings.Contains(body, ev) {
			t.Errorf("stream lacks %q", ev)
		}
	}
	if strings.Contains(body, "event: error") {
		t.Errorf("unexpected error event:\n%s", body)
	}
	if !strings.Contains(body, `"code":"start_match"`) {
		t.Error("first line event not reported as start_match")
	}
}

func TestReplaySSEError(t *testing.T) {
	h := NewHandlers("1.0.0", nil, nil, nil)
	w := postJSON(t, h.ReplaySSE, "/api/replay/stream", ReplayRequest{})
	if !strings.Contains(w.Body.String(), "event: error") {
		t.Errorf("body = %q, want error event", w.Body.String())
	}
}

func dialWS(t *testing.T) *websocket.Conn {
	t.Helper()
	h := NewHandlers("1.0.0", nil, nil, nil)
	server := httptest.NewServer(http.HandlerFunc(h.WebSocket))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func roundTrip(t *testing.T, ws *websocket.Conn, msg WSMessage) map[string]interface{} {
	t.Helper()
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp map[string]interface{}
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("ReadJSON error: %v", err)
	}
	return resp
}

func TestWebSocketPing(t *testing.T) {
	ws := dialWS(t)
	resp := roundTrip(t, ws, WSMessage{Type: "ping", ID: "test-123"})
	if resp["type"] != "pong" || resp["id"] != "test-123" {
		t.Errorf("response = %v, want pong test-123", resp)
	}
}

func TestWebSocketParse(t *testing.T) {
	ws := dialWS(t)
	payload, _ := json.Marshal(ParseRequest{Line: "someplayer moves 1-4 12-17 ."})
	resp := roundTrip(t, ws, WSMessage{Type: "parse", ID: "p1", Payload: payload})
	if resp["type"] != "result" {
		t.Fatalf("response = %v", resp)
	}
	result, _ := resp["payload"].(map[string]interface{})
	if result["code"] != "moves" {
		t.Errorf("code = %v, want moves", result["code"])
	}
}

func TestWebSocketCheckMove(t *testing.T) {
	ws := dialWS(t)
	before, after := openingBoards()
	payload, _ := json.Marshal(CheckMoveRequest{Before: before, After: after})
	resp := roundTrip(t, ws, WSMessage{Type: "checkmove", ID: "c1", Payload: payload})
	result, _ := resp["payload"].(map[string]interface{})
	if resp["type"] != "result" || result["move"] != "24/18 13/11" {
		t.Errorf("response = %v", resp)
	}
}

func TestWebSocketErrors(t *testing.T) {
	ws := dialWS(t)

	tests := []struct {
		msg      WSMessage
		wantCode interface{}
	}{
		{WSMessage{Type: "bogus", ID: "e1"}, nil},
		{WSMessage{Type: "parse", ID: "e2", Payload: json.RawMessage(`[1]`)}, "INVALID_JSON"},
		{WSMessage{Type: "parse", ID: "e3", Payload: json.RawMessage(`{"line":"hello world foo"}`)}, "UNRECOGNIZED"},
		{WSMessage{Type: "checkmove", ID: "e4", Payload: json.RawMessage(`{}`)}, "MISSING_BOARD"},
	}
	for _, tt := range tests {
		resp := roundTrip(t, ws, tt.msg)
		if resp["type"] != "error" || resp["id"] != tt.msg.ID {
			t.Errorf("%s: response = %v, want error", tt.msg.ID, resp)
		}
		if resp["code"] != tt.wantCode {
			t.Errorf("%s: code = %v, want %v", tt.msg.ID, resp["code"], tt.wantCode)
		}
	}
}
