// Package api provides an HTTP/JSON and WebSocket service that parses FIBS
// lines, classifies moves between boards and replays session logs.
package api

import (
	"github.com/yourusername/gofibs/internal/positionid"
	"github.com/yourusername/gofibs/pkg/clip"
	"github.com/yourusername/gofibs/pkg/engine"
	"github.com/yourusername/gofibs/pkg/session"
	"github.com/yourusername/gofibs/pkg/store"
)

// ============================================================================
// Request Types
// ============================================================================

// ParseRequest is the request body for parsing one FIBS line.
type ParseRequest struct {
	Line string `json:"line"` // Raw line as received from FIBS
}

// CheckMoveRequest is the request body for move classification.
type CheckMoveRequest struct {
	Before string `json:"before"`         // Board line before the move, dice set
	After  string `json:"after"`          // Board line after the move
	Side   string `json:"side,omitempty"` // "white" or "black"; default: side on roll in Before
}

// ReplayRequest is the request body for replaying a session log.
type ReplayRequest struct {
	Log  string `json:"log"`            // Newline separated FIBS output
	Name string `json:"name,omitempty"` // Login name of the client
	Save bool   `json:"save,omitempty"` // Archive the resulting matches
	MAT  bool   `json:"mat,omitempty"`  // Include the matches in .mat format
}

// ============================================================================
// Response Types
// ============================================================================

// ParseResponse is the response for a parsed line.
type ParseResponse struct {
	Code   string       `json:"code"`   // Message code name, for example "board"
	Value  int          `json:"value"`  // Numeric message code
	Tokens *clip.Tokens `json:"tokens"` // Full token stream including the code
}

// MovementResponse is one checker movement in the mover's numbering.
type MovementResponse struct {
	From int `json:"from"` // 25 = bar
	To   int `json:"to"`   // 0 = off
	Die  int `json:"die"`
}

// CheckMoveResponse is the response for move classification.
type CheckMoveResponse struct {
	Side      string             `json:"side"`      // Side that moved
	Status    string             `json:"status"`    // "legal", "blocked", ...
	Legal     bool               `json:"legal"`     // Status == legal
	Movements []MovementResponse `json:"movements"` // Explaining movements, empty if none found
	Move      string             `json:"move"`      // Movements as "24/18 13/11"
	FIBS      string             `json:"fibs"`      // Movements in board numbering, "24-18 13-11"
	Position  string             `json:"position"`  // GNU Backgammon position ID of the after board
}

// ReplayResponse is the response for a session replay.
type ReplayResponse struct {
	Stats   session.Stats   `json:"stats"`
	Matches []store.Summary `json:"matches"`
	Saved   bool            `json:"saved"`
	MAT     []string        `json:"mat,omitempty"` // One document per match
}

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Error   string `json:"error"`             // Error message
	Code    string `json:"code,omitempty"`    // Error code
	Details string `json:"details,omitempty"` // Additional details
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status  string     `json:"status"`         // "ok" or "error"
	Version string     `json:"version"`        // Service version
	Store   bool       `json:"store"`          // Whether a match archive is attached
	Pool    *PoolStats `json:"pool,omitempty"` // Worker pool statistics
}

// ============================================================================
// Helper Functions
// ============================================================================

// MoveToResponse converts a classified move of side. dir is the board
// direction of the mover.
func MoveToResponse(m engine.Move, side engine.Side, dir int, after engine.Position) *CheckMoveResponse {
	resp := &CheckMoveResponse{
		Side:      side.String(),
		Status:    m.Status.String(),
		Legal:     m.Status == engine.Legal,
		Movements: make([]MovementResponse, len(m.Movements)),
		Move:      m.String(),
		FIBS:      clip.FormatMovements(m.Movements, dir),
		Position:  positionid.Encode(after),
	}
	for i, mv := range m.Movements {
		resp.Movements[i] = MovementResponse{From: mv.From, To: mv.To, Die: mv.Die}
	}
	return resp
}
