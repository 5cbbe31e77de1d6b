package models

import "time"

// APIResponse is the generic envelope for status and error replies.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Error builds an error APIResponse with the given message.
func Error(message string) APIResponse {
	return APIResponse{Status: "error", Message: message}
}

// CreateSessionResponse is returned by POST /sessions.
type CreateSessionResponse struct {
	SessionID   string          `json:"session_id"`
	Responses   []AgentResponse `json:"responses"`
	CurrentNode NodeId          `json:"current_node"`
}

// MessageRequest is the body of POST /sessions/{id}/messages.
type MessageRequest struct {
	Message string `json:"message"`
}

// MessageResponse is returned by POST /sessions/{id}/messages.
type MessageResponse struct {
	Responses   []AgentResponse `json:"responses"`
	CurrentNode NodeId          `json:"current_node"`
	IsComplete  bool            `json:"is_complete"`
}

// SessionStatusResponse is returned by GET /sessions/{id}.
type SessionStatusResponse struct {
	SessionID   string    `json:"session_id"`
	CurrentNode NodeId    `json:"current_node"`
	IsComplete  bool      `json:"is_complete"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
