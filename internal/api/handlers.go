// Package api provides the session and message handlers for ServiceBuilder.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/SoloForge/ServiceBuilder/internal/models"
	"github.com/google/uuid"
)

// maxAutoContinuations bounds the number of plan-driven node executions per
// inbound request. The longest legitimate chain is eight nodes; hitting the
// cap indicates a dispatch bug.
const maxAutoContinuations = 20

// runWorkflow executes the current node with the given input, then keeps
// following plan transitions with empty input until the engine waits for the
// user or the workflow terminates. Returns every response produced, the node
// the session rests on, and the final state.
func (s *Server) runWorkflow(ctx context.Context, node models.NodeId, state *models.InterviewState, userResponse string) ([]models.AgentResponse, models.NodeId, *models.InterviewState, error) {
	var responses []models.AgentResponse
	input := userResponse

	for i := 0; ; i++ {
		if i >= maxAutoContinuations {
			slog.Error("Server.runWorkflow: auto-continuation cap reached", "node", node)
			break
		}

		result, err := s.engine.ExecuteNode(ctx, node, state, input)
		if err != nil {
			return nil, node, state, err
		}

		responses = append(responses, result.Response)
		state = result.NextState
		if result.NextNode == "" {
			break
		}
		node = result.NextNode
		input = ""
	}

	return responses, node, state, nil
}

// createSessionHandler handles POST /sessions.
func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()
	slog.Debug("Server.createSessionHandler: creating session", "session_id", sessionID)

	state := &models.InterviewState{}
	responses, node, finalState, err := s.runWorkflow(r.Context(), models.NodeClarificationInterview, state, "")
	if err != nil {
		slog.Error("Server.createSessionHandler: engine failed", "error", err, "session_id", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Workflow execution failed"))
		return
	}

	if err := s.saveSession(sessionID, node, finalState); err != nil {
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save session"))
		return
	}

	slog.Info("Server.createSessionHandler: session created", "session_id", sessionID, "current_node", node)
	writeJSONResponse(w, http.StatusCreated, models.CreateSessionResponse{
		SessionID:   sessionID,
		Responses:   responses,
		CurrentNode: node,
	})
}

// postMessageHandler handles POST /sessions/{id}/messages.
func (s *Server) postMessageHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	var req models.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.postMessageHandler: invalid JSON", "error", err, "session_id", sessionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	session, err := s.st.GetSession(sessionID)
	if err != nil {
		slog.Error("Server.postMessageHandler: session lookup failed", "error", err, "session_id", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	if session == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	var state models.InterviewState
	if err := json.Unmarshal([]byte(session.StateJSON), &state); err != nil {
		slog.Error("Server.postMessageHandler: corrupt session state", "error", err, "session_id", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to decode session state"))
		return
	}

	responses, node, finalState, err := s.runWorkflow(r.Context(), session.CurrentNode, &state, req.Message)
	if err != nil {
		slog.Error("Server.postMessageHandler: engine failed", "error", err, "session_id", sessionID, "node", session.CurrentNode)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Workflow execution failed"))
		return
	}

	if err := s.saveSession(sessionID, node, finalState); err != nil {
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save session"))
		return
	}

	slog.Debug("Server.postMessageHandler: message processed", "session_id", sessionID, "current_node", node, "response_count", len(responses))
	writeJSONResponse(w, http.StatusOK, models.MessageResponse{
		Responses:   responses,
		CurrentNode: node,
		IsComplete:  finalState.PitchDocument != "",
	})
}

// getSessionHandler handles GET /sessions/{id}.
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	session, err := s.st.GetSession(sessionID)
	if err != nil {
		slog.Error("Server.getSessionHandler: session lookup failed", "error", err, "session_id", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	if session == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	var state models.InterviewState
	if err := json.Unmarshal([]byte(session.StateJSON), &state); err != nil {
		slog.Error("Server.getSessionHandler: corrupt session state", "error", err, "session_id", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to decode session state"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.SessionStatusResponse{
		SessionID:   session.SessionID,
		CurrentNode: session.CurrentNode,
		IsComplete:  state.PitchDocument != "",
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
	})
}

// saveSession serializes the state and writes the session record.
func (s *Server) saveSession(sessionID string, node models.NodeId, state *models.InterviewState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		slog.Error("Server.saveSession: failed to marshal state", "error", err, "session_id", sessionID)
		return err
	}
	if err := s.st.SaveSession(models.WorkflowSession{
		SessionID:   sessionID,
		CurrentNode: node,
		StateJSON:   string(stateJSON),
	}); err != nil {
		slog.Error("Server.saveSession: store write failed", "error", err, "session_id", sessionID)
		return err
	}
	return nil
}
