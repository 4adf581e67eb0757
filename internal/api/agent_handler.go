package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/emailai/backend/internal/agent"
)

// AgentHandler exposes the summarize and auto-reply webhook features.
type AgentHandler struct {
	client *agent.Client
}

// NewAgentHandler creates a new AgentHandler instance.
func NewAgentHandler(client *agent.Client) *AgentHandler {
	return &AgentHandler{client: client}
}

type agentRequest struct {
	Email string `json:"email"`
}

// Summarize generates a short summary of the posted email text.
func (h *AgentHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	summary, err := h.client.Summarize(r.Context(), req.Email)
	if err != nil {
		log.Printf("AgentHandler: Summarize failed: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Failed to generate summary")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"summary": summary,
	})
}

// GenerateResponse drafts a reply to the posted email text.
func (h *AgentHandler) GenerateResponse(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.client.GenerateResponse(r.Context(), req.Email)
	if err != nil {
		log.Printf("AgentHandler: Response generation failed: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Failed to generate response")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]any{
		"success":  true,
		"response": response,
	})
}
