package api

import (
	"errors"
	"net/http"

	"kitchen-assistant/internal/kitchen"
	"kitchen-assistant/internal/llm"
)

type chatHistoryResponse struct {
	SessionID string                `json:"session_id"`
	Messages  []kitchen.ChatMessage `json:"messages"`
}

func (s *Server) chatHistory(w http.ResponseWriter, r *http.Request) {
	store := s.store(r)
	if err := store.FetchChatHistory(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatHistoryResponse{SessionID: store.SessionID(), Messages: store.ChatHistory()})
}

type chatRequest struct {
	Message             string   `json:"message"`
	SelectedIngredients []string `json:"selected_ingredients"`
}

type chatErrorResponse struct {
	Error   string               `json:"error"`
	Message *kitchen.ChatMessage `json:"message,omitempty"`
}

// sendChat runs one assistant turn. A failed generation still stores an
// error message in the conversation; it is returned next to the error.
func (s *Server) sendChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	store := s.store(r)
	if len(req.SelectedIngredients) == 0 {
		// On failure the cached inventory is used.
		_ = store.FetchIngredients(r.Context())
	}

	assistant := kitchen.NewAssistant(store, s.chef, s.usage, s.inventoryLimit)
	reply, err := assistant.Send(r.Context(), req.Message, req.SelectedIngredients)
	if err != nil {
		if reply.Message.ID != "" && !errors.Is(err, kitchen.ErrNotLoggedIn) {
			writeJSON(w, http.StatusBadGateway, chatErrorResponse{Error: llm.UserMessage(err), Message: &reply.Message})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) newChatSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": s.store(r).StartNewChatSession()})
}

func (s *Server) clearChat(w http.ResponseWriter, r *http.Request) {
	if err := s.store(r).ClearChatHistory(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
