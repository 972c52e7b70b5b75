package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shadowbrief/shadowbrief/internal/domain"
	"github.com/shadowbrief/shadowbrief/internal/service"
)

const defaultMessageLimit = 50

type ThreadHandler struct {
	threads  *service.ThreadService
	messages domain.MessageStore
}

func NewThreadHandler(threads *service.ThreadService, messages domain.MessageStore) *ThreadHandler {
	return &ThreadHandler{threads: threads, messages: messages}
}

type initRequest struct {
	UserID string `json:"user_id"`
}

// Init provisions (or reuses) the remote assistant for a user.
func (h *ThreadHandler) Init(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	assistantID, err := h.threads.AssistantFor(r.Context(), req.UserID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to provision assistant")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"user_id":      req.UserID,
		"assistant_id": assistantID,
	})
}

type threadRequest struct {
	UserID    string `json:"user_id"`
	ArticleID string `json:"article_id"`
}

// Thread provisions (or reuses) the per-user per-article thread.
func (h *ThreadHandler) Thread(w http.ResponseWriter, r *http.Request) {
	var req threadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.ArticleID == "" {
		writeError(w, http.StatusBadRequest, "user_id and article_id are required")
		return
	}

	threadID, err := h.threads.ThreadFor(r.Context(), req.UserID, req.ArticleID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to provision thread")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"user_id":    req.UserID,
		"article_id": req.ArticleID,
		"thread_id":  threadID,
	})
}

// Messages returns the local conversation log for a user/article pair,
// oldest first.
func (h *ThreadHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	articleID := r.URL.Query().Get("article_id")
	if userID == "" || articleID == "" {
		writeError(w, http.StatusBadRequest, "user_id and article_id are required")
		return
	}

	limit := defaultMessageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	threadID, err := h.threads.ThreadFor(r.Context(), userID, articleID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to resolve thread")
		return
	}

	msgs, err := h.messages.RecentByThread(r.Context(), threadID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id": threadID,
		"messages":  msgs,
	})
}
