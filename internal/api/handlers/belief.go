package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shadowbrief/shadowbrief/internal/service"
)

type BeliefHandler struct {
	beliefs  *service.BeliefService
	articles *service.ArticleService
}

func NewBeliefHandler(beliefs *service.BeliefService, articles *service.ArticleService) *BeliefHandler {
	return &BeliefHandler{beliefs: beliefs, articles: articles}
}

type actionRequest struct {
	UserID    string `json:"user_id"`
	ArticleID string `json:"article_id"`
	Action    string `json:"action"`
	Topic     string `json:"topic,omitempty"`
	Stance    string `json:"stance,omitempty"`
	Claim     string `json:"claim,omitempty"`
	Note      string `json:"note,omitempty"`
	Content   string `json:"content,omitempty"`
}

// Action dispatches one reader action on an article: VOTE records a
// stance through the belief pipeline, ALIGN compares the article thesis
// against a stated belief, EXPLAIN extracts the argument structure.
func (h *BeliefHandler) Action(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.ArticleID == "" {
		writeError(w, http.StatusBadRequest, "user_id and article_id are required")
		return
	}

	switch req.Action {
	case "VOTE":
		h.vote(w, r, req)
	case "ALIGN":
		h.align(w, r, req)
	case "EXPLAIN":
		h.explain(w, r, req)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (h *BeliefHandler) vote(w http.ResponseWriter, r *http.Request, req actionRequest) {
	topic, claim := req.Topic, req.Claim
	if topic == "" || claim == "" {
		article, err := h.articles.GetByID(r.Context(), req.ArticleID)
		if err != nil {
			if errors.Is(err, service.ErrArticleNotFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to fetch article")
			return
		}
		if topic == "" {
			topic = article.Topic
		}
		if claim == "" {
			claim = article.Title
		}
	}

	result, err := h.beliefs.RecordStance(r.Context(), req.UserID, req.ArticleID, topic, req.Stance, claim, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserIDMissing),
			errors.Is(err, service.ErrInvalidStance):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusBadGateway, "failed to record stance")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"belief_id":    result.BeliefID,
		"topic":        result.Topic,
		"thread_id":    result.ThreadID,
		"alert":        result.Alert,
		"alert_meta":   result.AlertMeta,
		"distill_meta": result.DistillMeta,
	})
}

func (h *BeliefHandler) align(w http.ResponseWriter, r *http.Request, req actionRequest) {
	result, err := h.beliefs.Align(r.Context(), req.UserID, req.ArticleID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserIDMissing),
			errors.Is(err, service.ErrContentMissing):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusBadGateway, "failed to align belief")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id": result.ThreadID,
		"alignment": result.Response,
		"meta":      result.Meta,
	})
}

func (h *BeliefHandler) explain(w http.ResponseWriter, r *http.Request, req actionRequest) {
	result, err := h.articles.Explain(r.Context(), req.UserID, req.ArticleID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserIDMissing):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrArticleNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusBadGateway, "failed to explain article")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id": result.ThreadID,
		"explain":   result.Payload,
		"meta":      result.Meta,
	})
}

// Recent returns a user's belief rows, newest first, optionally
// filtered by topic.
func (h *BeliefHandler) Recent(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	beliefs, err := h.beliefs.Recent(r.Context(), userID, r.URL.Query().Get("topic"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch beliefs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"beliefs": beliefs})
}

// Latest returns the single most recent belief for a user and topic.
func (h *BeliefHandler) Latest(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	topic := r.URL.Query().Get("topic")
	if userID == "" || topic == "" {
		writeError(w, http.StatusBadRequest, "user_id and topic are required")
		return
	}

	belief, err := h.beliefs.Latest(r.Context(), userID, topic)
	if err != nil {
		if errors.Is(err, service.ErrBeliefNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch belief")
		return
	}

	writeJSON(w, http.StatusOK, belief)
}
