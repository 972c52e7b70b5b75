package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shadowbrief/shadowbrief/internal/domain"
	"github.com/shadowbrief/shadowbrief/internal/service"
)

type ArticleHandler struct {
	svc *service.ArticleService
}

func NewArticleHandler(svc *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{svc: svc}
}

type ingestArticleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url,omitempty"`
	// Only ingest_and_explain reads user_id; the extraction runs on
	// that user's thread for the new article.
	UserID string `json:"user_id,omitempty"`
}

type ingestArticleResponse struct {
	Article  *domain.Article `json:"article"`
	Topic    domain.CallMeta `json:"topic_meta"`
	ThreadID string          `json:"thread_id,omitempty"`
	Explain  json.RawMessage `json:"explain,omitempty"`
}

func (h *ArticleHandler) ingest(w http.ResponseWriter, r *http.Request, req ingestArticleRequest) *ingestArticleResponse {
	article, meta, err := h.svc.Ingest(r.Context(), req.Title, req.Content, req.URL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTitleRequired),
			errors.Is(err, service.ErrContentTooShort):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusBadGateway, "failed to ingest article")
		}
		return nil
	}
	return &ingestArticleResponse{Article: article, Topic: meta}
}

func (h *ArticleHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp := h.ingest(w, r, req)
	if resp == nil {
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *ArticleHandler) IngestAndExplain(w http.ResponseWriter, r *http.Request) {
	var req ingestArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	resp := h.ingest(w, r, req)
	if resp == nil {
		return
	}

	result, err := h.svc.Explain(r.Context(), req.UserID, resp.Article.ID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "article stored but explain failed")
		return
	}
	resp.ThreadID = result.ThreadID
	resp.Explain = result.Payload

	writeJSON(w, http.StatusCreated, resp)
}

func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list articles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

func (h *ArticleHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	article, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrArticleNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch article")
		return
	}
	writeJSON(w, http.StatusOK, article)
}
