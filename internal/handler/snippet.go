package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/snipstash/snipstash/internal/auth"
	"github.com/snipstash/snipstash/internal/model"
	"github.com/snipstash/snipstash/internal/store"
	"github.com/snipstash/snipstash/internal/websocket"
)

type SnippetHandler struct {
	snippetStore *store.SnippetStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewSnippetHandler(ss *store.SnippetStore, hub *websocket.Hub, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippetStore: ss, hub: hub, logger: logger}
}

func (h *SnippetHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// List returns snippets newest first, filtered by language (exact), tags
// (csv, result must carry all of them), and search (substring over title,
// description, code).
func (h *SnippetHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.SnippetFilter{
		Language: q.Get("language"),
		Search:   q.Get("search"),
	}
	if tags := q.Get("tags"); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter.Tags = append(filter.Tags, t)
			}
		}
	}

	snippets, err := h.snippetStore.List(filter)
	if err != nil {
		h.logger.Error("list snippets", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to fetch snippets"})
		return
	}
	if snippets == nil {
		snippets = []model.Snippet{}
	}
	writeJSON(w, http.StatusOK, snippets)
}

type createSnippetRequest struct {
	Title       string   `json:"title"`
	Code        string   `json:"code"`
	Language    string   `json:"language"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (h *SnippetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.Code == "" || req.Language == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Title, code, and language are required."})
		return
	}

	createdBy, _ := auth.AdminEmail(r.Context())
	if createdBy == "" {
		createdBy = "unknown"
	}

	snippet, err := h.snippetStore.Create(req.Title, req.Language, req.Code, req.Description, req.Tags, createdBy)
	if err != nil {
		h.logger.Error("create snippet", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to create snippet"})
		return
	}

	h.broadcast(websocket.NewMessage("snippet", "created", snippet.ID, map[string]any{"language": snippet.Language}))

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Snippet created", "snippet": snippet})
}

type updateSnippetRequest struct {
	Title       *string   `json:"title"`
	Code        *string   `json:"code"`
	Language    *string   `json:"language"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
}

// Update applies a partial update; absent fields are left as they are.
func (h *SnippetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON"})
		return
	}

	updated, err := h.snippetStore.Update(id, store.SnippetUpdate{
		Title:       req.Title,
		Language:    req.Language,
		Code:        req.Code,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		h.logger.Error("update snippet", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to update snippet"})
		return
	}
	if updated == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Snippet not found"})
		return
	}

	h.broadcast(websocket.NewMessage("snippet", "updated", id, nil))

	writeJSON(w, http.StatusOK, map[string]any{"message": "Snippet updated", "updated": updated})
}

func (h *SnippetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.snippetStore.GetByID(id)
	if err != nil {
		h.logger.Error("get snippet", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to delete snippet"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Snippet not found"})
		return
	}

	if err := h.snippetStore.Delete(id); err != nil {
		h.logger.Error("delete snippet", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to delete snippet"})
		return
	}

	h.broadcast(websocket.NewMessage("snippet", "deleted", id, nil))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Snippet deleted successfully"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
