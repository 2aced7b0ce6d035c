package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/photomind/photomindbackend/repository"
	"github.com/photomind/photomindbackend/vectorstore"
)

const defaultSearchResults = 20

// SearchHandler serves semantic photo search backed by the vector
// store.
type SearchHandler struct {
	Repo    repository.PhotoRepositoryInterface
	Vectors *vectorstore.Client
}

type textSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// SearchText finds photos matching a free-text query, ranked by
// semantic similarity.
func (h *SearchHandler) SearchText(w http.ResponseWriter, r *http.Request) {
	var req textSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON with a 'query' field")
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		WriteAPIError(w, http.StatusBadRequest, "invalid_request", "'query' is required")
		return
	}
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = defaultSearchResults
	}

	ids, err := h.Vectors.Query(r.Context(), query, limit)
	if err != nil {
		log.Printf("SearchText: query failed: %v", err)
		WriteAPIError(w, http.StatusBadGateway, "search_unavailable", "semantic search is currently unavailable")
		return
	}

	photos, err := h.Repo.GetByIDs(ids)
	if err != nil {
		log.Printf("SearchText: failed to load results: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "search_failed", "failed to load search results")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":  query,
		"photos": photos,
		"count":  len(photos),
	})
}
