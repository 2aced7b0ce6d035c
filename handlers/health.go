package handlers

import (
	"net/http"

	"github.com/photomind/photomindbackend/repository"
	"github.com/photomind/photomindbackend/vectorstore"
)

// HealthHandler reports service liveness and the state of its backing
// stores.
type HealthHandler struct {
	Repo    repository.PhotoRepositoryInterface
	Vectors *vectorstore.Client
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "ok",
	}

	if total, err := h.Repo.Count(); err != nil {
		resp["status"] = "degraded"
		resp["database"] = "unavailable"
	} else {
		resp["database"] = "ok"
		resp["photos"] = total
	}

	if h.Vectors != nil {
		if count, err := h.Vectors.Count(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["vector_store"] = "unavailable"
		} else {
			resp["vector_store"] = "ok"
			resp["indexed"] = count
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
