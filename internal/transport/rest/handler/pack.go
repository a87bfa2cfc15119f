package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"clipquiz/internal/model"
	"clipquiz/internal/service"
)

// PackHandler handles catalog pack endpoints
type PackHandler struct {
	catalogSvc *service.CatalogService
}

// NewPackHandler creates a new pack handler
func NewPackHandler(catalogSvc *service.CatalogService) *PackHandler {
	return &PackHandler{catalogSvc: catalogSvc}
}

// Create handles POST /v1/packs
func (h *PackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var pack model.Pack
	if err := json.NewDecoder(r.Body).Decode(&pack); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.catalogSvc.CreatePack(r.Context(), &pack)
	if err != nil {
		if errors.Is(err, service.ErrPackInvalid) || errors.Is(err, service.ErrTrackInvalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// List handles GET /v1/packs
func (h *PackHandler) List(w http.ResponseWriter, r *http.Request) {
	packs, err := h.catalogSvc.ListPacks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, packs)
}

// Search handles GET /v1/packs/search?q=...&tags=a,b
func (h *PackHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	var tags []string
	if raw := r.URL.Query().Get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	packs, err := h.catalogSvc.SearchPacks(r.Context(), query, tags)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, packs)
}

// Get handles GET /v1/packs/{id}
func (h *PackHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	pack, err := h.catalogSvc.GetPack(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if pack == nil {
		writeError(w, http.StatusNotFound, "pack not found")
		return
	}
	writeJSON(w, http.StatusOK, pack)
}

// Update handles PUT /v1/packs/{id}
func (h *PackHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var pack model.Pack
	if err := json.NewDecoder(r.Body).Decode(&pack); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pack.ID = id

	if err := h.catalogSvc.UpdatePack(r.Context(), &pack); err != nil {
		if errors.Is(err, service.ErrPackInvalid) || errors.Is(err, service.ErrTrackInvalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// Delete handles DELETE /v1/packs/{id}
func (h *PackHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.catalogSvc.DeletePack(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}
