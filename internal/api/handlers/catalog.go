package handlers

import (
	"net/http"
	"strconv"

	"github.com/dom/wedge-builds/internal/catalog"
	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/service"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) Characters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalogService.Characters())
}

func (h *CatalogHandler) Character(w http.ResponseWriter, r *http.Request) {
	c, ok := h.catalogService.Character(chi.URLParam(r, "id"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Character not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) Weapons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalogService.Weapons())
}

func (h *CatalogHandler) Weapon(w http.ResponseWriter, r *http.Request) {
	weapon, ok := h.catalogService.Weapon(chi.URLParam(r, "id"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Weapon not found")
		return
	}
	writeJSON(w, http.StatusOK, weapon)
}

// Mods lists mods: ?type=&element=&rarity=&prime=true&center=true
func (h *CatalogHandler) Mods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := catalog.ModQuery{
		Type:       domain.ModType(q.Get("type")),
		Element:    domain.Element(q.Get("element")),
		PrimeOnly:  q.Get("prime") == "true",
		CenterOnly: q.Get("center") == "true",
	}
	if query.Type != "" && !query.Type.IsValid() {
		writeMessage(w, http.StatusBadRequest, "Unknown mod type")
		return
	}
	if query.Element != "" && !query.Element.IsValid() {
		writeMessage(w, http.StatusBadRequest, "Unknown element")
		return
	}
	if raw := q.Get("rarity"); raw != "" {
		rarity, err := strconv.Atoi(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid rarity")
			return
		}
		query.Rarity = rarity
	}
	writeJSON(w, http.StatusOK, h.catalogService.Mods(query))
}

func (h *CatalogHandler) Mod(w http.ResponseWriter, r *http.Request) {
	m, ok := h.catalogService.Mod(chi.URLParam(r, "name"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Mod not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}
