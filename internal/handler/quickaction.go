package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/hollyoak/housepoints/internal/model"
	"github.com/hollyoak/housepoints/internal/store"
	"github.com/hollyoak/housepoints/internal/websocket"
)

type QuickActionHandler struct {
	actionStore *store.QuickActionStore
	hub         *websocket.Hub
}

func NewQuickActionHandler(qs *store.QuickActionStore, hub *websocket.Hub) *QuickActionHandler {
	return &QuickActionHandler{actionStore: qs, hub: hub}
}

func (h *QuickActionHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type quickActionRequest struct {
	Label    string `json:"label"`
	Points   int    `json:"points"`
	Emoji    string `json:"emoji"`
	Polarity string `json:"polarity"`
}

func (h *QuickActionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req quickActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		writeError(w, http.StatusBadRequest, "label is required")
		return
	}
	if req.Points <= 0 {
		writeError(w, http.StatusBadRequest, "points must be > 0")
		return
	}

	polarity := model.Polarity(req.Polarity)
	if polarity == "" {
		polarity = model.PolarityEarn
	}
	if polarity != model.PolarityEarn && polarity != model.PolaritySpend {
		writeError(w, http.StatusBadRequest, "polarity must be earn or spend")
		return
	}

	action, err := h.actionStore.Create(req.Label, req.Points, req.Emoji, polarity)
	if err != nil {
		log.Printf("failed to create quick action: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create quick action")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityAction, "created", action.ID, nil))

	writeJSON(w, http.StatusCreated, action)
}

// List returns active quick actions, cheapest first. Pass ?polarity=earn or
// ?polarity=spend to filter, or ?all=true (admin screens) to include
// deactivated actions.
func (h *QuickActionHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		actions []model.QuickAction
		err     error
	)

	if r.URL.Query().Get("all") == "true" {
		actions, err = h.actionStore.ListAll()
	} else {
		polarity := model.Polarity(r.URL.Query().Get("polarity"))
		if polarity != "" && polarity != model.PolarityEarn && polarity != model.PolaritySpend {
			writeError(w, http.StatusBadRequest, "polarity must be earn or spend")
			return
		}
		actions, err = h.actionStore.ListActive(polarity)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list quick actions")
		return
	}
	if actions == nil {
		actions = []model.QuickAction{}
	}
	writeJSON(w, http.StatusOK, actions)
}

func (h *QuickActionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.actionStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get quick action")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "quick action not found")
		return
	}

	var req quickActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		writeError(w, http.StatusBadRequest, "label is required")
		return
	}
	if req.Points <= 0 {
		writeError(w, http.StatusBadRequest, "points must be > 0")
		return
	}

	// Polarity is fixed at creation; changing it would flip the sign of
	// future entries under the same label.
	action, err := h.actionStore.Update(id, req.Label, req.Points, req.Emoji)
	if err != nil {
		log.Printf("failed to update quick action: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update quick action")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityAction, "updated", id, nil))

	writeJSON(w, http.StatusOK, action)
}

// Deactivate soft-deletes a quick action. Ledger entries that reference its
// label are unaffected.
func (h *QuickActionHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "deactivated")
}

// Restore re-activates a previously deactivated quick action.
func (h *QuickActionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "restored")
}

func (h *QuickActionHandler) setActive(w http.ResponseWriter, r *http.Request, active bool, verb string) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.actionStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get quick action")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "quick action not found")
		return
	}

	if err := h.actionStore.SetActive(id, active); err != nil {
		log.Printf("failed to %s quick action: %v", verb, err)
		writeError(w, http.StatusInternalServerError, "failed to update quick action")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityAction, verb, id, nil))

	writeJSON(w, http.StatusOK, map[string]string{"status": verb})
}
