package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/hollyoak/housepoints/internal/actor"
	"github.com/hollyoak/housepoints/internal/model"
	"github.com/hollyoak/housepoints/internal/store"
	"github.com/hollyoak/housepoints/internal/websocket"
)

type RedemptionHandler struct {
	redemptionStore *store.RedemptionStore
	hub             *websocket.Hub
}

func NewRedemptionHandler(xs *store.RedemptionStore, hub *websocket.Hub) *RedemptionHandler {
	return &RedemptionHandler{redemptionStore: xs, hub: hub}
}

func (h *RedemptionHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// List returns redemption requests filtered by ?status=, defaulting to the
// pending queue. Admin only.
func (h *RedemptionHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.RedemptionStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.RedemptionPending
	}
	switch status {
	case model.RedemptionPending, model.RedemptionApproved, model.RedemptionRejected, model.RedemptionCompleted:
	default:
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	requests, err := h.redemptionStore.ListByStatus(status)
	if err != nil {
		log.Printf("failed to list redemption requests: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list redemption requests")
		return
	}
	if requests == nil {
		requests = []model.RedemptionRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

// ListMine returns the acting member's own redemption requests, newest first.
func (h *RedemptionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	requests, err := h.redemptionStore.ListByMember(actor.MemberID(r.Context()))
	if err != nil {
		log.Printf("failed to list redemption requests: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list redemption requests")
		return
	}
	if requests == nil {
		requests = []model.RedemptionRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *RedemptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	request, err := h.redemptionStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get redemption request")
		return
	}
	if request == nil {
		writeError(w, http.StatusNotFound, "redemption request not found")
		return
	}

	if request.MemberID != actor.MemberID(r.Context()) && !actor.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "cannot view another member's request")
		return
	}
	writeJSON(w, http.StatusOK, request)
}

type decisionRequest struct {
	Note string `json:"note"`
}

// Approve grants a pending request, debiting the cost captured at creation.
func (h *RedemptionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.redemptionStore.Approve, "approved")
}

// Reject declines a pending request. No points move.
func (h *RedemptionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.redemptionStore.Reject, "rejected")
}

func (h *RedemptionHandler) decide(w http.ResponseWriter, r *http.Request, fn func(id, adminID int64, note string, at time.Time) (*model.RedemptionRequest, error), verb string) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.redemptionStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get redemption request")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "redemption request not found")
		return
	}

	var req decisionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	request, err := fn(id, actor.MemberID(r.Context()), req.Note, time.Now())
	if err != nil {
		if !writePointsError(w, err) {
			log.Printf("failed to decide redemption request: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to update redemption request")
		}
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityRedemption, verb, id, map[string]any{
		"member_id": request.MemberID,
	}))

	writeJSON(w, http.StatusOK, request)
}
