package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hollyoak/housepoints/internal/actor"
	"github.com/hollyoak/housepoints/internal/model"
	"github.com/hollyoak/housepoints/internal/store"
	"github.com/hollyoak/housepoints/internal/websocket"
)

type RewardHandler struct {
	rewardStore     *store.RewardStore
	redemptionStore *store.RedemptionStore
	hub             *websocket.Hub
}

func NewRewardHandler(rs *store.RewardStore, xs *store.RedemptionStore, hub *websocket.Hub) *RewardHandler {
	return &RewardHandler{rewardStore: rs, redemptionStore: xs, hub: hub}
}

func (h *RewardHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type rewardRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Cost             int    `json:"cost"`
	Emoji            string `json:"emoji"`
	RequiresApproval bool   `json:"requires_approval"`
}

func (req *rewardRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.Cost <= 0 {
		return "cost must be > 0"
	}
	return ""
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	reward, err := h.rewardStore.Create(req.Name, req.Description, req.Cost, req.Emoji, req.RequiresApproval)
	if err != nil {
		log.Printf("failed to create reward: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create reward")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityReward, "created", reward.ID, nil))

	writeJSON(w, http.StatusCreated, reward)
}

// List returns active rewards cheapest first, or every reward with ?all=true.
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		rewards []model.Reward
		err     error
	)
	if r.URL.Query().Get("all") == "true" {
		rewards, err = h.rewardStore.ListAll()
	} else {
		rewards, err = h.rewardStore.ListActive()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rewards")
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.rewardStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	// Editing the cost affects future redemptions only; open requests keep
	// the cost captured when they were created.
	reward, err := h.rewardStore.Update(id, req.Name, req.Description, req.Cost, req.Emoji, req.RequiresApproval)
	if err != nil {
		log.Printf("failed to update reward: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update reward")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityReward, "updated", id, nil))

	writeJSON(w, http.StatusOK, reward)
}

// Deactivate soft-deletes a reward so redemption history keeps its name.
func (h *RewardHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "deactivated")
}

// Restore re-activates a previously deactivated reward.
func (h *RewardHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "restored")
}

func (h *RewardHandler) setActive(w http.ResponseWriter, r *http.Request, active bool, verb string) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.rewardStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}

	if err := h.rewardStore.SetActive(id, active); err != nil {
		log.Printf("failed to %s reward: %v", verb, err)
		writeError(w, http.StatusInternalServerError, "failed to update reward")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityReward, verb, id, nil))

	writeJSON(w, http.StatusOK, map[string]string{"status": verb})
}

// Redeem spends the acting member's points on a reward. Rewards that require
// approval open a pending request; the rest debit immediately.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	reward, err := h.rewardStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if reward == nil || !reward.Active {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}

	memberID := actor.MemberID(r.Context())
	request, err := h.redemptionStore.Create(memberID, *reward, time.Now())
	if err != nil {
		if !writePointsError(w, err) {
			log.Printf("failed to redeem reward: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to redeem reward")
		}
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityRedemption, "created", request.ID, map[string]any{
		"member_id": memberID,
		"status":    string(request.Status),
	}))

	writeJSON(w, http.StatusCreated, request)
}
