package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hollyoak/housepoints/internal/actor"
	"github.com/hollyoak/housepoints/internal/model"
	"github.com/hollyoak/housepoints/internal/store"
	"github.com/hollyoak/housepoints/internal/websocket"
)

type MemberHandler struct {
	memberStore   *store.MemberStore
	ledgerStore   *store.LedgerStore
	settingsStore *store.SettingsStore
	hub           *websocket.Hub
}

func NewMemberHandler(ms *store.MemberStore, ls *store.LedgerStore, ss *store.SettingsStore, hub *websocket.Hub) *MemberHandler {
	return &MemberHandler{memberStore: ms, ledgerStore: ls, settingsStore: ss, hub: hub}
}

func (h *MemberHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type memberRequest struct {
	Name        string `json:"name"`
	AvatarEmoji string `json:"avatar_emoji"`
	IsAdmin     bool   `json:"is_admin"`
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	exists, err := h.memberStore.NameExists(req.Name, 0)
	if err != nil {
		log.Printf("failed to check member name: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "a member with that name already exists")
		return
	}

	member, err := h.memberStore.Create(req.Name, req.AvatarEmoji, req.IsAdmin)
	if err != nil {
		log.Printf("failed to create member: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityMember, "created", member.ID, nil))

	writeJSON(w, http.StatusCreated, member)
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberStore.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	member, err := h.memberStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.memberStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	exists, err := h.memberStore.NameExists(req.Name, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "a member with that name already exists")
		return
	}

	member, err := h.memberStore.Update(id, req.Name, req.AvatarEmoji, req.IsAdmin)
	if err != nil {
		log.Printf("failed to update member: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityMember, "updated", id, nil))

	writeJSON(w, http.StatusOK, member)
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.memberStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	if err := h.memberStore.Delete(id); err != nil {
		log.Printf("failed to delete member: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete member")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityMember, "deleted", id, nil))

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type reorderRequest struct {
	IDs []int64 `json:"ids"`
}

func (h *MemberHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}

	if err := h.memberStore.UpdateSortOrder(req.IDs); err != nil {
		log.Printf("failed to reorder members: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to reorder members")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityMember, "reordered", 0, nil))

	writeJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
}

// Leaderboard returns every member's balance ordered highest first. It is
// hidden behind the leaderboard_enabled setting so a household can turn
// off the competition.
func (h *MemberHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if !h.settingsStore.LeaderboardEnabled() {
		writeError(w, http.StatusNotFound, "leaderboard is disabled")
		return
	}

	balances, err := h.ledgerStore.AllBalances()
	if err != nil {
		log.Printf("failed to compute balances: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute balances")
		return
	}
	if balances == nil {
		balances = []model.PointBalance{}
	}
	writeJSON(w, http.StatusOK, balances)
}

type pinRequest struct {
	PIN string `json:"pin"`
}

// SetPIN sets or updates a member's PIN. A member may set their own PIN;
// admins may set anyone's.
func (h *MemberHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if actor.MemberID(r.Context()) != id && !actor.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "cannot set another member's PIN")
		return
	}

	member, err := h.memberStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if len(req.PIN) < 4 || len(req.PIN) > 6 || !isDigits(req.PIN) {
		writeError(w, http.StatusBadRequest, "PIN must be 4-6 digits")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("failed to hash PIN: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to set PIN")
		return
	}

	if err := h.memberStore.SetPIN(id, string(hash)); err != nil {
		log.Printf("failed to set PIN: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to set PIN")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "pin set"})
}

// ClearPIN removes a member's PIN. Admin only; routed behind RequireAdmin.
func (h *MemberHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.memberStore.ClearPIN(id); err != nil {
		log.Printf("failed to clear PIN: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to clear PIN")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "pin cleared"})
}

// VerifyPIN checks a submitted PIN against the stored hash.
func (h *MemberHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	hash, err := h.memberStore.GetPINHash(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to verify PIN")
		return
	}
	if hash == "" {
		writeError(w, http.StatusNotFound, "member has no PIN set")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.PIN)); err != nil {
		writeError(w, http.StatusUnauthorized, "incorrect PIN")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}
