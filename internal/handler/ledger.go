package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hollyoak/housepoints/internal/actor"
	"github.com/hollyoak/housepoints/internal/model"
	"github.com/hollyoak/housepoints/internal/points"
	"github.com/hollyoak/housepoints/internal/store"
	"github.com/hollyoak/housepoints/internal/websocket"
)

const defaultHistoryLimit = 50

type LedgerHandler struct {
	ledgerStore   *store.LedgerStore
	memberStore   *store.MemberStore
	actionStore   *store.QuickActionStore
	settingsStore *store.SettingsStore
	hub           *websocket.Hub
}

func NewLedgerHandler(ls *store.LedgerStore, ms *store.MemberStore, qs *store.QuickActionStore, ss *store.SettingsStore, hub *websocket.Hub) *LedgerHandler {
	return &LedgerHandler{ledgerStore: ls, memberStore: ms, actionStore: qs, settingsStore: ss, hub: hub}
}

func (h *LedgerHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// entryView decorates a ledger entry with its human-readable title.
type entryView struct {
	model.LedgerEntry
	Title string `json:"title"`
}

func toEntryViews(entries []model.LedgerEntry) []entryView {
	views := make([]entryView, len(entries))
	for i, e := range entries {
		views[i] = entryView{
			LedgerEntry: e,
			Title:       points.DisplayTitle(e.Amount, e.Reason),
		}
	}
	return views
}

func (h *LedgerHandler) requireMember(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}

	member, err := h.memberStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return 0, false
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return 0, false
	}
	return id, true
}

// History returns a member's most recent ledger entries, newest first.
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := h.ledgerStore.ListByMember(id, limit)
	if err != nil {
		log.Printf("failed to list ledger entries: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list ledger entries")
		return
	}

	writeJSON(w, http.StatusOK, toEntryViews(entries))
}

// Balance returns a member's current point balance.
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	balance, err := h.ledgerStore.Balance(id)
	if err != nil {
		log.Printf("failed to compute balance: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute balance")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"member_id": id,
		"balance":   balance,
	})
}

type statsResponse struct {
	Daily   []model.DailyStat `json:"daily"`
	Summary points.Summary    `json:"summary"`
}

// Stats returns per-day net/gain buckets for the requested window plus the
// rolling 7-day summary.
func (h *LedgerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	days := 7
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 90 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 90")
			return
		}
		days = n
	}

	now := time.Now()
	fetchDays := days
	if fetchDays < 7 {
		fetchDays = 7
	}
	since := startOfDay(now).AddDate(0, 0, -(fetchDays - 1))

	entries, err := h.ledgerStore.ListByMemberSince(id, since)
	if err != nil {
		log.Printf("failed to list ledger entries: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Daily:   points.DailyStats(entries, days, now),
		Summary: points.Summarize(entries, now),
	})
}

type selfScoreRequest struct {
	ActionID int64 `json:"action_id"`
}

// SelfScore lets a member claim an earn-type quick action for themselves,
// subject to the daily limit and the once-per-day-per-action rule.
func (h *LedgerHandler) SelfScore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	if actor.MemberID(r.Context()) != id {
		writeError(w, http.StatusForbidden, "members can only self-score for themselves")
		return
	}

	var req selfScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	action, err := h.actionStore.GetByID(req.ActionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get quick action")
		return
	}
	if action == nil || !action.Active {
		writeError(w, http.StatusNotFound, "quick action not found")
		return
	}

	now := time.Now()
	todays, err := h.ledgerStore.ListByMemberSince(id, startOfDay(now))
	if err != nil {
		log.Printf("failed to list today's entries: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to self-score")
		return
	}

	limit := h.settingsStore.SelfScoreDailyLimit()
	gate := points.NewGate(limit)

	draft, err := gate.AttemptSelfScore(id, *action, todays, now)
	if err != nil {
		if !writePointsError(w, err) {
			writeError(w, http.StatusInternalServerError, "failed to self-score")
		}
		return
	}

	// The store re-checks both rules inside a transaction before inserting,
	// so two concurrent claims cannot both pass the gate.
	entry, err := h.ledgerStore.SelfScoreInsert(draft, limit)
	if err != nil {
		if !writePointsError(w, err) {
			log.Printf("failed to insert self-score: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to self-score")
		}
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityLedger, "created", entry.ID, map[string]any{
		"member_id": id,
	}))

	writeJSON(w, http.StatusCreated, entryView{LedgerEntry: *entry, Title: points.DisplayTitle(entry.Amount, entry.Reason)})
}

type adjustRequest struct {
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

// Adjust records an admin-entered point delta with a free-text reason.
// Admin adjustments may take a balance negative.
func (h *LedgerHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required")
		return
	}

	adminID := actor.MemberID(r.Context())
	entry, err := h.ledgerStore.Insert(id, req.Amount, req.Reason, &adminID, time.Now())
	if err != nil {
		if !writePointsError(w, err) {
			log.Printf("failed to insert adjustment: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to record adjustment")
		}
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityLedger, "created", entry.ID, map[string]any{
		"member_id": id,
	}))

	writeJSON(w, http.StatusCreated, entryView{LedgerEntry: *entry, Title: points.DisplayTitle(entry.Amount, entry.Reason)})
}

type applyActionRequest struct {
	ActionID int64 `json:"action_id"`
}

// ApplyAction records a quick action against a member on an admin's
// authority. Earn actions credit, spend actions debit; the reason is the
// bare action label.
func (h *LedgerHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	var req applyActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	action, err := h.actionStore.GetByID(req.ActionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get quick action")
		return
	}
	if action == nil || !action.Active {
		writeError(w, http.StatusNotFound, "quick action not found")
		return
	}

	amount := action.Points
	if action.Polarity == model.PolaritySpend {
		amount = -action.Points
	}

	adminID := actor.MemberID(r.Context())
	entry, err := h.ledgerStore.Insert(id, amount, action.Label, &adminID, time.Now())
	if err != nil {
		if !writePointsError(w, err) {
			log.Printf("failed to apply quick action: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to apply quick action")
		}
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityLedger, "created", entry.ID, map[string]any{
		"member_id": id,
	}))

	writeJSON(w, http.StatusCreated, entryView{LedgerEntry: *entry, Title: points.DisplayTitle(entry.Amount, entry.Reason)})
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
