package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hollyoak/housepoints/internal/backup"
	"github.com/hollyoak/housepoints/internal/handler"
	"github.com/hollyoak/housepoints/internal/middleware"
	"github.com/hollyoak/housepoints/internal/reconcile"
	"github.com/hollyoak/housepoints/internal/store"
	ws "github.com/hollyoak/housepoints/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	memberH       *handler.MemberHandler
	ledgerH       *handler.LedgerHandler
	actionH       *handler.QuickActionHandler
	rewardH       *handler.RewardHandler
	redemptionH   *handler.RedemptionHandler
	settingsH     *handler.SettingsHandler
	memberStore   *store.MemberStore
	rateLimiter   *middleware.RateLimiter
	checker       *reconcile.Checker
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, backupCfg backup.Config, rateLimiter *middleware.RateLimiter, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	memberStore := store.NewMemberStore(db)
	ledgerStore := store.NewLedgerStore(db)
	actionStore := store.NewQuickActionStore(db)
	rewardStore := store.NewRewardStore(db)
	redemptionStore := store.NewRedemptionStore(db)
	settingsStore := store.NewSettingsStore(db)

	return &Server{
		db:            db,
		hub:           hub,
		memberH:       handler.NewMemberHandler(memberStore, ledgerStore, settingsStore, hub),
		ledgerH:       handler.NewLedgerHandler(ledgerStore, memberStore, actionStore, settingsStore, hub),
		actionH:       handler.NewQuickActionHandler(actionStore, hub),
		rewardH:       handler.NewRewardHandler(rewardStore, redemptionStore, hub),
		redemptionH:   handler.NewRedemptionHandler(redemptionStore, hub),
		settingsH:     handler.NewSettingsHandler(settingsStore, hub),
		memberStore:   memberStore,
		rateLimiter:   rateLimiter,
		checker:       reconcile.NewChecker(db, logger.With("component", "reconcile")),
		backupManager: backup.NewManager(backupCfg, db, logger.With("component", "backup")),
		logger:        logger,
	}
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// Checker returns the ledger reconciliation checker.
func (s *Server) Checker() *reconcile.Checker {
	return s.checker
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes. The WebSocket endpoint stays outside the actor check
	// because browsers cannot attach custom headers to upgrade requests.
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	apiMux := http.NewServeMux()
	s.registerAPIRoutes(apiMux)

	actorMiddleware := middleware.ResolveActor(s.memberStore)
	outerMux.Handle("/api/", actorMiddleware(apiMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// admin wraps a handler so only admin members reach it.
func (s *Server) admin(h http.HandlerFunc) http.Handler {
	return middleware.RequireAdmin(h)
}

// limited applies the per-IP rate limit to spam-prone member endpoints.
func (s *Server) limited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter)(h)
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	// Members
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.Handle("POST /api/members", s.admin(s.memberH.Create))
	mux.Handle("PUT /api/members/{id}", s.admin(s.memberH.Update))
	mux.Handle("DELETE /api/members/{id}", s.admin(s.memberH.Delete))
	mux.Handle("PUT /api/members/sort", s.admin(s.memberH.Reorder))

	// PINs. SetPIN enforces self-or-admin itself.
	mux.HandleFunc("POST /api/members/{id}/pin", s.memberH.SetPIN)
	mux.Handle("DELETE /api/members/{id}/pin", s.admin(s.memberH.ClearPIN))
	mux.HandleFunc("POST /api/members/{id}/pin/verify", s.memberH.VerifyPIN)

	// Ledger
	mux.HandleFunc("GET /api/members/{id}/ledger", s.ledgerH.History)
	mux.HandleFunc("GET /api/members/{id}/balance", s.ledgerH.Balance)
	mux.HandleFunc("GET /api/members/{id}/stats", s.ledgerH.Stats)
	mux.Handle("POST /api/members/{id}/self-score", s.limited(s.ledgerH.SelfScore))
	mux.Handle("POST /api/members/{id}/adjust", s.admin(s.ledgerH.Adjust))
	mux.Handle("POST /api/members/{id}/apply-action", s.admin(s.ledgerH.ApplyAction))

	// Quick action catalog
	mux.HandleFunc("GET /api/quick-actions", s.actionH.List)
	mux.Handle("POST /api/quick-actions", s.admin(s.actionH.Create))
	mux.Handle("PUT /api/quick-actions/{id}", s.admin(s.actionH.Update))
	mux.Handle("DELETE /api/quick-actions/{id}", s.admin(s.actionH.Deactivate))
	mux.Handle("POST /api/quick-actions/{id}/restore", s.admin(s.actionH.Restore))

	// Reward catalog
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.Handle("POST /api/rewards", s.admin(s.rewardH.Create))
	mux.Handle("PUT /api/rewards/{id}", s.admin(s.rewardH.Update))
	mux.Handle("DELETE /api/rewards/{id}", s.admin(s.rewardH.Deactivate))
	mux.Handle("POST /api/rewards/{id}/restore", s.admin(s.rewardH.Restore))
	mux.Handle("POST /api/rewards/{id}/redeem", s.limited(s.rewardH.Redeem))

	// Redemption queue
	mux.Handle("GET /api/redemptions", s.admin(s.redemptionH.List))
	mux.HandleFunc("GET /api/redemptions/mine", s.redemptionH.ListMine)
	mux.HandleFunc("GET /api/redemptions/{id}", s.redemptionH.Get)
	mux.Handle("POST /api/redemptions/{id}/approve", s.admin(s.redemptionH.Approve))
	mux.Handle("POST /api/redemptions/{id}/reject", s.admin(s.redemptionH.Reject))

	// Leaderboard
	mux.HandleFunc("GET /api/leaderboard", s.memberH.Leaderboard)

	// Settings
	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.Handle("PUT /api/settings", s.admin(s.settingsH.Update))

	// Backup status
	mux.Handle("GET /api/backup/status", s.admin(s.backupStatusHandler))
}

func (s *Server) backupStatusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.backupManager.Status())
}
