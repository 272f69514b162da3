package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/hollyoak/housepoints/internal/actor"
	"github.com/hollyoak/housepoints/internal/database"
	"github.com/hollyoak/housepoints/internal/store"
)

func setupActorTest(t *testing.T) (*store.MemberStore, int64, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ms := store.NewMemberStore(db)
	kid, err := ms.Create("Ada", "", false)
	if err != nil {
		t.Fatal(err)
	}
	admin, err := ms.Create("Mom", "", true)
	if err != nil {
		t.Fatal(err)
	}
	return ms, kid.ID, admin.ID
}

func TestResolveActor(t *testing.T) {
	ms, kid, admin := setupActorTest(t)

	var got actor.Actor
	handler := ResolveActor(ms)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = actor.FromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/members", nil)
	req.Header.Set(MemberIDHeader, strconv.FormatInt(kid, 10))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.MemberID != kid || got.IsAdmin {
		t.Errorf("actor = %+v", got)
	}

	req = httptest.NewRequest("GET", "/api/members", nil)
	req.Header.Set(MemberIDHeader, strconv.FormatInt(admin, 10))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !got.IsAdmin {
		t.Error("expected admin actor")
	}
}

func TestResolveActorRejectsUnknown(t *testing.T) {
	ms, _, _ := setupActorTest(t)

	handler := ResolveActor(ms)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	for _, header := range []string{"", "abc", "-1", "99999"} {
		req := httptest.NewRequest("GET", "/api/members", nil)
		if header != "" {
			req.Header.Set(MemberIDHeader, header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("POST", "/api/members", nil)
	req = req.WithContext(actor.WithActor(req.Context(), actor.Actor{MemberID: 1, IsAdmin: false}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest("POST", "/api/members", nil)
	req = req.WithContext(actor.WithActor(req.Context(), actor.Actor{MemberID: 2, IsAdmin: true}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("admin status = %d, want 204", rec.Code)
	}
}
