package middleware

import (
	"net/http"
	"strconv"

	"github.com/hollyoak/housepoints/internal/actor"
	"github.com/hollyoak/housepoints/internal/store"
)

// MemberIDHeader carries the acting member's ID, set by whatever fronts
// this service (the identity provider is external to the engine).
const MemberIDHeader = "X-Member-ID"

// ResolveActor resolves the member named by the request header and attaches
// a typed actor to the context. Requests with no resolvable member are
// rejected: every engine operation requires an explicit actor.
func ResolveActor(members *store.MemberStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(MemberIDHeader)
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				http.Error(w, "Unknown actor", http.StatusUnauthorized)
				return
			}

			member, err := members.GetByID(id)
			if err != nil {
				http.Error(w, "Internal error", http.StatusInternalServerError)
				return
			}
			if member == nil {
				http.Error(w, "Unknown actor", http.StatusUnauthorized)
				return
			}

			ctx := actor.WithActor(r.Context(), actor.Actor{
				MemberID: member.ID,
				IsAdmin:  member.IsAdmin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the resolved actor holds the admin flag.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !actor.IsAdmin(r.Context()) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
