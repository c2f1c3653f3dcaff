package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/kiranakart/kirana-backend/internal/auth"
	"github.com/kiranakart/kirana-backend/internal/domain/staff"
)

type actorKey struct{}

// actorFrom returns the authenticated actor stored by requireStaff, if any.
func actorFrom(ctx context.Context) (auth.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(auth.Actor)
	return a, ok
}

// requireStaff rejects requests without a valid bearer token and stores the
// authenticated actor in the request context.
func (s *Server) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, r, auth.ErrInvalidToken)
			return
		}

		actor, err := s.auth.Verify(token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin additionally demands the admin role. Must be nested inside
// requireStaff.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r.Context())
		if !ok || actor.Role != staff.RoleAdmin {
			writeJSON(w, http.StatusForbidden, errorResponse{
				Code:    http.StatusForbidden,
				Message: "admin role required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
