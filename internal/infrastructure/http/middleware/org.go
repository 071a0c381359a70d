package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amirhosseinghanipour/orgauth/internal/application/organization"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
)

// OrgIDHeader carries the target organization when the route has no {orgID} segment.
const OrgIDHeader = "X-Org-Id"

// OrgResolver loads the caller's membership for the target org and sets the OrgContext.
// Must run after AuthValidator.
type OrgResolver struct {
	access *organization.Access
}

func NewOrgResolver(access *organization.Access) *OrgResolver {
	return &OrgResolver{access: access}
}

func (m *OrgResolver) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			writeErr(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		raw := chi.URLParam(r, "orgID")
		if raw == "" {
			raw = r.Header.Get(OrgIDHeader)
		}
		if raw == "" {
			writeErr(w, http.StatusBadRequest, "invalid_request", "organization id required")
			return
		}
		orgID, err := domain.ParseOrganizationID(raw)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_request", "invalid organization id")
			return
		}
		oc, err := m.access.ResolveMembership(r.Context(), id.UserID, orgID)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithOrg(r.Context(), oc)))
	})
}

// RequireRole rejects requests whose OrgContext role is not in allowed.
func RequireRole(allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := organization.RequireRole(OrgFromContext(r.Context()), allowed...); err != nil {
				writeDomainErr(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
