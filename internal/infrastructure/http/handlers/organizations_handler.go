package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/orgauth/internal/application/invitation"
	"github.com/amirhosseinghanipour/orgauth/internal/application/organization"
	"github.com/amirhosseinghanipour/orgauth/internal/domain"
	"github.com/amirhosseinghanipour/orgauth/internal/infrastructure/http/middleware"
)

// OrganizationsHandler handles /orgs/*. Requires AuthValidator; member and invite routes
// additionally run behind OrgResolver.
type OrganizationsHandler struct {
	create       *organization.CreateOrganization
	queries      *organization.Queries
	addMember    *organization.AddMember
	createInvite *invitation.CreateInvite
	audit        *Auditor
	log          zerolog.Logger
}

func NewOrganizationsHandler(create *organization.CreateOrganization, queries *organization.Queries, addMember *organization.AddMember, createInvite *invitation.CreateInvite, audit *Auditor, log zerolog.Logger) *OrganizationsHandler {
	return &OrganizationsHandler{
		create:       create,
		queries:      queries,
		addMember:    addMember,
		createInvite: createInvite,
		audit:        audit,
		log:          log,
	}
}

// OrgResponse is the JSON shape for an organization.
type OrgResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MyRole    string `json:"my_role,omitempty"`
	CreatedAt string `json:"created_at"`
}

// MemberResponse is the JSON shape for an organization member.
type MemberResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// InviteResponse carries the raw token. It is shown once.
type InviteResponse struct {
	ID        string `json:"id"`
	OrgID     string `json:"org_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func (h *OrganizationsHandler) identity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized")
	}
	return id, ok
}

// Create creates an organization with the caller as OWNER.
func (h *OrganizationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name" validate:"required,max=200"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid body")
		return
	}
	if err := validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, validationMessage(err))
		return
	}
	org, err := h.create.Execute(r.Context(), id.UserID, body.Name)
	if err != nil {
		h.audit.Emit(r, EventOrgCreate, "", id.UserID.String(), err)
		writeDomainErr(w, h.log, "orgs.create", err)
		return
	}
	h.audit.Emit(r, EventOrgCreate, org.ID.String(), id.UserID.String(), nil)
	writeJSON(w, http.StatusCreated, OrgResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		MyRole:    string(domain.RoleOwner),
		CreatedAt: formatTime(org.CreatedAt),
	})
}

// Mine lists the caller's organizations.
func (h *OrganizationsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	orgs, err := h.queries.ListMyOrganizations(r.Context(), id.UserID)
	if err != nil {
		writeDomainErr(w, h.log, "orgs.mine", err)
		return
	}
	items := make([]OrgResponse, 0, len(orgs))
	for _, o := range orgs {
		items = append(items, OrgResponse{
			ID:        o.ID.String(),
			Name:      o.Name,
			MyRole:    string(o.MyRole),
			CreatedAt: formatTime(o.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"organizations": items})
}

// Get returns one organization the caller belongs to.
func (h *OrganizationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	orgID, err := domain.ParseOrganizationID(chi.URLParam(r, "orgID"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid organization id")
		return
	}
	org, err := h.queries.GetOrganizationForMember(r.Context(), orgID, id.UserID)
	if err != nil {
		writeDomainErr(w, h.log, "orgs.get", err)
		return
	}
	writeJSON(w, http.StatusOK, OrgResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		MyRole:    string(org.MyRole),
		CreatedAt: formatTime(org.CreatedAt),
	})
}

// Members lists members of the org in context. OWNER or ADMIN only.
func (h *OrganizationsHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.queries.ListMembers(r.Context(), middleware.OrgFromContext(r.Context()))
	if err != nil {
		writeDomainErr(w, h.log, "orgs.members", err)
		return
	}
	items := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		items = append(items, MemberResponse{
			UserID:    m.UserID.String(),
			Email:     m.Email,
			Role:      string(m.Role),
			CreatedAt: formatTime(m.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": items})
}

// AddMember attaches an existing user to the org in context.
func (h *OrganizationsHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	oc := middleware.OrgFromContext(r.Context())
	var body struct {
		UserID string `json:"user_id" validate:"required,uuid"`
		Role   string `json:"role" validate:"omitempty,max=16"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid body")
		return
	}
	if err := validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, validationMessage(err))
		return
	}
	userID, err := domain.ParseUserID(body.UserID)
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid user id")
		return
	}
	m, err := h.addMember.Execute(r.Context(), oc, organization.AddMemberInput{UserID: userID, Role: body.Role})
	orgID := ""
	if oc != nil {
		orgID = oc.OrgID.String()
	}
	h.audit.Emit(r, EventMemberAdd, orgID, id.UserID.String(), err)
	if err != nil {
		writeDomainErr(w, h.log, "orgs.members.add", err)
		return
	}
	writeJSON(w, http.StatusCreated, MemberResponse{
		UserID:    m.UserID.String(),
		Role:      string(m.Role),
		CreatedAt: formatTime(m.CreatedAt),
	})
}

// CreateInvite issues an invitation for the org in context.
func (h *OrganizationsHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	oc := middleware.OrgFromContext(r.Context())
	if oc == nil {
		writeErr(w, http.StatusForbidden, ErrCodeForbidden, "missing org context")
		return
	}
	var body struct {
		Email string `json:"email" validate:"required,email,max=254"`
		Role  string `json:"role" validate:"omitempty,max=16"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid body")
		return
	}
	body.Email = SanitizeEmail(body.Email)
	if err := validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, validationMessage(err))
		return
	}
	res, err := h.createInvite.Execute(r.Context(), invitation.CreateInviteInput{
		OrgID:     oc.OrgID,
		InviterID: id.UserID,
		Email:     body.Email,
		Role:      body.Role,
	})
	h.audit.Emit(r, EventInviteCreate, oc.OrgID.String(), id.UserID.String(), err)
	if err != nil {
		writeDomainErr(w, h.log, "orgs.invites.create", err)
		return
	}
	inv := res.Invite
	writeJSON(w, http.StatusCreated, InviteResponse{
		ID:        inv.ID.String(),
		OrgID:     inv.OrgID.String(),
		Email:     inv.Email,
		Role:      string(inv.Role),
		Status:    string(inv.Status),
		Token:     res.Token,
		ExpiresAt: formatTime(inv.ExpiresAt),
	})
}
