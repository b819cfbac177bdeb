package api

import (
	"net/http"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/handler"
)

// UserHandler serves the caller's profile and the admin user listing.
type UserHandler struct {
	users domain.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users domain.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), domain.UserIDFromContext(r.Context()))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteData(w, http.StatusOK, toUserView(*user))
}

// Absent fields are left unchanged.
type updateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email *string `json:"email" validate:"omitempty,email,max=254"`
	Phone *string `json:"phone" validate:"omitempty,max=32"`
}

// UpdateMe handles PATCH /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	const op = "user.update"

	var req updateProfileRequest
	if err := handler.DecodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), domain.UserIDFromContext(r.Context()), domain.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteData(w, http.StatusOK, toUserView(*user))
}

// List handles GET /api/users (admin)
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := handler.NewQuery(r)
	page := q.Page()
	if err := q.Err("user.list"); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	users, err := h.users.ListUsers(r.Context(), page)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WritePage(w, users, toUserView)
}
