package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/terrastories/server/internal/api/respond"
	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/domain/users"
)

type UserHandler struct {
	users *users.Service
}

func NewUserHandler(service *users.Service) *UserHandler {
	return &UserHandler{users: service}
}

type userResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        string     `json:"role"`
	CommunityID *uuid.UUID `json:"communityId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func newUserResponse(u users.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        string(u.Role),
		CommunityID: u.CommunityID,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type createUserRequest struct {
	Email       string     `json:"email" validate:"required,email"`
	Password    string     `json:"password" validate:"required,min=10"`
	FirstName   string     `json:"firstName" validate:"max=100"`
	LastName    string     `json:"lastName" validate:"max=100"`
	Role        string     `json:"role" validate:"required"`
	CommunityID *uuid.UUID `json:"communityId"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	role, ok := auth.NormalizeRole(req.Role)
	if !ok {
		respond.Validation(w, r, nil, map[string]string{"role": "unknown role"})
		return
	}

	created, err := h.users.Create(r.Context(), sessionFrom(r), actorFrom(r), users.CreateParams{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Role:        role,
		CommunityID: req.CommunityID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusCreated, newUserResponse(created))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(r.Context(), sessionFrom(r), actorFrom(r), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusOK, newUserResponse(*user))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := users.Filters{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if value := r.URL.Query().Get("role"); value != "" {
		role, ok := auth.NormalizeRole(value)
		if !ok {
			respond.Validation(w, r, nil, map[string]string{"role": "unknown role"})
			return
		}
		filters.Role = &role
	}

	result, err := h.users.List(r.Context(), sessionFrom(r), filters)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(result.Users))
	for _, user := range result.Users {
		out = append(out, newUserResponse(user))
	}
	respond.List(w, http.StatusOK, out, respond.Meta{Total: result.Total, Limit: filters.Limit, Offset: filters.Offset})
}

type updateUserRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	Role      *string `json:"role"`
	Password  *string `json:"password" validate:"omitempty,min=10"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := users.UpdateParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	}
	if req.Role != nil {
		role, ok := auth.NormalizeRole(*req.Role)
		if !ok {
			respond.Validation(w, r, nil, map[string]string{"role": "unknown role"})
			return
		}
		params.Role = &role
	}

	updated, err := h.users.Update(r.Context(), sessionFrom(r), actorFrom(r), id, params)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusOK, newUserResponse(*updated))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), sessionFrom(r), actorFrom(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
