package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/terrastories/server/internal/api/respond"
	"github.com/terrastories/server/internal/domain/communities"
)

type CommunityHandler struct {
	communities *communities.Service
}

func NewCommunityHandler(service *communities.Service) *CommunityHandler {
	return &CommunityHandler{communities: service}
}

type communityResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Locale        string    `json:"locale"`
	PublicStories bool      `json:"publicStories"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func newCommunityResponse(c communities.Community) communityResponse {
	return communityResponse{
		ID:            c.ID,
		Name:          c.Name,
		Slug:          c.Slug,
		Locale:        c.Locale,
		PublicStories: c.PublicStories,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type createCommunityRequest struct {
	Name          string `json:"name" validate:"required,min=1,max=200"`
	Slug          string `json:"slug" validate:"required,min=1,max=100"`
	Locale        string `json:"locale" validate:"omitempty,bcp47_language_tag"`
	PublicStories bool   `json:"publicStories"`
}

func (h *CommunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCommunityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.communities.Create(r.Context(), sessionFrom(r), actorFrom(r), communities.CreateParams{
		Name:          req.Name,
		Slug:          req.Slug,
		Locale:        req.Locale,
		PublicStories: req.PublicStories,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusCreated, newCommunityResponse(created))
}

func (h *CommunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	community, err := h.communities.Get(r.Context(), sessionFrom(r), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusOK, newCommunityResponse(*community))
}

func (h *CommunityHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := communities.Filters{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	result, err := h.communities.List(r.Context(), sessionFrom(r), filters)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]communityResponse, 0, len(result.Communities))
	for _, community := range result.Communities {
		out = append(out, newCommunityResponse(community))
	}
	respond.List(w, http.StatusOK, out, respond.Meta{Total: result.Total, Limit: filters.Limit, Offset: filters.Offset})
}

type updateCommunityRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=200"`
	Locale        *string `json:"locale" validate:"omitempty,bcp47_language_tag"`
	PublicStories *bool   `json:"publicStories"`
	IsActive      *bool   `json:"isActive"`
}

func (h *CommunityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req updateCommunityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.communities.Update(r.Context(), sessionFrom(r), actorFrom(r), id, communities.UpdateParams{
		Name:          req.Name,
		Locale:        req.Locale,
		PublicStories: req.PublicStories,
		IsActive:      req.IsActive,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusOK, newCommunityResponse(*updated))
}

func (h *CommunityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.communities.Delete(r.Context(), sessionFrom(r), actorFrom(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
