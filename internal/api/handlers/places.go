package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/terrastories/server/internal/api/respond"
	"github.com/terrastories/server/internal/domain/places"
)

type PlaceHandler struct {
	places *places.Service
}

func NewPlaceHandler(service *places.Service) *PlaceHandler {
	return &PlaceHandler{places: service}
}

type placeResponse struct {
	ID          uuid.UUID `json:"id"`
	CommunityID uuid.UUID `json:"communityId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Region      string    `json:"region,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newPlaceResponse(p places.Place) placeResponse {
	return placeResponse{
		ID:          p.ID,
		CommunityID: p.CommunityID,
		Name:        p.Name,
		Description: p.Description,
		Region:      p.Region,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type createPlaceRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description string  `json:"description" validate:"max=10000"`
	Region      string  `json:"region" validate:"max=200"`
	Latitude    float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude   float64 `json:"longitude" validate:"min=-180,max=180"`
}

func (h *PlaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	communityID, ok := uuidParam(w, r, "communityId")
	if !ok {
		return
	}
	var req createPlaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.places.Create(r.Context(), sessionFrom(r), places.CreateParams{
		CommunityID: communityID,
		Name:        req.Name,
		Description: req.Description,
		Region:      req.Region,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusCreated, newPlaceResponse(created))
}

func (h *PlaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	place, err := h.places.Get(r.Context(), sessionFrom(r), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusOK, newPlaceResponse(*place))
}

func (h *PlaceHandler) List(w http.ResponseWriter, r *http.Request) {
	communityID, ok := uuidParam(w, r, "communityId")
	if !ok {
		return
	}
	filters := places.Filters{
		CommunityID: communityID,
		Query:       r.URL.Query().Get("q"),
		Region:      r.URL.Query().Get("region"),
		Limit:       queryInt(r, "limit", 50),
		Offset:      queryInt(r, "offset", 0),
	}
	result, err := h.places.List(r.Context(), sessionFrom(r), filters)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]placeResponse, 0, len(result.Places))
	for _, place := range result.Places {
		out = append(out, newPlaceResponse(place))
	}
	respond.List(w, http.StatusOK, out, respond.Meta{Total: result.Total, Limit: filters.Limit, Offset: filters.Offset})
}

type updatePlaceRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=10000"`
	Region      *string  `json:"region" validate:"omitempty,max=200"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

func (h *PlaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req updatePlaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.places.Update(r.Context(), sessionFrom(r), id, places.UpdateParams{
		Name:        req.Name,
		Description: req.Description,
		Region:      req.Region,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusOK, newPlaceResponse(*updated))
}

func (h *PlaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.places.Delete(r.Context(), sessionFrom(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
