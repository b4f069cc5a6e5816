package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/terrastories/server/internal/api/respond"
	"github.com/terrastories/server/internal/domain/speakers"
)

type SpeakerHandler struct {
	speakers *speakers.Service
}

func NewSpeakerHandler(service *speakers.Service) *SpeakerHandler {
	return &SpeakerHandler{speakers: service}
}

type speakerResponse struct {
	ID           uuid.UUID  `json:"id"`
	CommunityID  uuid.UUID  `json:"communityId"`
	Name         string     `json:"name"`
	Birthdate    *time.Time `json:"birthdate,omitempty"`
	BirthplaceID *uuid.UUID `json:"birthplaceId,omitempty"`
	PhotoPath    string     `json:"photoPath,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func newSpeakerResponse(s speakers.Speaker) speakerResponse {
	return speakerResponse{
		ID:           s.ID,
		CommunityID:  s.CommunityID,
		Name:         s.Name,
		Birthdate:    s.Birthdate,
		BirthplaceID: s.BirthplaceID,
		PhotoPath:    s.PhotoPath,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

type createSpeakerRequest struct {
	Name         string     `json:"name" validate:"required,min=1,max=200"`
	Birthdate    *time.Time `json:"birthdate"`
	BirthplaceID *uuid.UUID `json:"birthplaceId"`
}

func (h *SpeakerHandler) Create(w http.ResponseWriter, r *http.Request) {
	communityID, ok := uuidParam(w, r, "communityId")
	if !ok {
		return
	}
	var req createSpeakerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.speakers.Create(r.Context(), sessionFrom(r), speakers.CreateParams{
		CommunityID:  communityID,
		Name:         req.Name,
		Birthdate:    req.Birthdate,
		BirthplaceID: req.BirthplaceID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusCreated, newSpeakerResponse(created))
}

func (h *SpeakerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	speaker, err := h.speakers.Get(r.Context(), sessionFrom(r), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusOK, newSpeakerResponse(*speaker))
}

func (h *SpeakerHandler) List(w http.ResponseWriter, r *http.Request) {
	communityID, ok := uuidParam(w, r, "communityId")
	if !ok {
		return
	}
	filters := speakers.Filters{
		CommunityID: communityID,
		Query:       r.URL.Query().Get("q"),
		Limit:       queryInt(r, "limit", 50),
		Offset:      queryInt(r, "offset", 0),
	}
	result, err := h.speakers.List(r.Context(), sessionFrom(r), filters)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]speakerResponse, 0, len(result.Speakers))
	for _, speaker := range result.Speakers {
		out = append(out, newSpeakerResponse(speaker))
	}
	respond.List(w, http.StatusOK, out, respond.Meta{Total: result.Total, Limit: filters.Limit, Offset: filters.Offset})
}

type updateSpeakerRequest struct {
	Name         *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Birthdate    *time.Time `json:"birthdate"`
	BirthplaceID *uuid.UUID `json:"birthplaceId"`
}

func (h *SpeakerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req updateSpeakerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.speakers.Update(r.Context(), sessionFrom(r), id, speakers.UpdateParams{
		Name:         req.Name,
		Birthdate:    req.Birthdate,
		BirthplaceID: req.BirthplaceID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusOK, newSpeakerResponse(*updated))
}

func (h *SpeakerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.speakers.Delete(r.Context(), sessionFrom(r), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
