package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/terrastories/server/internal/api/respond"
	"github.com/terrastories/server/internal/domain/communities"
	"github.com/terrastories/server/internal/domain/stories"
)

type StoryHandler struct {
	stories     *stories.Service
	communities *communities.Service
}

func NewStoryHandler(storyService *stories.Service, communityService *communities.Service) *StoryHandler {
	return &StoryHandler{stories: storyService, communities: communityService}
}

type storyResponse struct {
	ID          uuid.UUID   `json:"id"`
	ULID        string      `json:"ulid"`
	CommunityID uuid.UUID   `json:"communityId"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Language    string      `json:"language"`
	HasMedia    bool        `json:"hasMedia"`
	SpeakerIDs  []uuid.UUID `json:"speakerIds"`
	PlaceIDs    []uuid.UUID `json:"placeIds"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func newStoryResponse(s stories.Story) storyResponse {
	return storyResponse{
		ID:          s.ID,
		ULID:        s.ULID,
		CommunityID: s.CommunityID,
		Title:       s.Title,
		Description: s.Description,
		Language:    s.Language,
		HasMedia:    s.MediaPath != "",
		SpeakerIDs:  s.SpeakerIDs,
		PlaceIDs:    s.PlaceIDs,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

type createStoryRequest struct {
	Title       string      `json:"title" validate:"required,min=1,max=300"`
	Description string      `json:"description" validate:"max=10000"`
	Language    string      `json:"language" validate:"max=50"`
	SpeakerIDs  []uuid.UUID `json:"speakerIds"`
	PlaceIDs    []uuid.UUID `json:"placeIds"`
}

func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	communityID, ok := uuidParam(w, r, "communityId")
	if !ok {
		return
	}
	var req createStoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.stories.Create(r.Context(), sessionFrom(r), stories.CreateParams{
		CommunityID: communityID,
		Title:       req.Title,
		Description: req.Description,
		Language:    req.Language,
		SpeakerIDs:  req.SpeakerIDs,
		PlaceIDs:    req.PlaceIDs,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusCreated, newStoryResponse(created))
}

func (h *StoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ulid, ok := ulidParam(w, r, "ulid")
	if !ok {
		return
	}
	story, err := h.stories.Get(r.Context(), sessionFrom(r), ulid)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusOK, newStoryResponse(*story))
}

func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	communityID, ok := uuidParam(w, r, "communityId")
	if !ok {
		return
	}
	h.list(w, r, communityID)
}

// ListPublic serves the anonymous read-only surface, addressing the
// community by slug.
func (h *StoryHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	community, err := h.communities.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.list(w, r, community.ID)
}

func (h *StoryHandler) list(w http.ResponseWriter, r *http.Request, communityID uuid.UUID) {
	filters := stories.Filters{
		CommunityID: communityID,
		Query:       r.URL.Query().Get("q"),
		Language:    r.URL.Query().Get("language"),
		Limit:       queryInt(r, "limit", 50),
		Offset:      queryInt(r, "offset", 0),
	}
	result, err := h.stories.List(r.Context(), sessionFrom(r), filters)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]storyResponse, 0, len(result.Stories))
	for _, story := range result.Stories {
		out = append(out, newStoryResponse(story))
	}
	respond.List(w, http.StatusOK, out, respond.Meta{Total: result.Total, Limit: filters.Limit, Offset: filters.Offset})
}

type updateStoryRequest struct {
	Title       *string      `json:"title" validate:"omitempty,min=1,max=300"`
	Description *string      `json:"description" validate:"omitempty,max=10000"`
	Language    *string      `json:"language" validate:"omitempty,max=50"`
	SpeakerIDs  *[]uuid.UUID `json:"speakerIds"`
	PlaceIDs    *[]uuid.UUID `json:"placeIds"`
}

func (h *StoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	ulid, ok := ulidParam(w, r, "ulid")
	if !ok {
		return
	}
	var req updateStoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.stories.Update(r.Context(), sessionFrom(r), ulid, stories.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Language:    req.Language,
		SpeakerIDs:  req.SpeakerIDs,
		PlaceIDs:    req.PlaceIDs,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respond.Data(w, http.StatusOK, newStoryResponse(*updated))
}

func (h *StoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ulid, ok := ulidParam(w, r, "ulid")
	if !ok {
		return
	}
	if _, err := h.stories.Delete(r.Context(), sessionFrom(r), ulid); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
