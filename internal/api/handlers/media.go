package handlers

import (
	"io"
	"net/http"
	"path"
	"strconv"

	"github.com/terrastories/server/internal/api/respond"
	"github.com/terrastories/server/internal/domain/stories"
	"github.com/terrastories/server/internal/media"
)

// MediaHandler serves story media. Authorization rides on the story
// service: whoever may read or write the story may read or write its file.
type MediaHandler struct {
	stories *stories.Service
	media   *media.Service
}

func NewMediaHandler(storyService *stories.Service, mediaService *media.Service) *MediaHandler {
	return &MediaHandler{stories: storyService, media: mediaService}
}

// Upload accepts a multipart form with a single "file" field and attaches
// it to the story.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ulid, ok := ulidParam(w, r, "ulid")
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Validation(w, r, err, map[string]string{"file": "multipart file field is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(w, r, http.StatusRequestEntityTooLarge, "file too large", err, nil)
		return
	}

	filename := path.Base(header.Filename)
	if filename == "" || filename == "." || filename == "/" {
		respond.Validation(w, r, nil, map[string]string{"file": "filename is required"})
		return
	}
	mediaPath := path.Join("stories", ulid, filename)

	// Write guard first so unauthorized callers cannot fill the disk.
	story, err := h.stories.Get(r.Context(), sessionFrom(r), ulid)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if _, err := h.stories.SetMediaPath(r.Context(), sessionFrom(r), ulid, mediaPath); err != nil {
		writeDomainError(w, r, err)
		return
	}

	stored, err := h.media.Upload(r.Context(), mediaPath, data)
	if err != nil {
		// Roll the pointer back so the story does not reference a file that
		// was never written.
		_, _ = h.stories.SetMediaPath(r.Context(), sessionFrom(r), ulid, story.MediaPath)
		respond.Internal(w, r, err)
		return
	}

	respond.Data(w, http.StatusCreated, map[string]any{
		"ulid":      ulid,
		"mediaPath": stored,
		"size":      len(data),
	})
}

func (h *MediaHandler) Download(w http.ResponseWriter, r *http.Request) {
	ulid, ok := ulidParam(w, r, "ulid")
	if !ok {
		return
	}

	story, err := h.stories.Get(r.Context(), sessionFrom(r), ulid)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if story.MediaPath == "" {
		respond.NotFound(w, r, nil)
		return
	}

	meta, err := h.media.Metadata(r.Context(), story.MediaPath)
	if err == nil && meta.ETag != "" {
		if r.Header.Get("If-None-Match") == `"`+meta.ETag+`"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"`+meta.ETag+`"`)
	}

	data, err := h.media.Download(r.Context(), story.MediaPath)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ulid, ok := ulidParam(w, r, "ulid")
	if !ok {
		return
	}

	story, err := h.stories.Get(r.Context(), sessionFrom(r), ulid)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if story.MediaPath == "" {
		respond.NotFound(w, r, nil)
		return
	}

	// Detaching runs through the write guard before anything is removed.
	if _, err := h.stories.SetMediaPath(r.Context(), sessionFrom(r), ulid, ""); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.media.Delete(r.Context(), story.MediaPath); err != nil {
		respond.Internal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
