package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xsync/server/internal/catalog"
	"github.com/xsync/server/internal/repository/queue"
	"github.com/xsync/server/pkg/rest"
)

const defaultSearchMaxResults = 10

func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"status": "ok"})
}

type addQueueVideoInput struct {
	Video struct {
		Id           string `json:"id" validate:"required"`
		Title        string `json:"title"`
		Thumbnail    string `json:"thumbnail"`
		ChannelTitle string `json:"channelTitle"`
	} `json:"video"`
}

func (c *Controller) AddQueueVideo(w http.ResponseWriter, r *http.Request) {
	var req addQueueVideoInput

	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.InfoContext(r.Context(), "failed to read queue video body", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		c.logger.InfoContext(r.Context(), "queue video validation failed", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	videos := c.queueRepo.Add(queue.Video{
		Id:           req.Video.Id,
		Title:        req.Video.Title,
		Thumbnail:    req.Video.Thumbnail,
		ChannelTitle: req.Video.ChannelTitle,
	})

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"success": true, "queue": videos})
}

func (c *Controller) GetQueue(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, c.queueRepo.List())
}

func (c *Controller) ClearQueue(w http.ResponseWriter, r *http.Request) {
	c.queueRepo.Clear()
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"success": true})
}

func (c *Controller) ListRooms(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, c.roomService.List(r.Context()))
}

func (c *Controller) SearchVideos(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "Search query is required"})
		return
	}

	maxResults := defaultSearchMaxResults
	if raw := r.URL.Query().Get("maxResults"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			maxResults = parsed
		}
	}

	videos, err := c.catalog.Search(r.Context(), query, maxResults)
	if err != nil {
		c.logger.ErrorContext(r.Context(), "catalog search failed", "query", query, "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "Failed to fetch videos"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, videos)
}

func (c *Controller) GetVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	details, err := c.catalog.Video(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrVideoNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "Video not found"})
			return
		}

		c.logger.ErrorContext(r.Context(), "catalog video lookup failed", "video_id", id, "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "Failed to fetch video details"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, details)
}
