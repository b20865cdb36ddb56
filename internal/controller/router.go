package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func (c *Controller) Mux() http.Handler {
	r := chi.NewRouter()

	r.Use(c.requestIdMw)
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", c.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/queue", c.AddQueueVideo)
		r.Get("/queue", c.GetQueue)
		r.Delete("/queue", c.ClearQueue)
		r.Get("/rooms", c.ListRooms)
		r.Get("/search", c.SearchVideos)
		r.Get("/video/{id}", c.GetVideo)
	})

	r.HandleFunc("/ws", c.ServeWS)

	if c.publicDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(c.publicDir)))
	}

	return r
}
