package contact

import (
	"net/http"

	"github.com/dalemusser/contactsection/middleware"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the page and API routes on r. apiMW (typically CORS) wraps
// only the /api/contact group.
func Routes(r chi.Router, h *Handler, apiMW ...func(http.Handler) http.Handler) {
	r.Get("/", h.ShowPage)
	r.Get("/contact", h.ShowPage)
	r.With(middleware.RequireContentType(middleware.MediaForm)).Post("/contact", h.SubmitForm)

	r.Route("/api/contact", func(r chi.Router) {
		r.Use(apiMW...)
		r.With(middleware.RequireContentType(middleware.MediaJSON)).Post("/", h.SubmitJSON)
		r.Get("/channels", h.ListChannels)
	})
}
