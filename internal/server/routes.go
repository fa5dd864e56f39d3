package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"buybox_tracker/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) {
	r.Route("/", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/tracker", func(r chi.Router) {
				r.Post("/start", handler(s.postV1TrackerStart))
				r.Post("/stop", handler(s.postV1TrackerStop))
				r.Get("/status", handler(s.getV1TrackerStatus))
				r.Post("/subjects/{subjectID}/run", handler(s.postV1TrackerRun))
			})

			r.Route("/subjects/{subjectID}", func(r chi.Router) {
				r.Route("/sellers", func(r chi.Router) {
					r.Get("/", handler(s.getV1Sellers))
					r.Post("/", handler(s.postV1Seller))
					r.Delete("/{sellerID}", handler(s.deleteV1Seller))
				})

				r.Route("/items", func(r chi.Router) {
					r.Get("/", handler(s.getV1Items))
					r.Post("/", handler(s.postV1Item))
					r.Delete("/{itemID}", handler(s.deleteV1Item))
				})

				r.Get("/sales", handler(s.getV1Sales))
				r.Put("/webhook", handler(s.putV1Webhook))
			})
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, err)
		}
	}
}
