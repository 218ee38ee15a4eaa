package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

type RouteOptions struct {
	APIToken      string
	RatePerMinute int
}

func RegisterRoutes(
	r chi.Router,
	hExtract *ExtractHandler,
	hList *ExtractionsHandler,
	opts RouteOptions,
) {
	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Group(func(pr chi.Router) {
		pr.Use(
			httputil.RecoverMiddleware,
			AuthMiddleware(opts.APIToken),
		)

		// --- извлечение ---
		if opts.RatePerMinute > 0 {
			pr.With(httprate.LimitByIP(opts.RatePerMinute, time.Minute)).
				Post("/extract-text", hExtract.Extract)
		} else {
			pr.Post("/extract-text", hExtract.Extract)
		}

		// --- журнал ---
		pr.Get("/extractions", hList.List)
	})
}
