package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/meeting-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/meeting-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Handler     *Handler
	Verifier    httpmw.Verifier
	WS          *ws.Server
	CORSOrigins []string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(httpmw.Trace)
	r.Use(httpmw.WithRequestLogger)
	r.Use(httpmw.RequestLogger)
	r.Use(middlewareChi.Recoverer)
	r.Use(httpmw.Metrics)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	h := d.Handler

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ice-servers", h.ICEServers)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.Authenticate(d.Verifier))

		// WS без Timeout: соединение живёт дольше запроса
		if d.WS != nil {
			pr.Get("/ws/meetings/{token}", d.WS.HandleWS)
		}

		pr.Group(func(api chi.Router) {
			api.Use(middlewareChi.Timeout(30 * time.Second))

			api.Put("/users/me", h.SyncProfile)

			api.Route("/meetings", func(rm chi.Router) {
				rm.Post("/", h.CreateMeeting)

				rm.Route("/{token}", func(rr chi.Router) {
					rr.Get("/", h.GetMeeting)
					rr.Post("/join", h.Join)
					rr.Post("/leave", h.Leave)
					rr.Post("/end", h.EndMeeting)
					rr.Get("/participants", h.ListParticipants)
					rr.Patch("/media", h.UpdateMedia)
					rr.Post("/signals", h.SendSignal)
					rr.Get("/signals", h.FetchSignals)
					rr.Post("/signals/prune", h.PruneSignals)
				})
			})
		})
	})

	return r
}
