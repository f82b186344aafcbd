package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-subscription-shop/internal/domain/model"
	"telegram-subscription-shop/internal/infra/i18n"
	"telegram-subscription-shop/internal/infra/metrics"
	"telegram-subscription-shop/internal/usecase"
)

// OfferLister exposes the catalog to the admin API.
type OfferLister interface {
	List() []model.SubscriptionOffer
	Currency() string
}

type Options struct {
	BotUsername    string
	RequestTimeout time.Duration
	// Auth enables the admin routes when non-nil.
	Auth *AuthManager
}

// Server serves the Robokassa callbacks, the greeting API and admin endpoints.
type Server struct {
	payUC       usecase.PaymentUseCase
	greetUC     usecase.GreetingUseCase
	offers      OfferLister
	tr          *i18n.Translator
	auth        *AuthManager
	botUsername string
	timeout     time.Duration
	log         *zerolog.Logger
}

func NewServer(payUC usecase.PaymentUseCase, greetUC usecase.GreetingUseCase, offers OfferLister, tr *i18n.Translator, opts Options, logger *zerolog.Logger) *Server {
	return &Server{
		payUC:       payUC,
		greetUC:     greetUC,
		offers:      offers,
		tr:          tr,
		auth:        opts.Auth,
		botUsername: strings.TrimPrefix(opts.BotUsername, "@"),
		timeout:     opts.RequestTimeout,
		log:         logger,
	}
}

// Router builds the chi router with the middleware chain applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/greetings", s.handleListGreetings)

		r.Route("/robokassa", func(r chi.Router) {
			r.Post("/result", s.handleResult)
			// Robokassa can be configured to use either method for the browser redirects.
			r.Get("/success", s.handleSuccess)
			r.Post("/success", s.handleSuccess)
			r.Get("/fail", s.handleFail)
			r.Post("/fail", s.handleFail)
		})

		if s.auth != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin(s.auth, s.log))
				r.Get("/offers", s.handleListOffers)
				r.Post("/payment-links", s.handleCreatePaymentLink)
			})
		}
	})

	return Chain(r,
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		Timeout(s.timeout),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
