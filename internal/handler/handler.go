package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/teachhire/marketplace/backend/internal/config"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/hiring"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	engine     *hiring.Engine
	translator ut.Translator

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, engine *hiring.Engine) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		engine:     engine,
		translator: trans,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// signed by the payment processor, not by the identity provider
	h.Mux.Post("/payments/webhook", h.PaymentWebhook)

	// everything below requires an identity token
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Post("/accounts/me", h.EnsureMyAccount)

		// and a registered account
		r.Group(func(r chi.Router) {
			r.Use(h.account)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", h.GetMyAccount)
				r.Get("/stats", h.GetMyStats)
				r.With(h.RequiredRole(domain.RoleCandidate)).Put("/resume", h.SetMyResume)
				r.Get("/applications", h.GetMyApplications)
				r.Route("/notifications", func(r chi.Router) {
					r.Get("/", h.GetMyNotifications)
					r.Patch("/{id}/read", h.MarkNotificationRead)
				})
			})

			r.Route("/jobs", func(r chi.Router) {
				r.With(h.RequiredRole(domain.RoleInstitute)).Post("/", h.CreateJob)
				r.Get("/", h.GetActiveJobs)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.job)
					r.Get("/", h.GetJob)
					r.With(h.RequiredRole(domain.RoleInstitute)).Post("/publish", h.PublishJob)
					r.With(h.RequiredRole(domain.RoleInstitute)).Post("/close", h.CloseJob)
					r.With(h.RequiredRole(domain.RoleInstitute)).Get("/applications", h.GetJobApplications)
					r.With(h.RequiredRole(domain.RoleCandidate)).Post("/applications", h.ApplyToJob)
				})
			})

			r.Route("/applications/{id}", func(r chi.Router) {
				r.Get("/", h.GetApplication)
				r.With(h.RequiredRole(domain.RoleInstitute)).Patch("/status", h.UpdateApplicationStatus)
				r.With(h.RequiredRole(domain.RoleCandidate)).Delete("/", h.WithdrawApplication)
			})
		})
	})
}
