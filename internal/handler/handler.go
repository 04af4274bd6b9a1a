package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/autoclose"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/config"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/domain"
	"github.com/sysu-ecnc-dev/attendance/backend/internal/repository"
)

type Recomputer interface {
	Recompute(ctx context.Context, shiftID int64) (*domain.Shift, error)
}

type AutoCloser interface {
	Run(ctx context.Context) (*autoclose.Report, error)
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	translator ut.Translator
	recomputer Recomputer
	autoCloser AutoCloser
	location   *time.Location

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, recomputer Recomputer, autoCloser AutoCloser, loc *time.Location) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		recomputer: recomputer,
		autoCloser: autoCloser,
		location:   loc,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Handle("/metrics", promhttp.Handler())

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	adminOnly := h.RequiredRole([]domain.Role{domain.RoleAdmin})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.With(h.myInfo).Get("/my-info", h.GetMyInfo)

		r.Route("/employees", func(r chi.Router) {
			r.With(adminOnly).Post("/", h.CreateEmployee)
			r.Get("/", h.GetAllEmployees)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.employee)
				r.Get("/", h.GetEmployee)
				r.With(adminOnly).Patch("/", h.UpdateEmployee)
			})
		})

		r.Route("/policies", func(r chi.Router) {
			r.With(adminOnly).Post("/", h.CreatePolicy)
			r.Get("/", h.GetAllPolicies)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.policy)
				r.Get("/", h.GetPolicy)
				r.With(adminOnly).Patch("/", h.UpdatePolicy)
			})
		})

		r.Route("/plan-templates", func(r chi.Router) {
			r.With(adminOnly).Post("/", h.CreatePlanTemplate)
			r.Get("/", h.GetAllPlanTemplates)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.planTemplate)
				r.Get("/", h.GetPlanTemplate)
				r.With(adminOnly).Delete("/", h.DeletePlanTemplate)
			})
		})

		r.Post("/clock-events", h.RecordClockEvent)

		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.GetShifts)
			r.Get("/export", h.ExportShifts)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftID)
				r.Get("/", h.GetShift)
				r.Post("/recompute", h.RecomputeShift)
				r.Get("/clock-events", h.GetShiftClockEvents)
			})
		})

		r.With(adminOnly).Post("/auto-close/run", h.RunAutoClose)
	})
}
