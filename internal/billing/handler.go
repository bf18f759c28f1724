// AngelaMos | 2026
// handler.go

package billing

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/journal/internal/core"
	"github.com/carterperez-dev/journal/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/get-subscription-status", h.GetSubscriptionStatus)
		r.Post("/switch-tier", h.SwitchTier)
	})
}

func (h *Handler) GetSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	email := middleware.GetUserEmail(r.Context())

	status, err := h.service.Status(r.Context(), email)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, status)
}

func (h *Handler) SwitchTier(w http.ResponseWriter, r *http.Request) {
	email := middleware.GetUserEmail(r.Context())

	var req SwitchTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, "invalid action specified")
		return
	}

	resp, err := h.service.SwitchTier(r.Context(), email, req.Action)
	if err != nil {
		core.JSONError(w, switchTierError(err))
		return
	}

	core.OK(w, resp)
}
