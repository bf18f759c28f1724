// AngelaMos | 2026
// handler.go

package entry

import (
	"encoding/json"
	"errors"
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

// RegisterRoutes mounts the entry endpoints. Authentication wraps each
// endpoint rather than the router so unsupported methods answer 405 first.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	createQuota func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.With(createQuota).Post("/create-entry", h.CreateEntry)
		r.Get("/get-entries", h.GetEntries)
		r.Get("/get-entry", h.GetEntry)
		r.Delete("/delete-entry", h.DeleteEntry)
	})
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserEmail(r.Context())

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	e, number, err := h.service.Create(r.Context(), owner, req.Text)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "text is required")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToCreateEntryResponse(e, number))
}

func (h *Handler) GetEntries(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserEmail(r.Context())

	items, err := h.service.List(r.Context(), owner)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToListEntriesResponse(items))
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserEmail(r.Context())

	id := r.URL.Query().Get("id")
	if id == "" {
		core.BadRequest(w, "id is required")
		return
	}

	e, number, err := h.service.Get(r.Context(), owner, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "entry")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToEntryResponse(e, number))
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetUserEmail(r.Context())

	var req DeleteEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.Delete(r.Context(), owner, req.Text); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "entry")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "Entry successfully deleted"})
}
