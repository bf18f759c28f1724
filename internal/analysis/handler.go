// AngelaMos | 2026
// handler.go

package analysis

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/journal/internal/core"
	"github.com/carterperez-dev/journal/internal/middleware"
)

type Handler struct {
	service   *Service
	revealer  *Revealer
	validator *validator.Validate
}

func NewHandler(service *Service, revealer *Revealer) *Handler {
	return &Handler{
		service:   service,
		revealer:  revealer,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	quota func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.With(quota).Post("/analyze", h.Analyze)
		r.With(quota).Post("/analyze/stream", h.AnalyzeStream)
	})
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	res, ok := h.analyze(w, r)
	if !ok {
		return
	}

	core.OK(w, ToAnalyzeResponse(res))
}

// AnalyzeStream sends the reply as chunk events followed by a done event
// carrying the full response. A client that goes away ends the stream with
// whatever was already sent.
func (h *Handler) AnalyzeStream(w http.ResponseWriter, r *http.Request) {
	res, ok := h.analyze(w, r)
	if !ok {
		return
	}

	events := newEventWriter(w)

	revealed, err := h.revealer.Reveal(r.Context(), res.Reply, func(chunk string) error {
		return events.Send("chunk", chunkEvent{Text: chunk})
	})
	if err != nil {
		slog.DebugContext(r.Context(), "analysis stream stopped early",
			"error", err,
			"revealed", len(revealed),
			"total", len(res.Reply),
			"request_id", middleware.GetRequestID(r.Context()),
		)
		return
	}

	if err := events.Send("done", ToAnalyzeResponse(res)); err != nil {
		slog.DebugContext(r.Context(), "analysis stream done event failed", "error", err)
	}
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) (*Result, bool) {
	owner := middleware.GetUserEmail(r.Context())

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return nil, false
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return nil, false
	}

	res, err := h.service.Analyze(r.Context(), owner, req.Messages, req.UserMessage)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid request body")
			return nil, false
		}
		core.InternalServerError(w, err)
		return nil, false
	}

	return res, true
}
