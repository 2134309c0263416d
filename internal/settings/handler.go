package settings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bistro-suite/bistro/internal/platform/httpx"
)

// Handler wires settings HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/", h.update)
}

type settingsResponse struct {
	ServiceFeeRate float64 `json:"serviceFeeRate"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rate, err := h.service.ServiceFeeRate(r.Context())
	if err != nil {
		h.logger.Error("load settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settingsResponse{ServiceFeeRate: rate})
}

type updateRequest struct {
	ServiceFeeRate float64 `json:"serviceFeeRate" validate:"gte=0,lte=100"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SetServiceFeeRate(r.Context(), req.ServiceFeeRate); err != nil {
		if errors.Is(err, ErrInvalidRate) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("update settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settingsResponse{ServiceFeeRate: req.ServiceFeeRate})
}
