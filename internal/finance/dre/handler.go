package dre

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bistro-suite/bistro/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Handler wires the comparison endpoint.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers DRE routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/compare", h.compare)
}

type periodRequest struct {
	Label       string  `json:"label" validate:"required"`
	DateStart   string  `json:"dateStart" validate:"required"`
	DateEnd     string  `json:"dateEnd" validate:"required"`
	CategoryIDs []int64 `json:"categoryIds"`
}

type compareRequest struct {
	Periods []periodRequest `json:"periods" validate:"required,min=1,max=4,dive"`
}

func (h *Handler) compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	periods := make([]Period, len(req.Periods))
	for i, p := range req.Periods {
		start, err := time.Parse(dateLayout, p.DateStart)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dateStart must be YYYY-MM-DD")
			return
		}
		end, err := time.Parse(dateLayout, p.DateEnd)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dateEnd must be YYYY-MM-DD")
			return
		}
		periods[i] = Period{Label: p.Label, DateStart: start, DateEnd: end, CategoryIDs: p.CategoryIDs}
	}

	result, err := h.service.Compare(r.Context(), periods)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDateRange), errors.Is(err, ErrNoPeriods):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		default:
			h.logger.Error("dre compare", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
