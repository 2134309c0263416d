package categories

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bistro-suite/bistro/internal/platform/httpx"
)

// Handler wires category HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers category routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/tree", h.tree)
	r.Post("/", h.create)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Category{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	roots, err := h.service.Tree(r.Context())
	if err != nil {
		h.logger.Error("category tree", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if roots == nil {
		roots = []*Node{}
	}
	httpx.JSON(w, http.StatusOK, roots)
}

type createRequest struct {
	Name     string `json:"name" validate:"required"`
	Kind     Kind   `json:"kind" validate:"required,oneof=REVENUE EXPENSE"`
	ParentID *int64 `json:"parentId"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	cat, err := h.service.Create(r.Context(), CreateInput{Name: req.Name, Kind: req.Kind, ParentID: req.ParentID})
	if err != nil {
		switch {
		case errors.Is(err, ErrParentNotFound), errors.Is(err, ErrInvalidKind):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		default:
			h.logger.Error("create category", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, cat)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid category id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.RespondError(w, httpx.ErrNotFound)
		case errors.Is(err, ErrHasChildren), errors.Is(err, ErrInUse):
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
		default:
			h.logger.Error("delete category", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
