package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bistro-suite/bistro/internal/finance/categories"
	"github.com/bistro-suite/bistro/internal/money"
	"github.com/bistro-suite/bistro/internal/platform/httpx"
	"github.com/bistro-suite/bistro/internal/shared"
)

const dateLayout = "2006-01-02"

// Handler wires ledger HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/summary", h.summary)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListRequest{
		Kind:         categories.Kind(q.Get("kind")),
		Counterparty: q.Get("counterparty"),
		Search:       q.Get("search"),
	}
	if req.Kind != "" && !req.Kind.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "kind must be REVENUE or EXPENSE")
		return
	}
	var err error
	if req.DateStart, err = parseDateParam(r, "dateStart"); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dateStart must be YYYY-MM-DD")
		return
	}
	if req.DateEnd, err = parseDateParam(r, "dateEnd"); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dateEnd must be YYYY-MM-DD")
		return
	}
	if raw := q.Get("categoryId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid categoryId")
			return
		}
		req.CategoryID = &id
	}
	req.Page, req.PerPage = shared.PageFromRequest(r)

	result, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "dateStart")
	if err != nil || from == nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dateStart is required as YYYY-MM-DD")
		return
	}
	to, err := parseDateParam(r, "dateEnd")
	if err != nil || to == nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dateEnd is required as YYYY-MM-DD")
		return
	}
	sum, err := h.service.Summary(r.Context(), *from, *to)
	if err != nil {
		h.logger.Error("ledger summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

type entryRequest struct {
	Kind         categories.Kind `json:"kind" validate:"required,oneof=REVENUE EXPENSE"`
	Counterparty string          `json:"counterparty"`
	Description  string          `json:"description" validate:"required"`
	CategoryID   int64           `json:"categoryId" validate:"required,gt=0"`
	EmployeeName string          `json:"employeeName"`
	Date         string          `json:"date" validate:"required"`
	Amount       money.Money     `json:"amount"`
	Note         string          `json:"note"`
}

func (req *entryRequest) toInput() (EntryInput, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return EntryInput{}, ErrDateRequired
	}
	return EntryInput{
		Kind:         req.Kind,
		Counterparty: req.Counterparty,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		EmployeeName: req.EmployeeName,
		Date:         date,
		Amount:       req.Amount,
		Note:         req.Note,
	}, nil
}

func (h *Handler) respondEntryError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrDateRequired), errors.Is(err, ErrAmountRequired),
		errors.Is(err, ErrCategoryRequired), errors.Is(err, categories.ErrInvalidKind):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	entry, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondEntryError(w, "create entry", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondEntryError(w, "get entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	var req entryRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	entry, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.respondEntryError(w, "update entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondEntryError(w, "delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
