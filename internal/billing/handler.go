package billing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bistro-suite/bistro/internal/money"
	"github.com/bistro-suite/bistro/internal/platform/httpx"
	"github.com/bistro-suite/bistro/internal/shared"
)

// Handler wires billing HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountTableRoutes registers the table-scoped routes.
func (h *Handler) MountTableRoutes(r chi.Router) {
	r.Get("/", h.listTables)
	r.Post("/{id}/settle", h.settle)
	r.Post("/{id}/settle/preview", h.preview)
}

// MountSettlementRoutes registers the settlement listing routes.
func (h *Handler) MountSettlementRoutes(r chi.Router) {
	r.Get("/", h.listSettlements)
}

type paymentRequest struct {
	Method string      `json:"method" validate:"required"`
	Amount money.Money `json:"amount"`
}

type settleRequest struct {
	DiscountType    DiscountType     `json:"discountType" validate:"omitempty,oneof=NONE PERCENTAGE ABSOLUTE"`
	DiscountPercent float64          `json:"discountPercent"`
	DiscountAmount  money.Money      `json:"discountAmount"`
	ChargeFee       *bool            `json:"chargeFee"`
	FeeRate         *float64         `json:"feeRate" validate:"omitempty,gte=0"`
	WaiterID        *int64           `json:"waiterId"`
	Payments        []paymentRequest `json:"payments" validate:"dive"`
}

func (req *settleRequest) toInput() SettleInput {
	in := SettleInput{
		Discount: DiscountSpec{
			Type:    req.DiscountType,
			Percent: req.DiscountPercent,
			Amount:  req.DiscountAmount,
		},
		ChargeFee:       true,
		FeeRateOverride: req.FeeRate,
		WaiterID:        req.WaiterID,
	}
	if in.Discount.Type == "" {
		in.Discount.Type = DiscountNone
	}
	if req.ChargeFee != nil {
		in.ChargeFee = *req.ChargeFee
	}
	for _, p := range req.Payments {
		in.Payments = append(in.Payments, Payment{Method: p.Method, Amount: p.Amount})
	}
	return in
}

func (h *Handler) respondBillingError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrTableNotFound), errors.Is(err, ErrSettlementNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrInvalidDiscount), errors.Is(err, ErrNegativePayment):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrInsufficientPayment), errors.Is(err, ErrNothingToSettle):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Cannot Settle", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func tableID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.service.Tables(r.Context())
	if err != nil {
		h.logger.Error("list tables", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if tables == nil {
		tables = []Table{}
	}
	httpx.JSON(w, http.StatusOK, tables)
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	id, err := tableID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid table id")
		return
	}
	var req settleRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	settlement, err := h.service.SettleTable(r.Context(), id, req.toInput())
	if err != nil {
		h.respondBillingError(w, "settle table", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, settlement)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	id, err := tableID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid table id")
		return
	}
	var req settleRequest
	if err := httpx.DecodeValid(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	bill, err := h.service.Preview(r.Context(), id, req.toInput())
	if err != nil {
		h.respondBillingError(w, "preview settlement", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) listSettlements(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageFromRequest(r)
	result, err := h.service.ListSettlements(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list settlements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
