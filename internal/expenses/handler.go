package expenses

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/caudal-erp/caudal-erp/internal/platform/httpx"
	"github.com/caudal-erp/caudal-erp/internal/shared"
)

// Handler exposes the expense lifecycle over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes attaches expense routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/pay", h.pay)
	r.Post("/{id}/cancel", h.cancel)
}

type expenseRequest struct {
	Category     string  `json:"category" validate:"required"`
	SupplierID   *int64  `json:"supplier_id,omitempty" validate:"omitempty,gt=0"`
	AccountID    int64   `json:"account_id" validate:"required,gt=0"`
	CostCenterID *int64  `json:"cost_center_id,omitempty" validate:"omitempty,gt=0"`
	Description  string  `json:"description" validate:"max=500"`
	Subtotal     float64 `json:"subtotal" validate:"gte=0"`
	TaxRate      float64 `json:"tax_rate" validate:"gte=0,lte=100"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []Expense{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	expense, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeExpense(w, r)
	if !ok {
		return
	}
	expense, err := h.service.Create(r.Context(), CreateInput{
		Category:     Category(req.Category),
		SupplierID:   req.SupplierID,
		AccountID:    req.AccountID,
		CostCenterID: req.CostCenterID,
		Description:  req.Description,
		Subtotal:     decimal.NewFromFloat(req.Subtotal),
		TaxRate:      decimal.NewFromFloat(req.TaxRate),
		CreatedBy:    shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, expense)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeExpense(w, r)
	if !ok {
		return
	}
	expense, err := h.service.Update(r.Context(), UpdateInput{
		ID:           id,
		Category:     Category(req.Category),
		SupplierID:   req.SupplierID,
		AccountID:    req.AccountID,
		CostCenterID: req.CostCenterID,
		Description:  req.Description,
		Subtotal:     decimal.NewFromFloat(req.Subtotal),
		TaxRate:      decimal.NewFromFloat(req.TaxRate),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Approve)
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Pay)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) (Expense, error)) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	expense, err := fn(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) decodeExpense(w http.ResponseWriter, r *http.Request) (expenseRequest, bool) {
	var req expenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return expenseRequest{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return expenseRequest{}, false
	}
	return req, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
