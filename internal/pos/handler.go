package pos

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/caudal-erp/caudal-erp/internal/platform/httpx"
	"github.com/caudal-erp/caudal-erp/internal/shared"
)

// Handler exposes POS sessions over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes attaches POS session routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sessions", h.open)
	r.Get("/sessions/current", h.current)
	r.Get("/sessions/{id}", h.get)
	r.Post("/sessions/{id}/close", h.close)
	r.Post("/sessions/{id}/movements", h.movement)
	r.Post("/sessions/{id}/sales", h.sale)
	r.Post("/sessions/{id}/refunds", h.refund)
	r.Get("/sessions/{id}/report", h.report)
}

type openSessionRequest struct {
	RegisterID    int64   `json:"register_id" validate:"required,gt=0"`
	OpeningAmount float64 `json:"opening_amount" validate:"gte=0"`
	Notes         string  `json:"notes" validate:"max=500"`
}

type movementRequest struct {
	Action    string  `json:"action" validate:"required,oneof=CASH_IN CASH_OUT"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Reference string  `json:"reference" validate:"max=100"`
	Notes     string  `json:"notes" validate:"max=500"`
}

type saleRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=CASH CREDIT_CARD DEBIT_CARD TRANSFER OTHER"`
	Reference     string  `json:"reference" validate:"max=100"`
}

type closeSessionRequest struct {
	DeclaredAmount float64 `json:"declared_amount" validate:"gte=0"`
	Notes          string  `json:"notes" validate:"max=500"`
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, err := h.service.OpenSession(r.Context(), OpenInput{
		RegisterID:    req.RegisterID,
		OpeningAmount: req.OpeningAmount,
		UserID:        shared.ActorFromContext(r.Context()),
		Notes:         req.Notes,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, session)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.CurrentSession(r.Context(), shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if session == nil {
		httpx.JSON(w, http.StatusOK, map[string]any{"session": nil})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"session": session})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	session, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, session)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req closeSessionRequest
	if !h.decode(w, r, &req) {
		return
	}
	session, err := h.service.CloseSession(r.Context(), CloseInput{
		SessionID:      id,
		DeclaredAmount: req.DeclaredAmount,
		UserID:         shared.ActorFromContext(r.Context()),
		Notes:          req.Notes,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, session)
}

func (h *Handler) movement(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req movementRequest
	if !h.decode(w, r, &req) {
		return
	}
	movement, err := h.service.RegisterCashMovement(r.Context(), MovementInput{
		SessionID: id,
		Action:    MovementType(req.Action),
		Amount:    req.Amount,
		Reference: req.Reference,
		Notes:     req.Notes,
		ActorID:   shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) sale(w http.ResponseWriter, r *http.Request) {
	h.recordSale(w, r, h.service.RecordSale)
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	h.recordSale(w, r, h.service.RecordRefund)
}

func (h *Handler) recordSale(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, in SaleInput) (Movement, error)) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req saleRequest
	if !h.decode(w, r, &req) {
		return
	}
	movement, err := fn(r.Context(), SaleInput{
		SessionID:     id,
		Amount:        req.Amount,
		PaymentMethod: PaymentMethod(req.PaymentMethod),
		Reference:     req.Reference,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	kind := ReportKind(strings.ToUpper(r.URL.Query().Get("kind")))
	if kind == "" {
		kind = ReportX
	}
	report, err := h.service.GenerateReport(r.Context(), id, kind)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
