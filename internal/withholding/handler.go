package withholding

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/caudal-erp/caudal-erp/internal/platform/httpx"
)

// Handler exposes withholding certificates over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes attaches certificate routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listByYear)
	r.Get("/stats", h.stats)
	r.Post("/generate", h.generate)
	r.Post("/generate-all", h.generateAll)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.remove)
}

type generateRequest struct {
	SupplierID int64  `json:"supplier_id" validate:"required,gt=0"`
	Year       int    `json:"year" validate:"required,gte=1900,lte=9999"`
	Type       string `json:"type" validate:"required,oneof=RENTA ICA IVA"`
}

type generateAllRequest struct {
	Year int    `json:"year" validate:"required,gte=1900,lte=9999"`
	Type string `json:"type" validate:"omitempty,oneof=RENTA ICA IVA"`
}

func (h *Handler) listByYear(w http.ResponseWriter, r *http.Request) {
	year, ok := h.queryYear(w, r)
	if !ok {
		return
	}
	out, err := h.service.ListByYear(r.Context(), year)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []Certificate{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	year, ok := h.queryYear(w, r)
	if !ok {
		return
	}
	stats, err := h.service.Stats(r.Context(), year)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	cert, err := h.service.Generate(r.Context(), req.SupplierID, req.Year, Type(req.Type))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, cert)
}

func (h *Handler) generateAll(w http.ResponseWriter, r *http.Request) {
	var req generateAllRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.GenerateAll(r.Context(), req.Year, Type(req.Type))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	cert, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cert)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) queryYear(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1900 || year > 9999 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Year", "year query parameter must be a four digit year")
		return 0, false
	}
	return year, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
