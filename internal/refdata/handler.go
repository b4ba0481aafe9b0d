package refdata

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kirana-pos/kirana/internal/platform/httpx"
)

// Handler wires the /meta endpoints for the reference registries.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the registry handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers registry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)
	r.Get("/units", h.listUnits)
	r.Post("/units", h.createUnit)
	r.Get("/taxes", h.listTaxes)
	r.Post("/taxes", h.createTax)
	r.Get("/warehouses", h.listWarehouses)
	r.Post("/warehouses", h.createWarehouse)
}

type nameForm struct {
	Name string `json:"name" validate:"required"`
}

type taxForm struct {
	Name string  `json:"name" validate:"required"`
	Rate float64 `json:"rate" validate:"gte=0,lte=100"`
}

type warehouseForm struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, items)
}

func (h *Handler) listUnits(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListUnits(r.Context())
	if err != nil {
		h.logger.Error("list units", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, items)
}

func (h *Handler) listTaxes(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListTaxes(r.Context())
	if err != nil {
		h.logger.Error("list taxes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, items)
}

func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListWarehouses(r.Context())
	if err != nil {
		h.logger.Error("list warehouses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, items)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var form nameForm
	if !h.decode(w, r, &form) {
		return
	}
	created, err := h.service.CreateCategory(r.Context(), form.Name)
	if err != nil {
		h.logger.Error("create category", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, created)
}

func (h *Handler) createUnit(w http.ResponseWriter, r *http.Request) {
	var form nameForm
	if !h.decode(w, r, &form) {
		return
	}
	created, err := h.service.CreateUnit(r.Context(), form.Name)
	if err != nil {
		h.logger.Error("create unit", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, created)
}

func (h *Handler) createTax(w http.ResponseWriter, r *http.Request) {
	var form taxForm
	if !h.decode(w, r, &form) {
		return
	}
	created, err := h.service.CreateTax(r.Context(), form.Name, form.Rate)
	if err != nil {
		h.logger.Error("create tax", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, created)
}

func (h *Handler) createWarehouse(w http.ResponseWriter, r *http.Request) {
	var form warehouseForm
	if !h.decode(w, r, &form) {
		return
	}
	created, err := h.service.CreateWarehouse(r.Context(), form.Name, form.Address)
	if err != nil {
		h.logger.Error("create warehouse", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, created)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, form any) bool {
	if err := httpx.DecodeJSON(r, form); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorEnvelope{Error: httpx.ErrorBody{Code: "INVALID_ARGUMENT", Message: "malformed request body"}})
		return false
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorEnvelope{Error: httpx.ErrorBody{Code: "INVALID_ARGUMENT", Message: err.Error()}})
		return false
	}
	return true
}
