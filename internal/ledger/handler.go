package ledger

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kirana-pos/kirana/internal/platform/httpx"
)

// Handler wires the stock movement endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/movements", h.postMovement)
	r.Get("/movements", h.listMovements)
	r.Get("/on-hand", h.onHand)
}

type movementForm struct {
	MaterialID    int64    `json:"materialId" validate:"required,gt=0"`
	WarehouseID   int64    `json:"warehouseId" validate:"gte=0"`
	Type          string   `json:"type" validate:"required"`
	Qty           float64  `json:"qty" validate:"required"`
	Unit          string   `json:"unit" validate:"required"`
	Batch         string   `json:"batch"`
	SerialNumbers []string `json:"serialNumbers"`
	ReferenceID   string   `json:"referenceId"`
}

func (h *Handler) postMovement(w http.ResponseWriter, r *http.Request) {
	var form movementForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorEnvelope{Error: httpx.ErrorBody{Code: "INVALID_ARGUMENT", Message: "malformed request body"}})
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorEnvelope{Error: httpx.ErrorBody{Code: "INVALID_ARGUMENT", Message: err.Error()}})
		return
	}
	entry, err := h.service.Append(r.Context(), AppendInput{
		MaterialID:    form.MaterialID,
		WarehouseID:   form.WarehouseID,
		Type:          EntryType(form.Type),
		Qty:           form.Qty,
		Unit:          form.Unit,
		Batch:         form.Batch,
		SerialNumbers: form.SerialNumbers,
		ReferenceID:   form.ReferenceID,
	})
	if err != nil {
		h.logger.Error("append movement failed",
			slog.Int64("material_id", form.MaterialID),
			slog.Int64("warehouse_id", form.WarehouseID),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, entry)
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	materialID, err := strconv.ParseInt(r.URL.Query().Get("material"), 10, 64)
	if err != nil || materialID <= 0 {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorEnvelope{Error: httpx.ErrorBody{Code: "INVALID_ARGUMENT", Message: "material query parameter is required"}})
		return
	}
	warehouseID := optionalID(r.URL.Query().Get("warehouse"))
	entries, err := h.service.EntriesFor(r.Context(), materialID, warehouseID)
	if err != nil {
		h.logger.Error("list movements failed", slog.Int64("material_id", materialID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, entries)
}

func (h *Handler) onHand(w http.ResponseWriter, r *http.Request) {
	materialID, err := strconv.ParseInt(r.URL.Query().Get("material"), 10, 64)
	if err != nil || materialID <= 0 {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorEnvelope{Error: httpx.ErrorBody{Code: "INVALID_ARGUMENT", Message: "material query parameter is required"}})
		return
	}
	warehouseID := optionalID(r.URL.Query().Get("warehouse"))
	qty, err := h.service.OnHand(r.Context(), materialID, warehouseID)
	if err != nil {
		h.logger.Error("on-hand failed", slog.Int64("material_id", materialID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{
		"materialId":  materialID,
		"warehouseId": warehouseID,
		"onHand":      qty,
	})
}

func optionalID(raw string) int64 {
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
