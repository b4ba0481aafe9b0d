package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kirana-pos/kirana/internal/platform/httpx"
)

// Handler wires the material endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	query    *QueryEngine
	validate *validator.Validate
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service, query *QueryEngine) *Handler {
	return &Handler{logger: logger, service: service, query: query, validate: validator.New()}
}

// MountRoutes registers material routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/material", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/search", h.search)
		r.Get("/barcode/{barcode}", h.byBarcode)
		r.Get("/{id}", h.byID)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Page:        intQuery(q.Get("page")),
		Limit:       intQuery(q.Get("limit")),
		CategoryID:  optionalID(q.Get("category")),
		LowStock:    q.Get("lowStock") == "true",
		Search:      q.Get("search"),
		WarehouseID: optionalID(q.Get("warehouse")),
		Sort:        q.Get("sort"),
	}
	if raw := q.Get("threshold"); raw != "" {
		if t, err := strconv.ParseFloat(raw, 64); err == nil && t > 0 {
			filter.Threshold = t
		}
	}
	rows, page, err := h.query.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list materials failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OKPage(w, rows, page)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form MaterialForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorEnvelope{Error: httpx.ErrorBody{Code: "INVALID_ARGUMENT", Message: "malformed request body"}})
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorEnvelope{Error: httpx.ErrorBody{Code: "INVALID_ARGUMENT", Message: err.Error()}})
		return
	}
	material, err := h.service.Create(r.Context(), form)
	if err != nil {
		h.logger.Error("create material failed", slog.String("name", form.Name), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, material)
}

func (h *Handler) byID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	row, err := h.query.GetByID(r.Context(), id, optionalID(r.URL.Query().Get("warehouse")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, row)
}

func (h *Handler) byBarcode(w http.ResponseWriter, r *http.Request) {
	row, err := h.query.GetByBarcode(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, row)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := q.Get("query")
	if term == "" {
		term = q.Get("q")
	}
	rows, err := h.query.Search(r.Context(), term, intQuery(q.Get("limit")))
	if err != nil {
		h.logger.Error("search materials failed", slog.String("query", term), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, rows)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var upd MaterialUpdate
	if err := httpx.DecodeJSON(r, &upd); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorEnvelope{Error: httpx.ErrorBody{Code: "INVALID_ARGUMENT", Message: "malformed request body"}})
		return
	}
	material, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		h.logger.Error("update material failed", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, material)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete material failed", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OKMessage(w, "material deleted")
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorEnvelope{Error: httpx.ErrorBody{Code: "INVALID_ARGUMENT", Message: "id must be a positive integer"}})
		return 0, false
	}
	return id, true
}

func intQuery(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
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
