package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hessekhub/hessekhub-finance/internal/platform/httpx"
)

// Handler exposes inventory endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/items", h.listItems)
	r.Post("/items", h.createItem)
	r.Post("/movements", h.recordMovement)
}

type createItemRequest struct {
	Name string `json:"name" validate:"required"`
	Unit string `json:"unit"`
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.CreateItem(r.Context(), CreateItemInput{Name: req.Name, Unit: req.Unit})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		h.logger.Error("list items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

type movementRequest struct {
	ItemID string  `json:"item_id" validate:"required,uuid"`
	Type   string  `json:"type" validate:"required,oneof=USAGE ADJUSTMENT RETURN"`
	Qty    float64 `json:"qty" validate:"required"`
	Note   string  `json:"note"`
}

func (h *Handler) recordMovement(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "item_id must be a UUID")
		return
	}
	txn, err := h.service.RecordMovement(r.Context(), MovementInput{
		ItemID: itemID,
		Type:   TransactionType(req.Type),
		Qty:    req.Qty,
		Note:   req.Note,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, txn)
}
