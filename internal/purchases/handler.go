package purchases

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hessekhub/hessekhub-finance/internal/platform/httpx"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

// Handler exposes purchase endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers purchase routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.edit)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
}

type inventoryDetailsRequest struct {
	ItemID string  `json:"item_id" validate:"required,uuid"`
	Qty    float64 `json:"qty" validate:"required,gt=0"`
}

type purchaseRequest struct {
	Amount           int64                    `json:"amount" validate:"required,gt=0"`
	Category         string                   `json:"category" validate:"required"`
	Description      string                   `json:"description"`
	IsCredit         bool                     `json:"is_credit"`
	SupplierID       *string                  `json:"supplier_id" validate:"omitempty,uuid"`
	PaymentAccountID *int64                   `json:"payment_account_id" validate:"omitempty,gt=0"`
	Inventory        *inventoryDetailsRequest `json:"inventory"`
}

func (req purchaseRequest) toInput() (CreateInput, error) {
	input := CreateInput{
		Amount:           req.Amount,
		Category:         req.Category,
		Description:      req.Description,
		IsCredit:         req.IsCredit,
		PaymentAccountID: req.PaymentAccountID,
	}
	if req.SupplierID != nil {
		id, err := uuid.Parse(*req.SupplierID)
		if err != nil {
			return CreateInput{}, fmt.Errorf("purchases: supplier_id must be a uuid: %w", shared.ErrValidation)
		}
		input.SupplierID = &id
	}
	if req.Inventory != nil {
		itemID, err := uuid.Parse(req.Inventory.ItemID)
		if err != nil {
			return CreateInput{}, fmt.Errorf("purchases: item_id must be a uuid: %w", shared.ErrValidation)
		}
		input.Inventory = &InventoryDetails{ItemID: itemID, Qty: req.Inventory.Qty}
	}
	return input, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	purchase, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, purchase)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	purchase, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	status := Status(r.URL.Query().Get("status"))
	out, err := h.service.List(r.Context(), status)
	if err != nil {
		h.logger.Error("list purchases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	purchase, err := h.service.Approve(r.Context(), id)
	if err != nil {
		h.logger.Error("approve purchase", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Reject(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete purchase", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req purchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	purchase, err := h.service.Edit(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	// Edit is reverse-then-recreate: the response carries the new identity.
	httpx.JSON(w, http.StatusOK, purchase)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
