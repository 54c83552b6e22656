package sales

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hessekhub/hessekhub-finance/internal/platform/httpx"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

// Handler exposes sale and subscription endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
}

// MountSubscriptionRoutes registers subscription routes.
func (h *Handler) MountSubscriptionRoutes(r chi.Router) {
	r.Get("/", h.listSubscriptions)
	r.Get("/{id}", h.getSubscription)
	r.Post("/{id}/cancel", h.cancel)
	r.Post("/{id}/renew", h.renew)
}

type cardRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Note   string `json:"note"`
}

type saleRequest struct {
	Stream           string        `json:"stream" validate:"required,oneof=CAFE SUBSCRIPTION ASSESSMENT"`
	Amount           int64         `json:"amount" validate:"omitempty,gt=0"`
	GrossAmount      int64         `json:"gross_amount" validate:"omitempty,gt=0"`
	Discount         int64         `json:"discount" validate:"gte=0"`
	Refund           int64         `json:"refund" validate:"gte=0"`
	CashAmount       int64         `json:"cash_amount" validate:"gte=0"`
	PosAmount        int64         `json:"pos_amount" validate:"gte=0"`
	CardToCard       []cardRequest `json:"card_to_card" validate:"dive"`
	IsCredit         bool          `json:"is_credit"`
	PaymentAccountID *int64        `json:"payment_account_id" validate:"omitempty,gt=0"`
	CustomerID       *string       `json:"customer_id" validate:"omitempty,uuid"`
	Description      string        `json:"description"`
}

func (req saleRequest) toInput() (CreateInput, error) {
	input := CreateInput{
		Stream:           Stream(req.Stream),
		Amount:           req.Amount,
		GrossAmount:      req.GrossAmount,
		Discount:         req.Discount,
		Refund:           req.Refund,
		CashAmount:       req.CashAmount,
		PosAmount:        req.PosAmount,
		IsCredit:         req.IsCredit,
		PaymentAccountID: req.PaymentAccountID,
		Description:      req.Description,
	}
	for _, c := range req.CardToCard {
		input.CardToCard = append(input.CardToCard, CardInput{Amount: c.Amount, Note: c.Note})
	}
	if req.CustomerID != nil {
		id, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return CreateInput{}, fmt.Errorf("sales: customer_id must be a uuid: %w", shared.ErrValidation)
		}
		input.CustomerID = &id
	}
	return input, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sale, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create sale", slog.String("stream", req.Stream), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	stream := Stream(r.URL.Query().Get("stream"))
	out, err := h.service.List(r.Context(), stream)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete sale", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cancelRequest struct {
	RefundAmount int64 `json:"refund_amount" validate:"gte=0"`
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req cancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sub, err := h.service.Cancel(r.Context(), id, req.RefundAmount)
	if err != nil {
		h.logger.Error("cancel subscription", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sub)
}

func (h *Handler) renew(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sale, err := h.service.Renew(r.Context(), id)
	if err != nil {
		h.logger.Error("renew subscription", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) getSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sub, err := h.service.GetSubscription(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sub)
}

func (h *Handler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListSubscriptions(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
