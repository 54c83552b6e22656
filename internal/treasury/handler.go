package treasury

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/platform/httpx"
	"github.com/hessekhub/hessekhub-finance/internal/shared"
)

// Handler exposes transfer, loan and check endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountTransferRoutes registers transfer routes.
func (h *Handler) MountTransferRoutes(r chi.Router) {
	r.Get("/", h.listTransfers)
	r.Post("/", h.addTransfer)
	r.Get("/{id}", h.getTransfer)
	r.Delete("/{id}", h.deleteTransfer)
}

// MountLoanRoutes registers loan routes.
func (h *Handler) MountLoanRoutes(r chi.Router) {
	r.Get("/", h.listLoans)
	r.Post("/", h.issueLoan)
	r.Get("/{id}", h.getLoan)
	r.Post("/{id}/repayments", h.repay)
	r.Delete("/repayments/{id}", h.deleteRepayment)
}

// MountCheckRoutes registers check routes.
func (h *Handler) MountCheckRoutes(r chi.Router) {
	r.Get("/", h.listChecks)
	r.Post("/", h.registerCheck)
	r.Get("/{id}", h.getCheck)
	r.Post("/{id}/pass", h.passCheck)
	r.Delete("/{id}", h.deleteCheck)
}

type entityRefRequest struct {
	Kind      string  `json:"kind" validate:"required,oneof=ACCOUNT SUPPLIER CUSTOMER EMPLOYEE"`
	AccountID *int64  `json:"account_id" validate:"omitempty,gt=0"`
	PartyID   *string `json:"party_id" validate:"omitempty,uuid"`
}

func (req entityRefRequest) toRef() (ledger.EntityRef, error) {
	ref := ledger.EntityRef{Kind: ledger.EntityKind(req.Kind)}
	if req.AccountID != nil {
		ref.AccountID = *req.AccountID
	}
	if req.PartyID != nil {
		id, err := uuid.Parse(*req.PartyID)
		if err != nil {
			return ledger.EntityRef{}, fmt.Errorf("treasury: party_id must be a uuid: %w", shared.ErrValidation)
		}
		ref.PartyID = id
	}
	return ref, nil
}

type transferRequest struct {
	Amount int64            `json:"amount" validate:"required,gt=0"`
	Note   string           `json:"note"`
	From   entityRefRequest `json:"from" validate:"required"`
	To     entityRefRequest `json:"to" validate:"required"`
}

func (h *Handler) addTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	from, err := req.From.toRef()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	to, err := req.To.toRef()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	transfer, err := h.service.AddTransfer(r.Context(), TransferInput{
		Amount: req.Amount,
		Note:   req.Note,
		From:   from,
		To:     to,
	})
	if err != nil {
		h.logger.Error("add transfer", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, transfer)
}

func (h *Handler) getTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	transfer, err := h.service.GetTransfer(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, transfer)
}

func (h *Handler) listTransfers(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListTransfers(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) deleteTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteTransfer(r.Context(), id); err != nil {
		h.logger.Error("delete transfer", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type loanRequest struct {
	Lender           string `json:"lender" validate:"required"`
	Principal        int64  `json:"principal" validate:"required,gt=0"`
	PaymentAccountID *int64 `json:"payment_account_id" validate:"omitempty,gt=0"`
}

func (h *Handler) issueLoan(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	loan, err := h.service.IssueLoan(r.Context(), LoanInput{
		Lender:           req.Lender,
		Principal:        req.Principal,
		PaymentAccountID: req.PaymentAccountID,
	})
	if err != nil {
		h.logger.Error("issue loan", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, loan)
}

func (h *Handler) getLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	loan, err := h.service.GetLoan(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loan)
}

func (h *Handler) listLoans(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListLoans(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

type repayRequest struct {
	Amount           int64  `json:"amount" validate:"required,gt=0"`
	PaymentAccountID *int64 `json:"payment_account_id" validate:"omitempty,gt=0"`
}

func (h *Handler) repay(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req repayRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	repayment, err := h.service.Repay(r.Context(), id, req.Amount, req.PaymentAccountID)
	if err != nil {
		h.logger.Error("repay loan", slog.String("loan_id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, repayment)
}

func (h *Handler) deleteRepayment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteRepayment(r.Context(), id); err != nil {
		h.logger.Error("delete repayment", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type checkRequest struct {
	Payee      string    `json:"payee" validate:"required"`
	Amount     int64     `json:"amount" validate:"required,gt=0"`
	DueDate    time.Time `json:"due_date" validate:"required"`
	SupplierID *string   `json:"supplier_id" validate:"omitempty,uuid"`
	Category   string    `json:"category"`
}

func (h *Handler) registerCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := CheckInput{
		Payee:    req.Payee,
		Amount:   req.Amount,
		DueDate:  req.DueDate,
		Category: req.Category,
	}
	if req.SupplierID != nil {
		id, err := uuid.Parse(*req.SupplierID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "supplier_id must be a UUID")
			return
		}
		input.SupplierID = &id
	}
	check, err := h.service.RegisterCheck(r.Context(), input)
	if err != nil {
		h.logger.Error("register check", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, check)
}

func (h *Handler) getCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	check, err := h.service.GetCheck(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, check)
}

func (h *Handler) listChecks(w http.ResponseWriter, r *http.Request) {
	status := CheckStatus(r.URL.Query().Get("status"))
	out, err := h.service.ListChecks(r.Context(), status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) passCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	check, err := h.service.PassCheck(r.Context(), id)
	if err != nil {
		h.logger.Error("pass check", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, check)
}

func (h *Handler) deleteCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCheck(r.Context(), id); err != nil {
		h.logger.Error("delete check", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
