package parties

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hessekhub/hessekhub-finance/internal/ledger"
	"github.com/hessekhub/hessekhub-finance/internal/platform/httpx"
)

// Handler exposes party endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers party routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
}

type createRequest struct {
	Kind          string `json:"kind" validate:"required,oneof=SUPPLIER CUSTOMER EMPLOYEE"`
	Name          string `json:"name" validate:"required"`
	Phone         string `json:"phone"`
	MonthlySalary *int64 `json:"monthly_salary" validate:"omitempty,gt=0"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	party, err := h.service.Create(r.Context(), CreateInput{
		Kind:          ledger.EntityKind(req.Kind),
		Name:          req.Name,
		Phone:         req.Phone,
		MonthlySalary: req.MonthlySalary,
	})
	if err != nil {
		h.logger.Error("create party", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, party)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind := ledger.EntityKind(r.URL.Query().Get("kind"))
	out, err := h.service.List(r.Context(), kind)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
