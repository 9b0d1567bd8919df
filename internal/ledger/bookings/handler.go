package bookings

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
	"github.com/venue-erp/venue-erp/internal/platform/httpx"
)

// Handler serves read access to the ledger store plus manual postings.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers booking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
}

type lineRequest struct {
	AccountID   int64   `json:"account_id" validate:"required"`
	Type        string  `json:"type" validate:"required,oneof=dr cr"`
	DrAmount    float64 `json:"dr_amount"`
	CrAmount    float64 `json:"cr_amount"`
	Description string  `json:"description"`
}

type createRequest struct {
	Reference string        `json:"reference"`
	Source    string        `json:"source" validate:"required"`
	Date      string        `json:"date"`
	Amount    float64       `json:"amount" validate:"required,gt=0"`
	Lines     []lineRequest `json:"lines" validate:"required,min=2"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	in := CreateInput{
		Reference: req.Reference,
		Source:    req.Source,
		Amount:    req.Amount,
	}
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
			return
		}
		in.Date = d
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, LineInput{
			AccountID:   l.AccountID,
			Type:        LineType(l.Type),
			DrAmount:    l.DrAmount,
			CrAmount:    l.CrAmount,
			Description: l.Description,
		})
	}
	b, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondErr(w, "create booking", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.service.List(r.Context(), ListFilter{
		Source: r.URL.Query().Get("source"),
		Status: PaymentStatus(r.URL.Query().Get("status")),
		Limit:  limit,
	})
	if err != nil {
		h.respondErr(w, "list bookings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid booking id")
		return
	}
	b, lines, err := h.service.GetWithLines(r.Context(), id)
	if err != nil {
		h.respondErr(w, "get booking", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"booking": b, "lines": lines})
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrBookingNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrUnbalanced),
		errors.Is(err, shared.ErrTooFewLines),
		errors.Is(err, shared.ErrLineBothSides),
		errors.Is(err, shared.ErrNegativeAmount):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
