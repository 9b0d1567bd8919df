package halls

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

// Handler serves the hall booking endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers hall routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/bookings", h.listBookings)
	r.Post("/bookings", h.book)
	r.Get("/bookings/{id}", h.getBooking)
	r.Post("/bookings/{id}/confirm", h.confirm)
	r.Put("/bookings/{id}/guests", h.amendGuests)
	r.Get("/bookings/{id}/payments", h.listPayments)
	r.Post("/bookings/{id}/payments", h.registerPayment)
	r.Put("/payments/{paymentID}", h.amendPayment)
	r.Delete("/payments/{paymentID}", h.removePayment)
}

type bookRequest struct {
	HallID              int64   `json:"hall_id" validate:"required"`
	CustomerID          int64   `json:"customer_id" validate:"required"`
	Currency            string  `json:"currency" validate:"required,len=3"`
	EventDate           string  `json:"event_date"`
	Guests              int     `json:"guests" validate:"required,gt=0"`
	Rate                float64 `json:"rate" validate:"gte=0"`
	ReceivableAccountID int64   `json:"receivable_account_id" validate:"required"`
	IncomeAccountID     int64   `json:"income_account_id" validate:"required"`
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	in := CreateBookingInput{
		HallID:              req.HallID,
		CustomerID:          req.CustomerID,
		Currency:            req.Currency,
		Guests:              req.Guests,
		Rate:                req.Rate,
		ReceivableAccountID: req.ReceivableAccountID,
		IncomeAccountID:     req.IncomeAccountID,
	}
	if req.EventDate != "" {
		d, err := time.Parse("2006-01-02", req.EventDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "event_date must be YYYY-MM-DD")
			return
		}
		in.EventDate = d
	}
	b, err := h.service.Book(r.Context(), in)
	if err != nil {
		h.respondErr(w, "book hall", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.service.ListBookings(r.Context(), Status(r.URL.Query().Get("status")), limit)
	if err != nil {
		h.respondErr(w, "list hall bookings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	b, err := h.service.GetBooking(r.Context(), id)
	if err != nil {
		h.respondErr(w, "get hall booking", err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Confirm(r.Context(), id); err != nil {
		h.respondErr(w, "confirm hall booking", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) amendGuests(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Guests int `json:"guests"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.AmendGuests(r.Context(), id, req.Guests); err != nil {
		h.respondErr(w, "amend guests", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	list, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		h.respondErr(w, "list payments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) registerPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		AccountID int64   `json:"account_id"`
		Amount    float64 `json:"amount"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	p, err := h.service.RegisterPayment(r.Context(), id, req.AccountID, req.Amount)
	if err != nil {
		h.respondErr(w, "register payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) amendPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "paymentID")
	if !ok {
		return
	}
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.AmendPayment(r.Context(), id, req.Amount); err != nil {
		h.respondErr(w, "amend payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) removePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "paymentID")
	if !ok {
		return
	}
	if err := h.service.RemovePayment(r.Context(), id); err != nil {
		h.respondErr(w, "remove payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid "+name)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrPaymentNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidGuests),
		errors.Is(err, shared.ErrNegativeAmount),
		errors.Is(err, shared.ErrAccountNotFound),
		errors.Is(err, shared.ErrObligationOverpaid):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidStatus):
		httpx.Problem(w, http.StatusConflict, "Invalid Status", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
