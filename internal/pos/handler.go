package pos

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

// Handler serves the POS endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers POS routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/confirm", h.confirmOrder)
	r.Put("/orders/{id}/lines", h.amendOrder)
	r.Post("/returns", h.createReturn)
	r.Get("/returns/{id}", h.getReturn)
	r.Post("/returns/{id}/cancel", h.cancelReturn)
}

type lineRequest struct {
	ProductID int64   `json:"product_id" validate:"required"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	Price     float64 `json:"price" validate:"gte=0"`
}

type createOrderRequest struct {
	CustomerID      int64         `json:"customer_id" validate:"required"`
	WaiterID        int64         `json:"waiter_id"`
	Currency        string        `json:"currency" validate:"required,len=3"`
	Date            string        `json:"date"`
	DebitAccountID  int64         `json:"debit_account_id" validate:"required"`
	IncomeAccountID int64         `json:"income_account_id" validate:"required"`
	Lines           []lineRequest `json:"lines" validate:"required,min=1"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	in := CreateOrderInput{
		CustomerID:      req.CustomerID,
		WaiterID:        req.WaiterID,
		Currency:        req.Currency,
		DebitAccountID:  req.DebitAccountID,
		IncomeAccountID: req.IncomeAccountID,
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
		in.Lines = append(in.Lines, LineInput{ProductID: l.ProductID, Name: l.Name, Quantity: l.Quantity, Price: l.Price})
	}
	order, err := h.service.CreateOrder(r.Context(), in)
	if err != nil {
		h.respondErr(w, "create order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	orders, err := h.service.ListOrders(r.Context(), Status(r.URL.Query().Get("status")), limit)
	if err != nil {
		h.respondErr(w, "list orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return
	}
	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.respondErr(w, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return
	}
	if err := h.service.ConfirmOrder(r.Context(), id); err != nil {
		h.respondErr(w, "confirm order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

func (h *Handler) amendOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return
	}
	var req struct {
		Lines []lineRequest `json:"lines"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	var lines []LineInput
	for _, l := range req.Lines {
		lines = append(lines, LineInput{ProductID: l.ProductID, Name: l.Name, Quantity: l.Quantity, Price: l.Price})
	}
	if err := h.service.AmendOrder(r.Context(), id, lines); err != nil {
		h.respondErr(w, "amend order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createReturnRequest struct {
	OrderID int64  `json:"order_id" validate:"required"`
	Date    string `json:"date"`
	Lines   []struct {
		ProductID int64   `json:"product_id" validate:"required"`
		Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	} `json:"lines" validate:"required,min=1"`
}

func (h *Handler) createReturn(w http.ResponseWriter, r *http.Request) {
	var req createReturnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	in := CreateReturnInput{OrderID: req.OrderID}
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
			return
		}
		in.Date = d
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, ReturnLineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	ret, err := h.service.RegisterReturn(r.Context(), in)
	if err != nil {
		h.respondErr(w, "register return", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ret)
}

func (h *Handler) getReturn(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid return id")
		return
	}
	ret, err := h.service.GetReturn(r.Context(), id)
	if err != nil {
		h.respondErr(w, "get return", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ret)
}

func (h *Handler) cancelReturn(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid return id")
		return
	}
	if err := h.service.CancelReturn(r.Context(), id); err != nil {
		h.respondErr(w, "cancel return", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "canceled"})
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrReturnNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNoLines),
		errors.Is(err, ErrReturnExceedsOrdered),
		errors.Is(err, shared.ErrNegativeAmount),
		errors.Is(err, shared.ErrAccountNotFound),
		errors.Is(err, shared.ErrObligationOverpaid):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidStatus):
		httpx.Problem(w, http.StatusConflict, "Invalid Status", err.Error())
	case errors.Is(err, shared.ErrRateNotFound):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Rate Missing", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
