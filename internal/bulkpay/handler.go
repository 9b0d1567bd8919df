package bulkpay

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/venue-erp/venue-erp/internal/ledger/allocation"
	"github.com/venue-erp/venue-erp/internal/ledger/shared"
	"github.com/venue-erp/venue-erp/internal/platform/httpx"
)

// Handler serves the bulk payment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers bulk payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}/confirm", h.confirm)
	r.Post("/{id}/unconfirm", h.unconfirm)
	r.Put("/{id}/methods", h.updateMethods)
	r.Get("/vendors/{vendorID}/transactions", h.listVendorTransactions)
	r.Post("/vendors/{vendorID}/transactions", h.createVendorTransaction)
	r.Get("/employees/{employeeID}/advances", h.listSalaryAdvances)
	r.Post("/employees/{employeeID}/advances", h.createSalaryAdvance)
}

type methodRequest struct {
	AccountID int64   `json:"account_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"gt=0"`
}

type createRequest struct {
	PayerKind        string          `json:"payer_kind" validate:"required,oneof=waiter vendor employee"`
	PayerID          int64           `json:"payer_id" validate:"required"`
	Date             string          `json:"date"`
	ControlAccountID int64           `json:"control_account_id" validate:"required"`
	Methods          []methodRequest `json:"methods" validate:"required,min=1,dive"`
}

func toMethods(reqs []methodRequest) []allocation.Method {
	out := make([]allocation.Method, 0, len(reqs))
	for _, m := range reqs {
		out = append(out, allocation.Method{AccountID: m.AccountID, Amount: m.Amount})
	}
	return out
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	in := CreateInput{
		PayerKind:        PayerKind(req.PayerKind),
		PayerID:          req.PayerID,
		ControlAccountID: req.ControlAccountID,
		Methods:          toMethods(req.Methods),
	}
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
			return
		}
		in.Date = d
	}
	b, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondErr(w, "create bulk payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.service.List(r.Context(), PayerKind(r.URL.Query().Get("payer_kind")), limit)
	if err != nil {
		h.respondErr(w, "list bulk payments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, "get bulk payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	b, err := h.service.Confirm(r.Context(), id)
	if err != nil {
		h.respondErr(w, "confirm bulk payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) unconfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Unconfirm(r.Context(), id); err != nil {
		h.respondErr(w, "unconfirm bulk payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "draft"})
}

func (h *Handler) updateMethods(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Methods []methodRequest `json:"methods" validate:"required,min=1,dive"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.UpdateMethods(r.Context(), id, toMethods(req.Methods)); err != nil {
		h.respondErr(w, "update bulk payment methods", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listVendorTransactions(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := h.idParam(w, r, "vendorID")
	if !ok {
		return
	}
	list, err := h.service.ListVendorTransactions(r.Context(), vendorID)
	if err != nil {
		h.respondErr(w, "list vendor transactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createVendorTransaction(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := h.idParam(w, r, "vendorID")
	if !ok {
		return
	}
	var req struct {
		Reference        string  `json:"reference"`
		Date             string  `json:"date"`
		Total            float64 `json:"total" validate:"gt=0"`
		PayableAccountID int64   `json:"payable_account_id" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	v := VendorTransaction{
		VendorID:         vendorID,
		Reference:        req.Reference,
		Total:            req.Total,
		PayableAccountID: req.PayableAccountID,
	}
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
			return
		}
		v.Date = d
	}
	out, err := h.service.RecordVendorTransaction(r.Context(), v)
	if err != nil {
		h.respondErr(w, "create vendor transaction", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, out)
}

func (h *Handler) listSalaryAdvances(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.idParam(w, r, "employeeID")
	if !ok {
		return
	}
	list, err := h.service.ListSalaryAdvances(r.Context(), employeeID)
	if err != nil {
		h.respondErr(w, "list salary advances", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createSalaryAdvance(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.idParam(w, r, "employeeID")
	if !ok {
		return
	}
	var req struct {
		Date                string  `json:"date"`
		Total               float64 `json:"total" validate:"gt=0"`
		ReceivableAccountID int64   `json:"receivable_account_id" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	a := SalaryAdvance{
		EmployeeID:          employeeID,
		Total:               req.Total,
		ReceivableAccountID: req.ReceivableAccountID,
	}
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
			return
		}
		a.Date = d
	}
	out, err := h.service.RecordSalaryAdvance(r.Context(), a)
	if err != nil {
		h.respondErr(w, "create salary advance", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, out)
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
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrLocked):
		httpx.Problem(w, http.StatusConflict, "Allocation In Progress", err.Error())
	case errors.Is(err, ErrNoMethods),
		errors.Is(err, shared.ErrNegativeAmount),
		errors.Is(err, shared.ErrAccountNotFound),
		errors.Is(err, shared.ErrNoOpenObligations),
		errors.Is(err, shared.ErrPoolExceedsDue),
		errors.Is(err, shared.ErrMethodsMismatch):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidStatus):
		httpx.Problem(w, http.StatusConflict, "Invalid Status", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
