package balances

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

// Handler serves the report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts/{id}", h.accountBalance)
	r.Get("/trial-balance", h.trialBalance)
	r.Get("/trial-balance/consolidated", h.consolidatedTrialBalance)
	r.Get("/balance-sheet", h.balanceSheet)
	r.Get("/income-statement", h.incomeStatement)
}

func asOfParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", raw)
}

func (h *Handler) accountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "as_of must be YYYY-MM-DD")
		return
	}
	b, err := h.service.AccountBalance(r.Context(), id, asOf)
	if err != nil {
		h.respondErr(w, "account balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	cur := r.URL.Query().Get("currency")
	if cur == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "currency is required")
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "as_of must be YYYY-MM-DD")
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), cur, asOf)
	if err != nil {
		h.respondErr(w, "trial balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

func (h *Handler) consolidatedTrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "as_of must be YYYY-MM-DD")
		return
	}
	tb, err := h.service.ConsolidatedTrialBalance(r.Context(), asOf)
	if err != nil {
		h.respondErr(w, "consolidated trial balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "as_of must be YYYY-MM-DD")
		return
	}
	sheet, err := h.service.BalanceSheet(r.Context(), asOf)
	if err != nil {
		h.respondErr(w, "balance sheet", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sheet)
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "to must be YYYY-MM-DD")
		return
	}
	st, err := h.service.IncomeStatement(r.Context(), from, to)
	if err != nil {
		h.respondErr(w, "income statement", err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrAccountNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrRateNotFound):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Rate Missing", err.Error())
	case errors.Is(err, shared.ErrOutOfBalance):
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusConflict, "Ledger Out Of Balance", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
