package currency

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

// Handler serves the exchange rate endpoints.
type Handler struct {
	logger *slog.Logger
	repo   Repository
}

func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers exchange rate routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/rates", h.list)
	r.Put("/rates", h.upsert)
	r.Get("/rates/{currency}/{date}", h.rateOn)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.repo.List(r.Context(), r.URL.Query().Get("currency"), limit)
	if err != nil {
		h.respondErr(w, "list rates", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Currency string  `json:"currency" validate:"required,len=3"`
		Date     string  `json:"date" validate:"required"`
		Rate     float64 `json:"rate" validate:"gt=0"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if req.Rate <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "rate must be positive")
		return
	}
	d, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
		return
	}
	rate, err := h.repo.Upsert(r.Context(), req.Currency, d, req.Rate)
	if err != nil {
		h.respondErr(w, "upsert rate", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rate)
}

func (h *Handler) rateOn(w http.ResponseWriter, r *http.Request) {
	d, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "date must be YYYY-MM-DD")
		return
	}
	rate, err := h.repo.RateOn(r.Context(), chi.URLParam(r, "currency"), d)
	if err != nil {
		h.respondErr(w, "rate on date", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rate)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, shared.ErrRateNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
