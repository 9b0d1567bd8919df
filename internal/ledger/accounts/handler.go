package accounts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
	"github.com/venue-erp/venue-erp/internal/platform/httpx"
)

// Handler serves the chart-of-accounts JSON endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/subheaders", h.createSubHeader)
	r.Get("/{id}", h.get)
	r.Put("/{id}/name", h.rename)
}

type accountResponse struct {
	ID            int64  `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Currency      string `json:"currency"`
	Sign          string `json:"sign"`
	Reporting     string `json:"reporting"`
	HeaderCode    string `json:"header_code"`
	HeaderName    string `json:"header_name"`
	SubHeaderCode string `json:"subheader_code"`
	SubHeaderName string `json:"subheader_name"`
}

func toResponse(a Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		Code:          a.Code,
		Name:          a.Name,
		Type:          string(a.Type),
		Currency:      a.Currency,
		Sign:          string(a.Sign()),
		Reporting:     string(a.Reporting()),
		HeaderCode:    a.HeaderCode,
		HeaderName:    a.HeaderName,
		SubHeaderCode: a.SubHeaderCode,
		SubHeaderName: a.SubHeaderName,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Type:     AccountType(r.URL.Query().Get("type")),
		Currency: r.URL.Query().Get("currency"),
	}
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]accountResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, "get account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(a))
}

type createRequest struct {
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Type        string `json:"type" validate:"required"`
	Currency    string `json:"currency" validate:"required,len=3"`
	SubHeaderID int64  `json:"subheader_id" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	a, err := h.service.Create(r.Context(), CreateInput{
		Code:        req.Code,
		Name:        req.Name,
		Type:        AccountType(req.Type),
		Currency:    req.Currency,
		SubHeaderID: req.SubHeaderID,
	})
	if err != nil {
		h.respondErr(w, "create account", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(a))
}

type createSubHeaderRequest struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name" validate:"required"`
	HeaderID int64  `json:"header_id" validate:"required"`
}

func (h *Handler) createSubHeader(w http.ResponseWriter, r *http.Request) {
	var req createSubHeaderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	sh, err := h.service.CreateSubHeader(r.Context(), CreateSubHeaderInput{
		Code:     req.Code,
		Name:     req.Name,
		HeaderID: req.HeaderID,
	})
	if err != nil {
		h.respondErr(w, "create subheader", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":          sh.ID,
		"code":        sh.Code,
		"name":        sh.Name,
		"header_code": sh.HeaderCode,
		"header_name": sh.HeaderName,
	})
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.Rename(r.Context(), id, req.Name); err != nil {
		h.respondErr(w, "rename account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrAccountNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidAccountCode):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
