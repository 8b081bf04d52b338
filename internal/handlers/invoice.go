package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/dmarulanda/muninet/internal/events"
	"github.com/dmarulanda/muninet/internal/logging"
	mw "github.com/dmarulanda/muninet/internal/middleware"
	"github.com/dmarulanda/muninet/internal/models"
	"github.com/dmarulanda/muninet/internal/repository"
	"github.com/dmarulanda/muninet/internal/search"
	"github.com/dmarulanda/muninet/internal/util"
)

type InvoiceHandler struct {
	Repo     *repository.InvoiceRepository
	ES       *elasticsearch.Client
	Producer *events.Producer
}

type invoiceRequest struct {
	Number         string  `json:"number"`
	UserID         uint    `json:"user_id"`
	MunicipalityID uint    `json:"municipality_id"`
	Amount         float64 `json:"amount"`
	Period         string  `json:"period"`
	Status         string  `json:"status"`
	Notes          string  `json:"notes"`
}

func (h *InvoiceHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "invoice_create")

	var req invoiceRequest
	if err := c.Bind(&req); err != nil || req.Number == "" || req.UserID == 0 || req.MunicipalityID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "number, user_id and municipality_id are required")
	}

	inv := models.Invoice{
		Number:         req.Number,
		UserID:         req.UserID,
		MunicipalityID: req.MunicipalityID,
		Amount:         req.Amount,
		Period:         req.Period,
		Status:         req.Status,
		Notes:          req.Notes,
	}
	if inv.Status == "" {
		inv.Status = "pending"
	}
	if err := h.Repo.Create(ctx, &inv); err != nil {
		l.Error("create_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	// The search mirror and the audit event are best-effort.
	if h.ES != nil {
		if err := search.IndexInvoice(ctx, h.ES, inv); err != nil {
			l.Error("index_failed", "invoice_id", inv.ID, "error", err)
		}
	}
	if err := h.Producer.Publish(ctx, events.TopicInvoiceEvents, fmt.Sprint(inv.ID), map[string]interface{}{
		"type":       "invoice_created",
		"invoice_id": inv.ID,
		"user_id":    inv.UserID,
		"amount":     inv.Amount,
	}); err != nil {
		l.Error("event_publish_failed", "error", err)
	}

	return c.JSON(http.StatusCreated, inv)
}

func (h *InvoiceHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.Repo.GetByID(ctx, uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if inv == nil {
		return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
	}
	return c.JSON(http.StatusOK, inv)
}

// ListMine returns the authenticated user's own invoices.
func (h *InvoiceHandler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()

	ident, ok := mw.FromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	items, total, err := h.Repo.ListByUser(ctx, ident.UserID, from, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "items": items})
}

func (h *InvoiceHandler) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "invoice_patch")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.Repo.GetByID(ctx, uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if inv == nil {
		return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
	}

	var req invoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Amount != 0 {
		inv.Amount = req.Amount
	}
	if req.Period != "" {
		inv.Period = req.Period
	}
	if req.Status != "" {
		inv.Status = req.Status
	}
	if req.Notes != "" {
		inv.Notes = req.Notes
	}
	if err := h.Repo.Update(ctx, inv); err != nil {
		l.Error("patch_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if h.ES != nil {
		if err := search.IndexInvoice(ctx, h.ES, *inv); err != nil {
			l.Error("index_failed", "invoice_id", inv.ID, "error", err)
		}
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *InvoiceHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.Repo.Delete(ctx, uint(id)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *InvoiceHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()

	if h.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	total, items, err := search.SearchInvoices(ctx, h.ES, query, from, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "items": items})
}
