package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dmarulanda/muninet/internal/logging"
	"github.com/dmarulanda/muninet/internal/models"
	"github.com/dmarulanda/muninet/internal/repository"
	"github.com/dmarulanda/muninet/internal/util"
)

type MunicipalityHandler struct {
	Repo *repository.MunicipalityRepository
}

type municipalityRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (h *MunicipalityHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "municipality_create")

	var req municipalityRequest
	if err := c.Bind(&req); err != nil || req.Name == "" || req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and code are required")
	}

	m := models.Municipality{Name: req.Name, Code: req.Code}
	if err := h.Repo.Create(ctx, &m); err != nil {
		l.Error("create_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *MunicipalityHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.Repo.GetByID(ctx, uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if m == nil {
		return echo.NewHTTPError(http.StatusNotFound, "municipality not found")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MunicipalityHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	items, total, err := h.Repo.List(ctx, from, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "items": items})
}

func (h *MunicipalityHandler) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "municipality_patch")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.Repo.GetByID(ctx, uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if m == nil {
		return echo.NewHTTPError(http.StatusNotFound, "municipality not found")
	}

	var req municipalityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name != "" {
		m.Name = req.Name
	}
	if req.Code != "" {
		m.Code = req.Code
	}
	if err := h.Repo.Update(ctx, m); err != nil {
		l.Error("patch_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MunicipalityHandler) Delete(c echo.Context) error {
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
