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

type RouterHandler struct {
	Repo *repository.RouterRepository
}

type routerRequest struct {
	Hostname       string `json:"hostname"`
	IPAddress      string `json:"ip_address"`
	Model          string `json:"model"`
	MunicipalityID uint   `json:"municipality_id"`
	Online         *bool  `json:"online,omitempty"`
}

func (h *RouterHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "router_create")

	var req routerRequest
	if err := c.Bind(&req); err != nil || req.Hostname == "" || req.IPAddress == "" || req.MunicipalityID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "hostname, ip_address and municipality_id are required")
	}

	rt := models.Router{
		Hostname:       req.Hostname,
		IPAddress:      req.IPAddress,
		Model:          req.Model,
		MunicipalityID: req.MunicipalityID,
	}
	if err := h.Repo.Create(ctx, &rt); err != nil {
		l.Error("create_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, rt)
}

func (h *RouterHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rt, err := h.Repo.GetByID(ctx, uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if rt == nil {
		return echo.NewHTTPError(http.StatusNotFound, "router not found")
	}
	return c.JSON(http.StatusOK, rt)
}

func (h *RouterHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	var municipalityID *uint
	if raw := c.QueryParam("municipality_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid municipality_id")
		}
		mid := uint(id)
		municipalityID = &mid
	}

	items, total, err := h.Repo.List(ctx, municipalityID, from, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "items": items})
}

func (h *RouterHandler) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "router_patch")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rt, err := h.Repo.GetByID(ctx, uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if rt == nil {
		return echo.NewHTTPError(http.StatusNotFound, "router not found")
	}

	var req routerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Hostname != "" {
		rt.Hostname = req.Hostname
	}
	if req.IPAddress != "" {
		rt.IPAddress = req.IPAddress
	}
	if req.Model != "" {
		rt.Model = req.Model
	}
	if req.MunicipalityID != 0 {
		rt.MunicipalityID = req.MunicipalityID
	}
	if req.Online != nil {
		rt.Online = *req.Online
	}
	if err := h.Repo.Update(ctx, rt); err != nil {
		l.Error("patch_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, rt)
}

func (h *RouterHandler) Delete(c echo.Context) error {
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
