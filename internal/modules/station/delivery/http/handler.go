package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"pera.com/perasystem/internal/middleware"
	"pera.com/perasystem/internal/modules/station/dto"
	station "pera.com/perasystem/internal/modules/station/service"
	commonDto "pera.com/perasystem/pkg/dto"
	"pera.com/perasystem/pkg/response"
)

type StationHandler struct {
	service station.Service
}

func NewStationHandler(service station.Service) *StationHandler {
	return &StationHandler{service: service}
}

func (h *StationHandler) Create(c *gin.Context) {
	var req dto.CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	sub, err := middleware.Subject(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.Create(c.Request.Context(), sub, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Created(c, res)
}

func (h *StationHandler) List(c *gin.Context) {
	var filter dto.StationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}

	sub, err := middleware.Subject(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.List(c.Request.Context(), sub, filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, commonDto.ListResponse{
		Success: true,
		Count:   len(res.Stations),
		Total:   res.Total,
		Page:    res.Page,
		Data:    res.Stations,
	})
}

func (h *StationHandler) Get(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	sub, err := middleware.Subject(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.Get(c.Request.Context(), sub, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, res)
}

func (h *StationHandler) Update(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	sub, err := middleware.Subject(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.Update(c.Request.Context(), sub, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, res)
}

func (h *StationHandler) Children(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	sub, err := middleware.Subject(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.Children(c.Request.Context(), sub, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(res), "data": res})
}

func (h *StationHandler) Nearby(c *gin.Context) {
	var q dto.NearbyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	sub, err := middleware.Subject(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.Nearby(c.Request.Context(), sub, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(res), "data": res})
}

func (h *StationHandler) Search(c *gin.Context) {
	var q dto.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	sub, err := middleware.Subject(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.Search(c.Request.Context(), sub, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(res), "data": res})
}
