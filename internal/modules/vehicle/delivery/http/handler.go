package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"pera.com/perasystem/internal/middleware"
	"pera.com/perasystem/internal/modules/vehicle/dto"
	vehicle "pera.com/perasystem/internal/modules/vehicle/service"
	commonDto "pera.com/perasystem/pkg/dto"
	"pera.com/perasystem/pkg/response"
)

type VehicleHandler struct {
	service vehicle.Service
}

func NewVehicleHandler(service vehicle.Service) *VehicleHandler {
	return &VehicleHandler{service: service}
}

func (h *VehicleHandler) Create(c *gin.Context) {
	var req dto.CreateVehicleRequest
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

func (h *VehicleHandler) List(c *gin.Context) {
	var filter dto.VehicleFilter
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
		Count:   len(res.Vehicles),
		Total:   res.Total,
		Page:    res.Page,
		Data:    res.Vehicles,
	})
}

func (h *VehicleHandler) Get(c *gin.Context) {
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

func (h *VehicleHandler) Update(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdateVehicleRequest
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

func (h *VehicleHandler) UpdateStatus(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	sub, err := middleware.Subject(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.UpdateStatus(c.Request.Context(), sub, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, res)
}
