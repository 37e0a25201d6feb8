package handler

import (
	"github.com/gin-gonic/gin"
	"pera.com/perasystem/internal/middleware"
	stat "pera.com/perasystem/internal/modules/stat/service"
	"pera.com/perasystem/pkg/response"
)

type StatHandler struct {
	service stat.Service
}

func NewStatHandler(service stat.Service) *StatHandler {
	return &StatHandler{service: service}
}

func (h *StatHandler) Dashboard(c *gin.Context) {
	sub, err := middleware.Subject(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.Dashboard(c.Request.Context(), sub)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, res)
}
