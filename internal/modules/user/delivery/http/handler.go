package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"pera.com/perasystem/internal/middleware"
	"pera.com/perasystem/internal/modules/user/dto"
	user "pera.com/perasystem/internal/modules/user/service"
	commonDto "pera.com/perasystem/pkg/dto"
	"pera.com/perasystem/pkg/ratelimiter"
	"pera.com/perasystem/pkg/response"
)

type UserHandler struct {
	authService user.AuthService
	userService user.Service
}

func NewUserHandler(authService user.AuthService, userService user.Service) *UserHandler {
	return &UserHandler{
		authService: authService,
		userService: userService,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "token": res.Token, "expiresAt": res.ExpiresAt, "user": res.User})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	req.ClientIP = c.ClientIP()

	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		var rateLimitErr *ratelimiter.RateLimitError
		if errors.As(err, &rateLimitErr) {
			c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
		}
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": res.Token, "expiresAt": res.ExpiresAt, "user": res.User})
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, res)
}

func (h *UserHandler) List(c *gin.Context) {
	var filter dto.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}

	sub, err := middleware.Subject(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.userService.List(c.Request.Context(), sub, filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, commonDto.ListResponse{
		Success: true,
		Count:   len(res.Users),
		Total:   res.Total,
		Page:    res.Page,
		Data:    res.Users,
	})
}

func (h *UserHandler) Get(c *gin.Context) {
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

	res, err := h.userService.Get(c.Request.Context(), sub, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, res)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	sub, err := middleware.Subject(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.userService.Update(c.Request.Context(), sub, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, res)
}

func (h *UserHandler) UpdateStatus(c *gin.Context) {
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

	res, err := h.userService.SetStatus(c.Request.Context(), sub, id, *req.IsActive)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, res)
}
