package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"pera.com/perasystem/internal/middleware"
	"pera.com/perasystem/internal/modules/requisition/dto"
	requisition "pera.com/perasystem/internal/modules/requisition/service"
	"pera.com/perasystem/pkg/apperror"
	commonDto "pera.com/perasystem/pkg/dto"
	"pera.com/perasystem/pkg/ratelimiter"
	"pera.com/perasystem/pkg/response"
)

const attachmentsField = "attachments"

type RequisitionHandler struct {
	service requisition.Service
}

func NewRequisitionHandler(service requisition.Service) *RequisitionHandler {
	return &RequisitionHandler{service: service}
}

func (h *RequisitionHandler) Create(c *gin.Context) {
	var req dto.CreateRequisitionRequest
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
		var rateLimitErr *ratelimiter.RateLimitError
		if errors.As(err, &rateLimitErr) {
			c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
		}
		response.ResponseError(c, err)
		return
	}

	response.Created(c, res)
}

func (h *RequisitionHandler) List(c *gin.Context) {
	var filter dto.RequisitionFilter
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
		Count:   len(res.Requisitions),
		Total:   res.Total,
		Page:    res.Page,
		Data:    res.Requisitions,
	})
}

func (h *RequisitionHandler) Get(c *gin.Context) {
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

// UpdateStatus accepts a JSON body, or a multipart form whose
// "attachments" files are attached when the status is completed.
func (h *RequisitionHandler) UpdateStatus(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdateStatusRequest
	var files []commonDto.UploadedFile

	if strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
			response.BindError(c, err)
			return
		}
		form, err := c.MultipartForm()
		if err != nil {
			response.ResponseError(c, fmt.Errorf("%w: invalid multipart form", apperror.ErrBadRequest))
			return
		}
		opened, closeAll, err := openFiles(form.File[attachmentsField])
		defer closeAll()
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		files = opened
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	sub, err := middleware.Subject(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.UpdateStatus(c.Request.Context(), sub, id, req, files)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, res)
}

func (h *RequisitionHandler) Delete(c *gin.Context) {
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

	if err := h.service.Delete(c.Request.Context(), sub, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, gin.H{"message": "requisition removed"})
}

func openFiles(headers []*multipart.FileHeader) ([]commonDto.UploadedFile, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	files := make([]commonDto.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("%w: cannot read %s", apperror.ErrBadRequest, fh.Filename)
		}
		opened = append(opened, f)
		files = append(files, commonDto.UploadedFile{
			Reader:      f,
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		})
	}
	return files, closeAll, nil
}
