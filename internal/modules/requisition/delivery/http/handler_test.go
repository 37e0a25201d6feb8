package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/modules/requisition/dto"
	"pera.com/perasystem/pkg/apperror"
	commonDto "pera.com/perasystem/pkg/dto"
	"pera.com/perasystem/pkg/ratelimiter"
	"pera.com/perasystem/pkg/response"
	"pera.com/perasystem/pkg/validator"
)

type fakeService struct {
	createErr error
	status    dto.UpdateStatusRequest
	files     []string
	contents  []string
	filter    dto.RequisitionFilter
}

func (f *fakeService) Create(_ context.Context, sub authz.Subject, req dto.CreateRequisitionRequest) (*dto.RequisitionResponse, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &dto.RequisitionResponse{ID: uuid.New(), RequestNumber: "REQ-2026-00001", Status: "submitted", Description: req.Description}, nil
}

func (f *fakeService) List(_ context.Context, _ authz.Subject, filter dto.RequisitionFilter) (*dto.RequisitionListResponse, error) {
	f.filter = filter
	return &dto.RequisitionListResponse{Requisitions: []*dto.RequisitionResponse{{}}, Total: 1, Page: 1}, nil
}

func (f *fakeService) Get(context.Context, authz.Subject, uuid.UUID) (*dto.RequisitionResponse, error) {
	return nil, apperror.ErrForbidden
}

func (f *fakeService) UpdateStatus(_ context.Context, _ authz.Subject, id uuid.UUID, req dto.UpdateStatusRequest, files []commonDto.UploadedFile) (*dto.RequisitionResponse, error) {
	f.status = req
	for _, file := range files {
		f.files = append(f.files, file.FileName+"|"+file.ContentType)
		data, _ := io.ReadAll(file.Reader)
		f.contents = append(f.contents, string(data))
	}
	if req.Status == "archived" {
		return nil, apperror.ErrInvalidStatus
	}
	return &dto.RequisitionResponse{ID: id, Status: req.Status}, nil
}

func (f *fakeService) Delete(context.Context, authz.Subject, uuid.UUID) error {
	return nil
}

func newRouter(svc *fakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.RegisterJSONFieldNames()
	h := NewRequisitionHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(response.ContextUserID, uuid.NewString())
		c.Set(response.ContextRole, "io")
	})
	r.POST("/requisitions", h.Create)
	r.GET("/requisitions", h.List)
	r.GET("/requisitions/:id", h.Get)
	r.PUT("/requisitions/:id/status", h.UpdateStatus)
	r.DELETE("/requisitions/:id", h.Delete)
	return r
}

func sendJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestCreate_MissingFields(t *testing.T) {
	w := sendJSON(newRouter(&fakeService{}), http.MethodPost, "/requisitions", map[string]any{"operationType": "raid"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	res := decode(t, w)
	assert.Equal(t, false, res["success"])
	errs, ok := res["errors"].(map[string]any)
	require.True(t, ok)
	for _, field := range []string{"description", "location", "startTime"} {
		assert.Contains(t, errs, field)
	}
}

func TestCreate(t *testing.T) {
	body := map[string]any{
		"operationType": "surveillance",
		"description":   "Monitor market",
		"location":      "Liberty",
		"startTime":     "2026-05-04T09:00:00Z",
		"assignedTeam":  []string{uuid.NewString()},
	}

	w := sendJSON(newRouter(&fakeService{}), http.MethodPost, "/requisitions", body)
	require.Equal(t, http.StatusCreated, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "REQ-2026-00001", data["requestNumber"])

	body["assignedTeam"] = []string{"nope"}
	w = sendJSON(newRouter(&fakeService{}), http.MethodPost, "/requisitions", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate_RateLimited(t *testing.T) {
	svc := &fakeService{createErr: ratelimiter.NewRateLimitError("creating another requisition", 4*time.Second)}
	body := map[string]any{
		"operationType": "raid",
		"description":   "d",
		"location":      "l",
		"startTime":     "2026-05-04T09:00:00Z",
	}

	w := sendJSON(newRouter(svc), http.MethodPost, "/requisitions", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "4", w.Header().Get("Retry-After"))
	assert.Contains(t, decode(t, w)["message"], "please wait 4 seconds")
}

func TestList_DatesAreUTC(t *testing.T) {
	local := time.Local
	time.Local = time.FixedZone("PKT", 5*60*60)
	t.Cleanup(func() { time.Local = local })

	svc := &fakeService{}
	w := sendJSON(newRouter(svc), http.MethodGet, "/requisitions?startDate=2026-01-01&endDate=2026-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, svc.filter.StartDate)
	require.NotNil(t, svc.filter.EndDate)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *svc.filter.StartDate)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), *svc.filter.EndDate)
}

func TestList_Filters(t *testing.T) {
	svc := &fakeService{}
	w := sendJSON(newRouter(svc), http.MethodGet, "/requisitions?status=submitted&startDate=2026-01-01&endDate=2026-01-31&page=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	res := decode(t, w)
	assert.Equal(t, float64(1), res["count"])
	assert.Equal(t, "submitted", svc.filter.Status)
	require.NotNil(t, svc.filter.EndDate)
	assert.Equal(t, 31, svc.filter.EndDate.Day())

	w = sendJSON(newRouter(svc), http.MethodGet, "/requisitions?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGet_Forbidden(t *testing.T) {
	r := newRouter(&fakeService{})
	assert.Equal(t, http.StatusForbidden, sendJSON(r, http.MethodGet, "/requisitions/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, sendJSON(r, http.MethodGet, "/requisitions/123", nil).Code)
}

func TestUpdateStatus_JSON(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc)
	path := "/requisitions/" + uuid.NewString() + "/status"

	w := sendJSON(r, http.MethodPut, path, map[string]any{"status": "sdo_approved", "remarks": "ok", "version": 2})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.status.Remarks)
	assert.Equal(t, "ok", *svc.status.Remarks)
	assert.Equal(t, 2, *svc.status.Version)

	w = sendJSON(r, http.MethodPut, path, map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = sendJSON(r, http.MethodPut, path, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatus_Multipart(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("status", "completed"))
	require.NoError(t, mw.WriteField("completionReport", "done"))
	for _, f := range []struct{ name, ct, data string }{
		{"scene.jpg", "image/jpeg", "jpegdata"},
		{"report.pdf", "application/pdf", "pdfdata"},
	} {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="attachments"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.ct)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.data))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/requisitions/"+uuid.NewString()+"/status", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", svc.status.Status)
	assert.Equal(t, "done", *svc.status.CompletionReport)
	assert.Equal(t, []string{"scene.jpg|image/jpeg", "report.pdf|application/pdf"}, svc.files)
	assert.Equal(t, []string{"jpegdata", "pdfdata"}, svc.contents)
}

func TestDelete(t *testing.T) {
	w := sendJSON(newRouter(&fakeService{}), http.MethodDelete, "/requisitions/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
}
