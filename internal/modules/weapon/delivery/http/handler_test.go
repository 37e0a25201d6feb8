package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pera.com/perasystem/internal/authz"
	"pera.com/perasystem/internal/modules/weapon/dto"
	"pera.com/perasystem/pkg/apperror"
	"pera.com/perasystem/pkg/response"
	"pera.com/perasystem/pkg/validator"
)

type fakeService struct{}

func (fakeService) Create(_ context.Context, sub authz.Subject, req dto.CreateWeaponRequest) (*dto.WeaponResponse, error) {
	if sub.Role != "admin" {
		return nil, apperror.ErrForbidden
	}
	return &dto.WeaponResponse{ID: uuid.New(), SerialNumber: req.SerialNumber}, nil
}

func (fakeService) List(context.Context, authz.Subject, dto.WeaponFilter) (*dto.WeaponListResponse, error) {
	return &dto.WeaponListResponse{Weapons: []*dto.WeaponResponse{}, Page: 1}, nil
}

func (fakeService) Get(_ context.Context, _ authz.Subject, id uuid.UUID) (*dto.WeaponResponse, error) {
	return &dto.WeaponResponse{ID: id}, nil
}

func (fakeService) Update(_ context.Context, _ authz.Subject, id uuid.UUID, _ dto.UpdateWeaponRequest) (*dto.WeaponResponse, error) {
	return &dto.WeaponResponse{ID: id}, nil
}

func (fakeService) UpdateStatus(_ context.Context, _ authz.Subject, id uuid.UUID, req dto.UpdateStatusRequest) (*dto.WeaponResponse, error) {
	return &dto.WeaponResponse{ID: id, Status: req.Status}, nil
}

func newRouter(role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.RegisterJSONFieldNames()
	h := NewWeaponHandler(fakeService{})
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(response.ContextUserID, uuid.NewString())
		c.Set(response.ContextRole, role)
	})
	r.POST("/weapons", h.Create)
	r.GET("/weapons", h.List)
	r.PUT("/weapons/:id/status", h.UpdateStatus)
	return r
}

func send(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
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

func TestCreate(t *testing.T) {
	body := map[string]any{"weaponType": "AK-47", "serialNumber": "SN-1", "purchaseDate": "2021-05-01T00:00:00Z"}

	assert.Equal(t, http.StatusCreated, send(newRouter("admin"), http.MethodPost, "/weapons", body).Code)
	assert.Equal(t, http.StatusForbidden, send(newRouter("io"), http.MethodPost, "/weapons", body).Code)

	delete(body, "purchaseDate")
	w := send(newRouter("admin"), http.MethodPost, "/weapons", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Contains(t, res["errors"], "purchaseDate")
}

func TestUpdateStatus_Binding(t *testing.T) {
	r := newRouter("sdo")
	path := "/weapons/" + uuid.NewString() + "/status"

	assert.Equal(t, http.StatusOK, send(r, http.MethodPut, path, map[string]any{"status": "damaged"}).Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodPut, path, map[string]any{"status": "in_use"}).Code)
}

func TestList_Empty(t *testing.T) {
	w := send(newRouter("io"), http.MethodGet, "/weapons", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, float64(0), res["count"])
	assert.Equal(t, []any{}, res["data"])
}
