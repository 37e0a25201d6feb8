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
	"pera.com/perasystem/internal/modules/station/dto"
	"pera.com/perasystem/pkg/apperror"
	"pera.com/perasystem/pkg/response"
	"pera.com/perasystem/pkg/validator"
)

type fakeService struct {
	nearby dto.NearbyQuery
}

func (f *fakeService) Create(_ context.Context, sub authz.Subject, req dto.CreateStationRequest) (*dto.StationResponse, error) {
	if sub.Role != "admin" {
		return nil, apperror.ErrForbidden
	}
	return &dto.StationResponse{ID: uuid.New(), Code: req.Code}, nil
}

func (f *fakeService) List(context.Context, authz.Subject, dto.StationFilter) (*dto.StationListResponse, error) {
	return &dto.StationListResponse{Stations: []*dto.StationResponse{{}}, Total: 1, Page: 1}, nil
}

func (f *fakeService) Get(_ context.Context, _ authz.Subject, id uuid.UUID) (*dto.StationResponse, error) {
	return nil, apperror.ErrNotFound
}

func (f *fakeService) Update(_ context.Context, _ authz.Subject, id uuid.UUID, _ dto.UpdateStationRequest) (*dto.StationResponse, error) {
	return &dto.StationResponse{ID: id}, nil
}

func (f *fakeService) Children(context.Context, authz.Subject, uuid.UUID) ([]*dto.StationResponse, error) {
	return []*dto.StationResponse{}, nil
}

func (f *fakeService) Nearby(_ context.Context, _ authz.Subject, q dto.NearbyQuery) ([]*dto.StationResponse, error) {
	f.nearby = q
	return []*dto.StationResponse{{}}, nil
}

func (f *fakeService) Search(context.Context, authz.Subject, dto.SearchQuery) ([]*dto.StationResponse, error) {
	return []*dto.StationResponse{}, nil
}

func (f *fakeService) Reindex(context.Context) (int, error) { return 0, nil }

func newRouter(svc *fakeService, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.RegisterJSONFieldNames()
	h := NewStationHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(response.ContextUserID, uuid.NewString())
		c.Set(response.ContextRole, role)
	})
	r.POST("/stations", h.Create)
	r.GET("/stations", h.List)
	r.GET("/stations/nearby", h.Nearby)
	r.GET("/stations/search", h.Search)
	r.GET("/stations/:id", h.Get)
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
	body := map[string]any{"name": "Model Town", "code": "LHR-01", "type": "police_station"}

	w := send(newRouter(&fakeService{}, "admin"), http.MethodPost, "/stations", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = send(newRouter(&fakeService{}, "io"), http.MethodPost, "/stations", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	body["type"] = "castle"
	w = send(newRouter(&fakeService{}, "admin"), http.MethodPost, "/stations", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Contains(t, res["errors"], "type")
}

func TestNearby_Binding(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc, "io")

	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/stations/nearby?lng=74.3", nil).Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/stations/nearby?lat=100&lng=74.3", nil).Code)

	w := send(r, http.MethodGet, "/stations/nearby?lat=0&lng=74.3&radiusKm=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, *svc.nearby.Lat)
	assert.Equal(t, 5.0, svc.nearby.RadiusKm)
}

func TestSearch_RequiresQuery(t *testing.T) {
	r := newRouter(&fakeService{}, "io")
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/stations/search", nil).Code)
	assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/stations/search?q=lhr", nil).Code)
}

func TestGet_NotFound(t *testing.T) {
	r := newRouter(&fakeService{}, "io")
	w := send(r, http.MethodGet, "/stations/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
