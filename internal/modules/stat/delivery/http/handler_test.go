package handler

import (
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
	"pera.com/perasystem/internal/modules/stat/dto"
	"pera.com/perasystem/pkg/response"
)

type fakeService struct {
	sub authz.Subject
}

func (f *fakeService) Dashboard(_ context.Context, sub authz.Subject) (*dto.DashboardResponse, error) {
	f.sub = sub
	return &dto.DashboardResponse{Requisitions: map[string]int64{"submitted": 2}, TotalRequisitions: 2}, nil
}

func TestDashboard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeService{}
	userID := uuid.New()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(response.ContextUserID, userID.String())
		c.Set(response.ContextRole, "io")
	})
	r.GET("/stats/dashboard", NewStatHandler(svc).Dashboard)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats/dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool                  `json:"success"`
		Data    dto.DashboardResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.EqualValues(t, 2, body.Data.Requisitions["submitted"])
	assert.Equal(t, userID, svc.sub.UserID)
	assert.Equal(t, "io", svc.sub.Role)
}

func TestDashboard_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/stats/dashboard", NewStatHandler(&fakeService{}).Dashboard)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
