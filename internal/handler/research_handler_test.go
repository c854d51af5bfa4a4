package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadflow/internal/middleware"
	"leadflow/internal/model"
	"leadflow/internal/service"
	"leadflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("handler-secret")

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) CreateResearchTask(ctx context.Context, actor service.Actor, req service.CreateTaskRequest) (service.ResearchTaskResponse, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(service.ResearchTaskResponse), args.Error(1)
}

func (m *MockLedgerService) BulkCreateResearchTasks(ctx context.Context, actor service.Actor, req service.BulkCreateTasksRequest) (service.BulkCreateResponse, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(service.BulkCreateResponse), args.Error(1)
}

func (m *MockLedgerService) CreateInquiryTask(ctx context.Context, actor service.Actor, req service.CreateTaskRequest) (service.InquiryTaskResponse, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(service.InquiryTaskResponse), args.Error(1)
}

func (m *MockLedgerService) ClaimResearchTask(ctx context.Context, actor service.Actor, id string) (service.ResearchTaskResponse, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(service.ResearchTaskResponse), args.Error(1)
}

func (m *MockLedgerService) SubmitResearch(ctx context.Context, actor service.Actor, id string, req service.SubmitResearchRequest) (service.ResearchTaskResponse, error) {
	args := m.Called(ctx, actor, id, req)
	return args.Get(0).(service.ResearchTaskResponse), args.Error(1)
}

func (m *MockLedgerService) ClaimInquiryTask(ctx context.Context, actor service.Actor, id string) (service.InquiryTaskResponse, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(service.InquiryTaskResponse), args.Error(1)
}

func (m *MockLedgerService) ListVisibleResearchTasks(ctx context.Context, actor service.Actor, page, limit int) ([]service.ResearchTaskResponse, int64, error) {
	args := m.Called(ctx, actor, page, limit)
	return args.Get(0).([]service.ResearchTaskResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerService) ListVisibleInquiryTasks(ctx context.Context, actor service.Actor, page, limit int) ([]service.InquiryTaskResponse, int64, error) {
	args := m.Called(ctx, actor, page, limit)
	return args.Get(0).([]service.InquiryTaskResponse), args.Get(1).(int64), args.Error(2)
}

func testGuard(roles ...string) gin.HandlerFunc {
	return middleware.RequireRole(testSecret, roles...)
}

func bearer(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	claims := middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func setupResearchRouter(ledger service.LedgerService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewResearchHandler(ledger, zap.NewNop()).RegisterRoutes(r.Group(""), testGuard)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestResearchHandler_ClaimMapsEngineErrors(t *testing.T) {
	userID := uuid.New()
	taskID := uuid.NewString()

	cases := []struct {
		err      error
		wantCode int
		wantKey  string
	}{
		{service.ErrAlreadyClaimed, http.StatusConflict, "ALREADY_CLAIMED"},
		{service.ErrQuotaExceeded, http.StatusTooManyRequests, "QUOTA_EXCEEDED"},
		{service.ErrCategoryNotAssigned, http.StatusForbidden, "CATEGORY_NOT_ASSIGNED"},
		{fmt.Errorf("%w: research task", service.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.wantKey, func(t *testing.T) {
			ledger := new(MockLedgerService)
			ledger.On("ClaimResearchTask", mock.Anything, mock.MatchedBy(func(a service.Actor) bool { return a.UserID == userID }), taskID).
				Return(service.ResearchTaskResponse{}, tc.err)
			r := setupResearchRouter(ledger)

			req := httptest.NewRequest(http.MethodPost, "/api/research/tasks/"+taskID+"/claim", nil)
			req.Header.Set("Authorization", bearer(t, userID, model.RoleResearcher))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			resp := decode(t, w)
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tc.wantKey, resp.Code)
			if tc.wantCode == http.StatusInternalServerError {
				assert.NotContains(t, resp.Error, "connection reset")
			}
		})
	}
}

func TestResearchHandler_Claim(t *testing.T) {
	userID := uuid.New()
	taskID := uuid.NewString()
	ledger := new(MockLedgerService)
	ledger.On("ClaimResearchTask", mock.Anything, mock.Anything, taskID).
		Return(service.ResearchTaskResponse{ID: taskID, Status: model.ResearchInProgress}, nil)
	r := setupResearchRouter(ledger)

	req := httptest.NewRequest(http.MethodPost, "/api/research/tasks/"+taskID+"/claim", nil)
	req.Header.Set("Authorization", bearer(t, userID, model.RoleResearcher))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"IN_PROGRESS"`)
	ledger.AssertExpectations(t)
}

func TestResearchHandler_RoleGuard(t *testing.T) {
	ledger := new(MockLedgerService)
	r := setupResearchRouter(ledger)

	req := httptest.NewRequest(http.MethodGet, "/api/research/tasks", nil)
	req.Header.Set("Authorization", bearer(t, uuid.New(), model.RoleInquirer))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	ledger.AssertNotCalled(t, "ListVisibleResearchTasks", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResearchHandler_ListPaginates(t *testing.T) {
	ledger := new(MockLedgerService)
	ledger.On("ListVisibleResearchTasks", mock.Anything, mock.Anything, 2, 5).
		Return([]service.ResearchTaskResponse{{ID: "a"}}, int64(6), nil)
	r := setupResearchRouter(ledger)

	req := httptest.NewRequest(http.MethodGet, "/api/research/tasks?page=2&limit=5", nil)
	req.Header.Set("Authorization", bearer(t, uuid.New(), model.RoleResearcher))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, response.Meta{Page: 2, Limit: 5, Total: 6}, *resp.Meta)
}

func TestResearchHandler_SubmitValidatesBody(t *testing.T) {
	ledger := new(MockLedgerService)
	r := setupResearchRouter(ledger)
	taskID := uuid.NewString()

	req := httptest.NewRequest(http.MethodPost, "/api/research/tasks/"+taskID+"/submit", strings.NewReader(`{"notes":"no name"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, uuid.New(), model.RoleResearcher))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Code)
	ledger.AssertNotCalled(t, "SubmitResearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
