package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/vogiaan1904/dealview-tracker/config"
	"github.com/vogiaan1904/dealview-tracker/internal/metrics"
	repo "github.com/vogiaan1904/dealview-tracker/internal/repository/redis"
	"github.com/vogiaan1904/dealview-tracker/internal/service"
	"github.com/vogiaan1904/dealview-tracker/internal/viewbatch"
	"github.com/vogiaan1904/dealview-tracker/pkg/logger"
	"github.com/vogiaan1904/dealview-tracker/pkg/response"
	"golang.org/x/crypto/bcrypt"
)

type HandlerTestSuite struct {
	suite.Suite
	router   *gin.Engine
	batcher  *viewbatch.ViewBatcher
	statsSvc service.StatsService
	tracked  chan string
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	l := logger.InitializeTestZapLogger()
	reg := prometheus.NewRegistry()
	m := metrics.NewViewMetrics(reg)

	mr := miniredis.RunT(s.T())
	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.T().Cleanup(func() { _ = cli.Close() })
	s.statsSvc = service.NewStatsService(repo.NewRedisViewRepository(cli, l), l, m)

	s.tracked = make(chan string, 16)
	s.batcher = viewbatch.NewViewBatcher(viewbatch.TrackerFunc(func(ctx context.Context, dealID string) error {
		s.tracked <- dealID
		return nil
	}), l, viewbatch.WithQuietPeriod(20*time.Millisecond), viewbatch.WithMetrics(m))
	batcher := s.batcher
	s.T().Cleanup(func() { _ = batcher.Close(context.Background()) })

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	s.Require().NoError(err)
	authSvc := service.NewAuthService(config.AdminConfig{
		Username:     "admin",
		PasswordHash: string(hash),
		JWTSecret:    "test-secret",
		JWTExpiry:    time.Hour,
	}, l)

	impSvc := service.NewImpressionService(s.batcher, service.ImpressionConfig{}, l, m)
	s.router = NewRouter(NewHandler(impSvc, s.statsSvc, authSvc, l), reg, l, []string{"https://deals.example.com"})
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v))
}

func (s *HandlerTestSuite) receiveTracked() string {
	select {
	case id := <-s.tracked:
		return id
	case <-time.After(time.Second):
		s.FailNow("no view was tracked")
		return ""
	}
}

func (s *HandlerTestSuite) login() string {
	w := s.do(http.MethodPost, "/api/v1/admin/login", gin.H{"username": "admin", "password": "s3cret"}, "")
	s.Require().Equal(http.StatusOK, w.Code)

	var out loginResp
	s.decode(w, &out)
	s.Require().NotEmpty(out.Token)
	return out.Token
}

func (s *HandlerTestSuite) TestHealthCheck() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("req-1", w.Header().Get("X-Request-ID"))
	s.Contains(w.Body.String(), "healthy")
}

func (s *HandlerTestSuite) TestCORS() {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/views", nil)
	req.Header.Set("Origin", "https://deals.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusNoContent, w.Code)
	s.Equal("https://deals.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/views", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlerTestSuite) TestImpressionLifecycle() {
	w := s.do(http.MethodPost, "/api/v1/impressions", gin.H{"instance_id": "card-1", "deal_id": "deal-1"}, "")
	s.Require().Equal(http.StatusCreated, w.Code)

	var mounted mountResp
	s.decode(w, &mounted)
	s.Equal("card-1", mounted.InstanceID)
	s.Equal("deal-1", mounted.DealID)

	w = s.do(http.MethodPost, "/api/v1/impressions/card-1/visibility", gin.H{"ratio": 0.3}, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var vis visibilityResp
	s.decode(w, &vis)
	s.False(vis.Fired)

	w = s.do(http.MethodPost, "/api/v1/impressions/card-1/visibility", gin.H{"ratio": 0.8}, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &vis)
	s.True(vis.Fired)

	s.Equal("deal-1", s.receiveTracked())

	w = s.do(http.MethodGet, "/api/v1/impressions/card-1", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var imp impressionResp
	s.decode(w, &imp)
	s.True(imp.Fired)

	w = s.do(http.MethodDelete, "/api/v1/impressions/card-1", nil, "")
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/impressions/card-1", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
	var errResp response.Resp
	s.decode(w, &errResp)
	s.Equal(40401, errResp.ErrorCode)
}

func (s *HandlerTestSuite) TestMountGeneratesInstanceID() {
	w := s.do(http.MethodPost, "/api/v1/impressions", gin.H{"deal_id": "deal-2"}, "")
	s.Require().Equal(http.StatusCreated, w.Code)

	var mounted mountResp
	s.decode(w, &mounted)
	s.NotEmpty(mounted.InstanceID)
}

func (s *HandlerTestSuite) TestMountErrors() {
	w := s.do(http.MethodPost, "/api/v1/impressions", gin.H{"instance_id": "card-1"}, "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), `"rule":"required"`)

	w = s.do(http.MethodPost, "/api/v1/impressions", gin.H{"instance_id": "card-1", "deal_id": "deal-1"}, "")
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/v1/impressions", gin.H{"instance_id": "card-1", "deal_id": "deal-1"}, "")
	s.Equal(http.StatusConflict, w.Code)
	var errResp response.Resp
	s.decode(w, &errResp)
	s.Equal(40901, errResp.ErrorCode)
}

func (s *HandlerTestSuite) TestVisibilityErrors() {
	w := s.do(http.MethodPost, "/api/v1/impressions/missing/visibility", gin.H{"ratio": 1}, "")
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/v1/impressions", gin.H{"instance_id": "card-1", "deal_id": "deal-1"}, "")
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/v1/impressions/card-1/visibility", gin.H{"ratio": 1.5}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/impressions/card-1/visibility", gin.H{}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	// Zero is a valid ratio and must not be treated as missing.
	w = s.do(http.MethodPost, "/api/v1/impressions/card-1/visibility", gin.H{"ratio": 0}, "")
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestTrackView() {
	w := s.do(http.MethodPost, "/api/v1/views", gin.H{"deal_id": "deal-5"}, "")
	s.Require().Equal(http.StatusAccepted, w.Code)
	s.Equal("deal-5", s.receiveTracked())

	w = s.do(http.MethodPost, "/api/v1/views", gin.H{}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	s.Require().NoError(s.batcher.Close(context.Background()))
	w = s.do(http.MethodPost, "/api/v1/views", gin.H{"deal_id": "deal-5"}, "")
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *HandlerTestSuite) TestAdminRequiresToken() {
	w := s.do(http.MethodGet, "/api/v1/admin/deals/deal-1/views", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	var errResp response.Resp
	s.decode(w, &errResp)
	s.Equal(40103, errResp.ErrorCode)

	w = s.do(http.MethodGet, "/api/v1/admin/deals/deal-1/views", nil, "forged")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.decode(w, &errResp)
	s.Equal(40102, errResp.ErrorCode)

	w = s.do(http.MethodPost, "/api/v1/admin/login", gin.H{"username": "admin", "password": "nope"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.decode(w, &errResp)
	s.Equal(40101, errResp.ErrorCode)
}

func (s *HandlerTestSuite) TestAdminStats() {
	ctx := context.Background()
	for _, id := range []string{"hot", "hot", "warm"} {
		_, err := s.statsSvc.RecordView(ctx, service.RecordViewInput{DealID: id})
		s.Require().NoError(err)
	}

	token := s.login()

	w := s.do(http.MethodGet, "/api/v1/admin/deals/hot/views", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	var views dealViewsResp
	s.decode(w, &views)
	s.Equal(int64(2), views.Views)
	s.NotEmpty(views.LastViewedAt)

	w = s.do(http.MethodGet, "/api/v1/admin/deals/top?limit=1", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	var top topDealsResp
	s.decode(w, &top)
	s.Require().Len(top.Deals, 1)
	s.Equal("hot", top.Deals[0].DealID)

	w = s.do(http.MethodGet, "/api/v1/admin/deals/top?limit=500", nil, token)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/admin/sweeper", nil, token)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestMetrics() {
	w := s.do(http.MethodPost, "/api/v1/views", gin.H{"deal_id": "deal-1"}, "")
	s.Require().Equal(http.StatusAccepted, w.Code)

	w = s.do(http.MethodGet, "/metrics", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "dealview_views_enqueued_total 1")
}

func TestBindingDetailsMalformedBody(t *testing.T) {
	details := bindingDetails(assert.AnError)
	require.Len(t, details, 1)
	assert.Equal(t, "body", details[0].Field)
}
