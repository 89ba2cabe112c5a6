package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/k-shtanenko/weather-stream/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) FetchAndPublish(ctx context.Context, location string) (*models.WeatherReport, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WeatherReport), args.Error(1)
}

func (m *MockPublisher) FetchAndPublishRaw(ctx context.Context, location string) ([]byte, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPublisher) Publish(ctx context.Context, report *models.WeatherReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockPublisher) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func setupRouter(publisher WeatherPublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := NewAPIHandler(publisher)

	router := gin.New()
	router.POST("/weather/fetch", handler.TriggerFetch)
	router.POST("/weather", handler.PublishReport)
	router.GET("/health", handler.HealthCheck)
	return router
}

func TestAPIHandler_TriggerFetch(t *testing.T) {
	t.Run("returns the published report", func(t *testing.T) {
		publisher := &MockPublisher{}
		report := &models.WeatherReport{
			Name: "London",
			Main: &models.Main{Temp: 15.5, Humidity: 60, Pressure: 1012},
		}
		publisher.On("FetchAndPublish", mock.Anything, "London").Return(report, nil)

		router := setupRouter(publisher)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/weather/fetch?location=London", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var got models.WeatherReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, *report, got)
	})

	t.Run("missing location is a bad request", func(t *testing.T) {
		publisher := &MockPublisher{}
		router := setupRouter(publisher)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/weather/fetch", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		publisher.AssertNotCalled(t, "FetchAndPublish", mock.Anything, mock.Anything)
	})

	t.Run("upstream failure maps to bad gateway", func(t *testing.T) {
		publisher := &MockPublisher{}
		publisher.On("FetchAndPublish", mock.Anything, "London").
			Return(nil, &models.UpstreamFetchError{Location: "London", Err: errors.New("connection refused")})

		router := setupRouter(publisher)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/weather/fetch?location=London", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("unknown location maps to not found", func(t *testing.T) {
		publisher := &MockPublisher{}
		publisher.On("FetchAndPublish", mock.Anything, "Nowhere").
			Return(nil, &models.UpstreamFetchError{Location: "Nowhere", StatusCode: 404, Err: errors.New("city not found")})

		router := setupRouter(publisher)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/weather/fetch?location=Nowhere", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("raw mode echoes the upstream body", func(t *testing.T) {
		publisher := &MockPublisher{}
		body := []byte(`{"name":"London","main":{"temp":15.5},"extra":true}`)
		publisher.On("FetchAndPublishRaw", mock.Anything, "London").Return(body, nil)

		router := setupRouter(publisher)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/weather/fetch?location=London&raw=true", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, body, w.Body.Bytes())
		publisher.AssertNotCalled(t, "FetchAndPublish", mock.Anything, mock.Anything)
	})
}

func TestAPIHandler_PublishReport(t *testing.T) {
	t.Run("publishes a supplied report", func(t *testing.T) {
		publisher := &MockPublisher{}
		publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

		router := setupRouter(publisher)

		body, _ := json.Marshal(&models.WeatherReport{
			Name: "Paris",
			Main: &models.Main{Temp: 21.0, Humidity: 50, Pressure: 1008},
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/weather", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		publisher.AssertExpectations(t)
	})

	t.Run("rejects a report without a location", func(t *testing.T) {
		publisher := &MockPublisher{}
		router := setupRouter(publisher)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/weather", bytes.NewReader([]byte(`{"main":{"temp":12.0}}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		publisher := &MockPublisher{}
		router := setupRouter(publisher)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/weather", bytes.NewReader([]byte(`{not json`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("broker failure maps to bad gateway", func(t *testing.T) {
		publisher := &MockPublisher{}
		publisher.On("Publish", mock.Anything, mock.Anything).
			Return(&models.PublishError{Topic: "weather", Key: "Paris", Err: errors.New("broker down")})

		router := setupRouter(publisher)

		body, _ := json.Marshal(&models.WeatherReport{Name: "Paris"})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/weather", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestAPIHandler_HealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		publisher := &MockPublisher{}
		publisher.On("HealthCheck", mock.Anything).Return(nil)

		router := setupRouter(publisher)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unhealthy", func(t *testing.T) {
		publisher := &MockPublisher{}
		publisher.On("HealthCheck", mock.Anything).Return(errors.New("kafka down"))

		router := setupRouter(publisher)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestMiddleware_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := NewMiddleware(100, 0)

	router := gin.New()
	router.Use(m.RequestID())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("generates an id when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("preserves a caller-supplied id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		router.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	})
}

func TestMiddleware_RateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := NewMiddleware(1, time.Hour)

	router := gin.New()
	router.Use(m.RateLimit())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
