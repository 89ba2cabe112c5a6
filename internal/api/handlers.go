package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/k-shtanenko/weather-stream/internal/logger"
	"github.com/k-shtanenko/weather-stream/internal/models"
)

// WeatherPublisher is the slice of PublisherService the trigger API needs.
type WeatherPublisher interface {
	FetchAndPublish(ctx context.Context, location string) (*models.WeatherReport, error)
	FetchAndPublishRaw(ctx context.Context, location string) ([]byte, error)
	Publish(ctx context.Context, report *models.WeatherReport) error
	HealthCheck(ctx context.Context) error
}

type APIHandler struct {
	publisher WeatherPublisher
	logger    logger.Logger
}

func NewAPIHandler(publisher WeatherPublisher) *APIHandler {
	return &APIHandler{
		publisher: publisher,
		logger:    logger.New("info", "development").WithField("component", "api_handler"),
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// TriggerFetch fetches weather for the requested location and publishes it.
// With raw=true the upstream body is forwarded unparsed and echoed back.
func (h *APIHandler) TriggerFetch(c *gin.Context) {
	ctx := c.Request.Context()

	location := c.Query("location")
	if location == "" {
		h.respondError(c, http.StatusBadRequest, "location parameter is required")
		return
	}

	if c.Query("raw") == "true" {
		body, err := h.publisher.FetchAndPublishRaw(ctx, location)
		if err != nil {
			h.respondFetchError(c, location, err)
			return
		}
		c.Data(http.StatusOK, "application/json", body)
		return
	}

	report, err := h.publisher.FetchAndPublish(ctx, location)
	if err != nil {
		h.respondFetchError(c, location, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// PublishReport publishes a caller-supplied report directly, skipping the
// upstream fetch.
func (h *APIHandler) PublishReport(c *gin.Context) {
	ctx := c.Request.Context()

	var report models.WeatherReport
	if err := c.ShouldBindJSON(&report); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid weather report body: "+err.Error())
		return
	}

	if err := report.Validate(); err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.publisher.Publish(ctx, &report); err != nil {
		h.logger.Errorf("Failed to publish report for %s: %v", report.Name, err)
		h.respondError(c, http.StatusBadGateway, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "published", "location": report.Name})
}

func (h *APIHandler) HealthCheck(c *gin.Context) {
	if err := h.publisher.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *APIHandler) respondFetchError(c *gin.Context, location string, err error) {
	h.logger.Errorf("Trigger for %s failed: %v", location, err)

	var fetchErr *models.UpstreamFetchError
	if errors.As(err, &fetchErr) && fetchErr.StatusCode == http.StatusNotFound {
		h.respondError(c, http.StatusNotFound, "location not found: "+location)
		return
	}

	h.respondError(c, http.StatusBadGateway, err.Error())
}

func (h *APIHandler) respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
