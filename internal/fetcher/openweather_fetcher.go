package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/k-shtanenko/weather-stream/internal/logger"
	"github.com/k-shtanenko/weather-stream/internal/models"
)

type Fetcher interface {
	Fetch(ctx context.Context, location string) (*models.WeatherReport, error)
	FetchRaw(ctx context.Context, location string) ([]byte, error)
	HealthCheck(ctx context.Context) error
}

type OpenWeatherFetcher struct {
	client  *http.Client
	baseURL string
	apiKey  string
	units   string
	logger  logger.Logger
}

func NewOpenWeatherFetcher(baseURL, apiKey, units string) *OpenWeatherFetcher {
	return &OpenWeatherFetcher{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		units:   units,
		logger:  logger.New("info", "development").WithField("component", "openweather_fetcher"),
	}
}

// Fetch retrieves current weather for a location by name and decodes it into
// a WeatherReport. Unknown fields in the response are dropped silently.
func (f *OpenWeatherFetcher) Fetch(ctx context.Context, location string) (*models.WeatherReport, error) {
	f.logger.Debugf("Fetching weather for location: %s", location)

	body, err := f.get(ctx, location)
	if err != nil {
		return nil, err
	}

	var report models.WeatherReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, &models.SerializationError{Payload: body, Err: err}
	}

	f.logger.Debugf("Successfully fetched weather for %s", report.Name)
	return &report, nil
}

// FetchRaw retrieves the upstream response body without decoding it, for the
// raw pass-through publish mode.
func (f *OpenWeatherFetcher) FetchRaw(ctx context.Context, location string) ([]byte, error) {
	f.logger.Debugf("Fetching raw weather payload for location: %s", location)
	return f.get(ctx, location)
}

func (f *OpenWeatherFetcher) get(ctx context.Context, location string) ([]byte, error) {
	requestURL := fmt.Sprintf("%s/weather?q=%s&appid=%s&units=%s",
		f.baseURL, url.QueryEscape(location), f.apiKey, f.units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &models.UpstreamFetchError{Location: location, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &models.UpstreamFetchError{Location: location, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.UpstreamFetchError{Location: location, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &models.UpstreamFetchError{
			Location:   location,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", string(body)),
		}
	}

	return body, nil
}

func (f *OpenWeatherFetcher) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/weather?q=London&appid=%s", f.baseURL, f.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API health check failed with status: %d", resp.StatusCode)
	}

	f.logger.Debug("OpenWeather API health check passed")
	return nil
}
