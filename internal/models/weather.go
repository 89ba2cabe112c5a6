package models

import (
	"fmt"
)

// WeatherReport mirrors the OpenWeather current-weather response. Only the
// fields this pipeline cares about are declared; anything else in the
// upstream payload is ignored on decode. Main and Wind stay pointers so the
// report survives responses that omit them.
type WeatherReport struct {
	Name    string      `json:"name"`
	Main    *Main       `json:"main,omitempty"`
	Weather []Condition `json:"weather"`
	Wind    *Wind       `json:"wind,omitempty"`
}

type Main struct {
	Temp     float64 `json:"temp"`
	Humidity int     `json:"humidity"`
	Pressure float64 `json:"pressure"`
}

type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type Wind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
}

// Key returns the value used as the Kafka partition key.
func (w *WeatherReport) Key() string {
	return w.Name
}

// TemperatureDisplay renders the temperature, or "N/A" when the upstream
// response carried no main block.
func (w *WeatherReport) TemperatureDisplay() string {
	if w.Main == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f°C", w.Main.Temp)
}

func (w *WeatherReport) String() string {
	description := "N/A"
	if len(w.Weather) > 0 {
		description = w.Weather[0].Description
	}

	windSpeed := 0.0
	if w.Wind != nil {
		windSpeed = w.Wind.Speed
	}

	return fmt.Sprintf("Weather in %s: %s, %s, Wind: %.1f m/s",
		w.Name, w.TemperatureDisplay(), description, windSpeed)
}

func (w *WeatherReport) Validate() error {
	if w.Name == "" {
		return ErrMissingLocation
	}
	if w.Main != nil && (w.Main.Humidity < 0 || w.Main.Humidity > 100) {
		return ErrInvalidHumidity
	}
	if w.Wind != nil && (w.Wind.Deg < 0 || w.Wind.Deg > 360) {
		return ErrInvalidWindDeg
	}
	return nil
}

var (
	ErrMissingLocation = ValidationError{Field: "name", Reason: "must not be empty"}
	ErrInvalidHumidity = ValidationError{Field: "main.humidity", Reason: "must be between 0 and 100"}
	ErrInvalidWindDeg  = ValidationError{Field: "wind.deg", Reason: "must be between 0 and 360"}
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}
