// Package weather adapts the Open-Meteo public API (geocoding + forecast)
// into the reshaped payloads the HTTP layer serves. Open-Meteo is free and
// needs no API key.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"

	"driftwatch/internal/domain"
	"driftwatch/internal/ports"
)

// wmoDescriptions maps WMO weather codes to display text.
var wmoDescriptions = map[int]string{
	0: "Clear sky", 1: "Mainly clear", 2: "Partly cloudy", 3: "Overcast",
	45: "Fog", 48: "Depositing rime fog",
	51: "Light drizzle", 53: "Moderate drizzle", 55: "Dense drizzle",
	61: "Slight rain", 63: "Moderate rain", 65: "Heavy rain",
	71: "Slight snow", 73: "Moderate snow", 75: "Heavy snow", 77: "Snow grains",
	80: "Slight showers", 81: "Moderate showers", 82: "Violent showers",
	85: "Slight snow showers", 86: "Heavy snow showers",
	95: "Thunderstorm", 96: "Thunderstorm with slight hail", 99: "Thunderstorm with heavy hail",
}

// wmoIcons maps WMO weather codes to OpenWeather-compatible icon codes, kept
// for client compatibility with the previous provider.
var wmoIcons = map[int]string{
	0: "01d", 1: "02d", 2: "03d", 3: "04d",
	45: "50d", 48: "50d",
	51: "09d", 53: "09d", 55: "09d",
	61: "10d", 63: "10d", 65: "10d",
	71: "13d", 73: "13d", 75: "13d", 77: "13d",
	80: "09d", 81: "09d", 82: "09d",
	85: "13d", 86: "13d",
	95: "11d", 96: "11d", 99: "11d",
}

// Client resolves cities through the geocoding endpoint and fetches current
// conditions and 7-day forecasts. Geocoding results are cached; upstream
// calls go through a circuit breaker so a flapping provider fails fast.
type Client struct {
	geocodingURL string
	forecastURL  string
	httpClient   *http.Client
	locations    *cache.Cache
	breaker      *gobreaker.CircuitBreaker
	logger       *slog.Logger
}

var _ ports.WeatherProvider = (*Client)(nil)

// NewClient wires an HTTP client; cacheTTL bounds how long geocoding results
// are reused.
func NewClient(geocodingURL, forecastURL string, cacheTTL time.Duration, logger *slog.Logger) *Client {
	if cacheTTL <= 0 {
		cacheTTL = 6 * time.Hour
	}
	return &Client{
		geocodingURL: geocodingURL,
		forecastURL:  forecastURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		locations:    cache.New(cacheTTL, cacheTTL),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "open-meteo",
			Timeout: 30 * time.Second,
		}),
		logger: logger,
	}
}

// Current fetches and reshapes the current conditions for a city.
func (c *Client) Current(ctx context.Context, city, country string) (domain.WeatherReport, error) {
	loc, err := c.geocode(ctx, city, country)
	if err != nil {
		return domain.WeatherReport{}, err
	}

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%g", loc.Latitude))
	params.Set("longitude", fmt.Sprintf("%g", loc.Longitude))
	params.Set("current", strings.Join([]string{
		"temperature_2m",
		"relative_humidity_2m",
		"apparent_temperature",
		"pressure_msl",
		"wind_speed_10m",
		"weather_code",
	}, ","))
	params.Set("timezone", "auto")

	var payload struct {
		Current struct {
			Time         string  `json:"time"`
			Temperature  float64 `json:"temperature_2m"`
			Humidity     float64 `json:"relative_humidity_2m"`
			ApparentTemp float64 `json:"apparent_temperature"`
			Pressure     float64 `json:"pressure_msl"`
			WindSpeed    float64 `json:"wind_speed_10m"`
			WeatherCode  int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := c.get(ctx, c.forecastURL, params, &payload); err != nil {
		return domain.WeatherReport{}, fmt.Errorf("current weather for %s: %w", loc.Name, err)
	}

	cur := payload.Current
	return domain.WeatherReport{
		City:      loc.Name,
		Country:   loc.Country,
		Timestamp: parseLocalTime(cur.Time),
		Weather: domain.CurrentWeather{
			Temperature: cur.Temperature,
			FeelsLike:   cur.ApparentTemp,
			Humidity:    cur.Humidity,
			Pressure:    cur.Pressure,
			WindSpeed:   cur.WindSpeed,
			Description: describe(cur.WeatherCode),
			Icon:        icon(cur.WeatherCode),
		},
	}, nil
}

// Forecast fetches and reshapes the 7-day forecast for a city.
func (c *Client) Forecast(ctx context.Context, city, country string) (domain.ForecastReport, error) {
	loc, err := c.geocode(ctx, city, country)
	if err != nil {
		return domain.ForecastReport{}, err
	}

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%g", loc.Latitude))
	params.Set("longitude", fmt.Sprintf("%g", loc.Longitude))
	params.Set("daily", strings.Join([]string{
		"weather_code",
		"temperature_2m_max",
		"temperature_2m_min",
		"apparent_temperature_max",
		"apparent_temperature_min",
		"precipitation_probability_max",
		"wind_speed_10m_max",
	}, ","))
	params.Set("timezone", "auto")
	params.Set("forecast_days", "7")

	var payload struct {
		Daily struct {
			Time          []string  `json:"time"`
			WeatherCode   []int     `json:"weather_code"`
			TempMax       []float64 `json:"temperature_2m_max"`
			TempMin       []float64 `json:"temperature_2m_min"`
			Precipitation []float64 `json:"precipitation_probability_max"`
			WindSpeedMax  []float64 `json:"wind_speed_10m_max"`
		} `json:"daily"`
	}
	if err := c.get(ctx, c.forecastURL, params, &payload); err != nil {
		return domain.ForecastReport{}, fmt.Errorf("forecast for %s: %w", loc.Name, err)
	}

	daily := payload.Daily
	forecast := make([]domain.DailyForecast, 0, len(daily.Time))
	for i := range daily.Time {
		tempMax := at(daily.TempMax, i)
		tempMin := at(daily.TempMin, i)
		mid := (tempMax + tempMin) / 2
		code := 0
		if i < len(daily.WeatherCode) {
			code = daily.WeatherCode[i]
		}

		forecast = append(forecast, domain.DailyForecast{
			Date:    daily.Time[i],
			TempMin: tempMin,
			TempMax: tempMax,
			// Day/night split is an approximation around the midpoint.
			TempDay:   mid + 2,
			TempNight: mid - 2,
			// The free tier exposes no daily mean humidity.
			Humidity:                 50,
			WindSpeed:                at(daily.WindSpeedMax, i),
			Description:              describe(code),
			Icon:                     icon(code),
			PrecipitationProbability: at(daily.Precipitation, i),
		})
	}

	return domain.ForecastReport{City: loc.Name, Country: loc.Country, Forecast: forecast}, nil
}

// geocode resolves a city name to coordinates, consulting the cache first.
func (c *Client) geocode(ctx context.Context, city, country string) (domain.Location, error) {
	key := strings.ToLower(city) + "|" + strings.ToLower(country)
	if cached, ok := c.locations.Get(key); ok {
		return cached.(domain.Location), nil
	}

	params := url.Values{}
	params.Set("name", city)
	params.Set("count", "1")
	params.Set("language", "fr")
	params.Set("format", "json")

	var payload struct {
		Results []struct {
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
			Name        string  `json:"name"`
			CountryCode string  `json:"country_code"`
		} `json:"results"`
	}
	if err := c.get(ctx, c.geocodingURL, params, &payload); err != nil {
		return domain.Location{}, fmt.Errorf("geocode %s: %w", city, err)
	}
	if len(payload.Results) == 0 {
		return domain.Location{}, fmt.Errorf("city %q not found", city)
	}

	result := payload.Results[0]
	loc := domain.Location{
		Latitude:  result.Latitude,
		Longitude: result.Longitude,
		Name:      result.Name,
		Country:   result.CountryCode,
	}
	c.locations.Set(key, loc, cache.DefaultExpiration)
	if c.logger != nil {
		c.logger.Debug("geocoded city", "city", city, "lat", loc.Latitude, "lon", loc.Longitude)
	}
	return loc, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, v any) error {
	body, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("upstream returned %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body.([]byte), v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func describe(code int) string {
	if desc, ok := wmoDescriptions[code]; ok {
		return desc
	}
	return "Unknown conditions"
}

func icon(code int) string {
	if ic, ok := wmoIcons[code]; ok {
		return ic
	}
	return "01d"
}

func at(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

// parseLocalTime handles Open-Meteo's minute-precision local timestamps.
func parseLocalTime(value string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
